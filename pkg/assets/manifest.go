// Package assets resolves static asset names to their fingerprinted files.
//
// A build step usually writes a manifest.json next to the assets, mapping
// source names to hashed names:
//
//	{
//	  "app.js": "app.a1b2c3d4.js",
//	  "styles.css": "styles.e5f6a7b8.css"
//	}
//
// When no manifest exists, Scan derives the same mapping from files whose
// names already carry a hash. Templates reach the mapping through the
// "asset" function returned by Resolver.Funcs:
//
//	<link rel="stylesheet" href="{{asset "styles.css"}}">
package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// ManifestName is the file LoadDir looks for in an asset directory.
const ManifestName = "manifest.json"

// Manifest holds the mapping from source asset paths to fingerprinted paths.
// It is safe for concurrent use.
type Manifest struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{entries: make(map[string]string)}
}

// Load reads a JSON manifest of the form {"source.js": "source.abc123.js"}.
func Load(fsys afero.Fs, name string) (*Manifest, error) {
	data, err := afero.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("assets: %s: %w", name, err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return &Manifest{entries: entries}, nil
}

// Scan walks dir and maps every fingerprinted file to its source name, so
// "css/app.a1b2c3d4.css" is reachable as "css/app.css". When two hashed
// files share a source name the lexically last one wins.
func Scan(fsys afero.Fs, dir string) (*Manifest, error) {
	m := NewManifest()
	err := afero.Walk(fsys, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if source, ok := SourceName(rel); ok {
			m.entries[source] = rel
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LoadDir loads dir/manifest.json, falling back to Scan when the file does
// not exist.
func LoadDir(fsys afero.Fs, dir string) (*Manifest, error) {
	m, err := Load(fsys, path.Join(filepath.ToSlash(dir), ManifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return Scan(fsys, dir)
	}
	return m, err
}

// Resolve returns the fingerprinted path for the given source path.
// If not found, returns the original path unchanged.
func (m *Manifest) Resolve(source string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[source]; ok {
		return resolved
	}
	return source
}

// Has returns true if the manifest contains the given source path.
func (m *Manifest) Has(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[source]
	return ok
}

// Set adds or updates an entry in the manifest.
func (m *Manifest) Set(source, resolved string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[source] = resolved
}

// Len returns the number of entries in the manifest.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// IsFingerprinted reports whether a file name carries a content hash of at
// least eight hex digits before its extension, as in "app.a1b2c3d4.css".
func IsFingerprinted(filePath string) bool {
	_, ok := SourceName(filePath)
	return ok
}

// SourceName strips the hash from a fingerprinted path.
func SourceName(filePath string) (string, bool) {
	dir, base := path.Split(filePath)
	parts := strings.Split(base, ".")
	if len(parts) < 3 {
		return "", false
	}

	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return "", false
	}
	for _, c := range hash {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return "", false
		}
	}
	parts = append(parts[:len(parts)-2], parts[len(parts)-1])
	return dir + strings.Join(parts, "."), true
}

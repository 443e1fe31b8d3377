package filecomp

import (
	"context"
	"io/fs"
	"path"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DefaultPattern selects template files.
const DefaultPattern = "**/*.html"

// Source supplies template files by slash-separated relative path.
type Source interface {
	Files(ctx context.Context) (map[string]string, error)
}

// FSSource reads templates from an afero filesystem.
type FSSource struct {
	// FS holds the templates. Use afero.NewBasePathFs to root it at a
	// directory.
	FS afero.Fs

	// Pattern is a doublestar glob. Default: DefaultPattern.
	Pattern string
}

// Dir returns an FSSource over a directory of the OS filesystem.
func Dir(dir string) FSSource {
	return FSSource{FS: afero.NewBasePathFs(afero.NewOsFs(), dir)}
}

func (s FSSource) Files(ctx context.Context) (map[string]string, error) {
	pattern := s.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	fsys := afero.NewIOFS(s.FS)
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	files := make(map[string]string, len(matches))
	for _, name := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		files[path.Clean(name)] = string(b)
	}
	return files, nil
}

package dev

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DefaultInterval is the polling interval used when none is configured.
const DefaultInterval = 300 * time.Millisecond

// DefaultIgnore lists the patterns skipped by every Watcher.
var DefaultIgnore = []string{
	"**/.*",
	"**/*~",
	"**/*.swp",
	"**/*.tmp",
}

// Op describes what happened to a file.
type Op int

const (
	OpCreate Op = iota
	OpModify
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "created"
	case OpModify:
		return "modified"
	case OpRemove:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is a single file change. Path is slash-separated and relative to
// the watched root.
type Change struct {
	Path string
	Op   Op
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Fs is the file system to poll. Default: the OS file system.
	Fs afero.Fs

	// Root is the directory to watch.
	Root string

	// Pattern limits watched files to those matching this doublestar
	// pattern. Default: "**/*".
	Pattern string

	// Ignore lists additional doublestar patterns to skip.
	Ignore []string

	// Interval is the polling interval. Default: DefaultInterval.
	Interval time.Duration

	Logger *slog.Logger
}

type fileStamp struct {
	mod  time.Time
	size int64
}

// Watcher polls a directory tree for changes.
type Watcher struct {
	config   WatcherConfig
	ignore   []string
	mu       sync.Mutex
	snapshot map[string]fileStamp
	onChange func([]Change)
}

// NewWatcher creates a watcher. The first Scan records the current state of
// the tree without reporting it.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.Pattern == "" {
		config.Pattern = "**/*"
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Watcher{
		config: config,
		ignore: append(append([]string{}, DefaultIgnore...), config.Ignore...),
	}
}

// OnChange sets the callback invoked with each non-empty batch of changes.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// Start polls until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if _, err := w.Scan(); err != nil {
		return err
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			changes, err := w.Scan()
			if err != nil {
				w.config.Logger.Warn("watch scan failed", "root", w.config.Root, "error", err)
				continue
			}
			if len(changes) == 0 {
				continue
			}
			w.mu.Lock()
			fn := w.onChange
			w.mu.Unlock()
			if fn != nil {
				fn(changes)
			}
		}
	}
}

// Scan walks the tree once and returns the changes since the previous scan,
// sorted by path. The first call only records the baseline.
func (w *Watcher) Scan() ([]Change, error) {
	current := make(map[string]fileStamp)
	err := afero.Walk(w.config.Fs, w.config.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(w.config.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if w.ignored(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if ok, _ := doublestar.Match(w.config.Pattern, rel); !ok {
			return nil
		}
		current[rel] = fileStamp{mod: info.ModTime(), size: info.Size()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	previous := w.snapshot
	w.snapshot = current
	if previous == nil {
		return nil, nil
	}

	var changes []Change
	for path, stamp := range current {
		old, ok := previous[path]
		switch {
		case !ok:
			changes = append(changes, Change{Path: path, Op: OpCreate})
		case !old.mod.Equal(stamp.mod) || old.size != stamp.size:
			changes = append(changes, Change{Path: path, Op: OpModify})
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			changes = append(changes, Change{Path: path, Op: OpRemove})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

func (w *Watcher) ignored(rel string) bool {
	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

package dev

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// BuildFunc builds a fresh handler from the current state of the templates.
type BuildFunc func(ctx context.Context) (http.Handler, error)

type handlerBox struct{ h http.Handler }

// Reloader serves the most recently built handler. Requests in flight keep
// the handler they started with.
type Reloader struct {
	build   BuildFunc
	current atomic.Pointer[handlerBox]
	logger  *slog.Logger
	notify  *ReloadServer

	mu      sync.Mutex
	lastErr error
}

// NewReloader builds the first handler. It fails if that build fails.
// notify may be nil.
func NewReloader(ctx context.Context, build BuildFunc, notify *ReloadServer, logger *slog.Logger) (*Reloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h, err := build(ctx)
	if err != nil {
		return nil, err
	}
	r := &Reloader{build: build, logger: logger, notify: notify}
	r.current.Store(&handlerBox{h: h})
	return r, nil
}

// Reload rebuilds the handler. On failure the previous handler stays in
// service and the error is kept for LastError.
func (r *Reloader) Reload(ctx context.Context) error {
	h, err := r.build(ctx)

	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("reload failed, keeping previous templates", "error", err)
		if r.notify != nil {
			r.notify.NotifyError(err.Error())
		}
		return err
	}

	r.current.Store(&handlerBox{h: h})
	r.logger.Info("templates reloaded")
	if r.notify != nil {
		r.notify.ClearError()
		r.notify.NotifyReload()
	}
	return nil
}

// OnChange returns a Watcher callback that reloads on every batch.
func (r *Reloader) OnChange(ctx context.Context) func([]Change) {
	return func(changes []Change) {
		for _, c := range changes {
			r.logger.Debug("template changed", "path", c.Path, "op", c.Op.String())
		}
		_ = r.Reload(ctx)
	}
}

// LastError returns the error of the most recent reload, or nil.
func (r *Reloader) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Reloader) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.current.Load().h.ServeHTTP(w, req)
}

// InjectClient inserts ClientScript before the first closing head tag of
// every HTML response from next.
func InjectClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&injectWriter{ResponseWriter: w}, r)
	})
}

var headClose = []byte("</head>")

type injectWriter struct {
	http.ResponseWriter
	checked bool
	html    bool
	done    bool
}

func (w *injectWriter) WriteHeader(code int) {
	w.check()
	w.ResponseWriter.WriteHeader(code)
}

func (w *injectWriter) check() {
	if w.checked {
		return
	}
	w.checked = true
	w.html = strings.HasPrefix(w.Header().Get("Content-Type"), "text/html")
	if w.html {
		w.Header().Del("Content-Length")
	}
}

// Write relies on the closing head tag arriving within a single write,
// which holds for the engine since it writes whole tags.
func (w *injectWriter) Write(p []byte) (int, error) {
	w.check()
	if !w.html || w.done {
		return w.ResponseWriter.Write(p)
	}
	i := bytes.Index(p, headClose)
	if i < 0 {
		return w.ResponseWriter.Write(p)
	}
	w.done = true
	out := make([]byte, 0, len(p)+len(ClientScript))
	out = append(out, p[:i]...)
	out = append(out, ClientScript...)
	out = append(out, p[i:]...)
	if _, err := w.ResponseWriter.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *injectWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *injectWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

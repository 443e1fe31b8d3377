package server

import (
	"net/http"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/vango-dev/stitch/pkg/engine"
	"github.com/vango-dev/stitch/pkg/finalize"
)

// Handler renders the engine's document for every request.
type Handler struct {
	engine  *engine.Engine
	config  Config
	proxies *proxyMatcher
}

// NewHandler returns a Handler.
func NewHandler(eng *engine.Engine, cfg Config) *Handler {
	cfg = cfg.withDefaults()
	return &Handler{
		engine:  eng,
		config:  cfg,
		proxies: newProxyMatcher(cfg.TrustedProxies, cfg.Logger),
	}
}

// ServeHTTP renders the document. Not-found requests get a 404.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, nil)
}

// Middleware renders the document and hands not-found requests to next.
// It has the signature chi's Router.Use expects.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, next)
	})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	start := time.Now()
	rc := NewContext(w, r, next, h.config)

	var (
		outcome finalize.Outcome
		err     error
	)
	if h.config.Mode == ModeBuffer {
		outcome, err = h.engine.Buffer(r.Context(), rc)
	} else {
		outcome, err = h.engine.Stream(r.Context(), rc)
	}

	log := h.config.Logger.With(
		"method", r.Method,
		"path", r.URL.Path,
		"client", h.proxies.clientIP(r),
		"duration", time.Since(start),
	)
	switch {
	case errors.Is(err, engine.ErrMissingRoot):
		// The engine wrote nothing; an untouched ResponseWriter would
		// become an empty 200.
		log.Error("document tree has no root", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	case err != nil && !rc.Written():
		log.Error("render failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	case err != nil:
		log.Warn("render aborted", "error", err)
	default:
		log.Debug("rendered", "outcome", outcome.String())
	}
}

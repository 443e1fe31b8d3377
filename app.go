package stitch

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"

	"github.com/vango-dev/stitch/pkg/component"
	"github.com/vango-dev/stitch/pkg/engine"
	"github.com/vango-dev/stitch/pkg/live"
	"github.com/vango-dev/stitch/pkg/middleware"
	"github.com/vango-dev/stitch/pkg/server"
)

// App is the main stitch entry point. It routes requests to static files,
// the live websocket, metrics and, for everything else, document rendering.
type App struct {
	engine   *engine.Engine
	router   chi.Router
	registry *prometheus.Registry

	// Static file serving
	staticFS     afero.Fs
	staticPrefix string

	config Config
	logger *slog.Logger
}

// New creates an App rendering the tree below root.
func New(root *component.Descriptor, cfg Config) *App {
	cfg = cfg.withDefaults()
	a := &App{
		config:       cfg,
		logger:       cfg.Logger,
		staticPrefix: cfg.Static.Prefix,
	}

	switch {
	case cfg.Static.FS != nil:
		a.staticFS = cfg.Static.FS
	case cfg.Static.Dir != "":
		a.staticFS = afero.NewBasePathFs(afero.NewOsFs(), cfg.Static.Dir)
	}

	observers := engine.Observers{engine.LogObserver{Logger: cfg.Logger}}
	if cfg.Metrics {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts := []middleware.MetricsOption{middleware.WithRegistry(a.registry)}
		if cfg.MetricsNamespace != "" {
			opts = append(opts, middleware.WithNamespace(cfg.MetricsNamespace))
		}
		observers = append(observers, middleware.Prometheus(opts...))
	}
	if cfg.TracerProvider != nil {
		observers = append(observers, middleware.OpenTelemetry(middleware.WithTracerProvider(cfg.TracerProvider)))
	}
	if cfg.Engine.Observer != nil {
		observers = append(observers, cfg.Engine.Observer)
	}
	engineCfg := cfg.Engine
	engineCfg.Observer = observers
	a.engine = engine.New(root, engineCfg)

	a.router = a.routes()
	return a
}

func (a *App) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	if a.config.Metrics {
		r.Handle(a.config.MetricsPath, middleware.MetricsHandler(a.registry))
	}
	if a.config.Live {
		r.Handle(a.config.LivePath, live.NewHandler(a.engine, a.config.LiveConfig))
	}

	documents := server.NewHandler(a.engine, a.config.Server)
	r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if a.shouldServeStatic(req.URL.Path) {
			a.serveStatic(w, req)
			return
		}
		documents.ServeHTTP(w, req)
	}))
	return r
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Router returns the underlying chi router. Routes added to it take
// precedence over document rendering.
func (a *App) Router() chi.Router {
	return a.router
}

// Engine returns the rendering engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Registry returns the metrics registry, or nil when metrics are disabled.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Config returns the App configuration with defaults applied.
func (a *App) Config() Config {
	return a.config
}

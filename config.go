package stitch

import (
	"log/slog"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/stitch/pkg/engine"
	"github.com/vango-dev/stitch/pkg/live"
	"github.com/vango-dev/stitch/pkg/server"
)

const (
	// DefaultLivePath is where the re-render websocket is mounted.
	DefaultLivePath = "/_stitch/live"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"
)

// Config configures an App.
type Config struct {
	// Engine configures rendering. Its Observer and Logger are combined
	// with the App's own.
	Engine engine.Config

	// Server configures document responses.
	Server server.Config

	// Static configures static file serving. Disabled when Dir and FS are
	// both empty.
	Static StaticConfig

	// Live mounts the interactive re-render websocket at LivePath.
	Live       bool
	LivePath   string
	LiveConfig live.Config

	// Metrics records Prometheus metrics and serves them at MetricsPath.
	Metrics          bool
	MetricsPath      string
	MetricsNamespace string

	// TracerProvider enables OpenTelemetry tracing of passes. Optional.
	TracerProvider trace.TracerProvider

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Dir is the directory containing static files (e.g., "public").
	Dir string

	// FS overrides Dir with an arbitrary filesystem.
	FS afero.Fs

	// Prefix is the URL path prefix for static files (e.g., "/assets").
	// A file at public/app.css with Prefix="/" is served at /app.css.
	// Default: "/".
	Prefix string

	// CacheControl determines caching behavior for static files.
	// Default: CacheControlNone.
	CacheControl CacheControlStrategy

	// Headers are custom headers added to all static file responses.
	Headers map[string]string
}

// CacheControlStrategy determines caching behavior for static files.
type CacheControlStrategy int

const (
	// CacheControlNone tells clients not to cache static files.
	CacheControlNone CacheControlStrategy = iota

	// CacheControlProduction marks fingerprinted files (app.3f9a2c1d.css)
	// immutable for a year and revalidates everything else hourly.
	CacheControlProduction
)

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.LivePath == "" {
		c.LivePath = DefaultLivePath
	}
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
	if c.Static.Prefix == "" {
		c.Static.Prefix = "/"
	}
	if c.Engine.Logger == nil {
		c.Engine.Logger = c.Logger
	}
	if c.Server.Logger == nil {
		c.Server.Logger = c.Logger
	}
	if c.LiveConfig.Logger == nil {
		c.LiveConfig.Logger = c.Logger
	}
	return c
}

package middleware

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/stitch/pkg/engine"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "stitch").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "stitch",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// MetricsObserver records engine events as Prometheus metrics.
//
// Metrics collected:
//   - stitch_renders_total: component renders by component and status
//   - stitch_render_duration_seconds: render duration by component
//   - stitch_renders_in_flight: renders currently outstanding
//   - stitch_errors_total: reported faults by kind
//   - stitch_passes_total: finished passes by outcome and variant
//   - stitch_pass_duration_seconds: pass duration by outcome
type MetricsObserver struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	inFlight       prometheus.Gauge
	errorsTotal    *prometheus.CounterVec
	passesTotal    *prometheus.CounterVec
	passDuration   *prometheus.HistogramVec
}

var _ engine.Observer = (*MetricsObserver)(nil)

// Prometheus creates the metrics observer and registers its metrics.
// Registering twice on the same registry panics, as with promauto.
func Prometheus(opts ...MetricsOption) *MetricsObserver {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &MetricsObserver{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of component renders",
			ConstLabels: config.ConstLabels,
		}, []string{"component", "status"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Component render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"component"}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_in_flight",
			Help:        "Number of component renders currently outstanding",
			ConstLabels: config.ConstLabels,
		}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of reported rendering faults",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of finished rendering passes",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome", "interactive"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Rendering pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"outcome"}),
	}
}

func (m *MetricsObserver) RenderStart(engine.RenderEvent) {
	m.inFlight.Inc()
}

func (m *MetricsObserver) RenderComplete(e engine.RenderEvent) {
	m.inFlight.Dec()
	status := "success"
	if e.Err != nil {
		status = "error"
	}
	m.rendersTotal.WithLabelValues(e.Component, status).Inc()
	m.renderDuration.WithLabelValues(e.Component).Observe(e.Duration.Seconds())
}

func (m *MetricsObserver) PassComplete(e engine.PassEvent) {
	outcome := e.Outcome.String()
	if e.Cancelled && !e.Outcome.Cancels() {
		outcome = "cancelled"
	}
	m.passesTotal.WithLabelValues(outcome, strconv.FormatBool(e.Interactive)).Inc()
	m.passDuration.WithLabelValues(outcome).Observe(e.Duration.Seconds())
}

func (m *MetricsObserver) Error(e engine.ErrorEvent) {
	m.errorsTotal.WithLabelValues(string(e.Kind)).Inc()
}

// MetricsHandler serves the metrics of gatherer. A nil gatherer serves the
// default registry.
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

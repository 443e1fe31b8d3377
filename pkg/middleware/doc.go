// Package middleware provides observability for the rendering engine.
//
// This package includes:
//   - a Prometheus observer recording renders, passes and faults
//   - an OpenTelemetry observer tracing passes and component renders
//
// Both implement engine.Observer and are combined with engine.Observers:
//
//	metrics := middleware.Prometheus(middleware.WithNamespace("shop"))
//	tracing := middleware.OpenTelemetry(middleware.WithTracerName("shop"))
//	eng := engine.New(root, engine.Config{
//	    Observer: engine.Observers{metrics, tracing, engine.LogObserver{}},
//	})
//
// # Prometheus Metrics
//
// Metrics are registered on the configured registry (default: the global
// one) and exposed with MetricsHandler:
//
//	r.Handle("/metrics", middleware.MetricsHandler(nil))
//
// # OpenTelemetry
//
// The tracer comes from the global provider unless WithTracerProvider is
// used. Every pass is a span; every component render is a child span of
// its pass.
package middleware

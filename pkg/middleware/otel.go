package middleware

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/stitch/pkg/engine"
)

// Default tracer name.
const defaultTracerName = "stitch"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "stitch").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: otel.GetTracerProvider()
	TracerProvider trace.TracerProvider

	// SkipRenders disables per-component spans; only passes are traced.
	SkipRenders bool

	// AttributeExtractor adds custom attributes to pass spans.
	AttributeExtractor func(e engine.PassEvent) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithSkipRenders disables per-component spans.
func WithSkipRenders(skip bool) OTelOption {
	return func(c *OTelConfig) {
		c.SkipRenders = skip
	}
}

// WithAttributeExtractor sets a custom attribute extractor for pass spans.
func WithAttributeExtractor(extractor func(e engine.PassEvent) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// TracingObserver turns engine events into spans.
type TracingObserver struct {
	config OTelConfig
	tracer trace.Tracer

	mu     sync.Mutex
	passes map[string]*passSpans
}

type passSpans struct {
	ctx    context.Context
	pass   trace.Span
	render trace.Span
}

var _ engine.Observer = (*TracingObserver)(nil)

// OpenTelemetry creates the tracing observer.
func OpenTelemetry(opts ...OTelOption) *TracingObserver {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	return &TracingObserver{
		config: config,
		tracer: config.TracerProvider.Tracer(config.TracerName),
		passes: map[string]*passSpans{},
	}
}

// spans returns the spans of a pass, starting the pass span on first use.
// Callers hold o.mu.
func (o *TracingObserver) spans(passID string, interactive bool) *passSpans {
	if ps, ok := o.passes[passID]; ok {
		return ps
	}
	name := "stitch.pass"
	if interactive {
		name = "stitch.rerender"
	}
	ctx, span := o.tracer.Start(context.Background(), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("stitch.pass_id", passID),
			attribute.Bool("stitch.interactive", interactive),
		),
	)
	ps := &passSpans{ctx: ctx, pass: span}
	o.passes[passID] = ps
	return ps
}

func (o *TracingObserver) RenderStart(e engine.RenderEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ps := o.spans(e.PassID, e.Interactive)
	if o.config.SkipRenders {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("stitch.component", e.Component),
		attribute.Int("stitch.depth", e.Depth),
	}
	if e.ID != "" {
		attrs = append(attrs, attribute.String("stitch.id", e.ID))
	}
	_, ps.render = o.tracer.Start(ps.ctx, "stitch.render "+e.Component, trace.WithAttributes(attrs...))
}

func (o *TracingObserver) RenderComplete(e engine.RenderEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ps, ok := o.passes[e.PassID]
	if !ok || ps.render == nil {
		return
	}
	if e.Err != nil {
		ps.render.RecordError(e.Err)
		ps.render.SetStatus(codes.Error, e.Err.Error())
	} else {
		ps.render.SetStatus(codes.Ok, "")
	}
	ps.render.End()
	ps.render = nil
}

func (o *TracingObserver) PassComplete(e engine.PassEvent) {
	o.mu.Lock()
	ps := o.spans(e.PassID, e.Interactive)
	delete(o.passes, e.PassID)
	o.mu.Unlock()

	ps.pass.SetAttributes(
		attribute.String("stitch.outcome", e.Outcome.String()),
		attribute.Int("stitch.renders", e.Renders),
		attribute.Bool("stitch.cancelled", e.Cancelled),
	)
	if o.config.AttributeExtractor != nil {
		ps.pass.SetAttributes(o.config.AttributeExtractor(e)...)
	}
	if e.Err != nil {
		ps.pass.RecordError(e.Err)
		ps.pass.SetStatus(codes.Error, e.Err.Error())
	} else {
		ps.pass.SetStatus(codes.Ok, "")
	}
	ps.pass.End()
}

func (o *TracingObserver) Error(e engine.ErrorEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if e.Kind == engine.ErrorKindMissingRoot {
		// The pass never starts, so there is no PassComplete to end a span.
		_, span := o.tracer.Start(context.Background(), "stitch.pass",
			trace.WithAttributes(attribute.String("stitch.pass_id", e.PassID)))
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
		span.End()
		return
	}

	ps := o.spans(e.PassID, false)
	target := ps.pass
	if ps.render != nil {
		target = ps.render
	}
	target.AddEvent("stitch.error", trace.WithAttributes(
		attribute.String("stitch.error_kind", string(e.Kind)),
		attribute.String("stitch.component", e.Component),
		attribute.String("error.message", e.Err.Error()),
	))
}

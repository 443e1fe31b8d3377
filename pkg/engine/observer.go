package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/stitch/pkg/finalize"
)

// ErrorKind classifies an ErrorEvent.
type ErrorKind string

const (
	ErrorKindComponent   ErrorKind = "component"
	ErrorKindNoTemplate  ErrorKind = "no_template"
	ErrorKindMissingRoot ErrorKind = "missing_root"
	ErrorKindLateEffect  ErrorKind = "late_effect"
	ErrorKindMaxDepth    ErrorKind = "max_depth"
	ErrorKindTransport   ErrorKind = "transport"
)

// RenderEvent describes one component render.
type RenderEvent struct {
	PassID      string
	Component   string
	ID          string
	Depth       int
	Interactive bool

	// Duration and Err are set on RenderComplete only.
	Duration time.Duration
	Err      error
}

// PassEvent describes a finished pass.
type PassEvent struct {
	PassID      string
	Interactive bool
	Outcome     finalize.Outcome
	Renders     int
	Cancelled   bool
	Duration    time.Duration
	Err         error
}

// ErrorEvent describes a fault that did not stop the pass from producing
// a response, or the fatal error of a pass that could not start.
type ErrorEvent struct {
	PassID    string
	Component string
	Kind      ErrorKind
	Err       error
}

// Observer receives engine events. Calls are made synchronously from the
// pass goroutine; a panicking observer is recovered and logged.
type Observer interface {
	RenderStart(RenderEvent)
	RenderComplete(RenderEvent)
	PassComplete(PassEvent)
	Error(ErrorEvent)
}

// NopObserver ignores every event. Embed it to implement only some
// methods.
type NopObserver struct{}

func (NopObserver) RenderStart(RenderEvent)    {}
func (NopObserver) RenderComplete(RenderEvent) {}
func (NopObserver) PassComplete(PassEvent)     {}
func (NopObserver) Error(ErrorEvent)           {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (os Observers) RenderStart(e RenderEvent) {
	for _, o := range os {
		o.RenderStart(e)
	}
}

func (os Observers) RenderComplete(e RenderEvent) {
	for _, o := range os {
		o.RenderComplete(e)
	}
}

func (os Observers) PassComplete(e PassEvent) {
	for _, o := range os {
		o.PassComplete(e)
	}
}

func (os Observers) Error(e ErrorEvent) {
	for _, o := range os {
		o.Error(e)
	}
}

// LogObserver writes events as structured log records. Renders are logged
// at debug level, passes at info and errors at error.
type LogObserver struct {
	Logger *slog.Logger
}

func (l LogObserver) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l LogObserver) RenderStart(e RenderEvent) {
	l.logger().Debug("render start",
		"pass", e.PassID,
		"component", e.Component,
		"depth", e.Depth)
}

func (l LogObserver) RenderComplete(e RenderEvent) {
	l.logger().Debug("render complete",
		"pass", e.PassID,
		"component", e.Component,
		"duration", e.Duration,
		"failed", e.Err != nil)
}

func (l LogObserver) PassComplete(e PassEvent) {
	level := slog.LevelInfo
	if e.Err != nil {
		level = slog.LevelWarn
	}
	l.logger().Log(context.Background(), level, "pass complete",
		"pass", e.PassID,
		"outcome", e.Outcome.String(),
		"renders", e.Renders,
		"interactive", e.Interactive,
		"cancelled", e.Cancelled,
		"duration", e.Duration)
}

func (l LogObserver) Error(e ErrorEvent) {
	l.logger().Error("render error",
		"pass", e.PassID,
		"component", e.Component,
		"kind", string(e.Kind),
		"error", e.Err)
}

// safeObserver shields the pass from observer panics.
type safeObserver struct {
	next   Observer
	logger *slog.Logger
}

func (s safeObserver) guard(event string) {
	if r := recover(); r != nil {
		s.logger.Error("observer panic", "event", event, "panic", r)
	}
}

func (s safeObserver) RenderStart(e RenderEvent) {
	defer s.guard("render_start")
	s.next.RenderStart(e)
}

func (s safeObserver) RenderComplete(e RenderEvent) {
	defer s.guard("render_complete")
	s.next.RenderComplete(e)
}

func (s safeObserver) PassComplete(e PassEvent) {
	defer s.guard("pass_complete")
	s.next.PassComplete(e)
}

func (s safeObserver) Error(e ErrorEvent) {
	defer s.guard("error")
	s.next.Error(e)
}

package engine

import (
	"context"
	"sync"

	"github.com/vango-dev/stitch/pkg/component"
)

func static(name, markup string, children ...component.Child) *component.Descriptor {
	return &component.Descriptor{Name: name, New: component.Static(markup), Children: children}
}

func fn(name string, f component.TemplateFunc, children ...component.Child) *component.Descriptor {
	return &component.Descriptor{Name: name, New: component.Func(f), Children: children}
}

func child(name string, d *component.Descriptor) component.Child {
	return component.Child{Name: name, Component: d}
}

// tree builds a root whose document renders doc with the given children
// and whose head renders head.
func tree(doc, head string, children ...component.Child) *component.Descriptor {
	return component.NewRoot(static("document", doc, children...), static("head", head), children...)
}

func redirectTo(location string) component.TemplateFunc {
	return func(_ context.Context, c *component.Context) (string, error) {
		c.Redirect(location)
		return "", nil
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	started   []string
	completed []RenderEvent
	passes    []PassEvent
	errors    []ErrorEvent
}

func (o *recordingObserver) RenderStart(e RenderEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, e.Component)
}

func (o *recordingObserver) RenderComplete(e RenderEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, e)
}

func (o *recordingObserver) PassComplete(e PassEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.passes = append(o.passes, e)
}

func (o *recordingObserver) Error(e ErrorEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, e)
}

func (o *recordingObserver) Started() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.started...)
}

func (o *recordingObserver) Errors() []ErrorEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ErrorEvent(nil), o.errors...)
}

func (o *recordingObserver) Passes() []PassEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]PassEvent(nil), o.passes...)
}

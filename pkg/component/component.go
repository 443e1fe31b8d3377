package component

import (
	"bytes"
	"context"

	"github.com/a-h/templ"
)

// Data is the value passed from Render to the template capability when a
// component has no Renderer.
type Data map[string]any

// Renderer is the optional data-loading step of the lifecycle.
type Renderer interface {
	Render(ctx context.Context) (any, error)
}

// Templater produces the component's markup.
type Templater interface {
	Template(ctx context.Context, data any) (string, error)
}

// TemplComponent produces the component's markup as a templ component.
type TemplComponent interface {
	Templ(ctx context.Context, data any) (templ.Component, error)
}

// Constructor creates a component instance bound to c.
type Constructor func(c *Context) (any, error)

// TemplateFunc renders a stateless component.
type TemplateFunc func(ctx context.Context, c *Context) (string, error)

// Func returns a constructor for a stateless component whose markup is
// produced by fn.
func Func(fn TemplateFunc) Constructor {
	return func(c *Context) (any, error) {
		return &funcComponent{ctx: c, fn: fn}, nil
	}
}

// Static returns a constructor for a component that always renders markup.
func Static(markup string) Constructor {
	return Func(func(context.Context, *Context) (string, error) {
		return markup, nil
	})
}

// Templ returns a constructor for a component rendered by a templ component.
func Templ(fn func(c *Context) templ.Component) Constructor {
	return func(c *Context) (any, error) {
		return &templComponent{ctx: c, fn: fn}, nil
	}
}

type funcComponent struct {
	ctx *Context
	fn  TemplateFunc
}

func (f *funcComponent) Template(ctx context.Context, _ any) (string, error) {
	return f.fn(ctx, f.ctx)
}

type templComponent struct {
	ctx *Context
	fn  func(c *Context) templ.Component
}

func (t *templComponent) Templ(context.Context, any) (templ.Component, error) {
	return t.fn(t.ctx), nil
}

// RenderTempl renders a templ component to a string.
func RenderTempl(ctx context.Context, tc templ.Component) (string, error) {
	if tc == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := tc.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

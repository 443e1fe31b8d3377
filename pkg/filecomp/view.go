package filecomp

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vango-dev/stitch/pkg/component"
)

// View is the data a file template is executed against.
type View struct {
	c *component.Context
}

// Name returns the component name.
func (v View) Name() string { return v.c.Name() }

// ID returns the host tag's id attribute.
func (v View) ID() string { return v.c.ID() }

// Interactive reports whether this is a re-render.
func (v View) Interactive() bool { return v.c.Interactive() }

// Attr returns an attribute of the host tag.
func (v View) Attr(name string) string { return v.c.Attr(name) }

// Has reports whether the host tag has an attribute.
func (v View) Has(name string) bool { return v.c.HasAttr(name) }

// Cookie returns a request cookie, or "".
func (v View) Cookie(name string) string {
	val, _ := v.c.Cookie(name)
	return val
}

// Path returns the URL path of the page.
func (v View) Path() string { return v.c.Path() }

// UserAgent returns the request's User-Agent.
func (v View) UserAgent() string { return v.c.UserAgent() }

// Redirect requests a redirect to location. It renders nothing.
func (v View) Redirect(location string) string {
	v.c.Redirect(location)
	return ""
}

// NotFound hands the request to the next handler. It renders nothing.
func (v View) NotFound() string {
	v.c.NotFound()
	return ""
}

// SetCookie queues a cookie. It renders nothing.
func (v View) SetCookie(name, value string) string {
	v.c.SetCookie(&http.Cookie{Name: name, Value: value})
	return ""
}

// Script renders an inline script carrying the request's CSP nonce.
func (v View) Script(js string) template.HTML {
	return template.HTML(v.c.InlineScript(js))
}

type fileComponent struct {
	c    *component.Context
	tmpl *template.Template
}

func newFileComponent(tmpl *template.Template) component.Constructor {
	return func(c *component.Context) (any, error) {
		return &fileComponent{c: c, tmpl: tmpl}, nil
	}
}

func (f *fileComponent) Template(_ context.Context, _ any) (string, error) {
	var b strings.Builder
	if err := f.tmpl.Execute(&b, View{c: f.c}); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ErrorView is the data the error template is executed against.
type ErrorView struct {
	View

	// Error is the failure message of the component being replaced.
	Error string
}

func renderError(tmpl *template.Template, c *component.Context, err error, logger *slog.Logger) string {
	var b strings.Builder
	if execErr := tmpl.Execute(&b, ErrorView{View: View{c: c}, Error: err.Error()}); execErr != nil {
		logger.Error("error template failed", "component", c.Name(), "error", execErr)
		return ""
	}
	return b.String()
}

package component

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/stitch/pkg/tokenizer"
)

// Helpers are the server-side operations a component can reach through its
// Context. They are backed by the routing context of the current request.
type Helpers interface {
	// Cookie returns the value of a request cookie.
	Cookie(name string) (string, bool)

	// SetCookie queues a Set-Cookie header.
	SetCookie(cookie *http.Cookie)

	// Redirect requests a redirect and cancels the pass.
	Redirect(location string)

	// NotFound hands the request to the next handler and cancels the pass.
	NotFound()

	// Nonce returns the CSP nonce for inline scripts, if any.
	Nonce() string

	// UserAgent returns the request's User-Agent header.
	UserAgent() string

	// Path returns the URL path of the page being rendered.
	Path() string
}

// ContextConfig holds the values a Context is built from.
type ContextConfig struct {
	Name        string
	Attributes  tokenizer.Attributes
	PassID      string
	Interactive bool
	Helpers     Helpers
	Logger      *slog.Logger
}

// Context is the immutable view a component instance gets of its
// invocation. It is passed to the constructor; per-render state is never
// stored anywhere shared between instances.
type Context struct {
	name        string
	attrs       tokenizer.Attributes
	passID      string
	interactive bool
	helpers     Helpers
	logger      *slog.Logger
}

// NewContext builds a Context. The attribute map is copied.
func NewContext(cfg ContextConfig) *Context {
	attrs := cfg.Attributes.Clone()
	helpers := cfg.Helpers
	if helpers == nil {
		helpers = noHelpers{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		name:        cfg.Name,
		attrs:       attrs,
		passID:      cfg.PassID,
		interactive: cfg.Interactive,
		helpers:     helpers,
		logger:      logger.With("component", cfg.Name),
	}
}

// Name returns the component name.
func (c *Context) Name() string { return c.name }

// PassID returns the id of the rendering pass.
func (c *Context) PassID() string { return c.passID }

// Interactive reports whether this render belongs to an interactive
// re-render rather than a full document render.
func (c *Context) Interactive() bool { return c.interactive }

// Logger returns a logger tagged with the component name.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Attributes returns a copy of the tag attributes.
func (c *Context) Attributes() tokenizer.Attributes { return c.attrs.Clone() }

// Attr returns the text value of an attribute.
func (c *Context) Attr(name string) string { return c.attrs.Get(name) }

// HasAttr reports whether an attribute is present.
func (c *Context) HasAttr(name string) bool { return c.attrs.Has(name) }

// ID returns the component's explicit id attribute.
func (c *Context) ID() string { return c.attrs.Get("id") }

// ElementID returns a document-unique id for an element inside the
// component. Without an explicit component id, the local id is returned
// unchanged.
func (c *Context) ElementID(local string) string {
	if id := c.ID(); id != "" {
		return id + "-" + local
	}
	return local
}

// Selector returns a CSS selector for ElementID(local).
func (c *Context) Selector(local string) string {
	return "#" + c.ElementID(local)
}

// Cookie returns a request cookie value.
func (c *Context) Cookie(name string) (string, bool) { return c.helpers.Cookie(name) }

// SetCookie queues a response cookie.
func (c *Context) SetCookie(cookie *http.Cookie) { c.helpers.SetCookie(cookie) }

// Redirect requests a redirect to location.
func (c *Context) Redirect(location string) { c.helpers.Redirect(location) }

// NotFound delegates the request to the next handler.
func (c *Context) NotFound() { c.helpers.NotFound() }

// UserAgent returns the request's User-Agent header.
func (c *Context) UserAgent() string { return c.helpers.UserAgent() }

// Path returns the URL path of the page being rendered.
func (c *Context) Path() string { return c.helpers.Path() }

// InlineScript wraps js in a script element carrying the request's CSP
// nonce. A closing script tag inside js is neutralised.
func (c *Context) InlineScript(js string) string {
	var b strings.Builder
	b.WriteString("<script")
	if nonce := c.helpers.Nonce(); nonce != "" {
		b.WriteString(` nonce="`)
		b.WriteString(html.EscapeString(nonce))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	writeScriptBody(&b, js)
	b.WriteString("</script>")
	return b.String()
}

// writeScriptBody copies js into b, escaping every "</script" in any
// letter case as "<\/" followed by the original letters.
func writeScriptBody(b *strings.Builder, js string) {
	const closer = "</script"
	for {
		i := indexFold(js, closer)
		if i < 0 {
			b.WriteString(js)
			return
		}
		b.WriteString(js[:i])
		b.WriteString(`<\/`)
		b.WriteString(js[i+2 : i+len(closer)])
		js = js[i+len(closer):]
	}
}

// indexFold is strings.Index with ASCII case folding on s.
func indexFold(s, lower string) int {
	for i := 0; i+len(lower) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(lower)], lower) {
			return i
		}
	}
	return -1
}

type noHelpers struct{}

func (noHelpers) Cookie(string) (string, bool) { return "", false }
func (noHelpers) SetCookie(*http.Cookie)       {}
func (noHelpers) Redirect(string)              {}
func (noHelpers) NotFound()                    {}
func (noHelpers) Nonce() string                { return "" }
func (noHelpers) UserAgent() string            { return "" }
func (noHelpers) Path() string                 { return "" }

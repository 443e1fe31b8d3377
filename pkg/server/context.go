package server

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/vango-dev/stitch/pkg/routing"
)

// Context is the routing context of one HTTP request.
type Context struct {
	routing.Effects

	w      http.ResponseWriter
	r      *http.Request
	next   http.Handler
	logger *slog.Logger

	flusher http.Flusher
	cookies cookiePolicy
	policy  redirectPolicy
	nonce   string

	wroteHeader bool
	delegated   bool
}

var _ routing.Context = (*Context)(nil)

// NewContext returns the routing context for a request. next handles
// requests that a component declared not found; nil answers 404.
func NewContext(w http.ResponseWriter, r *http.Request, next http.Handler, cfg Config) *Context {
	cfg = cfg.withDefaults()
	proxies := newProxyMatcher(cfg.TrustedProxies, cfg.Logger)
	c := &Context{
		w:      w,
		r:      r,
		next:   next,
		logger: cfg.Logger,
		policy: newRedirectPolicy(cfg.AllowedRedirectHosts),
		cookies: cookiePolicy{
			secure:   cfg.SecureCookies && proxies.isSecure(r),
			domain:   cfg.CookieDomain,
			sameSite: cfg.SameSiteMode,
		},
	}
	c.flusher, _ = w.(http.Flusher)
	if cfg.Nonce != nil {
		c.nonce = cfg.Nonce(r)
	}
	return c
}

// Request returns the request being served.
func (c *Context) Request() *http.Request { return c.r }

// Cookie returns a request cookie.
func (c *Context) Cookie(name string) (string, bool) {
	ck, err := c.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

// SetCookie queues a cookie after applying the cookie policy.
func (c *Context) SetCookie(cookie *http.Cookie) {
	if cookie == nil {
		return
	}
	c.Effects.SetCookie(c.cookies.apply(cookie))
}

// Redirect requests a redirect. Locations rejected by the redirect policy
// are logged and ignored.
func (c *Context) Redirect(location string) {
	target, ok := c.policy.allow(location)
	if !ok {
		c.logger.Warn("redirect rejected", "location", location, "path", c.r.URL.Path)
		return
	}
	c.Effects.Redirect(target)
}

// Nonce returns the CSP nonce of the request.
func (c *Context) Nonce() string { return c.nonce }

// UserAgent returns the request's User-Agent.
func (c *Context) UserAgent() string { return c.r.UserAgent() }

// Path returns the request URL path.
func (c *Context) Path() string { return c.r.URL.Path }

// Output returns the response writer as a routing output.
func (c *Context) Output() routing.Output { return output{c} }

// DelegateToNext serves the request with the next handler.
func (c *Context) DelegateToNext() {
	if c.delegated || c.wroteHeader {
		return
	}
	c.delegated = true
	if c.next == nil {
		http.NotFound(c.w, c.r)
		return
	}
	c.next.ServeHTTP(c.w, c.r)
}

// Delegated reports whether the request was handed to the next handler.
func (c *Context) Delegated() bool { return c.delegated }

// Written reports whether a status line was written.
func (c *Context) Written() bool { return c.wroteHeader }

type output struct{ c *Context }

func (o output) WriteStatusAndHeaders(code int, headers http.Header) error {
	h := o.c.w.Header()
	for k, vs := range headers {
		h[k] = append([]string(nil), vs...)
	}
	o.c.w.WriteHeader(code)
	o.c.wroteHeader = true
	return nil
}

func (o output) Write(chunk string) error {
	if _, err := io.WriteString(o.c.w, chunk); err != nil {
		return err
	}
	o.flush()
	return nil
}

func (o output) End() error {
	o.flush()
	return nil
}

func (o output) flush() {
	if o.c.flusher != nil {
		o.c.flusher.Flush()
	}
}

// Package routing defines the routing context a rendering pass runs
// against: the side effects components request (redirect, not-found,
// cookies), the output transport, and delegation to the next handler.
package routing

import (
	"net/http"
	"sync"

	"github.com/vango-dev/stitch/pkg/component"
)

// Output is the transport a pass writes to.
type Output interface {
	WriteStatusAndHeaders(code int, headers http.Header) error
	Write(chunk string) error
	End() error
}

// Context is the routing context of one request.
type Context interface {
	component.Helpers

	// RedirectRequested returns the requested redirect location, if any.
	RedirectRequested() string

	// NotFoundRequested reports whether a component asked for not-found.
	NotFoundRequested() bool

	// CookiesToSet returns the Set-Cookie values in request order.
	CookiesToSet() []string

	// Output returns the transport.
	Output() Output

	// DelegateToNext hands the request to the next handler.
	DelegateToNext()
}

// Effects accumulates the side effects requested during a pass. It is safe
// for concurrent use; the first redirect wins.
type Effects struct {
	mu       sync.Mutex
	redirect string
	notFound bool
	cookies  []string
}

// Redirect records a redirect request.
func (e *Effects) Redirect(location string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.redirect == "" {
		e.redirect = location
	}
}

// NotFound records a not-found request.
func (e *Effects) NotFound() {
	e.mu.Lock()
	e.notFound = true
	e.mu.Unlock()
}

// SetCookie records a cookie. Invalid cookies are dropped.
func (e *Effects) SetCookie(cookie *http.Cookie) {
	if cookie == nil {
		return
	}
	v := cookie.String()
	if v == "" {
		return
	}
	e.mu.Lock()
	e.cookies = append(e.cookies, v)
	e.mu.Unlock()
}

// RedirectRequested returns the first requested redirect location.
func (e *Effects) RedirectRequested() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.redirect
}

// NotFoundRequested reports whether not-found was requested.
func (e *Effects) NotFoundRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notFound
}

// CookiesToSet returns a copy of the recorded Set-Cookie values.
func (e *Effects) CookiesToSet() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.cookies...)
}

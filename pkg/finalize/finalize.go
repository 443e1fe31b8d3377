// Package finalize converts the side effects accumulated during a rendering
// pass into a transport status and headers, exactly once.
package finalize

import (
	"net/http"
	"sync"

	"github.com/vango-dev/stitch/pkg/routing"
)

// ContentType is the content type of every rendered document.
const ContentType = "text/html; charset=utf-8"

// ProductHeader identifies the renderer in success responses.
const ProductHeader = "X-Powered-By"

// DefaultProduct is the ProductHeader value when none is configured.
const DefaultProduct = "stitch"

// Outcome is the decision taken by finalization.
type Outcome uint8

const (
	// OutcomePending means finalization has not run yet.
	OutcomePending Outcome = iota

	// OutcomeSuccess means a 200 was written and the body may follow.
	OutcomeSuccess

	// OutcomeRedirect means a 302 was written and the body is discarded.
	OutcomeRedirect

	// OutcomeNotFound means the request was delegated to the next handler.
	OutcomeNotFound
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "pending"
	}
}

// Cancels reports whether the outcome ends the pass without a body.
func (o Outcome) Cancels() bool {
	return o == OutcomeRedirect || o == OutcomeNotFound
}

// Finalizer is a one-shot latch over a routing context.
type Finalizer struct {
	routing routing.Context
	product string

	once    sync.Once
	mu      sync.Mutex
	outcome Outcome
	err     error
	cookies int
}

// New returns a Finalizer for rc. An empty product uses DefaultProduct.
func New(rc routing.Context, product string) *Finalizer {
	if product == "" {
		product = DefaultProduct
	}
	return &Finalizer{routing: rc, product: product}
}

// Finalize inspects the side effects and writes status and headers. Only
// the first call has an effect; later calls return the first result.
func (f *Finalizer) Finalize() (Outcome, error) {
	f.once.Do(func() {
		cookies := f.routing.CookiesToSet()
		outcome, err := f.run(cookies)
		f.mu.Lock()
		f.outcome, f.err, f.cookies = outcome, err, len(cookies)
		f.mu.Unlock()
	})
	return f.Outcome(), f.Err()
}

// Done reports whether Finalize has run.
func (f *Finalizer) Done() bool {
	return f.Outcome() != OutcomePending
}

// Outcome returns the decision, or OutcomePending.
func (f *Finalizer) Outcome() Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

// Err returns the transport error of the finalization write, if any.
func (f *Finalizer) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Cookies returns how many Set-Cookie values finalization saw. Cookies
// recorded after that point can no longer reach the client.
func (f *Finalizer) Cookies() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cookies
}

func (f *Finalizer) run(cookies []string) (Outcome, error) {
	rc := f.routing
	out := rc.Output()

	if location := rc.RedirectRequested(); location != "" {
		h := http.Header{}
		h.Set("Location", location)
		for _, c := range cookies {
			h.Add("Set-Cookie", c)
		}
		if err := out.WriteStatusAndHeaders(http.StatusFound, h); err != nil {
			return OutcomeRedirect, err
		}
		return OutcomeRedirect, out.End()
	}

	if rc.NotFoundRequested() {
		rc.DelegateToNext()
		return OutcomeNotFound, nil
	}

	h := http.Header{}
	h.Set("Content-Type", ContentType)
	h.Set(ProductHeader, f.product)
	for _, c := range cookies {
		h.Add("Set-Cookie", c)
	}
	return OutcomeSuccess, out.WriteStatusAndHeaders(http.StatusOK, h)
}

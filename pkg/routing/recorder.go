package routing

import (
	"net/http"
	"strings"
	"sync"
)

// Recorder is an in-memory routing context. It is used for interactive
// re-renders, the CLI and tests.
type Recorder struct {
	Effects

	// Request side.
	RequestCookies map[string]string
	Agent          string
	CSPNonce       string
	URLPath        string

	mu        sync.Mutex
	status    int
	header    http.Header
	body      strings.Builder
	writes    int
	ended     bool
	delegated bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{RequestCookies: map[string]string{}}
}

var _ Context = (*Recorder)(nil)

// Cookie returns a request cookie.
func (r *Recorder) Cookie(name string) (string, bool) {
	v, ok := r.RequestCookies[name]
	return v, ok
}

// Nonce returns the configured CSP nonce.
func (r *Recorder) Nonce() string { return r.CSPNonce }

// UserAgent returns the configured user agent.
func (r *Recorder) UserAgent() string { return r.Agent }

// Path returns the configured URL path.
func (r *Recorder) Path() string { return r.URLPath }

// Output returns the recorder itself.
func (r *Recorder) Output() Output { return recorderOutput{r} }

// DelegateToNext records the delegation.
func (r *Recorder) DelegateToNext() {
	r.mu.Lock()
	r.delegated = true
	r.mu.Unlock()
}

// Status returns the written status code, or 0.
func (r *Recorder) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Header returns the written headers.
func (r *Recorder) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Clone()
}

// Body returns everything written so far.
func (r *Recorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

// Writes returns the number of Write calls.
func (r *Recorder) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// Ended reports whether End was called.
func (r *Recorder) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// Delegated reports whether DelegateToNext was called.
func (r *Recorder) Delegated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delegated
}

type recorderOutput struct{ r *Recorder }

func (o recorderOutput) WriteStatusAndHeaders(code int, headers http.Header) error {
	o.r.mu.Lock()
	defer o.r.mu.Unlock()
	o.r.status = code
	o.r.header = headers.Clone()
	return nil
}

func (o recorderOutput) Write(chunk string) error {
	o.r.mu.Lock()
	defer o.r.mu.Unlock()
	o.r.writes++
	o.r.body.WriteString(chunk)
	return nil
}

func (o recorderOutput) End() error {
	o.r.mu.Lock()
	defer o.r.mu.Unlock()
	o.r.ended = true
	return nil
}

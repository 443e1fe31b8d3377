package engine

import "gitlab.com/tozd/go/errors"

var (
	// ErrMissingRoot is returned when the root descriptor has no document
	// or no head component. Nothing is written for such a pass.
	ErrMissingRoot = errors.Base("engine: root has no document or head component")

	// ErrNoTemplate is reported for a component instance that implements
	// neither Templater nor TemplComponent.
	ErrNoTemplate = errors.Base("engine: component has no template")

	// ErrRedirectAfterFlush is reported when a redirect or not-found is
	// requested after the status line was written.
	ErrRedirectAfterFlush = errors.Base("engine: redirect requested after output was flushed")

	// ErrCookieAfterFlush is reported when a cookie is set after the
	// headers were written.
	ErrCookieAfterFlush = errors.Base("engine: cookie set after headers were written")

	// ErrMaxDepth is reported when a component tag is nested deeper than
	// Config.MaxDepth.
	ErrMaxDepth = errors.Base("engine: maximum component depth exceeded")

	// ErrPassCancelled is returned by a sink that is pushed to after
	// finalization decided against a body.
	ErrPassCancelled = errors.Base("engine: pass cancelled")
)

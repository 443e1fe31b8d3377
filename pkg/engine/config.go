package engine

import (
	"log/slog"
	"time"

	"github.com/vango-dev/stitch/pkg/component"
	"github.com/vango-dev/stitch/pkg/finalize"
)

// DefaultMaxDepth is the nesting limit used when Config.MaxDepth is zero.
const DefaultMaxDepth = 64

// Config configures an Engine.
type Config struct {
	// Release selects production error handling. Failed components render
	// their descriptor's ErrorTemplate, or nothing, instead of a
	// diagnostic block.
	Release bool

	// Product is the X-Powered-By value of success responses.
	// Default: finalize.DefaultProduct.
	Product string

	// MaxDepth bounds how deeply components may nest.
	// Default: DefaultMaxDepth.
	MaxDepth int

	// Resolver looks up child components. Default: component.Lookup.
	Resolver component.Resolver

	// Observer receives render and pass events. Optional.
	Observer Observer

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Now returns the current time for diagnostics. Default: time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Product == "" {
		c.Product = finalize.DefaultProduct
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Resolver == nil {
		c.Resolver = component.Lookup
	}
	if c.Observer == nil {
		c.Observer = NopObserver{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

package server

import (
	"log/slog"
	"net/http"
	"strings"
)

// Mode selects how documents are written.
type Mode uint8

const (
	// ModeStream writes chunks as soon as they are rendered.
	ModeStream Mode = iota

	// ModeBuffer writes the whole document at the end of the pass.
	ModeBuffer
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeBuffer {
		return "buffer"
	}
	return "stream"
}

// ParseMode parses "stream" or "buffer". Anything else is ModeStream.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "buffer") {
		return ModeBuffer
	}
	return ModeStream
}

// Config configures a Handler.
type Config struct {
	// Mode selects streaming or buffered output. Default: ModeStream.
	Mode Mode

	// SecureCookies marks cookies Secure when the request arrived over
	// TLS or through a trusted proxy that reports https.
	SecureCookies bool

	// CookieDomain is applied to cookies that do not set a domain.
	CookieDomain string

	// SameSiteMode is applied to cookies that do not set one.
	// Default: http.SameSiteLaxMode.
	SameSiteMode http.SameSite

	// TrustedProxies lists proxy IPs or CIDRs whose forwarding headers
	// are honored.
	TrustedProxies []string

	// AllowedRedirectHosts lists hosts that absolute redirect URLs may
	// point to. Relative redirects are always allowed.
	AllowedRedirectHosts []string

	// Nonce returns the CSP nonce for a request. Optional.
	Nonce func(r *http.Request) string

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.SameSiteMode == 0 {
		c.SameSiteMode = http.SameSiteLaxMode
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

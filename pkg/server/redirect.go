package server

import (
	"net/url"
	"strings"
)

// redirectPolicy decides which redirect locations components may request.
type redirectPolicy struct {
	hosts map[string]struct{}
}

func newRedirectPolicy(allowed []string) redirectPolicy {
	p := redirectPolicy{hosts: map[string]struct{}{}}
	for _, h := range allowed {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			p.hosts[h] = struct{}{}
		}
	}
	return p
}

// allow returns the location to send, or false. Paths on this site are
// always allowed; absolute URLs need an allowlisted http(s) host.
func (p redirectPolicy) allow(location string) (string, bool) {
	location = strings.TrimSpace(location)
	if location == "" || strings.ContainsAny(location, "\r\n\\") {
		return "", false
	}
	if strings.HasPrefix(location, "/") && !strings.HasPrefix(location, "//") {
		return location, true
	}

	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if _, ok := p.hosts[strings.ToLower(u.Hostname())]; !ok {
		return "", false
	}
	return u.String(), true
}

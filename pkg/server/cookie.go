package server

import "net/http"

// cookiePolicy fills in the attributes components usually forget.
type cookiePolicy struct {
	secure   bool
	domain   string
	sameSite http.SameSite
}

func (p cookiePolicy) apply(c *http.Cookie) *http.Cookie {
	out := *c
	if out.Path == "" {
		out.Path = "/"
	}
	if out.Domain == "" {
		out.Domain = p.domain
	}
	if out.SameSite == 0 {
		out.SameSite = p.sameSite
	}
	if p.secure {
		out.Secure = true
	}
	return &out
}

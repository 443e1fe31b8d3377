package server

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// proxyMatcher matches request peers against the trusted proxy list.
type proxyMatcher struct {
	ips  map[string]struct{}
	nets []*net.IPNet
}

func newProxyMatcher(entries []string, logger *slog.Logger) *proxyMatcher {
	m := &proxyMatcher{ips: map[string]struct{}{}}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		switch {
		case entry == "":
		case strings.Contains(entry, "/"):
			_, network, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn("invalid trusted proxy CIDR", "entry", entry, "error", err)
				continue
			}
			m.nets = append(m.nets, network)
		default:
			ip := net.ParseIP(entry)
			if ip == nil {
				logger.Warn("invalid trusted proxy IP", "entry", entry)
				continue
			}
			m.ips[ip.String()] = struct{}{}
		}
	}
	if len(m.ips) == 0 && len(m.nets) == 0 {
		return nil
	}
	return m
}

func (m *proxyMatcher) trusts(ip net.IP) bool {
	if m == nil || ip == nil {
		return false
	}
	if _, ok := m.ips[ip.String()]; ok {
		return true
	}
	for _, network := range m.nets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// peerIP returns the address of the connection's peer.
func peerIP(r *http.Request) net.IP {
	host := strings.TrimSpace(r.RemoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if zone := strings.IndexByte(host, '%'); zone != -1 {
		host = host[:zone]
	}
	return net.ParseIP(host)
}

// isSecure reports whether the client reached us over https.
func (m *proxyMatcher) isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if !m.trusts(peerIP(r)) {
		return false
	}
	proto := forwardedParam(r.Header.Get("Forwarded"), "proto")
	if proto == "" {
		proto, _, _ = strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	}
	proto = strings.ToLower(strings.Trim(strings.TrimSpace(proto), `"`))
	return proto == "https" || proto == "wss"
}

// clientIP returns the first untrusted address in the forwarding chain,
// scanning from the nearest hop.
func (m *proxyMatcher) clientIP(r *http.Request) string {
	peer := peerIP(r)
	if peer == nil {
		return ""
	}
	if !m.trusts(peer) {
		return peer.String()
	}
	chain := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(chain) - 1; i >= 0; i-- {
		ip := net.ParseIP(strings.TrimSpace(chain[i]))
		if ip != nil && !m.trusts(ip) {
			return ip.String()
		}
	}
	return peer.String()
}

// forwardedParam returns a parameter of the first element of an RFC 7239
// Forwarded header.
func forwardedParam(header, name string) string {
	first, _, _ := strings.Cut(header, ",")
	for _, param := range strings.Split(first, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && strings.EqualFold(k, name) {
			return strings.Trim(strings.TrimSpace(v), `"`)
		}
	}
	return ""
}

package api

import (
	"net"
	"net/http"
	"strings"
)

// visitorIP: the caller's address for dedupe keys
// Order: X-Forwarded-For (first hop), X-Real-IP, Forwarded for=, then RemoteAddr without the port.
// Constraint: headers are trusted as sent; deploy behind a proxy that overwrites them.
func visitorIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	if x := h.Get("x-real-ip"); x != "" {
		return strings.TrimSpace(x)
	}
	if x := h.Get("forwarded"); x != "" {
		if i := strings.Index(strings.ToLower(x), "for="); i >= 0 {
			y := strings.Trim(x[i+4:], "\" ")
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			return strings.Trim(y, "\"[]")
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

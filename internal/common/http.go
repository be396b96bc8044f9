package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the originating client address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if candidate := strings.TrimSpace(first); candidate != "" {
			return candidate
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// CallerKey identifies the caller for rate limiting: the verified shop when known,
// the client address otherwise.
func CallerKey(r *http.Request) string {
	if shop, ok := ShopID(r.Context()); ok {
		return "shop:" + shop
	}
	return "ip:" + ClientIP(r)
}

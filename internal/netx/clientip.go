package netx

import (
	"net"
	"net/http"
	"strings"
)

const fallbackIP = "127.0.0.1"

// ClientIP resolves the caller address from X-Forwarded-For, then X-Real-IP,
// then the transport peer. Proxy headers are trusted as-is.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil && host != "" {
			return host
		}
		if err != nil {
			return r.RemoteAddr
		}
	}
	return fallbackIP
}

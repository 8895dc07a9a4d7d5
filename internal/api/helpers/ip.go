package helpers

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client's address for rate-limit keying, preferring
// X-Forwarded-For over the transport peer. Spoofing is possible if the
// fronting proxy does not strip these headers; the deployment is expected
// to sit behind one that does.
func ClientIP(r *http.Request) string {
	// X-Forwarded-For format: client, proxy1, proxy2
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, p := range strings.Split(xff, ",") {
			ipStr := strings.TrimSpace(p)
			if ip := net.ParseIP(ipStr); ip != nil {
				return ip.String()
			}
		}
	}

	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		if ip := net.ParseIP(strings.TrimSpace(xr)); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

package filter

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address. When header is set (for example
// CF-Connecting-IP behind a CDN) its first entry wins over RemoteAddr.
func ClientIP(r *http.Request, header string) string {
	if header != "" {
		if v := r.Header.Get(header); v != "" {
			first, _, _ := strings.Cut(v, ",")
			if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

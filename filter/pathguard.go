package filter

import (
	"net/http"
	"regexp"
	"strings"

	"scriptedge/logger"
)

// traversal matches dot-dot segments, including percent-encoded forms that
// survive into RawPath.
var traversal = regexp.MustCompile(`(?i)(^|/)(\.|%2e){2}(/|$)`)

// PathGuard rejects request paths that would escape the upstream base once
// concatenated onto it.
func PathGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := unsafePath(r); reason != "" {
			logger.Warn("Blocked unsafe path", "remote_addr", r.RemoteAddr, "path", r.URL.EscapedPath(), "reason", reason)
			BlockedRequests.WithLabelValues("L7", reason).Inc()
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unsafePath(r *http.Request) string {
	p := r.URL.Path
	if traversal.MatchString(p) || traversal.MatchString(r.URL.RawPath) {
		return "traversal"
	}
	if strings.ContainsAny(p, "\\\x00") {
		return "bad_char"
	}
	return ""
}

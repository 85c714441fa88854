package middleware

import (
	"net/http"
	"strings"
)

// contentSecurityPolicy permits the landing page's inline style and script
// and its web fonts, nothing else.
var contentSecurityPolicy = strings.Join([]string{
	"default-src 'none'",
	"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com",
	"font-src https://fonts.gstatic.com",
	"script-src 'unsafe-inline'",
	"img-src 'self' data:",
	"base-uri 'none'",
	"frame-ancestors 'none'",
}, "; ")

func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		next.ServeHTTP(w, r)
	})
}

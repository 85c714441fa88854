package middleware

import (
	"net/http"
	"time"

	"scriptedge/filter"
	"scriptedge/logger"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// statusRecorder captures what the wrapped handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// RequestLog tags every request with an ID (reusing a well-formed inbound
// one) and logs one line per request. classify labels the user agent.
func RequestLog(classify func(userAgent string) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		filter.ActiveRequests.Inc()
		defer filter.ActiveRequests.Dec()

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		client := ""
		if classify != nil {
			client = classify(r.UserAgent())
		}
		logger.Info("Request handled",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.EscapedPath(),
			"status", status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
			"client", client,
			"remote_addr", r.RemoteAddr,
		)
	})
}

package filter

import (
	"net/http"
	"strconv"
	"sync"

	"scriptedge/logger"
)

// ConcurrencyLimiter caps the requests one client may have in flight.
// Script fetches can sit on a slow upstream, so this bounds how many
// handler goroutines a single address can pin.
type ConcurrencyLimiter struct {
	MaxPerClient int
	ipHeader     string

	mu       sync.Mutex
	inFlight map[string]int
}

func NewConcurrencyLimiter(maxPerClient int, ipHeader string) *ConcurrencyLimiter {
	return &ConcurrencyLimiter{
		MaxPerClient: maxPerClient,
		ipHeader:     ipHeader,
		inFlight:     make(map[string]int),
	}
}

func (l *ConcurrencyLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight[ip] >= l.MaxPerClient {
		return false
	}
	l.inFlight[ip]++
	return true
}

func (l *ConcurrencyLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := l.inFlight[ip]; n <= 1 {
		delete(l.inFlight, ip)
	} else {
		l.inFlight[ip] = n - 1
	}
}

// InFlight reports the tracked count for ip.
func (l *ConcurrencyLimiter) InFlight(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight[ip]
}

func (l *ConcurrencyLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, l.ipHeader)
		if !l.acquire(ip) {
			logger.Warn("Concurrency limit reached", "ip", ip, "limit", l.MaxPerClient)
			BlockedRequests.WithLabelValues("concurrency", "per_client").Inc()
			w.Header().Set("Retry-After", strconv.Itoa(1))
			http.Error(w, "Too many concurrent requests", http.StatusServiceUnavailable)
			return
		}
		defer l.release(ip)
		next.ServeHTTP(w, r)
	})
}

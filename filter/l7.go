package filter

import (
	"net/http"
	"sync"
	"time"

	"scriptedge/logger"

	"golang.org/x/time/rate"
)

// ipLimiter holds a token bucket limiter per IP along with the last time it was seen.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces per-IP token bucket limits. Stale entries are purged
// every sweep interval.
type RateLimiter struct {
	rate     rate.Limit
	burst    int
	ipHeader string
	mu       sync.Mutex
	clients  map[string]*ipLimiter
	idle     time.Duration
	stop     chan struct{}
	once     sync.Once
}

func NewRateLimiter(r float64, b int, ipHeader string) *RateLimiter {
	if b <= 0 {
		b = 1
	}
	f := &RateLimiter{
		rate:     rate.Limit(r),
		burst:    b,
		ipHeader: ipHeader,
		clients:  make(map[string]*ipLimiter),
		idle:     10 * time.Minute,
		stop:     make(chan struct{}),
	}
	go f.cleanupLoop(5 * time.Minute)
	return f
}

// getLimiter returns the token bucket limiter for a given IP, creating one if needed.
func (f *RateLimiter) getLimiter(ip string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, exists := f.clients[ip]
	if !exists {
		lim := rate.NewLimiter(f.rate, f.burst)
		f.clients[ip] = &ipLimiter{limiter: lim, lastSeen: time.Now()}
		return lim
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (f *RateLimiter) purge(olderThan time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for ip, entry := range f.clients {
		if time.Since(entry.lastSeen) > olderThan {
			delete(f.clients, ip)
			n++
		}
	}
	return n
}

func (f *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := f.purge(f.idle); n > 0 {
				logger.Debug("Rate limiter: stale IP entries purged", "count", n)
			}
		case <-f.stop:
			return
		}
	}
}

func (f *RateLimiter) Close() {
	f.once.Do(func() { close(f.stop) })
}

func (f *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := ClientIP(r, f.ipHeader)

		if !f.getLimiter(host).Allow() {
			logger.Warn("Rate limit exceeded", "remote_addr", host,
				"rate", float64(f.rate), "burst", f.burst)
			BlockedRequests.WithLabelValues("L7", "rate_limit").Inc()
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

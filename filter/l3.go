package filter

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"sync"

	"scriptedge/logger"
)

// Denylist rejects clients by address or prefix.
type Denylist struct {
	mu       sync.RWMutex
	addrs    map[netip.Addr]bool
	prefixes []netip.Prefix
	ipHeader string
}

// NewDenylist accepts plain addresses ("203.0.113.7") and CIDR prefixes
// ("198.51.100.0/24").
func NewDenylist(entries []string, ipHeader string) (*Denylist, error) {
	d := &Denylist{addrs: make(map[netip.Addr]bool), ipHeader: ipHeader}
	for _, e := range entries {
		if err := d.Add(e); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Denylist) Add(entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if strings.Contains(entry, "/") {
		p, err := netip.ParsePrefix(entry)
		if err != nil {
			return fmt.Errorf("denylist entry %q: %w", entry, err)
		}
		d.prefixes = append(d.prefixes, p.Masked())
		return nil
	}
	a, err := netip.ParseAddr(entry)
	if err != nil {
		return fmt.Errorf("denylist entry %q: %w", entry, err)
	}
	d.addrs[a.Unmap()] = true
	return nil
}

func (d *Denylist) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.addrs) + len(d.prefixes)
}

func (d *Denylist) IsDenied(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.addrs[a] {
		return true
	}
	for _, p := range d.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

func (d *Denylist) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, d.ipHeader)
		if d.IsDenied(ip) {
			logger.Debug("Denylisted client rejected", "ip", ip, "path", r.URL.Path)
			BlockedRequests.WithLabelValues("denylist", "address").Inc()
			http.Error(w, "Access Denied", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

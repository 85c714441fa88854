package filter

import (
	"net"
	"net/http"
	"strings"

	"scriptedge/logger"

	"github.com/oschwald/geoip2-golang"
)

// countryLookup is the part of *geoip2.Reader the filter needs.
type countryLookup interface {
	Country(ip net.IP) (*geoip2.Country, error)
}

type GeoIPFilter struct {
	db               countryLookup
	closer           func() error
	blockedCountries map[string]bool
	ipHeader         string
}

// NewGeoIPFilter opens a MaxMind country database. A missing or unreadable
// database leaves the filter in pass-through mode.
func NewGeoIPFilter(dbPath string, blockedCountries []string, ipHeader string) *GeoIPFilter {
	f := &GeoIPFilter{
		blockedCountries: make(map[string]bool),
		ipHeader:         ipHeader,
	}
	for _, c := range blockedCountries {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			f.blockedCountries[c] = true
		}
	}

	if dbPath == "" {
		return f
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		logger.Warn("GeoIP filter bypassed: database not readable", "path", dbPath, "err", err)
		return f
	}
	f.db = db
	f.closer = db.Close
	return f
}

// Active reports whether requests are actually checked.
func (f *GeoIPFilter) Active() bool {
	return f.db != nil && len(f.blockedCountries) > 0
}

func (f *GeoIPFilter) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer()
}

func (f *GeoIPFilter) Middleware(next http.Handler) http.Handler {
	if !f.Active() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := ClientIP(r, f.ipHeader)
		ip := net.ParseIP(host)

		if ip != nil {
			record, err := f.db.Country(ip)
			if err == nil && f.blockedCountries[record.Country.IsoCode] {
				logger.Warn("Blocked request from restricted country", "remote_addr", host, "country", record.Country.IsoCode)
				BlockedRequests.WithLabelValues("L7", "geoip").Inc()
				http.Error(w, "Access Denied: Country Restricted", http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// Package dispatch decides, per request, between the landing page and a
// script relayed from the upstream origin.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"scriptedge/filter"
	"scriptedge/logger"
	"scriptedge/proxy"
	"scriptedge/store"
)

const (
	MsgNotFound   = "Script not found"
	MsgFetchError = "Error fetching script"

	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"

	// DefaultMaxAge is the shared-cache lifetime advertised on scripts.
	DefaultMaxAge = 300 * time.Second
)

// Fetcher retrieves an upstream script. proxy.Origin implements it.
type Fetcher interface {
	Fetch(ctx context.Context, upstreamPath string) (*proxy.Script, error)
}

// Toggles are consulted on every request so that changes apply live.
type Toggles interface {
	LandingEnabled() bool
	CacheEnabled() bool
}

// Alerter receives transport failures.
type Alerter interface {
	Alert(msg string, severity string)
}

type Config struct {
	Routes     RouteTable
	Classifier *Classifier
	// Landing is the rendered page; nil disables the browser branch.
	Landing  []byte
	Cache    store.Cache
	CacheTTL time.Duration
	MaxAge   time.Duration
	Toggles  Toggles
	Alerter  Alerter
}

type Dispatcher struct {
	fetcher      Fetcher
	routes       RouteTable
	classifier   *Classifier
	landing      []byte
	cache        store.Cache
	cacheTTL     time.Duration
	cacheControl string
	toggles      Toggles
	alerter      Alerter
}

type staticToggles struct{}

func (staticToggles) LandingEnabled() bool { return true }
func (staticToggles) CacheEnabled() bool   { return true }

func New(f Fetcher, cfg Config) *Dispatcher {
	d := &Dispatcher{
		fetcher:    f,
		routes:     cfg.Routes,
		classifier: cfg.Classifier,
		landing:    cfg.Landing,
		cache:      cfg.Cache,
		cacheTTL:   cfg.CacheTTL,
		toggles:    cfg.Toggles,
		alerter:    cfg.Alerter,
	}
	if d.routes == nil {
		d.routes = DefaultRoutes()
	}
	if d.classifier == nil {
		d.classifier = defaultClassifier
	}
	if d.toggles == nil {
		d.toggles = staticToggles{}
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	d.cacheControl = fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))
	return d
}

// Routes exposes the active route table.
func (d *Dispatcher) Routes() RouteTable { return d.routes }

// Classify applies the dispatcher's classifier.
func (d *Dispatcher) Classify(userAgent string) ClientKind {
	return d.classifier.Classify(userAgent)
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The escaped form keeps encoded '?' and '#' inside the upstream path.
	path := r.URL.EscapedPath()
	if path == "" {
		path = "/"
	}
	kind := d.classifier.Classify(r.UserAgent())

	if d.landing != nil && kind == Interactive && path == "/" && d.toggles.LandingEnabled() {
		filter.Requests.WithLabelValues("landing", kind.String(), "landing").Inc()
		writeBody(w, http.StatusOK, ContentTypeHTML, d.landing)
		return
	}

	upstreamPath := d.routes.Resolve(path)
	route := "passthrough"
	if d.routes.Known(path) {
		route = path
	}

	if body, ok := d.lookup(r.Context(), upstreamPath); ok {
		filter.Requests.WithLabelValues(route, kind.String(), "cached").Inc()
		d.serveScript(w, body)
		return
	}

	start := time.Now()
	script, err := d.fetcher.Fetch(r.Context(), upstreamPath)
	switch {
	case err == nil:
		filter.UpstreamLatency.WithLabelValues("ok").Observe(time.Since(start).Seconds())
		filter.Requests.WithLabelValues(route, kind.String(), "served").Inc()
		d.remember(r.Context(), upstreamPath, script.Body)
		d.serveScript(w, script.Body)

	case errors.Is(err, proxy.ErrUpstreamMiss):
		filter.UpstreamLatency.WithLabelValues("miss").Observe(time.Since(start).Seconds())
		filter.Requests.WithLabelValues(route, kind.String(), "miss").Inc()
		logger.Warn("Upstream script not found", "path", path, "upstream_path", upstreamPath, "err", err)
		writeBody(w, http.StatusNotFound, ContentTypeText, []byte(MsgNotFound))

	default:
		filter.UpstreamLatency.WithLabelValues("error").Observe(time.Since(start).Seconds())
		filter.Requests.WithLabelValues(route, kind.String(), "error").Inc()
		if r.Context().Err() != nil {
			logger.Debug("Client went away during upstream fetch", "path", path, "err", err)
		} else {
			logger.Error("Upstream fetch failed", "path", path, "upstream_path", upstreamPath, "err", err)
			if d.alerter != nil {
				d.alerter.Alert(fmt.Sprintf("fetch of %s failed: %v", upstreamPath, err), "critical")
			}
		}
		writeBody(w, http.StatusInternalServerError, ContentTypeText, []byte(MsgFetchError))
	}
}

func (d *Dispatcher) serveScript(w http.ResponseWriter, body []byte) {
	w.Header().Set("Cache-Control", d.cacheControl)
	writeBody(w, http.StatusOK, ContentTypeText, body)
}

func (d *Dispatcher) cacheActive() bool {
	return d.cache != nil && d.cacheTTL > 0 && d.toggles.CacheEnabled()
}

func (d *Dispatcher) lookup(ctx context.Context, key string) ([]byte, bool) {
	if !d.cacheActive() {
		return nil, false
	}
	body, ok, err := d.cache.Get(ctx, key)
	if err != nil {
		filter.CacheLookups.WithLabelValues("error").Inc()
		logger.Warn("Script cache lookup failed", "key", key, "err", err)
		return nil, false
	}
	if !ok {
		filter.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	filter.CacheLookups.WithLabelValues("hit").Inc()
	return body, true
}

func (d *Dispatcher) remember(ctx context.Context, key string, body []byte) {
	if !d.cacheActive() {
		return
	}
	if err := d.cache.Set(ctx, key, body, d.cacheTTL); err != nil {
		logger.Warn("Script cache write failed", "key", key, "err", err)
	}
}

func writeBody(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}

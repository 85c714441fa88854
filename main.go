package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"scriptedge/buildinfo"
	"scriptedge/dispatch"
	"scriptedge/filter"
	"scriptedge/landing"
	"scriptedge/logger"
	"scriptedge/manager"
	"scriptedge/middleware"
	"scriptedge/notifier"
	"scriptedge/proxy"
	"scriptedge/store"

	"github.com/akamensky/argparse"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// app holds everything built from a Config.
type app struct {
	handler    http.Handler
	dispatcher *dispatch.Dispatcher
	toggles    *manager.LiveToggles
	cache      store.Cache
	limiter    *filter.RateLimiter
	denylist   *filter.Denylist
	geoip      *filter.GeoIPFilter
	alerts     *notifier.Notifier
	admin      *http.ServeMux
}

func (a *app) Close() {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.geoip != nil {
		a.geoip.Close()
	}
	if a.cache != nil {
		a.cache.Close()
	}
	a.alerts.Wait()
}

func newCache(cfg *Config) store.Cache {
	if cfg.CacheTTL <= 0 {
		return nil
	}
	if cfg.RedisAddr != "" {
		rs := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err := rs.Ping(ctx)
		if err == nil {
			logger.Info("Script cache initialized (Redis)", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL.Std())
			return rs
		}
		logger.Warn("Redis unreachable, falling back to in-memory cache", "addr", cfg.RedisAddr, "err", err)
		rs.Close()
	}
	logger.Info("Script cache initialized (in-memory)", "ttl", cfg.CacheTTL.Std())
	return store.NewLocalStore(5 * time.Minute)
}

func newApp(cfg *Config) (*app, error) {
	page, err := landing.Render(landing.Links{RepoURL: cfg.RepoURL, InstallHost: cfg.InstallHost})
	if err != nil {
		return nil, err
	}

	origin, err := proxy.NewOrigin(cfg.UpstreamBase, proxy.Options{
		Timeout:  cfg.UpstreamTimeout.Std(),
		MaxBytes: cfg.MaxScriptBytes,
	})
	if err != nil {
		return nil, err
	}

	denylist, err := filter.NewDenylist(cfg.BlockedIPs, cfg.ClientIPHeader)
	if err != nil {
		return nil, err
	}

	a := &app{
		denylist: denylist,
		toggles:  manager.NewLiveToggles(cfg.LandingEnabled(), true),
		cache:    newCache(cfg),
		alerts:   notifier.New(cfg.WebhookURL, time.Minute, 3),
		geoip:    filter.NewGeoIPFilter(cfg.GeoIPDBPath, cfg.BlockedCountries, cfg.ClientIPHeader),
	}

	routes := dispatch.RouteTable(cfg.Routes)
	a.dispatcher = dispatch.New(origin, dispatch.Config{
		Routes:     routes,
		Classifier: dispatch.NewClassifier(cfg.CLIAgents),
		Landing:    page,
		Cache:      a.cache,
		CacheTTL:   cfg.CacheTTL.Std(),
		Toggles:    a.toggles,
		Alerter:    a.alerts,
	})

	// No ServeMux here: it would clean and redirect paths like //x.sh that
	// must reach the upstream as sent.
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte("ok"))
			return
		}
		a.dispatcher.ServeHTTP(w, r)
	})

	// Pipeline (innermost → outermost):
	// root → PathGuard → Concurrency → GeoIP → Denylist → RateLimit → SecurityHeaders → RequestLog → Recover
	var h http.Handler = filter.PathGuard(root)
	if cfg.MaxConcurrent > 0 {
		h = filter.NewConcurrencyLimiter(cfg.MaxConcurrent, cfg.ClientIPHeader).Middleware(h)
	}
	h = a.geoip.Middleware(h)
	if a.denylist.Len() > 0 {
		h = a.denylist.Middleware(h)
	}
	if cfg.RateLimit > 0 {
		a.limiter = filter.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.ClientIPHeader)
		h = a.limiter.Middleware(h)
	}
	h = middleware.SecurityHeaders(h)
	h = middleware.RequestLog(func(ua string) string {
		return a.dispatcher.Classify(ua).String()
	}, h)
	a.handler = middleware.Recover(h)

	a.admin = http.NewServeMux()
	manager.NewManagementAPI(a.cache, routes, a.toggles).ServeHTTP(a.admin)

	return a, nil
}

func main() {
	parser := argparse.NewParser("scriptedge", "Edge dispatcher for one-line installer scripts")
	configPath := parser.String("c", "config", &argparse.Options{
		Required: false,
		Default:  "config.json",
		Help:     "Path to a JSON or YAML config file",
	})
	showVersion := parser.Flag("v", "version", &argparse.Options{Help: "Print version and exit"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(2)
	}
	if *showVersion {
		fmt.Printf("scriptedge %s (%s, %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		return
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		logger.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if err := logger.Configure(os.Stderr, cfg.LogLevel); err != nil {
		logger.Error("Invalid log level", "err", err)
		os.Exit(1)
	}

	logger.Info("Starting scriptedge",
		"version", buildinfo.Version,
		"listen", cfg.ListenAddr,
		"upstream", cfg.UpstreamBase,
		"landing_page", cfg.LandingEnabled(),
		"routes", len(cfg.Routes))

	a, err := newApp(cfg)
	if err != nil {
		logger.Error("Failed to initialize", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	servers := []*http.Server{
		{
			Addr:              cfg.ListenAddr,
			Handler:           a.handler,
			ReadHeaderTimeout: 2 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      cfg.UpstreamTimeout.Std() + 15*time.Second,
			IdleTimeout:       60 * time.Second,
		},
		{Addr: cfg.MetricsAddr, Handler: metricsMux, ReadHeaderTimeout: 2 * time.Second},
		{Addr: cfg.AdminAddr, Handler: a.admin, ReadHeaderTimeout: 2 * time.Second},
	}
	names := []string{"Dispatcher", "Metrics engine", "Management API"}

	errc := make(chan error, len(servers))
	for i, srv := range servers {
		go func(name string, s *http.Server) {
			logger.Info(name+" active", "addr", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("%s on %s: %w", name, s.Addr, err)
			}
		}(names[i], srv)
	}

	// Graceful shutdown logic
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-done:
		logger.Info("scriptedge stopping...")
	case err := <-errc:
		logger.Error("Server failed", "err", err)
		exitCode = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for _, srv := range servers {
		wg.Add(1)
		go func(s *http.Server) {
			defer wg.Done()
			s.Shutdown(ctx)
		}(srv)
	}
	wg.Wait()

	logger.Info("All servers stopped gracefully")
	if exitCode != 0 {
		a.Close()
		os.Exit(exitCode)
	}
}

package main

import (
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scriptedge/logger"
)

// Serves installer scripts from a directory so the dispatcher can be run
// against a local upstream:
//
//	go run ./cmd/demo_origin -dir ./scripts -addr 127.0.0.1:3000
//	SCRIPTEDGE_UPSTREAM=http://127.0.0.1:3000 go run .
func main() {
	addr := flag.String("addr", "127.0.0.1:3000", "Listen address")
	dir := flag.String("dir", ".", "Directory holding the scripts")
	delay := flag.Duration("delay", 0, "Artificial latency per request")
	flag.Parse()

	root, err := filepath.Abs(*dir)
	if err != nil {
		logger.Error("Bad script directory", "dir", *dir, "err", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if *delay > 0 {
			time.Sleep(*delay)
		}
		name := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(r.URL.Path, "/")))
		if !strings.HasPrefix(name, root+string(filepath.Separator)) {
			http.NotFound(w, r)
			return
		}
		body, err := os.ReadFile(name)
		if err != nil {
			logger.Warn("Script missing", "path", r.URL.Path, "ua", r.UserAgent())
			http.NotFound(w, r)
			return
		}
		logger.Info("Served script", "path", r.URL.Path, "bytes", len(body), "ua", r.UserAgent())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(body)
	})

	logger.Info("Demo origin starting", "addr", *addr, "dir", root)
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 2 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Demo origin stopped", "err", err)
		os.Exit(1)
	}
}

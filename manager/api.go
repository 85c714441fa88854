package manager

import (
	"encoding/json"
	"net/http"
	"time"

	"scriptedge/buildinfo"
	"scriptedge/logger"
	"scriptedge/store"
)

type ManagementAPI struct {
	Cache   store.Cache
	Routes  map[string]string
	Toggles *LiveToggles
	started time.Time
}

// NewManagementAPI wires the admin endpoints. cache may be nil when caching
// is disabled.
func NewManagementAPI(cache store.Cache, routes map[string]string, toggles *LiveToggles) *ManagementAPI {
	return &ManagementAPI{
		Cache:   cache,
		Routes:  routes,
		Toggles: toggles,
		started: time.Now(),
	}
}

func (api *ManagementAPI) ServeHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", api.handleStatus)
	mux.HandleFunc("/api/routes", api.handleRoutes)
	mux.HandleFunc("/api/cache", api.handleCache)
	mux.HandleFunc("/api/config", api.handleConfig)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (api *ManagementAPI) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Use GET", http.StatusMethodNotAllowed)
		return
	}

	cached := -1
	if api.Cache != nil {
		n, err := api.Cache.Len(r.Context())
		if err != nil {
			logger.Warn("Cache length unavailable", "err", err)
		} else {
			cached = n
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "active",
		"version":        buildinfo.Version,
		"commit":         buildinfo.Commit,
		"uptime_seconds": int64(time.Since(api.started).Seconds()),
		"toggles":        api.Toggles.Snapshot(),
		"cached_scripts": cached,
		"timestamp":      time.Now(),
	})
}

func (api *ManagementAPI) handleRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Use GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, api.Routes)
}

func (api *ManagementAPI) handleCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Use DELETE", http.StatusMethodNotAllowed)
		return
	}
	if api.Cache == nil {
		http.Error(w, "Caching disabled", http.StatusNotFound)
		return
	}

	n, err := api.Cache.Purge(r.Context())
	if err != nil {
		logger.Error("Cache purge failed", "err", err)
		http.Error(w, "Purge failed", http.StatusInternalServerError)
		return
	}
	logger.Info("Script cache purged", "entries", n)
	w.WriteHeader(http.StatusNoContent)
}

func (api *ManagementAPI) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Use PATCH", http.StatusMethodNotAllowed)
		return
	}

	var updates map[string]bool
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	for k := range updates {
		if k != "landing" && k != "cache" {
			http.Error(w, "Unknown toggle: "+k, http.StatusBadRequest)
			return
		}
	}

	for k, v := range updates {
		api.Toggles.Set(k, v)
		logger.Info("Feature toggle updated", "feature", k, "state", v)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"message": "Config updated successfully",
		"toggles": api.Toggles.Snapshot(),
	})
}

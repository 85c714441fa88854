package manager

import "sync/atomic"

// LiveToggles are read on every request, so PATCH /api/config takes effect
// without a restart.
type LiveToggles struct {
	landing atomic.Bool
	cache   atomic.Bool
}

func NewLiveToggles(landing, cache bool) *LiveToggles {
	t := &LiveToggles{}
	t.landing.Store(landing)
	t.cache.Store(cache)
	return t
}

func (t *LiveToggles) LandingEnabled() bool { return t.landing.Load() }
func (t *LiveToggles) CacheEnabled() bool   { return t.cache.Load() }

// Set updates a toggle by name and reports whether the name is known.
func (t *LiveToggles) Set(name string, enabled bool) bool {
	switch name {
	case "landing":
		t.landing.Store(enabled)
	case "cache":
		t.cache.Store(enabled)
	default:
		return false
	}
	return true
}

func (t *LiveToggles) Snapshot() map[string]bool {
	return map[string]bool{
		"landing": t.LandingEnabled(),
		"cache":   t.CacheEnabled(),
	}
}

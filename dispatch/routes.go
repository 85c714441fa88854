package dispatch

import (
	"fmt"
	"sort"
	"strings"
)

// RouteTable maps request paths to upstream paths. Paths missing from the
// table are forwarded verbatim.
type RouteTable map[string]string

// DefaultRoutes is the installer layout: the bare host and /vps serve the VPS
// script, /local the Docker Desktop one.
func DefaultRoutes() RouteTable {
	return RouteTable{
		"/":      "/vps-setup.sh",
		"/vps":   "/vps-setup.sh",
		"/local": "/local-setup.sh",
	}
}

// Merge returns a copy of rt with overrides laid over it. An empty target
// removes the entry.
func (rt RouteTable) Merge(overrides map[string]string) RouteTable {
	out := make(RouteTable, len(rt)+len(overrides))
	for from, to := range rt {
		out[from] = to
	}
	for from, to := range overrides {
		if to == "" {
			delete(out, from)
			continue
		}
		out[from] = to
	}
	return out
}

// Resolve is total: every path yields an upstream path.
func (rt RouteTable) Resolve(path string) string {
	if path == "" {
		path = "/"
	}
	if target, ok := rt[path]; ok {
		return target
	}
	return path
}

// Known reports whether path has an explicit entry.
func (rt RouteTable) Known(path string) bool {
	_, ok := rt[path]
	return ok
}

// Paths returns the table keys in sorted order.
func (rt RouteTable) Paths() []string {
	paths := make([]string, 0, len(rt))
	for p := range rt {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (rt RouteTable) Validate() error {
	for from, to := range rt {
		if !strings.HasPrefix(from, "/") {
			return fmt.Errorf("route %q: request path must start with /", from)
		}
		if !strings.HasPrefix(to, "/") {
			return fmt.Errorf("route %q: upstream path %q must start with /", from, to)
		}
	}
	return nil
}

// Resolve maps path with DefaultRoutes.
func Resolve(path string) string {
	return DefaultRoutes().Resolve(path)
}

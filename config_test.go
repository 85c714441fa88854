package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"scriptedge/dispatch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "127.0.0.1:9091", cfg.AdminAddr)
	assert.Equal(t, defaultUpstreamBase, cfg.UpstreamBase)
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout.Std())
	assert.True(t, cfg.LandingEnabled())
	assert.Equal(t, map[string]string(dispatch.DefaultRoutes()), cfg.Routes)
	assert.Equal(t, []string{"curl", "wget", "httpie"}, cfg.CLIAgents)
	assert.Zero(t, cfg.CacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

const jsonConfig = `{
  "listen_addr": ":8181",
  "upstream_base": "https://origin.example.test/main",
  "upstream_timeout": "5s",
  "landing_page": false,
  "routes": {"/": "/vps-setup.sh", "/vps": "/vps-setup.sh", "/local": "/setup.sh"},
  "cache_ttl": 300,
  "rate_limit": 2.5
}`

const yamlConfig = `
listen_addr: ":8181"
upstream_base: https://origin.example.test/main
upstream_timeout: 5s
landing_page: false
routes:
  /: /vps-setup.sh
  /vps: /vps-setup.sh
  /local: /setup.sh
cache_ttl: 5m
rate_limit: 2.5
`

func TestLoadConfigJSONAndYAMLAgree(t *testing.T) {
	fromJSON, err := LoadConfig(writeFile(t, "config.json", jsonConfig))
	require.NoError(t, err)
	fromYAML, err := LoadConfig(writeFile(t, "config.yaml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, ":8181", fromYAML.ListenAddr)
	assert.Equal(t, 5*time.Second, fromYAML.UpstreamTimeout.Std())
	assert.Equal(t, 5*time.Minute, fromYAML.CacheTTL.Std())
	assert.False(t, fromYAML.LandingEnabled())
	assert.Equal(t, "/setup.sh", fromYAML.Routes["/local"])
	assert.Equal(t, 2.5, fromYAML.RateLimit)
}

func TestRoutesExtendDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "config.json", `{"routes": {"/local": "/setup.sh"}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"/":      "/vps-setup.sh",
		"/vps":   "/vps-setup.sh",
		"/local": "/setup.sh",
	}, cfg.Routes)

	cfg, err = LoadConfig(writeFile(t, "config.yaml", "routes:\n  /vps: \"\"\n"))
	require.NoError(t, err)
	assert.NotContains(t, cfg.Routes, "/vps")
	assert.Equal(t, "/vps-setup.sh", cfg.Routes["/"])
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SCRIPTEDGE_UPSTREAM", "http://127.0.0.1:3000")
	t.Setenv("SCRIPTEDGE_LANDING", "true")
	t.Setenv("SCRIPTEDGE_CACHE_TTL", "1m")
	t.Setenv("SCRIPTEDGE_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(writeFile(t, "config.json", jsonConfig))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.UpstreamBase)
	assert.True(t, cfg.LandingEnabled())
	assert.Equal(t, time.Minute, cfg.CacheTTL.Std())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":8181", cfg.ListenAddr)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "broken.json", `{"listen_addr": `))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "bad.yaml", "upstream_timeout: soon\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "bad.json", `{"upstream_base": "not a url"}`))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "routes.json", `{"routes": {"vps": "/vps-setup.sh"}}`))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "neg.json", `{"cache_ttl": "-1s"}`))
	assert.Error(t, err)

	t.Setenv("SCRIPTEDGE_LANDING", "maybe")
	_, err = LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

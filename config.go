package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"scriptedge/dispatch"

	"github.com/asaskevich/govalidator"
	"gopkg.in/yaml.v3"
)

const (
	defaultUpstreamBase = "https://raw.githubusercontent.com/biwasxyz/openclaw-aibtc/main"
	defaultRepoURL      = "https://github.com/biwasxyz/openclaw-aibtc"
	defaultInstallHost  = "sh.biwas.xyz"
)

type Config struct {
	ListenAddr  string `json:"listen_addr" yaml:"listen_addr"`
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`
	AdminAddr   string `json:"admin_addr" yaml:"admin_addr"`

	UpstreamBase    string   `json:"upstream_base" yaml:"upstream_base"`
	UpstreamTimeout Duration `json:"upstream_timeout" yaml:"upstream_timeout"`
	MaxScriptBytes  int64    `json:"max_script_bytes" yaml:"max_script_bytes"`

	LandingPage *bool  `json:"landing_page" yaml:"landing_page"`
	RepoURL     string `json:"repo_url" yaml:"repo_url"`
	InstallHost string `json:"install_host" yaml:"install_host"`

	Routes    map[string]string `json:"routes" yaml:"routes"`
	CLIAgents []string          `json:"cli_agents" yaml:"cli_agents"`

	CacheTTL      Duration `json:"cache_ttl" yaml:"cache_ttl"`
	RedisAddr     string   `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string   `json:"redis_password" yaml:"redis_password"`

	RateLimit        float64  `json:"rate_limit" yaml:"rate_limit"`
	RateBurst        int      `json:"rate_burst" yaml:"rate_burst"`
	MaxConcurrent    int      `json:"max_concurrent_per_client" yaml:"max_concurrent_per_client"`
	ClientIPHeader   string   `json:"client_ip_header" yaml:"client_ip_header"`
	BlockedIPs       []string `json:"blocked_ips" yaml:"blocked_ips"`
	GeoIPDBPath      string   `json:"geoip_db" yaml:"geoip_db"`
	BlockedCountries []string `json:"blocked_countries" yaml:"blocked_countries"`

	WebhookURL string `json:"webhook_url" yaml:"webhook_url"`
	LogLevel   string `json:"log_level" yaml:"log_level"`
}

// Duration accepts "15s"-style strings in both JSON and YAML, and plain
// numbers as seconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch x := v.(type) {
	case string:
		parsed, err := time.ParseDuration(x)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", x, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(x * float64(time.Second))
	case int:
		*d = Duration(time.Duration(x) * time.Second)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// LandingEnabled defaults to true when unset.
func (c *Config) LandingEnabled() bool {
	return c.LandingPage == nil || *c.LandingPage
}

// LoadConfig reads path (YAML for .yaml/.yml, JSON otherwise), applies
// SCRIPTEDGE_* environment overrides, then defaults. A missing file is not
// an error.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeConfig(path, data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeConfig(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func (c *Config) applyEnv() error {
	if val := os.Getenv("SCRIPTEDGE_LISTEN"); val != "" {
		c.ListenAddr = val
	}
	if val := os.Getenv("SCRIPTEDGE_METRICS"); val != "" {
		c.MetricsAddr = val
	}
	if val := os.Getenv("SCRIPTEDGE_ADMIN"); val != "" {
		c.AdminAddr = val
	}
	if val := os.Getenv("SCRIPTEDGE_UPSTREAM"); val != "" {
		c.UpstreamBase = val
	}
	if val := os.Getenv("SCRIPTEDGE_UPSTREAM_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("SCRIPTEDGE_UPSTREAM_TIMEOUT: %w", err)
		}
		c.UpstreamTimeout = Duration(d)
	}
	if val := os.Getenv("SCRIPTEDGE_LANDING"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("SCRIPTEDGE_LANDING: %w", err)
		}
		c.LandingPage = &b
	}
	if val := os.Getenv("SCRIPTEDGE_INSTALL_HOST"); val != "" {
		c.InstallHost = val
	}
	if val := os.Getenv("SCRIPTEDGE_CACHE_TTL"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("SCRIPTEDGE_CACHE_TTL: %w", err)
		}
		c.CacheTTL = Duration(d)
	}
	if val := os.Getenv("SCRIPTEDGE_REDIS_ADDR"); val != "" {
		c.RedisAddr = val
	}
	if val := os.Getenv("SCRIPTEDGE_REDIS_PASSWORD"); val != "" {
		c.RedisPassword = val
	}
	if val := os.Getenv("SCRIPTEDGE_RATE_LIMIT"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("SCRIPTEDGE_RATE_LIMIT: %w", err)
		}
		c.RateLimit = f
	}
	if val := os.Getenv("SCRIPTEDGE_WEBHOOK_URL"); val != "" {
		c.WebhookURL = val
	}
	if val := os.Getenv("SCRIPTEDGE_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
	if c.AdminAddr == "" {
		c.AdminAddr = "127.0.0.1:9091"
	}
	if c.UpstreamBase == "" {
		c.UpstreamBase = defaultUpstreamBase
	}
	if c.UpstreamTimeout == 0 {
		c.UpstreamTimeout = Duration(15 * time.Second)
	}
	if c.RepoURL == "" {
		c.RepoURL = defaultRepoURL
	}
	if c.InstallHost == "" {
		c.InstallHost = defaultInstallHost
	}
	// Configured routes extend the defaults; "" drops one.
	c.Routes = dispatch.DefaultRoutes().Merge(c.Routes)
	if len(c.CLIAgents) == 0 {
		c.CLIAgents = append([]string(nil), dispatch.DefaultCLIAgents...)
	}
	if c.RateBurst == 0 {
		c.RateBurst = 20
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) Validate() error {
	if !govalidator.IsURL(c.UpstreamBase) ||
		!(strings.HasPrefix(c.UpstreamBase, "https://") || strings.HasPrefix(c.UpstreamBase, "http://")) {
		return fmt.Errorf("upstream_base %q is not an http(s) URL", c.UpstreamBase)
	}
	if !govalidator.IsURL(c.RepoURL) {
		return fmt.Errorf("repo_url %q is not a URL", c.RepoURL)
	}
	if c.WebhookURL != "" && !govalidator.IsURL(c.WebhookURL) {
		return fmt.Errorf("webhook_url %q is not a URL", c.WebhookURL)
	}
	if err := dispatch.RouteTable(c.Routes).Validate(); err != nil {
		return err
	}
	if c.UpstreamTimeout < 0 || c.CacheTTL < 0 {
		return errors.New("durations must not be negative")
	}
	if c.RateLimit < 0 || c.MaxScriptBytes < 0 || c.MaxConcurrent < 0 {
		return errors.New("rate_limit, max_script_bytes and max_concurrent_per_client must not be negative")
	}
	return nil
}

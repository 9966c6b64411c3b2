// Package config loads the service configuration from an optional YAML
// file, falling back to defaults that match the hdhub4u upstream.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "1h30m" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Extract  ExtractConfig  `yaml:"extract"`
	Proxy    ProxyConfig    `yaml:"proxy"`
}

type ServerConfig struct {
	Addr  string `yaml:"addr"`
	Debug bool   `yaml:"debug"`
}

// UpstreamConfig describes the mirrored site. The upstream domain changes
// across deployments, so host matching is configuration, not code.
type UpstreamConfig struct {
	BaseURL string `yaml:"base_url"`
	// AltHostSubstrings marks absolute links as same-site even when the
	// hostname differs from BaseURL (mirror domains).
	AltHostSubstrings []string      `yaml:"alt_host_substrings"`
	UserAgent         string        `yaml:"user_agent"`
	CacheTTL          Duration      `yaml:"cache_ttl"`
	CacheSize         int           `yaml:"cache_size"`
	OriginProbe       bool          `yaml:"origin_probe"`
	OriginTTL         Duration      `yaml:"origin_ttl"`
}

type ExtractConfig struct {
	// StreamHostSubstrings classify a link as "watch" rather than "download".
	StreamHostSubstrings []string `yaml:"stream_host_substrings"`
	// LinkHostPatterns, when non-empty, restricts download links to URLs
	// containing one of the patterns (file-host allowlist).
	LinkHostPatterns []string `yaml:"link_host_patterns"`
}

type ProxyConfig struct {
	// AdScriptHosts are script src substrings stripped by the page cleaner.
	AdScriptHosts []string `yaml:"ad_script_hosts"`
	// EmbedHosts recognize trailer iframes.
	EmbedHosts  []string `yaml:"embed_hosts"`
	StreamRoute string   `yaml:"stream_route"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Upstream: UpstreamConfig{
			BaseURL:           "https://hdhub4u.cologne",
			AltHostSubstrings: []string{"hdhub4u"},
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
				"(KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
			CacheTTL:  Duration(time.Hour),
			CacheSize: 256,
			OriginTTL: Duration(6 * time.Hour),
		},
		Extract: ExtractConfig{
			StreamHostSubstrings: []string{"hdstream", "hubdrive"},
		},
		Proxy: ProxyConfig{
			AdScriptHosts: []string{
				"bvtpk.com",
				"tzegilo.com/stattag.js",
				"hdstream4u.com/ad",
			},
			EmbedHosts:  []string{"youtube.com/embed", "youtube-nocookie.com/embed"},
			StreamRoute: "/proxy/stream/",
		},
	}
}

// Load reads a YAML config file and merges it over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url must not be empty")
	}
	if c.Upstream.CacheTTL < 0 {
		return errors.New("upstream.cache_ttl must not be negative")
	}
	if c.Upstream.CacheSize <= 0 {
		c.Upstream.CacheSize = Default().Upstream.CacheSize
	}
	if c.Proxy.StreamRoute == "" {
		c.Proxy.StreamRoute = Default().Proxy.StreamRoute
	}
	return nil
}

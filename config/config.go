// Package config centralizes beanwire's process-wide configuration:
// the two spec-mandated environment variables (spec.md §6), connection
// pool and timeout settings, and TLS/auth plugin selection. Grounded on
// coreengine/config/core_config.go's struct + Default* constructor +
// single-parse-point convention. Environment variables are read exactly
// once, at process start in cmd/, never deep in a call chain.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable this module reads from the environment or
// a config file. Immutable after construction; build with DefaultConfig
// then apply Option functions, or load a YAML file with Load.
type Config struct {
	// DiscoveryCacheRefreshTimeout is the discovery cache TTL (spec.md
	// §6 env var org.wildfly.httpclient.ejb.discovery.cache-refresh-timeout).
	DiscoveryCacheRefreshTimeout time.Duration `yaml:"discovery_cache_refresh_timeout_ms"`

	// NamingMaxRetries is the not-found retry budget for the naming
	// retry loop (spec.md §6 env var org.wildfly.httpclient.naming.max-retries).
	NamingMaxRetries int `yaml:"naming_max_retries"`

	// MaxIdleConnsPerTarget bounds the client transport's connection
	// pool size per target URI.
	MaxIdleConnsPerTarget int `yaml:"max_idle_conns_per_target"`

	// RequestTimeout bounds a single HTTP exchange; exceeding it
	// surfaces as a CommunicationFailure (spec.md §5).
	RequestTimeout time.Duration `yaml:"request_timeout_ms"`

	// CompressionEnabled controls whether bean-invoke bodies are
	// gzip-wrapped (spec.md §4.1).
	CompressionEnabled bool `yaml:"compression_enabled"`
}

const (
	envDiscoveryTTL   = "org.wildfly.httpclient.ejb.discovery.cache-refresh-timeout"
	envNamingRetries  = "org.wildfly.httpclient.naming.max-retries"
	defaultTTLMillis  = 300000
	defaultMaxRetries = 8
)

// DefaultConfig returns the spec-mandated defaults, then applies any
// environment-variable overrides present in the process environment.
func DefaultConfig() *Config {
	c := &Config{
		DiscoveryCacheRefreshTimeout: defaultTTLMillis * time.Millisecond,
		NamingMaxRetries:             defaultMaxRetries,
		MaxIdleConnsPerTarget:        16,
		RequestTimeout:               30 * time.Second,
		CompressionEnabled:           false,
	}
	c.applyEnv()
	return c
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envDiscoveryTTL); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.DiscoveryCacheRefreshTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv(envNamingRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.NamingMaxRetries = n
		}
	}
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithDiscoveryCacheRefreshTimeout overrides the discovery TTL.
func WithDiscoveryCacheRefreshTimeout(d time.Duration) Option {
	return func(c *Config) { c.DiscoveryCacheRefreshTimeout = d }
}

// WithNamingMaxRetries overrides the naming retry budget.
func WithNamingMaxRetries(n int) Option {
	return func(c *Config) { c.NamingMaxRetries = n }
}

// WithCompressionEnabled toggles gzip body wrapping.
func WithCompressionEnabled(enabled bool) Option {
	return func(c *Config) { c.CompressionEnabled = enabled }
}

// New builds a Config from defaults + environment + explicit options,
// options taking precedence.
func New(opts ...Option) *Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads a YAML config file (e.g. beanwire.yaml) layered on top of
// DefaultConfig/environment. Missing file is not an error; the defaults
// stand.
func Load(path string) (*Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file struct {
		DiscoveryCacheRefreshTimeoutMS int  `yaml:"discovery_cache_refresh_timeout_ms"`
		NamingMaxRetries               int  `yaml:"naming_max_retries"`
		MaxIdleConnsPerTarget          int  `yaml:"max_idle_conns_per_target"`
		RequestTimeoutMS               int  `yaml:"request_timeout_ms"`
		CompressionEnabled             bool `yaml:"compression_enabled"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if file.DiscoveryCacheRefreshTimeoutMS > 0 {
		c.DiscoveryCacheRefreshTimeout = time.Duration(file.DiscoveryCacheRefreshTimeoutMS) * time.Millisecond
	}
	if file.NamingMaxRetries > 0 {
		c.NamingMaxRetries = file.NamingMaxRetries
	}
	if file.MaxIdleConnsPerTarget > 0 {
		c.MaxIdleConnsPerTarget = file.MaxIdleConnsPerTarget
	}
	if file.RequestTimeoutMS > 0 {
		c.RequestTimeout = time.Duration(file.RequestTimeoutMS) * time.Millisecond
	}
	c.CompressionEnabled = file.CompressionEnabled

	return c, nil
}

// Package config loads the application's HCL configuration file and
// translates it into the typed configs the packages consume.
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/clinix-health/mobile-core/pkg/querycache"
	"github.com/clinix-health/mobile-core/pkg/sim"
	"github.com/clinix-health/mobile-core/pkg/transport"
)

// Config is the root of the configuration file.
//
// Example:
//
//	transport {
//	  base_url        = "https://api.clinix.app"
//	  timeout         = "15s"
//	  fallback_to_sim = true
//	}
//
//	storage {
//	  backend = "sqlite"
//	  path    = "/data/clinix.db"
//	}
//
//	cache {
//	  stale_after = "30s"
//	  max_age     = "24h"
//	}
//
//	sim {
//	  latency = "150ms"
//	}
type Config struct {
	Transport *TransportBlock `hcl:"transport,block"`
	Storage   *StorageBlock   `hcl:"storage,block"`
	Cache     *CacheBlock     `hcl:"cache,block"`
	Sim       *SimBlock       `hcl:"sim,block"`
}

// TransportBlock configures the request façade.
type TransportBlock struct {
	BaseURL       string `hcl:"base_url,optional"`
	UseSimulator  bool   `hcl:"use_simulator,optional"`
	FallbackToSim bool   `hcl:"fallback_to_sim,optional"`
	Timeout       string `hcl:"timeout,optional"`
	MaxRetries    *int   `hcl:"max_retries,optional"`
	RetryDelay    string `hcl:"retry_delay,optional"`
	TLSVerify     *bool  `hcl:"tls_verify,optional"`
}

// StorageBlock selects the device key-value backend.
type StorageBlock struct {
	// Backend is "file" or "sqlite".
	Backend string `hcl:"backend,optional"`
	Path    string `hcl:"path,optional"`
}

// CacheBlock tunes the persisted query cache.
type CacheBlock struct {
	StaleAfter string `hcl:"stale_after,optional"`
	MaxAge     string `hcl:"max_age,optional"`
}

// SimBlock tunes the embedded backend.
type SimBlock struct {
	Latency string `hcl:"latency,optional"`
	Seed    *bool  `hcl:"seed,optional"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Storage != nil {
		switch c.Storage.Backend {
		case "", "file", "sqlite":
		default:
			return fmt.Errorf("unknown storage backend %q (want file or sqlite)", c.Storage.Backend)
		}
	}
	for name, raw := range c.durations() {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) durations() map[string]string {
	out := make(map[string]string)
	if c.Transport != nil {
		out["transport.timeout"] = c.Transport.Timeout
		out["transport.retry_delay"] = c.Transport.RetryDelay
	}
	if c.Cache != nil {
		out["cache.stale_after"] = c.Cache.StaleAfter
		out["cache.max_age"] = c.Cache.MaxAge
	}
	if c.Sim != nil {
		out["sim.latency"] = c.Sim.Latency
	}
	return out
}

// TransportConfig builds the façade config, with defaults applied.
func (c *Config) TransportConfig() transport.Config {
	out := transport.DefaultConfig()
	b := c.Transport
	if b == nil {
		return out
	}

	out.BaseURL = b.BaseURL
	out.UseSimulator = b.UseSimulator
	out.FallbackToSim = b.FallbackToSim
	if b.Timeout != "" {
		out.Timeout, _ = time.ParseDuration(b.Timeout)
	}
	if b.MaxRetries != nil {
		out.MaxRetries = *b.MaxRetries
	}
	if b.RetryDelay != "" {
		out.RetryDelay, _ = time.ParseDuration(b.RetryDelay)
	}
	if b.TLSVerify != nil {
		out.TLSVerify = b.TLSVerify
	}
	return out
}

// CacheConfig builds the query cache config, with defaults applied.
func (c *Config) CacheConfig() querycache.Config {
	out := querycache.DefaultConfig()
	b := c.Cache
	if b == nil {
		return out
	}

	if b.StaleAfter != "" {
		out.TTL, _ = time.ParseDuration(b.StaleAfter)
	}
	if b.MaxAge != "" {
		out.MaxAge, _ = time.ParseDuration(b.MaxAge)
	}
	return out
}

// SimConfig builds the embedded backend config, with defaults applied.
func (c *Config) SimConfig() sim.Config {
	out := sim.DefaultConfig()
	b := c.Sim
	if b == nil {
		return out
	}

	if b.Latency != "" {
		out.Latency, _ = time.ParseDuration(b.Latency)
	}
	if b.Seed != nil {
		out.Seed = *b.Seed
	}
	return out
}

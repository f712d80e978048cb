package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clinix.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
transport {
  base_url        = "https://api.clinix.app"
  timeout         = "20s"
  max_retries     = 1
  fallback_to_sim = true
}

storage {
  backend = "sqlite"
  path    = "/data/clinix.db"
}

cache {
  stale_after = "45s"
  max_age     = "12h"
}

sim {
  latency = "10ms"
  seed    = false
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	tc := cfg.TransportConfig()
	assert.Equal(t, "https://api.clinix.app", tc.BaseURL)
	assert.Equal(t, 20*time.Second, tc.Timeout)
	assert.Equal(t, 1, tc.MaxRetries)
	assert.True(t, tc.FallbackToSim)

	cc := cfg.CacheConfig()
	assert.Equal(t, 45*time.Second, cc.TTL)
	assert.Equal(t, 12*time.Hour, cc.MaxAge)

	sc := cfg.SimConfig()
	assert.Equal(t, 10*time.Millisecond, sc.Latency)
	assert.False(t, sc.Seed)

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/data/clinix.db", cfg.Storage.Path)
}

func TestLoadEmptyConfigUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	tc := cfg.TransportConfig()
	assert.Equal(t, 15*time.Second, tc.Timeout)
	assert.Equal(t, 2, tc.MaxRetries)

	cc := cfg.CacheConfig()
	assert.Equal(t, 30*time.Second, cc.TTL)
	assert.Equal(t, 24*time.Hour, cc.MaxAge)

	sc := cfg.SimConfig()
	assert.Equal(t, 150*time.Millisecond, sc.Latency)
	assert.True(t, sc.Seed)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	_, err := Load(writeConfig(t, `
transport {
  timeout = "soon"
}
`))
	assert.ErrorContains(t, err, "transport.timeout")
}

func TestLoadRejectsUnknownStorageBackend(t *testing.T) {
	_, err := Load(writeConfig(t, `
storage {
  backend = "redis"
}
`))
	assert.ErrorContains(t, err, "unknown storage backend")
}

package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/sim"
	"github.com/clinix-health/mobile-core/pkg/token"
)

func newSimBackend(t *testing.T) *sim.Backend {
	t.Helper()
	b, err := sim.NewBackend(sim.Config{Latency: 0, Seed: true})
	require.NoError(t, err)
	return b
}

func newSimClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.UseSimulator = true
	c, err := NewClient(cfg, newSimBackend(t))
	require.NoError(t, err)
	return c
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with base url", func(c *Config) { c.BaseURL = "https://api.clinix.app" }, false},
		{"missing base url", func(c *Config) {}, true},
		{"simulator needs no base url", func(c *Config) { c.UseSimulator = true }, false},
		{"bad scheme", func(c *Config) { c.BaseURL = "ftp://api.clinix.app" }, true},
		{"negative retries", func(c *Config) { c.BaseURL = "https://x.test"; c.MaxRetries = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDo_SimulatorPath(t *testing.T) {
	c := newSimClient(t)
	c.SetToken(token.Encode(token.Identity{Role: token.RolePatient, UserID: "patient-001"}))

	env, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/appointments"})
	require.NoError(t, err)
	assert.True(t, env.Success())
	assert.Contains(t, env, "appointments")
}

func TestDo_SimulatorErrorIsNormalized(t *testing.T) {
	c := newSimClient(t)

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/no/such/route"})
	require.Error(t, err)

	var ae *apierr.Error
	require.True(t, errors.As(err, &ae), "expected *apierr.Error, got %T", err)
	assert.Equal(t, http.StatusNotFound, ae.StatusCode)
}

func TestDo_LivePath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"doctors":[]}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	c, err := NewClient(cfg, newSimBackend(t))
	require.NoError(t, err)
	c.SetToken("test-token")

	env, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/doctors"})
	require.NoError(t, err)
	assert.True(t, env.Success())
}

func TestDo_LiveUnauthorizedNotifiesObserversBeforeReturn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"session expired"}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	c, err := NewClient(cfg, newSimBackend(t))
	require.NoError(t, err)

	var notified atomic.Bool
	unsub := c.OnUnauthorized(func() { notified.Store(true) })
	defer unsub()

	_, err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/appointments"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrUnauthorized))
	assert.True(t, notified.Load(), "observer should fire before the call returns")
	assert.Contains(t, err.Error(), "session expired")
}

func TestOnUnauthorized_Unsubscribe(t *testing.T) {
	c := newSimClient(t)

	var calls atomic.Int32
	unsub := c.OnUnauthorized(func() { calls.Add(1) })
	c.OnUnauthorized(func() { calls.Add(1) })

	unsub()
	c.notifyUnauthorized()
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_LiveRetriesOn5xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.MaxRetries = 3
	cfg.RetryDelay = time.Millisecond
	c, err := NewClient(cfg, newSimBackend(t))
	require.NoError(t, err)

	env, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/doctors"})
	require.NoError(t, err)
	assert.True(t, env.Success())
	assert.Equal(t, int32(3), hits.Load())
}

func TestDo_LiveClientErrorsDoNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"no appointment with that id"}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.RetryDelay = time.Millisecond
	c, err := NewClient(cfg, newSimBackend(t))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Method: http.MethodPatch, Path: "/appointments/ghost"})
	assert.True(t, errors.Is(err, apierr.ErrNotFound))
	assert.Equal(t, int32(1), hits.Load())
}

func TestDo_LiveNetworkFailureIsTransport(t *testing.T) {
	cfg := DefaultConfig()
	// A port nothing listens on.
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.MaxRetries = 0
	c, err := NewClient(cfg, newSimBackend(t))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/doctors"})
	assert.True(t, errors.Is(err, apierr.ErrTransport))
}

func TestDo_LiveMalformedBodyIsShapeMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	c, err := NewClient(cfg, newSimBackend(t))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/doctors"})
	assert.True(t, errors.Is(err, apierr.ErrShapeMismatch))
}

func TestSetClearToken(t *testing.T) {
	c := newSimClient(t)
	c.SetToken("abc")
	assert.Equal(t, "abc", c.Token())
	c.ClearToken()
	assert.Empty(t, c.Token())
}

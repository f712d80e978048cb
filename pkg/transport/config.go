// Package transport is the request façade: the single entry point
// every feature module calls to perform a backend operation. It
// targets either the live backend over HTTP or the embedded simulator,
// and normalizes every failure into *apierr.Error so callers never
// special-case origin.
package transport

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Config contains configuration for the request façade.
//
// Example configuration (HCL):
//
//	transport {
//	  base_url        = "https://api.clinix.app"
//	  timeout         = "15s"
//	  use_simulator   = false
//	  fallback_to_sim = true
//	}
type Config struct {
	// BaseURL is the live backend's base URL. Required unless
	// UseSimulator is set.
	BaseURL string

	// UseSimulator routes every request to the embedded backend
	// instead of the network.
	UseSimulator bool

	// FallbackToSim lets domain modules synthesize results from the
	// simulator's stores when a live response is malformed or erroring.
	FallbackToSim bool

	// Timeout is the wall-clock limit per live request.
	// Default: 15 seconds. The simulator never times out.
	Timeout time.Duration

	// MaxRetries for failed live requests. Default: 2.
	MaxRetries int

	// RetryDelay between retries. Default: 500ms.
	RetryDelay time.Duration

	// TLSVerify controls TLS certificate verification. Disable only
	// against development servers with self-signed certs.
	TLSVerify *bool

	Logger hclog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	tlsVerify := true
	return Config{
		TLSVerify:  &tlsVerify,
		Timeout:    15 * time.Second,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.UseSimulator {
		return nil
	}

	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required when the simulator is disabled")
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https scheme, got: %s", parsed.Scheme)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %v", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got: %d", c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be non-negative, got: %v", c.RetryDelay)
	}

	return nil
}

// NewHTTPClient creates the configured HTTP client for the live path.
func (c Config) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	if c.TLSVerify != nil && !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/sim"
)

// Request describes one backend operation.
type Request struct {
	Method string
	Path   string
	Body   any
	Query  url.Values
}

// Client is the request façade. All feature modules share one Client;
// it holds the session token and the unauthorized observers.
type Client struct {
	cfg    Config
	http   *http.Client
	sim    *sim.Backend
	logger hclog.Logger

	mu        sync.Mutex
	token     string
	observers map[int]func()
	nextObsID int
}

// NewClient creates a façade over the given simulator. The simulator
// is always required: even in live mode, domain modules use its stores
// for the malformed-response fallback.
func NewClient(cfg Config, backend *sim.Backend) (*Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}
	if backend == nil {
		return nil, fmt.Errorf("a simulator backend is required")
	}

	return &Client{
		cfg:       cfg,
		http:      cfg.NewHTTPClient(),
		sim:       backend,
		logger:    cfg.Logger.Named("transport"),
		observers: make(map[int]func()),
	}, nil
}

// Sim exposes the embedded simulator backing this client.
func (c *Client) Sim() *sim.Backend {
	return c.sim
}

// FallbackEnabled reports whether domain modules may synthesize
// results from the simulator on malformed live responses.
func (c *Client) FallbackEnabled() bool {
	return c.cfg.FallbackToSim
}

// SetToken attaches the session token sent on every request.
func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = tok
}

// ClearToken removes the session token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the currently attached session token.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// OnUnauthorized registers an observer invoked whenever the live
// backend answers 401, before the failing call returns. The returned
// function unsubscribes.
func (c *Client) OnUnauthorized(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

func (c *Client) notifyUnauthorized() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Do performs one backend operation and returns the response envelope.
// Every failure, from either origin, is a *apierr.Error.
func (c *Client) Do(ctx context.Context, req Request) (sim.Envelope, error) {
	if c.cfg.UseSimulator {
		return c.doSim(ctx, req)
	}
	return c.doLive(ctx, req)
}

func (c *Client) doSim(ctx context.Context, req Request) (sim.Envelope, error) {
	path := req.Path
	if len(req.Query) > 0 {
		path += "?" + req.Query.Encode()
	}

	env, err := c.sim.Handle(ctx, req.Method, path, req.Body, c.Token())
	if err != nil {
		return nil, apierr.Wrap("transport.Do", err)
	}
	return env, nil
}

// doLive executes an HTTP request against the live backend with retry
// on transient failures, subject to the fixed wall-clock timeout on
// the underlying client.
func (c *Client) doLive(ctx context.Context, req Request) (sim.Envelope, error) {
	endpoint := c.cfg.BaseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, apierr.Validation("transport.Do", "unmarshalable request body")
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apierr.Transport("transport.Do", ctx.Err())
			case <-time.After(c.cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		env, retryable, err := c.attempt(ctx, req.Method, endpoint, bodyBytes)
		if err == nil {
			return env, nil
		}
		if !retryable {
			return nil, apierr.Wrap("transport.Do", err)
		}
		lastErr = err
		c.logger.Debug("retrying request",
			"method", req.Method,
			"path", req.Path,
			"attempt", attempt+1,
			"error", err)
	}

	return nil, apierr.Transport("transport.Do", fmt.Errorf("request failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr))
}

// attempt runs a single HTTP exchange. The second return value reports
// whether the failure is worth retrying (network errors and 5xx).
func (c *Client) attempt(ctx context.Context, method, endpoint string, body []byte) (sim.Envelope, bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, false, apierr.Transport("transport.Do", err)
	}

	if tok := c.Token(); tok != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, true, apierr.Transport("transport.Do", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, true, apierr.Transport("transport.Do", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Observers learn about the dead session before the caller
		// sees the failure.
		c.notifyUnauthorized()
		return nil, false, apierr.Unauthorized("transport.Do", errorMessage(respBody))
	}

	if resp.StatusCode >= 500 {
		return nil, true, apierr.FromStatus("transport.Do", resp.StatusCode, errorMessage(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, apierr.FromStatus("transport.Do", resp.StatusCode, errorMessage(respBody))
	}

	var env sim.Envelope
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &env); err != nil {
			return nil, false, apierr.ShapeMismatch("transport.Do", "response is not a JSON object")
		}
	}
	return env, false, nil
}

// errorMessage pulls the backend's error message out of a failure
// envelope, falling back to the raw body.
func errorMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

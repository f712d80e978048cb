// Package sim is the embedded backend simulator: an ordered route
// table over in-memory domain stores that answers with exactly the
// response shapes the live backend produces. The request façade
// targets it when simulation mode is on; domain API modules also reach
// into its stores directly for their own malformed-response fallback.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/mapstructure"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/sim/store"
	"github.com/clinix-health/mobile-core/pkg/token"
)

// Envelope is the JSON response body: always a "success" flag plus the
// route's domain payload, matching the live backend's contract.
type Envelope map[string]any

// Success reports the envelope's success flag.
func (e Envelope) Success() bool {
	ok, _ := e["success"].(bool)
	return ok
}

// Request is the dispatched form of an incoming call.
type Request struct {
	Method   string
	Path     string
	Params   map[string]string
	Body     map[string]any
	Identity token.Identity
}

// HandlerFunc handles one matched route.
type HandlerFunc func(ctx context.Context, req *Request) (Envelope, error)

// RouteName identifies a route for logging and exhaustiveness; every
// registered route has exactly one.
type RouteName string

// Route is an immutable (method, pattern, handler) registration.
// Pattern segments prefixed with ':' bind into Request.Params; a
// pattern matches a path only when their segment counts are equal.
type Route struct {
	Name    RouteName
	Method  string
	Pattern string
	Handler HandlerFunc
}

type routeGroup struct {
	name   string
	routes []Route
}

// Config configures the simulated backend.
type Config struct {
	// Latency is the fixed delay applied to every response, emulating
	// network behavior so pending states surface in UI code.
	Latency time.Duration

	// Seed controls whether the stores start with the demo dataset.
	Seed bool

	Logger hclog.Logger
}

// DefaultConfig returns the configuration a fresh app install runs with.
func DefaultConfig() Config {
	return Config{
		Latency: 150 * time.Millisecond,
		Seed:    true,
	}
}

// Backend is the simulator: stores plus the ordered route groups.
type Backend struct {
	stores  *store.Stores
	groups  []routeGroup
	latency time.Duration
	logger  hclog.Logger
}

// NewBackend builds a simulator and registers every route group in
// its fixed dispatch order. Colliding route patterns are a
// configuration error and fail construction.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	stores := store.New()
	if cfg.Seed {
		stores = store.NewSeeded()
	}

	b := &Backend{
		stores:  stores,
		latency: cfg.Latency,
		logger:  cfg.Logger.Named("sim"),
	}

	b.groups = []routeGroup{
		{name: "auth", routes: b.authRoutes()},
		{name: "care", routes: b.careRoutes()},
		{name: "messaging", routes: b.messagingRoutes()},
		{name: "misc", routes: b.miscRoutes()},
	}

	if err := checkCollisions(b.groups); err != nil {
		return nil, err
	}
	return b, nil
}

// Stores exposes the simulator's domain stores for module-level
// fallback and for tests.
func (b *Backend) Stores() *store.Stores {
	return b.stores
}

// Handle resolves one request: normalize, derive identity from the
// bearer token, walk the route groups in order, and dispatch the first
// match. No match is a 404.
func (b *Backend) Handle(ctx context.Context, method, path string, body any, bearer string) (Envelope, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	path = normalizePath(path)
	identity := token.Decode(bearer)

	if err := b.simulateLatency(ctx); err != nil {
		return nil, err
	}

	bodyMap, err := normalizeBody(body)
	if err != nil {
		return nil, apierr.Validation("sim.router", "unreadable request body")
	}

	segments := splitPath(path)
	for _, g := range b.groups {
		for _, r := range g.routes {
			params, ok := match(r, method, segments)
			if !ok {
				continue
			}
			b.logger.Debug("route matched",
				"route", string(r.Name),
				"method", method,
				"path", path,
				"role", string(identity.Role))
			return r.Handler(ctx, &Request{
				Method:   method,
				Path:     path,
				Params:   params,
				Body:     bodyMap,
				Identity: identity,
			})
		}
	}

	return nil, apierr.NotFound("sim.router", fmt.Sprintf("no route for %s %s", method, path))
}

// simulateLatency waits the configured fixed delay, honoring
// cancellation.
func (b *Backend) simulateLatency(ctx context.Context) error {
	if b.latency <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return apierr.Transport("sim.router", ctx.Err())
	case <-time.After(b.latency):
		return nil
	}
}

func normalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func splitPath(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

// match binds a route pattern against path segments. Matching is
// purely structural: equal segment counts, literal segments must be
// equal, ':' segments bind.
func match(r Route, method string, segments []string) (map[string]string, bool) {
	if r.Method != method {
		return nil, false
	}
	pattern := splitPath(r.Pattern)
	if len(pattern) != len(segments) {
		return nil, false
	}

	var params map[string]string
	for i, p := range pattern {
		if name, isParam := strings.CutPrefix(p, ":"); isParam {
			if segments[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = segments[i]
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}

// checkCollisions rejects any pair of routes that could both match a
// single request.
func checkCollisions(groups []routeGroup) error {
	var all []Route
	for _, g := range groups {
		all = append(all, g.routes...)
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if collide(all[i], all[j]) {
				return fmt.Errorf("route %q collides with %q (%s %s vs %s %s)",
					all[i].Name, all[j].Name,
					all[i].Method, all[i].Pattern,
					all[j].Method, all[j].Pattern)
			}
		}
	}
	return nil
}

func collide(a, b Route) bool {
	if a.Method != b.Method {
		return false
	}
	pa, pb := splitPath(a.Pattern), splitPath(b.Pattern)
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		aParam := strings.HasPrefix(pa[i], ":")
		bParam := strings.HasPrefix(pb[i], ":")
		if !aParam && !bParam && pa[i] != pb[i] {
			return false
		}
	}
	return true
}

// normalizeBody converts an arbitrary request body (typed struct or
// decoded JSON) into the map form handlers consume, via a JSON
// round-trip so the simulator sees exactly what the wire would carry.
func normalizeBody(body any) (map[string]any, error) {
	if body == nil {
		return nil, nil
	}
	if m, ok := body.(map[string]any); ok {
		return m, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// decodeBody maps a request body into a typed request struct.
func decodeBody(body map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(body)
}

// jsonify converts a typed value into plain JSON types so envelope
// payloads are structurally identical to what the live backend's JSON
// would decode to.
func jsonify(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

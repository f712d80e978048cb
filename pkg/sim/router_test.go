package sim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/token"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := NewBackend(Config{Latency: 0, Seed: true})
	require.NoError(t, err)
	return b
}

func demoToken() string {
	return token.Encode(token.Identity{Role: token.RolePatient, UserID: "patient-001"})
}

func TestHandle_RouteNormalization(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	// Lower-case method, query string and trailing slash all normalize
	// away before matching.
	env, err := b.Handle(ctx, "get", "/appointments/?from=2026-01-01", nil, demoToken())
	require.NoError(t, err)
	assert.True(t, env.Success())
	assert.Contains(t, env, "appointments")
}

func TestHandle_UnknownRouteIs404(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Handle(context.Background(), "GET", "/no/such/route", nil, demoToken())
	assert.True(t, errors.Is(err, apierr.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}

func TestHandle_SegmentCountMustAlign(t *testing.T) {
	b := newTestBackend(t)

	// /appointments/:id only matches two segments.
	_, err := b.Handle(context.Background(), "PATCH", "/appointments/a/b", map[string]any{"status": "cancelled"}, demoToken())
	assert.True(t, errors.Is(err, apierr.ErrNotFound))
}

func TestHandle_ParamBinding(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	env, err := b.Handle(ctx, "GET", "/threads/thread-001/messages", nil, demoToken())
	require.NoError(t, err)
	assert.True(t, env.Success())

	msgs, ok := env["messages"].([]any)
	require.True(t, ok, "messages payload should be a JSON array, got %T", env["messages"])
	assert.NotEmpty(t, msgs)
}

func TestHandle_FreshThreadMessagesAreEmptyList(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	created, err := b.Handle(ctx, "POST", "/threads", map[string]any{
		"doctorName": "Dr. Kareem Adel",
		"subject":    "New symptoms",
	}, demoToken())
	require.NoError(t, err)

	thread, ok := created["thread"].(map[string]any)
	require.True(t, ok)
	threadID, _ := thread["id"].(string)
	require.NotEmpty(t, threadID)

	env, err := b.Handle(ctx, "GET", "/threads/"+threadID+"/messages", nil, demoToken())
	require.NoError(t, err)
	assert.True(t, env.Success())
	msgs, ok := env["messages"].([]any)
	require.True(t, ok)
	assert.Empty(t, msgs)
}

func TestHandle_CreateAppointmentScenario(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	env, err := b.Handle(ctx, "POST", "/appointments", map[string]any{
		"doctorName": "Dr. Kareem Adel",
		"department": "Cardiology",
		"date":       "2026-09-15T00:00:00Z",
		"time":       "10:30 AM",
		"reason":     "Follow-up",
	}, demoToken())
	require.NoError(t, err)
	require.True(t, env.Success())

	appt, ok := env["appointment"].(map[string]any)
	require.True(t, ok)
	status, _ := appt["status"].(string)
	assert.Contains(t, []string{"scheduled", "confirmed"}, status)
	assert.Equal(t, "patient-001", appt["patientId"])
}

func TestHandle_PatchUnknownAppointmentIsNotFound(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Handle(context.Background(), "PATCH", "/appointments/ghost-id", map[string]any{
		"status": "cancelled",
	}, demoToken())
	assert.True(t, errors.Is(err, apierr.ErrNotFound))
}

func TestHandle_IdentityScoping(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	// An unrecognized token falls back to the default patient identity,
	// which is the seeded demo patient.
	env, err := b.Handle(ctx, "GET", "/appointments", nil, "garbage")
	require.NoError(t, err)
	assert.NotEmpty(t, env["appointments"])

	// A different patient sees nothing.
	other := token.Encode(token.Identity{Role: token.RolePatient, UserID: "patient-999"})
	env, err = b.Handle(ctx, "GET", "/appointments", nil, other)
	require.NoError(t, err)
	assert.Empty(t, env["appointments"])
}

func TestHandle_LoginIssuesDecodableToken(t *testing.T) {
	b := newTestBackend(t)

	env, err := b.Handle(context.Background(), "POST", "/auth/login", map[string]any{
		"email":    "patient@clinix.app",
		"password": "anything",
	}, "")
	require.NoError(t, err)
	require.True(t, env.Success())

	tok, _ := env["token"].(string)
	require.NotEmpty(t, tok)
	assert.Equal(t, token.Identity{Role: token.RolePatient, UserID: "patient-001"}, token.Decode(tok))
}

func TestHandle_LoginUnknownEmailIsValidation(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Handle(context.Background(), "POST", "/auth/login", map[string]any{
		"email":    "nobody@clinix.app",
		"password": "x",
	}, "")
	assert.True(t, errors.Is(err, apierr.ErrValidation))
}

func TestHandle_LatencyHonorsCancellation(t *testing.T) {
	b, err := NewBackend(Config{Latency: 5 * time.Second, Seed: false})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.Handle(ctx, "GET", "/doctors", nil, "")
	assert.True(t, errors.Is(err, apierr.ErrTransport))
}

func TestHandle_MarkAllReadCountIsWireTyped(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	env, err := b.Handle(ctx, "PATCH", "/notifications/read-all", nil, demoToken())
	require.NoError(t, err)
	require.True(t, env.Success())

	// Numbers arrive as float64 when a live response is decoded; the
	// simulated envelope must carry the same type.
	count, ok := env["updated"].(float64)
	require.True(t, ok, "updated should decode like a wire number, got %T", env["updated"])
	assert.Positive(t, count)
}

func TestCheckCollisions(t *testing.T) {
	noop := func(context.Context, *Request) (Envelope, error) { return Envelope{"success": true}, nil }

	groups := []routeGroup{
		{name: "a", routes: []Route{
			{Name: "a.one", Method: "GET", Pattern: "/things/:id", Handler: noop},
		}},
		{name: "b", routes: []Route{
			{Name: "b.one", Method: "GET", Pattern: "/things/special", Handler: noop},
		}},
	}

	err := checkCollisions(groups)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collides")
}

func TestMatch(t *testing.T) {
	noop := func(context.Context, *Request) (Envelope, error) { return nil, nil }
	r := Route{Name: "t", Method: "GET", Pattern: "/threads/:id/messages", Handler: noop}

	tests := []struct {
		name   string
		method string
		path   string
		want   bool
		params map[string]string
	}{
		{"match with binding", "GET", "/threads/t-1/messages", true, map[string]string{"id": "t-1"}},
		{"wrong method", "POST", "/threads/t-1/messages", false, nil},
		{"too few segments", "GET", "/threads/t-1", false, nil},
		{"empty param segment", "GET", "/threads//messages", false, nil},
		{"literal mismatch", "GET", "/threads/t-1/files", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, ok := match(r, tt.method, splitPath(tt.path))
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, tt.params, params)
			}
		})
	}
}

func TestServeHTTP_ContractParity(t *testing.T) {
	b := newTestBackend(t)
	srv := httptest.NewServer(b)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/appointments", strings.NewReader(
		`{"doctorName":"Dr. Kareem Adel","department":"Cardiology","date":"2026-09-15","time":"10:30 AM","reason":"Follow-up"}`,
	))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+demoToken())
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// 404 carries the envelope error shape.
	resp2, err := http.Get(srv.URL + "/no/such/route")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

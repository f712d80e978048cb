package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinix-health/mobile-core/pkg/api"
	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/kvstore"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/querycache"
	"github.com/clinix-health/mobile-core/pkg/sim"
	"github.com/clinix-health/mobile-core/pkg/token"
	"github.com/clinix-health/mobile-core/pkg/transport"
)

type fixture struct {
	store   *Store
	client  *transport.Client
	storage kvstore.Store
	cache   *querycache.Cache
	mods    *api.Modules
}

func newFixture(t *testing.T, cfg transport.Config) *fixture {
	t.Helper()

	backend, err := sim.NewBackend(sim.Config{Latency: 0, Seed: true})
	require.NoError(t, err)

	client, err := transport.NewClient(cfg, backend)
	require.NoError(t, err)

	storage, err := kvstore.NewFileStore(afero.NewMemMapFs(), "session-test")
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	cache := querycache.New(querycache.Config{TTL: time.Minute, Storage: storage})
	mods := api.New(client, storage, cache, hclog.NewNullLogger())

	store := New(Config{
		Auth:    mods.Auth,
		Client:  client,
		Storage: storage,
		Cache:   cache,
		Logger:  hclog.NewNullLogger(),
	})
	t.Cleanup(store.Close)

	return &fixture{store: store, client: client, storage: storage, cache: cache, mods: mods}
}

func simFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixture(t, transport.Config{UseSimulator: true})
}

func TestSignInActivatesAndPersists(t *testing.T) {
	f := simFixture(t)
	ctx := context.Background()

	require.Equal(t, StateSignedOut, f.store.State())

	session, err := f.store.SignIn(ctx, models.LoginRequest{
		Email:    "patient@clinix.app",
		Password: "pw",
	})
	require.NoError(t, err)

	assert.Equal(t, StateSignedIn, f.store.State())
	assert.Equal(t, session.Token, f.client.Token())
	assert.NoError(t, f.store.LastError())

	current, ok := f.store.Current()
	require.True(t, ok)
	assert.Equal(t, "patient-001", current.User.ID)

	raw, err := f.storage.Get(ctx, kvstore.KeySession)
	require.NoError(t, err)
	var persisted models.Session
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, session.Token, persisted.Token)
}

func TestSignInFailureRetainsError(t *testing.T) {
	f := simFixture(t)

	_, err := f.store.SignIn(context.Background(), models.LoginRequest{
		Email:    "nobody@clinix.app",
		Password: "pw",
	})
	require.Error(t, err)

	assert.Equal(t, StateSignedOut, f.store.State())
	assert.ErrorIs(t, f.store.LastError(), apierr.ErrValidation)
	_, ok := f.store.Current()
	assert.False(t, ok)
}

func TestRegisterActivates(t *testing.T) {
	f := simFixture(t)

	session, err := f.store.Register(context.Background(), models.RegisterRequest{
		Email:    "fresh@clinix.app",
		Password: "secret-pw",
		FullName: "Laila Mansour",
	})
	require.NoError(t, err)
	assert.Equal(t, StateSignedIn, f.store.State())
	assert.Equal(t, session.Token, f.client.Token())
}

func TestRestoreColdStart(t *testing.T) {
	f := simFixture(t)
	ctx := context.Background()

	session, err := f.store.SignIn(ctx, models.LoginRequest{
		Email:    "patient@clinix.app",
		Password: "pw",
	})
	require.NoError(t, err)

	// A second launch over the same storage.
	f2 := simFixture(t)
	raw, err := f.storage.Get(ctx, kvstore.KeySession)
	require.NoError(t, err)
	require.NoError(t, f2.storage.Set(ctx, kvstore.KeySession, raw))

	ok, err := f2.store.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StateSignedIn, f2.store.State())
	assert.Equal(t, session.Token, f2.client.Token())
}

func TestRestoreWithoutSession(t *testing.T) {
	f := simFixture(t)

	ok, err := f.store.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StateSignedOut, f.store.State())
}

func TestRestoreDropsCorruptBlob(t *testing.T) {
	f := simFixture(t)
	ctx := context.Background()
	require.NoError(t, f.storage.Set(ctx, kvstore.KeySession, []byte("not json")))

	ok, err := f.store.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.storage.Get(ctx, kvstore.KeySession)
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)
}

func TestSignOutTearsEverythingDown(t *testing.T) {
	f := simFixture(t)
	ctx := context.Background()

	_, err := f.store.SignIn(ctx, models.LoginRequest{
		Email:    "patient@clinix.app",
		Password: "pw",
	})
	require.NoError(t, err)

	// Leave traces a signed-in user accumulates.
	_, err = f.cache.Get(ctx, "doctors", func(context.Context) (any, error) {
		return "roster", nil
	})
	require.NoError(t, err)
	f.cache.Wait()

	_, err = f.mods.AI.Chat(ctx, "what are your opening hours?")
	require.NoError(t, err)

	require.NoError(t, f.store.SignOut(ctx))
	assert.Equal(t, StateSignedOut, f.store.State())
	assert.Empty(t, f.client.Token())

	_, err = f.storage.Get(ctx, kvstore.KeySession)
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)

	_, ok := f.cache.Peek("doctors")
	assert.False(t, ok)

	keys, err := f.storage.Keys(ctx, kvstore.AIHistoryPrefixFor("patient-001"))
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRevokedTokenForcesSignOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success": false, "message": "token revoked"}`))
	}))
	defer srv.Close()

	cfg := transport.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.MaxRetries = 0
	f := newFixture(t, cfg)
	ctx := context.Background()

	// Arrive signed in via a persisted session.
	session := models.Session{
		Token: token.Encode(token.DefaultIdentity()),
		User:  models.User{ID: "patient-001", Role: token.RolePatient},
	}
	raw, err := json.Marshal(session)
	require.NoError(t, err)
	require.NoError(t, f.storage.Set(ctx, kvstore.KeySession, raw))
	ok, err := f.store.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.mods.Auth.Profile(ctx)
	assert.ErrorIs(t, err, apierr.ErrUnauthorized)

	assert.Equal(t, StateSignedOut, f.store.State())
	assert.Empty(t, f.client.Token())
	_, err = f.storage.Get(ctx, kvstore.KeySession)
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)
}

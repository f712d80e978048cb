// Package session owns the device's single authentication state: who
// is signed in, the persisted session blob, and the teardown that runs
// when the user signs out or the backend revokes the token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/clinix-health/mobile-core/pkg/api"
	"github.com/clinix-health/mobile-core/pkg/kvstore"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/querycache"
	"github.com/clinix-health/mobile-core/pkg/transport"
)

// State is the authentication lifecycle position.
type State string

const (
	StateSignedOut      State = "signed_out"
	StateAuthenticating State = "authenticating"
	StateSignedIn       State = "signed_in"
)

// Config wires the store's collaborators.
type Config struct {
	Auth    *api.AuthModule
	Client  *transport.Client
	Storage kvstore.Store
	Cache   *querycache.Cache
	Logger  hclog.Logger
}

// Store is the session state machine. All transitions are serialized.
type Store struct {
	auth    *api.AuthModule
	client  *transport.Client
	storage kvstore.Store
	cache   *querycache.Cache
	logger  hclog.Logger

	mu      sync.Mutex
	state   State
	current models.Session
	lastErr error

	unsubscribe func()
}

// New creates a signed-out store and hooks the façade's unauthorized
// signal so a revoked token forces a sign-out from any state.
func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	s := &Store{
		auth:    cfg.Auth,
		client:  cfg.Client,
		storage: cfg.Storage,
		cache:   cfg.Cache,
		logger:  logger.Named("session"),
		state:   StateSignedOut,
	}
	s.unsubscribe = cfg.Client.OnUnauthorized(s.forceSignOut)
	return s
}

// Close detaches the store from the façade's unauthorized signal.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// State returns the current lifecycle position.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the active session, if signed in.
func (s *Store) Current() (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.state == StateSignedIn
}

// LastError returns the failure of the most recent sign-in attempt.
// It is cleared by a successful sign-in.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SignIn authenticates and activates the session.
func (s *Store) SignIn(ctx context.Context, req models.LoginRequest) (models.Session, error) {
	s.setState(StateAuthenticating)

	session, err := s.auth.Login(ctx, req)
	if err != nil {
		s.fail(err)
		return models.Session{}, err
	}

	s.activate(ctx, session)
	return session, nil
}

// Register creates an account and activates its session.
func (s *Store) Register(ctx context.Context, req models.RegisterRequest) (models.Session, error) {
	s.setState(StateAuthenticating)

	session, err := s.auth.Register(ctx, req)
	if err != nil {
		s.fail(err)
		return models.Session{}, err
	}

	s.activate(ctx, session)
	return session, nil
}

// Restore activates a persisted session on cold start. It returns
// false, without error, when no usable session is stored.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	raw, err := s.storage.Get(ctx, kvstore.KeySession)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil || session.Token == "" {
		s.logger.Warn("discarding unusable persisted session", "error", err)
		if delErr := s.storage.Delete(ctx, kvstore.KeySession); delErr != nil {
			s.logger.Warn("stale session blob not removed", "error", delErr)
		}
		return false, nil
	}

	s.activate(ctx, session)
	return true, nil
}

// SignOut tears the session down. The store always ends signed out;
// the returned error aggregates whatever parts of the teardown failed.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	userID := s.current.User.ID
	s.state = StateSignedOut
	s.current = models.Session{}
	s.mu.Unlock()

	return s.teardown(ctx, userID)
}

// forceSignOut handles the façade's unauthorized signal. Teardown
// failures are logged since there is no caller to return them to.
func (s *Store) forceSignOut() {
	s.mu.Lock()
	if s.state != StateSignedIn {
		s.mu.Unlock()
		return
	}
	userID := s.current.User.ID
	s.state = StateSignedOut
	s.current = models.Session{}
	s.mu.Unlock()

	s.logger.Info("session revoked by backend, signing out")
	if err := s.teardown(context.Background(), userID); err != nil {
		s.logger.Warn("sign-out teardown incomplete", "error", err)
	}
}

func (s *Store) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSignedOut
	s.lastErr = err
}

// activate records the session, persists it, and arms the façade.
// Persistence failure does not block sign-in; it only costs the
// restore on next launch.
func (s *Store) activate(ctx context.Context, session models.Session) {
	s.client.SetToken(session.Token)

	s.mu.Lock()
	s.state = StateSignedIn
	s.current = session
	s.lastErr = nil
	s.mu.Unlock()

	raw, err := json.Marshal(session)
	if err == nil {
		err = s.storage.Set(ctx, kvstore.KeySession, raw)
	}
	if err != nil {
		s.logger.Warn("session not persisted", "error", err)
	}
}

// teardown clears everything a signed-in user left on the device:
// the persisted session, the façade token, cached queries, and the
// user's assistant history.
func (s *Store) teardown(ctx context.Context, userID string) error {
	var result *multierror.Error

	if err := s.storage.Delete(ctx, kvstore.KeySession); err != nil {
		result = multierror.Append(result, err)
	}

	s.client.ClearToken()

	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if userID != "" {
		keys, err := s.storage.Keys(ctx, kvstore.AIHistoryPrefixFor(userID))
		if err != nil {
			result = multierror.Append(result, err)
		}
		for _, key := range keys {
			if err := s.storage.Delete(ctx, key); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	return result.ErrorOrNil()
}

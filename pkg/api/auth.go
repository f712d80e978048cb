package api

import (
	"context"
	"net/http"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/sim"
	"github.com/clinix-health/mobile-core/pkg/token"
	"github.com/clinix-health/mobile-core/pkg/transport"
)

// AuthModule signs users in and out and reads the current profile.
type AuthModule struct {
	base
}

// Login exchanges credentials for a session.
func (m *AuthModule) Login(ctx context.Context, req models.LoginRequest) (models.Session, error) {
	const op = "auth.Login"

	if err := req.Validate(); err != nil {
		return models.Session{}, apierr.Validation(op, err.Error())
	}

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   req,
	})
	session, decodeErr := m.sessionFrom(op, env, err)
	if decodeErr == nil {
		return session, nil
	}

	if m.canFallBack(decodeErr) {
		m.fellBack(op, decodeErr)
		return m.loginFromStores(req)
	}
	return models.Session{}, decodeErr
}

// Register creates an account and signs it in.
func (m *AuthModule) Register(ctx context.Context, req models.RegisterRequest) (models.Session, error) {
	const op = "auth.Register"

	if err := req.Validate(); err != nil {
		return models.Session{}, apierr.Validation(op, err.Error())
	}

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   req,
	})
	session, decodeErr := m.sessionFrom(op, env, err)
	if decodeErr == nil {
		return session, nil
	}

	if m.canFallBack(decodeErr) {
		m.fellBack(op, decodeErr)
		user, storeErr := m.stores.Users.Create(req)
		if storeErr != nil {
			return models.Session{}, apierr.Wrap(op, storeErr)
		}
		return sessionFor(user), nil
	}
	return models.Session{}, decodeErr
}

// Profile fetches the signed-in user's account.
func (m *AuthModule) Profile(ctx context.Context) (models.User, error) {
	const op = "auth.Profile"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/patients/me",
	})

	var user models.User
	if err == nil {
		err = decodePayload(op, env, "user", &user)
	}
	if err == nil {
		return user, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		user, storeErr := m.stores.Users.Get(m.identity().UserID)
		if storeErr != nil {
			return models.User{}, apierr.Wrap(op, storeErr)
		}
		return user, nil
	}
	return models.User{}, apierr.Wrap(op, err)
}

// UpdateProfile patches the signed-in user's profile fields.
func (m *AuthModule) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (models.User, error) {
	const op = "auth.UpdateProfile"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   "/patients/me",
		Body:   req,
	})

	var user models.User
	if err == nil {
		err = decodePayload(op, env, "user", &user)
	}
	if err == nil {
		m.invalidate(op)
		return user, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		user, storeErr := m.stores.Users.UpdateProfile(m.identity().UserID, req)
		if storeErr != nil {
			return models.User{}, apierr.Wrap(op, storeErr)
		}
		m.invalidate(op)
		return user, nil
	}
	return models.User{}, apierr.Wrap(op, err)
}

// Doctors lists the bookable roster.
func (m *AuthModule) Doctors(ctx context.Context) ([]models.Doctor, error) {
	const op = "auth.Doctors"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/doctors",
	})

	var doctors []models.Doctor
	if err == nil {
		err = decodePayload(op, env, "doctors", &doctors)
	}
	if err == nil {
		return doctors, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		return m.stores.Users.Doctors(), nil
	}
	return nil, apierr.Wrap(op, err)
}

// sessionFrom decodes a {success, token, user} envelope.
func (m *AuthModule) sessionFrom(op string, env sim.Envelope, err error) (models.Session, error) {
	if err != nil {
		return models.Session{}, apierr.Wrap(op, err)
	}

	tok, err := stringField(op, env, "token")
	if err != nil {
		return models.Session{}, err
	}
	var user models.User
	if err := decodePayload(op, env, "user", &user); err != nil {
		return models.Session{}, err
	}
	return models.Session{Token: tok, User: user}, nil
}

// loginFromStores synthesizes a session straight from the embedded
// backend's accounts. Any password is accepted, matching the
// simulator's login route.
func (m *AuthModule) loginFromStores(req models.LoginRequest) (models.Session, error) {
	user, err := m.stores.Users.FindByEmail(req.Email)
	if err != nil {
		return models.Session{}, apierr.Validation("auth.Login", "invalid email or password")
	}
	return sessionFor(user), nil
}

func sessionFor(user models.User) models.Session {
	return models.Session{
		Token: token.Encode(token.Identity{Role: user.Role, UserID: user.ID}),
		User:  user,
	}
}

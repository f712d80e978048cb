package sim

import (
	"context"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/token"
)

// Route names, grouped the way the groups dispatch.
const (
	RouteLogin    RouteName = "auth.login"
	RouteRegister RouteName = "auth.register"
)

func (b *Backend) authRoutes() []Route {
	return []Route{
		{Name: RouteLogin, Method: "POST", Pattern: "/auth/login", Handler: b.handleLogin},
		{Name: RouteRegister, Method: "POST", Pattern: "/auth/register", Handler: b.handleRegister},
	}
}

// handleLogin issues a session for a known account. The simulator
// accepts any password; only the email has to resolve.
func (b *Backend) handleLogin(_ context.Context, req *Request) (Envelope, error) {
	var body models.LoginRequest
	if err := decodeBody(req.Body, &body); err != nil {
		return nil, apierr.Validation("sim.auth", "malformed login body")
	}
	if err := body.Validate(); err != nil {
		return nil, apierr.Validation("sim.auth", err.Error())
	}

	user, err := b.stores.Users.FindByEmail(body.Email)
	if err != nil {
		return nil, apierr.Validation("sim.auth", "invalid email or password")
	}

	tok := token.Encode(token.Identity{Role: user.Role, UserID: user.ID})
	return Envelope{
		"success": true,
		"token":   tok,
		"user":    jsonify(user),
	}, nil
}

func (b *Backend) handleRegister(_ context.Context, req *Request) (Envelope, error) {
	var body models.RegisterRequest
	if err := decodeBody(req.Body, &body); err != nil {
		return nil, apierr.Validation("sim.auth", "malformed register body")
	}
	if err := body.Validate(); err != nil {
		return nil, apierr.Validation("sim.auth", err.Error())
	}

	user, err := b.stores.Users.Create(body)
	if err != nil {
		return nil, err
	}

	tok := token.Encode(token.Identity{Role: user.Role, UserID: user.ID})
	return Envelope{
		"success": true,
		"token":   tok,
		"user":    jsonify(user),
	}, nil
}

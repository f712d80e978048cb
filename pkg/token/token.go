// Package token encodes and decodes the opaque session token into the
// caller identity used to scope simulator reads and writes. It performs
// no signature verification and no expiry checks: the codec exists to
// make identity available to the embedded backend, not to provide
// security.
package token

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the caller's role within the clinic.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleNurse   Role = "nurse"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleNurse:
		return true
	}
	return false
}

// Identity is the (role, user id) pair derived from a session token.
// It is computed, never stored: it must always be recoverable from the
// token alone.
type Identity struct {
	Role   Role
	UserID string
}

const mockPrefix = "mock-token-"

// DefaultIdentity is returned for absent or unrecognized tokens.
func DefaultIdentity() Identity {
	return Identity{Role: RolePatient, UserID: "patient-001"}
}

// Encode builds the token issued by the simulator on sign-in.
func Encode(id Identity) string {
	return fmt.Sprintf("%s%s-%s", mockPrefix, id.Role, id.UserID)
}

// Decode derives an identity from a bearer token. Simulator-issued
// tokens ("mock-token-{role}-{userId}") are recognized first; live
// backend tokens are JWTs, so claims are extracted without
// verification as a second resort. Decode never fails: anything
// unrecognizable yields the default patient identity.
func Decode(tok string) Identity {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return DefaultIdentity()
	}

	if rest, ok := strings.CutPrefix(tok, mockPrefix); ok {
		role, userID, found := strings.Cut(rest, "-")
		if found && Role(role).Valid() && userID != "" {
			return Identity{Role: Role(role), UserID: userID}
		}
		return DefaultIdentity()
	}

	if id, ok := decodeJWT(tok); ok {
		return id
	}

	return DefaultIdentity()
}

// decodeJWT extracts (role, sub) claims from an unverified JWT.
func decodeJWT(tok string) (Identity, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(tok, jwt.MapClaims{})
	if err != nil {
		return Identity{}, false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, false
	}

	role, _ := claims["role"].(string)
	if !Role(role).Valid() {
		return Identity{}, false
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, false
	}

	return Identity{Role: Role(role), UserID: sub}, true
}

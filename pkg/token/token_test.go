package token

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	identities := []Identity{
		{Role: RolePatient, UserID: "patient-001"},
		{Role: RoleDoctor, UserID: "doc-42"},
		{Role: RoleNurse, UserID: "nurse-7"},
		// User ids may themselves contain dashes.
		{Role: RolePatient, UserID: "a-b-c-d"},
	}

	for _, id := range identities {
		t.Run(string(id.Role)+"/"+id.UserID, func(t *testing.T) {
			assert.Equal(t, id, Decode(Encode(id)))
		})
	}
}

func TestDecode_Defaults(t *testing.T) {
	tests := []struct {
		name string
		tok  string
	}{
		{"empty token", ""},
		{"whitespace only", "   "},
		{"random string", "not-a-token"},
		{"mock prefix with unknown role", "mock-token-admin-1"},
		{"mock prefix with no user id", "mock-token-patient-"},
		{"mock prefix alone", "mock-token-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, DefaultIdentity(), Decode(tt.tok))
		})
	}
}

func TestDecode_UnverifiedJWT(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "usr-991",
		"role": "doctor",
	})
	// The codec never verifies signatures, so any key works here.
	signed, err := tok.SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	assert.Equal(t, Identity{Role: RoleDoctor, UserID: "usr-991"}, Decode(signed))
}

func TestDecode_JWTWithoutRoleClaim(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "usr-991",
	})
	signed, err := tok.SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	assert.Equal(t, DefaultIdentity(), Decode(signed))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RolePatient.Valid())
	assert.True(t, RoleDoctor.Valid())
	assert.True(t, RoleNurse.Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}

// Package models defines the flat domain records consumed by UI state.
// Field names mirror the live backend's JSON contract; the simulated
// backend produces the same shapes so no caller can distinguish origin.
package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/clinix-health/mobile-core/pkg/token"
)

// Profile carries the per-user descriptive fields.
type Profile struct {
	FullName    string `json:"fullName" mapstructure:"fullName"`
	Phone       string `json:"phone,omitempty" mapstructure:"phone"`
	DateOfBirth string `json:"dateOfBirth,omitempty" mapstructure:"dateOfBirth"`
	Department  string `json:"department,omitempty" mapstructure:"department"`
}

// User is the account behind a session.
type User struct {
	ID      string     `json:"id" mapstructure:"id"`
	Email   string     `json:"email" mapstructure:"email"`
	Role    token.Role `json:"role" mapstructure:"role"`
	Profile Profile    `json:"profile" mapstructure:"profile"`
}

// Session is the single persisted authentication state for the device.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Identity derives the scoping identity for this session's user.
func (s Session) Identity() token.Identity {
	return token.Identity{Role: s.User.Role, UserID: s.User.ID}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login request fields.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	FullName string     `json:"fullName"`
	Role     token.Role `json:"role,omitempty"`
}

// Validate checks the registration request fields.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 128)),
		validation.Field(&r.FullName, validation.Required),
	)
}

// Doctor is an entry in the bookable doctors roster.
type Doctor struct {
	ID         string `json:"id" mapstructure:"id"`
	Name       string `json:"name" mapstructure:"name"`
	Department string `json:"department" mapstructure:"department"`
	Available  bool   `json:"available" mapstructure:"available"`
}

// UpdateProfileRequest is the body of PATCH /patients/me. Zero-valued
// fields are left unchanged.
type UpdateProfileRequest struct {
	FullName    string `json:"fullName,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

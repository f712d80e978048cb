package models

import (
	"time"

	"github.com/clinix-health/mobile-core/pkg/token"
)

// Notification is a message pushed to a role or to a specific user.
// A notification targets a caller if TargetUserID matches the caller's
// user id, or TargetUserID is empty and TargetRole matches the
// caller's role.
type Notification struct {
	ID           string     `json:"id" mapstructure:"id"`
	TargetRole   token.Role `json:"targetRole,omitempty" mapstructure:"targetRole"`
	TargetUserID string     `json:"targetUserId,omitempty" mapstructure:"targetUserId"`
	Title        string     `json:"title" mapstructure:"title"`
	Body         string     `json:"body" mapstructure:"body"`
	Read         bool       `json:"read" mapstructure:"read"`
	CreatedAt    time.Time  `json:"createdAt" mapstructure:"createdAt"`
}

// AIMessage is one turn in the assistant conversation. History is kept
// per (user, role) and persisted on device.
type AIMessage struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

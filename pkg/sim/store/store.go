// Package store holds the embedded backend's in-memory collections.
// Each store guards its own state with a mutex, returns copies on
// every read, and models record lifecycle with status transitions
// rather than deletion. Stores live for the process lifetime and are
// reset on relaunch; nothing here is durable.
package store

import (
	"time"

	"github.com/clinix-health/mobile-core/pkg/token"
)

// Stores is the container for every domain collection. A single
// instance is shared by the simulated backend's route groups; tests
// create their own so identities can run in isolation.
type Stores struct {
	Users         *UserStore
	Appointments  *AppointmentStore
	Records       *RecordStore
	Chat          *ChatStore
	Notifications *NotificationStore
	AI            *AIStore
}

// New creates an empty set of stores.
func New() *Stores {
	return &Stores{
		Users:         NewUserStore(),
		Appointments:  NewAppointmentStore(),
		Records:       NewRecordStore(),
		Chat:          NewChatStore(),
		Notifications: NewNotificationStore(),
		AI:            NewAIStore(),
	}
}

// NewSeeded creates stores pre-populated with the demo dataset: the
// demo patient and doctors, a handful of appointments, records and
// notifications, and the canned assistant responses. This is the
// dataset a fresh install of the app renders against.
func NewSeeded() *Stores {
	s := New()
	s.seed()
	return s
}

func (s *Stores) seed() {
	now := time.Now()

	s.Users.seed()
	s.Appointments.seed(now)
	s.Records.seed(now)
	s.Chat.seed(now)
	s.Notifications.seed(now)
	s.AI.seed()
}

// DemoPatient is the identity seeded for first-run demos and tests.
func DemoPatient() token.Identity {
	return token.Identity{Role: token.RolePatient, UserID: "patient-001"}
}

// visibleTo implements the one ownership rule every store follows: a
// record is visible when the caller owns it, or when the caller's role
// is a care-provider role (doctors and nurses see the whole panel).
func visibleTo(id token.Identity, ownerID string) bool {
	if id.Role == token.RoleDoctor || id.Role == token.RoleNurse {
		return true
	}
	return ownerID == id.UserID
}

package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/token"
)

// NotificationStore holds pushed notifications. Targeting is by
// explicit user id, or by role when no user id is set.
type NotificationStore struct {
	mu            sync.RWMutex
	notifications []models.Notification
}

// NewNotificationStore creates an empty notification store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func targets(n models.Notification, id token.Identity) bool {
	if n.TargetUserID != "" {
		return n.TargetUserID == id.UserID
	}
	return n.TargetRole == id.Role
}

// ListFor returns the notifications targeting the caller, newest
// first.
func (s *NotificationStore) ListFor(id token.Identity) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if targets(n, id) {
			out = append(out, n)
		}
	}
	return out
}

// MarkRead marks a single notification read. Marking an already-read
// notification succeeds unchanged.
func (s *NotificationStore) MarkRead(id string) (models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return s.notifications[i], nil
		}
	}
	return models.Notification{}, apierr.NotFound("store.notifications", "no notification with id "+id)
}

// MarkAllRead marks every notification targeting the caller as read
// and returns how many were affected.
func (s *NotificationStore) MarkAllRead(id token.Identity) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for i := range s.notifications {
		if targets(s.notifications[i], id) && !s.notifications[i].Read {
			s.notifications[i].Read = true
			count++
		}
	}
	return count
}

// Push appends a new notification. Used by other store mutations to
// emit side-effect notifications (e.g. appointment confirmations).
func (s *NotificationStore) Push(n models.Notification) models.Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.notifications = append([]models.Notification{n}, s.notifications...)
	s.mu.Unlock()
	return n
}

func (s *NotificationStore) seed(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = []models.Notification{
		{
			ID:           uuid.NewString(),
			TargetUserID: "patient-001",
			Title:        "Appointment confirmed",
			Body:         "Your appointment with Dr. Kareem Adel has been confirmed.",
			CreatedAt:    now.AddDate(0, 0, -1),
		},
		{
			ID:         uuid.NewString(),
			TargetRole: token.RolePatient,
			Title:      "Flu season",
			Body:       "Flu vaccines are now available at all Clinix branches.",
			Read:       true,
			CreatedAt:  now.AddDate(0, 0, -10),
		},
		{
			ID:         uuid.NewString(),
			TargetRole: token.RoleDoctor,
			Title:      "Schedule update",
			Body:       "Clinic hours extended on Thursdays starting next month.",
			CreatedAt:  now.AddDate(0, 0, -2),
		},
	}
}

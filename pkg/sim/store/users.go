package store

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/token"
)

// UserStore holds accounts and the bookable doctors roster. The
// simulator accepts any password: token issuance exists to exercise
// the identity flow, not to authenticate.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string // lower-cased email -> user id
	doctors []models.Doctor
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

// FindByEmail looks up a user by email, case-insensitively.
func (s *UserStore) FindByEmail(email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return models.User{}, apierr.NotFound("store.users", "no account for "+email)
	}
	return s.byID[id], nil
}

// Get looks up a user by id.
func (s *UserStore) Get(userID string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[userID]
	if !ok {
		return models.User{}, apierr.NotFound("store.users", "no user with id "+userID)
	}
	return u, nil
}

// Create registers a new account. Registering an email that already
// exists is a validation failure, matching the live backend.
func (s *UserStore) Create(req models.RegisterRequest) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(req.Email)
	if _, exists := s.byEmail[key]; exists {
		return models.User{}, apierr.Validation("store.users", "email already registered")
	}

	role := req.Role
	if !role.Valid() {
		role = token.RolePatient
	}

	u := models.User{
		ID:    string(role) + "-" + uuid.NewString()[:8],
		Email: req.Email,
		Role:  role,
		Profile: models.Profile{
			FullName: req.FullName,
		},
	}
	s.byID[u.ID] = u
	s.byEmail[key] = u.ID
	return u, nil
}

// UpdateProfile applies the non-empty fields of req to the user's
// profile and returns the updated user.
func (s *UserStore) UpdateProfile(userID string, req models.UpdateProfileRequest) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return models.User{}, apierr.NotFound("store.users", "no user with id "+userID)
	}

	if req.FullName != "" {
		u.Profile.FullName = req.FullName
	}
	if req.Phone != "" {
		u.Profile.Phone = req.Phone
	}
	if req.DateOfBirth != "" {
		u.Profile.DateOfBirth = req.DateOfBirth
	}
	s.byID[userID] = u
	return u, nil
}

// Doctors returns the bookable roster.
func (s *UserStore) Doctors() []models.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Doctor, len(s.doctors))
	copy(out, s.doctors)
	return out
}

func (s *UserStore) seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []models.User{
		{
			ID:    "patient-001",
			Email: "patient@clinix.app",
			Role:  token.RolePatient,
			Profile: models.Profile{
				FullName:    "Omar Hassan",
				Phone:       "+20 100 555 0147",
				DateOfBirth: "1988-03-14",
			},
		},
		{
			ID:    "doctor-001",
			Email: "doctor@clinix.app",
			Role:  token.RoleDoctor,
			Profile: models.Profile{
				FullName:   "Dr. Kareem Adel",
				Department: "Cardiology",
			},
		},
		{
			ID:    "nurse-001",
			Email: "nurse@clinix.app",
			Role:  token.RoleNurse,
			Profile: models.Profile{
				FullName:   "Salma Youssef",
				Department: "Cardiology",
			},
		},
	}
	for _, u := range users {
		s.byID[u.ID] = u
		s.byEmail[strings.ToLower(u.Email)] = u.ID
	}

	s.doctors = []models.Doctor{
		{ID: "doctor-001", Name: "Dr. Kareem Adel", Department: "Cardiology", Available: true},
		{ID: "doctor-002", Name: "Dr. Mona El-Sayed", Department: "Dermatology", Available: true},
		{ID: "doctor-003", Name: "Dr. Ahmed Fathy", Department: "Orthopedics", Available: false},
		{ID: "doctor-004", Name: "Dr. Laila Mansour", Department: "Pediatrics", Available: true},
	}
}

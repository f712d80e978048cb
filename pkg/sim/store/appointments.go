package store

import (
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/token"
)

// AppointmentStore holds booked visits. Newest first; records are
// never removed, cancellation is a status transition.
type AppointmentStore struct {
	mu           sync.RWMutex
	appointments []models.Appointment
}

// NewAppointmentStore creates an empty appointment store.
func NewAppointmentStore() *AppointmentStore {
	return &AppointmentStore{}
}

// ListFor returns the appointments visible to the caller: patients see
// their own, care providers see the whole panel.
func (s *AppointmentStore) ListFor(id token.Identity) []models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		if visibleTo(id, a.PatientID) {
			out = append(out, a)
		}
	}
	return out
}

// Get returns a single appointment by id.
func (s *AppointmentStore) Get(id string) (models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.appointments {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Appointment{}, apierr.NotFound("store.appointments", "no appointment with id "+id)
}

// Create books a new appointment for the calling patient. The date
// string is parsed leniently; an unparseable date is a validation
// failure, never a silently zeroed field.
func (s *AppointmentStore) Create(id token.Identity, patientName string, req models.CreateAppointmentRequest) (models.Appointment, error) {
	if err := req.Validate(); err != nil {
		return models.Appointment{}, apierr.Validation("store.appointments", err.Error())
	}

	date, err := dateparse.ParseAny(req.Date)
	if err != nil {
		return models.Appointment{}, apierr.Validation("store.appointments", "unparseable date: "+req.Date)
	}

	a := models.Appointment{
		ID:          uuid.NewString(),
		PatientID:   id.UserID,
		PatientName: patientName,
		DoctorName:  req.DoctorName,
		Department:  req.Department,
		Date:        date,
		Time:        req.Time,
		Reason:      req.Reason,
		Status:      models.AppointmentScheduled,
	}

	s.mu.Lock()
	s.appointments = append([]models.Appointment{a}, s.appointments...)
	s.mu.Unlock()

	return a, nil
}

// UpdateStatus transitions an appointment's status in place and
// returns the updated record. Transitions are idempotent: cancelling
// an already-cancelled appointment succeeds with the same result.
func (s *AppointmentStore) UpdateStatus(id string, status models.AppointmentStatus) (models.Appointment, error) {
	if !status.Valid() {
		return models.Appointment{}, apierr.Validation("store.appointments", "unknown status "+string(status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appointments {
		if s.appointments[i].ID == id {
			s.appointments[i].Status = status
			return s.appointments[i], nil
		}
	}
	return models.Appointment{}, apierr.NotFound("store.appointments", "no appointment with id "+id)
}

// Reschedule moves an appointment to a new date and/or time slot.
func (s *AppointmentStore) Reschedule(id, date, timeSlot string) (models.Appointment, error) {
	var parsed time.Time
	if date != "" {
		var err error
		parsed, err = dateparse.ParseAny(date)
		if err != nil {
			return models.Appointment{}, apierr.Validation("store.appointments", "unparseable date: "+date)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appointments {
		if s.appointments[i].ID == id {
			if date != "" {
				s.appointments[i].Date = parsed
			}
			if timeSlot != "" {
				s.appointments[i].Time = timeSlot
			}
			return s.appointments[i], nil
		}
	}
	return models.Appointment{}, apierr.NotFound("store.appointments", "no appointment with id "+id)
}

func (s *AppointmentStore) seed(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appointments = []models.Appointment{
		{
			ID:          uuid.NewString(),
			PatientID:   "patient-001",
			PatientName: "Omar Hassan",
			DoctorName:  "Dr. Kareem Adel",
			Department:  "Cardiology",
			Date:        now.AddDate(0, 0, 3),
			Time:        "10:30 AM",
			Reason:      "Follow-up",
			Status:      models.AppointmentConfirmed,
		},
		{
			ID:          uuid.NewString(),
			PatientID:   "patient-001",
			PatientName: "Omar Hassan",
			DoctorName:  "Dr. Mona El-Sayed",
			Department:  "Dermatology",
			Date:        now.AddDate(0, 0, -21),
			Time:        "2:00 PM",
			Reason:      "Skin rash consultation",
			Status:      models.AppointmentCompleted,
		},
	}
}

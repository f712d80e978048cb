package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/token"
)

// RecordStore holds the clinical record collections: prescriptions,
// lab results and consultation notes. All three share the ownership
// rule from visibleTo.
type RecordStore struct {
	mu            sync.RWMutex
	prescriptions []models.Prescription
	labResults    []models.LabResult
	notes         []models.ConsultationNote
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

// PrescriptionsFor returns prescriptions visible to the caller.
func (s *RecordStore) PrescriptionsFor(id token.Identity) []models.Prescription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Prescription, 0, len(s.prescriptions))
	for _, p := range s.prescriptions {
		if visibleTo(id, p.PatientID) {
			out = append(out, p)
		}
	}
	return out
}

// LabResultsFor returns lab results visible to the caller.
func (s *RecordStore) LabResultsFor(id token.Identity) []models.LabResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LabResult, 0, len(s.labResults))
	for _, r := range s.labResults {
		if visibleTo(id, r.PatientID) {
			out = append(out, r)
		}
	}
	return out
}

// NotesFor returns consultation notes visible to the caller.
func (s *RecordStore) NotesFor(id token.Identity) []models.ConsultationNote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ConsultationNote, 0, len(s.notes))
	for _, n := range s.notes {
		if visibleTo(id, n.PatientID) {
			out = append(out, n)
		}
	}
	return out
}

// CreatePrescription records a new prescription authored by the
// calling doctor.
func (s *RecordStore) CreatePrescription(id token.Identity, doctorName string, req models.CreatePrescriptionRequest) (models.Prescription, error) {
	if id.Role != token.RoleDoctor {
		return models.Prescription{}, apierr.Unauthorized("store.records", "only doctors may issue prescriptions")
	}
	if err := req.Validate(); err != nil {
		return models.Prescription{}, apierr.Validation("store.records", err.Error())
	}

	p := models.Prescription{
		ID:         uuid.NewString(),
		PatientID:  req.PatientID,
		DoctorName: doctorName,
		Medication: req.Medication,
		Dosage:     req.Dosage,
		Frequency:  req.Frequency,
		IssuedAt:   time.Now(),
		Notes:      req.Notes,
	}

	s.mu.Lock()
	s.prescriptions = append([]models.Prescription{p}, s.prescriptions...)
	s.mu.Unlock()

	return p, nil
}

func (s *RecordStore) seed(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prescriptions = []models.Prescription{
		{
			ID:         uuid.NewString(),
			PatientID:  "patient-001",
			DoctorName: "Dr. Kareem Adel",
			Medication: "Bisoprolol",
			Dosage:     "5mg",
			Frequency:  "once daily",
			IssuedAt:   now.AddDate(0, -1, 0),
			Notes:      "Take in the morning with food.",
		},
		{
			ID:         uuid.NewString(),
			PatientID:  "patient-001",
			DoctorName: "Dr. Mona El-Sayed",
			Medication: "Hydrocortisone cream",
			Dosage:     "1%",
			Frequency:  "twice daily",
			IssuedAt:   now.AddDate(0, 0, -21),
		},
	}

	s.labResults = []models.LabResult{
		{
			ID:             uuid.NewString(),
			PatientID:      "patient-001",
			TestName:       "Lipid panel - LDL",
			Value:          "128",
			Unit:           "mg/dL",
			ReferenceRange: "< 100",
			Flag:           models.LabAbnormal,
			CollectedAt:    now.AddDate(0, -1, -3),
		},
		{
			ID:             uuid.NewString(),
			PatientID:      "patient-001",
			TestName:       "HbA1c",
			Value:          "5.4",
			Unit:           "%",
			ReferenceRange: "4.0 - 5.6",
			Flag:           models.LabNormal,
			CollectedAt:    now.AddDate(0, -1, -3),
		},
	}

	s.notes = []models.ConsultationNote{
		{
			ID:         uuid.NewString(),
			PatientID:  "patient-001",
			DoctorName: "Dr. Kareem Adel",
			Summary:    "Mild hypertension, started on beta blocker. Review in 4 weeks.",
			CreatedAt:  now.AddDate(0, -1, 0),
		},
	}
}

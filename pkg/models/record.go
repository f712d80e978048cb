package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Prescription is a medication order for a patient.
type Prescription struct {
	ID         string    `json:"id" mapstructure:"id"`
	PatientID  string    `json:"patientId" mapstructure:"patientId"`
	DoctorName string    `json:"doctorName" mapstructure:"doctorName"`
	Medication string    `json:"medication" mapstructure:"medication"`
	Dosage     string    `json:"dosage" mapstructure:"dosage"`
	Frequency  string    `json:"frequency" mapstructure:"frequency"`
	IssuedAt   time.Time `json:"issuedAt" mapstructure:"issuedAt"`
	Notes      string    `json:"notes,omitempty" mapstructure:"notes"`
}

// LabResultFlag marks a lab value's interpretation.
type LabResultFlag string

const (
	LabNormal   LabResultFlag = "normal"
	LabAbnormal LabResultFlag = "abnormal"
	LabPending  LabResultFlag = "pending"
)

// LabResult is a single laboratory test outcome.
type LabResult struct {
	ID             string        `json:"id" mapstructure:"id"`
	PatientID      string        `json:"patientId" mapstructure:"patientId"`
	TestName       string        `json:"testName" mapstructure:"testName"`
	Value          string        `json:"value" mapstructure:"value"`
	Unit           string        `json:"unit,omitempty" mapstructure:"unit"`
	ReferenceRange string        `json:"referenceRange,omitempty" mapstructure:"referenceRange"`
	Flag           LabResultFlag `json:"flag" mapstructure:"flag"`
	CollectedAt    time.Time     `json:"collectedAt" mapstructure:"collectedAt"`
}

// ConsultationNote is a doctor's free-form note from a visit.
type ConsultationNote struct {
	ID         string    `json:"id" mapstructure:"id"`
	PatientID  string    `json:"patientId" mapstructure:"patientId"`
	DoctorName string    `json:"doctorName" mapstructure:"doctorName"`
	Summary    string    `json:"summary" mapstructure:"summary"`
	CreatedAt  time.Time `json:"createdAt" mapstructure:"createdAt"`
}

// CreatePrescriptionRequest is the body of POST /records/prescriptions
// (doctor role only).
type CreatePrescriptionRequest struct {
	PatientID  string `json:"patientId"`
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
	Notes      string `json:"notes,omitempty"`
}

// Validate checks the prescription creation fields.
func (r CreatePrescriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PatientID, validation.Required),
		validation.Field(&r.Medication, validation.Required),
		validation.Field(&r.Dosage, validation.Required),
		validation.Field(&r.Frequency, validation.Required),
	)
}

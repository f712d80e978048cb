package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AppointmentStatus is the lifecycle state of an appointment. Records
// are never deleted; cancellation and completion are status
// transitions.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// Appointment is a booked visit with a doctor.
type Appointment struct {
	ID          string            `json:"id" mapstructure:"id"`
	PatientID   string            `json:"patientId" mapstructure:"patientId"`
	PatientName string            `json:"patientName,omitempty" mapstructure:"patientName"`
	DoctorName  string            `json:"doctorName" mapstructure:"doctorName"`
	Department  string            `json:"department" mapstructure:"department"`
	Date        time.Time         `json:"date" mapstructure:"date"`
	Time        string            `json:"time" mapstructure:"time"`
	Reason      string            `json:"reason,omitempty" mapstructure:"reason"`
	Status      AppointmentStatus `json:"status" mapstructure:"status"`
}

// CreateAppointmentRequest is the body of POST /appointments. Date is
// an ISO-8601 string on the wire; parsing is lenient on the way in.
type CreateAppointmentRequest struct {
	DoctorName string `json:"doctorName"`
	Department string `json:"department"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Reason     string `json:"reason,omitempty"`
}

// Validate checks the appointment creation fields.
func (r CreateAppointmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DoctorName, validation.Required),
		validation.Field(&r.Department, validation.Required),
		validation.Field(&r.Date, validation.Required),
		validation.Field(&r.Time, validation.Required),
	)
}

// UpdateAppointmentRequest is the body of PATCH /appointments/:id.
type UpdateAppointmentRequest struct {
	Status AppointmentStatus `json:"status,omitempty"`
	Date   string            `json:"date,omitempty"`
	Time   string            `json:"time,omitempty"`
}

// Validate checks that at least one mutable field is present and the
// status, when given, is a known one.
func (r UpdateAppointmentRequest) Validate() error {
	if r.Status == "" && r.Date == "" && r.Time == "" {
		return validation.NewError("validation_empty_update", "no fields to update")
	}
	if r.Status != "" && !r.Status.Valid() {
		return validation.NewError("validation_bad_status", "unknown appointment status")
	}
	return nil
}

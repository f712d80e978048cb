package sim

import (
	"context"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/token"
)

const (
	RouteProfile           RouteName = "care.profile"
	RouteUpdateProfile     RouteName = "care.updateProfile"
	RouteDoctors           RouteName = "care.doctors"
	RouteAppointments      RouteName = "care.appointments"
	RouteCreateAppointment RouteName = "care.createAppointment"
	RouteUpdateAppointment RouteName = "care.updateAppointment"
	RoutePrescriptions     RouteName = "care.prescriptions"
	RouteCreateRx          RouteName = "care.createPrescription"
	RouteLabResults        RouteName = "care.labResults"
	RouteNotes             RouteName = "care.notes"
)

func (b *Backend) careRoutes() []Route {
	return []Route{
		{Name: RouteProfile, Method: "GET", Pattern: "/patients/me", Handler: b.handleProfile},
		{Name: RouteUpdateProfile, Method: "PATCH", Pattern: "/patients/me", Handler: b.handleUpdateProfile},
		{Name: RouteDoctors, Method: "GET", Pattern: "/doctors", Handler: b.handleDoctors},
		{Name: RouteAppointments, Method: "GET", Pattern: "/appointments", Handler: b.handleAppointments},
		{Name: RouteCreateAppointment, Method: "POST", Pattern: "/appointments", Handler: b.handleCreateAppointment},
		{Name: RouteUpdateAppointment, Method: "PATCH", Pattern: "/appointments/:id", Handler: b.handleUpdateAppointment},
		{Name: RoutePrescriptions, Method: "GET", Pattern: "/records/prescriptions", Handler: b.handlePrescriptions},
		{Name: RouteCreateRx, Method: "POST", Pattern: "/records/prescriptions", Handler: b.handleCreatePrescription},
		{Name: RouteLabResults, Method: "GET", Pattern: "/records/lab-results", Handler: b.handleLabResults},
		{Name: RouteNotes, Method: "GET", Pattern: "/records/notes", Handler: b.handleNotes},
	}
}

func (b *Backend) handleProfile(_ context.Context, req *Request) (Envelope, error) {
	user, err := b.stores.Users.Get(req.Identity.UserID)
	if err != nil {
		return nil, err
	}
	return Envelope{"success": true, "user": jsonify(user)}, nil
}

func (b *Backend) handleUpdateProfile(_ context.Context, req *Request) (Envelope, error) {
	var body models.UpdateProfileRequest
	if err := decodeBody(req.Body, &body); err != nil {
		return nil, apierr.Validation("sim.care", "malformed profile body")
	}

	user, err := b.stores.Users.UpdateProfile(req.Identity.UserID, body)
	if err != nil {
		return nil, err
	}
	return Envelope{"success": true, "user": jsonify(user)}, nil
}

func (b *Backend) handleDoctors(_ context.Context, _ *Request) (Envelope, error) {
	return Envelope{"success": true, "doctors": jsonify(b.stores.Users.Doctors())}, nil
}

func (b *Backend) handleAppointments(_ context.Context, req *Request) (Envelope, error) {
	list := b.stores.Appointments.ListFor(req.Identity)
	return Envelope{"success": true, "appointments": jsonify(list)}, nil
}

func (b *Backend) handleCreateAppointment(_ context.Context, req *Request) (Envelope, error) {
	var body models.CreateAppointmentRequest
	if err := decodeBody(req.Body, &body); err != nil {
		return nil, apierr.Validation("sim.care", "malformed appointment body")
	}

	patientName := ""
	if user, err := b.stores.Users.Get(req.Identity.UserID); err == nil {
		patientName = user.Profile.FullName
	}

	created, err := b.stores.Appointments.Create(req.Identity, patientName, body)
	if err != nil {
		return nil, err
	}

	b.stores.Notifications.Push(models.Notification{
		TargetUserID: req.Identity.UserID,
		Title:        "Appointment booked",
		Body:         "Your appointment with " + created.DoctorName + " is scheduled.",
	})

	return Envelope{"success": true, "appointment": jsonify(created)}, nil
}

// handleUpdateAppointment applies a status transition when the body
// carries one, otherwise a reschedule. Unknown ids are NotFound, never
// an upsert.
func (b *Backend) handleUpdateAppointment(_ context.Context, req *Request) (Envelope, error) {
	var body models.UpdateAppointmentRequest
	if err := decodeBody(req.Body, &body); err != nil {
		return nil, apierr.Validation("sim.care", "malformed appointment body")
	}
	if err := body.Validate(); err != nil {
		return nil, apierr.Validation("sim.care", err.Error())
	}

	id := req.Params["id"]
	var (
		updated models.Appointment
		err     error
	)
	if body.Status != "" {
		updated, err = b.stores.Appointments.UpdateStatus(id, body.Status)
	} else {
		updated, err = b.stores.Appointments.Reschedule(id, body.Date, body.Time)
	}
	if err != nil {
		return nil, err
	}
	return Envelope{"success": true, "appointment": jsonify(updated)}, nil
}

func (b *Backend) handlePrescriptions(_ context.Context, req *Request) (Envelope, error) {
	list := b.stores.Records.PrescriptionsFor(req.Identity)
	return Envelope{"success": true, "prescriptions": jsonify(list)}, nil
}

func (b *Backend) handleCreatePrescription(_ context.Context, req *Request) (Envelope, error) {
	var body models.CreatePrescriptionRequest
	if err := decodeBody(req.Body, &body); err != nil {
		return nil, apierr.Validation("sim.care", "malformed prescription body")
	}

	doctorName := ""
	if user, err := b.stores.Users.Get(req.Identity.UserID); err == nil {
		doctorName = user.Profile.FullName
	}

	created, err := b.stores.Records.CreatePrescription(req.Identity, doctorName, body)
	if err != nil {
		return nil, err
	}

	b.stores.Notifications.Push(models.Notification{
		TargetUserID: created.PatientID,
		TargetRole:   token.RolePatient,
		Title:        "New prescription",
		Body:         doctorName + " issued a prescription for " + created.Medication + ".",
	})

	return Envelope{"success": true, "prescription": jsonify(created)}, nil
}

func (b *Backend) handleLabResults(_ context.Context, req *Request) (Envelope, error) {
	list := b.stores.Records.LabResultsFor(req.Identity)
	return Envelope{"success": true, "labResults": jsonify(list)}, nil
}

func (b *Backend) handleNotes(_ context.Context, req *Request) (Envelope, error) {
	list := b.stores.Records.NotesFor(req.Identity)
	return Envelope{"success": true, "notes": jsonify(list)}, nil
}

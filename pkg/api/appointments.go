package api

import (
	"context"
	"net/http"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/transport"
)

// AppointmentsModule books, lists and transitions appointments.
type AppointmentsModule struct {
	base
}

// List returns the caller's visible appointments.
func (m *AppointmentsModule) List(ctx context.Context) ([]models.Appointment, error) {
	const op = "appointments.List"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/appointments",
	})

	var appointments []models.Appointment
	if err == nil {
		err = decodePayload(op, env, "appointments", &appointments)
	}
	if err == nil {
		return appointments, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		return m.stores.Appointments.ListFor(m.identity()), nil
	}
	return nil, apierr.Wrap(op, err)
}

// Create books a new appointment.
func (m *AppointmentsModule) Create(ctx context.Context, req models.CreateAppointmentRequest) (models.Appointment, error) {
	const op = "appointments.Create"

	if err := req.Validate(); err != nil {
		return models.Appointment{}, apierr.Validation(op, err.Error())
	}

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/appointments",
		Body:   req,
	})

	var created models.Appointment
	if err == nil {
		err = decodePayload(op, env, "appointment", &created)
	}
	if err == nil {
		m.invalidate(op)
		return created, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		created, storeErr := m.stores.Appointments.Create(m.identity(), "", req)
		if storeErr != nil {
			return models.Appointment{}, apierr.Wrap(op, storeErr)
		}
		m.invalidate(op)
		return created, nil
	}
	return models.Appointment{}, apierr.Wrap(op, err)
}

// Cancel transitions an appointment to cancelled. Unknown ids surface
// as NotFound; cancelling twice succeeds both times.
func (m *AppointmentsModule) Cancel(ctx context.Context, id string) (models.Appointment, error) {
	return m.update(ctx, "appointments.Cancel", id, models.UpdateAppointmentRequest{
		Status: models.AppointmentCancelled,
	})
}

// Reschedule moves an appointment to a new date and/or time.
func (m *AppointmentsModule) Reschedule(ctx context.Context, id, date, timeSlot string) (models.Appointment, error) {
	return m.update(ctx, "appointments.Reschedule", id, models.UpdateAppointmentRequest{
		Date: date,
		Time: timeSlot,
	})
}

func (m *AppointmentsModule) update(ctx context.Context, op, id string, req models.UpdateAppointmentRequest) (models.Appointment, error) {
	if err := req.Validate(); err != nil {
		return models.Appointment{}, apierr.Validation(op, err.Error())
	}

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   "/appointments/" + id,
		Body:   req,
	})

	var updated models.Appointment
	if err == nil {
		err = decodePayload(op, env, "appointment", &updated)
	}
	if err == nil {
		m.invalidate(op)
		return updated, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		var (
			fromStore models.Appointment
			storeErr  error
		)
		if req.Status != "" {
			fromStore, storeErr = m.stores.Appointments.UpdateStatus(id, req.Status)
		} else {
			fromStore, storeErr = m.stores.Appointments.Reschedule(id, req.Date, req.Time)
		}
		if storeErr != nil {
			return models.Appointment{}, apierr.Wrap(op, storeErr)
		}
		m.invalidate(op)
		return fromStore, nil
	}
	return models.Appointment{}, apierr.Wrap(op, err)
}

package api

import (
	"context"
	"net/http"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/transport"
)

// RecordsModule reads the clinical record collections and lets
// doctors issue prescriptions.
type RecordsModule struct {
	base
}

// Prescriptions returns the caller's visible prescriptions.
func (m *RecordsModule) Prescriptions(ctx context.Context) ([]models.Prescription, error) {
	const op = "records.Prescriptions"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/records/prescriptions",
	})

	var out []models.Prescription
	if err == nil {
		err = decodePayload(op, env, "prescriptions", &out)
	}
	if err == nil {
		return out, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		return m.stores.Records.PrescriptionsFor(m.identity()), nil
	}
	return nil, apierr.Wrap(op, err)
}

// LabResults returns the caller's visible lab results.
func (m *RecordsModule) LabResults(ctx context.Context) ([]models.LabResult, error) {
	const op = "records.LabResults"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/records/lab-results",
	})

	var out []models.LabResult
	if err == nil {
		err = decodePayload(op, env, "labResults", &out)
	}
	if err == nil {
		return out, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		return m.stores.Records.LabResultsFor(m.identity()), nil
	}
	return nil, apierr.Wrap(op, err)
}

// Notes returns the caller's visible consultation notes.
func (m *RecordsModule) Notes(ctx context.Context) ([]models.ConsultationNote, error) {
	const op = "records.Notes"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/records/notes",
	})

	var out []models.ConsultationNote
	if err == nil {
		err = decodePayload(op, env, "notes", &out)
	}
	if err == nil {
		return out, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		return m.stores.Records.NotesFor(m.identity()), nil
	}
	return nil, apierr.Wrap(op, err)
}

// CreatePrescription issues a prescription (doctor role).
func (m *RecordsModule) CreatePrescription(ctx context.Context, req models.CreatePrescriptionRequest) (models.Prescription, error) {
	const op = "records.CreatePrescription"

	if err := req.Validate(); err != nil {
		return models.Prescription{}, apierr.Validation(op, err.Error())
	}

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/records/prescriptions",
		Body:   req,
	})

	var created models.Prescription
	if err == nil {
		err = decodePayload(op, env, "prescription", &created)
	}
	if err == nil {
		m.invalidate(op)
		return created, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		created, storeErr := m.stores.Records.CreatePrescription(m.identity(), "", req)
		if storeErr != nil {
			return models.Prescription{}, apierr.Wrap(op, storeErr)
		}
		m.invalidate(op)
		return created, nil
	}
	return models.Prescription{}, apierr.Wrap(op, err)
}

package api

import (
	"fmt"
	"reflect"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/sim"
)

// decodePayload asserts the envelope shape and maps the named payload
// field into out. A nil envelope, a falsy success flag or a missing
// field is a ShapeMismatch, the trigger for module-level fallback.
func decodePayload(op string, env sim.Envelope, field string, out any) error {
	if env == nil {
		return apierr.ShapeMismatch(op, "empty response envelope")
	}
	if !env.Success() {
		return apierr.ShapeMismatch(op, "response did not report success")
	}
	payload, ok := env[field]
	if !ok || payload == nil {
		return apierr.ShapeMismatch(op, fmt.Sprintf("response missing %q field", field))
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       lenientTimeHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return apierr.ShapeMismatch(op, err.Error())
	}
	if err := dec.Decode(payload); err != nil {
		return apierr.ShapeMismatch(op, err.Error())
	}
	return nil
}

// stringField extracts a required top-level string from the envelope.
func stringField(op string, env sim.Envelope, field string) (string, error) {
	if env == nil || !env.Success() {
		return "", apierr.ShapeMismatch(op, "response did not report success")
	}
	s, ok := env[field].(string)
	if !ok || s == "" {
		return "", apierr.ShapeMismatch(op, fmt.Sprintf("response missing %q field", field))
	}
	return s, nil
}

// lenientTimeHook parses backend date strings into time.Time without
// caring which of the backend's several date formats produced them.
func lenientTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := data.(string)
	if s == "" {
		return time.Time{}, nil
	}
	parsed, err := dateparse.ParseAny(s)
	if err != nil {
		return nil, fmt.Errorf("unparseable time %q: %w", s, err)
	}
	return parsed, nil
}

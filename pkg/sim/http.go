package sim

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clinix-health/mobile-core/pkg/apierr"
)

// ServeHTTP exposes the simulator over real HTTP with the same
// method/path/envelope contract, so any client can be pointed at it
// during development. Errors map onto their taxonomy status codes and
// a {success:false, message} body, matching the live backend.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body any
	if r.Body != nil && r.ContentLength != 0 {
		var m map[string]any
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			writeJSON(w, http.StatusBadRequest, Envelope{
				"success": false,
				"message": "malformed JSON body",
			})
			return
		}
		body = m
	}

	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	env, err := b.Handle(r.Context(), r.Method, r.URL.RequestURI(), body, bearer)
	if err != nil {
		status := statusFor(err)
		writeJSON(w, status, Envelope{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, env)
}

func statusFor(err error) int {
	if s := apierr.StatusOf(err); s != 0 {
		return s
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

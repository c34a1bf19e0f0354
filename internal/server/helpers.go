package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/incintel/incintel/pkg/schema"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps an error to a JSON error response with the right status.
func writeError(w http.ResponseWriter, err error) {
	var ierr *schema.IntelError
	if !errors.As(err, &ierr) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch ierr.Code {
	case schema.ErrCodeValidation:
		status = http.StatusBadRequest
	case schema.ErrCodeNotFound:
		status = http.StatusNotFound
	case schema.ErrCodeConflict, schema.ErrCodeCancelled:
		status = http.StatusConflict
	case schema.ErrCodeInvalidTransition:
		status = http.StatusUnprocessableEntity
	case schema.ErrCodeUpstream, schema.ErrCodeTimeout:
		status = http.StatusBadGateway
	}

	body := map[string]any{"error": ierr.Message, "code": ierr.Code}
	if len(ierr.Details) > 0 {
		body["details"] = ierr.Details
	}
	writeJSON(w, status, body)
}

// queryInt extracts an integer query param with a default value.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

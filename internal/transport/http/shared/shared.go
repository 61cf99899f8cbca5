// Package shared centralizes JSON response writing so every handler produces
// the same envelopes.
package shared

import (
	"encoding/json"
	"net/http"
	"time"

	dErrors "customerd/pkg/domain-errors"
)

// ErrorBody is the wire shape of every failure: a stable code, a human
// message and a timestamp. Storage-level detail never appears here.
type ErrorBody struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// WriteError translates a domain error into the standard error envelope.
// Errors without a code are reported as INTERNAL with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: ErrorBody{
		Code:      string(code),
		Message:   dErrors.MessageOf(err),
		Timestamp: time.Now().UTC(),
	}})
}

// WriteJSON writes a success payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

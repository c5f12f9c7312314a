// Package shared centralizes JSON response and domain-error translation so
// every handler speaks the same envelope.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "fieldnet/pkg/domain-errors"
)

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the HTTP error envelope. The
// message is the domain message (which field, which constraint); anything
// that is not a domain error collapses to a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error": dErrors.MessageOf(err),
		"code":  string(code),
	})
}

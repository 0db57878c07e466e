// Package httputil maps domain errors onto JSON HTTP responses so handlers
// stay free of status-code bookkeeping.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "concord/pkg/domain-errors"
)

// statusByCode is the single source of truth for code → HTTP status mapping.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:        http.StatusBadRequest,
	dErrors.CodeNotFound:          http.StatusNotFound,
	dErrors.CodeAlreadyFinalized:  http.StatusConflict,
	dErrors.CodeInvalidTransition: http.StatusConflict,
	dErrors.CodeUnavailable:       http.StatusServiceUnavailable,
	dErrors.CodeInternal:          http.StatusInternalServerError,
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteError renders err as a JSON error response. Internal errors omit the
// description so storage details never reach clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
		code = dErrors.CodeInternal
	}

	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.Description = de.Message
		}
	}

	WriteJSON(w, status, body)
}

// WriteJSON renders v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

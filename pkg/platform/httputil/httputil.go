// Package httputil holds the JSON response and error helpers shared by the local bridge
// and the development bank.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "facebank/pkg/domain-errors"
)

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding error cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError translates a domain error into a status code and ErrorResponse.
// Errors without a domain code are reported as internal and their text is withheld.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: DomainCodeToHTTPCode(dErrors.CodeInternal),
		})
		return
	}
	WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{
		Error:       DomainCodeToHTTPCode(domainErr.Code),
		Description: domainErr.Message,
		Recoverable: dErrors.Recoverable(err),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeRejected:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTransport:
		return http.StatusBadGateway
	case dErrors.CodeCaptureUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeInvalidState, dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeSessionEnded, dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the "error" field value.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeBadRequest:
		return "bad_request"
	case dErrors.CodeRejected:
		return "rejected"
	case dErrors.CodeTransport:
		return "bank_unavailable"
	case dErrors.CodeCaptureUnavailable:
		return "capture_unavailable"
	case dErrors.CodeInvalidState:
		return "invalid_state"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeSessionEnded:
		return "session_ended"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodeNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}

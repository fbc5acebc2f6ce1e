package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "facebank/pkg/domain-errors"
)

// MaxBodyBytes bounds request bodies. Face samples are the largest payloads.
const MaxBodyBytes = 8 << 20

// Validatable is implemented by request types that check themselves after decoding.
type Validatable interface {
	Validate() error
}

// Normalizable is implemented by request types that trim or canonicalize fields.
type Normalizable interface {
	Normalize()
}

// DecodeJSON decodes the request body into T, normalizes and validates it.
// On failure it writes the error response and returns false.
//
//	req, ok := httputil.DecodeJSON[transferRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	var req T
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode request body", "error", err, "path", r.URL.Path)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if err := Prepare(&req); err != nil {
		var domainErr *dErrors.Error
		if !errors.As(err, &domainErr) {
			err = dErrors.New(dErrors.CodeValidation, err.Error())
		}
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}

// Prepare normalizes then validates req when it supports either.
func Prepare(req any) error {
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

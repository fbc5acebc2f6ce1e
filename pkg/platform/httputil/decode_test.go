package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facebank/internal/platform/logger"
	dErrors "facebank/pkg/domain-errors"
)

type loginBody struct {
	Account string `json:"account_number"`
	Pin     string `json:"pin"`
}

func (b *loginBody) Normalize() {
	b.Account = strings.TrimSpace(b.Account)
}

func (b *loginBody) Validate() error {
	if b.Account == "" {
		return errors.New("account_number is required")
	}
	if b.Pin == "" {
		return dErrors.New(dErrors.CodeBadRequest, "pin is required")
	}
	return nil
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDecodeJSON(t *testing.T) {
	log := logger.Discard()

	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
		wantError  string
	}{
		{"normalized and valid", `{"account_number":" ACC1 ","pin":"4321"}`, true, 0, ""},
		{"malformed json", `{nope}`, false, http.StatusBadRequest, "bad_request"},
		{"empty body", ``, false, http.StatusBadRequest, "bad_request"},
		{"plain validation error", `{"pin":"4321"}`, false, http.StatusBadRequest, "validation_error"},
		{"domain error code kept", `{"account_number":"ACC1"}`, false, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			got, ok := DecodeJSON[loginBody](w, r, log)

			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "ACC1", got.Account)
				return
			}
			assert.Nil(t, got)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, decodeErr(t, w).Error)
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err         error
		status      int
		code        string
		recoverable bool
	}{
		{dErrors.New(dErrors.CodeValidation, "pin is required"), http.StatusBadRequest, "validation_error", true},
		{dErrors.New(dErrors.CodeRejected, "Face mismatch"), http.StatusUnprocessableEntity, "rejected", true},
		{dErrors.New(dErrors.CodeTransport, "request failed"), http.StatusBadGateway, "bank_unavailable", true},
		{dErrors.New(dErrors.CodeCaptureUnavailable, "no camera"), http.StatusServiceUnavailable, "capture_unavailable", true},
		{dErrors.New(dErrors.CodeInvalidState, "wrong step"), http.StatusConflict, "invalid_state", true},
		{dErrors.New(dErrors.CodeSessionEnded, "logged out"), http.StatusUnauthorized, "session_ended", false},
		{dErrors.New(dErrors.CodeForbidden, "device mismatch"), http.StatusForbidden, "forbidden", false},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			w := httptest.NewRecorder()

			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeErr(t, w)
			assert.Equal(t, tt.code, resp.Error)
			assert.Equal(t, tt.recoverable, resp.Recoverable)
			if tt.status == http.StatusInternalServerError {
				assert.Empty(t, resp.Description)
			}
		})
	}
}

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestReadiness(t *testing.T) {
	t.Run("all checks up", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("bank", func(context.Context) error { return nil })

		rec, body := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ready", body["status"])
		assert.Equal(t, map[string]any{"bank": "up"}, body["checks"])
	})

	t.Run("failing check", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("bank", func(context.Context) error { return errors.New("connection refused") })
		h.RegisterCheck("camera", func(context.Context) error { return nil })

		rec, body := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "not_ready", body["status"])
		checks := body["checks"].(map[string]any)
		assert.Equal(t, "down: connection refused", checks["bank"])
		assert.Equal(t, "up", checks["camera"])
	})

	t.Run("slow check times out", func(t *testing.T) {
		h := New("test")
		h.checkTimeout = 20 * time.Millisecond
		h.RegisterCheck("bank", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

		rec, _ := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("re-registering replaces", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("bank", func(context.Context) error { return errors.New("down") })
		h.RegisterCheck("bank", func(context.Context) error { return nil })

		rec, _ := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLivenessAndStatus(t *testing.T) {
	h := New("development")
	h.RegisterCheck("bank", func(context.Context) error { return errors.New("not consulted") })

	rec, body := serve(t, h, "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", body["status"])

	rec, body = serve(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "development", body["environment"])
	assert.Equal(t, []any{"bank"}, body["checks"])
}

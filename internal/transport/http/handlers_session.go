package httptransport

import (
	"net/http"
	"time"

	"facebank/internal/auth/models"
	"facebank/internal/platform/middleware"
	"facebank/pkg/platform/httputil"
)

// HandleGetSession implements GET /session.
func (h *Handler) HandleGetSession(w http.ResponseWriter, _ *http.Request) {
	res := sessionResponse{
		Mode:                h.controller.Mode(),
		VerificationRunning: h.controller.VerificationRunning(),
	}
	if session, ok := h.controller.Session(); ok {
		res.AccountNumber = session.AccountHandle
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleBeginAuthentication implements POST /auth: leave onboarding and prepare the camera.
func (h *Handler) HandleBeginAuthentication(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.BeginAuthentication(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.HandleGetSession(w, r)
}

// HandleCaptureFace implements POST /face.
func (h *Handler) HandleCaptureFace(w http.ResponseWriter, r *http.Request) {
	sample, err := h.controller.CaptureFace(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "face capture failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, captureResponse{
		SampleID:   sample.ID.String(),
		CapturedAt: sample.CapturedAt.UTC().Format(time.RFC3339),
	})
}

// HandleLogin implements POST /session using the pending face sample.
//
// Input: { "account_number": "ACC12345678", "pin": "1234" }
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[loginRequest](w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.controller.Authenticate(ctx, req.AccountNumber, req.Pin)
	if err != nil {
		h.logger.InfoContext(ctx, "login failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	h.binder.Bind(session.Token, r.UserAgent())

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Message:       models.MessageLoginSuccess,
		AccountNumber: session.AccountHandle,
	})
}

// HandleLogout implements DELETE /session. It succeeds without a session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if session, ok := h.controller.Session(); ok {
		h.binder.Release(session.Token)
	}
	h.controller.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// HandleEvents implements GET /events: returns and clears queued controller events.
func (h *Handler) HandleEvents(w http.ResponseWriter, _ *http.Request) {
	events, dropped := h.events.Drain()
	httputil.WriteJSON(w, http.StatusOK, eventsResponse{Events: events, Dropped: dropped})
}

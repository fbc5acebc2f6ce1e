package httptransport

import (
	"net/http"

	"facebank/internal/platform/middleware"
	"facebank/pkg/platform/httputil"
)

// HandleOverview implements GET /dashboard.
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboard.Overview(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}

// HandleTransfer implements POST /dashboard/transfers.
//
// Input: { "to_account": "ACC87654321", "amount": 12.5 }
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[transferRequest](w, r, h.logger)
	if !ok {
		return
	}
	receipt, err := h.dashboard.Transfer(r.Context(), req.ToAccount, req.Amount)
	if err != nil {
		h.logger.InfoContext(r.Context(), "transfer failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

// HandleChangePin implements POST /dashboard/pin.
func (h *Handler) HandleChangePin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[changePinRequest](w, r, h.logger)
	if !ok {
		return
	}
	receipt, err := h.dashboard.ChangePin(r.Context(), req.Email, req.NewPin)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

// requireBoundDevice rejects dashboard calls from a device other than the one that
// logged in. Without a session the request passes and the dashboard reports it.
func (h *Handler) requireBoundDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.controller.Session()
		if ok {
			if err := h.binder.Check(session.Token, r.UserAgent()); err != nil {
				h.logger.WarnContext(r.Context(), "dashboard request from unbound device",
					"account_handle", session.AccountHandle,
					"request_id", middleware.GetRequestID(r.Context()),
				)
				httputil.WriteError(w, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

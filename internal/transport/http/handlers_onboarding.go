package httptransport

import (
	"net/http"

	"facebank/internal/onboarding"
	"facebank/internal/platform/middleware"
	dErrors "facebank/pkg/domain-errors"
	"facebank/pkg/platform/httputil"
)

// HandleBeginOnboarding implements POST /onboarding. Any live session is logged out.
func (h *Handler) HandleBeginOnboarding(w http.ResponseWriter, r *http.Request) {
	if session, ok := h.controller.Session(); ok {
		h.binder.Release(session.Token)
	}
	machine, err := h.controller.BeginOnboarding(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, onboardingResponse{State: machine.State()})
}

// HandleGetOnboarding implements GET /onboarding.
func (h *Handler) HandleGetOnboarding(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.machine(w)
	if !ok {
		return
	}
	claim := machine.Claim()
	httputil.WriteJSON(w, http.StatusOK, onboardingResponse{
		State: machine.State(),
		Name:  claim.Name,
		Email: claim.Email,
	})
}

// HandleSubmitClaim implements POST /onboarding/claim.
//
// Input: { "name": "Alice", "email": "alice@example.com" }
func (h *Handler) HandleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.machine(w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[claimRequest](w, r, h.logger)
	if !ok {
		return
	}
	msg, err := machine.SubmitClaim(r.Context(), req.Name, req.Email)
	h.writeStep(w, r, machine, msg, err)
}

// HandleConfirmCode implements POST /onboarding/code.
func (h *Handler) HandleConfirmCode(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.machine(w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[codeRequest](w, r, h.logger)
	if !ok {
		return
	}
	msg, err := machine.ConfirmCode(r.Context(), req.Code)
	h.writeStep(w, r, machine, msg, err)
}

// HandleEnrollFace implements POST /onboarding/face. The PIN is only ever returned here.
func (h *Handler) HandleEnrollFace(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.machine(w)
	if !ok {
		return
	}
	result, err := machine.EnrollFace(r.Context())
	if err != nil {
		h.writeStep(w, r, machine, "", err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) machine(w http.ResponseWriter) (*onboarding.Machine, bool) {
	machine, ok := h.controller.Onboarding()
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no onboarding in progress"))
		return nil, false
	}
	return machine, true
}

func (h *Handler) writeStep(w http.ResponseWriter, r *http.Request, machine *onboarding.Machine, msg string, err error) {
	if err != nil {
		h.logger.InfoContext(r.Context(), "onboarding step failed",
			"state", machine.State(),
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, onboardingResponse{State: machine.State(), Message: msg})
}

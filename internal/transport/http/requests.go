package httptransport

import (
	"strings"

	"facebank/internal/auth/models"
	"facebank/internal/onboarding"
	"facebank/pkg/platform/validation"
)

type claimRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r *claimRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *claimRequest) Validate() error {
	if err := validation.CheckStringLength("name", r.Name, validation.MaxNameLength); err != nil {
		return err
	}
	return validation.CheckStringLength("email", r.Email, validation.MaxEmailLength)
}

type codeRequest struct {
	Code string `json:"otp"`
}

func (r *codeRequest) Normalize() {
	r.Code = strings.TrimSpace(r.Code)
}

func (r *codeRequest) Validate() error {
	return validation.CheckStringLength("otp", r.Code, validation.MaxCodeLength)
}

type loginRequest struct {
	AccountNumber string `json:"account_number"`
	Pin           string `json:"pin"`
}

func (r *loginRequest) Normalize() {
	r.AccountNumber = strings.TrimSpace(r.AccountNumber)
}

func (r *loginRequest) Validate() error {
	return validation.CheckStringLength("account_number", r.AccountNumber, validation.MaxAccountHandleLength)
}

type transferRequest struct {
	ToAccount string  `json:"to_account"`
	Amount    float64 `json:"amount"`
}

func (r *transferRequest) Normalize() {
	r.ToAccount = strings.TrimSpace(r.ToAccount)
}

func (r *transferRequest) Validate() error {
	return validation.CheckStringLength("to_account", r.ToAccount, validation.MaxAccountHandleLength)
}

type changePinRequest struct {
	Email  string `json:"email"`
	NewPin string `json:"new_pin"`
}

func (r *changePinRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r *changePinRequest) Validate() error {
	if err := validation.CheckStringLength("email", r.Email, validation.MaxEmailLength); err != nil {
		return err
	}
	return validation.CheckDigits("new_pin", r.NewPin, 4)
}

type sessionResponse struct {
	Mode                models.Mode `json:"mode"`
	AccountNumber       string      `json:"account_number,omitempty"`
	VerificationRunning bool        `json:"verification_running"`
}

type onboardingResponse struct {
	State   onboarding.State `json:"state"`
	Name    string           `json:"name,omitempty"`
	Email   string           `json:"email,omitempty"`
	Message string           `json:"message,omitempty"`
}

type captureResponse struct {
	SampleID   string `json:"sample_id"`
	CapturedAt string `json:"captured_at"`
}

type loginResponse struct {
	Message       string `json:"message"`
	AccountNumber string `json:"account_number"`
}

type eventsResponse struct {
	Events  []models.Event `json:"events"`
	Dropped int            `json:"dropped,omitempty"`
}

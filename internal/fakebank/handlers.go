package fakebank

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"facebank/internal/bank/models"
	"facebank/internal/platform/middleware"
	"facebank/internal/platform/privacy"
	"facebank/pkg/platform/httputil"
	"facebank/pkg/platform/sentinel"
	"facebank/pkg/platform/validation"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "fakebank"})
}

func (s *Server) handleSendCode(w http.ResponseWriter, r *http.Request) {
	var req models.SendCodeRequest
	if err := decode(r, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, message("Invalid request body"))
		return
	}
	name, email := strings.TrimSpace(req.Name), strings.TrimSpace(req.Email)
	if name == "" || email == "" {
		writeEnvelope(w, http.StatusBadRequest, message("Name and email are required"))
		return
	}
	if s.store.EmailRegistered(email) {
		writeEnvelope(w, http.StatusBadRequest, message("Email already registered"))
		return
	}

	code, err := s.codes()
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to generate code", "error", err)
		writeEnvelope(w, http.StatusInternalServerError, message("Failed to send OTP"))
		return
	}
	s.store.SaveRegistration(&Registration{
		Name:      name,
		Email:     email,
		CodeHash:  HashCode(code),
		ExpiresAt: s.now().Add(s.codeTTL),
	})
	if s.devMode {
		s.mu.Lock()
		s.lastCodes[normalizeEmail(email)] = code
		s.mu.Unlock()
	}
	s.logger.InfoContext(r.Context(), "confirmation code issued", "email", privacy.MaskEmail(email))
	writeEnvelope(w, http.StatusOK, message(models.MessageCodeSent))
}

func (s *Server) handleConfirmCode(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmCodeRequest
	if err := decode(r, &req); err != nil || req.Email == "" || req.Code == "" {
		writeEnvelope(w, http.StatusBadRequest, failure("Email and OTP are required"))
		return
	}

	err := s.store.ConsumeCode(req.Email, strings.TrimSpace(req.Code), s.now())
	switch {
	case err == nil:
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "message": "OTP verified successfully"})
	case errors.Is(err, sentinel.ErrNotFound):
		writeEnvelope(w, http.StatusBadRequest, failure("No OTP requested for this email"))
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		writeEnvelope(w, http.StatusBadRequest, failure("OTP already used"))
	case errors.Is(err, sentinel.ErrExpired):
		writeEnvelope(w, http.StatusBadRequest, failure("OTP expired"))
	default:
		writeEnvelope(w, http.StatusBadRequest, failure("Invalid OTP"))
	}
}

func (s *Server) handleEnrollFace(w http.ResponseWriter, r *http.Request) {
	var req models.EnrollFaceRequest
	if err := decode(r, &req); err != nil || req.Email == "" {
		writeEnvelope(w, http.StatusBadRequest, message("Email is required"))
		return
	}
	reg, err := s.store.FindRegistration(req.Email)
	if err != nil || !reg.Verified {
		writeEnvelope(w, http.StatusBadRequest, message("Email not verified"))
		return
	}
	if req.Face == "" || s.isRejected(req.Face) {
		writeEnvelope(w, http.StatusBadRequest, message("No face detected"))
		return
	}

	pin, err := s.pins()
	if err != nil {
		s.internalError(w, r, "generate pin", err)
		return
	}
	pinHash, err := bcrypt.GenerateFromPassword([]byte(pin), s.bcryptCost)
	if err != nil {
		s.internalError(w, r, "hash pin", err)
		return
	}

	var handle string
	for attempt := 0; attempt < 5; attempt++ {
		handle, err = s.accounts()
		if err != nil {
			s.internalError(w, r, "generate account number", err)
			return
		}
		err = s.store.CreateAccount(&Account{
			Handle:  handle,
			Name:    reg.Name,
			Email:   reg.Email,
			PinHash: pinHash,
			Face:    req.Face,
			Balance: s.initialBalance,
			Live:    true,
		})
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			break
		}
	}
	if err != nil {
		s.internalError(w, r, "create account", err)
		return
	}
	s.store.DeleteRegistration(reg.Email)

	s.logger.InfoContext(r.Context(), "account enrolled", "account_number", handle, "email", privacy.MaskEmail(reg.Email))
	writeEnvelope(w, http.StatusOK, map[string]any{
		"message":        "Registration successful",
		"account_number": handle,
		"pin":            pin,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decode(r, &req); err != nil || req.AccountNumber == "" || req.Pin == "" {
		writeEnvelope(w, http.StatusBadRequest, message("Account number and PIN are required"))
		return
	}
	acc, err := s.store.FindAccount(req.AccountNumber)
	if err != nil || bcrypt.CompareHashAndPassword(acc.PinHash, []byte(req.Pin)) != nil {
		writeEnvelope(w, http.StatusUnauthorized, message("Invalid credentials"))
		return
	}
	if !s.faceAccepted(acc, req.Face) {
		writeEnvelope(w, http.StatusUnauthorized, message("Face verification failed"))
		return
	}

	token, err := s.tokens.Issue(acc.Handle)
	if err != nil {
		s.internalError(w, r, "issue session token", err)
		return
	}
	writeEnvelope(w, http.StatusOK, map[string]any{
		"message":       models.MessageLoginSuccess,
		"session_token": token,
	})
}

func (s *Server) handleVerifyFace(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyFaceRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, failure("Invalid request body"))
		return
	}
	acc, ok := s.ownAccount(w, r, req.AccountNumber, false)
	if !ok {
		return
	}
	if !s.faceAccepted(acc, req.Face) {
		s.logger.InfoContext(r.Context(), "continuous face check failed", "account_number", acc.Handle)
		httputil.WriteJSON(w, http.StatusOK, failure("Face does not match"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := decode(r, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, failure("Invalid request body"))
		return
	}
	acc, ok := s.ownAccount(w, r, req.FromAccount, true)
	if !ok {
		return
	}
	amount := int64(math.Round(req.Amount * 100))
	switch {
	case req.ToAccount == "" || req.ToAccount == req.FromAccount:
		writeEnvelope(w, http.StatusBadRequest, failure("Invalid destination account"))
		return
	case amount <= 0:
		writeEnvelope(w, http.StatusBadRequest, failure("Amount must be positive"))
		return
	case !s.faceAccepted(acc, req.Face):
		writeEnvelope(w, http.StatusUnauthorized, failure("Face verification failed"))
		return
	}

	tx, err := s.store.Transfer(uuid.NewString(), acc.Handle, req.ToAccount, amount, s.now())
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		writeEnvelope(w, http.StatusBadRequest, failure("Insufficient balance"))
		return
	case errors.Is(err, sentinel.ErrNotFound):
		writeEnvelope(w, http.StatusBadRequest, failure("Destination account not found"))
		return
	case err != nil:
		s.internalError(w, r, "transfer", err)
		return
	}
	writeEnvelope(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Transfer successful",
		"transaction_id": tx.ID,
	})
}

func (s *Server) handleChangePin(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePinRequest
	if err := decode(r, &req); err != nil || req.Email == "" {
		writeEnvelope(w, http.StatusBadRequest, failure("Email is required"))
		return
	}
	if validation.CheckDigits("new_pin", req.NewPin, 4) != nil {
		writeEnvelope(w, http.StatusBadRequest, failure("PIN must be 4 digits"))
		return
	}
	acc, err := s.store.FindAccountByEmail(req.Email)
	if err != nil {
		writeEnvelope(w, http.StatusNotFound, failure("Account not found"))
		return
	}
	if !s.faceAccepted(acc, req.Face) {
		writeEnvelope(w, http.StatusUnauthorized, failure("Face verification failed"))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPin), s.bcryptCost)
	if err != nil {
		s.internalError(w, r, "hash pin", err)
		return
	}
	if err := s.store.UpdatePinHash(acc.Handle, hash); err != nil {
		s.internalError(w, r, "update pin", err)
		return
	}
	writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "message": "PIN changed successfully"})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.ownAccount(w, r, r.URL.Query().Get("AccountNumber"), false)
	if !ok {
		return
	}
	sent, received := s.store.Transactions(acc.Handle)
	httputil.WriteJSON(w, http.StatusOK, models.TransactionHistory{
		Sent:     toWire(sent),
		Received: toWire(received),
	})
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.ownAccount(w, r, r.URL.Query().Get("AccountNumber"), false)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.Profile{Name: acc.Name, Balance: cents(acc.Balance)})
}

func (s *Server) handleDevCode(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	code, ok := s.LastCode(email)
	if !ok {
		httputil.WriteJSON(w, http.StatusNotFound, message("No OTP for this email"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"email": email, "otp": code})
}

func (s *Server) handleDevLiveness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountNumber string `json:"account_number"`
		Live          bool   `json:"live"`
	}
	if err := decode(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, message("Invalid request body"))
		return
	}
	if err := s.SetLive(req.AccountNumber, req.Live); err != nil {
		httputil.WriteJSON(w, http.StatusNotFound, message("Account not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"account_number": req.AccountNumber, "live": req.Live})
}

func (s *Server) handleDevRejectFace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Face string `json:"face_image_base64"`
	}
	if err := decode(r, &req); err != nil || req.Face == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, message("face_image_base64 is required"))
		return
	}
	s.RejectFace(req.Face)
	w.WriteHeader(http.StatusNoContent)
}

// ownAccount loads the account and checks the bearer token was issued for it.
// Failures are written in the endpoint's envelope style.
func (s *Server) ownAccount(w http.ResponseWriter, r *http.Request, handle string, enveloped bool) (*Account, bool) {
	write := httputil.WriteJSON
	if enveloped {
		write = writeEnvelope
	}
	if handle == "" || middleware.GetAccountHandle(r.Context()) != handle {
		s.logger.WarnContext(r.Context(), "token does not match account",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		write(w, http.StatusForbidden, failure("Forbidden"))
		return nil, false
	}
	acc, err := s.store.FindAccount(handle)
	if err != nil {
		write(w, http.StatusNotFound, failure("Account not found"))
		return nil, false
	}
	return acc, true
}

func (s *Server) isRejected(sample string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rejected := s.rejected[sample]
	return rejected
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.ErrorContext(r.Context(), "fakebank operation failed", "operation", op, "error", err)
	writeEnvelope(w, http.StatusInternalServerError, message("Internal server error"))
}

func cents(v int64) json.Number {
	return json.Number(strconv.FormatFloat(float64(v)/100, 'f', 2, 64))
}

func toWire(txs []Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, models.Transaction{
			TransactionID: tx.ID,
			FromAccount:   tx.FromAccount,
			ToAccount:     tx.ToAccount,
			Amount:        cents(tx.Amount),
			Timestamp:     tx.At.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// Package models holds the remote bank's wire shapes.
package models

import "encoding/json"

// Endpoint paths on the remote service.
const (
	PathSendCode     = "/register/send-otp"
	PathConfirmCode  = "/register/verify-otp"
	PathEnrollFace   = "/register/capture-face"
	PathLogin        = "/login"
	PathVerifyFace   = "/session/face-verify"
	PathTransfer     = "/transfer"
	PathChangePin    = "/settings/change-pin"
	PathTransactions = "/transactions"
	PathUserInfo     = "/user-info"
	PathHealth       = "/health"
)

// Literal success messages the service uses as business markers.
const (
	MessageCodeSent     = "OTP sent successfully"
	MessageLoginSuccess = "Login successful"
)

// Operation names, used for metrics, tracing, and logs.
const (
	OpSendCode         = "send_code"
	OpConfirmCode      = "confirm_code"
	OpEnrollFace       = "enroll_face"
	OpLogin            = "login"
	OpVerifyFace       = "verify_face"
	OpTransfer         = "transfer"
	OpChangePin        = "change_pin"
	OpListTransactions = "list_transactions"
	OpUserInfo         = "user_info"
)

type SendCodeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ConfirmCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp"`
}

type EnrollFaceRequest struct {
	Email string `json:"email"`
	Face  string `json:"face_image_base64"`
}

type LoginRequest struct {
	AccountNumber string `json:"account_number"`
	Pin           string `json:"pin"`
	Face          string `json:"face_image_base64"`
}

type VerifyFaceRequest struct {
	AccountNumber string `json:"account_number"`
	Face          string `json:"face_image_base64"`
}

type TransferRequest struct {
	FromAccount string  `json:"from_account"`
	ToAccount   string  `json:"to_account"`
	Amount      float64 `json:"amount"`
	Face        string  `json:"face_image_base64"`
}

type ChangePinRequest struct {
	Email  string `json:"email"`
	NewPin string `json:"new_pin"`
	Face   string `json:"face_image_base64"`
}

// Transaction is one ledger entry as listed by the service.
type Transaction struct {
	TransactionID string      `json:"transaction_id"`
	FromAccount   string      `json:"from_account"`
	ToAccount     string      `json:"to_account"`
	Amount        json.Number `json:"amount"`
	Timestamp     string      `json:"timestamp"`
}

// TransactionHistory is the list-transactions payload.
type TransactionHistory struct {
	Sent     []Transaction `json:"sent"`
	Received []Transaction `json:"received"`
}

// Profile is the user-info payload.
type Profile struct {
	Name    string      `json:"name"`
	Balance json.Number `json:"balance"`
}

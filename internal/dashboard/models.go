package dashboard

import "facebank/internal/bank/models"

// Fallback messages used when the service supplies none.
const (
	MessageTransferSucceeded = "Transfer successful"
	MessagePinChanged        = "PIN changed successfully"
	MessageTransferFailed    = "Transfer failed"
	MessagePinChangeFailed   = "PIN change failed"
	MessageCaptureFirst      = "Capture a fresh face sample first"
	MessageSessionEnded      = "Session ended"
	MessageReadFailed        = "Could not load account data"
	MessageBankUnavailable   = "Bank service unavailable"
)

// Receipt is the result of a sensitive operation.
type Receipt struct {
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Transactions is the transaction history. Stale is set when it came from cache
// because the bank could not be reached.
type Transactions struct {
	models.TransactionHistory
	Stale bool `json:"stale"`
}

type Profile struct {
	models.Profile
	Stale bool `json:"stale"`
}

// Overview combines the profile and the transaction history.
type Overview struct {
	Profile      models.Profile            `json:"profile"`
	Transactions models.TransactionHistory `json:"transactions"`
	Stale        bool                      `json:"stale"`
}

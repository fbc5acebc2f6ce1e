package models

import (
	"time"
)

// Session is the authenticated context established by a combined credential and
// face check. The token is opaque to the client.
type Session struct {
	Token         string
	AccountHandle string
	StartedAt     time.Time
}

// Matches reports whether other refers to the same session. Sessions are compared by
// token and account handle, never by pointer.
func (s *Session) Matches(other *Session) bool {
	if s == nil || other == nil {
		return false
	}
	return s.Token == other.Token && s.AccountHandle == other.AccountHandle
}

// Mode is the controller's current application mode.
type Mode string

const (
	ModeOnboarding     Mode = "onboarding"
	ModeAuthenticating Mode = "authenticating"
	ModeActive         Mode = "active"
)

func (m Mode) String() string { return string(m) }

// Reason explains a rejected verification outcome.
type Reason string

const (
	ReasonServerRejected Reason = "server_rejected"
	ReasonTransportError Reason = "transport_error"
	ReasonMissingSample  Reason = "missing_sample"
	ReasonNoSession      Reason = "no_session"
)

// Outcome is the result of one continuous verification tick.
type Outcome struct {
	Approved bool
	Reason   Reason
	Message  string
}

// Approved is the outcome of a tick the server accepted.
func Approved() Outcome {
	return Outcome{Approved: true}
}

// Rejected builds a non-approved outcome.
func Rejected(reason Reason, message string) Outcome {
	return Outcome{Reason: reason, Message: message}
}

// Fatal reports whether the outcome must end the session. A missing sample is a soft
// failure and leaves the session in place.
func (o Outcome) Fatal() bool {
	if o.Approved {
		return false
	}
	return o.Reason == ReasonServerRejected || o.Reason == ReasonTransportError
}

// Label is the outcome as a metrics label.
func (o Outcome) Label() string {
	if o.Approved {
		return "approved"
	}
	return string(o.Reason)
}

// EventKind identifies a controller notification.
type EventKind string

const (
	EventSessionStarted   EventKind = "session_started"
	EventSessionEnded     EventKind = "session_ended"
	EventForcedLogout     EventKind = "forced_logout"
	EventCaptureRequested EventKind = "capture_requested"
	EventFaceCaptured     EventKind = "face_captured"
)

// Event is published by the controller to the presentation layer.
type Event struct {
	Kind          EventKind `json:"kind"`
	Message       string    `json:"message,omitempty"`
	AccountHandle string    `json:"account_number,omitempty"`
	At            time.Time `json:"at"`
}

// User-facing messages.
const (
	MessageUnidentifiedUser   = "Unidentified user detected. Logging out..."
	MessageVerificationFailed = "Error in verification. Logging out..."
	MessageCaptureReminder    = "Please capture face for continuous authentication."
	MessageLoggedOut          = "Logged out"
	MessageLoginSuccess       = "Login successful"
)

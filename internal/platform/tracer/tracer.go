// Package tracer provides a lightweight tracing abstraction for outbound bank calls
// and the session lifecycle.
//
// The interface keeps OpenTelemetry out of the domain packages:
//   - NoopTracer: for tests and when tracing is disabled
//   - OTelTracer: adapter over the global OpenTelemetry tracer provider
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording err when non-nil. Must be called exactly once.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span; the returned context carries it to child operations.
	//
	//   ctx, span := tr.Start(ctx, tracer.SpanBankLogin,
	//       tracer.String(tracer.AttrAccount, tracer.HashAccount(handle)),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashAccount returns a short SHA-256 prefix of an account handle or email so traces
// can be correlated without carrying the identifier itself.
func HashAccount(id string) string {
	if id == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(id))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanBankPrefix     = "bank."
	SpanAuthenticate   = "session.authenticate"
	SpanVerifyTick     = "session.verify_tick"
	SpanOnboardingStep = "onboarding.step"
	SpanDashboard      = "dashboard.operation"
)

// Attribute keys.
const (
	AttrOperation  = "bank.operation"
	AttrStatusCode = "http.status_code"
	AttrOK         = "bank.ok"
	AttrAccount    = "account.hash"
	AttrOutcome    = "verification.outcome"
	AttrState      = "onboarding.state"
	AttrStale      = "dashboard.stale"
	AttrErrorCode  = "error.code"
)

// Event names.
const (
	EventEnvelopeDecoded = "envelope.decoded"
	EventSessionDiscard  = "session.discarded"
)

// Noop discards every span. It is the default for components built without a tracer.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                     {}
func (noopSpan) SetAttributes(...Attribute)    {}
func (noopSpan) AddEvent(string, ...Attribute) {}

// Package onboarding drives a new customer from identity claim through code
// confirmation to face enrollment.
package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"facebank/internal/platform/metrics"
	"facebank/internal/platform/tracer"
	dErrors "facebank/pkg/domain-errors"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Registrar,Camera

// State is a step of the onboarding flow.
type State string

const (
	StateClaimEntry    State = "claim_entry"
	StateCodePending   State = "code_pending"
	StateCodeConfirmed State = "code_confirmed"
	StateFaceCapture   State = "face_capture"
	StateComplete      State = "complete"
)

// Fallback messages when the service gives none.
const (
	MessageSendCodeFailed    = "Failed to send OTP"
	MessageConfirmCodeFailed = "Invalid OTP"
	MessageEnrollFailed      = "Face registration failed"
	MessageNoSample          = "No face sample available"
)

// Claim is the identity the customer asserts at step one.
type Claim struct {
	Name  string
	Email string
}

// EnrollmentResult is produced once. The PIN cannot be retrieved again.
type EnrollmentResult struct {
	AccountHandle string `json:"account_number"`
	Pin           string `json:"pin"`
	Message       string `json:"message,omitempty"`
}

// Machine is the onboarding state machine. Only one step may be in flight at a time;
// a step that fails leaves the machine in the state it started from.
type Machine struct {
	mu      sync.Mutex
	state   State
	claim   Claim
	busy    bool
	closed  bool
	release func()

	registrar Registrar
	camera    Camera
	logger    *slog.Logger
	tracer    tracer.Tracer
	metrics   *metrics.Metrics
}

type Option func(*Machine)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(m *Machine) {
		if t != nil {
			m.tracer = t
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Machine) {
		m.metrics = mt
	}
}

// New creates a machine in StateClaimEntry.
func New(registrar Registrar, camera Camera, opts ...Option) (*Machine, error) {
	if registrar == nil || camera == nil {
		return nil, fmt.Errorf("registrar and camera are required")
	}
	m := &Machine{
		state:     StateClaimEntry,
		registrar: registrar,
		camera:    camera,
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// State returns the current step.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Claim returns the identity claim once one has been accepted.
func (m *Machine) Claim() Claim {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claim
}

// SubmitClaim requests a confirmation code for name and email. It may be repeated
// while the code is pending to request a new code or correct the address.
func (m *Machine) SubmitClaim(ctx context.Context, name, email string) (msg string, err error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" {
		return "", dErrors.New(dErrors.CodeValidation, "name and email are required")
	}
	if err := m.begin(StateClaimEntry, StateCodePending); err != nil {
		return "", err
	}
	defer m.done()

	ctx, span := m.startStep(ctx, StateClaimEntry)
	defer func() { span.End(err) }()

	res, err := m.registrar.SendCode(ctx, name, email)
	if err != nil {
		return "", err
	}
	if !res.OK {
		return "", dErrors.New(dErrors.CodeRejected, res.MessageOr(MessageSendCodeFailed))
	}

	m.mu.Lock()
	m.claim = Claim{Name: name, Email: email}
	m.mu.Unlock()
	m.transition(ctx, StateCodePending)
	return res.Message, nil
}

// ConfirmCode submits the one-time code. On success the code is consumed, the machine
// enters StateFaceCapture and a capture lease is taken for the enrollment step.
func (m *Machine) ConfirmCode(ctx context.Context, code string) (msg string, err error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", dErrors.New(dErrors.CodeValidation, "confirmation code is required")
	}
	if err := m.begin(StateCodePending); err != nil {
		return "", err
	}
	defer m.done()

	ctx, span := m.startStep(ctx, StateCodePending)
	defer func() { span.End(err) }()

	res, err := m.registrar.ConfirmCode(ctx, m.Claim().Email, code)
	if err != nil {
		return "", err
	}
	if !res.OK {
		return "", dErrors.New(dErrors.CodeRejected, res.MessageOr(MessageConfirmCodeFailed))
	}

	m.transition(ctx, StateCodeConfirmed)
	m.acquireCamera(ctx)
	m.transition(ctx, StateFaceCapture)
	return res.Message, nil
}

// EnrollFace captures a sample and enrolls it against the confirmed email.
func (m *Machine) EnrollFace(ctx context.Context) (result EnrollmentResult, err error) {
	if err := m.begin(StateFaceCapture); err != nil {
		return EnrollmentResult{}, err
	}
	defer m.done()

	ctx, span := m.startStep(ctx, StateFaceCapture)
	defer func() { span.End(err) }()

	if !m.acquireCamera(ctx) {
		return EnrollmentResult{}, dErrors.New(dErrors.CodeCaptureUnavailable, MessageNoSample)
	}
	sample, err := m.camera.Capture(ctx)
	if err != nil {
		return EnrollmentResult{}, dErrors.Wrap(err, dErrors.CodeCaptureUnavailable, MessageNoSample)
	}

	res, err := m.registrar.EnrollFace(ctx, m.Claim().Email, sample)
	if err != nil {
		return EnrollmentResult{}, err
	}
	if !res.OK {
		return EnrollmentResult{}, dErrors.New(dErrors.CodeRejected, res.MessageOr(MessageEnrollFailed))
	}

	result = EnrollmentResult{
		AccountHandle: res.String("account_number"),
		Pin:           res.String("pin"),
		Message:       res.Message,
	}
	m.transition(ctx, StateComplete)
	m.releaseCamera()
	m.logger.InfoContext(ctx, "onboarding complete", "account_handle", result.AccountHandle)
	return result, nil
}

// Close releases the capture lease if one is held and rejects further steps.
// Safe to call more than once.
func (m *Machine) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.releaseCamera()
}

func (m *Machine) begin(allowed ...State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return dErrors.New(dErrors.CodeInvalidState, "onboarding was closed")
	}
	if m.busy {
		return dErrors.New(dErrors.CodeInvalidState, "an onboarding step is already in progress")
	}
	for _, s := range allowed {
		if m.state == s {
			m.busy = true
			return nil
		}
	}
	return dErrors.New(dErrors.CodeInvalidState, fmt.Sprintf("not allowed in state %s", m.state))
}

func (m *Machine) done() {
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
}

func (m *Machine) transition(ctx context.Context, to State) {
	m.mu.Lock()
	from := m.state
	m.state = to
	m.mu.Unlock()

	m.metrics.IncrementOnboardingTransitions(string(to))
	m.logger.DebugContext(ctx, "onboarding transition", "from", from, "to", to)
}

// acquireCamera takes a lease unless one is held. It reports whether a lease is held
// afterwards.
func (m *Machine) acquireCamera(ctx context.Context) bool {
	m.mu.Lock()
	held, closed := m.release != nil, m.closed
	m.mu.Unlock()
	if held {
		return true
	}
	if closed {
		return false
	}

	release, err := m.camera.Acquire(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "capture device unavailable for enrollment", "error", err)
		return false
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		release()
		return false
	}
	m.release = release
	m.mu.Unlock()
	return true
}

func (m *Machine) releaseCamera() {
	m.mu.Lock()
	release := m.release
	m.release = nil
	m.mu.Unlock()
	if release != nil {
		release()
	}
}

func (m *Machine) startStep(ctx context.Context, state State) (context.Context, tracer.Span) {
	return m.tracer.Start(ctx, tracer.SpanOnboardingStep,
		tracer.String(tracer.AttrState, string(state)),
	)
}

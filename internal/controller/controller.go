// Package controller owns the application mode and the single live session, and
// starts and stops continuous verification with it.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"facebank/internal/auth/models"
	"facebank/internal/auth/workers/verifier"
	"facebank/internal/face"
	"facebank/internal/onboarding"
	"facebank/internal/platform/metrics"
	"facebank/internal/platform/tracer"
	dErrors "facebank/pkg/domain-errors"
)

//go:generate mockgen -source=controller.go -destination=mocks/mocks.go -package=mocks Authenticator

// Authenticator establishes a session from credentials and a face sample.
type Authenticator interface {
	Authenticate(ctx context.Context, accountHandle, pin string, sample face.Sample) (*models.Session, error)
}

// Session end reasons, used as metric labels.
const (
	endLogout     = "logout"
	endOnboarding = "onboarding"
	endTeardown   = "teardown"
)

// Deps are the collaborators a Controller needs.
type Deps struct {
	Registrar     onboarding.Registrar
	Authenticator Authenticator
	Verifier      verifier.FaceVerifier
	Camera        onboarding.Camera
}

// Controller is safe for concurrent use. Event handlers run outside its lock and may
// call back into it.
type Controller struct {
	mu       sync.Mutex
	mode     models.Mode
	session  *models.Session
	machine  *onboarding.Machine
	release  func()
	closed   bool
	handlers []func(models.Event)

	slot      *face.Slot
	scheduler *verifier.Scheduler
	baseCtx   context.Context
	stop      context.CancelFunc

	deps          Deps
	schedulerOpts []verifier.Option
	logger        *slog.Logger
	tracer        tracer.Tracer
	metrics       *metrics.Metrics
	now           func() time.Time
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Controller) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithSchedulerOptions passes options to the continuous verification scheduler.
func WithSchedulerOptions(opts ...verifier.Option) Option {
	return func(c *Controller) {
		c.schedulerOpts = append(c.schedulerOpts, opts...)
	}
}

// New creates a controller in authenticating mode.
func New(deps Deps, opts ...Option) (*Controller, error) {
	if deps.Registrar == nil || deps.Authenticator == nil || deps.Verifier == nil || deps.Camera == nil {
		return nil, fmt.Errorf("registrar, authenticator, verifier, and camera are required")
	}
	c := &Controller{
		mode:   models.ModeAuthenticating,
		slot:   face.NewSlot(),
		deps:   deps,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	schedulerOpts := append([]verifier.Option{
		verifier.WithLogger(c.logger),
		verifier.WithTracer(c.tracer),
		verifier.WithMetrics(c.metrics),
	}, c.schedulerOpts...)
	scheduler, err := verifier.New(deps.Verifier, c.slot, c, schedulerOpts...)
	if err != nil {
		return nil, err
	}
	c.scheduler = scheduler
	c.baseCtx, c.stop = context.WithCancel(context.Background())
	return c, nil
}

// Subscribe registers an event handler.
func (c *Controller) Subscribe(handler func(models.Event)) {
	if handler == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Mode returns the current application mode.
func (c *Controller) Mode() models.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Session returns a copy of the live session.
func (c *Controller) Session() (models.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return models.Session{}, false
	}
	return *c.session, true
}

// IsCurrent reports whether session is the live session.
func (c *Controller) IsCurrent(session *models.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Matches(session)
}

// Samples exposes the face sample slot shared by verification and dashboard operations.
func (c *Controller) Samples() *face.Slot {
	return c.slot
}

// VerificationRunning reports whether continuous verification is active.
func (c *Controller) VerificationRunning() bool {
	return c.scheduler.Running()
}

// Onboarding returns the current onboarding machine, if any.
func (c *Controller) Onboarding() (*onboarding.Machine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine, c.machine != nil
}

// BeginOnboarding ends any live session, releases the controller's capture lease and
// starts a fresh onboarding flow.
func (c *Controller) BeginOnboarding(ctx context.Context) (*onboarding.Machine, error) {
	machine, err := onboarding.New(c.deps.Registrar, c.deps.Camera,
		onboarding.WithLogger(c.logger),
		onboarding.WithTracer(c.tracer),
		onboarding.WithMetrics(c.metrics),
	)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errClosed()
	}
	events := c.endSessionLocked(endOnboarding, models.EventSessionEnded, models.MessageLoggedOut)
	previous, release := c.machine, c.release
	c.machine, c.release = machine, nil
	c.mode = models.ModeOnboarding
	c.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	if release != nil {
		release()
	}
	c.logger.InfoContext(ctx, "onboarding started")
	c.emit(events)
	return machine, nil
}

// BeginAuthentication leaves onboarding and takes a capture lease for login and
// verification. Failing to acquire the camera is not fatal; CaptureFace retries.
func (c *Controller) BeginAuthentication(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed()
	}
	machine := c.machine
	c.machine = nil
	if c.mode == models.ModeOnboarding {
		c.mode = models.ModeAuthenticating
	}
	c.mu.Unlock()

	if machine != nil {
		machine.Close()
	}
	if err := c.acquireCamera(ctx); err != nil {
		c.logger.WarnContext(ctx, "capture device unavailable", "error", err)
	}
	return nil
}

// CaptureFace takes a sample and stores it in the slot, superseding any earlier one.
func (c *Controller) CaptureFace(ctx context.Context) (face.Sample, error) {
	c.mu.Lock()
	mode, closed := c.mode, c.closed
	c.mu.Unlock()
	if closed {
		return face.Sample{}, errClosed()
	}
	if mode == models.ModeOnboarding {
		return face.Sample{}, dErrors.New(dErrors.CodeInvalidState, "onboarding captures its own face sample")
	}
	if err := c.acquireCamera(ctx); err != nil {
		return face.Sample{}, err
	}

	sample, err := c.deps.Camera.Capture(ctx)
	if err != nil {
		return face.Sample{}, dErrors.Wrap(err, dErrors.CodeCaptureUnavailable, "no face sample available")
	}
	c.slot.Put(sample)

	var handle string
	if s, ok := c.Session(); ok {
		handle = s.AccountHandle
	}
	c.emit([]models.Event{c.event(models.EventFaceCaptured, "", handle)})
	return sample, nil
}

// Authenticate logs in with the pending face sample. On success the sample is spent,
// any previous session is replaced and continuous verification starts for the new one.
func (c *Controller) Authenticate(ctx context.Context, accountHandle, pin string) (models.Session, error) {
	c.mu.Lock()
	mode, closed := c.mode, c.closed
	c.mu.Unlock()
	if closed {
		return models.Session{}, errClosed()
	}
	if mode == models.ModeOnboarding {
		return models.Session{}, dErrors.New(dErrors.CodeInvalidState, "finish or leave onboarding before logging in")
	}

	sample, _ := c.slot.Take()
	session, err := c.deps.Authenticator.Authenticate(ctx, accountHandle, pin, sample)
	if err != nil {
		c.slot.Restore(sample)
		return models.Session{}, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.Session{}, errClosed()
	}
	if c.mode == models.ModeOnboarding {
		c.mu.Unlock()
		c.slot.Restore(sample)
		return models.Session{}, dErrors.New(dErrors.CodeInvalidState, "onboarding started during login")
	}
	// Stop verifying the old session before the new one becomes visible.
	c.scheduler.Cancel()
	var events []models.Event
	if c.session != nil {
		events = append(events, c.event(models.EventSessionEnded, models.MessageLoggedOut, c.session.AccountHandle))
		c.metrics.SessionEnded(endLogout)
	}
	c.session = session
	c.mode = models.ModeActive
	startErr := c.scheduler.Start(c.baseCtx, session)
	c.metrics.SessionStarted()
	events = append(events, c.event(models.EventSessionStarted, models.MessageLoginSuccess, session.AccountHandle))
	c.mu.Unlock()

	if startErr != nil {
		c.logger.ErrorContext(ctx, "failed to start continuous verification", "error", startErr)
	}
	c.logger.InfoContext(ctx, "session started", "account_handle", session.AccountHandle)
	c.emit(events)
	return *session, nil
}

// Logout ends the live session and returns to authenticating mode. An onboarding flow
// in progress is abandoned and its capture lease released. Calling it with neither is a
// no-op.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	events := c.endSessionLocked(endLogout, models.EventSessionEnded, models.MessageLoggedOut)
	machine := c.machine
	c.machine = nil
	if c.mode == models.ModeOnboarding {
		c.mode = models.ModeAuthenticating
	}
	c.mu.Unlock()

	if machine != nil {
		machine.Close()
		c.logger.InfoContext(ctx, "onboarding abandoned")
	}
	if len(events) > 0 {
		c.logger.InfoContext(ctx, "logged out")
	}
	c.emit(events)
}

// EndSession force-terminates session after a failed verification. Outcomes for a
// session that is no longer live are discarded.
func (c *Controller) EndSession(session *models.Session, outcome models.Outcome) {
	c.mu.Lock()
	if !c.session.Matches(session) {
		c.mu.Unlock()
		c.logger.Info("discarding verification outcome for a stale session",
			"account_handle", session.AccountHandle,
			"reason", outcome.Reason,
		)
		return
	}
	events := c.endSessionLocked(string(outcome.Reason), models.EventForcedLogout, outcome.Message)
	c.mu.Unlock()

	c.logger.Warn("session terminated by continuous verification",
		"account_handle", session.AccountHandle,
		"reason", outcome.Reason,
	)
	c.emit(events)
}

// Remind asks the user for a fresh capture when the live session has none.
func (c *Controller) Remind(session *models.Session, outcome models.Outcome) {
	if !c.IsCurrent(session) {
		return
	}
	c.emit([]models.Event{c.event(models.EventCaptureRequested, outcome.Message, session.AccountHandle)})
}

// Close tears the controller down: verification stops, the session is cleared and every
// capture lease is released. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	events := c.endSessionLocked(endTeardown, models.EventSessionEnded, models.MessageLoggedOut)
	machine, release := c.machine, c.release
	c.machine, c.release = nil, nil
	c.scheduler.Cancel()
	c.stop()
	c.mu.Unlock()

	if machine != nil {
		machine.Close()
	}
	if release != nil {
		release()
	}
	c.emit(events)
}

// endSessionLocked clears the session and stops verification. It returns the event to
// publish once the lock is released, or nil if there was no session.
func (c *Controller) endSessionLocked(reason string, kind models.EventKind, message string) []models.Event {
	c.scheduler.Cancel()
	if c.session == nil {
		return nil
	}
	handle := c.session.AccountHandle
	c.session = nil
	c.slot.Clear()
	if c.mode == models.ModeActive {
		c.mode = models.ModeAuthenticating
	}
	c.metrics.SessionEnded(reason)
	return []models.Event{c.event(kind, message, handle)}
}

func (c *Controller) acquireCamera(ctx context.Context) error {
	c.mu.Lock()
	held := c.release != nil
	c.mu.Unlock()
	if held {
		return nil
	}

	release, err := c.deps.Camera.Acquire(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeCaptureUnavailable, "capture device unavailable")
	}

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		release()
		return errClosed()
	case c.mode == models.ModeOnboarding:
		c.mu.Unlock()
		release()
		return dErrors.New(dErrors.CodeInvalidState, "onboarding owns the capture device")
	case c.release != nil:
		c.mu.Unlock()
		release()
		return nil
	}
	c.release = release
	c.mu.Unlock()
	return nil
}

func (c *Controller) event(kind models.EventKind, message, accountHandle string) models.Event {
	return models.Event{Kind: kind, Message: message, AccountHandle: accountHandle, At: c.now()}
}

func (c *Controller) emit(events []models.Event) {
	if len(events) == 0 {
		return
	}
	c.mu.Lock()
	handlers := append([]func(models.Event){}, c.handlers...)
	c.mu.Unlock()
	for _, e := range events {
		for _, h := range handlers {
			h(e)
		}
	}
}

func errClosed() error {
	return dErrors.New(dErrors.CodeInvalidState, "controller is closed")
}

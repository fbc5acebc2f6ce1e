// Package verifier runs continuous face verification for the live session.
package verifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"facebank/internal/auth/models"
	"facebank/internal/bank/envelope"
	"facebank/internal/face"
	"facebank/internal/platform/metrics"
	"facebank/internal/platform/tracer"
)

//go:generate mockgen -source=verifier.go -destination=mocks/mocks.go -package=mocks FaceVerifier

// DefaultInterval is the time between verification ticks.
const DefaultInterval = 15 * time.Second

// FaceVerifier resubmits a face sample against a session.
type FaceVerifier interface {
	VerifyFace(ctx context.Context, token, accountHandle string, sample face.Sample) (envelope.Result, error)
}

// SampleSource yields the most recent face sample.
type SampleSource interface {
	Latest() (face.Sample, bool)
}

// SessionKeeper owns the live session. The scheduler asks it whether a session is still
// current and tells it to end the session or remind the user.
type SessionKeeper interface {
	IsCurrent(session *models.Session) bool
	EndSession(session *models.Session, outcome models.Outcome)
	Remind(session *models.Session, outcome models.Outcome)
}

// TickSource returns a tick channel and a stop func.
type TickSource func(interval time.Duration) (<-chan time.Time, func())

func tickerSource(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// Scheduler runs one verification loop at a time. Start replaces any running loop;
// after Cancel returns no further tick begins. A tick already submitting when the loop
// is cancelled completes, and the keeper decides whether its outcome still applies.
type Scheduler struct {
	mu         sync.Mutex
	generation uint64
	running    bool
	cancel     context.CancelFunc

	verifier FaceVerifier
	samples  SampleSource
	keeper   SessionKeeper
	interval time.Duration
	ticks    TickSource
	logger   *slog.Logger
	tracer   tracer.Tracer
	metrics  *metrics.Metrics
}

type Option func(*Scheduler)

// WithInterval overrides the tick interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithTickSource replaces the wall-clock ticker.
func WithTickSource(ticks TickSource) Option {
	return func(s *Scheduler) {
		if ticks != nil {
			s.ticks = ticks
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Scheduler) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func New(verifier FaceVerifier, samples SampleSource, keeper SessionKeeper, opts ...Option) (*Scheduler, error) {
	if verifier == nil || samples == nil || keeper == nil {
		return nil, fmt.Errorf("verifier, samples, and keeper are required")
	}
	s := &Scheduler{
		verifier: verifier,
		samples:  samples,
		keeper:   keeper,
		interval: DefaultInterval,
		ticks:    tickerSource,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Start begins verifying session, cancelling any loop already running.
func (s *Scheduler) Start(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}

	s.mu.Lock()
	s.stopLocked()
	s.generation++
	gen := s.generation
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	ticks, stop := s.ticks(s.interval)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "continuous verification started",
		"account_handle", session.AccountHandle,
		"interval", s.interval.String(),
	)
	go s.loop(loopCtx, gen, session, ticks, stop)
	return nil
}

// Cancel stops the running loop. It is idempotent and never waits for an in-flight tick,
// so it is safe to call from the keeper while a tick is ending the session.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.generation++
}

// Running reports whether a loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
}

func (s *Scheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

// finish marks the loop for gen stopped unless a newer loop replaced it.
func (s *Scheduler) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.stopLocked()
	}
}

func (s *Scheduler) loop(ctx context.Context, gen uint64, session *models.Session, ticks <-chan time.Time, stop func()) {
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			if !s.current(gen) {
				return
			}
			outcome := s.RunOnce(context.WithoutCancel(ctx), session)
			if outcome.Fatal() || outcome.Reason == models.ReasonNoSession {
				s.finish(gen)
				return
			}
		}
	}
}

// RunOnce performs a single verification tick for session.
func (s *Scheduler) RunOnce(ctx context.Context, session *models.Session) (outcome models.Outcome) {
	if session == nil || !s.keeper.IsCurrent(session) {
		outcome = models.Rejected(models.ReasonNoSession, "")
		s.metrics.IncrementVerificationTicks(outcome.Label())
		return outcome
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyTick,
		tracer.String(tracer.AttrAccount, tracer.HashAccount(session.AccountHandle)),
	)
	defer func() {
		span.SetAttributes(tracer.String(tracer.AttrOutcome, outcome.Label()))
		span.End(nil)
		s.metrics.IncrementVerificationTicks(outcome.Label())
	}()

	sample, ok := s.samples.Latest()
	if !ok {
		outcome = models.Rejected(models.ReasonMissingSample, models.MessageCaptureReminder)
		s.logger.InfoContext(ctx, "no face sample for continuous verification", "account_handle", session.AccountHandle)
		s.keeper.Remind(session, outcome)
		return outcome
	}

	res, err := s.verifier.VerifyFace(ctx, session.Token, session.AccountHandle, sample)
	switch {
	case err != nil:
		outcome = models.Rejected(models.ReasonTransportError, models.MessageVerificationFailed)
		s.logger.WarnContext(ctx, "continuous verification failed", "account_handle", session.AccountHandle, "error", err)
	case !res.OK:
		outcome = models.Rejected(models.ReasonServerRejected, models.MessageUnidentifiedUser)
		s.logger.WarnContext(ctx, "continuous verification rejected",
			"account_handle", session.AccountHandle,
			"status", res.Status,
			"message", res.Message,
		)
	default:
		return models.Approved()
	}

	s.keeper.EndSession(session, outcome)
	return outcome
}

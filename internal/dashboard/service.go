// Package dashboard runs the operations available to a live session: transfers and PIN
// changes, which spend a fresh face sample, and account reads, which fall back to the
// last good value while the bank is unreachable.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"facebank/internal/auth/models"
	"facebank/internal/bank/envelope"
	bankModels "facebank/internal/bank/models"
	"facebank/internal/face"
	"facebank/internal/platform/metrics"
	"facebank/internal/platform/tracer"
	dErrors "facebank/pkg/domain-errors"
	"facebank/pkg/platform/circuit"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Bank

// Bank is the subset of the remote service the dashboard uses.
type Bank interface {
	Transfer(ctx context.Context, token, fromAccount, toAccount string, amount float64, sample face.Sample) (envelope.Result, error)
	ChangePin(ctx context.Context, email, newPin string, sample face.Sample) (envelope.Result, error)
	ListTransactions(ctx context.Context, token, accountHandle string) (envelope.Result, error)
	UserInfo(ctx context.Context, token, accountHandle string) (envelope.Result, error)
}

// Sessions exposes the live session and its face samples.
type Sessions interface {
	Session() (models.Session, bool)
	IsCurrent(session *models.Session) bool
	Samples() *face.Slot
}

// Service is safe for concurrent use.
type Service struct {
	bank     Bank
	sessions Sessions
	breaker  *circuit.Breaker
	cache    *readCache
	logger   *slog.Logger
	tracer   tracer.Tracer
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBreaker replaces the read-path circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		if b != nil {
			s.breaker = b
		}
	}
}

func New(bank Bank, sessions Sessions, opts ...Option) (*Service, error) {
	if bank == nil || sessions == nil {
		return nil, fmt.Errorf("bank and sessions are required")
	}
	s := &Service{
		bank:     bank,
		sessions: sessions,
		breaker:  circuit.New("dashboard_reads"),
		cache:    &readCache{},
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

// Transfer sends amount from the live account to toAccount, proven by the pending face
// sample. The sample is taken before the request and handed back if the bank refuses
// or cannot be reached.
func (s *Service) Transfer(ctx context.Context, toAccount string, amount float64) (receipt Receipt, err error) {
	toAccount = strings.TrimSpace(toAccount)
	switch {
	case toAccount == "":
		return Receipt{}, dErrors.New(dErrors.CodeValidation, "destination account is required")
	case math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0:
		return Receipt{}, dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}
	session, sample, err := s.prepare()
	if err != nil {
		return Receipt{}, err
	}

	ctx, span := s.start(ctx, bankModels.OpTransfer, session)
	defer func() {
		span.End(err)
		s.metrics.IncrementDashboardOperations(bankModels.OpTransfer, result(err))
	}()

	res, err := s.bank.Transfer(ctx, session.Token, session.AccountHandle, toAccount, amount, sample)
	if err = s.settle(ctx, &session, sample, res, err, MessageTransferFailed); err != nil {
		return Receipt{}, err
	}
	s.logger.InfoContext(ctx, "transfer completed", "account_handle", session.AccountHandle)
	return Receipt{
		Message:       res.MessageOr(MessageTransferSucceeded),
		TransactionID: res.String("transaction_id"),
	}, nil
}

// ChangePin replaces the PIN of the account registered under email.
func (s *Service) ChangePin(ctx context.Context, email, newPin string) (receipt Receipt, err error) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return Receipt{}, dErrors.New(dErrors.CodeValidation, "email is required")
	case newPin == "":
		return Receipt{}, dErrors.New(dErrors.CodeValidation, "new PIN is required")
	}
	session, sample, err := s.prepare()
	if err != nil {
		return Receipt{}, err
	}

	ctx, span := s.start(ctx, bankModels.OpChangePin, session)
	defer func() {
		span.End(err)
		s.metrics.IncrementDashboardOperations(bankModels.OpChangePin, result(err))
	}()

	res, err := s.bank.ChangePin(ctx, email, newPin, sample)
	if err = s.settle(ctx, &session, sample, res, err, MessagePinChangeFailed); err != nil {
		return Receipt{}, err
	}
	s.logger.InfoContext(ctx, "pin changed", "account_handle", session.AccountHandle)
	return Receipt{Message: res.MessageOr(MessagePinChanged)}, nil
}

// Transactions returns the live account's transaction history.
func (s *Service) Transactions(ctx context.Context) (Transactions, error) {
	session, ok := s.sessions.Session()
	if !ok {
		return Transactions{}, errNoSession()
	}
	history, stale, err := read[bankModels.TransactionHistory](ctx, s, session, bankModels.OpListTransactions,
		func(ctx context.Context) (envelope.Result, error) {
			return s.bank.ListTransactions(ctx, session.Token, session.AccountHandle)
		})
	if err != nil {
		return Transactions{}, err
	}
	return Transactions{TransactionHistory: history, Stale: stale}, nil
}

// Profile returns the account holder's name and balance.
func (s *Service) Profile(ctx context.Context) (Profile, error) {
	session, ok := s.sessions.Session()
	if !ok {
		return Profile{}, errNoSession()
	}
	profile, stale, err := read[bankModels.Profile](ctx, s, session, bankModels.OpUserInfo,
		func(ctx context.Context) (envelope.Result, error) {
			return s.bank.UserInfo(ctx, session.Token, session.AccountHandle)
		})
	if err != nil {
		return Profile{}, err
	}
	return Profile{Profile: profile, Stale: stale}, nil
}

// Overview loads the profile and the transaction history concurrently.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var (
		profile      Profile
		transactions Transactions
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.Profile(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = s.Transactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return Overview{
		Profile:      profile.Profile,
		Transactions: transactions.TransactionHistory,
		Stale:        profile.Stale || transactions.Stale,
	}, nil
}

// prepare checks there is a live session and takes the fresh face sample for it.
func (s *Service) prepare() (models.Session, face.Sample, error) {
	session, ok := s.sessions.Session()
	if !ok {
		return models.Session{}, face.Sample{}, errNoSession()
	}
	sample, ok := s.sessions.Samples().Take()
	if !ok {
		return models.Session{}, face.Sample{}, dErrors.New(dErrors.CodeCaptureUnavailable, MessageCaptureFirst)
	}
	return session, sample, nil
}

// settle turns a mutation response into an error, discarding it when the session
// changed while the request was in flight. A refused or failed request returns the
// sample to the slot; on success the cached reads for the session are dropped.
func (s *Service) settle(ctx context.Context, session *models.Session, sample face.Sample, res envelope.Result, err error, fallback string) error {
	switch {
	case !s.sessions.IsCurrent(session):
		s.logger.InfoContext(ctx, "discarding result for an ended session", "account_handle", session.AccountHandle)
		err = dErrors.New(dErrors.CodeSessionEnded, MessageSessionEnded)
	case err != nil:
	case !res.OK:
		err = dErrors.New(dErrors.CodeRejected, res.MessageOr(fallback))
	default:
		s.cache.invalidate(session.Token)
		return nil
	}
	s.sessions.Samples().Restore(sample)
	return err
}

func (s *Service) start(ctx context.Context, op string, session models.Session) (context.Context, tracer.Span) {
	return s.tracer.Start(ctx, tracer.SpanDashboard,
		tracer.String(tracer.AttrOperation, op),
		tracer.String(tracer.AttrAccount, tracer.HashAccount(session.AccountHandle)),
	)
}

// read fetches through the circuit breaker. While the circuit is open, or when a call
// fails with the circuit open, the session's last good value is returned as stale.
func read[T any](ctx context.Context, s *Service, session models.Session, op string, fetch func(context.Context) (envelope.Result, error)) (out T, stale bool, err error) {
	ctx, span := s.start(ctx, op, session)
	defer func() {
		span.SetAttributes(tracer.Bool(tracer.AttrStale, stale))
		span.End(err)
	}()

	fallback := func(cause error) (T, bool, error) {
		if !s.sessions.IsCurrent(&session) {
			return out, false, dErrors.New(dErrors.CodeSessionEnded, MessageSessionEnded)
		}
		if cached, ok := s.cache.get(session.Token, op); ok {
			s.metrics.IncrementBreakerFallbacks(op)
			s.logger.WarnContext(ctx, "serving cached account data",
				"operation", op,
				"circuit", s.breaker.Name(),
			)
			return cached.(T), true, nil
		}
		return out, false, cause
	}

	if !s.breaker.Allow() {
		return fallback(dErrors.New(dErrors.CodeTransport, MessageBankUnavailable))
	}

	res, err := fetch(ctx)
	if err == nil && res.Status >= 500 {
		err = dErrors.New(dErrors.CodeTransport, res.MessageOr(MessageBankUnavailable))
	}
	if err != nil {
		useFallback, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.ErrorContext(ctx, "circuit breaker opened", "circuit", s.breaker.Name(), "error", err)
		}
		if useFallback {
			return fallback(err)
		}
		return out, false, err
	}
	if change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "circuit breaker closed", "circuit", s.breaker.Name())
	}

	if !s.sessions.IsCurrent(&session) {
		return out, false, dErrors.New(dErrors.CodeSessionEnded, MessageSessionEnded)
	}
	if !res.OK {
		return out, false, dErrors.New(dErrors.CodeRejected, res.MessageOr(MessageReadFailed))
	}
	if err := res.Decode(&out); err != nil {
		return out, false, dErrors.Wrap(err, dErrors.CodeRejected, envelope.MessageUnreadable)
	}
	s.cache.put(session.Token, op, out)
	return out, false, nil
}

func result(err error) string {
	if err == nil {
		return "success"
	}
	return string(dErrors.CodeOf(err))
}

func errNoSession() error {
	return dErrors.New(dErrors.CodeSessionEnded, "no live session")
}

// readCache keeps the last good read per operation for one session. Values for any
// other session are dropped as soon as a new session reads or writes.
type readCache struct {
	mu      sync.Mutex
	token   string
	entries map[string]any
}

func (c *readCache) get(token, op string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != token {
		return nil, false
	}
	v, ok := c.entries[op]
	return v, ok
}

func (c *readCache) put(token, op string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != token || c.entries == nil {
		c.token = token
		c.entries = make(map[string]any)
	}
	c.entries[op] = v
}

func (c *readCache) invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.entries = nil
	}
}

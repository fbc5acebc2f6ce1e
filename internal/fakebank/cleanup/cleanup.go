package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RegistrationStore exposes cleanup for onboarding registrations whose code expired
// before it was confirmed.
type RegistrationStore interface {
	DeleteExpiredRegistrations(now time.Time) (int, error)
}

// Result summarizes the deletions performed by a cleanup run.
type Result struct {
	DeletedRegistrations int
}

// Service periodically removes expired registrations.
type Service struct {
	registrations RegistrationStore
	interval      time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures Service.
type Option func(*Service)

// WithInterval overrides the cleanup interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(registrations RegistrationStore, opts ...Option) (*Service, error) {
	if registrations == nil {
		return nil, fmt.Errorf("registration store is required")
	}
	svc := &Service{
		registrations: registrations,
		interval:      time.Minute,
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs cleanup periodically until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "registration cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single cleanup pass.
func (s *Service) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	deleted, err := s.registrations.DeleteExpiredRegistrations(s.now())
	if err != nil {
		return res, fmt.Errorf("delete expired registrations: %w", err)
	}
	res.DeletedRegistrations = deleted
	if deleted > 0 {
		s.logger.DebugContext(ctx, "expired registrations removed", "count", deleted)
	}
	return res, nil
}

// Package service establishes sessions from a combined credential and face check.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"facebank/internal/auth/models"
	"facebank/internal/bank/envelope"
	"facebank/internal/face"
	"facebank/internal/platform/metrics"
	"facebank/internal/platform/tracer"
	dErrors "facebank/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks LoginClient

// LoginClient submits credentials and a face sample to the bank.
type LoginClient interface {
	Login(ctx context.Context, accountHandle, pin string, sample face.Sample) (envelope.Result, error)
}

// MessageLoginFailed is used when the service rejects a login without a message.
const MessageLoginFailed = "Login failed"

// Authenticator performs a single login attempt. It never retries.
type Authenticator struct {
	client  LoginClient
	logger  *slog.Logger
	tracer  tracer.Tracer
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Authenticator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(a *Authenticator) {
		if t != nil {
			a.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Authenticator) {
		a.metrics = m
	}
}

func New(client LoginClient, opts ...Option) (*Authenticator, error) {
	if client == nil {
		return nil, fmt.Errorf("login client is required")
	}
	a := &Authenticator{
		client: client,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Authenticate returns a Session bound to accountHandle when the service accepts both
// the credentials and the face sample. Missing inputs fail before any request is sent.
func (a *Authenticator) Authenticate(ctx context.Context, accountHandle, pin string, sample face.Sample) (session *models.Session, err error) {
	accountHandle = strings.TrimSpace(accountHandle)
	switch {
	case accountHandle == "":
		return nil, dErrors.New(dErrors.CodeValidation, "account number is required")
	case pin == "":
		return nil, dErrors.New(dErrors.CodeValidation, "PIN is required")
	case sample.IsZero():
		return nil, dErrors.New(dErrors.CodeValidation, "face sample is required")
	}

	ctx, span := a.tracer.Start(ctx, tracer.SpanAuthenticate,
		tracer.String(tracer.AttrAccount, tracer.HashAccount(accountHandle)),
	)
	defer func() {
		span.End(err)
		a.metrics.IncrementLogins(loginResult(err))
	}()

	res, err := a.client.Login(ctx, accountHandle, pin, sample)
	if err != nil {
		a.logger.WarnContext(ctx, "login transport failure", "account_handle", accountHandle, "error", err)
		return nil, err
	}
	token := res.String("session_token")
	if !res.OK || token == "" {
		a.logger.InfoContext(ctx, "login rejected", "account_handle", accountHandle, "status", res.Status)
		return nil, dErrors.New(dErrors.CodeRejected, res.MessageOr(MessageLoginFailed))
	}

	a.logger.InfoContext(ctx, "session established", "account_handle", accountHandle)
	return &models.Session{
		Token:         token,
		AccountHandle: accountHandle,
		StartedAt:     a.now(),
	}, nil
}

func loginResult(err error) string {
	if err == nil {
		return "success"
	}
	return string(dErrors.CodeOf(err))
}

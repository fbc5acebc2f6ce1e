// Package fakebank is an in-memory development double of the remote banking service.
// It reproduces the service's wire contract, including API-gateway style envelopes
// whose body is a JSON string.
package fakebank

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"facebank/internal/bank/models"
	"facebank/internal/platform/middleware"
	"facebank/pkg/platform/httputil"
)

const (
	defaultCodeTTL        = 10 * time.Minute
	defaultTokenTTL       = time.Hour
	defaultInitialBalance = 1000_00
)

// Config configures a Server.
type Config struct {
	SigningKey string
	BcryptCost int
	// DevMode exposes /dev endpoints (last code per email, liveness toggles).
	DevMode  bool
	TokenTTL time.Duration
}

// Generator produces codes, account handles, or PINs.
type Generator func() (string, error)

// Server serves the bank API.
type Server struct {
	store  *Store
	tokens *TokenService
	logger *slog.Logger
	now    func() time.Time

	codes    Generator
	accounts Generator
	pins     Generator

	codeTTL        time.Duration
	bcryptCost     int
	devMode        bool
	initialBalance int64

	mu        sync.Mutex
	rejected  map[string]struct{}
	lastCodes map[string]string
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGenerators replaces the random code, account handle, and PIN generators.
// Nil generators keep the default.
func WithGenerators(codes, accounts, pins Generator) Option {
	return func(s *Server) {
		if codes != nil {
			s.codes = codes
		}
		if accounts != nil {
			s.accounts = accounts
		}
		if pins != nil {
			s.pins = pins
		}
	}
}

// WithClock overrides the time source used for code expiry and tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
			s.tokens.now = now
		}
	}
}

func WithStore(store *Store) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

func New(cfg Config, opts ...Option) (*Server, error) {
	if cfg.SigningKey == "" {
		return nil, fmt.Errorf("signing key is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	s := &Server{
		store:          NewStore(),
		tokens:         NewTokenService(cfg.SigningKey, cfg.TokenTTL),
		logger:         slog.Default(),
		now:            time.Now,
		codes:          digits(6),
		accounts:       prefixed("ACC", digits(8)),
		pins:           digits(4),
		codeTTL:        defaultCodeTTL,
		bcryptCost:     cfg.BcryptCost,
		devMode:        cfg.DevMode,
		initialBalance: defaultInitialBalance,
		rejected:       make(map[string]struct{}),
		lastCodes:      make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Store exposes the underlying state, for the cleanup worker and tests.
func (s *Server) Store() *Store {
	return s.store
}

// Router builds the chi router for the bank API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))

	r.Get(models.PathHealth, s.handleHealth)

	r.Post(models.PathSendCode, s.handleSendCode)
	r.Post(models.PathConfirmCode, s.handleConfirmCode)
	r.Post(models.PathEnrollFace, s.handleEnrollFace)
	r.Post(models.PathLogin, s.handleLogin)
	r.Post(models.PathChangePin, s.handleChangePin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireBearer(s.tokens, s.logger))
		r.Post(models.PathVerifyFace, s.handleVerifyFace)
		r.Post(models.PathTransfer, s.handleTransfer)
		r.Get(models.PathTransactions, s.handleTransactions)
		r.Get(models.PathUserInfo, s.handleUserInfo)
	})

	if s.devMode {
		r.Route("/dev", func(r chi.Router) {
			r.Get("/otp", s.handleDevCode)
			r.Post("/liveness", s.handleDevLiveness)
			r.Post("/reject-face", s.handleDevRejectFace)
		})
	}
	return r
}

// RejectFace makes every face check with exactly this encoded sample fail.
func (s *Server) RejectFace(sample string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[sample] = struct{}{}
}

// SetLive toggles face checks for an account.
func (s *Server) SetLive(accountHandle string, live bool) error {
	return s.store.SetLive(accountHandle, live)
}

// LastCode returns the most recent code sent to email. Only populated in dev mode.
func (s *Server) LastCode(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.lastCodes[normalizeEmail(email)]
	return code, ok
}

func (s *Server) faceAccepted(acc *Account, sample string) bool {
	return sample != "" && acc.Live && !s.isRejected(sample)
}

// writeEnvelope answers 200 with the real status and payload wrapped as
// {"statusCode": n, "body": "<json>"}.
func writeEnvelope(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, message("internal error"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"statusCode": status,
		"body":       string(body),
	})
}

func message(msg string) map[string]any {
	return map[string]any{"message": msg}
}

func failure(msg string) map[string]any {
	return map[string]any{"success": false, "message": msg}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, httputil.MaxBodyBytes)).Decode(v)
}

func digits(n int) Generator {
	return func() (string, error) {
		out := make([]byte, n)
		for i := range out {
			d, err := rand.Int(rand.Reader, big.NewInt(10))
			if err != nil {
				return "", err
			}
			out[i] = byte('0' + d.Int64())
		}
		return string(out), nil
	}
}

func prefixed(prefix string, gen Generator) Generator {
	return func() (string, error) {
		v, err := gen()
		if err != nil {
			return "", err
		}
		return prefix + v, nil
	}
}

// Sequence yields values in order and then keeps repeating the last one.
func Sequence(values ...string) Generator {
	var mu sync.Mutex
	next := 0
	return func() (string, error) {
		if len(values) == 0 {
			return "", fmt.Errorf("empty sequence")
		}
		mu.Lock()
		defer mu.Unlock()
		v := values[next]
		if next < len(values)-1 {
			next++
		}
		return v, nil
	}
}

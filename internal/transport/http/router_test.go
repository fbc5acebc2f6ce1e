package httptransport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"facebank/internal/auth/device"
	"facebank/internal/auth/models"
	"facebank/internal/auth/service"
	"facebank/internal/auth/workers/verifier"
	"facebank/internal/bank/client"
	"facebank/internal/capture"
	"facebank/internal/controller"
	"facebank/internal/dashboard"
	"facebank/internal/fakebank"
	"facebank/internal/onboarding"
	"facebank/internal/platform/health"
	"facebank/internal/platform/logger"
	"facebank/internal/platform/metrics"
	"facebank/pkg/platform/httputil"
)

const (
	chromeMac    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	firefoxLinux = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

type BridgeSuite struct {
	suite.Suite
	bank       *fakebank.Server
	controller *controller.Controller
	router     http.Handler
}

func TestBridgeSuite(t *testing.T) {
	suite.Run(t, new(BridgeSuite))
}

func (s *BridgeSuite) SetupTest() {
	log := logger.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var err error
	s.bank, err = fakebank.New(fakebank.Config{SigningKey: "bridge-key", BcryptCost: bcrypt.MinCost, DevMode: true},
		fakebank.WithLogger(log),
		fakebank.WithGenerators(fakebank.Sequence("123456"), fakebank.Sequence("ACC1"), fakebank.Sequence("4321")),
	)
	s.Require().NoError(err)
	server := httptest.NewServer(s.bank.Router())
	s.T().Cleanup(server.Close)
	s.Require().NoError(s.bank.Store().CreateAccount(&fakebank.Account{Handle: "ACC2", Name: "Bob", Email: "b@x.com", Live: true}))

	bankClient, err := client.New(client.Config{BaseURL: server.URL}, client.WithLogger(log), client.WithMetrics(m))
	s.Require().NoError(err)
	auth, err := service.New(bankClient, service.WithLogger(log))
	s.Require().NoError(err)
	camera, err := capture.NewDevice(capture.NewScriptedProvider([]byte("alice-face")), capture.WithLogger(log))
	s.Require().NoError(err)

	s.controller, err = controller.New(controller.Deps{
		Registrar:     bankClient,
		Authenticator: auth,
		Verifier:      bankClient,
		Camera:        camera,
	},
		controller.WithLogger(log),
		controller.WithMetrics(m),
		controller.WithSchedulerOptions(verifier.WithInterval(time.Hour)),
	)
	s.Require().NoError(err)
	s.T().Cleanup(s.controller.Close)

	dash, err := dashboard.New(bankClient, s.controller, dashboard.WithLogger(log), dashboard.WithMetrics(m))
	s.Require().NoError(err)

	checks := health.New("test")
	checks.RegisterCheck("bank", bankClient.Health)

	h := New(s.controller, dash, device.NewBinder(true), log)
	s.router = NewRouter(h, checks, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), log)
}

func (s *BridgeSuite) do(method, path string, body any, userAgent string) *httptest.ResponseRecorder {
	reader := bytes.NewReader(nil)
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *BridgeSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *BridgeSuite) enroll() onboarding.EnrollmentResult {
	rec := s.do(http.MethodPost, "/onboarding", nil, chromeMac)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/onboarding/claim", map[string]string{"name": "Alice", "email": "a@x.com"}, chromeMac)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var step onboardingResponse
	s.decode(rec, &step)
	s.Equal(onboarding.StateCodePending, step.State)

	rec = s.do(http.MethodPost, "/onboarding/code", map[string]string{"otp": "123456"}, chromeMac)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &step)
	s.Equal(onboarding.StateFaceCapture, step.State)

	rec = s.do(http.MethodPost, "/onboarding/face", nil, chromeMac)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("no-store", rec.Header().Get("Cache-Control"))
	var result onboarding.EnrollmentResult
	s.decode(rec, &result)
	return result
}

func (s *BridgeSuite) login(handle, pin, userAgent string) {
	rec := s.do(http.MethodPost, "/auth", nil, userAgent)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/face", nil, userAgent)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/session", map[string]string{"account_number": handle, "pin": pin}, userAgent)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *BridgeSuite) TestOnboardLoginAndTransfer() {
	enrolled := s.enroll()
	s.Equal("ACC1", enrolled.AccountHandle)
	s.Equal("4321", enrolled.Pin)

	s.login(enrolled.AccountHandle, enrolled.Pin, chromeMac)

	rec := s.do(http.MethodGet, "/session", nil, chromeMac)
	var session sessionResponse
	s.decode(rec, &session)
	s.Equal(models.ModeActive, session.Mode)
	s.Equal("ACC1", session.AccountNumber)
	s.True(session.VerificationRunning)

	rec = s.do(http.MethodGet, "/events", nil, chromeMac)
	var events eventsResponse
	s.decode(rec, &events)
	kinds := make([]models.EventKind, 0, len(events.Events))
	for _, e := range events.Events {
		kinds = append(kinds, e.Kind)
	}
	s.Contains(kinds, models.EventSessionStarted)

	rec = s.do(http.MethodGet, "/dashboard", nil, chromeMac)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var overview dashboard.Overview
	s.decode(rec, &overview)
	s.Equal("Alice", overview.Profile.Name)
	s.Equal("1000.00", overview.Profile.Balance.String())

	s.Run("transfer needs a fresh sample", func() {
		rec := s.do(http.MethodPost, "/dashboard/transfers", map[string]any{"to_account": "ACC2", "amount": 10}, chromeMac)
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		var body httputil.ErrorResponse
		s.decode(rec, &body)
		s.Equal("capture_unavailable", body.Error)
		s.True(body.Recoverable)
	})

	rec = s.do(http.MethodPost, "/face", nil, chromeMac)
	s.Require().Equal(http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/dashboard/transfers", map[string]any{"to_account": "ACC2", "amount": 10}, chromeMac)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var receipt dashboard.Receipt
	s.decode(rec, &receipt)
	s.Equal("Transfer successful", receipt.Message)
	s.NotEmpty(receipt.TransactionID)

	rec = s.do(http.MethodGet, "/dashboard", nil, chromeMac)
	s.decode(rec, &overview)
	s.Equal("990.00", overview.Profile.Balance.String())
	s.Require().Len(overview.Transactions.Sent, 1)
	s.Equal("ACC2", overview.Transactions.Sent[0].ToAccount)

	rec = s.do(http.MethodDelete, "/session", nil, chromeMac)
	s.Equal(http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/session", nil, chromeMac)
	session = sessionResponse{}
	s.decode(rec, &session)
	s.Equal(models.ModeAuthenticating, session.Mode)
	s.Empty(session.AccountNumber)

	rec = s.do(http.MethodGet, "/dashboard", nil, chromeMac)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *BridgeSuite) TestDashboardBoundToLoginDevice() {
	enrolled := s.enroll()
	s.login(enrolled.AccountHandle, enrolled.Pin, chromeMac)

	rec := s.do(http.MethodGet, "/dashboard", nil, firefoxLinux)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/dashboard", nil, chromeMac)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *BridgeSuite) TestOnboardingErrors() {
	s.Run("no onboarding in progress", func() {
		rec := s.do(http.MethodGet, "/onboarding", nil, "")
		s.Equal(http.StatusNotFound, rec.Code)
	})

	rec := s.do(http.MethodPost, "/onboarding", nil, "")
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.Run("step out of order", func() {
		rec := s.do(http.MethodPost, "/onboarding/code", map[string]string{"otp": "123456"}, "")
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("missing claim fields", func() {
		rec := s.do(http.MethodPost, "/onboarding/claim", map[string]string{"name": "Alice"}, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("wrong code is rejected by the bank", func() {
		rec := s.do(http.MethodPost, "/onboarding/claim", map[string]string{"name": "Alice", "email": "a@x.com"}, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		rec = s.do(http.MethodPost, "/onboarding/code", map[string]string{"otp": "000000"}, "")
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		var body httputil.ErrorResponse
		s.decode(rec, &body)
		s.Equal("Invalid OTP", body.Description)

		rec = s.do(http.MethodGet, "/onboarding", nil, "")
		var step onboardingResponse
		s.decode(rec, &step)
		s.Equal(onboarding.StateCodePending, step.State)
		s.Equal("a@x.com", step.Email)
	})

	s.Run("login refused while onboarding", func() {
		rec := s.do(http.MethodPost, "/session", map[string]string{"account_number": "ACC1", "pin": "4321"}, "")
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *BridgeSuite) TestChangePinValidation() {
	rec := s.do(http.MethodPost, "/dashboard/pin", map[string]string{"email": "a@x.com", "new_pin": "12ab"}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *BridgeSuite) TestRejectsNonJSONBodies() {
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader("account_number=ACC1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnsupportedMediaType, rec.Code)
}

func (s *BridgeSuite) TestMetricsAndHealth() {
	rec := s.do(http.MethodGet, "/health/ready", nil, "")
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	s.do(http.MethodPost, "/onboarding", nil, "")
	s.do(http.MethodPost, "/onboarding/claim", map[string]string{"name": "Alice", "email": "a@x.com"}, "")

	rec = s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "facebank_bank_requests_total")
}

func (s *BridgeSuite) TestLogoutWithoutSession() {
	rec := s.do(http.MethodDelete, "/session", nil, "")
	s.Equal(http.StatusNoContent, rec.Code)
}

var _ Controller = (*controller.Controller)(nil)

func TestNew_SubscribesToEvents(t *testing.T) {
	c := &stubController{}
	h := New(c, nil, nil, nil)
	c.handler(models.Event{Kind: models.EventCaptureRequested})

	events, _ := h.events.Drain()
	if len(events) != 1 || events[0].Kind != models.EventCaptureRequested {
		t.Fatalf("unexpected events: %+v", events)
	}
}

type stubController struct {
	Controller
	handler func(models.Event)
}

func (c *stubController) Subscribe(handler func(models.Event)) { c.handler = handler }

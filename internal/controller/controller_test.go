package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"facebank/internal/auth/models"
	"facebank/internal/auth/workers/verifier"
	verifierMocks "facebank/internal/auth/workers/verifier/mocks"
	"facebank/internal/bank/envelope"
	"facebank/internal/capture"
	"facebank/internal/controller/mocks"
	"facebank/internal/face"
	onboardingMocks "facebank/internal/onboarding/mocks"
	"facebank/internal/platform/logger"
	"facebank/internal/platform/metrics"
	dErrors "facebank/pkg/domain-errors"
)

const waitFor = 2 * time.Second

// manualTicks gives every verification loop its own unbuffered channel.
type manualTicks struct {
	mu    sync.Mutex
	chans []chan time.Time
}

func (m *manualTicks) source(time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan time.Time)
	m.chans = append(m.chans, ch)
	return ch, func() {}
}

func (m *manualTicks) latest() chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chans[len(m.chans)-1]
}

func (m *manualTicks) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chans)
}

// tick delivers one tick to the newest loop and fails if nothing takes it.
func (m *manualTicks) tick(t *testing.T) {
	t.Helper()
	select {
	case m.latest() <- time.Now():
	case <-time.After(waitFor):
		t.Fatal("tick was not taken by the verification loop")
	}
}

type recorder struct {
	events chan models.Event
}

func newRecorder() *recorder {
	return &recorder{events: make(chan models.Event, 32)}
}

func (r *recorder) handle(e models.Event) {
	r.events <- e
}

func (r *recorder) next(t *testing.T) models.Event {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(waitFor):
		t.Fatal("no event published")
		return models.Event{}
	}
}

func (r *recorder) drain() []models.Event {
	var out []models.Event
	for {
		select {
		case e := <-r.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

type ControllerSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	auth     *mocks.MockAuthenticator
	verifier *verifierMocks.MockFaceVerifier
	provider *capture.ScriptedProvider
	device   *capture.Device
	ticks    *manualTicks
	events   *recorder
	metrics  *metrics.Metrics
	c        *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.auth = mocks.NewMockAuthenticator(s.ctrl)
	s.verifier = verifierMocks.NewMockFaceVerifier(s.ctrl)
	s.provider = capture.NewScriptedProvider([]byte("frame-1"), []byte("frame-2"), []byte("frame-3"))
	s.ticks = &manualTicks{}
	s.events = newRecorder()
	s.metrics = metrics.New(prometheus.NewRegistry())

	var err error
	s.device, err = capture.NewDevice(s.provider, capture.WithLogger(logger.Discard()))
	s.Require().NoError(err)

	s.c, err = New(Deps{
		Registrar:     onboardingMocks.NewMockRegistrar(s.ctrl),
		Authenticator: s.auth,
		Verifier:      s.verifier,
		Camera:        s.device,
	},
		WithLogger(logger.Discard()),
		WithMetrics(s.metrics),
		WithSchedulerOptions(verifier.WithTickSource(s.ticks.source)),
	)
	s.Require().NoError(err)
	s.c.Subscribe(s.events.handle)
}

func (s *ControllerSuite) TearDownTest() {
	s.c.Close()
}

func session(token, handle string) *models.Session {
	return &models.Session{Token: token, AccountHandle: handle, StartedAt: time.Now()}
}

// login captures a face and authenticates, leaving one drained event stream.
func (s *ControllerSuite) login(token, handle string) models.Session {
	s.Require().NoError(s.c.BeginAuthentication(s.ctx))
	_, err := s.c.CaptureFace(s.ctx)
	s.Require().NoError(err)
	s.auth.EXPECT().Authenticate(gomock.Any(), handle, "4321", gomock.Any()).Return(session(token, handle), nil)

	got, err := s.c.Authenticate(s.ctx, handle, "4321")
	s.Require().NoError(err)
	s.events.drain()
	return got
}

// expectVerify expects times verifications for token and signals each one on the
// returned channel after it has answered.
func (s *ControllerSuite) expectVerify(token string, res envelope.Result, times int) <-chan struct{} {
	called := make(chan struct{}, times)
	s.verifier.EXPECT().VerifyFace(gomock.Any(), token, "ACC1", gomock.Any()).
		DoAndReturn(func(context.Context, string, string, face.Sample) (envelope.Result, error) {
			defer func() { called <- struct{}{} }()
			return res, nil
		}).Times(times)
	return called
}

func (s *ControllerSuite) await(ch <-chan struct{}) {
	select {
	case <-ch:
	case <-time.After(waitFor):
		s.FailNow("verifier was not called")
	}
}

func (s *ControllerSuite) TestNewRequiresDeps() {
	_, err := New(Deps{})
	s.Error(err)
}

func (s *ControllerSuite) TestStartsAuthenticating() {
	s.Equal(models.ModeAuthenticating, s.c.Mode())
	_, ok := s.c.Session()
	s.False(ok)
	s.False(s.c.VerificationRunning())
}

func (s *ControllerSuite) TestAuthenticate_Success() {
	s.Require().NoError(s.c.BeginAuthentication(s.ctx))
	s.True(s.provider.IsOpen())

	sample, err := s.c.CaptureFace(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.EventFaceCaptured, s.events.next(s.T()).Kind)

	s.auth.EXPECT().Authenticate(gomock.Any(), "ACC1", "4321", sample).Return(session("tok-1", "ACC1"), nil)
	got, err := s.c.Authenticate(s.ctx, "ACC1", "4321")
	s.Require().NoError(err)

	s.Equal("tok-1", got.Token)
	s.Equal(models.ModeActive, s.c.Mode())
	s.True(s.c.VerificationRunning())

	event := s.events.next(s.T())
	s.Equal(models.EventSessionStarted, event.Kind)
	s.Equal("ACC1", event.AccountHandle)

	_, pending := s.c.Samples().Pending()
	s.False(pending, "login spends the sample")
	latest, ok := s.c.Samples().Latest()
	s.True(ok, "spent sample still feeds continuous verification")
	s.Equal(sample.ID, latest.ID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ActiveSessions))
}

func (s *ControllerSuite) TestAuthenticate_RejectedKeepsSample() {
	s.Require().NoError(s.c.BeginAuthentication(s.ctx))
	_, err := s.c.CaptureFace(s.ctx)
	s.Require().NoError(err)

	s.auth.EXPECT().Authenticate(gomock.Any(), "ACC1", "0000", gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeRejected, "Invalid credentials"))

	_, err = s.c.Authenticate(s.ctx, "ACC1", "0000")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRejected))
	s.Equal(models.ModeAuthenticating, s.c.Mode())
	s.False(s.c.VerificationRunning())

	_, pending := s.c.Samples().Pending()
	s.True(pending)
}

func (s *ControllerSuite) TestAuthenticate_RejectedDuringOnboarding() {
	_, err := s.c.BeginOnboarding(s.ctx)
	s.Require().NoError(err)

	_, err = s.c.Authenticate(s.ctx, "ACC1", "4321")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	_, err = s.c.CaptureFace(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ControllerSuite) TestVerificationRejectionForcesLogout() {
	s.login("tok-1", "ACC1")
	s.verifier.EXPECT().VerifyFace(gomock.Any(), "tok-1", "ACC1", gomock.Any()).
		Return(envelope.Result{OK: false, Status: 200, Message: "Face does not match"}, nil)

	s.ticks.tick(s.T())

	event := s.events.next(s.T())
	s.Equal(models.EventForcedLogout, event.Kind)
	s.Equal(models.MessageUnidentifiedUser, event.Message)

	_, ok := s.c.Session()
	s.False(ok)
	s.False(s.c.VerificationRunning())
	s.Equal(models.ModeAuthenticating, s.c.Mode())
	_, ok = s.c.Samples().Latest()
	s.False(ok, "samples are cleared with the session")
}

func (s *ControllerSuite) TestVerificationTransportErrorForcesLogout() {
	s.login("tok-1", "ACC1")
	s.verifier.EXPECT().VerifyFace(gomock.Any(), "tok-1", "ACC1", gomock.Any()).
		Return(envelope.Result{}, dErrors.New(dErrors.CodeTransport, "bank unreachable"))

	s.ticks.tick(s.T())

	event := s.events.next(s.T())
	s.Equal(models.EventForcedLogout, event.Kind)
	s.Equal(models.MessageVerificationFailed, event.Message)
	s.False(s.c.VerificationRunning())
}

func (s *ControllerSuite) TestVerificationApprovedKeepsSession() {
	s.login("tok-1", "ACC1")
	called := s.expectVerify("tok-1", envelope.Result{OK: true, Status: 200}, 2)

	s.ticks.tick(s.T())
	s.await(called)
	s.ticks.tick(s.T())
	s.await(called)

	got, ok := s.c.Session()
	s.True(ok)
	s.Equal("tok-1", got.Token)
	s.True(s.c.VerificationRunning())
	s.Empty(s.events.drain())
}

func (s *ControllerSuite) TestMissingSampleOnlyReminds() {
	s.Require().NoError(s.c.BeginAuthentication(s.ctx))
	s.auth.EXPECT().Authenticate(gomock.Any(), "ACC1", "4321", face.Sample{}).Return(session("tok-1", "ACC1"), nil)
	_, err := s.c.Authenticate(s.ctx, "ACC1", "4321")
	s.Require().NoError(err)
	s.events.drain()

	s.ticks.tick(s.T())

	event := s.events.next(s.T())
	s.Equal(models.EventCaptureRequested, event.Kind)
	s.Equal(models.MessageCaptureReminder, event.Message)
	_, ok := s.c.Session()
	s.True(ok)
	s.True(s.c.VerificationRunning())
}

func (s *ControllerSuite) TestRelogReplacesSession() {
	s.login("tok-1", "ACC1")
	loops := s.ticks.count()

	s.login("tok-2", "ACC1")
	s.Equal(loops+1, s.ticks.count())

	got, _ := s.c.Session()
	s.Equal("tok-2", got.Token)

	// Only the new session is verified.
	called := s.expectVerify("tok-2", envelope.Result{OK: true, Status: 200}, 1)
	s.ticks.tick(s.T())
	s.await(called)
}

func (s *ControllerSuite) TestStaleOutcomeIsDiscarded() {
	s.login("tok-2", "ACC1")

	s.c.EndSession(session("tok-1", "ACC1"), models.Rejected(models.ReasonServerRejected, models.MessageUnidentifiedUser))

	got, ok := s.c.Session()
	s.True(ok)
	s.Equal("tok-2", got.Token)
	s.Empty(s.events.drain())
}

func (s *ControllerSuite) TestLogout() {
	s.login("tok-1", "ACC1")

	s.c.Logout(s.ctx)
	event := s.events.next(s.T())
	s.Equal(models.EventSessionEnded, event.Kind)
	s.Equal(models.MessageLoggedOut, event.Message)
	s.False(s.c.VerificationRunning())
	s.Equal(models.ModeAuthenticating, s.c.Mode())

	s.c.Logout(s.ctx)
	s.Empty(s.events.drain(), "logout without a session is a no-op")
	s.Equal(0.0, testutil.ToFloat64(s.metrics.ActiveSessions))
}

func (s *ControllerSuite) TestBeginOnboardingEndsSessionAndReleasesCamera() {
	s.login("tok-1", "ACC1")
	s.True(s.provider.IsOpen())

	machine, err := s.c.BeginOnboarding(s.ctx)
	s.Require().NoError(err)
	s.NotNil(machine)

	s.Equal(models.ModeOnboarding, s.c.Mode())
	s.Equal(models.EventSessionEnded, s.events.next(s.T()).Kind)
	s.False(s.c.VerificationRunning())
	s.False(s.provider.IsOpen(), "controller lease released for onboarding")

	current, ok := s.c.Onboarding()
	s.True(ok)
	s.Same(machine, current)

	s.Require().NoError(s.c.BeginAuthentication(s.ctx))
	s.Equal(models.ModeAuthenticating, s.c.Mode())
	_, ok = s.c.Onboarding()
	s.False(ok)
	s.True(s.provider.IsOpen())
}

func (s *ControllerSuite) TestLogoutAbandonsOnboarding() {
	machine, err := s.c.BeginOnboarding(s.ctx)
	s.Require().NoError(err)

	s.c.Logout(s.ctx)

	s.Equal(models.ModeAuthenticating, s.c.Mode())
	_, ok := s.c.Onboarding()
	s.False(ok)
	_, err = machine.SubmitClaim(s.ctx, "Alice", "a@x.com")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), "abandoned machine accepts no more steps")

	s.login("tok-1", "ACC1")
	s.Equal(models.ModeActive, s.c.Mode())
}

func (s *ControllerSuite) TestCaptureUnavailable() {
	s.provider.OpenErr = errors.New("no camera")

	s.NoError(s.c.BeginAuthentication(s.ctx), "camera failure is not fatal")
	_, err := s.c.CaptureFace(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeCaptureUnavailable))
}

func (s *ControllerSuite) TestClose() {
	s.login("tok-1", "ACC1")

	s.c.Close()
	s.Equal(models.EventSessionEnded, s.events.next(s.T()).Kind)
	s.False(s.c.VerificationRunning())
	s.False(s.provider.IsOpen())

	s.c.Close()
	_, err := s.c.Authenticate(s.ctx, "ACC1", "4321")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	_, err = s.c.BeginOnboarding(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ControllerSuite) TestHandlersMayCallBack() {
	s.login("tok-1", "ACC1")
	done := make(chan models.Mode, 1)
	s.c.Subscribe(func(e models.Event) {
		if e.Kind == models.EventForcedLogout {
			done <- s.c.Mode()
		}
	})
	s.verifier.EXPECT().VerifyFace(gomock.Any(), "tok-1", "ACC1", gomock.Any()).
		Return(envelope.Result{OK: false, Status: 401}, nil)

	s.ticks.tick(s.T())

	select {
	case mode := <-done:
		s.Equal(models.ModeAuthenticating, mode)
	case <-time.After(waitFor):
		s.FailNow("handler did not run")
	}
}

package controller

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"facebank/internal/auth/models"
	"facebank/internal/auth/service"
	"facebank/internal/auth/workers/verifier"
	"facebank/internal/bank/client"
	"facebank/internal/capture"
	"facebank/internal/fakebank"
	"facebank/internal/onboarding"
	"facebank/internal/platform/logger"
	"facebank/internal/platform/metrics"
)

// Full journey against the in-memory bank: register, log in, then lose liveness.
func TestEndToEnd_OnboardLoginForcedLogout(t *testing.T) {
	ctx := context.Background()
	log := logger.Discard()
	m := metrics.New(prometheus.NewRegistry())

	bank, err := fakebank.New(fakebank.Config{SigningKey: "e2e-key", BcryptCost: bcrypt.MinCost, DevMode: true},
		fakebank.WithLogger(log),
		fakebank.WithGenerators(fakebank.Sequence("123456"), fakebank.Sequence("ACC1"), fakebank.Sequence("4321")),
	)
	require.NoError(t, err)
	server := httptest.NewServer(bank.Router())
	t.Cleanup(server.Close)

	bankClient, err := client.New(client.Config{BaseURL: server.URL}, client.WithLogger(log), client.WithMetrics(m))
	require.NoError(t, err)
	auth, err := service.New(bankClient, service.WithLogger(log), service.WithMetrics(m))
	require.NoError(t, err)
	provider := capture.NewScriptedProvider([]byte("alice-face"))
	device, err := capture.NewDevice(provider, capture.WithLogger(log))
	require.NoError(t, err)

	ticks := &manualTicks{}
	c, err := New(Deps{
		Registrar:     bankClient,
		Authenticator: auth,
		Verifier:      bankClient,
		Camera:        device,
	},
		WithLogger(log),
		WithMetrics(m),
		WithSchedulerOptions(verifier.WithTickSource(ticks.source)),
	)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	events := newRecorder()
	c.Subscribe(events.handle)

	machine, err := c.BeginOnboarding(ctx)
	require.NoError(t, err)
	_, err = machine.SubmitClaim(ctx, "Alice", "a@x.com")
	require.NoError(t, err)
	_, err = machine.ConfirmCode(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, onboarding.StateFaceCapture, machine.State())
	enrolled, err := machine.EnrollFace(ctx)
	require.NoError(t, err)
	require.Equal(t, "ACC1", enrolled.AccountHandle)
	require.Equal(t, "4321", enrolled.Pin)
	require.Equal(t, onboarding.StateComplete, machine.State())

	require.NoError(t, c.BeginAuthentication(ctx))
	_, err = c.CaptureFace(ctx)
	require.NoError(t, err)
	session, err := c.Authenticate(ctx, enrolled.AccountHandle, enrolled.Pin)
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, models.ModeActive, c.Mode())
	require.True(t, c.VerificationRunning())

	ticks.tick(t)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.VerificationTicks.WithLabelValues("approved")) == 1
	}, waitFor, 10*time.Millisecond)
	_, ok := c.Session()
	require.True(t, ok)

	require.NoError(t, bank.SetLive("ACC1", false))
	events.drain()
	ticks.tick(t)

	event := events.next(t)
	require.Equal(t, models.EventForcedLogout, event.Kind)
	require.Equal(t, models.MessageUnidentifiedUser, event.Message)
	_, ok = c.Session()
	require.False(t, ok)
	require.False(t, c.VerificationRunning())
	require.Equal(t, models.ModeAuthenticating, c.Mode())
}

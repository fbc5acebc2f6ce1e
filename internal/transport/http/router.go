// Package httptransport is the local JSON bridge the UI talks to. It delegates to the
// controller, the onboarding machine and the dashboard without business logic of its own.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"facebank/internal/auth/device"
	"facebank/internal/auth/models"
	"facebank/internal/dashboard"
	"facebank/internal/face"
	"facebank/internal/onboarding"
	"facebank/internal/platform/health"
	"facebank/internal/platform/middleware"
)

// Controller is the session controller surface the bridge drives.
type Controller interface {
	Mode() models.Mode
	Session() (models.Session, bool)
	VerificationRunning() bool
	Onboarding() (*onboarding.Machine, bool)
	BeginOnboarding(ctx context.Context) (*onboarding.Machine, error)
	BeginAuthentication(ctx context.Context) error
	CaptureFace(ctx context.Context) (face.Sample, error)
	Authenticate(ctx context.Context, accountHandle, pin string) (models.Session, error)
	Logout(ctx context.Context)
	Subscribe(handler func(models.Event))
}

// Dashboard runs operations for the live session.
type Dashboard interface {
	Overview(ctx context.Context) (dashboard.Overview, error)
	Transfer(ctx context.Context, toAccount string, amount float64) (dashboard.Receipt, error)
	ChangePin(ctx context.Context, email, newPin string) (dashboard.Receipt, error)
}

// Handler serves the bridge endpoints.
type Handler struct {
	controller Controller
	dashboard  Dashboard
	binder     *device.Binder
	events     *EventQueue
	logger     *slog.Logger
}

// New subscribes the handler's event queue to controller events.
func New(controller Controller, dash Dashboard, binder *device.Binder, logger *slog.Logger) *Handler {
	if binder == nil {
		binder = device.NewBinder(false)
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		controller: controller,
		dashboard:  dash,
		binder:     binder,
		events:     NewEventQueue(defaultEventCapacity),
		logger:     logger,
	}
	controller.Subscribe(h.events.Push)
	return h
}

// Register mounts the bridge routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/session", h.HandleGetSession)
	r.Post("/session", h.HandleLogin)
	r.Delete("/session", h.HandleLogout)

	r.Post("/onboarding", h.HandleBeginOnboarding)
	r.Get("/onboarding", h.HandleGetOnboarding)
	r.Post("/onboarding/claim", h.HandleSubmitClaim)
	r.Post("/onboarding/code", h.HandleConfirmCode)
	r.Post("/onboarding/face", h.HandleEnrollFace)

	r.Post("/auth", h.HandleBeginAuthentication)
	r.Post("/face", h.HandleCaptureFace)
	r.Get("/events", h.HandleEvents)

	r.Group(func(r chi.Router) {
		r.Use(h.requireBoundDevice)
		r.Get("/dashboard", h.HandleOverview)
		r.Post("/dashboard/transfers", h.HandleTransfer)
		r.Post("/dashboard/pin", h.HandleChangePin)
	})
}

// NewRouter wires the bridge, health checks and the metrics endpoint.
func NewRouter(h *Handler, checks *health.Handler, metricsHandler http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	if checks != nil {
		checks.Register(r)
	}
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	h.Register(r)
	return r
}

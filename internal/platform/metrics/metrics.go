package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the client core.
type Metrics struct {
	BankRequests        *prometheus.CounterVec
	BankRequestDuration *prometheus.HistogramVec

	Logins         *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	SessionsEnded  *prometheus.CounterVec

	VerificationTicks *prometheus.CounterVec

	OnboardingTransitions *prometheus.CounterVec
	DashboardOperations   *prometheus.CounterVec
	BreakerFallbacks      *prometheus.CounterVec
}

// New registers collectors on reg. Passing nil uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		BankRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facebank_bank_requests_total",
			Help: "Total number of remote bank requests by operation and normalized outcome",
		}, []string{"operation", "outcome"}),
		BankRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "facebank_bank_request_duration_ms",
			Help:    "Duration of remote bank requests in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"operation"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facebank_logins_total",
			Help: "Total number of authentication attempts by result",
		}, []string{"result"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "facebank_active_sessions",
			Help: "Number of live sessions (0 or 1 per controller)",
		}),
		SessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facebank_sessions_ended_total",
			Help: "Total number of sessions ended by reason",
		}, []string{"reason"}),
		VerificationTicks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facebank_verification_ticks_total",
			Help: "Continuous verification ticks by outcome",
		}, []string{"outcome"}),
		OnboardingTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facebank_onboarding_transitions_total",
			Help: "Onboarding state transitions by target state",
		}, []string{"state"}),
		DashboardOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facebank_dashboard_operations_total",
			Help: "Sensitive dashboard operations by operation and result",
		}, []string{"operation", "result"}),
		BreakerFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facebank_breaker_fallbacks_total",
			Help: "Dashboard reads served from cache because the circuit was open",
		}, []string{"operation"}),
	}
}

// The helpers below tolerate a nil receiver so components can run without metrics.

func (m *Metrics) ObserveBankRequest(operation, outcome string, durationMs float64) {
	if m == nil {
		return
	}
	m.BankRequests.WithLabelValues(operation, outcome).Inc()
	m.BankRequestDuration.WithLabelValues(operation).Observe(durationMs)
}

func (m *Metrics) IncrementLogins(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(1)
}

func (m *Metrics) SessionEnded(reason string) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(0)
	m.SessionsEnded.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementVerificationTicks(outcome string) {
	if m == nil {
		return
	}
	m.VerificationTicks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementOnboardingTransitions(state string) {
	if m == nil {
		return
	}
	m.OnboardingTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) IncrementDashboardOperations(operation, result string) {
	if m == nil {
		return
	}
	m.DashboardOperations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) IncrementBreakerFallbacks(operation string) {
	if m == nil {
		return
	}
	m.BreakerFallbacks.WithLabelValues(operation).Inc()
}

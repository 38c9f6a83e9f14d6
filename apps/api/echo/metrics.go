package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// login results
const (
	loginSuccess     = "success"
	loginFailure     = "failure"
	loginDeactivated = "deactivated"
	loginLocked      = "locked"
)

// password reset stages
const (
	resetRequested = "requested"
	resetCompleted = "completed"
	resetRejected  = "rejected"
)

// Metrics holds the auth counters exposed on /metrics.
type Metrics struct {
	registry      *prometheus.Registry
	loginTotal    *prometheus.CounterVec
	tokenRejected *prometheus.CounterVec
	passwordReset *prometheus.CounterVec
}

// NewMetrics registers the auth counters & the Go runtime collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Login attempts by trust domain and result.",
		}, []string{"domain", "result"}),
		tokenRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_rejected_total",
			Help: "Bearer tokens rejected by the verifier of a trust domain.",
		}, []string{"domain"}),
		passwordReset: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_password_reset_total",
			Help: "Password reset events by stage.",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		m.loginTotal,
		m.tokenRejected,
		m.passwordReset,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) login(domain, result string) {
	m.loginTotal.WithLabelValues(domain, result).Inc()
}

func (m *Metrics) tokenRejection(domain string) {
	m.tokenRejected.WithLabelValues(domain).Inc()
}

func (m *Metrics) passwordResetStage(stage string) {
	m.passwordReset.WithLabelValues(stage).Inc()
}

func (m *Metrics) handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

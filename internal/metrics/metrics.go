package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus counters for the hub's core operations.
type Metrics struct {
	registry *prometheus.Registry

	WorkspacesCreatedTotal    *prometheus.CounterVec
	WorkspaceTransitionsTotal *prometheus.CounterVec
	OTPIssuedTotal            prometheus.Counter
	OTPValidationsTotal       *prometheus.CounterVec
}

// New constructs a metrics registry and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	workspacesCreatedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workspacehub",
			Subsystem: "registry",
			Name:      "workspaces_created_total",
			Help:      "Total number of workspaces created.",
		},
		[]string{"deployment_type"},
	)
	workspaceTransitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workspacehub",
			Subsystem: "registry",
			Name:      "transitions_total",
			Help:      "Total number of workspace status transitions.",
		},
		[]string{"from", "to"},
	)
	otpIssuedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "workspacehub",
			Subsystem: "otp",
			Name:      "issued_total",
			Help:      "Total number of OTP codes issued.",
		},
	)
	otpValidationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workspacehub",
			Subsystem: "otp",
			Name:      "validations_total",
			Help:      "Total number of OTP validation attempts by result.",
		},
		[]string{"result"},
	)

	registry.MustRegister(
		workspacesCreatedTotal,
		workspaceTransitionsTotal,
		otpIssuedTotal,
		otpValidationsTotal,
	)

	return &Metrics{
		registry:                  registry,
		WorkspacesCreatedTotal:    workspacesCreatedTotal,
		WorkspaceTransitionsTotal: workspaceTransitionsTotal,
		OTPIssuedTotal:            otpIssuedTotal,
		OTPValidationsTotal:       otpValidationsTotal,
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

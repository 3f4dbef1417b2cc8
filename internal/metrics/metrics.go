package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all Prometheus metrics for the backend
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Roster Metrics
	RosterMerges        prometheus.Counter
	RosterMembers       prometheus.Gauge
	RosterPending       prometheus.Gauge
	StatusTransitions   *prometheus.CounterVec
	TransitionsInFlight prometheus.Gauge
	StreamErrorsTotal   *prometheus.CounterVec

	// Telemetry Metrics
	MachinesReporting prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewRegistry registers every metric on reg. Pass prometheus.NewRegistry() in
// tests so repeated construction does not collide.
func NewRegistry(reg *prometheus.Registry) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecodefill_http_requests_total",
				Help: "Total HTTP requests processed by route, method, and status code",
			},
			[]string{"route", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ecodefill_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route", "method"},
		),

		RosterMerges: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecodefill_roster_merges_total",
			Help: "Member list recomputations triggered by stream notifications",
		}),
		RosterMembers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ecodefill_roster_members",
			Help: "Members in the current roster view",
		}),
		RosterPending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ecodefill_roster_pending_members",
			Help: "Members whose effective status is pending",
		}),
		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecodefill_status_transitions_total",
				Help: "Registration status transitions by target status and result",
			},
			[]string{"status", "result"},
		),
		TransitionsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ecodefill_status_transitions_in_flight",
			Help: "Members currently marked busy by a transition",
		}),
		StreamErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecodefill_stream_errors_total",
				Help: "Realtime subscription failures by stream",
			},
			[]string{"stream"},
		),

		MachinesReporting: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ecodefill_machines_reporting",
			Help: "Machines present in the telemetry snapshot",
		}),

		gatherer: reg,
	}
}

// Gatherer exposes the underlying registry for the /metrics handler
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.gatherer
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fde_jobs_created_total",
		Help: "Jobs created by type",
	}, []string{"type"})

	JobTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fde_job_transitions_total",
		Help: "Job status transitions applied by tick",
	}, []string{"type", "status"})

	SimulatedErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fde_simulated_errors_total",
		Help: "Synthetic errors generated by the simulation engine",
	}, []string{"entity", "severity"})

	EntityHealth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fde_entity_health",
		Help: "Current health per entity (0=healthy, 1=noisy, 2=degraded)",
	}, []string{"entity"})

	EntityErrorRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fde_entity_error_rate",
		Help: "Errors in the trailing minute per entity",
	}, []string{"entity"})

	// path is "simulation" or "monitor"
	AlertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fde_alerts_sent_total",
		Help: "Alerts delivered by path and channel",
	}, []string{"path", "channel"})

	AlertsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fde_alerts_failed_total",
		Help: "Alert deliveries that failed by path and channel",
	}, []string{"path", "channel"})

	AlertsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fde_alerts_suppressed_total",
		Help: "Monitor checks that did not pass the alert policy",
	}, []string{"entity"})
)

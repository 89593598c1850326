// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Selection engine metrics. outcome is one of ok, not_found, invalid, error.
var (
	SelectionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_requests_total",
			Help: "Selection requests by mechanism and outcome",
		},
		[]string{"mechanism", "outcome"},
	)

	SelectionCandidatesEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_candidates_evaluated_total",
			Help: "Catalog candidates run through torque matching",
		},
		[]string{"mechanism"},
	)

	SelectionCandidatesExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_candidates_excluded_total",
			Help: "Candidates excluded, by reason",
		},
		[]string{"mechanism", "reason"},
	)

	SelectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "selection_duration_seconds",
			Help:    "End-to-end selection latency including catalog lookups",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"mechanism"},
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_lookups_total",
			Help: "Candidate cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// Exclusion reasons
const (
	ReasonInsufficientTorque = "insufficient_torque"
	ReasonDataIntegrity      = "data_integrity"
	ReasonOverBudget         = "over_budget"
)

// Package metrics holds the Prometheus collectors exported on /metrics.
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
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of jobs currently being handled per worker",
		},
		[]string{"task_type"},
	)

	CardDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_decisions_total",
			Help: "Credit card decisions by outcome and customer relationship",
		},
		[]string{"decision", "relationship"},
	)

	CardHardStops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_hard_stops_total",
			Help: "Hard stops raised per scoring module",
		},
		[]string{"module"},
	)

	CardFinalScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "card_final_score",
			Help:    "Distribution of weighted final scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	DataFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_data_fallbacks_total",
			Help: "Times a data worker served fallback data instead of the source",
		},
		[]string{"source"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_applicant_cache_lookups_total",
			Help: "Applicant cache lookups by result",
		},
		[]string{"result"},
	)

	RiskReviewNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_risk_review_notifications_total",
			Help: "Risk review notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)

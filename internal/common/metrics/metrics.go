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

	Turns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Routed turns by resolved intent and resolution source",
		},
		[]string{"intent", "source"},
	)

	ClassifierCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_classifier_calls_total",
			Help: "Model classifier calls by outcome",
		},
		[]string{"outcome"},
	)

	HandlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_handler_failures_total",
			Help: "Intent handler failures by kind",
		},
		[]string{"intent", "kind"},
	)

	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_handler_duration_seconds",
			Help:    "Duration of intent handler execution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"intent"},
	)

	SessionStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_session_store_errors_total",
			Help: "Session store failures by operation",
		},
		[]string{"op"},
	)

	FAQCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_faq_cache_lookups_total",
			Help: "FAQ answer cache lookups by result",
		},
		[]string{"result"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_notifications_total",
			Help: "Booking notifications by channel and status",
		},
		[]string{"channel", "status"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_http_requests_total",
			Help: "HTTP requests served by route and status code",
		},
		[]string{"route", "status"},
	)
)

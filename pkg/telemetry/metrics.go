package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "erm"

var (
	// ─── API Gateway ─────────────────────────────────────────────────────────────

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total HTTP requests, labelled by method, route pattern and status code.",
	}, []string{"method", "route", "code"})

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	ContactsRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "contacts_rate_limited_total",
		Help:      "Total contact submissions rejected by the per-IP rate limiter.",
	})

	// ─── Tasks ───────────────────────────────────────────────────────────────────

	TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tasks",
		Name:      "created_total",
		Help:      "Total tasks created.",
	})

	TaskStatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tasks",
		Name:      "status_transitions_total",
		Help:      "Total task writes that set a status, labelled by the new status.",
	}, []string{"status"})

	TaskCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tasks",
		Name:      "cache_lookups_total",
		Help:      "Task cache lookups, labelled by result (hit, miss).",
	}, []string{"result"})

	RollupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tasks",
		Name:      "rollups_total",
		Help:      "Project progress recomputations, labelled by result (ok, error, skipped).",
	}, []string{"result"})

	RollupDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tasks",
		Name:      "rollup_duration_seconds",
		Help:      "Time spent recomputing a project's progress, lock wait included.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})

	// ─── Activity log ────────────────────────────────────────────────────────────

	ActivitiesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "activity",
		Name:      "published_total",
		Help:      "Total activity events published to Kafka.",
	}, []string{"type"})

	ActivitiesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "activity",
		Name:      "processed_total",
		Help:      "Activity events consumed by the activity-logger, labelled by type and result.",
	}, []string{"type", "result"})

	ActivityPersistRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "activity",
		Name:      "persist_retries_total",
		Help:      "Total retry attempts while persisting activities.",
	})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "activity",
		Name:      "notifications_total",
		Help:      "Notifications attempted, labelled by notifier and result.",
	}, []string{"notifier", "result"})

	// ─── Reconciler ──────────────────────────────────────────────────────────────

	ReconcilerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "runs_total",
		Help:      "Reconciliation runs, labelled by result (ok, error, follower).",
	}, []string{"result"})

	ReconcilerProjectsRecomputed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "projects_recomputed_total",
		Help:      "Total projects whose progress was recomputed by the reconciler.",
	})

	ReconcilerIsLeader = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "is_leader",
		Help:      "1 when this instance holds reconciler leadership.",
	})
)

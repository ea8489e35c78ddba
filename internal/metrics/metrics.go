package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agbridge_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agbridge_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agbridge_auth_failures_total",
			Help: "Rejected credentials",
		},
		[]string{"surface"}, // "http", "ws", "pair"
	)

	// Domain metrics
	ApprovalsRequested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agbridge_approvals_requested_total",
			Help: "Approval requests created",
		},
		[]string{"kind"},
	)

	ApprovalsDecided = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agbridge_approvals_decided_total",
			Help: "Approval decisions applied",
		},
		[]string{"status"},
	)

	PolicyDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agbridge_policy_denials_total",
			Help: "Commands refused by the policy gate",
		},
		[]string{"reason"},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agbridge_messages_sent_total",
			Help: "Messages accepted by the message bus",
		},
		[]string{"to"},
	)

	// Wake metrics
	WakeAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agbridge_wake_attempts_total",
			Help: "Waker invocations by outcome",
		},
		[]string{"outcome"}, // "ok", "busy", "failed"
	)

	WakeSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agbridge_wake_skipped_total",
			Help: "Wake attempts not started",
		},
		[]string{"reason"}, // "inflight", "throttled", "backoff"
	)

	// Real-time metrics
	ObserversConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agbridge_observers_connected",
			Help: "Currently connected real-time observers",
		},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agbridge_events_dropped_total",
			Help: "Events not delivered to an observer whose queue was full",
		},
	)

	// Persistence metrics
	SnapshotFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agbridge_snapshot_flushes_total",
			Help: "Snapshot writes by result",
		},
		[]string{"result"}, // "ok", "error"
	)

	JournalDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agbridge_journal_dropped_total",
			Help: "Events not journaled because the queue was full",
		},
	)
)

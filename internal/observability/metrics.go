package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lpr",
		Name:      "runs_started_total",
		Help:      "Total number of detection runs started",
	}, []string{"model"})

	RunsCanceled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lpr",
		Name:      "runs_canceled_total",
		Help:      "Total number of detection runs canceled before resolving",
	}, []string{"reason"})

	PlatesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lpr",
		Name:      "plates_detected_total",
		Help:      "Total number of simulated plates returned",
	}, []string{"model"})

	SimulatedProcessing = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lpr",
		Name:      "simulated_processing_seconds",
		Help:      "Simulated processing time of completed runs",
		Buckets:   prometheus.LinearBuckets(0.2, 0.2, 12),
	}, []string{"model"})

	PendingRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lpr",
		Name:      "pending_runs",
		Help:      "Number of detection runs waiting on their simulated delay",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lpr",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lpr",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)

var NotificationsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lpr",
	Name:      "notifications_received_total",
	Help:      "Run notifications consumed from NATS by the audit worker",
}, []string{"kind", "model"})

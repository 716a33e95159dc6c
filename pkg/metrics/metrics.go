package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Gateway metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "Total number of HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter, by window",
		},
		[]string{"window"},
	)

	AuthCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_auth_cache_total",
			Help: "API key cache lookups by outcome (hit, miss, stale)",
		},
		[]string{"outcome"},
	)

	// Circuit breaker metrics
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_breaker_state",
			Help: "Circuit breaker state per downstream (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service"},
	)

	BreakerRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_breaker_rejections_total",
			Help: "Calls rejected by an open circuit breaker",
		},
		[]string{"service"},
	)

	// Ingestion metrics
	LogsAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_logs_accepted_total",
			Help: "Log entries accepted into project queues",
		},
		[]string{"project"},
	)

	LogsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_logs_rejected_total",
			Help: "Log entries rejected during validation, by reason",
		},
		[]string{"reason"},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_queue_depth",
			Help: "Current depth of per-project log queues",
		},
		[]string{"project"},
	)

	// Storage worker metrics
	BatchesStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_batches_stored_total",
			Help: "Total number of log batches committed by storage workers",
		},
	)

	LogsStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_logs_stored_total",
			Help: "Total number of log rows committed by storage workers",
		},
	)

	BatchStoreDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_batch_store_duration_seconds",
			Help:    "Time to commit one log batch in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_batch_retries_total",
			Help: "Log batches retried after a failed commit",
		},
	)

	PartitionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_partitions_created_total",
			Help: "Log table partitions created",
		},
	)

	// Aggregation metrics
	AggregationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_aggregation_runs_total",
			Help: "Aggregation job executions by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	AggregationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_aggregation_duration_seconds",
			Help:    "Aggregation job duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	// Notification metrics
	NotificationsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_notifications_published_total",
			Help: "Error notifications published to project topics",
		},
	)

	SSEClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_sse_clients",
			Help: "Currently connected SSE clients",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(RateLimitRejections)
	prometheus.MustRegister(AuthCacheHits)
	prometheus.MustRegister(BreakerState)
	prometheus.MustRegister(BreakerRejections)
	prometheus.MustRegister(LogsAccepted)
	prometheus.MustRegister(LogsRejected)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(BatchesStored)
	prometheus.MustRegister(LogsStored)
	prometheus.MustRegister(BatchStoreDuration)
	prometheus.MustRegister(BatchRetries)
	prometheus.MustRegister(PartitionsCreated)
	prometheus.MustRegister(AggregationRuns)
	prometheus.MustRegister(AggregationDuration)
	prometheus.MustRegister(NotificationsPublished)
	prometheus.MustRegister(SSEClients)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures a duration for histogram observation
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time into the histogram
func (t *Timer) ObserveDuration(h prometheus.Histogram) {
	h.Observe(t.Duration().Seconds())
}

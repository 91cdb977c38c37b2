package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates Prometheus metrics for the workflow engine.
type Collector struct {
	// Run metrics
	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram
	runsActive  prometheus.Gauge

	// Node metrics
	nodeExecutionsTotal *prometheus.CounterVec
	nodeDuration        *prometheus.HistogramVec

	// Bridge metrics
	bridgeTransfersTotal *prometheus.CounterVec
	bridgeDuration       *prometheus.HistogramVec

	// Notification metrics
	notificationsTotal *prometheus.CounterVec

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates a collector registered on the default registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.DefaultRegisterer, logger)
}

// NewCollectorWithRegistry creates a collector registered on reg. Tests use
// a fresh registry to avoid duplicate registration.
func NewCollectorWithRegistry(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of workflow runs",
		},
		[]string{"status"},
	)

	c.runDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Workflow run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	c.runsActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Number of runs currently in flight (0 or 1)",
		},
	)

	c.nodeExecutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_executions_total",
			Help:      "Total number of node executions",
		},
		[]string{"type", "status"},
	)

	c.nodeDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Node execution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		},
		[]string{"type"},
	)

	c.bridgeTransfersTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_transfers_total",
			Help:      "Total number of bridge transfers",
		},
		[]string{"family", "status"},
	)

	c.bridgeDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bridge_transfer_duration_seconds",
			Help:      "Bridge transfer duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"family"},
	)

	c.notificationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of notification deliveries",
		},
		[]string{"status"},
	)

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	return c
}

// RecordRunStart marks a run as active.
func (c *Collector) RecordRunStart() {
	if c == nil {
		return
	}
	c.runsActive.Inc()
}

// RecordRunEnd records a finished run.
func (c *Collector) RecordRunEnd(status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.runsActive.Dec()
	c.runsTotal.WithLabelValues(status).Inc()
	c.runDuration.Observe(duration.Seconds())
}

// RecordNode records a single node execution.
func (c *Collector) RecordNode(nodeType, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.nodeExecutionsTotal.WithLabelValues(nodeType, status).Inc()
	c.nodeDuration.WithLabelValues(nodeType).Observe(duration.Seconds())
}

// RecordBridgeTransfer records a bridge transfer outcome.
func (c *Collector) RecordBridgeTransfer(family, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.bridgeTransfersTotal.WithLabelValues(family, status).Inc()
	c.bridgeDuration.WithLabelValues(family).Observe(duration.Seconds())
}

// RecordNotification records a notification delivery attempt.
func (c *Collector) RecordNotification(status string) {
	if c == nil {
		return
	}
	c.notificationsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records a served HTTP request. Paths should be
// normalized before recording to keep label cardinality bounded.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

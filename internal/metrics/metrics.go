package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "quest_market",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quest_market",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quest_market",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	questTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quest_market",
			Subsystem: "quests",
			Name:      "transitions_total",
			Help:      "Quest lifecycle operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	questInconsistencies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quest_market",
			Subsystem: "quests",
			Name:      "inconsistencies_total",
			Help:      "Transitions aborted because a referenced user record was missing.",
		},
		[]string{"operation"},
	)

	ledgerAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quest_market",
			Subsystem: "ledger",
			Name:      "amount_total",
			Help:      "Sum of committed ledger amounts by entry type.",
		},
		[]string{"type"},
	)

	reconcileDrift = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "quest_market",
			Subsystem: "ledger",
			Name:      "drifted_users",
			Help:      "Users whose balance disagrees with their ledger at the last reconciliation.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		questTransitions,
		questInconsistencies,
		ledgerAmount,
		reconcileDrift,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition counts a quest operation; err == nil counts as success.
func RecordTransition(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	questTransitions.WithLabelValues(operation, outcome).Inc()
}

// RecordInconsistency counts a transition aborted on missing user data.
func RecordInconsistency(operation string) {
	questInconsistencies.WithLabelValues(operation).Inc()
}

// RecordLedgerAmount adds a committed ledger amount.
func RecordLedgerAmount(entryType string, amount float64) {
	ledgerAmount.WithLabelValues(entryType).Add(amount)
}

// SetDriftedUsers publishes the result of the last reconciliation.
func SetDriftedUsers(n int) {
	reconcileDrift.Set(float64(n))
}

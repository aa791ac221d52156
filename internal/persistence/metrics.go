package persistence

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the persistence collectors. A nil *Metrics records nothing.
type Metrics struct {
	flushes       *prometheus.CounterVec
	flushDuration prometheus.Histogram
	backendCalls  *prometheus.CounterVec
	coalesced     prometheus.Counter
	rejected      prometheus.Counter
	pending       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plotbook",
			Subsystem: "persistence",
			Name:      "flushes_total",
			Help:      "Flush cycles by mode (sync, async) and result (ok, error).",
		}, []string{"mode", "result"}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plotbook",
			Subsystem: "persistence",
			Name:      "flush_duration_seconds",
			Help:      "Wall time of a flush cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plotbook",
			Subsystem: "persistence",
			Name:      "backend_calls_total",
			Help:      "Backend calls by operation and result.",
		}, []string{"operation", "result"}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotbook",
			Subsystem: "persistence",
			Name:      "coalesced_operations_total",
			Help:      "Update operations folded into an earlier update of the same entity.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotbook",
			Subsystem: "persistence",
			Name:      "flush_rejected_total",
			Help:      "Flush requests refused because another flush was in flight.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plotbook",
			Subsystem: "persistence",
			Name:      "pending_operations",
			Help:      "Operations waiting in the log.",
		}),
	}
	reg.MustRegister(m.flushes, m.flushDuration, m.backendCalls, m.coalesced, m.rejected, m.pending)
	return m
}

func (m *Metrics) observeFlush(mode string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.flushes.WithLabelValues(mode, result(err)).Inc()
	m.flushDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeCall(op Operation, err error) {
	if m == nil {
		return
	}
	m.backendCalls.WithLabelValues(Label(op), result(err)).Inc()
}

func (m *Metrics) addCoalesced(n int) {
	if m == nil || n == 0 {
		return
	}
	m.coalesced.Add(float64(n))
}

func (m *Metrics) incRejected() {
	if m == nil {
		return
	}
	m.rejected.Inc()
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RepriceMetrics records decision outcomes and harness throughput.
type RepriceMetrics struct {
	decisions    *prometheus.CounterVec
	repriced     *prometheus.CounterVec
	solutionless prometheus.Counter
	itemFailures *prometheus.CounterVec
	chunkSeconds *prometheus.HistogramVec
}

// NewRepriceMetrics registers the repricing metrics. A nil registerer yields
// a no-op recorder.
func NewRepriceMetrics(reg prometheus.Registerer) *RepriceMetrics {
	if reg == nil {
		return &RepriceMetrics{}
	}
	m := &RepriceMetrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Price decisions by engine and reason code.",
		}, []string{"engine", "reason"}),
		repriced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repriced_total",
			Help:      "Decisions that changed a price.",
		}, []string{"engine"}),
		solutionless: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buybox_solutionless_breaks_total",
			Help:      "Quantity breaks for which the buy-box solver found no solution.",
		}),
		itemFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "harness",
			Name:      "item_failures_total",
			Help:      "Items that failed during a harness run.",
		}, []string{"job"}),
		chunkSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "harness",
			Name:      "chunk_duration_seconds",
			Help:      "Wall time of one chunk.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
	reg.MustRegister(m.decisions, m.repriced, m.solutionless, m.itemFailures, m.chunkSeconds)
	return m
}

// ObserveDecision counts one decision.
func (m *RepriceMetrics) ObserveDecision(engine, reason string, repriced bool) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(engine), normalizeLabel(reason)).Inc()
	if repriced {
		m.repriced.WithLabelValues(normalizeLabel(engine)).Inc()
	}
}

func (m *RepriceMetrics) IncSolutionLess() {
	if m == nil || m.solutionless == nil {
		return
	}
	m.solutionless.Inc()
}

// ItemFailed implements the harness observer.
func (m *RepriceMetrics) ItemFailed(job string) {
	if m == nil || m.itemFailures == nil {
		return
	}
	m.itemFailures.WithLabelValues(normalizeLabel(job)).Inc()
}

// ObserveChunk implements the harness observer.
func (m *RepriceMetrics) ObserveChunk(job string, d time.Duration) {
	if m == nil || m.chunkSeconds == nil {
		return
	}
	m.chunkSeconds.WithLabelValues(normalizeLabel(job)).Observe(d.Seconds())
}

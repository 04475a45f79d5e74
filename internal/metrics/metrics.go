// Package metrics exposes Prometheus collectors for the queue, the domain
// learner, and the capture pipeline, grounded on the teacher's
// render-service Prometheus wiring.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every counter/gauge/histogram the core emits.
type Collector struct {
	QueueDepth      *prometheus.GaugeVec
	ClaimLatency    prometheus.Histogram
	ArmSelections   *prometheus.CounterVec
	DriftSignals    *prometheus.CounterVec
	CaptureDuration *prometheus.HistogramVec
	CaptureTotal    *prometheus.CounterVec
	DeadLetterTotal prometheus.Counter
}

// New builds a Collector and registers it against registerer.
func New(namespace string, registerer prometheus.Registerer) *Collector {
	c := &Collector{
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Number of jobs per status",
		}, []string{"status"}),

		ClaimLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "claim_latency_seconds",
			Help:      "Time between a job becoming available and being claimed",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),

		ArmSelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "learner",
			Name:      "arm_selections_total",
			Help:      "Configurations selected by the bandit, per domain",
		}, []string{"domain", "cold_start"}),

		DriftSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "learner",
			Name:      "drift_signals_total",
			Help:      "Drift detections, per domain",
		}, []string{"domain", "new_block"}),

		CaptureDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "duration_seconds",
			Help:      "Capture pipeline duration",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"result"}),

		CaptureTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "total",
			Help:      "Captures processed, by outcome",
		}, []string{"result"}),

		DeadLetterTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "dead_letter_total",
			Help:      "Jobs moved to the dead letter table",
		}),
	}

	registerer.MustRegister(
		c.QueueDepth, c.ClaimLatency, c.ArmSelections, c.DriftSignals,
		c.CaptureDuration, c.CaptureTotal, c.DeadLetterTotal,
	)
	return c
}

// ObserveQueueDepths pushes a full status->count snapshot, replacing stale
// gauge values for statuses no longer present.
func (c *Collector) ObserveQueueDepths(depths map[string]int) {
	if c == nil {
		return
	}
	c.QueueDepth.Reset()
	for status, count := range depths {
		c.QueueDepth.WithLabelValues(status).Set(float64(count))
	}
}

// RecordClaimLatency observes the time between a job becoming available and
// being claimed. A nil Collector is a no-op, so callers that wire metrics
// optionally don't need to nil-check.
func (c *Collector) RecordClaimLatency(d time.Duration) {
	if c == nil {
		return
	}
	c.ClaimLatency.Observe(d.Seconds())
}

// RecordDeadLetter counts a job exhausting its retry budget.
func (c *Collector) RecordDeadLetter() {
	if c == nil {
		return
	}
	c.DeadLetterTotal.Inc()
}

// RecordArmSelection counts a bandit (or cold-start) configuration pick for
// domain.
func (c *Collector) RecordArmSelection(domain string, coldStart bool) {
	if c == nil {
		return
	}
	c.ArmSelections.WithLabelValues(domain, strconv.FormatBool(coldStart)).Inc()
}

// RecordDriftSignal counts a detected drift for domain, tagging whether the
// same check also surfaced a previously unseen block service.
func (c *Collector) RecordDriftSignal(domain string, newBlock bool) {
	if c == nil {
		return
	}
	c.DriftSignals.WithLabelValues(domain, strconv.FormatBool(newBlock)).Inc()
}

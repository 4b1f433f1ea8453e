// Package metrics holds the Prometheus collectors for the compliance core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ingestion, violation detection and cache behaviour.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	EventsIngested     *prometheus.CounterVec
	EventsRejected     *prometheus.CounterVec
	SubmitDuration     prometheus.Histogram
	ViolationsRecorded *prometheus.CounterVec
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheRebuilds      prometheus.Counter
	CacheInconsistent  prometheus.Counter
	NotifyDropped      prometheus.Counter
	NotifyFailures     prometheus.Counter
	NotifyFallbacks    prometheus.Counter
	SinkCircuitOpen    prometheus.Gauge
}

// New registers the collectors on reg. A nil registerer uses the default one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		EventsIngested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eldcore_events_ingested_total",
			Help: "Duty-status events accepted, by status",
		}, []string{"status"}),
		EventsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eldcore_events_rejected_total",
			Help: "Duty-status events rejected, by error code",
		}, []string{"code"}),
		SubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "eldcore_submit_duration_seconds",
			Help:    "Duration of SubmitEvent including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}),
		ViolationsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eldcore_violations_recorded_total",
			Help: "Violation records appended, by rule and status",
		}, []string{"rule", "status"}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "eldcore_status_cache_hits_total",
			Help: "Status reads served from a fresh cache entry",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "eldcore_status_cache_misses_total",
			Help: "Status reads that found no usable cache entry",
		}),
		CacheRebuilds: f.NewCounter(prometheus.CounterOpts{
			Name: "eldcore_status_cache_rebuilds_total",
			Help: "Projections rebuilt from the event log",
		}),
		CacheInconsistent: f.NewCounter(prometheus.CounterOpts{
			Name: "eldcore_status_cache_inconsistencies_total",
			Help: "Cache entries found ahead of the event log",
		}),
		NotifyDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "eldcore_notifications_dropped_total",
			Help: "Violation notifications dropped because the buffer was full",
		}),
		NotifyFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "eldcore_notification_failures_total",
			Help: "Notification batches the sink failed to deliver",
		}),
		NotifyFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "eldcore_notification_fallbacks_total",
			Help: "Notification batches diverted to the fallback sink",
		}),
		SinkCircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "eldcore_notification_circuit_open",
			Help: "Notification sink circuit state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) IncEventIngested(status string) {
	if m == nil {
		return
	}
	m.EventsIngested.WithLabelValues(status).Inc()
}

func (m *Metrics) IncEventRejected(code string) {
	if m == nil {
		return
	}
	m.EventsRejected.WithLabelValues(code).Inc()
}

// ObserveSubmit records the duration of a SubmitEvent call started at start.
func (m *Metrics) ObserveSubmit(start time.Time) {
	if m == nil {
		return
	}
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncViolation(rule, status string) {
	if m == nil {
		return
	}
	m.ViolationsRecorded.WithLabelValues(rule, status).Inc()
}

func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) IncCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

func (m *Metrics) IncCacheRebuild() {
	if m == nil {
		return
	}
	m.CacheRebuilds.Inc()
}

func (m *Metrics) IncCacheInconsistent() {
	if m == nil {
		return
	}
	m.CacheInconsistent.Inc()
}

func (m *Metrics) IncNotifyDropped() {
	if m == nil {
		return
	}
	m.NotifyDropped.Inc()
}

func (m *Metrics) IncNotifyFailure() {
	if m == nil {
		return
	}
	m.NotifyFailures.Inc()
}

func (m *Metrics) IncNotifyFallback() {
	if m == nil {
		return
	}
	m.NotifyFallbacks.Inc()
}

// SetSinkCircuit reports the notification sink circuit state.
func (m *Metrics) SetSinkCircuit(open bool) {
	if m == nil {
		return
	}
	if open {
		m.SinkCircuitOpen.Set(1)
		return
	}
	m.SinkCircuitOpen.Set(0)
}

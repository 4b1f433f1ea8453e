package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncEventIngested("DRIVING")
	m.IncEventIngested("DRIVING")
	m.IncViolation("DRIVING_LIMIT", "active")
	m.IncCacheInconsistent()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsIngested.WithLabelValues("DRIVING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ViolationsRecorded.WithLabelValues("DRIVING_LIMIT", "active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheInconsistent))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncEventIngested("OFF_DUTY")
		m.IncCacheHit()
		m.IncNotifyDropped()
	})
}

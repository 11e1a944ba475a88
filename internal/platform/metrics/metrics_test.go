package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func TestObserveStore(t *testing.T) {
	m := newTestMetrics()
	m.ObserveStore("application", "upsert", time.Now(), nil)
	m.ObserveStore("application", "upsert", time.Now(), errors.New("lock"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("application", "upsert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("application", "upsert", "error")))
}

func TestCounters(t *testing.T) {
	m := newTestMetrics()
	m.IncrementApplicationsCreated("PSB")
	m.IncrementApplicationsCreated("PSB")
	m.RecordSubmission("PSB", "sent")
	m.RecordIdentityCache(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ApplicationsCreated.WithLabelValues("PSB")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionOutcomes.WithLabelValues("PSB", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityCacheLookups.WithLabelValues("hit")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStore("folder", "get", time.Now(), nil)
		m.IncrementApplicationsCreated("PSB")
		m.IncrementIntegrityErrors()
		m.RecordSubmission("PSB", "sent")
	})
}

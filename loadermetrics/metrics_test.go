package loadermetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectorsAgainstRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewWithNilRegistererStillObserves(t *testing.T) {
	m := New(nil)
	assert.NotPanics(t, func() {
		m.ObserveResolution("source", nil)
		m.ObserveMockDecision(true)
		m.ObserveAutomockDuration(0.1)
		m.ObserveCacheEvent("shape", false)
	})
}

func TestObserveResolutionLabelsOkAndNotFound(t *testing.T) {
	m := New(nil)
	m.ObserveResolution("source", nil)
	m.ObserveResolution("source", errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.resolutionsTotal.WithLabelValues("source", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.resolutionsTotal.WithLabelValues("source", "not_found")))
}

func TestObserveMockDecisionLabelsRealAndMock(t *testing.T) {
	m := New(nil)
	m.ObserveMockDecision(false)
	m.ObserveMockDecision(true)
	m.ObserveMockDecision(true)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.mockDecisionsTotal.WithLabelValues("real")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.mockDecisionsTotal.WithLabelValues("mock")))
}

func TestObserveCacheEventLabelsHitAndMiss(t *testing.T) {
	m := New(nil)
	m.ObserveCacheEvent("shape", true)
	m.ObserveCacheEvent("shape", false)
	m.ObserveCacheEvent("shape", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheEventsTotal.WithLabelValues("shape", "hit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheEventsTotal.WithLabelValues("shape", "miss")))
}

func TestObserveAutomockDurationRecordsSamples(t *testing.T) {
	m := New(nil)
	m.ObserveAutomockDuration(0.05)
	m.ObserveAutomockDuration(0.15)

	var metric dto.Metric
	require.NoError(t, m.automockDuration.Write(&metric))
	assert.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())
}

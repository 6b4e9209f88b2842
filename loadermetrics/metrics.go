// Package loadermetrics is the reference MetricsRecorder collaborator
// Prometheus counters and a histogram covering resolution outcomes,
// mock-policy decisions, cache hit rates, and automock synthesis latency.
// Collector fields live on a struct, are registered once at construction,
// and are incremented from call sites.
package loadermetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/peekjef72/modloader/loader"
)

const namespace = "modloader"

// Metrics is the reference MetricsRecorder implementation.
type Metrics struct {
	resolutionsTotal   *prometheus.CounterVec
	mockDecisionsTotal *prometheus.CounterVec
	cacheEventsTotal   *prometheus.CounterVec
	automockDuration   prometheus.Histogram
}

// New builds a Metrics instance and registers its collectors against reg.
// reg may be nil, in which case prometheus.NewRegistry's default global
// registerer is skipped and the returned Metrics simply observes without
// exposing anything; useful for tests that want the call sites exercised
// without a scrape endpoint.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total module resolutions, labeled by kind and outcome.",
		}, []string{"kind", "outcome"}),
		mockDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mock_decisions_total",
			Help:      "Total should-mock decisions, labeled by outcome.",
		}, []string{"decision"}),
		cacheEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Total cache lookups, labeled by cache name and hit/miss.",
		}, []string{"cache", "result"}),
		automockDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "automock_synthesis_seconds",
			Help:      "Time spent extracting a mock shape and synthesizing a stub.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.resolutionsTotal, m.mockDecisionsTotal, m.cacheEventsTotal, m.automockDuration)
	}

	return m
}

// ObserveResolution implements loader.MetricsRecorder.
func (m *Metrics) ObserveResolution(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "not_found"
	}
	m.resolutionsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveMockDecision implements loader.MetricsRecorder.
func (m *Metrics) ObserveMockDecision(mocked bool) {
	decision := "real"
	if mocked {
		decision = "mock"
	}
	m.mockDecisionsTotal.WithLabelValues(decision).Inc()
}

// ObserveAutomockDuration implements loader.MetricsRecorder.
func (m *Metrics) ObserveAutomockDuration(seconds float64) {
	m.automockDuration.Observe(seconds)
}

// ObserveCacheEvent implements loader.MetricsRecorder.
func (m *Metrics) ObserveCacheEvent(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheEventsTotal.WithLabelValues(cache, result).Inc()
}

var _ loader.MetricsRecorder = (*Metrics)(nil)

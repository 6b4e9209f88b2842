// Package coverage provides the CoverageCollector collaborator.
// Instrumentation itself is out of scope for the loader core; this
// package ships a no-op collector that still
// participates correctly in the Executor's protocol (a real sink object,
// an instrumented-source passthrough, and an empty runtime coverage
// report), so CollectCoverage can be exercised end to end in tests without
// a real instrumenter.
package coverage

import (
	"github.com/peekjef72/modloader/loader"
)

// NoopCollector satisfies loader.CoverageCollector by not instrumenting
// anything; DataStore returns an empty map that the Executor threads
// through to the module as the coverage sink parameter.
type NoopCollector struct {
	filename string
	source   string
	store    map[string]any
}

// NewNoopCollector implements loader.CoverageCollectorFactory.
func NewNoopCollector(source, filename string) loader.CoverageCollector {
	return &NoopCollector{filename: filename, source: source, store: map[string]any{}}
}

// DataStore returns the (empty) coverage sink.
func (c *NoopCollector) DataStore() any { return c.store }

// InstrumentedSource returns the source unchanged; a real instrumenter
// would rewrite it to record hits into sinkName.
func (c *NoopCollector) InstrumentedSource(sinkName string) (string, error) {
	return c.source, nil
}

// RuntimeCoverageInfo returns the (empty) accumulated coverage.
func (c *NoopCollector) RuntimeCoverageInfo() any { return c.store }

var _ loader.CoverageCollector = (*NoopCollector)(nil)

package loader

import (
	"github.com/dop251/goja"

	"github.com/peekjef72/modloader/resourcemap"
)

// Environment is the evaluation sandbox hosting one test file. The shipped
// implementation (package environment) backs this with a real goja.Runtime;
// nothing in this package assumes goja beyond the Value/Object types
// already named in the contract.
type Environment interface {
	// Global returns the environment's global object, or nil once the
	// environment has been torn down.
	Global() *goja.Object
	// Runtime exposes the underlying goja.Runtime for collaborators that
	// need to allocate values or compile/run programs directly.
	Runtime() *goja.Runtime
	// RunSourceText compiles and evaluates source under filename, so stack
	// traces and error messages reference it.
	RunSourceText(source, filename string) (goja.Value, error)
	// FakeTimers returns the timer facility jest.useFakeTimers et al.
	// delegate to.
	FakeTimers() FakeTimers
	// TestFilePath returns the path of the test file this environment was
	// created for.
	TestFilePath() string
	// Dispose tears the environment down; after this, Global returns nil.
	Dispose()
}

// FakeTimers is the timer facility the Runtime API's timer methods
// delegate to. A reference implementation lives in package environment.
type FakeTimers interface {
	UseFake()
	UseReal()
	RunAllTicks()
	RunAllImmediates()
	RunAllTimers()
	RunOnlyPending()
	ClearAll()
}

// Transformer rewrites a module's raw source before evaluation (e.g. a
// JSX/TypeScript-to-JS pass). Out of scope for the core; a passthrough
// implementation lives in package transform.
type Transformer interface {
	Transform(filename string, cfg *Config) (string, error)
}

// ResourceMap is the read-only external index of project files the
// Resolver consults. *resourcemap.Map satisfies it.
type ResourceMap interface {
	GetResource(kind resourcemap.ResourceKind, name string) (*resourcemap.Resource, bool)
	GetResourceByPath(path string) (*resourcemap.Resource, bool)
	GetAllResources() []*resourcemap.Resource
	GetAllResourcesByType(kind resourcemap.ResourceKind) []*resourcemap.Resource
}

// MockSynthesizer extracts a shape descriptor from a real module's exports
// and reconstructs a stub from it. Out of scope for the core; a reference
// implementation lives in package mocksynth.
type MockSynthesizer interface {
	GetMetadata(value goja.Value) (*MockShape, error)
	GenerateFromMetadata(shape *MockShape) (goja.Value, error)
	GetMockFunction() goja.Value
}

// CoverageCollector accumulates per-file instrumented execution data. Out
// of scope for the core; a no-op implementation lives in package coverage.
type CoverageCollector interface {
	DataStore() any
	InstrumentedSource(sinkName string) (string, error)
	RuntimeCoverageInfo() any
}

// CoverageCollectorFactory constructs a CoverageCollector for one file's
// source.
type CoverageCollectorFactory func(source, filename string) CoverageCollector

// MetricsRecorder observes Loader operations for ambient instrumentation.
// Out of scope for the core; a Prometheus-backed implementation lives in
// package loadermetrics. A nil MetricsRecorder is never installed; Loader
// checks its own optional field before calling out, so instrumentation is
// entirely opt-in.
type MetricsRecorder interface {
	ObserveResolution(kind string, err error)
	ObserveMockDecision(mocked bool)
	ObserveAutomockDuration(seconds float64)
	ObserveCacheEvent(cache string, hit bool)
}

package loader

import (
	"time"

	"github.com/dop251/goja"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Automocker implements §4.5: synthesizing a stub for a real module without
// letting that module's own side effects leak into the caller's real-module
// registry, and caching the extracted shape so repeat requests for the same
// real path skip re-executing it.
type Automocker struct {
	loader *Loader
	synth  MockSynthesizer
	shapes *lru.Cache[string, *MockShape]
}

// NewAutomocker binds an Automocker to l and synth.
func NewAutomocker(l *Loader, synth MockSynthesizer) *Automocker {
	shapes, _ := lru.New[string, *MockShape](4096)
	return &Automocker{loader: l, synth: synth, shapes: shapes}
}

// sentinelShape is the placeholder cached under a real path while its
// automock shape is still being extracted, so a module whose own shape
// extraction re-enters Generate for its own path (a mutually-mocked cycle)
// resolves to an empty stub instead of recursing forever (§4.5 step 2, the
// same pre-allocation technique Registry.PreallocateReal uses for real
// modules, §4.3).
var sentinelShape = &MockShape{Kind: ShapeObject, Properties: map[string]*MockShape{}}

// Generate returns an automatically generated stub for realPath.
func (a *Automocker) Generate(realPath string) (goja.Value, error) {
	if shape, ok := a.shapes.Get(realPath); ok {
		if a.loader.metrics != nil {
			a.loader.metrics.ObserveCacheEvent("mockshape", true)
		}
		return a.synth.GenerateFromMetadata(shape)
	}
	if a.loader.metrics != nil {
		a.loader.metrics.ObserveCacheEvent("mockshape", false)
	}

	a.shapes.Add(realPath, sentinelShape)

	start := time.Now()
	exports, err := a.loadIsolated(realPath)
	if err != nil {
		return nil, &MockExtractionError{Path: realPath}
	}

	shape, err := a.synth.GetMetadata(exports)
	if a.loader.metrics != nil {
		a.loader.metrics.ObserveAutomockDuration(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, &MockExtractionError{Path: realPath}
	}
	if shape == nil {
		return nil, &MockExtractionError{Path: realPath}
	}
	a.shapes.Add(realPath, shape)

	return a.synth.GenerateFromMetadata(shape)
}

// loadIsolated swaps in a throwaway Registry for the duration of a real
// require of realPath, so any module it (recursively) requires is neither
// polluted by nor pollutes the caller's real/mock caches (§4.5 step 3).
func (a *Automocker) loadIsolated(realPath string) (goja.Value, error) {
	saved := a.loader.registry
	a.loader.registry = NewRegistry()
	defer func() { a.loader.registry = saved }()

	return a.loader.loadReal(realPath, false)
}

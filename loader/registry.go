package loader

import (
	"sync"

	"github.com/dop251/goja"
)

// RequireFn is the shape of a bound require function attached to a
// ModuleRecord (see §4.6).
type RequireFn func(name string) (goja.Value, error)

// ModuleRecord is one evaluation result of a real module (§3). Its Exports
// field is a mutable slot: a *goja.Object reference, not a copied value, so
// that a module pre-allocated for cycle safety and later filled in by the
// Executor is observed consistently by every requirer holding the record.
type ModuleRecord struct {
	Filename string
	Exports  *goja.Object
	Parent   *ModuleRecord
	Require  RequireFn
	Loaded   bool
}

// sentinelParent is the fixed parent every ModuleRecord reports, per §4.4
// step 5, so modules inspecting module.parent never see undefined.
func newSentinelParent(env Environment) *ModuleRecord {
	g := env.Global()
	var empty *goja.Object
	if g != nil {
		empty = env.Runtime().NewObject()
	}
	return &ModuleRecord{Filename: "", Exports: empty, Loaded: true}
}

// Registry holds the two per-Loader module caches described in §4.3. The
// mock cache is keyed by ModuleID rather than a bare real path: a
// manual-mock-only resource (a __mocks__ file with no real module counterpart)
// resolves with RealPath == "", and two distinct such resources would
// otherwise collide on that empty key.
type Registry struct {
	mu   sync.Mutex
	real map[string]*ModuleRecord
	mock map[ModuleID]goja.Value
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		real: make(map[string]*ModuleRecord),
		mock: make(map[ModuleID]goja.Value),
	}
}

// GetReal returns the cached real ModuleRecord for path, if any.
func (r *Registry) GetReal(path string) (*ModuleRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.real[path]
	return rec, ok
}

// PreallocateReal inserts an empty ModuleRecord for path before the
// Executor runs, so recursive requires for the same path during evaluation
// observe the partially-populated record instead of recursing forever
// (invariant 1, §4.3's "Pre-allocation rule").
func (r *Registry) PreallocateReal(path string, rec *ModuleRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.real[path] = rec
}

// GetMock returns the cached mock exports for id, if any.
func (r *Registry) GetMock(id ModuleID) (goja.Value, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.mock[id]
	return v, ok
}

// SetMock installs mock exports for id.
func (r *Registry) SetMock(id ModuleID, exports goja.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mock[id] = exports
}

// Reset replaces both mappings with empty ones and clears any mock
// functions and timers registered on the environment's global object.
// Explicit overrides and explicit mock slots are NOT touched here; they
// are owned by the Policy, not the Registry (§4.3, §5 ordering guarantee 2).
func (r *Registry) Reset(env Environment) {
	r.mu.Lock()
	r.real = make(map[string]*ModuleRecord)
	r.mock = make(map[ModuleID]goja.Value)
	r.mu.Unlock()

	global := env.Global()
	if global == nil {
		return
	}

	clearMockFunctions(global, env.Runtime())

	if timers := env.FakeTimers(); timers != nil {
		timers.ClearAll()
	}
}

// clearMockFunctions walks the global object's own properties and, for any
// value exposing a resettable mock-function surface (a "mock" property with
// a "calls"/"results" array, the shape this module's own generated mock
// functions use, see mocksynth.Synthesizer.GetMockFunction), clears its recorded calls
// and results in place.
func clearMockFunctions(global *goja.Object, rt *goja.Runtime) {
	for _, key := range global.Keys() {
		val := global.Get(key)
		obj, ok := val.(*goja.Object)
		if !ok {
			continue
		}
		mock := obj.Get("mock")
		mockObj, ok := mock.(*goja.Object)
		if !ok {
			continue
		}
		if _, hasCalls := mockObj.Get("calls").(*goja.Object); hasCalls {
			mockObj.Set("calls", rt.NewArray())
			mockObj.Set("results", rt.NewArray())
		}
	}
}

package loader

import (
	"sync"

	"github.com/dop251/goja"

	"github.com/peekjef72/modloader/resourcemap"
)

// Loader is the top-level façade wiring every collaborator together into
// the public require/mock operations described in §4.7. One Loader serves
// exactly one test file's Environment for its lifetime.
type Loader struct {
	cfg         *Config
	resourceMap ResourceMap
	env         Environment

	registry   *Registry
	resolver   *Resolver
	policy     *Policy
	executor   *Executor
	automocker *Automocker
	require    *RequireBuilder

	depsMu        sync.Mutex
	dependents    map[string][]string
	dependentsErr error

	metrics MetricsRecorder
}

// SetMetricsRecorder installs an optional ambient instrumentation sink;
// nil (the default) disables all recording calls.
func (l *Loader) SetMetricsRecorder(m MetricsRecorder) { l.metrics = m }

// NewLoader wires cfg, rm, and the collaborator implementations into a
// ready-to-use Loader, then installs the bound `require` and `jest` globals
// onto env (§4.6).
func NewLoader(cfg *Config, rm ResourceMap, env Environment, transformer Transformer, synth MockSynthesizer, coverageFactory CoverageCollectorFactory, extraSearchRoots []string) *Loader {
	resolver := NewResolver(cfg, rm, extraSearchRoots)

	l := &Loader{
		cfg:         cfg,
		resourceMap: rm,
		env:         env,
		registry:    NewRegistry(),
		resolver:    resolver,
		policy:      NewPolicy(cfg, resolver),
		executor:    NewExecutor(cfg, transformer, env, coverageFactory),
	}
	l.automocker = NewAutomocker(l, synth)
	l.require = NewRequireBuilder(l)

	if global := env.Global(); global != nil {
		_, testRequire := l.require.Build(env.TestFilePath())
		global.Set("require", testRequire)

		api := NewRuntimeAPI(l)
		jestObj := BindRuntimeAPI(env, api)
		global.Set("jest", jestObj)
		l.executor.SetJestBinding(jestObj)
	}

	return l
}

// RequireModuleOrMock is the decision entry point a bound require() call
// delegates to: resolve, consult the Mock Policy Engine, and dispatch to
// either the mock or real path.
func (l *Loader) RequireModuleOrMock(importerPath, requestedName string) (goja.Value, error) {
	res, err := l.resolver.Resolve(importerPath, requestedName)
	if l.metrics != nil {
		l.metrics.ObserveResolution("dynamic", err)
	}
	if err != nil {
		return nil, err
	}

	if res.Kind == KindCore {
		return l.requireBuiltin(res.RealPath)
	}

	shouldMock, err := l.policy.ShouldMock(importerPath, requestedName, res)
	if err != nil {
		return nil, err
	}
	if l.metrics != nil {
		l.metrics.ObserveMockDecision(shouldMock)
	}
	if shouldMock {
		return l.RequireMock(importerPath, requestedName)
	}
	return l.loadReal(res.RealPath, false)
}

// RequireModule always returns the real module, bypassing the Mock Policy
// Engine entirely (require.requireActual, §4.6).
func (l *Loader) RequireModule(importerPath, requestedName string) (goja.Value, error) {
	res, err := l.resolver.Resolve(importerPath, requestedName)
	if err != nil {
		return nil, err
	}
	if res.Kind == KindCore {
		return l.requireBuiltin(res.RealPath)
	}
	if res.RealPath == "" {
		return nil, &ModuleNotFoundError{Name: requestedName, Importer: importerPath}
	}
	return l.loadReal(res.RealPath, false)
}

// RequireMock always returns a mock (manual, explicit, or generated),
// forcing synthesis if none exists yet (require.requireMock, §4.6).
func (l *Loader) RequireMock(importerPath, requestedName string) (goja.Value, error) {
	res, err := l.resolver.Resolve(importerPath, requestedName)
	if err != nil {
		return nil, err
	}

	if slot, ok := l.policy.MockSlot(res.ID); ok {
		if v, ok := slot.(goja.Value); ok {
			return v, nil
		}
	}

	if cached, ok := l.registry.GetMock(res.ID); ok {
		return cached, nil
	}

	if res.MockPath != "" {
		exports, err := l.loadReal(res.MockPath, true)
		if err != nil {
			return nil, err
		}
		l.registry.SetMock(res.ID, exports)
		return exports, nil
	}

	if res.RealPath == "" {
		return nil, &ModuleNotFoundError{Name: requestedName, Importer: importerPath}
	}

	stub, err := l.automocker.Generate(res.RealPath)
	if err != nil {
		return nil, err
	}
	l.registry.SetMock(res.ID, stub)
	return stub, nil
}

// loadReal returns filename's cached exports, evaluating it first if this
// is the first request for it. manualMock marks a __mocks__ sibling being
// loaded as the substance of a mock, not a real module (§4.4 step 4).
func (l *Loader) loadReal(filename string, manualMock bool) (*goja.Object, error) {
	if rec, ok := l.registry.GetReal(filename); ok {
		return rec.Exports, nil
	}

	rt := l.env.Runtime()
	rec := &ModuleRecord{Filename: filename, Exports: rt.NewObject()}
	l.registry.PreallocateReal(filename, rec)

	requireFn, requireValue := l.require.Build(filename)
	if err := l.executor.Execute(rec, filename, manualMock, requireFn, requireValue); err != nil {
		return nil, err
	}
	return rec.Exports, nil
}

func (l *Loader) requireBuiltin(name string) (goja.Value, error) {
	global := l.env.Global()
	rt := l.env.Runtime()
	fn, ok := goja.AssertFunction(global.Get("require"))
	if !ok {
		return nil, &UnknownModulePathError{Path: name}
	}
	return fn(goja.Undefined(), rt.ToValue(name))
}

// resourceForDependencyQuery looks up the resource indexed at path and
// rejects the kinds GetDependenciesFromPath/GetDependentsFromPath do not
// operate on: a project manifest or an untyped "other" resource has no
// meaningful require graph.
func (l *Loader) resourceForDependencyQuery(path string) (*resourcemap.Resource, error) {
	res, ok := l.resourceMap.GetResourceByPath(path)
	if !ok {
		return nil, &UnknownModulePathError{Path: path}
	}
	switch res.Type {
	case resourcemap.KindProjectConfig, resourcemap.KindOther:
		return nil, ErrInvalidResourceKind
	}
	return res, nil
}

// GetDependenciesFromPath returns the real paths path statically declares
// as requires, derived from the ResourceMap and re-resolved through the
// Resolver.
func (l *Loader) GetDependenciesFromPath(path string) ([]string, error) {
	res, err := l.resourceForDependencyQuery(path)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res.RequiredModules))
	for _, name := range res.RequiredModules {
		resolved, err := l.resolver.Resolve(path, name)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved.RealPath)
	}
	return out, nil
}

// GetDependentsFromPath returns the modules that statically declare path
// as one of their requires, computing and caching the inverse of the
// ResourceMap's declared-require graph on first use.
func (l *Loader) GetDependentsFromPath(path string) ([]string, error) {
	if _, err := l.resourceForDependencyQuery(path); err != nil {
		return nil, err
	}
	dependents, err := l.dependentsIndex()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), dependents[path]...), nil
}

func (l *Loader) dependentsIndex() (map[string][]string, error) {
	l.depsMu.Lock()
	defer l.depsMu.Unlock()
	if l.dependents != nil || l.dependentsErr != nil {
		return l.dependents, l.dependentsErr
	}

	index := map[string][]string{}
	for _, res := range l.resourceMap.GetAllResourcesByType(resourcemap.KindSource) {
		for _, name := range res.RequiredModules {
			resolved, err := l.resolver.Resolve(res.Path, name)
			if err != nil {
				l.dependentsErr = err
				return nil, err
			}
			index[resolved.RealPath] = append(index[resolved.RealPath], res.Path)
		}
	}
	l.dependents = index
	return index, nil
}

// GetAllCoverageInfo returns per-file coverage data for every instrumented
// file executed so far.
func (l *Loader) GetAllCoverageInfo() (map[string]any, error) {
	if !l.cfg.CollectCoverage && len(l.cfg.CollectCoverageOnlyFrom) == 0 {
		return nil, ErrCoverageDisabled
	}
	out := make(map[string]any, len(l.executor.coverageStores))
	for path, c := range l.executor.coverageStores {
		out[path] = c.RuntimeCoverageInfo()
	}
	return out, nil
}

// GetCoverageForFilePath returns one file's coverage data.
func (l *Loader) GetCoverageForFilePath(path string) (any, error) {
	if !l.cfg.CollectCoverage && len(l.cfg.CollectCoverageOnlyFrom) == 0 {
		return nil, ErrCoverageDisabled
	}
	c, ok := l.executor.coverageStores[path]
	if !ok {
		return nil, &UnknownModulePathError{Path: path}
	}
	return c.RuntimeCoverageInfo(), nil
}

// RunTestFile evaluates the Loader's own test file as the initial real
// module, the operation an embedder's test runner drives once per file.
func (l *Loader) RunTestFile() (*goja.Object, error) {
	return l.loadReal(l.env.TestFilePath(), false)
}

// ResetModuleRegistry clears the Registry, per jest.resetModuleRegistry.
// The dependency graph is derived from the ResourceMap, which does not
// change across a reset, so it is left cached.
func (l *Loader) ResetModuleRegistry() {
	l.registry.Reset(l.env)
}

package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
)

// coverageSinkParam is the wrapper parameter name instrumented source
// references for its coverage data sink.
const coverageSinkParam = "__coverage__"

// Executor implements the execute(record) contract of §4.4: turning a
// resolved real module into a populated ModuleRecord by transforming,
// optionally instrumenting, and evaluating its source inside the shared
// Environment.
type Executor struct {
	cfg             *Config
	transformer     Transformer
	env             Environment
	coverageFactory CoverageCollectorFactory
	coverageStores  map[string]CoverageCollector

	jest *goja.Object

	current []executionFrame
}

// SetJestBinding installs the per-environment jest runtime API object the
// module wrapper receives as its jest parameter. Called once during Loader
// construction, after the jest global itself has been built.
func (x *Executor) SetJestBinding(jest *goja.Object) { x.jest = jest }

type executionFrame struct {
	path       string
	manualMock bool
}

// NewExecutor builds an Executor bound to one Environment for the lifetime
// of one test file.
func NewExecutor(cfg *Config, transformer Transformer, env Environment, coverageFactory CoverageCollectorFactory) *Executor {
	return &Executor{
		cfg:             cfg,
		transformer:     transformer,
		env:             env,
		coverageFactory: coverageFactory,
		coverageStores:  map[string]CoverageCollector{},
	}
}

// CurrentModulePath returns the path and manual-mock flag of the module
// presently being evaluated, if any (§4.4 step 4's guarded context).
func (x *Executor) CurrentModulePath() (string, bool, bool) {
	if len(x.current) == 0 {
		return "", false, false
	}
	top := x.current[len(x.current)-1]
	return top.path, top.manualMock, true
}

// Execute fills rec in place by transforming, optionally instrumenting, and
// evaluating filename's source, with the given require value bound into
// module scope. Once the Environment has been disposed it returns nil
// without touching rec.
func (x *Executor) Execute(rec *ModuleRecord, filename string, manualMock bool, requireFn RequireFn, requireValue goja.Value) error {
	global := x.env.Global()
	if global == nil {
		return nil
	}

	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return x.executeJSON(rec, filename)
	}

	source, err := x.transformer.Transform(filename, x.cfg)
	if err != nil {
		return fmt.Errorf("loader: transforming %q: %w", filename, err)
	}

	rt := x.env.Runtime()

	var coverageArg goja.Value = goja.Undefined()
	if x.collectsCoverage(filename) {
		collector := x.coverageFactory(source, filename)
		x.coverageStores[filename] = collector
		instrumented, err := collector.InstrumentedSource(coverageSinkParam)
		if err != nil {
			return fmt.Errorf("loader: instrumenting %q: %w", filename, err)
		}
		source = instrumented
		coverageArg = rt.ToValue(collector.DataStore())
	}

	x.current = append(x.current, executionFrame{path: filename, manualMock: manualMock})
	defer func() { x.current = x.current[:len(x.current)-1] }()

	rec.Parent = newSentinelParent(x.env)
	rec.Require = requireFn

	wrapperSource := "({\"Object.<anonymous>\": function(module, exports, require, __dirname, __filename, global, jest, " +
		coverageSinkParam + ") {\n" + source + "\n}})"
	wrapperValue, err := x.env.RunSourceText(wrapperSource, filename)
	if err != nil {
		return fmt.Errorf("loader: compiling %q: %w", filename, err)
	}
	wrapperObj, ok := wrapperValue.(*goja.Object)
	if !ok {
		return fmt.Errorf("loader: %q did not compile to a callable module wrapper", filename)
	}
	fn, ok := goja.AssertFunction(wrapperObj.Get("Object.<anonymous>"))
	if !ok {
		return fmt.Errorf("loader: %q did not compile to a callable module wrapper", filename)
	}

	moduleObj := rt.NewObject()
	moduleObj.Set("exports", rec.Exports)
	moduleObj.Set("filename", filename)
	moduleObj.Set("id", filename)
	moduleObj.Set("parent", rec.Parent.Exports)
	moduleObj.Set("loaded", false)

	var jestArg goja.Value = goja.Undefined()
	if x.jest != nil {
		jestArg = x.jest
	}

	_, err = fn(rec.Exports,
		moduleObj,
		rec.Exports,
		requireValue,
		rt.ToValue(filepath.Dir(filename)),
		rt.ToValue(filename),
		global,
		jestArg,
		coverageArg,
	)
	if err != nil {
		return fmt.Errorf("loader: evaluating %q: %w", filename, err)
	}

	if exportsVal, ok := moduleObj.Get("exports").(*goja.Object); ok {
		rec.Exports = exportsVal
	}
	moduleObj.Set("loaded", true)
	rec.Loaded = true
	return nil
}

// executeJSON handles the .json special case: parsed once with
// encoding/json and lifted into the runtime with Runtime.ToValue, with
// no wrapper function and no require binding.
func (x *Executor) executeJSON(rec *ModuleRecord, filename string) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("loader: reading %q: %w", filename, err)
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("loader: parsing %q: %w", filename, err)
	}

	rt := x.env.Runtime()
	val := rt.ToValue(data)
	obj, ok := val.(*goja.Object)
	if !ok {
		// A top-level JSON scalar (a bare string/number/bool/null) has no
		// object identity to hand back through the *goja.Object-typed
		// Exports slot; wrap it under "default" rather than fail the load.
		obj = rt.NewObject()
		obj.Set("default", val)
	}

	rec.Exports = obj
	rec.Parent = newSentinelParent(x.env)
	rec.Loaded = true
	return nil
}

// collectsCoverage reports whether filename is in scope for instrumentation
// under the current config (§6 collectCoverage / collectCoverageOnlyFrom).
func (x *Executor) collectsCoverage(filename string) bool {
	if only := x.cfg.CollectCoverageOnlyFrom; len(only) > 0 {
		return only[filename]
	}
	return x.cfg.CollectCoverage
}

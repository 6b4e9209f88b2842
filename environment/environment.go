// Package environment provides the Environment collaborator the loader
// package consumes: a fresh goja.Runtime per test file, with platform
// built-ins registered through goja_nodejs's native-module registry,
// grown from the same wiring goja_modules/module.go uses for its own
// goja modules.
package environment

import (
	"fmt"
	"log/slog"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/process"
	"github.com/dop251/goja_nodejs/require"
	"github.com/dop251/goja_nodejs/url"

	"github.com/peekjef72/modloader/loader"
	"github.com/peekjef72/modloader/platform"
)

// Environment wraps one goja.Runtime for the lifetime of one test file.
type Environment struct {
	testFilePath string
	runtime      *goja.Runtime
	registry     *require.Registry
	global       *goja.Object
	timers       *TimerQueue
	logger       *slog.Logger
	disposed     bool
}

// New constructs a fresh Environment for testFilePath. logger may be nil,
// in which case a disabled logger is used, the same fallback initRunTime
// applies when no logger was set.
func New(testFilePath string, logger *slog.Logger) *Environment {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}

	env := &Environment{
		testFilePath: testFilePath,
		logger:       logger,
	}
	env.init()
	return env
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (e *Environment) init() {
	e.runtime = goja.New()
	e.registry = new(require.Registry)
	e.registry.Enable(e.runtime)

	console.Enable(e.runtime)
	process.Enable(e.runtime)
	url.Enable(e.runtime)
	platform.EnablePath(e.runtime)
	platform.EnableFS(e.runtime)

	e.global = e.runtime.GlobalObject()
	e.timers = NewTimerQueue(e.runtime)
}

// Global returns the environment's global object, or nil once torn down.
func (e *Environment) Global() *goja.Object {
	if e.disposed {
		return nil
	}
	return e.global
}

// Runtime exposes the underlying goja.Runtime for collaborators (the
// Executor, the reference MockSynthesizer) that need to construct or
// inspect goja values directly.
func (e *Environment) Runtime() *goja.Runtime { return e.runtime }

// RunSourceText compiles and runs source under filename.
func (e *Environment) RunSourceText(source, filename string) (goja.Value, error) {
	if e.disposed {
		return goja.Undefined(), fmt.Errorf("environment: torn down")
	}
	prog, err := goja.Compile(filename, source, false)
	if err != nil {
		return goja.Undefined(), fmt.Errorf("environment: compiling %s: %w", filename, err)
	}
	return e.runtime.RunProgram(prog)
}

// FakeTimers returns the timer facility.
func (e *Environment) FakeTimers() loader.FakeTimers { return e.timers }

// TestFilePath returns the test file this environment was created for.
func (e *Environment) TestFilePath() string { return e.testFilePath }

// SetGlobals installs each entry of funcs as a global binding in the
// environment's runtime. Adapted from goja_modules/exporter/module.go's
// func_map injection, which let an embedder hand a set of Go functions to
// JS field scripts under a fixed module name; here the same idea is
// generalized to any embedder-supplied host function exposed directly on
// the global scope rather than behind a require("exporter") call.
func (e *Environment) SetGlobals(funcs map[string]any) {
	if e.disposed {
		return
	}
	for name, fn := range funcs {
		e.runtime.Set(name, fn)
	}
}

// Dispose tears the environment down; Global subsequently returns nil, and
// the Executor's entry check (§4.4 step 1) becomes a no-op for any
// in-flight callback.
func (e *Environment) Dispose() {
	e.disposed = true
	e.global = nil
}

var _ loader.Environment = (*Environment)(nil)

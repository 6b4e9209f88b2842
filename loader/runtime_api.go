package loader

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/mitchellh/copystructure"
)

// RuntimeAPI is the fluent jest-style object bound into every test
// environment's global scope (§4.6). Every mutator returns the receiver, so
// Go callers can chain calls (api.Mock(x).DontMock(y)); the JS methods that
// BindRuntimeAPI installs return undefined and do not chain.
type RuntimeAPI interface {
	AutoMockOn() RuntimeAPI
	AutoMockOff() RuntimeAPI
	Mock(name string) RuntimeAPI
	DontMock(name string) RuntimeAPI
	SetMock(name string, exports goja.Value) RuntimeAPI
	GenMockFromModule(name string) (goja.Value, error)
	GenMockFunction() goja.Value
	ResetModuleRegistry() RuntimeAPI
	UseFakeTimers() RuntimeAPI
	UseRealTimers() RuntimeAPI
	RunAllTicks() RuntimeAPI
	RunAllImmediates() RuntimeAPI
	RunAllTimers() RuntimeAPI
	RunOnlyPendingTimers() RuntimeAPI
	ClearAllTimers() RuntimeAPI
	CurrentTestPath() string
	AddMatchers(matchers goja.Value) RuntimeAPI
	GetTestEnvData() (any, error)
}

type runtimeAPI struct {
	loader   *Loader
	matchers []goja.Value
}

// NewRuntimeAPI builds the reference RuntimeAPI bound to l. Bare-name
// mock/dontMock/setMock/genMockFromModule calls resolve relative to
// whichever module is currently executing, per currentImporter.
func NewRuntimeAPI(l *Loader) RuntimeAPI {
	return &runtimeAPI{loader: l}
}

// currentImporter returns the path of the module presently running on the
// Executor's stack, falling back to the test file itself when jest is
// called outside any module wrapper (e.g. from the test file's own
// top-level scope before any require has happened, or a callback fired
// after evaluation returned).
func (r *runtimeAPI) currentImporter() string {
	if path, _, ok := r.loader.executor.CurrentModulePath(); ok {
		return path
	}
	return r.loader.env.TestFilePath()
}

func (r *runtimeAPI) AutoMockOn() RuntimeAPI  { r.loader.policy.SetAutoMock(true); return r }
func (r *runtimeAPI) AutoMockOff() RuntimeAPI { r.loader.policy.SetAutoMock(false); return r }

func (r *runtimeAPI) Mock(name string) RuntimeAPI {
	if res, err := r.loader.resolver.Resolve(r.currentImporter(), name); err == nil {
		r.loader.policy.SetOverride(res.ID, DecisionForceMock)
	}
	return r
}

func (r *runtimeAPI) DontMock(name string) RuntimeAPI {
	if res, err := r.loader.resolver.Resolve(r.currentImporter(), name); err == nil {
		r.loader.policy.SetOverride(res.ID, DecisionForceReal)
	}
	return r
}

func (r *runtimeAPI) SetMock(name string, exports goja.Value) RuntimeAPI {
	if res, err := r.loader.resolver.Resolve(r.currentImporter(), name); err == nil {
		r.loader.policy.SetMockSlot(res.ID, exports)
		r.loader.registry.SetMock(res.ID, exports)
	}
	return r
}

func (r *runtimeAPI) GenMockFromModule(name string) (goja.Value, error) {
	res, err := r.loader.resolver.Resolve(r.currentImporter(), name)
	if err != nil {
		return nil, err
	}
	return r.loader.automocker.Generate(res.RealPath)
}

func (r *runtimeAPI) GenMockFunction() goja.Value {
	return r.loader.automocker.synth.GetMockFunction()
}

func (r *runtimeAPI) ResetModuleRegistry() RuntimeAPI {
	r.loader.ResetModuleRegistry()
	return r
}

func (r *runtimeAPI) UseFakeTimers() RuntimeAPI {
	if t := r.loader.env.FakeTimers(); t != nil {
		t.UseFake()
	}
	return r
}

func (r *runtimeAPI) UseRealTimers() RuntimeAPI {
	if t := r.loader.env.FakeTimers(); t != nil {
		t.UseReal()
	}
	return r
}

func (r *runtimeAPI) RunAllTicks() RuntimeAPI {
	if t := r.loader.env.FakeTimers(); t != nil {
		t.RunAllTicks()
	}
	return r
}

func (r *runtimeAPI) RunAllImmediates() RuntimeAPI {
	if t := r.loader.env.FakeTimers(); t != nil {
		t.RunAllImmediates()
	}
	return r
}

func (r *runtimeAPI) RunAllTimers() RuntimeAPI {
	if t := r.loader.env.FakeTimers(); t != nil {
		t.RunAllTimers()
	}
	return r
}

func (r *runtimeAPI) RunOnlyPendingTimers() RuntimeAPI {
	if t := r.loader.env.FakeTimers(); t != nil {
		t.RunOnlyPending()
	}
	return r
}

func (r *runtimeAPI) ClearAllTimers() RuntimeAPI {
	if t := r.loader.env.FakeTimers(); t != nil {
		t.ClearAll()
	}
	return r
}

func (r *runtimeAPI) CurrentTestPath() string { return r.loader.env.TestFilePath() }

func (r *runtimeAPI) AddMatchers(matchers goja.Value) RuntimeAPI {
	r.matchers = append(r.matchers, matchers)
	return r
}

// GetTestEnvData returns a deep copy of the config's testEnvData, so a test
// mutating the returned value can never affect another test sharing the
// same Config (§4.6, grounded on the same copystructure use as
// mocksynth.GenerateFromMetadata).
func (r *runtimeAPI) GetTestEnvData() (any, error) {
	copied, err := copystructure.Copy(r.loader.cfg.TestEnvData)
	if err != nil {
		return nil, fmt.Errorf("loader: copying testEnvData: %w", err)
	}
	return copied, nil
}

// BindRuntimeAPI installs api's methods on a fresh object under the JS
// names test files call (jest.mock, jest.fn, ...) for the Loader's
// construction sequence to expose as the environment's "jest" global.
func BindRuntimeAPI(env Environment, api RuntimeAPI) *goja.Object {
	rt := env.Runtime()
	obj := rt.NewObject()

	obj.Set("autoMockOn", func() { api.AutoMockOn() })
	obj.Set("autoMockOff", func() { api.AutoMockOff() })
	obj.Set("mock", func(name string) { api.Mock(name) })
	obj.Set("dontMock", func(name string) { api.DontMock(name) })
	obj.Set("unmock", func(name string) { api.DontMock(name) })
	obj.Set("setMock", func(name string, exports goja.Value) { api.SetMock(name, exports) })
	obj.Set("genMockFromModule", func(name string) goja.Value {
		v, err := api.GenMockFromModule(name)
		if err != nil {
			panic(rt.ToValue(err.Error()))
		}
		return v
	})
	obj.Set("fn", func() goja.Value { return api.GenMockFunction() })
	obj.Set("genMockFunction", func() goja.Value { return api.GenMockFunction() })
	obj.Set("genMockFn", func() goja.Value { return api.GenMockFunction() })
	obj.Set("currentTestPath", func() string { return api.CurrentTestPath() })
	obj.Set("resetModuleRegistry", func() { api.ResetModuleRegistry() })
	obj.Set("useFakeTimers", func() { api.UseFakeTimers() })
	obj.Set("useRealTimers", func() { api.UseRealTimers() })
	obj.Set("runAllTicks", func() { api.RunAllTicks() })
	obj.Set("runAllImmediates", func() { api.RunAllImmediates() })
	obj.Set("runAllTimers", func() { api.RunAllTimers() })
	obj.Set("runOnlyPendingTimers", func() { api.RunOnlyPendingTimers() })
	obj.Set("clearAllTimers", func() { api.ClearAllTimers() })
	obj.Set("addMatchers", func(m goja.Value) { api.AddMatchers(m) })
	obj.Set("getTestEnvData", func() goja.Value {
		data, err := api.GetTestEnvData()
		if err != nil {
			panic(rt.ToValue(err.Error()))
		}
		return rt.ToValue(data)
	})

	return obj
}

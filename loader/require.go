package loader

import (
	"github.com/dop251/goja"
)

// RequireBuilder constructs the full per-module `require` value bound to
// one importer path: a callable that resolves and returns exports (honoring
// the Mock Policy Engine), plus resolve/requireMock/requireActual/
// cache/extensions the way Node's module system attaches them (§4.6).
type RequireBuilder struct {
	loader *Loader
}

// NewRequireBuilder binds a RequireBuilder to l.
func NewRequireBuilder(l *Loader) *RequireBuilder {
	return &RequireBuilder{loader: l}
}

// Build returns both a plain RequireFn (stored on the ModuleRecord) and the
// JS-facing require object bound to modulePath.
func (b *RequireBuilder) Build(modulePath string) (RequireFn, goja.Value) {
	rt := b.loader.env.Runtime()

	fn := func(name string) (goja.Value, error) {
		return b.loader.RequireModuleOrMock(modulePath, name)
	}

	requireVal := rt.ToValue(func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		v, err := fn(name)
		if err != nil {
			panic(rt.ToValue(err.Error()))
		}
		return v
	})
	requireObj, _ := requireVal.(*goja.Object)

	requireObj.Set("resolve", func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		res, err := b.loader.resolver.Resolve(modulePath, name)
		if err != nil {
			panic(rt.ToValue(err.Error()))
		}
		return rt.ToValue(res.RealPath)
	})

	requireObj.Set("requireMock", func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		v, err := b.loader.RequireMock(modulePath, name)
		if err != nil {
			panic(rt.ToValue(err.Error()))
		}
		return v
	})

	requireObj.Set("requireActual", func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		v, err := b.loader.RequireModule(modulePath, name)
		if err != nil {
			panic(rt.ToValue(err.Error()))
		}
		return v
	})

	// require.cache/require.extensions are empty containers present only
	// for compatibility with code that enumerates them (§4.6); the Loader's
	// real cache lives in Registry, not here.
	requireObj.Set("cache", rt.NewObject())
	requireObj.Set("extensions", rt.NewObject())

	return fn, requireObj
}

func argString(call goja.FunctionCall, i int) string {
	if i >= len(call.Arguments) {
		return ""
	}
	return call.Arguments[i].String()
}

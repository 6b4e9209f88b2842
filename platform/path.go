// Package platform ships the reference platform built-ins the Resolver
// treats as core modules. It is
// grown directly from goja_modules/fs and
// goja_modules/exporter packages: a Require function that populates
// module.exports, an Enable function that installs the module on the
// runtime's global scope, and an init that registers it with
// goja_nodejs/require as a core module so it never touches either of the
// Loader's registries.
package platform

import (
	"path"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
)

// ModuleName is the built-in name the Resolver recognizes.
const ModuleName = "path"

// pathModule mirrors the handful of Node's "path" module functions test
// files most commonly reach for.
type pathModule struct {
	runtime *goja.Runtime
}

func (p *pathModule) Join(parts ...string) string { return path.Join(parts...) }
func (p *pathModule) Dirname(name string) string  { return path.Dir(name) }
func (p *pathModule) Basename(name string) string { return path.Base(name) }
func (p *pathModule) Extname(name string) string  { return path.Ext(name) }
func (p *pathModule) IsAbsolute(name string) bool { return path.IsAbs(name) }
func (p *pathModule) Resolve(parts ...string) string {
	return path.Clean(path.Join(parts...))
}

// Require populates module.exports the way goja_modules/fs.Require does.
func Require(runtime *goja.Runtime, module *goja.Object) {
	p := &pathModule{runtime: runtime}
	o := module.Get("exports").(*goja.Object)
	o.Set("join", p.Join)
	o.Set("dirname", p.Dirname)
	o.Set("basename", p.Basename)
	o.Set("extname", p.Extname)
	o.Set("isAbsolute", p.IsAbsolute)
	o.Set("resolve", p.Resolve)
	o.Set("sep", "/")
}

// Enable installs the module as a global, as goja_modules/fs.Enable does.
func Enable(runtime *goja.Runtime) {
	runtime.Set(ModuleName, require.Require(runtime, ModuleName))
}

// EnablePath registers and enables the path module on runtime, for the
// Environment's construction sequence.
func EnablePath(runtime *goja.Runtime) {
	Enable(runtime)
}

func init() {
	require.RegisterCoreModule(ModuleName, Require)
}

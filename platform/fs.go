package platform

import (
	"os"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
)

// FSModuleName is the built-in name for the reference "fs" module, adapted
// from goja_modules/fs/module.go: readFileSync unchanged, existsSync added
// since test files that stub the filesystem commonly probe for a file's
// presence before reading it.
const FSModuleName = "fs"

type fsModule struct {
	runtime *goja.Runtime
}

func (f *fsModule) ReadFileSync(filename string) goja.Value {
	data, err := os.ReadFile(filename)
	if err != nil {
		panic(f.runtime.NewTypeError(err.Error()))
	}
	return f.runtime.ToValue(string(data))
}

func (f *fsModule) ExistsSync(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// RequireFS populates module.exports for the "fs" core module.
func RequireFS(runtime *goja.Runtime, module *goja.Object) {
	f := &fsModule{runtime: runtime}
	o := module.Get("exports").(*goja.Object)
	o.Set("readFileSync", f.ReadFileSync)
	o.Set("existsSync", f.ExistsSync)
}

// EnableFS registers and installs the "fs" module as a global.
func EnableFS(runtime *goja.Runtime) {
	runtime.Set(FSModuleName, require.Require(runtime, FSModuleName))
}

func init() {
	require.RegisterCoreModule(FSModuleName, RequireFS)
}

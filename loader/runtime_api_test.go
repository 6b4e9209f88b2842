package loader

import (
	"path/filepath"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeAPIMockAndDontMockToggleOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "math.js"), `module.exports = { two: 2 };`)
	testFile := filepath.Join(dir, "index.js")

	cfg := DefaultConfig()
	cfg.AutoMock = false
	l, _ := buildLoaderForTest(t, dir, testFile, cfg)

	api := NewRuntimeAPI(l)
	api.Mock("./math")

	mocked, err := l.RequireModuleOrMock(testFile, "./math")
	require.NoError(t, err)
	assert.Equal(t, int64(0), mocked.(*goja.Object).Get("two").ToInteger())

	api.DontMock("./math")
	real, err := l.RequireModuleOrMock(testFile, "./math")
	require.NoError(t, err)
	assert.Equal(t, int64(2), real.(*goja.Object).Get("two").ToInteger())
}

func TestRuntimeAPISetMockInstallsExplicitExports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "math.js"), `module.exports = { two: 2 };`)
	testFile := filepath.Join(dir, "index.js")

	l, env := buildLoaderForTest(t, dir, testFile, nil)
	api := NewRuntimeAPI(l)

	custom := env.rt.NewObject()
	custom.Set("two", "forced")
	api.SetMock("./math", custom)

	got, err := l.RequireModuleOrMock(testFile, "./math")
	require.NoError(t, err)
	assert.Equal(t, "forced", got.(*goja.Object).Get("two").String())
}

func TestRuntimeAPIGenMockFromModuleAndGenMockFunction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "math.js"), `module.exports = { add: function(a, b) { return a + b; } };`)
	testFile := filepath.Join(dir, "index.js")

	l, _ := buildLoaderForTest(t, dir, testFile, nil)
	api := NewRuntimeAPI(l)

	stub, err := api.GenMockFromModule("./math")
	require.NoError(t, err)
	obj := stub.(*goja.Object)
	_, isFn := goja.AssertFunction(obj.Get("add"))
	assert.True(t, isFn)

	fn := api.GenMockFunction()
	_, isFn = goja.AssertFunction(fn)
	assert.True(t, isFn)
}

func TestRuntimeAPIResetModuleRegistryDelegatesToLoader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "counter.js"), `
var counter = globalThis.counter = globalThis.counter || {};
counter.calls = (counter.calls || 0) + 1;
module.exports = { calls: counter.calls };
`)
	testFile := filepath.Join(dir, "index.js")

	cfg := DefaultConfig()
	cfg.AutoMock = false
	l, _ := buildLoaderForTest(t, dir, testFile, cfg)
	api := NewRuntimeAPI(l)

	first, err := l.RequireModuleOrMock(testFile, "./counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.(*goja.Object).Get("calls").ToInteger())

	api.ResetModuleRegistry()

	second, err := l.RequireModuleOrMock(testFile, "./counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.(*goja.Object).Get("calls").ToInteger())
}

func TestRuntimeAPITimerDelegationIsNilSafe(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "index.js")
	l, _ := buildLoaderForTest(t, dir, testFile, nil)
	api := NewRuntimeAPI(l)

	assert.NotPanics(t, func() {
		api.UseFakeTimers().RunAllTimers().RunOnlyPendingTimers().ClearAllTimers().UseRealTimers()
	})
}

func TestRuntimeAPIGetTestEnvDataReturnsIndependentCopy(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "index.js")

	cfg := DefaultConfig()
	cfg.TestEnvData = map[string]any{"seed": float64(7)}
	l, _ := buildLoaderForTest(t, dir, testFile, cfg)
	api := NewRuntimeAPI(l)

	got, err := api.GetTestEnvData()
	require.NoError(t, err)
	m, ok := got.(map[string]any)
	require.True(t, ok)
	m["seed"] = float64(99)

	assert.Equal(t, float64(7), l.cfg.TestEnvData["seed"])
}

func TestJestCalledFromRequiredModuleResolvesRelativeToItsOwnDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "helper.js"), `module.exports = { where: "top", onlyAtTop: true };`)
	writeFile(t, filepath.Join(dir, "moduleA", "helper.js"), `module.exports = { where: "moduleA" };`)
	writeFile(t, filepath.Join(dir, "moduleA", "lib.js"), `
jest.mock('./helper');
module.exports = require('./helper');
`)
	testFile := filepath.Join(dir, "index.js")

	cfg := DefaultConfig()
	cfg.AutoMock = true
	l, _ := buildLoaderForTest(t, dir, testFile, cfg)

	// requireActual, so lib.js itself runs for real (under AutoMock=true with
	// no unmock patterns, RequireModuleOrMock would automock lib.js before
	// its body -- and jest.mock('./helper') inside it -- ever ran).
	exports, err := l.RequireModule(testFile, "./moduleA/lib")
	require.NoError(t, err)

	// If jest.mock had resolved './helper' against the test file's
	// directory instead of lib.js's own directory, the automocked shape
	// would come from the top-level helper.js and carry "onlyAtTop".
	obj := exports.(*goja.Object)
	assert.Equal(t, "", obj.Get("where").String(), "expected an automocked stub, not a real passthrough value")
	assert.True(t, goja.IsUndefined(obj.Get("onlyAtTop")), "expected the shape extracted from moduleA/helper.js, not the top-level helper.js")
}

func TestBindRuntimeAPIExposesJestShapedObject(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "index.js")
	l, env := buildLoaderForTest(t, dir, testFile, nil)

	obj := BindRuntimeAPI(env, NewRuntimeAPI(l))
	for _, name := range []string{"mock", "dontMock", "unmock", "setMock", "fn", "genMockFunction", "resetModuleRegistry", "useFakeTimers"} {
		_, isFn := goja.AssertFunction(obj.Get(name))
		assert.Truef(t, isFn, "expected jest.%s to be callable", name)
	}
}

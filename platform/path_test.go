package platform

import (
	"testing"

	"github.com/dop251/goja"
	noderequire "github.com/dop251/goja_nodejs/require"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T) *goja.Runtime {
	t.Helper()
	rt := goja.New()
	reg := new(noderequire.Registry)
	reg.Enable(rt)
	return rt
}

func TestEnablePathExposesJoinAndBasename(t *testing.T) {
	rt := newTestRuntime(t)
	EnablePath(rt)

	v, err := rt.RunString(`path.join('a', 'b', 'c.js')`)
	require.NoError(t, err)
	assert.Equal(t, "a/b/c.js", v.String())

	v, err = rt.RunString(`path.basename('/a/b/c.js')`)
	require.NoError(t, err)
	assert.Equal(t, "c.js", v.String())

	v, err = rt.RunString(`path.extname('/a/b/c.js')`)
	require.NoError(t, err)
	assert.Equal(t, ".js", v.String())

	v, err = rt.RunString(`path.isAbsolute('/a/b')`)
	require.NoError(t, err)
	assert.True(t, v.ToBoolean())
}

package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleIDRoundTrip(t *testing.T) {
	id := NewModuleID(KindUser, "/project/src/math.js", "")
	assert.Equal(t, KindUser, id.Kind())
	assert.Equal(t, "/project/src/math.js", id.RealPath())
	assert.Equal(t, "", id.MockPath())

	id = NewModuleID(KindUser, "/project/src/math.js", "/project/src/__mocks__/math.js")
	assert.Equal(t, "/project/src/math.js", id.RealPath())
	assert.Equal(t, "/project/src/__mocks__/math.js", id.MockPath())

	id = NewModuleID(KindCore, "fs", "")
	assert.Equal(t, KindCore, id.Kind())
	assert.Equal(t, "fs", id.RealPath())
}

func TestModuleIDDistinctForDifferentInputs(t *testing.T) {
	a := NewModuleID(KindUser, "/a.js", "")
	b := NewModuleID(KindUser, "/b.js", "")
	assert.NotEqual(t, a, b)
}

func TestModuleIDUsableAsMapKey(t *testing.T) {
	m := map[ModuleID]bool{}
	m[NewModuleID(KindUser, "/a.js", "")] = true
	assert.True(t, m[NewModuleID(KindUser, "/a.js", "")])
	assert.False(t, m[NewModuleID(KindUser, "/z.js", "")])
}

package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func realResolution(t *testing.T, dir, realPath string) *Resolution {
	t.Helper()
	id := NewModuleID(KindUser, realPath, "")
	return &Resolution{Kind: KindUser, RealPath: realPath, ID: id}
}

func TestPolicyDefaultsToAutoMockConfig(t *testing.T) {
	dir := t.TempDir()
	realPath := filepath.Join(dir, "math.js")
	require.NoError(t, os.WriteFile(realPath, []byte("module.exports = {}"), 0o644))

	cfg := DefaultConfig()
	cfg.AutoMock = true
	p := NewPolicy(cfg, NewResolver(cfg, nil, nil))

	mocked, err := p.ShouldMock("/index.js", "./math", realResolution(t, dir, realPath))
	require.NoError(t, err)
	assert.True(t, mocked)
}

func TestPolicyAutoMockOffMeansReal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoMock = false
	p := NewPolicy(cfg, NewResolver(cfg, nil, nil))

	mocked, err := p.ShouldMock("/index.js", "./math", &Resolution{Kind: KindUser, RealPath: "/math.js", ID: NewModuleID(KindUser, "/math.js", "")})
	require.NoError(t, err)
	assert.False(t, mocked)
}

func TestPolicyExplicitOverrideDominatesAutoMock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoMock = true
	p := NewPolicy(cfg, NewResolver(cfg, nil, nil))

	res := &Resolution{Kind: KindUser, RealPath: "/math.js", ID: NewModuleID(KindUser, "/math.js", "")}
	p.SetOverride(res.ID, DecisionForceReal)

	mocked, err := p.ShouldMock("/index.js", "./math", res)
	require.NoError(t, err)
	assert.False(t, mocked)

	// last call wins.
	p.SetOverride(res.ID, DecisionForceMock)
	mocked, err = p.ShouldMock("/index.js", "./math", res)
	require.NoError(t, err)
	assert.True(t, mocked)
}

func TestPolicyCoreModulesNeverMocked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoMock = true
	p := NewPolicy(cfg, NewResolver(cfg, nil, nil))

	mocked, err := p.ShouldMock("/index.js", "fs", &Resolution{Kind: KindCore, RealPath: "fs", ID: NewModuleID(KindCore, "fs", "")})
	require.NoError(t, err)
	assert.False(t, mocked)
}

func TestPolicyUnmockedPathPatternBypassesAutoMock(t *testing.T) {
	dir := t.TempDir()
	realPath := filepath.Join(dir, "vendor", "leftpad.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(realPath), 0o755))
	require.NoError(t, os.WriteFile(realPath, []byte("module.exports = {}"), 0o644))

	cfg := DefaultConfig()
	cfg.AutoMock = true
	cfg.UnmockedModulePathPatterns = []string{"vendor/"}
	p := NewPolicy(cfg, NewResolver(cfg, nil, nil))

	mocked, err := p.ShouldMock("/index.js", "leftpad", realResolution(t, dir, realPath))
	require.NoError(t, err)
	assert.False(t, mocked)
}

func TestPolicyVendorPathBypassesAutoMock(t *testing.T) {
	dir := t.TempDir()
	realPath := filepath.Join(dir, "vendor", "leftpad.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(realPath), 0o755))
	require.NoError(t, os.WriteFile(realPath, []byte("module.exports = {}"), 0o644))

	cfg := DefaultConfig()
	cfg.AutoMock = true
	cfg.UnmockedModulePathPatterns = []string{"nonmatching-pattern"}
	cfg.VendorPath = filepath.Join(dir, "vendor")
	p := NewPolicy(cfg, NewResolver(cfg, nil, nil))

	mocked, err := p.ShouldMock("/index.js", "leftpad", realResolution(t, dir, realPath))
	require.NoError(t, err)
	assert.False(t, mocked)
}

func TestPolicySetMockSlotForcesMockAndRecordsSlot(t *testing.T) {
	cfg := DefaultConfig()
	p := NewPolicy(cfg, NewResolver(cfg, nil, nil))

	id := NewModuleID(KindUser, "/math.js", "")
	p.SetMockSlot(id, "stub-exports")

	slot, ok := p.MockSlot(id)
	assert.True(t, ok)
	assert.Equal(t, "stub-exports", slot)

	mocked, err := p.ShouldMock("/index.js", "./math", &Resolution{Kind: KindUser, RealPath: "/math.js", ID: id})
	require.NoError(t, err)
	assert.True(t, mocked)
}

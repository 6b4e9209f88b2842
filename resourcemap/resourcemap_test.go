package resourcemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanDirClassifiesSourcesMocksAndManifests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"name":"widget","main":"index.js"}`)
	writeFile(t, filepath.Join(dir, "index.js"), `const math = require('./math');`)
	writeFile(t, filepath.Join(dir, "math.js"), `module.exports = {};`)
	writeFile(t, filepath.Join(dir, "__mocks__", "math.js"), `module.exports = { mocked: true };`)

	m, err := ScanDir(dir, ScanOptions{ModuleFileExtensions: []string{".js", ".json"}})
	require.NoError(t, err)

	src, ok := m.GetResource(KindSource, "index")
	require.True(t, ok)
	assert.Equal(t, []string{"./math"}, src.RequiredModules)

	_, ok = m.GetResource(KindManualMock, "math")
	assert.True(t, ok)

	manifest, ok := m.GetResource(KindProjectConfig, "widget")
	require.True(t, ok)
	assert.Equal(t, "index.js", manifest.Data.Main)
}

func TestScanDirHonorsIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "node_modules", "dep", "index.js"), `module.exports = {};`)
	writeFile(t, filepath.Join(dir, "app.js"), `module.exports = {};`)

	m, err := ScanDir(dir, ScanOptions{
		ModuleFileExtensions:     []string{".js"},
		ModulePathIgnorePatterns: []string{"node_modules/**"},
	})
	require.NoError(t, err)

	_, ok := m.GetResourceByPath(filepath.Join(dir, "node_modules", "dep", "index.js"))
	assert.False(t, ok)
	_, ok = m.GetResourceByPath(filepath.Join(dir, "app.js"))
	assert.True(t, ok)
}

func TestMapSnapshotRoundTrip(t *testing.T) {
	m := New()
	m.AddSource("a", "/a.js", "./b")
	m.AddManualMock("b", "/__mocks__/b.js")
	m.AddProjectConfig("/package.json", "proj", "a.js")

	snap := m.ToSnapshot()
	restored := FromSnapshot(snap)

	src, ok := restored.GetResource(KindSource, "a")
	require.True(t, ok)
	assert.Equal(t, []string{"./b"}, src.RequiredModules)

	all := restored.GetAllResources()
	assert.Len(t, all, 3)
}

func TestResourceKindString(t *testing.T) {
	assert.Equal(t, "source", KindSource.String())
	assert.Equal(t, "manual-mock", KindManualMock.String())
	assert.Equal(t, "project-config", KindProjectConfig.String())
	assert.Equal(t, "other", KindOther.String())
}

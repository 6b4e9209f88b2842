package loader

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

func TestResolveBuiltinBypassesFilesystem(t *testing.T) {
	cfg := DefaultConfig()
	r := NewResolver(cfg, nil, nil)

	res, err := r.Resolve("/anything.js", "fs")
	require.NoError(t, err)
	assert.Equal(t, KindCore, res.Kind)
	assert.Equal(t, "fs", res.RealPath)
}

func TestResolveRelativePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "math.js"), "module.exports = {}")
	importer := filepath.Join(dir, "index.js")
	writeFile(t, importer, "require('./math')")

	cfg := DefaultConfig()
	r := NewResolver(cfg, nil, nil)

	res, err := r.Resolve(importer, "./math")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "math.js"), res.RealPath)
}

func TestResolveRelativePathMissing(t *testing.T) {
	dir := t.TempDir()
	importer := filepath.Join(dir, "index.js")

	cfg := DefaultConfig()
	r := NewResolver(cfg, nil, nil)

	_, err := r.Resolve(importer, "./missing")
	assert.Error(t, err)
	var notFound *ModuleNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestResolveMockSibling(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "math.js"), "module.exports = {}")
	writeFile(t, filepath.Join(dir, "__mocks__", "math.js"), "module.exports = { add: () => 0 }")
	importer := filepath.Join(dir, "index.js")

	cfg := DefaultConfig()
	r := NewResolver(cfg, nil, nil)

	res, err := r.Resolve(importer, "./math")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "__mocks__", "math.js"), res.MockPath)
}

func TestResolveDirectoryIndexAndPackageMain(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "widget", "index.js"), "module.exports = {}")
	importer := filepath.Join(dir, "app.js")

	cfg := DefaultConfig()
	r := NewResolver(cfg, nil, nil)

	res, err := r.Resolve(importer, "./widget")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "widget", "index.js"), res.RealPath)

	writeFile(t, filepath.Join(dir, "gadget", "package.json"), `{"name":"gadget","main":"lib/entry.js"}`)
	writeFile(t, filepath.Join(dir, "gadget", "lib", "entry.js"), "module.exports = {}")
	res, err = r.Resolve(importer, "./gadget")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gadget", "lib", "entry.js"), res.RealPath)
}

func TestResolveExtraSearchRoots(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "vendor", "leftpad.js"), "module.exports = {}")
	importer := filepath.Join(dir, "src", "app.js")

	cfg := DefaultConfig()
	r := NewResolver(cfg, nil, []string{filepath.Join(dir, "vendor")})

	res, err := r.Resolve(importer, "leftpad")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vendor", "leftpad.js"), res.RealPath)
}

func TestExtraSearchRootsFromEnv(t *testing.T) {
	assert.Nil(t, ExtraSearchRootsFromEnv(""))
	roots := ExtraSearchRootsFromEnv("/a" + string(os.PathListSeparator) + "/b")
	assert.Equal(t, []string{"/a", "/b"}, roots)
}

func TestApplyNameMapperRewritesRequest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModuleNameMapper = []NameMapping{
		{Pattern: `^@app/(.*)$`, Canonical: "./src/$1"},
	}
	r := NewResolver(cfg, nil, nil)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "widget.js"), "module.exports = {}")
	importer := filepath.Join(dir, "app.js")

	res, err := r.Resolve(importer, "@app/widget")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src", "widget.js"), res.RealPath)
}

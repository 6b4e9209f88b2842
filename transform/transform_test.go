package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripShebangRemovesLeadingLine(t *testing.T) {
	assert.Equal(t, "\nmodule.exports = {};", StripShebang("#!/usr/bin/env node\nmodule.exports = {};"))
}

func TestStripShebangLeavesOrdinarySourceAlone(t *testing.T) {
	src := "module.exports = {};"
	assert.Equal(t, src, StripShebang(src))
}

func TestStripShebangHandlesShebangOnlyFile(t *testing.T) {
	assert.Equal(t, "", StripShebang("#!/usr/bin/env node"))
}

func TestPassthroughTransformReadsAndStripsShebang(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cli.js")
	require.NoError(t, os.WriteFile(path, []byte("#!/usr/bin/env node\nmodule.exports = {};"), 0o644))

	out, err := Passthrough{}.Transform(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "\nmodule.exports = {};", out)
}

func TestPassthroughTransformMissingFile(t *testing.T) {
	_, err := Passthrough{}.Transform(filepath.Join(t.TempDir(), "missing.js"), nil)
	assert.Error(t, err)
}

// Package transform provides the Transformer collaborator. Rewriting
// source ahead of evaluation (JSX, TypeScript, decorators) is out of
// scope for the loader core; this package ships the identity transform
// plus a small shebang-stripping pass, since a `.js` file with a
// `#!/usr/bin/env node` line is common enough that every real loader
// strips it before compiling.
package transform

import (
	"os"
	"strings"

	"github.com/peekjef72/modloader/loader"
)

// Passthrough reads filename's raw source and strips a leading shebang
// line, otherwise leaving the source untouched.
type Passthrough struct{}

// Transform implements loader.Transformer.
func (Passthrough) Transform(filename string, _ *loader.Config) (string, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return StripShebang(string(raw)), nil
}

// StripShebang removes a leading "#!" line, replacing it with a blank line
// so reported line numbers still line up with the original source.
func StripShebang(source string) string {
	if !strings.HasPrefix(source, "#!") {
		return source
	}
	if idx := strings.IndexByte(source, '\n'); idx >= 0 {
		return source[idx:]
	}
	return ""
}

var _ loader.Transformer = Passthrough{}

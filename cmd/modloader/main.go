// Command modloader is a developer-facing front end for the module loader
// core: run a single test file, resolve one import by hand, or browse a
// project's static require graph.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peekjef72/modloader/coverage"
	"github.com/peekjef72/modloader/environment"
	"github.com/peekjef72/modloader/loader"
	"github.com/peekjef72/modloader/loadermetrics"
	"github.com/peekjef72/modloader/mocksynth"
	"github.com/peekjef72/modloader/transform"
)

func newRunCmd() *cobra.Command {
	var withMetrics bool

	cmd := &cobra.Command{
		Use:   "run <testfile>",
		Short: "Execute one test file through the module loader core.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnvFile()
			logger := newLogger()

			cfg, err := buildLoaderConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			rm, err := buildResourceMap(cfg)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", flagRoot, err)
			}

			env := environment.New(args[0], logger)
			defer env.Dispose()

			extraRoots := loader.ExtraSearchRootsFromEnv(envNodePath())

			l := loader.NewLoader(cfg, rm, env, transform.Passthrough{}, mocksynth.New(env.Runtime()), coverage.NewNoopCollector, extraRoots)
			if withMetrics {
				l.SetMetricsRecorder(loadermetrics.New(nil))
			}

			if _, err := l.RunTestFile(); err != nil {
				return fmt.Errorf("running %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "record Prometheus metrics for this run (not exposed, diagnostic only)")
	return cmd
}

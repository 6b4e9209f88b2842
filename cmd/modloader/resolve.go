package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peekjef72/modloader/loader"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <importer> <name>",
		Short: "Resolve one require() call by hand and print the result as JSON.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnvFile()
			cfg, err := buildLoaderConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			rm, err := buildResourceMap(cfg)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", flagRoot, err)
			}

			resolver := loader.NewResolver(cfg, rm, loader.ExtraSearchRootsFromEnv(envNodePath()))
			res, err := resolver.Resolve(args[0], args[1])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

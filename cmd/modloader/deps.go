package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/peekjef72/modloader/resourcemap"
)

func newDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps <resource-id>",
		Short: "List the statically discovered require() targets for one resource.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildLoaderConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			rm, err := buildResourceMap(cfg)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", flagRoot, err)
			}

			res, ok := rm.GetResource(resourcemap.KindSource, args[0])
			if !ok {
				return fmt.Errorf("no source resource named %q under %s", args[0], flagRoot)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"#", "required module"})
			for i, dep := range res.RequiredModules {
				table.Append([]string{fmt.Sprintf("%d", i+1), dep})
			}
			table.Render()
			return nil
		},
	}
}

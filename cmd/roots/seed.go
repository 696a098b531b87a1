package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a sample family into the tree",
		Long: `Loads a three-generation sample family with relationships, events
and a source. People that already exist are skipped, so seeding twice is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				result, err := d.Import.HandleSeed(cmd.Context())
				if err != nil {
					return fmt.Errorf("seeding tree: %w", err)
				}

				printImportResult(result, false)
				return nil
			})
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/domain/services"
)

type lineageFunc func(ctx context.Context, d *Deps, id string, generations int) ([]services.Generation, error)

func newAncestorsCmd() *cobra.Command {
	return newLineageCmd("ancestors", "List a person's ancestors by generation",
		func(ctx context.Context, d *Deps, id string, generations int) ([]services.Generation, error) {
			return d.People.HandleAncestors(ctx, id, generations)
		})
}

func newDescendantsCmd() *cobra.Command {
	return newLineageCmd("descendants", "List a person's descendants by generation",
		func(ctx context.Context, d *Deps, id string, generations int) ([]services.Generation, error) {
			return d.People.HandleDescendants(ctx, id, generations)
		})
}

func newLineageCmd(use, short string, walk lineageFunc) *cobra.Command {
	var generations int

	cmd := &cobra.Command{
		Use:   use + " <person-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				gens, err := walk(ctx, d, args[0], generations)
				if err != nil {
					return fmt.Errorf("listing %s: %w", use, err)
				}

				if len(gens) == 0 {
					fmt.Printf("No %s found.\n", use)
					return nil
				}

				for _, gen := range gens {
					fmt.Printf("Generation %d:\n", gen.Depth)
					for i := range gen.People {
						p := &gen.People[i]
						fmt.Printf("  %s  %s  %s\n", p.ID, p.FullName(), lifespan(p))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&generations, "generations", "n", DefaultGenerations, "Generations to walk (0 = all)")

	return cmd
}

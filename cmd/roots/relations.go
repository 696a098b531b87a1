package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/application/handlers"
)

func newRelationsCmd() *cobra.Command {
	var (
		relType string
		with    string
	)

	cmd := &cobra.Command{
		Use:   "relations <person-id>",
		Short: "List a person's relationships",
		Long: `Lists every relationship a person has, parents first.
With --with, shows only the direct relationship to another person.

Examples:
  roots relations 3f2a...
  roots relations 3f2a... --type child
  roots relations 3f2a... --with 9c1d...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if with != "" {
				return runRelationsBetween(cmd, args[0], with)
			}
			return runRelations(cmd, args[0], relType)
		},
	}

	cmd.Flags().StringVar(&relType, "type", "", "Filter by relationship type")
	cmd.Flags().StringVar(&with, "with", "", "Show the relationship to this person")

	return cmd
}

func runRelations(cmd *cobra.Command, personID, relType string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.Relationships.HandleList(ctx, personID, handlers.ListOptions{Type: relType})
		if err != nil {
			return fmt.Errorf("listing relationships: %w", err)
		}

		if len(result.Relationships) == 0 {
			fmt.Printf("No relationships found for %s.\n", result.Person.FullName())
			return nil
		}

		fmt.Printf("Relationships for %s:\n\n", result.Person.FullName())
		for _, info := range result.Relationships {
			fmt.Printf("  [%s] %s -[%s]-> %s\n",
				info.Relationship.ID,
				result.Person.FullName(),
				info.Relationship.Type,
				relatedName(info),
			)
		}

		return nil
	})
}

func runRelationsBetween(cmd *cobra.Command, personID, otherID string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		rel, err := d.Relationships.HandleFindBetween(ctx, personID, otherID)
		if err != nil {
			return fmt.Errorf("finding relationship: %w", err)
		}
		if rel == nil {
			fmt.Println("No direct relationship.")
			return nil
		}

		fmt.Printf("[%s] %s -[%s]-> %s\n", rel.ID, rel.PersonID, rel.Type, rel.RelatedPersonID)
		return nil
	})
}

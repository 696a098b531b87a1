package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/application/handlers"
)

func newRelateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relate <person-id> <type> <related-person-id>",
		Short: "Create a relationship between two people",
		Long: `Creates a relationship and its reciprocal in one step.
The type is read from the first person's side.

Valid relationship types:
  - parent   (first person is a parent of the second)
  - child    (first person is a child of the second)
  - spouse
  - sibling

Examples:
  roots relate 3f2a... parent 9c1d...
  roots relate 3f2a... spouse 77b0...`,
		Args: cobra.ExactArgs(3),
		RunE: runRelate,
	}

	cmd.AddCommand(newRelateDeleteCmd())

	return cmd
}

func runRelate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		rel, created, err := d.Relationships.HandleCreate(ctx, handlers.CreateRelationshipRequest{
			PersonID:        args[0],
			Type:            args[1],
			RelatedPersonID: args[2],
		})
		if err != nil {
			return fmt.Errorf("creating relationship: %w", err)
		}

		if !created {
			fmt.Printf("Relationship already exists: %s\n", rel.ID)
			fmt.Printf("  %s -[%s]-> %s\n", rel.PersonID, rel.Type, rel.RelatedPersonID)
			return nil
		}
		fmt.Printf("Created relationship: %s\n", rel.ID)
		fmt.Printf("  %s -[%s]-> %s\n", rel.PersonID, rel.Type, rel.RelatedPersonID)
		fmt.Printf("  %s -[%s]-> %s (reciprocal)\n", rel.RelatedPersonID, rel.Type.Reciprocal(), rel.PersonID)
		return nil
	})
}

func newRelateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <relationship-id>",
		Short: "Delete a relationship",
		Long:  "Deletes a relationship and its reciprocal.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelateDelete,
	}
}

func runRelateDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	relID := args[0]

	return withDeps(ctx, func(d *Deps) error {
		if err := d.Relationships.HandleDelete(ctx, relID); err != nil {
			return fmt.Errorf("deleting relationship: %w", err)
		}

		fmt.Printf("Deleted relationship: %s\n", relID)
		return nil
	})
}

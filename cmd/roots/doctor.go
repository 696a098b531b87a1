package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/domain/services"
)

func newDoctorCmd() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that every relationship has a matching reciprocal",
		Long: `Scans every relationship for a missing or mismatched reciprocal and
for edges pointing at deleted people. With --repair, missing reciprocals are
created and dangling edges removed; type mismatches are left for review.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if repair {
				return runDoctorRepair(cmd)
			}
			return runDoctorCheck(cmd)
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Fix what can be fixed automatically")

	return cmd
}

func runDoctorCheck(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		count, err := d.Relationships.HandleCount(ctx)
		if err != nil {
			return fmt.Errorf("counting relationships: %w", err)
		}
		issues, err := d.Relationships.HandleCheck(ctx)
		if err != nil {
			return fmt.Errorf("checking relationships: %w", err)
		}

		fmt.Printf("Checked %d relationships\n", count)
		if len(issues) == 0 {
			fmt.Println("No problems found.")
			return nil
		}

		printIssues(issues)
		fmt.Println("\nRun 'roots doctor --repair' to fix them.")
		return nil
	})
}

func runDoctorRepair(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.Relationships.HandleRepair(ctx)
		if err != nil {
			return fmt.Errorf("repairing relationships: %w", err)
		}

		fmt.Printf("Created %d reciprocals, removed %d dangling edges\n", result.Created, result.Removed)
		if len(result.Unresolved) > 0 {
			fmt.Println("\nUnresolved:")
			printIssues(result.Unresolved)
		}
		return nil
	})
}

func printIssues(issues []services.ReciprocityIssue) {
	fmt.Printf("%d problems:\n", len(issues))
	for _, issue := range issues {
		rel := issue.Relationship
		fmt.Printf("  [%s] %s -[%s]-> %s: %s", rel.ID, rel.PersonID, rel.Type, rel.RelatedPersonID, issue.Problem)
		if issue.Found != nil {
			fmt.Printf(" (found %s)", issue.Found.Type)
		}
		fmt.Println()
	}
}

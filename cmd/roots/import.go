package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/application/handlers"
	"github.com/ersonp/roots-core/internal/domain/services"
)

type importFlags struct {
	format     string
	dryRun     bool
	onConflict string
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import people, relationships, events and sources from JSON or CSV",
		Long: `Imports a family tree from a structured file. JSON documents hold
people, relationships, events and sources; CSV files hold people only.
Only one direction of each relationship needs to be listed.
Invalid records are reported and skipped; the rest are imported together.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "skip", "Conflict handling (skip, overwrite)")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	if flags.onConflict != string(services.ConflictSkip) && flags.onConflict != string(services.ConflictOverwrite) {
		return fmt.Errorf("invalid --on-conflict value %q (valid: skip, overwrite)", flags.onConflict)
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		opts := handlers.ImportOptions{
			Format:     flags.format,
			DryRun:     flags.dryRun,
			OnConflict: services.ConflictStrategy(flags.onConflict),
		}

		fmt.Printf("Importing %s...\n", filePath)

		result, err := d.Import.Handle(ctx, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		printImportResult(result, flags.dryRun)
		return nil
	})
}

func printImportResult(result *handlers.ImportResult, dryRun bool) {
	if len(result.Errors) > 0 {
		fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e.Error())
		}
	}

	fmt.Println()
	if dryRun {
		fmt.Printf("Dry run: %d records would be imported", result.Imported)
	} else {
		fmt.Printf("Imported: %d records", result.Imported)
	}

	if result.Skipped > 0 {
		fmt.Printf(", %d skipped (already exist)", result.Skipped)
	}

	if len(result.Errors) > 0 {
		fmt.Printf(", %d errors", len(result.Errors))
	}

	fmt.Println()
}

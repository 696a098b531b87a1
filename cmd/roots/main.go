// Package main provides the entry point for the roots CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0-dev"
	globalTree string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "roots",
		Short:         "A family tree keeper with a reciprocal relationship graph",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalTree, "tree", "t", "", "Family tree to operate on (required)")

	rootCmd.AddCommand(
		newInitCmd(),
		newTreesCmd(),
		newPersonCmd(),
		newRelateCmd(),
		newRelationsCmd(),
		newAncestorsCmd(),
		newDescendantsCmd(),
		newEventCmd(),
		newMediaCmd(),
		newSourceCmd(),
		newCiteCmd(),
		newImportCmd(),
		newExportCmd(),
		newSeedCmd(),
		newMatchCmd(),
		newDoctorCmd(),
		newServeCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}

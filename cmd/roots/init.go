package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/application/handlers"
	embedder "github.com/ersonp/roots-core/internal/infrastructure/embedder/openai"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize roots in the current directory",
		Long: `Writes a default .roots/config.yaml. Edit it to enable duplicate
matching or S3 media storage, then create a tree with 'roots trees create'.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	result, err := handlers.NewInitHandler(embedder.VectorSize).Handle(cmd.Context(), cwd)
	if err != nil {
		return err
	}

	fmt.Printf("Initialized roots: %s\n", result.ConfigPath)
	fmt.Println("Next: roots trees create NAME")
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/application/handlers"
	"github.com/ersonp/roots-core/internal/domain/ports"
	"github.com/ersonp/roots-core/internal/infrastructure/config"
)

func newTreesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trees",
		Short: "Manage family trees",
		RunE:  runTreesList,
	}

	cmd.AddCommand(
		newTreesListCmd(),
		newTreesCreateCmd(),
		newTreesDeleteCmd(),
	)

	return cmd
}

func newTreesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all trees",
		RunE:  runTreesList,
	}
}

func runTreesList(_ *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	trees, err := handlers.NewInitHandler(0).HandleListTrees(cwd)
	if err != nil {
		return err
	}

	if len(trees) == 0 {
		fmt.Println("No trees configured.")
		fmt.Println("Use 'roots trees create NAME' to create a tree.")
		return nil
	}

	fmt.Printf("%-20s %-25s %s\n", "NAME", "COLLECTION", "DESCRIPTION")
	fmt.Printf("%-20s %-25s %s\n", "----", "----------", "-----------")

	for _, tree := range trees {
		fmt.Printf("%-20s %-25s %s\n", tree.Name, tree.Collection, tree.Description)
	}

	return nil
}

func newTreesCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new tree",
		Long: `Registers a tree and creates its database directory. The config is
initialized first if needed. With matching enabled the tree's Qdrant
collection is created as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTreesCreate(cmd, args[0], description)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Tree description")

	return cmd
}

func runTreesCreate(cmd *cobra.Command, name, description string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	return withCollections(cwd, name, func(_ *config.Config, collections ports.CollectionManager, vectorSize uint64) error {
		result, err := handlers.NewInitHandler(vectorSize).HandleCreateTree(cmd.Context(), cwd, name, description, collections)
		if err != nil {
			return err
		}

		if result.ConfigCreated {
			fmt.Printf("Initialized roots in %s\n", config.ConfigDir(cwd))
		}
		fmt.Printf("Created tree %q\n", result.Name)
		fmt.Printf("  Database:   %s\n", result.DatabasePath)
		if collections != nil {
			fmt.Printf("  Collection: %s\n", result.Collection)
		}
		return nil
	})
}

func newTreesDeleteCmd() *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a tree",
		Long: `Unregisters a tree. With --purge its database and match collection
are removed too; without it the data stays on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTreesDelete(cmd, args[0], purge)
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Also delete the tree's data")

	return cmd
}

func runTreesDelete(cmd *cobra.Command, name string, purge bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	return withCollections(cwd, name, func(_ *config.Config, collections ports.CollectionManager, vectorSize uint64) error {
		if err := handlers.NewInitHandler(vectorSize).HandleDeleteTree(cmd.Context(), cwd, name, purge, collections); err != nil {
			return err
		}

		if purge {
			fmt.Printf("Deleted tree %q and its data\n", name)
		} else {
			fmt.Printf("Unregistered tree %q (data kept in %s)\n", name, config.TreeDir(cwd, name))
		}
		return nil
	})
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Find likely duplicate people",
		Long: `Duplicate matching embeds each person's name, dates and places and
searches for the nearest neighbours. Enable it with match.enabled in the
config; it needs an OpenAI API key and a running Qdrant.`,
	}

	cmd.AddCommand(
		newMatchCandidatesCmd(),
		newMatchReindexCmd(),
	)

	return cmd
}

func newMatchCandidatesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "candidates <person-id>",
		Short: "List people similar to a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				matches, err := d.Match.HandleCandidates(cmd.Context(), args[0], limit)
				if err != nil {
					return fmt.Errorf("finding candidates: %w", err)
				}

				if len(matches) == 0 {
					fmt.Println("No candidates found.")
					return nil
				}

				fmt.Printf("%-38s %-6s %s\n", "ID", "SCORE", "NAME")
				for _, m := range matches {
					fmt.Printf("%-38s %-6.3f %s\n", m.PersonID, m.Score, m.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum candidates (default from config)")

	return cmd
}

func newMatchReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the match index from the tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				n, err := d.Match.HandleReindex(cmd.Context())
				if err != nil {
					return fmt.Errorf("reindexing: %w", err)
				}
				fmt.Printf("Indexed %d people\n", n)
				return nil
			})
		},
	}
}

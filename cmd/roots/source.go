package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/application/handlers"
)

type sourceFlags struct {
	sourceType string
	title      string
	citation   string
	url        string
	notes      string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sourceType, "type", "", "Source type (book, record, census, website, other)")
	cmd.Flags().StringVar(&f.title, "title", "", "Title")
	cmd.Flags().StringVar(&f.citation, "citation", "", "Full citation text")
	cmd.Flags().StringVar(&f.url, "url", "", "URL")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Notes")
}

func newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "source",
		Aliases: []string{"sources"},
		Short:   "Manage sources",
	}

	cmd.AddCommand(
		newSourceAddCmd(),
		newSourceUpdateCmd(),
		newSourceDeleteCmd(),
		newSourceListCmd(),
	)

	return cmd
}

func newSourceAddCmd() *cobra.Command {
	var flags sourceFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a source",
		Long: `Adds a source that people, events and relationships can cite.

Examples:
  roots source add --type census --title "1921 Census of England" --url https://example.org/1921`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				source, err := d.Sources.HandleCreate(cmd.Context(), handlers.CreateSourceRequest{
					Type:     flags.sourceType,
					Title:    flags.title,
					Citation: flags.citation,
					URL:      flags.url,
					Notes:    flags.notes,
				})
				if err != nil {
					return fmt.Errorf("adding source: %w", err)
				}
				fmt.Printf("Added source: %s (%s)\n", source.Title, source.ID)
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newSourceUpdateCmd() *cobra.Command {
	var flags sourceFlags

	cmd := &cobra.Command{
		Use:   "update <source-id>",
		Short: "Update a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			var req handlers.UpdateSourceRequest
			if changed("type") {
				req.Type = &flags.sourceType
			}
			if changed("title") {
				req.Title = &flags.title
			}
			if changed("citation") {
				req.Citation = &flags.citation
			}
			if changed("url") {
				req.URL = &flags.url
			}
			if changed("notes") {
				req.Notes = &flags.notes
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				source, err := d.Sources.HandleUpdate(cmd.Context(), args[0], req)
				if err != nil {
					return fmt.Errorf("updating source: %w", err)
				}
				fmt.Printf("Updated source: %s\n", source.ID)
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newSourceDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <source-id>",
		Short: "Delete a source and its citations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				if err := d.Sources.HandleDelete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("deleting source: %w", err)
				}
				fmt.Printf("Deleted source: %s\n", args[0])
				return nil
			})
		},
	}
}

func newSourceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sources by title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				sources, err := d.Sources.HandleList(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing sources: %w", err)
				}

				if len(sources) == 0 {
					fmt.Println("No sources found.")
					return nil
				}

				for _, s := range sources {
					fmt.Printf("%s  [%s] %s\n", s.ID, s.Type, s.Title)
					if s.URL != "" {
						fmt.Printf("  %s\n", s.URL)
					}
				}
				return nil
			})
		},
	}
}

func newCiteCmd() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "cite <source-id> <person|event|relationship> <subject-id>",
		Short: "Cite a source for a person, event or relationship",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := handlers.CiteRequest{SourceID: args[0], SubjectKind: args[1], SubjectID: args[2]}
			return withDeps(cmd.Context(), func(d *Deps) error {
				if remove {
					if err := d.Sources.HandleUncite(cmd.Context(), req); err != nil {
						return fmt.Errorf("removing citation: %w", err)
					}
					fmt.Println("Removed citation.")
					return nil
				}

				if _, err := d.Sources.HandleCite(cmd.Context(), req); err != nil {
					return fmt.Errorf("citing source: %w", err)
				}
				fmt.Printf("Cited %s for %s %s\n", args[0], args[1], args[2])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the citation instead")
	cmd.AddCommand(newCitationsCmd())

	return cmd
}

func newCitationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <person|event|relationship> <subject-id>",
		Short: "List the sources cited for a subject",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				citations, err := d.Sources.HandleCitations(ctx, args[0], args[1])
				if err != nil {
					return fmt.Errorf("listing citations: %w", err)
				}

				if len(citations) == 0 {
					fmt.Println("No citations found.")
					return nil
				}

				for _, c := range citations {
					source, err := d.Sources.HandleGet(ctx, c.SourceID)
					if err != nil {
						return fmt.Errorf("getting source: %w", err)
					}
					fmt.Printf("%s  %s\n", source.ID, source.Title)
				}
				return nil
			})
		},
	}
}

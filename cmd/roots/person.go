package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/application/handlers"
)

type personFlags struct {
	firstName  string
	lastName   string
	gender     string
	living     bool
	birthDate  string
	birthPlace string
	deathDate  string
	deathPlace string
	notes      string
}

func (f *personFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.firstName, "first", "", "First name")
	cmd.Flags().StringVar(&f.lastName, "last", "", "Last name")
	cmd.Flags().StringVarP(&f.gender, "gender", "g", "", "Gender (male, female, other, unknown)")
	cmd.Flags().BoolVar(&f.living, "living", false, "Whether the person is living")
	cmd.Flags().StringVar(&f.birthDate, "born", "", "Birth date (YYYY-MM-DD, YYYY-MM or YYYY)")
	cmd.Flags().StringVar(&f.birthPlace, "birth-place", "", "Birth place")
	cmd.Flags().StringVar(&f.deathDate, "died", "", "Death date (YYYY-MM-DD, YYYY-MM or YYYY)")
	cmd.Flags().StringVar(&f.deathPlace, "death-place", "", "Death place")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Free-form notes")
}

func newPersonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "person",
		Aliases: []string{"people"},
		Short:   "Manage people in the tree",
	}

	cmd.AddCommand(
		newPersonAddCmd(),
		newPersonUpdateCmd(),
		newPersonDeleteCmd(),
		newPersonShowCmd(),
		newPersonListCmd(),
		newPersonHistoryCmd(),
	)

	return cmd
}

func newPersonAddCmd() *cobra.Command {
	var flags personFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person",
		Long: `Adds a person. At least one of --first or --last is required.
A death date marks the person as not living.

Examples:
  roots person add --first John --last Smith --born 1920-05-01 --birth-place Leeds
  roots person add --first Mary --last Smith --living`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPersonAdd(cmd, flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runPersonAdd(cmd *cobra.Command, flags personFlags) error {
	req := handlers.CreatePersonRequest{
		FirstName:  flags.firstName,
		LastName:   flags.lastName,
		Gender:     flags.gender,
		BirthDate:  flags.birthDate,
		BirthPlace: flags.birthPlace,
		DeathDate:  flags.deathDate,
		DeathPlace: flags.deathPlace,
		Notes:      flags.notes,
	}
	if cmd.Flags().Changed("living") {
		req.IsLiving = &flags.living
	}

	return withDeps(cmd.Context(), func(d *Deps) error {
		person, err := d.People.HandleCreate(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("adding person: %w", err)
		}

		fmt.Printf("Added person: %s (%s)\n", person.FullName(), person.ID)
		return nil
	})
}

func newPersonUpdateCmd() *cobra.Command {
	var flags personFlags

	cmd := &cobra.Command{
		Use:   "update <person-id>",
		Short: "Update a person",
		Long: `Updates only the fields whose flags are given. Pass an empty date
to clear it, e.g. --died "".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonUpdate(cmd, args[0], flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runPersonUpdate(cmd *cobra.Command, id string, flags personFlags) error {
	changed := cmd.Flags().Changed
	var req handlers.UpdatePersonRequest
	if changed("first") {
		req.FirstName = &flags.firstName
	}
	if changed("last") {
		req.LastName = &flags.lastName
	}
	if changed("gender") {
		req.Gender = &flags.gender
	}
	if changed("living") {
		req.IsLiving = &flags.living
	}
	if changed("born") {
		req.BirthDate = &flags.birthDate
	}
	if changed("birth-place") {
		req.BirthPlace = &flags.birthPlace
	}
	if changed("died") {
		req.DeathDate = &flags.deathDate
	}
	if changed("death-place") {
		req.DeathPlace = &flags.deathPlace
	}
	if changed("notes") {
		req.Notes = &flags.notes
	}

	return withDeps(cmd.Context(), func(d *Deps) error {
		person, err := d.People.HandleUpdate(cmd.Context(), id, req)
		if err != nil {
			return fmt.Errorf("updating person: %w", err)
		}

		fmt.Printf("Updated person: %s (%s)\n", person.FullName(), person.ID)
		return nil
	})
}

func newPersonDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <person-id>",
		Short: "Delete a person",
		Long:  "Deletes a person together with their relationships, events and citations.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				if err := d.People.HandleDelete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("deleting person: %w", err)
				}
				fmt.Printf("Deleted person: %s\n", args[0])
				return nil
			})
		},
	}
}

func newPersonShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <person-id>",
		Short: "Show a person with their relationships and events",
		Args:  cobra.ExactArgs(1),
		RunE:  runPersonShow,
	}
}

func runPersonShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		rels, err := d.Relationships.HandleList(ctx, args[0], handlers.ListOptions{})
		if err != nil {
			return fmt.Errorf("getting person: %w", err)
		}
		events, err := d.Events.HandleList(ctx, args[0])
		if err != nil {
			return fmt.Errorf("listing events: %w", err)
		}

		displayPerson(rels.Person)
		if len(rels.Relationships) > 0 {
			fmt.Println("  Relationships:")
			for _, info := range rels.Relationships {
				fmt.Printf("    %-8s %s\n", info.Relationship.Type, relatedName(info))
			}
		}
		if len(events) > 0 {
			fmt.Println("  Events:")
			for _, e := range events {
				fmt.Printf("    %-10s %-10s %s %s\n", e.Type, formatDate(e.Date), e.Place, e.Description)
			}
		}
		return nil
	})
}

func newPersonListCmd() *cobra.Command {
	var (
		search string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List or search people",
		Long: `Lists people sorted by last name. --search matches any part of the
first or last name, ignoring case and accents.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				result, err := d.People.HandleList(cmd.Context(), handlers.ListPeopleOptions{
					Search: search,
					Limit:  limit,
					Offset: offset,
				})
				if err != nil {
					return fmt.Errorf("listing people: %w", err)
				}

				if len(result.People) == 0 {
					fmt.Println("No people found.")
					return nil
				}

				fmt.Printf("Showing %d of %d people:\n\n", len(result.People), result.Total)
				return renderPeople(result.People)
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name")
	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of people to display")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of people to skip")

	return cmd
}

func newPersonHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <person-id>",
		Short: "Show the change log for a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				entries, err := d.People.HandleHistory(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("reading history: %w", err)
				}

				if len(entries) == 0 {
					fmt.Println("No history recorded.")
					return nil
				}

				for _, e := range entries {
					fmt.Printf("%s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action)
				}
				return nil
			})
		},
	}
}

func relatedName(info handlers.RelationshipInfo) string {
	if info.Related == nil {
		return info.Relationship.RelatedPersonID + " (missing)"
	}
	return fmt.Sprintf("%s (%s)", info.Related.FullName(), info.Related.ID)
}

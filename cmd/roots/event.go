package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/application/handlers"
)

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events"},
		Short:   "Manage life events",
	}

	cmd.AddCommand(
		newEventAddCmd(),
		newEventUpdateCmd(),
		newEventDeleteCmd(),
		newEventListCmd(),
	)

	return cmd
}

type eventFlags struct {
	eventType   string
	date        string
	place       string
	description string
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.eventType, "type", "", "Event type (birth, death, marriage, residence, ...)")
	cmd.Flags().StringVar(&f.date, "date", "", "Date (YYYY-MM-DD, YYYY-MM or YYYY)")
	cmd.Flags().StringVar(&f.place, "place", "", "Place")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
}

func newEventAddCmd() *cobra.Command {
	var flags eventFlags

	cmd := &cobra.Command{
		Use:   "add <person-id>",
		Short: "Record a life event for a person",
		Long: `Records an event. Unknown types are stored as "other".

Examples:
  roots event add 3f2a... --type residence --date 1921 --place "Leeds"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				event, err := d.Events.HandleCreate(cmd.Context(), handlers.CreateEventRequest{
					PersonID:    args[0],
					Type:        flags.eventType,
					Date:        flags.date,
					Place:       flags.place,
					Description: flags.description,
				})
				if err != nil {
					return fmt.Errorf("adding event: %w", err)
				}

				fmt.Printf("Added event: %s (%s)\n", event.ID, event.Type)
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newEventUpdateCmd() *cobra.Command {
	var flags eventFlags

	cmd := &cobra.Command{
		Use:   "update <event-id>",
		Short: "Update an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			var req handlers.UpdateEventRequest
			if changed("type") {
				req.Type = &flags.eventType
			}
			if changed("date") {
				req.Date = &flags.date
			}
			if changed("place") {
				req.Place = &flags.place
			}
			if changed("description") {
				req.Description = &flags.description
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				event, err := d.Events.HandleUpdate(cmd.Context(), args[0], req)
				if err != nil {
					return fmt.Errorf("updating event: %w", err)
				}
				fmt.Printf("Updated event: %s\n", event.ID)
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newEventDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				if err := d.Events.HandleDelete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("deleting event: %w", err)
				}
				fmt.Printf("Deleted event: %s\n", args[0])
				return nil
			})
		},
	}
}

func newEventListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <person-id>",
		Short: "List a person's events in date order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				events, err := d.Events.HandleList(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("listing events: %w", err)
				}

				if len(events) == 0 {
					fmt.Println("No events found.")
					return nil
				}

				for _, e := range events {
					fmt.Printf("ID: %s\n", e.ID)
					fmt.Printf("  [%s] %s %s\n", e.Type, formatDate(e.Date), e.Place)
					if e.Description != "" {
						fmt.Printf("  %s\n", e.Description)
					}
					fmt.Println()
				}
				return nil
			})
		},
	}
}

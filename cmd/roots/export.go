package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/infrastructure/parsers"
)

type exportFlags struct {
	format string
	output string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the tree to file",
		Long: `Exports the tree to JSON, CSV, or markdown format.
JSON output can be imported again with 'roots import'. CSV holds people only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, csv, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !slices.Contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	return withDeps(cmd.Context(), func(d *Deps) error {
		doc, err := d.Export.Handle(cmd.Context())
		if err != nil {
			return fmt.Errorf("exporting tree: %w", err)
		}

		return exportDocument(doc, flags)
	})
}

func exportDocument(doc *parsers.Document, flags exportFlags) (err error) {
	var w io.Writer = os.Stdout
	var f *os.File

	if flags.output != "" {
		f, err = os.OpenFile(flags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()
		w = f
	}

	if err := formatDocument(w, doc, flags.format); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if flags.output != "" {
		fmt.Printf("Exported %d people and %d relationships to %s\n",
			len(doc.People), len(doc.Relationships), flags.output)
	}

	return nil
}

func formatDocument(w io.Writer, doc *parsers.Document, format string) error {
	switch format {
	case "json":
		return formatJSON(w, doc)
	case "csv":
		return formatCSV(w, doc.People)
	case "markdown":
		return formatMarkdown(w, doc)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func formatJSON(w io.Writer, doc *parsers.Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// formatCSV writes the people sheet in the column layout the CSV importer reads.
func formatCSV(w io.Writer, people []parsers.RawPerson) error {
	writer := csv.NewWriter(w)

	header := []string{"id", "first_name", "last_name", "gender", "is_living",
		"birth_date", "birth_place", "death_date", "death_place", "notes"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, p := range people {
		living := ""
		if p.IsLiving != nil {
			living = strconv.FormatBool(*p.IsLiving)
		}
		row := []string{
			p.ID,
			p.FirstName,
			p.LastName,
			p.Gender,
			living,
			p.BirthDate,
			p.BirthPlace,
			p.DeathDate,
			p.DeathPlace,
			p.Notes,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatMarkdown(w io.Writer, doc *parsers.Document) error {
	if _, err := fmt.Fprintf(w, "# Family Tree\n\nTotal: %d people\n\n", len(doc.People)); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "| Name | Born | Birth Place | Died | Death Place |\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "|------|------|-------------|------|-------------|\n"); err != nil {
		return err
	}

	names := make(map[string]string, len(doc.People))
	for _, p := range doc.People {
		name := strings.TrimSpace(p.FirstName + " " + p.LastName)
		names[p.ID] = name
		if _, err := fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			escapeMarkdown(name),
			p.BirthDate,
			escapeMarkdown(p.BirthPlace),
			p.DeathDate,
			escapeMarkdown(p.DeathPlace),
		); err != nil {
			return err
		}
	}

	if len(doc.Relationships) == 0 {
		return nil
	}

	if _, err := fmt.Fprint(w, "\n## Relationships\n\n| Person | Relationship | Related |\n|--------|--------------|---------|\n"); err != nil {
		return err
	}
	for _, r := range doc.Relationships {
		if _, err := fmt.Fprintf(w, "| %s | %s | %s |\n",
			escapeMarkdown(nameOr(names, r.PersonID)),
			r.Type,
			escapeMarkdown(nameOr(names, r.RelatedPersonID)),
		); err != nil {
			return err
		}
	}

	return nil
}

func nameOr(names map[string]string, id string) string {
	if name := names[id]; name != "" {
		return name
	}
	return id
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

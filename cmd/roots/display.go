package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ersonp/roots-core/internal/domain/entities"
)

const dateLayout = "2006-01-02"

func capitalize(s string) string {
	return cases.Title(language.English).String(s)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// lifespan renders "1920-05-01 - 1999-12-31", leaving unknown ends blank.
func lifespan(p *entities.Person) string {
	birth, death := formatDate(p.BirthDate), formatDate(p.DeathDate)
	switch {
	case birth == "" && death == "":
		return ""
	case death == "" && p.IsLiving:
		return birth + " -"
	default:
		return birth + " - " + death
	}
}

func displayPerson(p *entities.Person) {
	fmt.Printf("ID: %s\n", p.ID)
	fmt.Printf("  Name:   %s\n", p.FullName())
	if p.Gender != "" {
		fmt.Printf("  Gender: %s\n", p.Gender)
	}
	if p.BirthDate != nil || p.BirthPlace != "" {
		fmt.Printf("  Born:   %s %s\n", formatDate(p.BirthDate), p.BirthPlace)
	}
	if p.DeathDate != nil || p.DeathPlace != "" {
		fmt.Printf("  Died:   %s %s\n", formatDate(p.DeathDate), p.DeathPlace)
	}
	if age, ok := p.Age(time.Now()); ok {
		fmt.Printf("  Age:    %d\n", age)
	}
	fmt.Printf("  Living: %t\n", p.IsLiving)
	if p.Notes != "" {
		fmt.Printf("  Notes:  %s\n", p.Notes)
	}
}

func renderPeople(people []entities.Person) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Gender", "Lifespan", "Birth Place")
	for i := range people {
		p := &people[i]
		if err := table.Append(p.ID, p.FullName(), string(p.Gender), lifespan(p), p.BirthPlace); err != nil {
			return err
		}
	}
	return table.Render()
}

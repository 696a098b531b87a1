package entities

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldName normalizes a name for case- and accent-insensitive matching:
// "Zoë Ångström" and "zoe angstrom" fold to the same key.
func FoldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		stripped = strings.TrimSpace(name)
	}
	return cases.Fold().String(stripped)
}

// MatchesName reports whether term occurs in p's first or last name after
// folding. An empty term matches everyone.
func (p *Person) MatchesName(term string) bool {
	key := FoldName(term)
	if key == "" {
		return true
	}
	return strings.Contains(FoldName(p.FirstName), key) || strings.Contains(FoldName(p.LastName), key)
}

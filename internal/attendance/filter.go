package attendance

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/rollcall/internal/models"
)

// NormalizeTerm trims and lowercases a search term.
func NormalizeTerm(term string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(term))
}

// FilterByName returns the students whose lowercased name contains the
// normalized term, in roster order. An empty term returns r itself.
func FilterByName(r models.Roster, term string) models.Roster {
	t := NormalizeTerm(term)
	if t == "" {
		return r
	}
	// A Caser keeps state, so one is made per call.
	lower := cases.Lower(language.Und)
	out := models.Roster{}
	for _, s := range r {
		if strings.Contains(lower.String(s.Name), t) {
			out = append(out, s)
		}
	}
	return out
}

package rules

import (
	"fmt"
	"strings"
	"unicode"

	"docdocs-backend/internal/model"
)

// CheckRequiredSections emits one ERROR per canonical section that no title matches.
// A title matches when it contains any keyword, ignoring case.
func (rs RuleSet) CheckRequiredSections(doc model.Document) []model.Issue {
	var issues []model.Issue
	titles := doc.SectionTitles()

	for _, required := range rs.RequiredSections {
		if matchesAny(titles, required.Keywords) {
			continue
		}
		issues = append(issues, model.Issue{
			ID:       "MISSING_SECTION_" + strings.ToUpper(required.Name),
			Severity: model.SeverityError,
			Message:  fmt.Sprintf("Missing required section: %s", titleCase(required.Name)),
			Page:     nil,
			Penalty:  rs.Penalties.MissingSection,
		})
	}
	return issues
}

func matchesAny(titles []string, keywords []string) bool {
	for _, title := range titles {
		for _, keyword := range keywords {
			if strings.Contains(title, strings.ToLower(keyword)) {
				return true
			}
		}
	}
	return false
}

// titleCase upper-cases the first letter of every letter run and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

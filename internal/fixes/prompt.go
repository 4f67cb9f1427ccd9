package fixes

import (
	_ "embed"
	"fmt"
	"strings"

	"docdocs-backend/internal/model"
)

//go:embed prompts/system.txt
var systemPrompt string

const maxExcerptRunes = 1500

func buildPrompt(doc model.Document, issue model.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Issue %s (%s): %s\n", issue.ID, issue.Severity, issue.Message)
	if issue.Page != nil {
		fmt.Fprintf(&b, "Page: %d\n", *issue.Page)
	}
	fmt.Fprintf(&b, "Document: %s (%s, %d pages)\n", doc.Metadata.FileName, doc.Metadata.FileType, doc.Metadata.PageCount)

	b.WriteString("Outline:\n")
	for _, s := range doc.Sections {
		fmt.Fprintf(&b, "%sH%d %s\n", strings.Repeat("  ", max(0, s.Level-1)), s.Level, s.Title)
	}

	if excerpt := excerptFor(doc, issue); excerpt != "" {
		b.WriteString("Excerpt:\n")
		b.WriteString(excerpt)
		b.WriteString("\n")
	}
	return b.String()
}

// excerptFor returns the content of the first section on the issue's page, or of the
// first section when the issue has no page.
func excerptFor(doc model.Document, issue model.Issue) string {
	for _, s := range doc.Sections {
		if issue.Page != nil && (s.Page == nil || *s.Page != *issue.Page) {
			continue
		}
		runes := []rune(s.Content)
		if len(runes) > maxExcerptRunes {
			runes = runes[:maxExcerptRunes]
		}
		return string(runes)
	}
	return ""
}

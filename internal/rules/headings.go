package rules

import (
	"fmt"

	"docdocs-backend/internal/model"
)

// CheckHeadingSequence flags every heading that is more than one level deeper than the
// heading right before it. Decreases never count.
//
// The index in the issue id is the position in the heading-level list, while the page is
// looked up at that same position in the full section list.
func (rs RuleSet) CheckHeadingSequence(doc model.Document) []model.Issue {
	var issues []model.Issue
	levels := doc.HeadingLevels()
	if len(levels) == 0 {
		return issues
	}

	prev := levels[0]
	for idx := 1; idx < len(levels); idx++ {
		level := levels[idx]
		if level > prev+1 {
			issues = append(issues, model.Issue{
				ID:       fmt.Sprintf("BROKEN_HEADING_SEQUENCE_%d", idx),
				Severity: model.SeverityWarn,
				Message:  fmt.Sprintf("Heading level jumps from H%d to H%d (skipped levels)", prev, level),
				Page:     doc.SectionPage(idx),
				Penalty:  rs.Penalties.BrokenHeadingSequence,
			})
		}
		prev = level
	}
	return issues
}

// CheckExcessiveDepth flags every heading deeper than MaxHeadingDepth.
func (rs RuleSet) CheckExcessiveDepth(doc model.Document) []model.Issue {
	var issues []model.Issue
	for idx, level := range doc.HeadingLevels() {
		if level <= rs.MaxHeadingDepth {
			continue
		}
		issues = append(issues, model.Issue{
			ID:       fmt.Sprintf("EXCESSIVE_HEADING_DEPTH_%d", idx),
			Severity: model.SeverityWarn,
			Message:  fmt.Sprintf("Heading H%d is too deep (recommend max H%d)", level, rs.MaxHeadingDepth),
			Page:     doc.SectionPage(idx),
			Penalty:  rs.Penalties.ExcessiveHeadingDepth,
		})
	}
	return issues
}

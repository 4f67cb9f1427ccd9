package model

// Severity classifies an issue.
type Severity string

const (
	// SeverityError marks a missing mandatory structural section.
	SeverityError Severity = "ERROR"
	// SeverityWarn marks every other heuristic finding.
	SeverityWarn Severity = "WARN"
)

// Issue is one detected problem.
type Issue struct {
	ID       string   `json:"id" binding:"required"`
	Severity Severity `json:"severity" binding:"required,oneof=ERROR WARN"`
	Message  string   `json:"message"`
	Page     *int     `json:"page"`
	Penalty  int      `json:"penalty" binding:"min=0"`
}

// LintSummary tallies issues by severity.
type LintSummary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// LintReport is the final analysis output.
type LintReport struct {
	Score   int         `json:"score"`
	Summary LintSummary `json:"summary"`
	Issues  []Issue     `json:"issues"`
}

// Summarize counts issues per severity. Penalties play no part.
func Summarize(issues []Issue) LintSummary {
	var summary LintSummary
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityError:
			summary.Errors++
		case SeverityWarn:
			summary.Warnings++
		}
	}
	return summary
}

// FixSuggestion is a proposed rewrite for one issue. IssueID refers back to Issue.ID.
type FixSuggestion struct {
	IssueID    string  `json:"issue_id"`
	Original   string  `json:"original"`
	Suggested  string  `json:"suggested"`
	Confidence float64 `json:"confidence"`
}

package scoring

import (
	"docdocs-backend/internal/model"
	"docdocs-backend/internal/rules"
)

// MaxScore is the score of a document with no issues.
const MaxScore = 100

// Engine runs the rule battery against documents. It holds no per-analysis state and
// can be shared across goroutines.
type Engine struct {
	Rules rules.RuleSet
}

// NewEngine constructs an Engine for the given rule set.
func NewEngine(rs rules.RuleSet) *Engine {
	return &Engine{Rules: rs}
}

// Analyze runs every rule in its fixed order and returns the score with the
// concatenated issues.
func (e *Engine) Analyze(doc model.Document) (int, []model.Issue) {
	checks := []func(model.Document) []model.Issue{
		e.Rules.CheckRequiredSections,
		e.Rules.CheckImageCaptions,
		e.Rules.CheckHeadingSequence,
		e.Rules.CheckExcessiveDepth,
	}

	issues := make([]model.Issue, 0)
	for _, check := range checks {
		issues = append(issues, check(doc)...)
	}
	return Score(issues), issues
}

// Report analyzes doc and attaches the severity summary.
func (e *Engine) Report(doc model.Document) model.LintReport {
	score, issues := e.Analyze(doc)
	return BuildReport(score, issues)
}

// Score subtracts every penalty from MaxScore and clamps at zero.
func Score(issues []model.Issue) int {
	score := MaxScore
	for _, issue := range issues {
		score -= issue.Penalty
	}
	if score < 0 {
		return 0
	}
	return score
}

// BuildReport assembles the final report from a score and its issues.
func BuildReport(score int, issues []model.Issue) model.LintReport {
	if issues == nil {
		issues = []model.Issue{}
	}
	return model.LintReport{
		Score:   score,
		Summary: model.Summarize(issues),
		Issues:  issues,
	}
}

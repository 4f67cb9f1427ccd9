package fixes

import (
	"context"

	"golang.org/x/sync/errgroup"

	"docdocs-backend/internal/llm"
	"docdocs-backend/internal/model"
	"docdocs-backend/internal/shared/telemetry"
)

// DefaultConcurrency bounds the number of in-flight LLM calls per request.
const DefaultConcurrency = 4

// Generator produces fix suggestions for lint issues. A nil client keeps the generator
// a no-op even when suggestions are requested.
type Generator struct {
	client      llm.Client
	concurrency int
}

// NewGenerator constructs a Generator. client may be nil.
func NewGenerator(client llm.Client, concurrency int) *Generator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Generator{client: client, concurrency: concurrency}
}

// Enabled reports whether an LLM collaborator is configured.
func (g *Generator) Enabled() bool {
	return g != nil && g.client != nil
}

// Generate returns suggestions in issue order. Disabled requests always yield an empty
// list. Failed or invalid model responses are logged and skipped, so only context
// cancellation is returned as an error.
func (g *Generator) Generate(ctx context.Context, doc model.Document, issues []model.Issue, enabled bool) ([]model.FixSuggestion, error) {
	out := []model.FixSuggestion{}
	if !enabled || !g.Enabled() || len(issues) == 0 {
		return out, nil
	}

	results := make([]*model.FixSuggestion, len(issues))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(g.concurrency)

	for i, issue := range issues {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := g.client.Generate(gctx, buildPrompt(doc, issue), systemPrompt)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				telemetry.Warn("fixes.generate_failed", map[string]any{
					"issue_id": issue.ID,
					"error":    err.Error(),
				})
				return nil
			}

			payload, err := parseSuggestion(raw)
			if err != nil {
				telemetry.Warn("fixes.invalid_response", map[string]any{
					"issue_id": issue.ID,
					"error":    err.Error(),
				})
				return nil
			}

			results[i] = &model.FixSuggestion{
				IssueID:    issue.ID,
				Original:   payload.Original,
				Suggested:  payload.Suggested,
				Confidence: payload.Confidence,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

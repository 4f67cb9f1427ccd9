// Package llm defines the language-model capability used for fix suggestions.
package llm

import "context"

// Client abstracts LLM providers used for fix suggestions.
type Client interface {
	// Generate completes prompt. system is optional guidance and may be empty.
	Generate(ctx context.Context, prompt, system string) (string, error)
}

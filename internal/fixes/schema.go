package fixes

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const suggestionSchema = `{
  "type": "object",
  "required": ["original", "suggested", "confidence"],
  "properties": {
    "original": {"type": "string"},
    "suggested": {"type": "string", "minLength": 1},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

var suggestionLoader = gojsonschema.NewStringLoader(suggestionSchema)

// FieldError is a single schema violation in a model response.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every schema violation found in a model response.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "invalid suggestion: " + strings.Join(parts, "; ")
}

type suggestionPayload struct {
	Original   string  `json:"original"`
	Suggested  string  `json:"suggested"`
	Confidence float64 `json:"confidence"`
}

// parseSuggestion extracts the first JSON object from raw model output and validates it.
func parseSuggestion(raw string) (suggestionPayload, error) {
	obj := extractJSONObject(raw)

	result, err := gojsonschema.Validate(suggestionLoader, gojsonschema.NewStringLoader(obj))
	if err != nil {
		return suggestionPayload{}, fmt.Errorf("validate suggestion: %w", err)
	}
	if !result.Valid() {
		verr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
		}
		return suggestionPayload{}, verr
	}

	var payload suggestionPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return suggestionPayload{}, fmt.Errorf("decode suggestion: %w", err)
	}
	return payload, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

package fixes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdocs-backend/internal/model"
)

type fakeClient struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (f *fakeClient) Generate(ctx context.Context, prompt, system string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.reply(prompt)
}

func sampleIssues() []model.Issue {
	return []model.Issue{
		{ID: "MISSING_SECTION_SAFETY", Severity: model.SeverityError, Message: "Missing required section: Safety", Penalty: 15},
		{ID: "MISSING_IMAGE_CAPTION_0", Severity: model.SeverityWarn, Message: "Image on page 2 missing caption or alt text", Page: model.IntPtr(2), Penalty: 5},
		{ID: "EXCESSIVE_HEADING_DEPTH_3", Severity: model.SeverityWarn, Message: "Heading H5 is too deep (recommend max H4)", Page: model.IntPtr(1), Penalty: 5},
	}
}

func sampleDocument() model.Document {
	return model.Document{
		Sections: []model.Section{
			{Title: "Introduction", Level: 1, Content: "Intro text", Page: model.IntPtr(1)},
			{Title: "Wiring", Level: 2, Content: "Connect the red lead.", Page: model.IntPtr(2)},
		},
		Metadata: model.DocumentMetadata{PageCount: 2, WordCount: 6, FileType: "pdf", FileName: "m.pdf"},
	}
}

func TestGenerateDisabledReturnsEmpty(t *testing.T) {
	client := &fakeClient{reply: func(string) (string, error) { return `{"original":"","suggested":"x","confidence":1}`, nil }}
	gen := NewGenerator(client, 2)

	out, err := gen.Generate(context.Background(), sampleDocument(), sampleIssues(), false)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Empty(t, client.prompts)
}

func TestGenerateWithoutClientReturnsEmpty(t *testing.T) {
	for _, gen := range []*Generator{nil, NewGenerator(nil, 0)} {
		out, err := gen.Generate(context.Background(), sampleDocument(), sampleIssues(), true)
		require.NoError(t, err)
		assert.Empty(t, out)
	}
}

func TestGeneratePreservesIssueOrderAndSkipsInvalid(t *testing.T) {
	client := &fakeClient{reply: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "MISSING_SECTION_SAFETY"):
			return "Sure! Here you go:\n{\"original\": \"\", \"suggested\": \"## Safety\", \"confidence\": 0.8}", nil
		case strings.Contains(prompt, "MISSING_IMAGE_CAPTION_0"):
			return `{"original": "", "suggested": "Figure 1", "confidence": 1.7}`, nil
		default:
			return `{"original": "H5", "suggested": "H4", "confidence": 0.5}`, nil
		}
	}}

	out, err := NewGenerator(client, 3).Generate(context.Background(), sampleDocument(), sampleIssues(), true)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, model.FixSuggestion{IssueID: "MISSING_SECTION_SAFETY", Original: "", Suggested: "## Safety", Confidence: 0.8}, out[0])
	assert.Equal(t, "EXCESSIVE_HEADING_DEPTH_3", out[1].IssueID)
	assert.Len(t, client.prompts, 3)
}

func TestGenerateSkipsClientErrors(t *testing.T) {
	client := &fakeClient{reply: func(string) (string, error) { return "", errors.New("connection refused") }}

	out, err := NewGenerator(client, 1).Generate(context.Background(), sampleDocument(), sampleIssues(), true)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGenerateBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	client := &fakeClient{reply: func(string) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer inFlight.Add(-1)
		return `{"original":"a","suggested":"b","confidence":0.1}`, nil
	}}

	issues := make([]model.Issue, 0, 20)
	for i := 0; i < 20; i++ {
		issues = append(issues, model.Issue{ID: "X", Severity: model.SeverityWarn})
	}

	out, err := NewGenerator(client, 2).Generate(context.Background(), model.Document{}, issues, true)
	require.NoError(t, err)
	assert.Len(t, out, 20)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestGenerateCancelledContext(t *testing.T) {
	client := &fakeClient{reply: func(string) (string, error) { return "", context.Canceled }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(client, 1).Generate(ctx, sampleDocument(), sampleIssues(), true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseSuggestionReportsFields(t *testing.T) {
	_, err := parseSuggestion(`{"original": "a", "confidence": -1}`)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Errors), 2)

	_, err = parseSuggestion("no json here")
	assert.Error(t, err)
}

func TestBuildPromptIncludesPageExcerpt(t *testing.T) {
	prompt := buildPrompt(sampleDocument(), sampleIssues()[1])
	assert.Contains(t, prompt, "MISSING_IMAGE_CAPTION_0")
	assert.Contains(t, prompt, "Page: 2")
	assert.Contains(t, prompt, "Connect the red lead.")
	assert.Contains(t, prompt, "  H2 Wiring")
}

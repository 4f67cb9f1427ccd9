package suggestions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"docdocs-backend/internal/model"
	"docdocs-backend/internal/shared/metrics"
)

type fakeFixes struct {
	mu     sync.Mutex
	calls  int
	doc    model.Document
	issues []model.Issue
	out    []model.FixSuggestion
	err    error
}

func (f *fakeFixes) Generate(ctx context.Context, doc model.Document, issues []model.Issue, enabled bool) ([]model.FixSuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.doc = doc
	f.issues = issues
	return f.out, f.err
}

type fakeServer struct {
	models []string
	err    error
}

func (s fakeServer) Models(ctx context.Context) ([]string, error) { return s.models, s.err }
func (s fakeServer) BaseURL() string { return "http://ollama:11434" }
func (s fakeServer) Model() string { return "llama3.2" }

const issuesBody = `{"issues":[{"id":"MISSING_SECTION_SAFETY","severity":"ERROR","message":"Missing required section: Safety","page":null,"penalty":15}]`

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func post(t *testing.T, r *gin.Engine, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSuggestFixes_DisabledByDefault(t *testing.T) {
	fixes := &fakeFixes{}
	r := newRouter(NewHandler(fixes, nil, metrics.New(), true))

	rec := post(t, r, "/api/suggest-fixes", issuesBody+"}")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Suggestions []model.FixSuggestion `json:"suggestions"`
		Message     string                `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Suggestions == nil || len(resp.Suggestions) != 0 {
		t.Fatalf("expected empty suggestions array, got %s", rec.Body.String())
	}
	if resp.Message != "AI fixes are disabled. Set enabled=true to activate." {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if fixes.calls != 0 {
		t.Fatal("generator should not be called when disabled")
	}
}

func TestSuggestFixes_DeploymentSwitchOff(t *testing.T) {
	fixes := &fakeFixes{}
	r := newRouter(NewHandler(fixes, nil, nil, false))

	rec := post(t, r, "/api/suggest-fixes?enabled=true", issuesBody+`,"document":{"sections":[],"images":[],"metadata":{}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "AI fixes are disabled") || fixes.calls != 0 {
		t.Fatalf("expected disabled response, got %s", rec.Body.String())
	}
}

func TestSuggestFixes_EnabledRequiresDocument(t *testing.T) {
	r := newRouter(NewHandler(&fakeFixes{}, nil, nil, true))

	rec := post(t, r, "/api/suggest-fixes?enabled=true", issuesBody+"}")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != ErrorCodeValidation || resp.Error.Message != "Document context required for AI suggestions" {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func TestSuggestFixes_Enabled(t *testing.T) {
	fixes := &fakeFixes{out: []model.FixSuggestion{{
		IssueID:    "MISSING_SECTION_SAFETY",
		Original:   "",
		Suggested:  "## Safety\nKeep away from water.",
		Confidence: 0.8,
	}}}
	r := newRouter(NewHandler(fixes, nil, metrics.New(), true))

	body := issuesBody + `,"document":{"sections":[{"title":"Overview","level":1,"content":"Intro","page":1}],"images":[],"metadata":{"page_count":1,"word_count":2,"file_type":"docx","file_name":"a.docx"}}}`
	rec := post(t, r, "/api/suggest-fixes?enabled=true", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := resp["message"]; ok {
		t.Fatal("message should be omitted when enabled")
	}
	suggestions, ok := resp["suggestions"].([]any)
	if !ok || len(suggestions) != 1 {
		t.Fatalf("expected one suggestion, got %v", resp["suggestions"])
	}
	first := suggestions[0].(map[string]any)
	if first["issue_id"] != "MISSING_SECTION_SAFETY" || first["confidence"] != 0.8 {
		t.Fatalf("unexpected suggestion: %v", first)
	}
	if fixes.calls != 1 || len(fixes.issues) != 1 || fixes.doc.Metadata.FileName != "a.docx" {
		t.Fatalf("generator received unexpected input: calls=%d issues=%v doc=%+v", fixes.calls, fixes.issues, fixes.doc)
	}
}

func TestSuggestFixes_GeneratorError(t *testing.T) {
	fixes := &fakeFixes{err: context.DeadlineExceeded}
	r := newRouter(NewHandler(fixes, nil, nil, true))

	rec := post(t, r, "/api/suggest-fixes?enabled=true", issuesBody+`,"document":{"sections":[],"images":[],"metadata":{}}}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestSuggestFixes_InvalidBody(t *testing.T) {
	r := newRouter(NewHandler(&fakeFixes{}, nil, nil, true))

	cases := map[string]string{
		"not json":         `{`,
		"missing issues":   `{}`,
		"bad severity":     `{"issues":[{"id":"X","severity":"INFO","message":"m","page":null,"penalty":1}]}`,
		"negative penalty": `{"issues":[{"id":"X","severity":"WARN","message":"m","page":null,"penalty":-1}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := post(t, r, "/api/suggest-fixes", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAIHealth(t *testing.T) {
	tests := []struct {
		name        string
		server      ModelServer
		wantHealthy bool
		wantModels  int
		wantBaseURL string
	}{
		{name: "no backend", server: nil, wantHealthy: false, wantModels: 0, wantBaseURL: ""},
		{name: "reachable", server: fakeServer{models: []string{"llama3.2", "mistral"}}, wantHealthy: true, wantModels: 2, wantBaseURL: "http://ollama:11434"},
		{name: "unreachable", server: fakeServer{err: errors.New("connection refused")}, wantHealthy: false, wantModels: 0, wantBaseURL: "http://ollama:11434"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(NewHandler(nil, tt.server, nil, true))
			req := httptest.NewRequest(http.MethodGet, "/api/ai/health", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var resp struct {
				Healthy bool     `json:"healthy"`
				Models  []string `json:"models"`
				BaseURL string   `json:"baseUrl"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Healthy != tt.wantHealthy || len(resp.Models) != tt.wantModels || resp.BaseURL != tt.wantBaseURL {
				t.Fatalf("unexpected health: %s", rec.Body.String())
			}
			if resp.Models == nil {
				t.Fatal("models should be an empty array, not null")
			}
		})
	}
}

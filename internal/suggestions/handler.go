package suggestions

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"docdocs-backend/internal/model"
	"docdocs-backend/internal/shared/metrics"
	"docdocs-backend/internal/shared/server/respond"
)

const (
	ErrorCodeValidation = "validation_error"
	ErrorCodeInternal   = "internal_error"

	disabledMessage   = "AI fixes are disabled. Set enabled=true to activate."
	documentRequired  = "Document context required for AI suggestions"
	healthCheckBudget = 5 * time.Second
)

// FixGenerator produces suggestions for a set of issues.
type FixGenerator interface {
	Generate(ctx context.Context, doc model.Document, issues []model.Issue, enabled bool) ([]model.FixSuggestion, error)
}

// ModelServer is the LLM backend as seen by the health endpoint.
type ModelServer interface {
	Models(ctx context.Context) ([]string, error)
	BaseURL() string
	Model() string
}

// Handler serves the fix-suggestion and AI health routes.
type Handler struct {
	Fixes   FixGenerator
	Server  ModelServer
	Metrics *metrics.Metrics

	// AllowFixes is the deployment-wide switch. When false every request is treated as
	// disabled regardless of the query flag.
	AllowFixes bool
}

func NewHandler(fixes FixGenerator, server ModelServer, m *metrics.Metrics, allowFixes bool) *Handler {
	return &Handler{Fixes: fixes, Server: server, Metrics: m, AllowFixes: allowFixes}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/suggest-fixes", h.suggestFixes)
	rg.GET("/ai/health", h.health)
}

type suggestFixesRequest struct {
	Issues   []model.Issue   `json:"issues" binding:"required,dive"`
	Document *model.Document `json:"document"`
}

type suggestFixesResponse struct {
	Suggestions []model.FixSuggestion `json:"suggestions"`
	Message     string                `json:"message,omitempty"`
}

func (h *Handler) suggestFixes(c *gin.Context) {
	var req suggestFixesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", bindingDetails(err))
		return
	}

	enabled, _ := strconv.ParseBool(c.DefaultQuery("enabled", "false"))
	if !enabled || !h.AllowFixes || h.Fixes == nil {
		h.count("disabled", 1)
		respond.OK(c, suggestFixesResponse{Suggestions: []model.FixSuggestion{}, Message: disabledMessage})
		return
	}
	if req.Document == nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, documentRequired, []map[string]string{
			{"field": "document", "issue": "required"},
		})
		return
	}

	suggestions, err := h.Fixes.Generate(c.Request.Context(), *req.Document, req.Issues, true)
	if err != nil {
		h.count("error", 1)
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to generate suggestions", nil)
		return
	}
	if suggestions == nil {
		suggestions = []model.FixSuggestion{}
	}

	h.count("generated", len(suggestions))
	if skipped := len(req.Issues) - len(suggestions); skipped > 0 {
		h.count("skipped", skipped)
	}
	respond.OK(c, suggestFixesResponse{Suggestions: suggestions})
}

func (h *Handler) count(outcome string, n int) {
	if h.Metrics == nil {
		return
	}
	for range n {
		h.Metrics.IncSuggestions(outcome)
	}
}

type healthResponse struct {
	Healthy bool     `json:"healthy"`
	Models  []string `json:"models"`
	BaseURL string   `json:"baseUrl"`
	Model   string   `json:"model"`
}

// health never fails; an unreachable backend reports healthy=false.
func (h *Handler) health(c *gin.Context) {
	resp := healthResponse{Models: []string{}}
	if h.Server == nil {
		respond.OK(c, resp)
		return
	}
	resp.BaseURL = h.Server.BaseURL()
	resp.Model = h.Server.Model()

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckBudget)
	defer cancel()
	models, err := h.Server.Models(ctx)
	if err == nil {
		resp.Healthy = true
		if models != nil {
			resp.Models = models
		}
	}
	respond.OK(c, resp)
}

func bindingDetails(err error) []map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []map[string]string{{"field": "body", "issue": "invalid json"}}
	}
	details := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, map[string]string{
			"field": fe.Namespace(),
			"issue": fe.Tag(),
		})
	}
	return details
}

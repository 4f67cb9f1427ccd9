package analyses

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docdocs-backend/internal/model"
	"docdocs-backend/internal/parsing"
	"docdocs-backend/internal/shared/server/respond"
	"docdocs-backend/internal/shared/storage/spool"
)

// multipartOverhead is the slack allowed on top of the file limit for form framing.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
}

type analyzeResponse struct {
	model.LintReport
	Document *model.Document `json:"document,omitempty"`
}

func (h *Handler) analyze(c *gin.Context) {
	if h.Svc.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxUploadBytes+multipartOverhead)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "file exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return
	}
	defer file.Close()

	result, err := h.Svc.Analyze(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file name is required", nil)
		case errors.Is(err, parsing.ErrUnsupportedType):
			respond.Error(c, http.StatusBadRequest, ErrorCodeUnsupportedType,
				"Unsupported file type. Allowed: "+strings.Join(parsing.AllowedExtensions, ", "),
				gin.H{"allowed": parsing.AllowedExtensions})
		case errors.Is(err, parsing.ErrNotImplemented):
			respond.Error(c, http.StatusNotImplemented, ErrorCodeNotImplemented, "Markdown parsing not yet implemented", nil)
		case errors.Is(err, spool.ErrTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "file exceeds upload limit", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeProcessing, "Error processing document: "+err.Error(), nil)
		}
		return
	}

	c.Set("analysisId", result.ID)
	c.Set("fileName", result.FileName)
	c.Set("score", result.Report.Score)
	c.Header("X-Analysis-Id", result.ID)

	resp := analyzeResponse{LintReport: result.Report}
	if include, _ := strconv.ParseBool(c.Query("include_document")); include {
		resp.Document = &result.Document
	}
	respond.OK(c, resp)
}

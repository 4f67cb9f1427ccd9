package analyses

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"docdocs-backend/internal/model"
	"docdocs-backend/internal/parsing"
	"docdocs-backend/internal/scoring"
	"docdocs-backend/internal/shared/metrics"
	"docdocs-backend/internal/shared/storage/spool"
	"docdocs-backend/internal/shared/telemetry"
)

// Result is one completed analysis.
type Result struct {
	ID       string
	FileName string
	Document model.Document
	Report   model.LintReport
	Duration time.Duration
}

// Service runs the upload, parse and score pipeline. Nothing is persisted; the spooled
// upload is removed before Analyze returns.
type Service struct {
	Spool          *spool.Spool
	Engine         *scoring.Engine
	Metrics        *metrics.Metrics
	MaxUploadBytes int64

	// ParserFor selects a parser by extension. Defaults to parsing.ForExtension.
	ParserFor func(ext string) (parsing.Parser, error)
}

// Analyze validates the extension, spools r and returns the lint report.
func (s *Service) Analyze(ctx context.Context, fileName string, r io.Reader) (Result, error) {
	if strings.TrimSpace(fileName) == "" {
		return Result{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	start := time.Now()
	id := uuid.NewString()
	ext := parsing.Extension(fileName)
	fileType := "other"
	if slices.Contains(parsing.AllowedExtensions, ext) {
		fileType = strings.TrimPrefix(ext, ".")
	}

	parserFor := s.ParserFor
	if parserFor == nil {
		parserFor = parsing.ForExtension
	}
	parse, err := parserFor(ext)
	if err != nil {
		s.observe(fileType, outcome(err), start)
		return Result{}, fmt.Errorf("analyze %s: %w", fileName, err)
	}

	file, err := s.Spool.Save(ctx, fileName, r, s.MaxUploadBytes)
	if err != nil {
		s.observe(fileType, outcome(err), start)
		if errors.Is(err, spool.ErrTooLarge) || errors.Is(err, context.Canceled) {
			return Result{}, fmt.Errorf("analyze %s: %w", fileName, err)
		}
		return Result{}, fmt.Errorf("analyze %s: %w: %v", fileName, ErrProcessing, err)
	}
	defer func() {
		if rmErr := s.Spool.Remove(file.Path); rmErr != nil {
			telemetry.Warn("analysis.spool_cleanup_failed", map[string]any{
				"analysis_id": id,
				"path":        file.Path,
				"error":       rmErr.Error(),
			})
		}
	}()

	doc, err := parse(file.Path, fileName)
	if err != nil {
		s.observe(fileType, outcome(err), start)
		telemetry.Error("analysis.parse_failed", map[string]any{
			"analysis_id": id,
			"file_name":   fileName,
			"file_type":   fileType,
			"size_bytes":  file.Size,
			"error":       err.Error(),
		})
		return Result{}, fmt.Errorf("analyze %s: %w", fileName, err)
	}

	report := s.Engine.Report(doc)
	duration := time.Since(start)
	s.observe(fileType, "ok", start)
	if s.Metrics != nil {
		s.Metrics.ObserveScore(report.Score)
		for _, issue := range report.Issues {
			s.Metrics.IncIssue(issue.ID, string(issue.Severity))
		}
	}

	telemetry.Info("analysis.complete", map[string]any{
		"analysis_id": id,
		"file_name":   fileName,
		"file_type":   fileType,
		"size_bytes":  file.Size,
		"sections":    len(doc.Sections),
		"images":      len(doc.Images),
		"words":       doc.Metadata.WordCount,
		"score":       report.Score,
		"errors":      report.Summary.Errors,
		"warnings":    report.Summary.Warnings,
		"duration_ms": float64(duration.Microseconds()) / 1000.0,
	})

	return Result{
		ID:       id,
		FileName: fileName,
		Document: doc,
		Report:   report,
		Duration: duration,
	}, nil
}

func (s *Service) observe(fileType, result string, start time.Time) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.ObserveAnalysis(fileType, result, time.Since(start))
}

func outcome(err error) string {
	switch {
	case errors.Is(err, parsing.ErrUnsupportedType):
		return "unsupported"
	case errors.Is(err, parsing.ErrNotImplemented):
		return "not_implemented"
	case errors.Is(err, spool.ErrTooLarge):
		return "too_large"
	case errors.Is(err, parsing.ErrMalformedDocument):
		return "malformed"
	default:
		return "error"
	}
}

package rules

import (
	"fmt"
	"strconv"

	"docdocs-backend/internal/model"
)

// CheckImageCaptions emits one WARN per image lacking both caption and alt text.
func (rs RuleSet) CheckImageCaptions(doc model.Document) []model.Issue {
	var issues []model.Issue
	for idx, image := range doc.Images {
		if image.HasDescription() {
			continue
		}
		page := "unknown"
		if image.Page != nil {
			page = strconv.Itoa(*image.Page)
		}
		issues = append(issues, model.Issue{
			ID:       fmt.Sprintf("MISSING_IMAGE_CAPTION_%d", idx),
			Severity: model.SeverityWarn,
			Message:  fmt.Sprintf("Image on page %s missing caption or alt text", page),
			Page:     image.Page,
			Penalty:  rs.Penalties.MissingImageCaption,
		})
	}
	return issues
}

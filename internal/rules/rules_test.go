package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdocs-backend/internal/model"
)

func docWithTitles(titles ...string) model.Document {
	doc := model.Document{}
	for _, title := range titles {
		doc.Sections = append(doc.Sections, model.Section{Title: title, Level: 1, Page: model.IntPtr(1)})
	}
	return doc
}

func docWithLevels(levels ...int) model.Document {
	doc := model.Document{}
	for i, level := range levels {
		doc.Sections = append(doc.Sections, model.Section{Title: "Section", Level: level, Page: model.IntPtr(i + 1)})
	}
	return doc
}

func issueIDs(issues []model.Issue) []string {
	ids := make([]string, 0, len(issues))
	for _, issue := range issues {
		ids = append(ids, issue.ID)
	}
	return ids
}

func TestRequiredSectionsKeywordTable(t *testing.T) {
	rs := DefaultRuleSet()
	table := map[string][]string{
		"introduction":    {"introduction", "intro", "overview", "getting started"},
		"installation":    {"installation", "install", "setup", "getting started"},
		"safety":          {"safety", "warning", "caution", "important"},
		"troubleshooting": {"troubleshooting", "troubleshoot", "faq", "problems", "issues"},
	}
	require.Len(t, rs.RequiredSections, len(table))

	for _, required := range rs.RequiredSections {
		assert.Equal(t, table[required.Name], required.Keywords, "keywords for %s", required.Name)
	}

	all := []string{"MISSING_SECTION_INTRODUCTION", "MISSING_SECTION_INSTALLATION", "MISSING_SECTION_SAFETY", "MISSING_SECTION_TROUBLESHOOTING"}
	for _, required := range rs.RequiredSections {
		for _, keyword := range required.Keywords {
			issues := rs.CheckRequiredSections(docWithTitles("Chapter: " + keyword + " notes"))
			assert.NotContains(t, issueIDs(issues), "MISSING_SECTION_"+strings.ToUpper(required.Name), "keyword %q should satisfy %s", keyword, required.Name)
			assert.Subset(t, all, issueIDs(issues))
		}
	}
}

func TestRequiredSectionsCaseInsensitiveSubstring(t *testing.T) {
	rs := DefaultRuleSet()

	issues := rs.CheckRequiredSections(docWithTitles("Quick Start Guide"))
	assert.Equal(t, []string{
		"MISSING_SECTION_INTRODUCTION",
		"MISSING_SECTION_INSTALLATION",
		"MISSING_SECTION_SAFETY",
		"MISSING_SECTION_TROUBLESHOOTING",
	}, issueIDs(issues))

	issues = rs.CheckRequiredSections(docWithTitles("GETTING STARTED WITH THE PUMP"))
	assert.Equal(t, []string{"MISSING_SECTION_SAFETY", "MISSING_SECTION_TROUBLESHOOTING"}, issueIDs(issues))

	issues = rs.CheckRequiredSections(docWithTitles("Overview", "System Setup", "Important notes", "FAQ"))
	assert.Empty(t, issues)
}

func TestRequiredSectionsIssueShape(t *testing.T) {
	issues := DefaultRuleSet().CheckRequiredSections(model.Document{})
	require.Len(t, issues, 4)
	for _, issue := range issues {
		assert.Equal(t, model.SeverityError, issue.Severity)
		assert.Equal(t, 15, issue.Penalty)
		assert.Nil(t, issue.Page)
	}
	assert.Equal(t, "Missing required section: Troubleshooting", issues[3].Message)
}

func TestImageCaptions(t *testing.T) {
	rs := DefaultRuleSet()
	assert.Empty(t, rs.CheckImageCaptions(docWithTitles("Intro")))

	doc := model.Document{Images: []model.Image{
		{Page: model.IntPtr(2)},
		{Page: model.IntPtr(3), Caption: model.StringPtr("Figure 2")},
		{AltText: model.StringPtr("")},
	}}
	issues := rs.CheckImageCaptions(doc)
	require.Len(t, issues, 2)

	assert.Equal(t, "MISSING_IMAGE_CAPTION_0", issues[0].ID)
	assert.Equal(t, model.SeverityWarn, issues[0].Severity)
	assert.Equal(t, 5, issues[0].Penalty)
	require.NotNil(t, issues[0].Page)
	assert.Equal(t, 2, *issues[0].Page)
	assert.Equal(t, "Image on page 2 missing caption or alt text", issues[0].Message)

	assert.Equal(t, "MISSING_IMAGE_CAPTION_2", issues[1].ID)
	assert.Nil(t, issues[1].Page)
	assert.Equal(t, "Image on page unknown missing caption or alt text", issues[1].Message)
}

func TestHeadingSequence(t *testing.T) {
	rs := DefaultRuleSet()

	issues := rs.CheckHeadingSequence(docWithLevels(1, 2, 4))
	require.Len(t, issues, 1)
	assert.Equal(t, "BROKEN_HEADING_SEQUENCE_2", issues[0].ID)
	assert.Equal(t, "Heading level jumps from H2 to H4 (skipped levels)", issues[0].Message)
	assert.Equal(t, 10, issues[0].Penalty)
	require.NotNil(t, issues[0].Page)
	assert.Equal(t, 3, *issues[0].Page)

	assert.Empty(t, rs.CheckHeadingSequence(docWithLevels(1, 2, 3, 4)))
	assert.Empty(t, rs.CheckHeadingSequence(docWithLevels(2, 1)))
	assert.Empty(t, rs.CheckHeadingSequence(model.Document{}))
}

func TestHeadingSequenceDecreaseThenJump(t *testing.T) {
	issues := DefaultRuleSet().CheckHeadingSequence(docWithLevels(2, 1, 3))
	require.Len(t, issues, 1)
	assert.Equal(t, "BROKEN_HEADING_SEQUENCE_2", issues[0].ID)
	assert.Equal(t, "Heading level jumps from H1 to H3 (skipped levels)", issues[0].Message)
}

func TestHeadingSequenceComparesImmediatePredecessor(t *testing.T) {
	issues := DefaultRuleSet().CheckHeadingSequence(docWithLevels(1, 3, 5, 2, 4))
	assert.Equal(t, []string{
		"BROKEN_HEADING_SEQUENCE_1",
		"BROKEN_HEADING_SEQUENCE_2",
		"BROKEN_HEADING_SEQUENCE_4",
	}, issueIDs(issues))
}

func TestHeadingSequenceIndexesFullSectionList(t *testing.T) {
	doc := model.Document{Sections: []model.Section{
		{Title: "Body", Level: 0, Page: model.IntPtr(7)},
		{Title: "One", Level: 1, Page: model.IntPtr(8)},
		{Title: "Three", Level: 3, Page: model.IntPtr(9)},
	}}
	issues := DefaultRuleSet().CheckHeadingSequence(doc)
	require.Len(t, issues, 1)
	assert.Equal(t, "BROKEN_HEADING_SEQUENCE_1", issues[0].ID)
	require.NotNil(t, issues[0].Page)
	assert.Equal(t, 8, *issues[0].Page)
}

func TestExcessiveDepth(t *testing.T) {
	rs := DefaultRuleSet()
	assert.Empty(t, rs.CheckExcessiveDepth(docWithLevels(1, 2, 3, 4)))
	assert.Empty(t, rs.CheckExcessiveDepth(model.Document{}))

	issues := rs.CheckExcessiveDepth(docWithLevels(1, 5, 2, 6))
	require.Len(t, issues, 2)
	assert.Equal(t, "EXCESSIVE_HEADING_DEPTH_1", issues[0].ID)
	assert.Equal(t, "Heading H5 is too deep (recommend max H4)", issues[0].Message)
	assert.Equal(t, 5, issues[0].Penalty)
	assert.Equal(t, "EXCESSIVE_HEADING_DEPTH_3", issues[1].ID)
	require.NotNil(t, issues[1].Page)
	assert.Equal(t, 4, *issues[1].Page)
}

func TestRulesDoNotMutateDocument(t *testing.T) {
	doc := docWithLevels(1, 3, 6)
	doc.Images = []model.Image{{Page: model.IntPtr(1)}}
	before := len(doc.Sections)

	rs := DefaultRuleSet()
	rs.CheckRequiredSections(doc)
	rs.CheckImageCaptions(doc)
	rs.CheckHeadingSequence(doc)
	rs.CheckExcessiveDepth(doc)

	assert.Len(t, doc.Sections, before)
	assert.Equal(t, "Section", doc.Sections[0].Title)
}

func TestLoadRuleSetOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
required_sections:
  - name: license
    keywords: [license, licence]
penalties:
  missing_section: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)
	require.Len(t, rs.RequiredSections, 1)
	assert.Equal(t, "license", rs.RequiredSections[0].Name)
	assert.Equal(t, 20, rs.Penalties.MissingSection)
	assert.Equal(t, 5, rs.Penalties.MissingImageCaption)
	assert.Equal(t, 4, rs.MaxHeadingDepth)

	issues := rs.CheckRequiredSections(docWithTitles("Intro"))
	require.Len(t, issues, 1)
	assert.Equal(t, "MISSING_SECTION_LICENSE", issues[0].ID)
	assert.Equal(t, "Missing required section: License", issues[0].Message)
}

func TestLoadRuleSetRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
required_sections:
  - name: license
    keywords: []
penalties:
  missing_section: -1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadRuleSet(path)
	assert.Error(t, err)

	_, err = LoadRuleSet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultRuleSetIsValid(t *testing.T) {
	assert.NoError(t, DefaultRuleSet().Validate())
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Introduction", titleCase("introduction"))
	assert.Equal(t, "Getting Started", titleCase("getting started"))
	assert.Equal(t, "Api_Reference", titleCase("API_REFERENCE"))
}

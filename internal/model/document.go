package model

import "strings"

// IntroductionTitle is the synthetic title given to content that precedes the first heading.
const IntroductionTitle = "Introduction"

// Section is a contiguous block of content under one heading.
type Section struct {
	Title   string `json:"title"`
	Level   int    `json:"level"`
	Content string `json:"content"`
	Page    *int   `json:"page"`
}

// Image is a detected embedded image reference.
type Image struct {
	Caption *string `json:"caption"`
	Page    *int    `json:"page"`
	AltText *string `json:"alt_text"`
}

// HasDescription reports whether the image carries a non-empty caption or alt text.
func (i Image) HasDescription() bool {
	return nonEmpty(i.Caption) || nonEmpty(i.AltText)
}

// DocumentMetadata describes the source file.
type DocumentMetadata struct {
	PageCount int    `json:"page_count"`
	WordCount int    `json:"word_count"`
	FileType  string `json:"file_type"`
	FileName  string `json:"file_name"`
}

// Document is the parser-agnostic representation every rule operates on.
// Parsers build it once; nothing mutates it afterwards.
type Document struct {
	Sections []Section        `json:"sections"`
	Images   []Image          `json:"images"`
	Metadata DocumentMetadata `json:"metadata"`
}

// SectionTitles returns every section title lower-cased, in document order.
func (d Document) SectionTitles() []string {
	titles := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		titles = append(titles, strings.ToLower(s.Title))
	}
	return titles
}

// HeadingLevels returns the levels of all sections with level > 0, in document order.
func (d Document) HeadingLevels() []int {
	levels := make([]int, 0, len(d.Sections))
	for _, s := range d.Sections {
		if s.Level > 0 {
			levels = append(levels, s.Level)
		}
	}
	return levels
}

// SectionPage returns the page of the section at idx, or nil when idx is out of range.
func (d Document) SectionPage(idx int) *int {
	if idx < 0 || idx >= len(d.Sections) {
		return nil
	}
	return d.Sections[idx].Page
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

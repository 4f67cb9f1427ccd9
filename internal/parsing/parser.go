package parsing

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"docdocs-backend/internal/model"
)

var (
	// ErrUnsupportedType is returned for extensions outside the accepted set.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNotImplemented is returned for accepted formats that have no parser yet.
	ErrNotImplemented = errors.New("parser not implemented")
	// ErrMalformedDocument wraps every failure to read a document's structure.
	ErrMalformedDocument = errors.New("malformed document")
)

// Parser turns the file at path into a Document. fileName is the client-supplied name
// recorded in the metadata.
type Parser func(path, fileName string) (model.Document, error)

// AllowedExtensions lists the extensions accepted for upload.
var AllowedExtensions = []string{".docx", ".pdf", ".doc", ".md"}

// Extension returns the lower-cased extension of name including the dot.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// ForExtension selects the parser for ext (as returned by Extension).
func ForExtension(ext string) (Parser, error) {
	switch ext {
	case ".docx", ".doc":
		return ParseDOCX, nil
	case ".pdf":
		return ParsePDF, nil
	case ".md":
		return nil, fmt.Errorf("markdown: %w", ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedType)
	}
}

// sectionBuilder is the single open-section accumulator shared by both parsers.
type sectionBuilder struct {
	sections []model.Section
	open     bool
	title    string
	level    int
	content  []string
}

func (b *sectionBuilder) heading(title string, level int, page int) {
	b.flush(page)
	b.open = true
	b.title = title
	b.level = level
	b.content = nil
}

func (b *sectionBuilder) text(line string) {
	if !b.open {
		b.open = true
		b.title = model.IntroductionTitle
		b.level = 1
		b.content = nil
	}
	b.content = append(b.content, line)
}

func (b *sectionBuilder) flush(page int) {
	if !b.open {
		return
	}
	b.sections = append(b.sections, model.Section{
		Title:   b.title,
		Level:   b.level,
		Content: strings.Join(b.content, "\n"),
		Page:    model.IntPtr(page),
	})
	b.open = false
	b.content = nil
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func (b *sectionBuilder) result() []model.Section {
	if b.sections == nil {
		return []model.Section{}
	}
	return b.sections
}

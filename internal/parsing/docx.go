package parsing

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"docdocs-backend/internal/model"
)

const (
	docxDocumentPart = "word/document.xml"
	docxStylesPart   = "word/styles.xml"
	docxRelsPart     = "word/_rels/document.xml.rels"

	docxWordsPerPage = 500
	docxDefaultStyle = "Normal"
)

var headingLevelRe = regexp.MustCompile(`Heading (\d+)`)

type docxParagraph struct {
	styleID string
	text    string
}

// ParseDOCX reads the body paragraphs of a WordprocessingML package. DOCX has no page
// model, so every section and image lands on page 1 and the page count is estimated
// from the word count.
func ParseDOCX(path, fileName string) (model.Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("open docx %s: %w: %v", fileName, ErrMalformedDocument, err)
	}
	defer zr.Close()

	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[strings.ReplaceAll(f.Name, "\\", "/")] = f
	}

	docPart, ok := parts[docxDocumentPart]
	if !ok {
		return model.Document{}, fmt.Errorf("docx %s: %w: %s not found", fileName, ErrMalformedDocument, docxDocumentPart)
	}
	paragraphs, err := readPart(docPart, decodeBodyParagraphs)
	if err != nil {
		return model.Document{}, fmt.Errorf("docx %s: %w: %v", fileName, ErrMalformedDocument, err)
	}

	var styles map[string]string
	if f, ok := parts[docxStylesPart]; ok {
		if styles, err = readPart(f, decodeStyleNames); err != nil {
			return model.Document{}, fmt.Errorf("docx %s: %w: %v", fileName, ErrMalformedDocument, err)
		}
	}

	var imageTargets []string
	if f, ok := parts[docxRelsPart]; ok {
		if imageTargets, err = readPart(f, decodeImageTargets); err != nil {
			return model.Document{}, fmt.Errorf("docx %s: %w: %v", fileName, ErrMalformedDocument, err)
		}
	}

	return buildDOCXDocument(paragraphs, styles, len(imageTargets), fileName), nil
}

func buildDOCXDocument(paragraphs []docxParagraph, styles map[string]string, imageCount int, fileName string) model.Document {
	const page = 1
	var b sectionBuilder
	words := 0

	for _, p := range paragraphs {
		text := strings.TrimSpace(p.text)
		if text == "" {
			continue
		}
		words += countWords(text)

		style := styleName(styles, p.styleID)
		if strings.HasPrefix(style, "Heading") {
			b.heading(text, headingLevel(style), page)
			continue
		}
		b.text(text)
	}
	b.flush(page)

	images := make([]model.Image, 0, imageCount)
	for i := 0; i < imageCount; i++ {
		images = append(images, model.Image{Page: model.IntPtr(page)})
	}

	return model.Document{
		Sections: b.result(),
		Images:   images,
		Metadata: model.DocumentMetadata{
			PageCount: max(1, words/docxWordsPerPage),
			WordCount: words,
			FileType:  "docx",
			FileName:  fileName,
		},
	}
}

// styleName resolves a paragraph style id to its display name. Built-in styles are
// stored lower-case in styles.xml ("heading 1") and are reported with a capital.
// An id missing from a present styles part falls back to the default paragraph style.
// A nil styles map means the package has no styles part, and built-in heading ids
// ("Heading2") still resolve as Word's default template would.
func styleName(styles map[string]string, styleID string) string {
	if styleID == "" {
		return docxDefaultStyle
	}
	name, ok := styles[styleID]
	if !ok {
		if styles != nil {
			return docxDefaultStyle
		}
		name = splitHeadingID(styleID)
	}
	if strings.HasPrefix(name, "heading ") {
		name = "H" + name[1:]
	}
	return name
}

// splitHeadingID maps built-in ids like "Heading2" to "Heading 2".
func splitHeadingID(id string) string {
	rest, ok := strings.CutPrefix(id, "Heading")
	if !ok || rest == "" {
		return id
	}
	if _, err := strconv.Atoi(rest); err != nil {
		return id
	}
	return "Heading " + rest
}

func headingLevel(style string) int {
	m := headingLevelRe.FindStringSubmatch(style)
	if m == nil {
		return 1
	}
	level, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	return level
}

func readPart[T any](f *zip.File, decode func(io.Reader) (T, error)) (T, error) {
	rc, err := f.Open()
	if err != nil {
		var zero T
		return zero, err
	}
	defer rc.Close()
	return decode(rc)
}

// decodeBodyParagraphs collects the direct w:p children of w:body. Paragraphs nested in
// tables or text boxes are not part of the body flow and are skipped.
func decodeBodyParagraphs(r io.Reader) ([]docxParagraph, error) {
	decoder := xml.NewDecoder(r)
	var (
		stack      []string
		paragraphs []docxParagraph
		current    *docxParagraph
		text       strings.Builder
		pDepth     int
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if current == nil && name == "p" && len(stack) > 0 && stack[len(stack)-1] == "body" {
				current = &docxParagraph{}
				text.Reset()
				pDepth = len(stack)
			} else if current != nil {
				rel := slices.Concat(stack[pDepth+1:], []string{name})
				switch {
				case name == "pStyle" && pathIs(rel, "pPr", "pStyle"):
					current.styleID = attr(t, "val")
				case name == "tab" && inRun(rel):
					text.WriteString("\t")
				case (name == "br" || name == "cr") && inRun(rel):
					text.WriteString("\n")
				}
			}
			stack = append(stack, name)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
			if current != nil && len(stack) == pDepth {
				current.text = text.String()
				paragraphs = append(paragraphs, *current)
				current = nil
			}
		case xml.CharData:
			if current != nil && len(stack) > pDepth && stack[len(stack)-1] == "t" && inRun(stack[pDepth+1:]) {
				text.Write(t)
			}
		}
	}
	return paragraphs, nil
}

// inRun reports whether rel (a path below the paragraph) is a direct child of a run,
// optionally wrapped in a hyperlink.
func inRun(rel []string) bool {
	switch len(rel) {
	case 2:
		return rel[0] == "r"
	case 3:
		return rel[0] == "hyperlink" && rel[1] == "r"
	}
	return false
}

func pathIs(rel []string, want ...string) bool {
	if len(rel) != len(want) {
		return false
	}
	for i := range want {
		if rel[i] != want[i] {
			return false
		}
	}
	return true
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func decodeStyleNames(r io.Reader) (map[string]string, error) {
	var doc struct {
		Styles []struct {
			ID   string `xml:"styleId,attr"`
			Name struct {
				Val string `xml:"val,attr"`
			} `xml:"name"`
		} `xml:"style"`
	}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	names := make(map[string]string, len(doc.Styles))
	for _, s := range doc.Styles {
		names[s.ID] = s.Name.Val
	}
	return names, nil
}

// decodeImageTargets returns the relationship targets of the main part that reference
// images, in relationship order.
func decodeImageTargets(r io.Reader) ([]string, error) {
	var rels struct {
		Relationships []struct {
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.NewDecoder(r).Decode(&rels); err != nil {
		return nil, err
	}
	var targets []string
	for _, rel := range rels.Relationships {
		if strings.Contains(rel.Target, "image") {
			targets = append(targets, rel.Target)
		}
	}
	return targets, nil
}

// Package parsingtest builds small in-memory DOCX and PDF files for tests.
package parsingtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Package part names used by DOCX fixtures.
const (
	DocumentPart = "word/document.xml"
	StylesPart   = "word/styles.xml"
	RelsPart     = "word/_rels/document.xml.rels"
)

// StylesXML maps the Heading1..Heading4 style ids to Word's lower-case built-in names.
const StylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:style w:type="paragraph" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
  <w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/></w:style>
  <w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/></w:style>
  <w:style w:type="paragraph" w:styleId="Heading3"><w:name w:val="heading 3"/></w:style>
  <w:style w:type="paragraph" w:styleId="Heading4"><w:name w:val="heading 4"/></w:style>
  <w:style w:type="paragraph" w:styleId="Caption"><w:name w:val="caption"/></w:style>
</w:styles>`

// RelsXML returns a relationships part with a styles relationship followed by n image
// relationships.
func RelsXML(images int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	for i := 1; i <= images; i++ {
		fmt.Fprintf(&b, "\n  <Relationship Id=\"rId%d\" Type=\"http://schemas.openxmlformats.org/officeDocument/2006/relationships/image\" Target=\"media/image%d.png\"/>", i+1, i)
	}
	b.WriteString("\n</Relationships>")
	return b.String()
}

// Body wraps raw paragraph XML in a WordprocessingML document part.
func Body(paragraphs ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		strings.Join(paragraphs, "") +
		`<w:sectPr/></w:body></w:document>`
}

// Paragraph renders a single-run paragraph. An empty styleID omits the style.
func Paragraph(styleID, text string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	if styleID != "" {
		b.WriteString(`<w:pPr><w:pStyle w:val="` + styleID + `"/></w:pPr>`)
	}
	b.WriteString(`<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`)
	return b.String()
}

// DOCX zips parts into a package. Parts are written in name order.
func DOCX(parts map[string]string) ([]byte, error) {
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(parts[name])); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PDFPage is one page of a generated PDF.
type PDFPage struct {
	// Lines are drawn top to bottom, one text row each.
	Lines []string
	// Text replaces Lines with a raw text object body, run after "BT /F1 12 Tf".
	Text string
	// ImageDraws paints the page's single 1x1 image XObject this many times.
	ImageDraws int
}

// PDF writes a minimal PDF with Helvetica text and an optional 1x1 image XObject per
// page. Offsets in the xref table are exact.
func PDF(pages []PDFPage) []byte {
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("")
	pagesObj := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	escape := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)

	var kids []string
	for _, p := range pages {
		var content strings.Builder
		switch {
		case p.Text != "":
			content.WriteString("BT\n/F1 12 Tf\n" + p.Text + "\nET")
		case len(p.Lines) > 0:
			content.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
			for i, line := range p.Lines {
				if i > 0 {
					content.WriteString("T*\n")
				}
				content.WriteString("(" + escape.Replace(line) + ") Tj\n")
			}
			content.WriteString("ET")
		}
		resources := fmt.Sprintf("/Font << /F1 %d 0 R >>", font)
		if p.ImageDraws > 0 {
			img := add("<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Length 3 >>\nstream\n\xff\x00\x00\nendstream")
			resources += fmt.Sprintf(" /XObject << /Im1 %d 0 R >>", img)
			for i := 0; i < p.ImageDraws; i++ {
				fmt.Fprintf(&content, "\nq 100 0 0 100 72 %d cm /Im1 Do Q", 400-120*i)
			}
		}
		stream := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()))
		page := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << %s >> /Contents %d 0 R >>", pagesObj, resources, stream))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}
	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj)
	objects[pagesObj-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, body := range objects {
		offsets[i+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalog, xref)
	return []byte(b.String())
}

// WriteFile writes data to name inside a fresh temp dir and returns the path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// MustDOCX is DOCX that fails the test on error.
func MustDOCX(t testing.TB, parts map[string]string) []byte {
	t.Helper()
	data, err := DOCX(parts)
	if err != nil {
		t.Fatalf("build docx: %v", err)
	}
	return data
}

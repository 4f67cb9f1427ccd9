package parsing

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"docdocs-backend/internal/model"
)

const (
	pdfHeadingMaxLen   = 100
	pdfHeadingCutoff   = 80
	pdfTopLevelMaxLen  = 50
	pdfTrailingNoDigit = 3

	pdfRowTolerance = 3.0
	pdfWordGapRatio = 0.2
	pdfMaxFormDepth = 8
)

// pdfPage is the raw content of one page: its text lines in reading order and the
// number of times it paints an image.
type pdfPage struct {
	Number int
	Lines  []string
	Images int
}

func (p pdfPage) hasText() bool {
	for _, line := range p.Lines {
		if line != "" {
			return true
		}
	}
	return false
}

// ParsePDF validates the file and reads the page count with pdfcpu, then extracts
// per-page text rows and image draws with ledongthuc/pdf and applies the line heading
// heuristic.
func ParsePDF(path, fileName string) (model.Document, error) {
	pageCount, err := readPDFPageCount(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("pdf %s: %w: %v", fileName, ErrMalformedDocument, err)
	}
	pages, err := readPDFPages(path, pageCount)
	if err != nil {
		return model.Document{}, fmt.Errorf("pdf %s: %w: %v", fileName, ErrMalformedDocument, err)
	}
	return buildPDFDocument(pages, pageCount, fileName), nil
}

func readPDFPageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx.PageCount, nil
}

// readPDFPages returns the text rows and image draws of every page. The reader panics
// on some broken content streams, so a panic is reported as an error.
func readPDFPages(path string, pageCount int) (pages []pdfPage, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf text: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages = make([]pdfPage, 0, pageCount)
	for pageNr := 1; pageNr <= pageCount && pageNr <= r.NumPage(); pageNr++ {
		page := pdfPage{Number: pageNr}
		p := r.Page(pageNr)
		if !p.V.IsNull() {
			page.Lines = textRows(p.Content().Text)
			page.Images = countImageDraws(p.V.Key("Contents"), p.Resources(), 0)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// textRows groups glyphs into rows by baseline, top to bottom, and orders each row left
// to right. Glyphs keep their content-stream order when their x positions tie.
func textRows(glyphs []pdf.Text) []string {
	type row struct {
		y      float64
		glyphs []pdf.Text
	}
	var rows []*row
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		var target *row
		for _, r := range rows {
			if math.Abs(r.y-g.Y) <= pdfRowTolerance {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{y: g.Y}
			rows = append(rows, target)
		}
		target.glyphs = append(target.glyphs, g)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.glyphs, func(i, j int) bool { return r.glyphs[i].X < r.glyphs[j].X })
		if line := joinRow(r.glyphs); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// joinRow concatenates a row's glyphs, inserting a space wherever the horizontal gap
// to the previous glyph exceeds a fraction of the font size.
func joinRow(glyphs []pdf.Text) string {
	var b strings.Builder
	var prevEnd float64
	for i, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			b.WriteByte(' ')
		} else {
			if i > 0 && g.X-prevEnd > pdfWordGapRatio*math.Abs(g.FontSize) {
				b.WriteByte(' ')
			}
			b.WriteString(g.S)
		}
		prevEnd = g.X + g.W
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// countImageDraws counts Do operators that paint image XObjects, following form
// XObjects down to pdfMaxFormDepth. An image painted twice counts twice.
func countImageDraws(contents, resources pdf.Value, depth int) int {
	if contents.IsNull() {
		return 0
	}
	draws := 0
	pdf.Interpret(contents, func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		if op != "Do" || len(args) != 1 {
			return
		}
		xobj := resources.Key("XObject").Key(args[0].Name())
		switch xobj.Key("Subtype").Name() {
		case "Image":
			draws++
		case "Form":
			if depth >= pdfMaxFormDepth {
				return
			}
			formResources := xobj.Key("Resources")
			if formResources.IsNull() {
				formResources = resources
			}
			draws += countImageDraws(xobj, formResources, depth+1)
		}
	})
	return draws
}

// buildPDFDocument runs the section heuristic over extracted pages. Pages without text
// are skipped entirely, including their images. The open section never crosses a page
// boundary.
func buildPDFDocument(pages []pdfPage, pageCount int, fileName string) model.Document {
	var b sectionBuilder
	images := make([]model.Image, 0)
	words := 0

	for _, page := range pages {
		if !page.hasText() {
			continue
		}
		for i := 0; i < page.Images; i++ {
			images = append(images, model.Image{Page: model.IntPtr(page.Number)})
		}

		for _, raw := range page.Lines {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			words += countWords(line)

			if looksLikeHeading(line) && utf8.RuneCountInString(line) < pdfHeadingCutoff {
				b.heading(line, pdfHeadingLevel(line), page.Number)
				continue
			}
			b.text(line)
		}
		b.flush(page.Number)
	}

	return model.Document{
		Sections: b.result(),
		Images:   images,
		Metadata: model.DocumentMetadata{
			PageCount: pageCount,
			WordCount: words,
			FileType:  "pdf",
			FileName:  fileName,
		},
	}
}

func looksLikeHeading(line string) bool {
	if utf8.RuneCountInString(line) >= pdfHeadingMaxLen {
		return false
	}
	if isAllUpper(line) {
		return true
	}
	return startsUpper(line) && !strings.HasSuffix(line, ".") && !hasDigit(lastRunes(line, pdfTrailingNoDigit))
}

func pdfHeadingLevel(line string) int {
	switch {
	case isAllUpper(line) && utf8.RuneCountInString(line) < pdfTopLevelMaxLen:
		return 1
	case startsUpper(line) && !strings.HasSuffix(line, "."):
		return 2
	default:
		return 3
	}
}

// isAllUpper is true when line has at least one cased letter and none is lower-case.
func isAllUpper(line string) bool {
	cased := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func startsUpper(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsUpper(r)
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction is matched by every error returned from Extract.
var ErrExtraction = errors.New("document extraction failed")

// ExtractionError wraps the cause of a failed extraction.
type ExtractionError struct {
	Page  int
	Cause error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s: page %d: %v", ErrExtraction.Error(), e.Page, e.Cause)
	}
	return fmt.Sprintf("%s: %v", ErrExtraction.Error(), e.Cause)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Cause}
}

// Extract reads a PDF held in memory and returns its text split into sections
// plus contact details found near the top.
// Library used: github.com/ledongthuc/pdf.
func Extract(ctx context.Context, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	pages, err := readPages(ctx, data)
	if err != nil {
		return Document{}, err
	}
	return FromPages(pages), nil
}

func readPages(ctx context.Context, data []byte) (pages []string, err error) {
	page := 0
	// The pdf package panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = &ExtractionError{Page: page, Cause: fmt.Errorf("panic: %v", rec)}
		}
	}()

	if len(data) == 0 {
		return nil, &ExtractionError{Cause: errors.New("empty pdf data")}
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{Cause: err}
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for page = 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := reader.Page(page)
		if p.V.IsNull() {
			continue
		}
		pages = append(pages, pageText(p.Content().Text))
	}
	return pages, nil
}

type textLine struct {
	y      float64
	glyphs []pdf.Text
}

// pageText rebuilds the lines of a page from positioned glyphs. Glyphs whose
// baselines sit within half a font size of each other form one line; lines
// run top to bottom and glyphs left to right. A horizontal gap wider than a
// glyph becomes a space.
func pageText(texts []pdf.Text) string {
	var lines []*textLine
	for _, t := range texts {
		if t.S == "" || t.S == "\n" || t.S == "\r" {
			continue
		}
		tol := math.Max(t.FontSize/2, 1)
		var line *textLine
		for _, l := range lines {
			if math.Abs(l.y-t.Y) <= tol {
				line = l
				break
			}
		}
		if line == nil {
			line = &textLine{y: t.Y}
			lines = append(lines, line)
		}
		line.glyphs = append(line.glyphs, t)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	var b strings.Builder
	for _, l := range lines {
		sort.SliceStable(l.glyphs, func(i, j int) bool { return l.glyphs[i].X < l.glyphs[j].X })
		for i, g := range l.glyphs {
			if i > 0 {
				prev := l.glyphs[i-1]
				gap := g.X - (prev.X + prev.W)
				if gap > glyphWidth(prev) && prev.S != " " && g.S != " " {
					b.WriteByte(' ')
				}
			}
			b.WriteString(g.S)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// glyphWidth falls back to half the font size when the font carries no
// width table.
func glyphWidth(t pdf.Text) float64 {
	if t.W > 0 {
		return t.W
	}
	return t.FontSize / 2
}

// Package extractor pulls page text and positioned fragments out of PDFs and
// detects tables in the fragment layout.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// ErrExtraction is returned when the input cannot be read as a PDF.
var ErrExtraction = errors.New("extractor: unreadable pdf")

// DefaultMaxPages caps how many leading pages are read.
const DefaultMaxPages = 10

// PageTable is a detected table and the 1-based page it came from.
type PageTable struct {
	Page    int   `json:"page"`
	Content Table `json:"content"`
}

// Result is the text and tables of the leading pages of a document.
type Result struct {
	Text   string      `json:"text"`
	Tables []PageTable `json:"tables"`
	// Pages is how many pages were read; TotalPages is the document's count.
	Pages      int `json:"pages"`
	TotalPages int `json:"totalPages"`
}

// Extractor reads PDFs.
type Extractor struct {
	maxPages int
	detect   DetectOptions
	log      zerolog.Logger
}

// New creates an Extractor reading at most maxPages pages (DefaultMaxPages when <= 0).
func New(maxPages int, log zerolog.Logger) *Extractor {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Extractor{
		maxPages: maxPages,
		log:      log.With().Str("component", "pdf_extractor").Logger(),
	}
}

// Extract reads up to the page cap from r. Documents beyond the cap are
// truncated, not rejected. Any failure to open the document wraps ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (res *Result, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrExtraction, rec)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	total := doc.NumPage()
	pages := min(total, e.maxPages)
	res = &Result{Tables: []PageTable{}, TotalPages: total}

	var text strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		res.Pages++

		frags := e.pageFragments(page, i)
		for j, f := range frags {
			if j > 0 {
				text.WriteByte(' ')
			}
			text.WriteString(f.Text)
		}
		text.WriteByte('\n')

		for _, t := range DetectTables(frags, pageBounds(page), e.detect) {
			res.Tables = append(res.Tables, PageTable{Page: i, Content: t})
		}
	}
	res.Text = text.String()

	if total > pages {
		e.log.Info().Int("pages", total).Int("read", pages).Msg("Document truncated to page cap")
	}
	return res, nil
}

// pageFragments reads one page's glyphs. A page whose content stream cannot
// be decoded yields no fragments rather than failing the document.
func (e *Extractor) pageFragments(page pdf.Page, n int) (frags []Fragment) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Warn().Int("page", n).Interface("panic", rec).Msg("Skipping undecodable page")
			frags = nil
		}
	}()

	content := page.Content()
	glyphs := make([]Glyph, len(content.Text))
	for i, t := range content.Text {
		glyphs[i] = Glyph{S: t.S, X: t.X, Y: t.Y, W: t.W, Size: t.FontSize}
	}
	return Coalesce(glyphs)
}

func pageBounds(page pdf.Page) Bounds {
	box := page.V.Key("MediaBox")
	if box.Len() != 4 {
		return Bounds{}
	}
	x0, y0 := box.Index(0).Float64(), box.Index(1).Float64()
	x1, y1 := box.Index(2).Float64(), box.Index(3).Float64()
	return Bounds{
		MinX: math.Min(x0, x1), MinY: math.Min(y0, y1),
		MaxX: math.Max(x0, x1), MaxY: math.Max(y0, y1),
	}
}

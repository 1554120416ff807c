package extractor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/extractor/extractortest"
)

func TestExtractReadsTextAndTables(t *testing.T) {
	data := extractortest.Build(
		[]extractortest.Text{
			extractortest.Line("Q1: What is 2+2?", 700),
			extractortest.Line("Q2: Explain your answer.", 680),
			{S: "Company", X: 72, Y: 600}, {S: "Revenue", X: 250, Y: 600},
			{S: "Acme", X: 72, Y: 580}, {S: "$120", X: 250, Y: 580},
		},
	)

	res, err := New(0, zerolog.Nop()).Extract(context.Background(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Pages != 1 || res.TotalPages != 1 {
		t.Fatalf("pages: want 1/1, got=%d/%d", res.Pages, res.TotalPages)
	}
	for _, want := range []string{"Q1: What is 2+2?", "Q2: Explain your answer."} {
		if !strings.Contains(res.Text, want) {
			t.Fatalf("text: want %q in %q", want, res.Text)
		}
	}
	if len(res.Tables) == 0 || res.Tables[0].Page != 1 {
		t.Fatalf("tables: want a table on page 1, got=%+v", res.Tables)
	}
	last := res.Tables[0].Content.Rows[len(res.Tables[0].Content.Rows)-1]
	if last[0] != "Acme" || last[1] != "$120" {
		t.Fatalf("last row: want [Acme $120], got=%v", last)
	}
}

func TestExtractHonorsPageCap(t *testing.T) {
	pages := make([][]extractortest.Text, 3)
	for i := range pages {
		pages[i] = []extractortest.Text{extractortest.Line("page text", 700)}
	}
	data := extractortest.Build(pages...)

	res, err := New(2, zerolog.Nop()).Extract(context.Background(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Pages != 2 || res.TotalPages != 3 {
		t.Fatalf("pages: want 2 of 3, got=%d of %d", res.Pages, res.TotalPages)
	}
	if got := strings.Count(res.Text, "\n"); got != 2 {
		t.Fatalf("page lines: want=2 got=%d", got)
	}
}

func TestExtractRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("not a pdf at all"),
		[]byte("%PDF-1.4\nbroken\nstartxref\n9999\n%%EOF"),
	} {
		_, err := New(0, zerolog.Nop()).Extract(context.Background(), bytes.NewReader(data), int64(len(data)))
		if !errors.Is(err, ErrExtraction) {
			t.Fatalf("Extract(%q): want ErrExtraction, got=%v", data, err)
		}
	}
}

func TestCoalesce(t *testing.T) {
	// 12pt monospace, 7.2pt advance; the space glyph is not reported.
	glyphs := []Glyph{
		{S: "H", X: 72, Y: 700, W: 7.2, Size: 12},
		{S: "i", X: 79.2, Y: 700, W: 7.2, Size: 12},
		{S: "y", X: 93.6, Y: 700, W: 7.2, Size: 12},
		{S: "o", X: 100.8, Y: 700, W: 7.2, Size: 12},
		{S: "$", X: 250, Y: 700, W: 7.2, Size: 12},
		{S: "5", X: 257.2, Y: 700, W: 7.2, Size: 12},
		{S: "N", X: 72, Y: 680, W: 7.2, Size: 12},
	}
	frags := Coalesce(glyphs)
	want := []string{"Hi yo", "$5", "N"}
	if len(frags) != len(want) {
		t.Fatalf("fragments: want=%v got=%+v", want, frags)
	}
	for i, w := range want {
		if frags[i].Text != w {
			t.Errorf("fragment %d: want=%q got=%q", i, w, frags[i].Text)
		}
	}
	if frags[1].X != 250 {
		t.Fatalf("fragment x: want=250 got=%v", frags[1].X)
	}
}

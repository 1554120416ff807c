package extractor

import (
	"math"
	"strings"
)

// Glyph spacing thresholds, in multiples of the font size.
const (
	// wordGap is the smallest horizontal gap read as a space.
	wordGap = 0.15
	// cellGap is the smallest horizontal gap read as a column break.
	cellGap = 1.5
	// lineJitter is the largest vertical offset still on the same baseline.
	lineJitter = 0.3
)

// Glyph is a single positioned character as reported by the PDF reader.
type Glyph struct {
	S    string
	X, Y float64
	W    float64
	Size float64
}

// Coalesce merges glyphs in content-stream order into text fragments. Glyphs
// on one baseline separated by a word-sized gap are joined with a space; a
// larger gap, a baseline change, or a backwards jump starts a new fragment.
func Coalesce(glyphs []Glyph) []Fragment {
	var (
		frags []Fragment
		cur   strings.Builder
		start Glyph
		end   float64
		open  bool
	)
	flush := func() {
		if open {
			if s := strings.TrimSpace(cur.String()); s != "" {
				frags = append(frags, Fragment{Text: s, X: start.X, Y: start.Y})
			}
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		size := g.Size
		if size <= 0 {
			size = 1
		}
		if open {
			gap := g.X - end
			sameLine := math.Abs(g.Y-start.Y) <= lineJitter*size
			if !sameLine || gap < -wordGap*size || gap > cellGap*size {
				flush()
			} else if gap >= wordGap*size && !strings.HasSuffix(cur.String(), " ") {
				cur.WriteByte(' ')
			}
		}
		if !open {
			start = g
			open = true
		}
		cur.WriteString(g.S)
		end = g.X + g.W
	}
	flush()
	return frags
}

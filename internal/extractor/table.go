package extractor

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Detection thresholds.
const (
	// DefaultRowTolerance is the maximum y distance, in PDF points, between
	// fragments that belong to the same visual row.
	DefaultRowTolerance = 5.0
	// DefaultColumnDrift is how many columns a row may gain or lose relative to
	// the table's running column count before the table is closed.
	DefaultColumnDrift = 1
	// DefaultMinRows is the smallest row count kept as a table.
	DefaultMinRows = 2
)

// Fragment is a run of text with its baseline origin in page space.
type Fragment struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Bounds is a page's media box.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether (x, y) lies on the page. A zero Bounds contains everything.
func (b Bounds) Contains(x, y float64) bool {
	if b == (Bounds{}) {
		return true
	}
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// DetectOptions tunes DetectTables. Zero fields take the Default* values.
type DetectOptions struct {
	RowTolerance float64
	ColumnDrift  int
	MinRows      int
}

func (o DetectOptions) withDefaults() DetectOptions {
	if o.RowTolerance <= 0 {
		o.RowTolerance = DefaultRowTolerance
	}
	if o.ColumnDrift <= 0 {
		o.ColumnDrift = DefaultColumnDrift
	}
	if o.MinRows <= 0 {
		o.MinRows = DefaultMinRows
	}
	return o
}

// Table is a rectangular grid of cell text.
type Table struct {
	Rows [][]string `json:"rows"`
}

var (
	numericPattern = regexp.MustCompile(`(\$|€|£|\d+(\.\d+)?%?)`)
	datePattern    = regexp.MustCompile(`(\b(19|20)\d{2}\b|Year|Date)`)
	headerPattern  = regexp.MustCompile(`(Total|Sum|Average|Mean|Company|Name|Rate|Value)`)
)

// IsTableRow reports whether any cell looks like tabular content: numbers,
// currency, percentages, years, or common header words.
func IsTableRow(cells []string) bool {
	for _, c := range cells {
		if numericPattern.MatchString(c) || datePattern.MatchString(c) || headerPattern.MatchString(c) {
			return true
		}
	}
	return false
}

// NormalizeTable pads every row with empty cells to the widest row's length.
// Rows are never truncated; a rectangular input is returned unchanged.
func NormalizeTable(rows [][]string) Table {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, width)
		copy(row, r)
		out[i] = row
	}
	return Table{Rows: out}
}

type rowBucket struct {
	y     float64
	frags []Fragment
}

// GroupRows buckets fragments into visual rows. A fragment joins the bucket
// whose anchor y is nearest, provided the distance is below tolerance;
// otherwise it anchors a new bucket. Buckets come back top to bottom, each
// sorted left to right. Blank fragments are skipped.
func GroupRows(frags []Fragment, tolerance float64) [][]Fragment {
	var buckets []*rowBucket
	for _, f := range frags {
		f.Text = strings.TrimSpace(f.Text)
		if f.Text == "" {
			continue
		}
		var best *rowBucket
		bestDist := math.Inf(1)
		for _, b := range buckets {
			if d := math.Abs(f.Y - b.y); d < tolerance && d < bestDist {
				best, bestDist = b, d
			}
		}
		if best == nil {
			best = &rowBucket{y: f.Y}
			buckets = append(buckets, best)
		}
		best.frags = append(best.frags, f)
	}

	// PDF y grows upward, so the top row has the largest y.
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].y > buckets[j].y })

	rows := make([][]Fragment, len(buckets))
	for i, b := range buckets {
		sort.SliceStable(b.frags, func(x, y int) bool { return b.frags[x].X < b.frags[y].X })
		rows[i] = b.frags
	}
	return rows
}

// DetectTables finds runs of consecutive table-like rows on one page.
func DetectTables(frags []Fragment, bounds Bounds, opts DetectOptions) []Table {
	opts = opts.withDefaults()

	visible := make([]Fragment, 0, len(frags))
	for _, f := range frags {
		if bounds.Contains(f.X, f.Y) {
			visible = append(visible, f)
		}
	}

	var (
		tables  []Table
		current [][]string
		columns int
	)
	closeTable := func() {
		if len(current) >= opts.MinRows {
			tables = append(tables, NormalizeTable(current))
		}
		current = nil
	}

	for _, row := range GroupRows(visible, opts.RowTolerance) {
		cells := make([]string, len(row))
		for i, f := range row {
			cells[i] = f.Text
		}

		if !IsTableRow(cells) {
			closeTable()
			continue
		}

		if len(current) == 0 {
			current = [][]string{cells}
			columns = len(cells)
			continue
		}

		if abs(len(cells)-columns) <= opts.ColumnDrift {
			current = append(current, cells)
			columns = max(columns, len(cells))
			continue
		}

		closeTable()
		current = [][]string{cells}
		columns = len(cells)
	}
	closeTable()

	return tables
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

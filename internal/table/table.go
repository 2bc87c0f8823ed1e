// Package table renders scenario series into tabular view models.
package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/format"
	"github.com/iwvelando/finance-dashboard/pkg/mathutil"
	"github.com/iwvelando/finance-dashboard/pkg/series"
)

// ErrNoColumns is returned when a table is configured without columns.
var ErrNoColumns = errors.New("table needs at least one column")

// Column describes one table column. Formatter overrides the table default
// for numeric cells of this column.
type Column struct {
	Key       string                `yaml:"key" json:"key"`
	Header    string                `yaml:"header" json:"header"`
	Formatter format.ValueFormatter `yaml:"-" json:"-"`
	Aggregate bool                  `yaml:"aggregate,omitempty" json:"aggregate,omitempty"`
}

// Cell is one rendered cell. Value carries the raw number for numeric cells.
type Cell struct {
	Text    string   `json:"text"`
	Value   *float64 `json:"value,omitempty"`
	Missing bool     `json:"missing,omitempty"`
}

// Row is one rendered record.
type Row struct {
	Period string `json:"period"`
	Cells  []Cell `json:"cells"`
}

// Footer is the aggregate row.
type Footer struct {
	Caption string `json:"caption"`
	Cells   []Cell `json:"cells"`
}

// Table is the renderer output.
type Table struct {
	Title   string   `json:"title"`
	Caption string   `json:"caption,omitempty"`
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
	Footer  *Footer  `json:"footer,omitempty"`
}

// Grid returns headers, rows and the footer as plain text, in display order.
func (t Table) Grid() [][]string {
	grid := make([][]string, 0, len(t.Rows)+2)
	grid = append(grid, append([]string(nil), t.Headers...))
	for _, r := range t.Rows {
		grid = append(grid, cellTexts(r.Cells))
	}
	if t.Footer != nil {
		grid = append(grid, cellTexts(t.Footer.Cells))
	}
	return grid
}

func cellTexts(cells []Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Text
	}
	return out
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithCaption sets the caption shown under the table.
func WithCaption(caption string) Option {
	return func(r *Renderer) { r.caption = caption }
}

// Renderer turns a series into a Table.
type Renderer struct {
	columns   []Column
	formatter format.ValueFormatter
	caption   string
}

// New creates a renderer. formatter is the default for numeric cells and may
// be nil, in which case numbers are printed as-is.
func New(columns []Column, formatter format.ValueFormatter, opts ...Option) (*Renderer, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	for i, c := range columns {
		if strings.TrimSpace(c.Key) == "" {
			return nil, fmt.Errorf("column %d has no key", i)
		}
	}
	r := &Renderer{
		columns:   append([]Column(nil), columns...),
		formatter: formatter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Columns returns a copy of the configured columns.
func (r *Renderer) Columns() []Column {
	return append([]Column(nil), r.columns...)
}

// Render lays out s row by row in series order. A footer is added when any
// column aggregates.
func (r *Renderer) Render(title string, s *series.Series) Table {
	t := Table{
		Title:   title,
		Caption: r.caption,
		Headers: make([]string, len(r.columns)),
		Rows:    make([]Row, s.Len()),
	}
	for i, c := range r.columns {
		t.Headers[i] = c.Header
		if t.Headers[i] == "" {
			t.Headers[i] = c.Key
		}
	}

	sums := make([]mathutil.Accumulator, len(r.columns))
	for i := range t.Rows {
		row := Row{Period: s.Period(i), Cells: make([]Cell, len(r.columns))}
		for j, c := range r.columns {
			f := s.Field(i, c.Key)
			row.Cells[j] = r.cell(c, f)
			if n, ok := f.Number(); ok && c.Aggregate {
				sums[j].Add(n)
			}
		}
		t.Rows[i] = row
	}

	if r.aggregates() {
		t.Footer = r.footer(sums)
	}
	return t
}

func (r *Renderer) aggregates() bool {
	for _, c := range r.columns {
		if c.Aggregate {
			return true
		}
	}
	return false
}

func (r *Renderer) footer(sums []mathutil.Accumulator) *Footer {
	f := &Footer{Caption: constants.TotalLabel, Cells: make([]Cell, len(r.columns))}
	captioned := false
	for j, c := range r.columns {
		if c.Aggregate {
			total := sums[j].Float()
			f.Cells[j] = Cell{Text: r.number(c, total), Value: &total}
			continue
		}
		if !captioned {
			f.Cells[j] = Cell{Text: constants.TotalLabel}
			captioned = true
		}
	}
	return f
}

func (r *Renderer) cell(c Column, f series.Field) Cell {
	switch f.Kind() {
	case series.FieldNumber:
		n, _ := f.Number()
		return Cell{Text: r.number(c, n), Value: &n}
	case series.FieldText:
		return Cell{Text: f.Text()}
	default:
		return Cell{Text: constants.PlaceholderGlyph, Missing: true}
	}
}

func (r *Renderer) number(c Column, n float64) string {
	switch {
	case c.Formatter != nil:
		return c.Formatter(n)
	case r.formatter != nil:
		return r.formatter(n)
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

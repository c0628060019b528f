// Package format renders the fermi CLI tables (configs, download results,
// export summaries, cache listings) through go-pretty.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode selects terminal or Markdown output.
type Mode int

const (
	ASCII    Mode = iota // box-drawn terminal table
	Markdown             // pipe table, for `configs --markdown` and `cache list --markdown`
)

// ColumnAlign is the horizontal alignment of a column.
type ColumnAlign int

const (
	AlignDefault ColumnAlign = iota
	AlignLeft
	AlignCenter
	AlignRight
)

var textAlign = map[ColumnAlign]text.Align{
	AlignDefault: text.AlignDefault,
	AlignLeft:    text.AlignLeft,
	AlignCenter:  text.AlignCenter,
	AlignRight:   text.AlignRight,
}

// ColumnConfig formats one column. Number is 1-based; a MaxWidth of zero
// leaves the column unbounded, otherwise long cells (config descriptions)
// wrap at that width.
type ColumnConfig struct {
	Number   int
	Align    ColumnAlign
	MaxWidth int
}

// Table collects a header, rows and an optional footer. Export and cache
// listings use the footer for their TOTAL line.
type Table struct {
	w    table.Writer
	mode Mode
}

// NewTable starts an empty table rendered in mode m.
func NewTable(m Mode) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return &Table{w: w, mode: m}
}

// Header sets the column titles.
func (t *Table) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.w.AppendHeader(row)
}

// Row appends one line; values are printed with their default format.
func (t *Table) Row(vals ...any) { t.w.AppendRow(table.Row(vals)) }

// Footer appends a summary line below the rows.
func (t *Table) Footer(vals ...any) { t.w.AppendFooter(table.Row(vals)) }

// Columns replaces the per-column settings, e.g. right-aligned counts.
func (t *Table) Columns(cfgs ...ColumnConfig) {
	out := make([]table.ColumnConfig, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, table.ColumnConfig{
			Number:   c.Number,
			Align:    textAlign[c.Align],
			WidthMax: c.MaxWidth,
		})
	}
	t.w.SetColumnConfigs(out)
}

func (t *Table) String() string {
	if t.mode == Markdown {
		return t.w.RenderMarkdown()
	}
	return t.w.Render()
}

package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

type Column struct {
	Label string
	Align Align
}

// Summary is an optional closing row, e.g. team totals.
type Summary struct {
	Label  string
	Values []string
}

// Table is a titled grid of pre-formatted cells. Tables are built once and
// may be rendered any number of times.
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]string
	Summary *Summary
}

const columnGap = "  "

// Render writes the table as aligned plain text.
func (t Table) Render(w io.Writer) error {
	_, err := io.WriteString(w, t.String())
	return err
}

func (t Table) String() string {
	widths := t.widths()
	var b strings.Builder

	if t.Title != "" {
		b.WriteString(t.Title)
		b.WriteByte('\n')
	}

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	t.writeRow(&b, header, widths)
	t.writeRule(&b, widths)

	for _, row := range t.Rows {
		t.writeRow(&b, row, widths)
	}

	if t.Summary != nil {
		t.writeRule(&b, widths)
		t.writeRow(&b, t.summaryRow(), widths)
	}
	return b.String()
}

func (t Table) summaryRow() []string {
	row := make([]string, 0, len(t.Columns))
	row = append(row, t.Summary.Label)
	return append(row, t.Summary.Values...)
}

func (t Table) widths() []int {
	widths := make([]int, len(t.Columns))
	measure := func(row []string) {
		for i := range min(len(row), len(widths)) {
			widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
		}
	}
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c.Label)
	}
	for _, row := range t.Rows {
		measure(row)
	}
	if t.Summary != nil {
		measure(t.summaryRow())
	}
	return widths
}

func (t Table) writeRow(b *strings.Builder, row []string, widths []int) {
	cells := make([]string, len(widths))
	for i, w := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		pad := strings.Repeat(" ", w-utf8.RuneCountInString(cell))
		if t.Columns[i].Align == AlignRight {
			cells[i] = pad + cell
		} else {
			cells[i] = cell + pad
		}
	}
	b.WriteString(strings.TrimRight(strings.Join(cells, columnGap), " "))
	b.WriteByte('\n')
}

func (t Table) writeRule(b *strings.Builder, widths []int) {
	total := 0
	for _, w := range widths {
		total += w
	}
	total += len(columnGap) * max(len(widths)-1, 0)
	b.WriteString(strings.Repeat("-", total))
	b.WriteByte('\n')
}

func num(v float64, decimals int) string {
	return fmt.Sprintf("%.*f", decimals, v)
}

func signedPct(v float64) string {
	return fmt.Sprintf("%+.1f%%", v)
}

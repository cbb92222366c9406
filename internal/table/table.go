package table

import (
	"fmt"
	"strings"
)

// Table is an ordered in-memory tabular structure. Column lookup is
// case-sensitive and exact.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]Value
}

// New creates an empty table with the given column order.
func New(cols ...string) *Table {
	t := &Table{
		cols:  append([]string(nil), cols...),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		t.index[c] = i
	}
	return t
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// ColumnIndex reports the position of a column, if present.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AppendRow adds one row. The number of values must match the column count.
func (t *Table) AppendRow(vals ...Value) error {
	if len(vals) != len(t.cols) {
		return fmt.Errorf("row has %d values, table has %d columns", len(vals), len(t.cols))
	}
	t.rows = append(t.rows, append([]Value(nil), vals...))
	return nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Row returns the i-th row.
func (t *Table) Row(i int) []Value { return t.rows[i] }

// Cell returns the value at row i, named column.
func (t *Table) Cell(i int, col string) (Value, bool) {
	j, ok := t.index[col]
	if !ok || i < 0 || i >= len(t.rows) {
		return Value{}, false
	}
	return t.rows[i][j], true
}

// ColumnValues returns all values of the named column in row order.
func (t *Table) ColumnValues(name string) ([]Value, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("no such column: %s", name)
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Head returns a new table holding the first n rows (fewer if the table is
// shorter).
func (t *Table) Head(n int) *Table {
	out := New(t.cols...)
	for i := 0; i < len(t.rows) && i < n; i++ {
		out.rows = append(out.rows, append([]Value(nil), t.rows[i]...))
	}
	return out
}

// Render formats the table as an aligned text block for logs and previews.
func (t *Table) Render() string {
	widths := make([]int, len(t.cols))
	for i, c := range t.cols {
		widths[i] = len(c)
	}
	cells := make([][]string, len(t.rows))
	for i, r := range t.rows {
		cells[i] = make([]string, len(r))
		for j, v := range r {
			s := v.String()
			cells[i][j] = s
			if len(s) > widths[j] {
				widths[j] = len(s)
			}
		}
	}

	var b strings.Builder
	writeRow := func(fields []string) {
		for j, f := range fields {
			if j > 0 {
				b.WriteString("  ")
			}
			b.WriteString(f)
			b.WriteString(strings.Repeat(" ", widths[j]-len(f)))
		}
		b.WriteByte('\n')
	}
	writeRow(t.cols)
	for _, r := range cells {
		writeRow(r)
	}
	return b.String()
}

// Package table holds the in-memory representation of an uploaded
// spreadsheet and the codecs that read and write it.
//
// Every cell is kept as raw text. Nothing is coerced to numbers, dates or
// booleans here, so validators downstream see exactly what the uploader
// stored (leading zeros, mixed date styles and all). A missing value is an
// explicit null rather than an empty string.
package table

import (
	"fmt"
	"strings"
)

// Cell is a single decoded value. The zero Cell is null.
type Cell struct {
	Value string
	Valid bool
}

// Null is the explicit missing-value cell.
var Null = Cell{}

// Str returns a non-null cell holding s.
func Str(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool {
	return !c.Valid
}

func (c Cell) String() string {
	if !c.Valid {
		return "<null>"
	}
	return c.Value
}

// Table is an ordered set of uniquely named columns of equal length.
// A Table is owned by a single validation run and is not safe for
// concurrent mutation.
type Table struct {
	names []string
	cols  [][]Cell
	index map[string]int
}

// New creates an empty table with the given column names.
// Names must be unique.
func New(names []string) (*Table, error) {
	t := &Table{
		names: make([]string, len(names)),
		cols:  make([][]Cell, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		t.names[i] = name
		t.index[name] = i
	}
	return t, nil
}

// MustNew is New for fixed column sets in tests and fixtures.
func MustNew(names ...string) *Table {
	t, err := New(names)
	if err != nil {
		panic(err)
	}
	return t
}

// AppendRow adds one row. The row must have exactly one cell per column.
func (t *Table) AppendRow(row []Cell) error {
	if len(row) != len(t.names) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.names))
	}
	for i, c := range row {
		t.cols[i] = append(t.cols[i], c)
	}
	return nil
}

// AppendStrings adds a row of non-null cells, treating "" as null.
// It is a convenience for building fixtures.
func (t *Table) AppendStrings(values ...string) error {
	row := make([]Cell, len(values))
	for i, v := range values {
		if v != "" {
			row[i] = Str(v)
		}
	}
	return t.AppendRow(row)
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Column returns the cells of the named column.
// The returned slice must not be modified.
func (t *Table) Column(name string) ([]Cell, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// NumRows returns the number of data rows (header excluded).
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0])
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.cols))
	for c := range t.cols {
		row[c] = t.cols[c][i]
	}
	return row
}

// WithColumn returns a copy of t whose named column is replaced by cells.
// The receiver is left untouched.
func (t *Table) WithColumn(name string, cells []Cell) (*Table, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	if len(cells) != t.NumRows() {
		return nil, fmt.Errorf("column %q has %d cells, table has %d rows", name, len(cells), t.NumRows())
	}
	out := t.Clone()
	out.cols[i] = append([]Cell(nil), cells...)
	return out, nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		names: append([]string(nil), t.names...),
		cols:  make([][]Cell, len(t.cols)),
		index: make(map[string]int, len(t.index)),
	}
	for i, col := range t.cols {
		out.cols[i] = append([]Cell(nil), col...)
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}

// Equal reports whether both tables have the same columns and cells.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.names) != len(o.names) || t.NumRows() != o.NumRows() {
		return false
	}
	for i := range t.names {
		if t.names[i] != o.names[i] {
			return false
		}
		for r := range t.cols[i] {
			if t.cols[i][r] != o.cols[i][r] {
				return false
			}
		}
	}
	return true
}

func (t *Table) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.names, ","))
	for r := 0; r < t.NumRows(); r++ {
		b.WriteByte('\n')
		for c := range t.cols {
			if c > 0 {
				b.WriteByte(',')
			}
			b.WriteString(t.cols[c][r].String())
		}
	}
	return b.String()
}

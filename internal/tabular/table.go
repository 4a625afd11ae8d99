// Package tabular holds the generic tabular result exchanged with data
// sources and sinks, plus typed cell access.
package tabular

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Kind is the storage type of a column.
type Kind int

const (
	Text Kind = iota
	Float
	Int
	Time
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Float:
		return "float"
	case Int:
		return "int"
	case Time:
		return "time"
	default:
		return "unknown"
	}
}

// Column describes one column of a table.
type Column struct {
	Name string
	Kind Kind
}

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = eris.New("tabular: missing column")

// ErrInvalidValue is returned when a cell holds text that cannot be read as
// the requested type.
var ErrInvalidValue = eris.New("tabular: invalid value")

// Table is a column-named, row-major result set.
type Table struct {
	Columns []Column
	Rows    [][]any

	index map[string]int
}

// New creates a table with the given columns.
func New(cols ...Column) *Table {
	return &Table{Columns: cols}
}

// FromNames creates a table whose columns are all Text.
func FromNames(names ...string) *Table {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Kind: Text}
	}
	return New(cols...)
}

// Append adds a row. The row must have one value per column.
func (t *Table) Append(row ...any) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of a column. Lookup is case-insensitive.
func (t *Table) Index(name string) (int, bool) {
	if t.index == nil || len(t.index) != len(t.Columns) {
		t.index = make(map[string]int, len(t.Columns))
		for i, c := range t.Columns {
			key := strings.ToLower(c.Name)
			if _, dup := t.index[key]; !dup {
				t.index[key] = i
			}
		}
	}
	i, ok := t.index[strings.ToLower(name)]
	return i, ok
}

// Require checks that every named column is present.
func (t *Table) Require(names ...string) error {
	if t == nil {
		return eris.Wrap(ErrMissingColumn, "tabular: nil table")
	}
	var missing []string
	for _, n := range names {
		if _, ok := t.Index(n); !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrMissingColumn, "tabular: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Row is a cursor over one table row.
type Row struct {
	t   *Table
	idx int
}

// Row returns the i-th row cursor.
func (t *Table) Row(i int) Row {
	return Row{t: t, idx: i}
}

// Each calls fn for every row in order. Iteration stops at the first error.
func (t *Table) Each(fn func(r Row) error) error {
	for i := range t.Rows {
		if err := fn(t.Row(i)); err != nil {
			return err
		}
	}
	return nil
}

// Value returns the raw value of the named column.
func (r Row) Value(col string) (any, error) {
	i, ok := r.t.Index(col)
	if !ok {
		return nil, eris.Wrapf(ErrMissingColumn, "tabular: %s", col)
	}
	row := r.t.Rows[r.idx]
	if i >= len(row) {
		return nil, nil
	}
	return row[i], nil
}

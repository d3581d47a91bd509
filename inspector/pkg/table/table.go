// Package table holds a decoded columnar file in memory: an ordered set of named columns and
// rows addressable by position.
package table

import "slices"

// Row maps a column name to its value. A column missing from the map, or mapped to nil, is
// absent for that row. Structured values are map[string]any.
type Row map[string]any

// Get returns the value of col and whether it is present.
func (r Row) Get(col string) (any, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Table is a decoded file. Every row shares the table's column set.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// New builds a table. Row keys that are not in columns are dropped.
func New(columns []string, rows []Row) *Table {
	t := &Table{
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(columns)),
		rows:    make([]Row, 0, len(rows)),
	}
	for i, c := range t.columns {
		t.index[c] = i
	}
	for _, r := range rows {
		clean := make(Row, len(r))
		for k, v := range r {
			if _, ok := t.index[k]; ok {
				clean[k] = v
			}
		}
		t.rows = append(t.rows, clean)
	}
	return t
}

// Columns returns the column names in file order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// FirstColumn returns the first of names present in the table.
func (t *Table) FirstColumn(names ...string) (string, bool) {
	for _, n := range names {
		if t.HasColumn(n) {
			return n, true
		}
	}
	return "", false
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Value returns the value at row i and column col, and whether it is present.
func (t *Table) Value(i int, col string) (any, bool) {
	return t.rows[i].Get(col)
}

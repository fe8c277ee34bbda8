package table

import "sort"

// Table is an ordered sequence of rows sharing a column set.
// Columns keep first-seen order; rows keep insertion order.
type Table struct {
	columns []string
	known   map[string]struct{}
	rows    []*Row
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{known: make(map[string]struct{}, len(columns))}
	t.addColumns(columns)
	return t
}

func (t *Table) addColumns(columns []string) {
	for _, col := range columns {
		if _, ok := t.known[col]; ok {
			continue
		}
		t.known[col] = struct{}{}
		t.columns = append(t.columns, col)
	}
}

// Append adds rows to the table. Columns not yet known are appended to the column list.
func (t *Table) Append(rows ...*Row) {
	for _, row := range rows {
		t.addColumns(row.Columns())
		t.rows = append(t.rows, row)
	}
}

// Columns returns the table's columns in declaration order.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// SortedColumns returns the table's columns sorted lexicographically.
func (t *Table) SortedColumns() []string {
	cols := t.Columns()
	sort.Strings(cols)
	return cols
}

// HasColumn reports whether column belongs to the table.
func (t *Table) HasColumn(column string) bool {
	_, ok := t.known[column]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the rows in order. The slice is a copy; rows are shared.
func (t *Table) Rows() []*Row {
	rows := make([]*Row, len(t.rows))
	copy(rows, t.rows)
	return rows
}

// Row returns the i-th row.
func (t *Table) Row(i int) *Row {
	return t.rows[i]
}

// Column returns every value of column in row order.
func (t *Table) Column(column string) []Value {
	values := make([]Value, len(t.rows))
	for i, row := range t.rows {
		values[i] = row.Value(column)
	}
	return values
}

// Profile returns the column type profile of column.
func (t *Table) Profile(column string) Profile {
	return ProfileOf(t.Column(column))
}

// Select returns a table holding the rows for which keep returns true.
// The result shares rows and the column list with t.
func (t *Table) Select(keep func(*Row) bool) *Table {
	out := New(t.columns...)
	for _, row := range t.rows {
		if keep(row) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// MapColumn returns a table in which every value of column has been replaced
// by fn's result. Rows whose value does not change are shared with t.
func (t *Table) MapColumn(column string, fn func(i int, v Value) (Value, error)) (*Table, error) {
	out := New(t.columns...)
	out.rows = make([]*Row, len(t.rows))
	for i, row := range t.rows {
		v, ok := row.Get(column)
		nv, err := fn(i, v)
		if err != nil {
			return nil, err
		}
		if (ok && nv.Equal(v)) || (!ok && nv.IsNull()) {
			out.rows[i] = row
			continue
		}
		out.addColumns([]string{column})
		out.rows[i] = row.With(column, nv)
	}
	return out, nil
}

// CoerceColumn converts every value of column to target.
// The first failing cell is reported as a *CoercionError.
func (t *Table) CoerceColumn(column string, target Kind) (*Table, error) {
	return t.MapColumn(column, func(i int, v Value) (Value, error) {
		nv, err := v.CoerceTo(target)
		if err != nil {
			return v, &CoercionError{Column: column, Row: i, Value: v, Target: target, Err: err}
		}
		return nv, nil
	})
}

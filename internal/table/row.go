package table

import (
	"github.com/elliotchance/orderedmap/v2"
)

// Row is an immutable, ordered mapping from column name to Value.
// Columns that are not present read as null.
type Row struct {
	cells *orderedmap.OrderedMap[string, Value]
}

// NewRow builds a row from parallel column and value slices.
// Extra values without a column are ignored; missing values are null.
func NewRow(columns []string, values []Value) *Row {
	cells := orderedmap.NewOrderedMap[string, Value]()
	for i, col := range columns {
		v := Null()
		if i < len(values) {
			v = values[i]
		}
		cells.Set(col, v)
	}
	return &Row{cells: cells}
}

// RowOf builds a row from alternating column names and plain Go values.
// Convenient in tests: RowOf("id", 1, "name", "a").
func RowOf(pairs ...any) *Row {
	cells := orderedmap.NewOrderedMap[string, Value]()
	for i := 0; i+1 < len(pairs); i += 2 {
		col, _ := pairs[i].(string)
		cells.Set(col, FromAny(pairs[i+1]))
	}
	return &Row{cells: cells}
}

// Get returns the value stored under column and whether the column is present.
func (r *Row) Get(column string) (Value, bool) {
	if r == nil || r.cells == nil {
		return Null(), false
	}
	return r.cells.Get(column)
}

// Value returns the value stored under column, or null when absent.
func (r *Row) Value(column string) Value {
	v, _ := r.Get(column)
	return v
}

// Columns returns the row's columns in insertion order.
func (r *Row) Columns() []string {
	if r == nil || r.cells == nil {
		return nil
	}
	cols := make([]string, 0, r.cells.Len())
	for el := r.cells.Front(); el != nil; el = el.Next() {
		cols = append(cols, el.Key)
	}
	return cols
}

// Len returns the number of columns stored in the row.
func (r *Row) Len() int {
	if r == nil || r.cells == nil {
		return 0
	}
	return r.cells.Len()
}

// With returns a copy of the row with column set to v. The receiver is not modified.
func (r *Row) With(column string, v Value) *Row {
	cells := orderedmap.NewOrderedMap[string, Value]()
	if r != nil && r.cells != nil {
		for el := r.cells.Front(); el != nil; el = el.Next() {
			cells.Set(el.Key, el.Value)
		}
	}
	cells.Set(column, v)
	return &Row{cells: cells}
}

// Fields returns the row as a plain map for the sink API, leaving out null
// values and any column for which skip returns true.
func (r *Row) Fields(skip func(column string) bool) map[string]any {
	fields := make(map[string]any, r.Len())
	if r == nil || r.cells == nil {
		return fields
	}
	for el := r.cells.Front(); el != nil; el = el.Next() {
		if el.Value.IsNull() {
			continue
		}
		if skip != nil && skip(el.Key) {
			continue
		}
		fields[el.Key] = el.Value.Interface()
	}
	return fields
}

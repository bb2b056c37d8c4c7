// Package flatten turns the rows of a discovered table into a rectangular
// table with one column per (possibly nested) field.
//
// Columns are the union of keys over all rows, in first-seen order. Nested
// objects expand into "parent.child" columns until no object cells remain.
// Arrays are kept as opaque cells.
package flatten

import (
	"strconv"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/jsontables/internal/jsonvalue"
	"github.com/dbsmedya/jsontables/internal/types"
)

// ValueColumn holds rows that are not objects.
const ValueColumn = "value"

// Separator joins a parent column name and a nested key.
const Separator = "."

// Flatten builds a rectangular table from rows. Objects contribute their
// keys, every other row contributes a ValueColumn cell. Absent fields are
// jsonvalue.Missing.
func Flatten(rows []*jsonvalue.Value) *types.FlatTable {
	cs := newColumnSet(len(rows))
	for i, row := range rows {
		switch row.Kind() {
		case jsonvalue.KindObject:
			row.ForEach(func(key string, val *jsonvalue.Value) {
				cs.put(key, i, val)
			})
		case jsonvalue.KindMissing:
		default:
			cs.put(ValueColumn, i, row)
		}
	}
	for cs.expand() {
	}
	return cs.table()
}

// FlattenValue tabulates any value: an array flattens its elements, an
// object becomes a one-row table and a scalar a one-row ValueColumn table.
func FlattenValue(v *jsonvalue.Value) *types.FlatTable {
	switch v.Kind() {
	case jsonvalue.KindArray:
		return Flatten(v.Items())
	case jsonvalue.KindMissing:
		return Flatten(nil)
	}
	return Flatten([]*jsonvalue.Value{v})
}

// SampleKeys returns the union of top-level keys over the first n rows in
// first-seen order. Non-object rows contribute ValueColumn. n <= 0 samples
// every row. Nested objects are not expanded.
func SampleKeys(rows []*jsonvalue.Value, n int) []string {
	if n <= 0 || n > len(rows) {
		n = len(rows)
	}
	seen := orderedmap.NewOrderedMap[string, struct{}]()
	for _, row := range rows[:n] {
		if row.IsObject() {
			for _, key := range row.Keys() {
				seen.Set(key, struct{}{})
			}
			continue
		}
		seen.Set(ValueColumn, struct{}{})
	}
	return seen.Keys()
}

// FlattenTable expands any object cells left in t, keeping column order.
// A table without object cells is returned as is.
func FlattenTable(t *types.FlatTable) *types.FlatTable {
	cs := newColumnSet(t.RowCount())
	for _, col := range t.Columns() {
		cs.cols.Set(col.Name, col.Cells)
	}
	if !cs.expand() {
		return t
	}
	for cs.expand() {
	}
	return cs.table()
}

type columnSet struct {
	rows int
	cols *orderedmap.OrderedMap[string, []*jsonvalue.Value]
}

func newColumnSet(rows int) *columnSet {
	return &columnSet{
		rows: rows,
		cols: orderedmap.NewOrderedMap[string, []*jsonvalue.Value](),
	}
}

func (cs *columnSet) column(m *orderedmap.OrderedMap[string, []*jsonvalue.Value], name string) []*jsonvalue.Value {
	if cells, ok := m.Get(name); ok {
		return cells
	}
	cells := make([]*jsonvalue.Value, cs.rows)
	for i := range cells {
		cells[i] = jsonvalue.Missing()
	}
	m.Set(name, cells)
	return cells
}

// put stores val at row i unless the cell already holds a value.
func (cs *columnSet) put(name string, i int, val *jsonvalue.Value) {
	cells := cs.column(cs.cols, name)
	if cells[i].IsMissing() {
		cells[i] = val
	}
}

// expand splices sub-columns in place of every column that holds object
// cells. It reports whether anything changed. Columns that survive keep
// their names; a sub-column whose name is already used by another column
// is numbered name_2, name_3, ...
func (cs *columnSet) expand() bool {
	changed := false
	next := orderedmap.NewOrderedMap[string, []*jsonvalue.Value]()

	owners := make(map[string]string)
	for el := cs.cols.Front(); el != nil; el = el.Next() {
		if keepsParent(el.Value) {
			owners[el.Key] = el.Key
		}
	}

	for el := cs.cols.Front(); el != nil; el = el.Next() {
		name, cells := el.Key, el.Value
		if !hasObject(cells) {
			merge(cs.column(next, name), cells)
			continue
		}
		changed = true

		if keepsParent(cells) {
			keep := make([]*jsonvalue.Value, cs.rows)
			for i, cell := range cells {
				keep[i] = cell
				if cell.IsObject() {
					keep[i] = jsonvalue.Missing()
				}
			}
			merge(cs.column(next, name), keep)
		}

		for i, cell := range cells {
			if !cell.IsObject() {
				continue
			}
			cell.ForEach(func(key string, val *jsonvalue.Value) {
				sub := cs.column(next, subColumn(owners, name, key))
				if sub[i].IsMissing() {
					sub[i] = val
				}
			})
		}
	}

	cs.cols = next
	return changed
}

// subColumn returns the column name for key under parent, numbering it when
// the plain name belongs to a different column.
func subColumn(owners map[string]string, parent, key string) string {
	name := parent + Separator + key
	owner := parent + "\x00" + key
	candidate := name
	for i := 2; ; i++ {
		o, ok := owners[candidate]
		if !ok {
			owners[candidate] = owner
			return candidate
		}
		if o == owner {
			return candidate
		}
		candidate = name + "_" + strconv.Itoa(i)
	}
}

// keepsParent reports whether a column survives its expansion: it has no
// object cells, or some cells hold scalars or arrays.
func keepsParent(cells []*jsonvalue.Value) bool {
	if !hasObject(cells) {
		return true
	}
	for _, c := range cells {
		switch c.Kind() {
		case jsonvalue.KindObject, jsonvalue.KindNull, jsonvalue.KindMissing:
		default:
			return true
		}
	}
	return false
}

func hasObject(cells []*jsonvalue.Value) bool {
	for _, c := range cells {
		if c.IsObject() {
			return true
		}
	}
	return false
}

// merge fills the missing cells of dst from src.
func merge(dst, src []*jsonvalue.Value) {
	for i, v := range src {
		if dst[i].IsMissing() {
			dst[i] = v
		}
	}
}

func (cs *columnSet) table() *types.FlatTable {
	t := types.NewFlatTable(cs.rows)
	for el := cs.cols.Front(); el != nil; el = el.Next() {
		// Names are unique and lengths fixed by construction.
		_ = t.AddColumn(el.Key, el.Value)
	}
	return t
}

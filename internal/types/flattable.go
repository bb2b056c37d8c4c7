package types

import (
	"fmt"
	"time"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/jsontables/internal/jsonvalue"
)

// Column is one column of a flattened table.
type Column struct {
	Name  string
	Cells []*jsonvalue.Value

	// Dates is set for columns converted by the datetime pass. A zero time
	// marks a cell that did not parse and is treated as missing.
	Dates    []time.Time
	dateOnly bool
}

// IsDate reports whether the column holds dates.
func (c *Column) IsDate() bool {
	return c.Dates != nil
}

// SetDates turns the column into a date column.
func (c *Column) SetDates(dates []time.Time) {
	c.Dates = dates
	c.dateOnly = true
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 || d.Nanosecond() != 0 {
			c.dateOnly = false
			break
		}
	}
}

// DateOnly reports whether every date of the column falls on midnight.
func (c *Column) DateOnly() bool {
	return c.IsDate() && c.dateOnly
}

// IsMissing reports whether row i has no value in this column.
func (c *Column) IsMissing(i int) bool {
	if c.IsDate() {
		return c.Dates[i].IsZero()
	}
	k := c.Cells[i].Kind()
	return k == jsonvalue.KindMissing || k == jsonvalue.KindNull
}

// FlatTable is a rectangular table: every column holds exactly one cell per row.
type FlatTable struct {
	rows    int
	columns *orderedmap.OrderedMap[string, *Column]
}

// NewFlatTable creates a table with the given row count and no columns.
func NewFlatTable(rows int) *FlatTable {
	return &FlatTable{
		rows:    rows,
		columns: orderedmap.NewOrderedMap[string, *Column](),
	}
}

// AddColumn appends a column. The cell count must match the row count and
// the name must be new.
func (t *FlatTable) AddColumn(name string, cells []*jsonvalue.Value) error {
	if len(cells) != t.rows {
		return fmt.Errorf("column %q has %d cells, table has %d rows", name, len(cells), t.rows)
	}
	if _, exists := t.columns.Get(name); exists {
		return fmt.Errorf("column %q already exists", name)
	}
	t.columns.Set(name, &Column{Name: name, Cells: cells})
	return nil
}

// RowCount returns the number of rows.
func (t *FlatTable) RowCount() int {
	return t.rows
}

// ColumnCount returns the number of columns.
func (t *FlatTable) ColumnCount() int {
	return t.columns.Len()
}

// ColumnNames returns column names in order.
func (t *FlatTable) ColumnNames() []string {
	return t.columns.Keys()
}

// Column returns the named column.
func (t *FlatTable) Column(name string) (*Column, bool) {
	return t.columns.Get(name)
}

// Columns returns the columns in order.
func (t *FlatTable) Columns() []*Column {
	out := make([]*Column, 0, t.columns.Len())
	for el := t.columns.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Row returns the text of every cell of row i.
func (t *FlatTable) Row(i int) []string {
	out := make([]string, 0, t.columns.Len())
	for el := t.columns.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.Text(i))
	}
	return out
}

// Summary describes the table under the given name and source path.
func (t *FlatTable) Summary(name, path string) TableSummary {
	return TableSummary{
		Name: name,
		Path: path,
		Rows: t.rows,
		Cols: t.columns.Len(),
	}
}

// Package types contains the table registry and flattened table types shared
// across discovery, flattening and the output writers.
package types

import (
	"fmt"
	"time"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/jsontables/internal/jsonvalue"
)

// Table is one array of objects found in the document.
type Table struct {
	Name string             // Sanitized, unique table name
	Path string             // Discovery path the rows were found at, e.g. "Data.Result"
	Rows []*jsonvalue.Value // Row records; empty for a zero-row table
}

// TableSet is the registry of tables discovered during one conversion run.
// Names are unique and iteration follows insertion order.
type TableSet struct {
	tables *orderedmap.OrderedMap[string, *Table]
	Stats  DiscoveryStats
}

// DiscoveryStats contains statistics about the discovery traversal.
type DiscoveryStats struct {
	TablesFound  int           // Number of tables registered
	RowsFound    int64         // Total rows across all tables
	NodesVisited int           // Objects and arrays walked
	MaxDepth     int           // Deepest container level reached
	Duration     time.Duration // Time taken for discovery
}

// TableSummary describes a materialized table for reports.
type TableSummary struct {
	Name string
	Path string
	Rows int
	Cols int
}

// NewTableSet creates an empty registry.
func NewTableSet() *TableSet {
	return &TableSet{tables: orderedmap.NewOrderedMap[string, *Table]()}
}

// Add registers a table. A name that is already present is rejected; tables
// are never overwritten.
func (s *TableSet) Add(t *Table) error {
	if t == nil {
		return fmt.Errorf("table is nil")
	}
	if _, exists := s.tables.Get(t.Name); exists {
		return fmt.Errorf("table %q already registered", t.Name)
	}
	s.tables.Set(t.Name, t)
	return nil
}

// Get returns the table registered under name.
func (s *TableSet) Get(name string) (*Table, bool) {
	return s.tables.Get(name)
}

// Len returns the number of registered tables.
func (s *TableSet) Len() int {
	return s.tables.Len()
}

// Names returns table names in registration order.
func (s *TableSet) Names() []string {
	return s.tables.Keys()
}

// Tables returns the registered tables in registration order.
func (s *TableSet) Tables() []*Table {
	out := make([]*Table, 0, s.tables.Len())
	for el := s.tables.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// TotalRows returns the sum of row counts across all tables.
func (s *TableSet) TotalRows() int64 {
	var n int64
	for el := s.tables.Front(); el != nil; el = el.Next() {
		n += int64(len(el.Value.Rows))
	}
	return n
}

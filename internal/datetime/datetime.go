// Package datetime detects string columns that hold timestamps and converts
// them to date columns so writers can emit native date cells.
package datetime

import (
	"regexp"
	"strings"
	"time"

	"github.com/relvacode/iso8601"

	"github.com/dbsmedya/jsontables/internal/jsonvalue"
	"github.com/dbsmedya/jsontables/internal/types"
)

// DefaultMinRatio is the share of rows that must parse for a column to convert.
const DefaultMinRatio = 0.5

// looksLikeDate filters out values that cannot be dates before parsing.
var looksLikeDate = regexp.MustCompile(`(\d.*[-/T])|([:/-].*\d)`)

// Layouts tried after ISO 8601.
var layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
}

// Parse parses s as a timestamp. It returns false for anything that does
// not look like one.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !looksLikeDate.MatchString(s) {
		return time.Time{}, false
	}
	if t, err := iso8601.ParseString(s); err == nil {
		return t, true
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Convert turns qualifying columns of t into date columns and returns their
// names. A column qualifies when every present cell is a string and at least
// minRatio of all rows parse. Cells that do not parse become missing.
func Convert(t *types.FlatTable, minRatio float64) []string {
	if minRatio <= 0 || minRatio > 1 {
		minRatio = DefaultMinRatio
	}
	rows := t.RowCount()
	if rows == 0 {
		return nil
	}

	var converted []string
	for _, col := range t.Columns() {
		if col.IsDate() || !allStrings(col.Cells) {
			continue
		}

		dates := make([]time.Time, rows)
		parsed := 0
		for i, cell := range col.Cells {
			if cell.Kind() != jsonvalue.KindString {
				continue
			}
			if d, ok := Parse(cell.Text()); ok {
				dates[i] = d
				parsed++
			}
		}

		if parsed == 0 || float64(parsed) < minRatio*float64(rows) {
			continue
		}
		col.SetDates(dates)
		converted = append(converted, col.Name)
	}
	return converted
}

// allStrings reports whether every present cell is a string and at least one is.
func allStrings(cells []*jsonvalue.Value) bool {
	found := false
	for _, c := range cells {
		switch c.Kind() {
		case jsonvalue.KindMissing, jsonvalue.KindNull:
		case jsonvalue.KindString:
			found = true
		default:
			return false
		}
	}
	return found
}

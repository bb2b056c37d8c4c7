package types

import (
	"time"

	"github.com/dbsmedya/jsontables/internal/jsonvalue"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Text renders cell i as text. Missing and null cells render empty, dates use
// a date-only layout when every date of the column falls on midnight.
func (c *Column) Text(i int) string {
	if c.IsDate() {
		d := c.Dates[i]
		if d.IsZero() {
			return ""
		}
		return formatDate(d, c.dateOnly)
	}
	return c.Cells[i].CellString()
}

func formatDate(d time.Time, dateOnly bool) string {
	if dateOnly {
		return d.Format(dateLayout)
	}
	if _, offset := d.Zone(); offset != 0 {
		return d.Format(dateTimeLayout + "-07:00")
	}
	return d.Format(dateTimeLayout)
}

// Native converts cell i to a Go value for typed sinks.
// Supports nil, bool, int64, float64, string and time.Time results; numbers
// that do not parse are returned as their literal text.
func (c *Column) Native(i int) interface{} {
	if c.IsDate() {
		if c.Dates[i].IsZero() {
			return nil
		}
		return c.Dates[i]
	}

	v := c.Cells[i]
	switch v.Kind() {
	case jsonvalue.KindNull, jsonvalue.KindMissing:
		return nil
	case jsonvalue.KindBool:
		return v.BoolValue()
	case jsonvalue.KindNumber:
		if n, ok := v.Int64(); ok {
			return n
		}
		if f, ok := v.Float64(); ok {
			return f
		}
		return v.Text()
	case jsonvalue.KindString:
		return v.Text()
	default:
		return v.CellString()
	}
}

// Package sqlutil provides SQL dialect helpers for the database sinks.
package sqlutil

import (
	"strings"
)

// Dialect selects identifier quoting, column types and statement limits.
type Dialect int

const (
	MySQL Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "mysql"
}

// QuoteIdentifier quotes a MySQL identifier (table name, column name) with backticks.
// It escapes any existing backticks by doubling them.
// Example: "my_table" -> "`my_table`"
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteSQLiteIdentifier quotes an SQLite identifier with double quotes,
// doubling embedded quotes.
func QuoteSQLiteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Quote quotes an identifier for the dialect.
func (d Dialect) Quote(name string) string {
	if d == SQLite {
		return QuoteSQLiteIdentifier(name)
	}
	return QuoteIdentifier(name)
}

// MaxPlaceholders is the number of bind parameters one statement may carry.
func (d Dialect) MaxPlaceholders() int {
	if d == SQLite {
		return 32766
	}
	return 65535
}

// ColumnType is the inferred storage class of a column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInteger
	TypeReal
	TypeBoolean
	TypeDateTime
)

// SQLType returns the column type name for the dialect.
func (d Dialect) SQLType(t ColumnType) string {
	if d == SQLite {
		switch t {
		case TypeInteger, TypeBoolean:
			return "INTEGER"
		case TypeReal:
			return "REAL"
		}
		return "TEXT"
	}
	switch t {
	case TypeInteger:
		return "BIGINT"
	case TypeReal:
		return "DOUBLE"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDateTime:
		return "DATETIME"
	}
	return "LONGTEXT"
}

// InsertStatement builds a multi-row INSERT for rows rows of the given columns.
func (d Dialect) InsertStatement(table string, columns []string, rows int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.Quote(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(") VALUES ")
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tuple)
	}
	return b.String()
}

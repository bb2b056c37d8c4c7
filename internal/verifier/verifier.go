// Package verifier checks that tables written to a database hold the rows
// the writer sent.
package verifier

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/jsontables/internal/logger"
	"github.com/dbsmedya/jsontables/internal/sqlutil"
)

// Expectation is the row count a table must hold.
type Expectation struct {
	Table string
	Rows  int64
}

// VerifyResult holds verification results for a single table.
type VerifyResult struct {
	Table    string
	Expected int64
	Found    int64
	Match    bool
}

// VerifyStats contains overall verification statistics.
type VerifyStats struct {
	TablesVerified int
	TablesPassed   int
	TablesFailed   int
	TotalRows      int64
}

// Verifier counts rows in a destination database.
type Verifier struct {
	db      *sql.DB
	dialect sqlutil.Dialect
	logger  *logger.Logger
}

// NewVerifier creates a verifier for db. A nil logger discards output.
func NewVerifier(db *sql.DB, dialect sqlutil.Dialect, log *logger.Logger) (*Verifier, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Verifier{db: db, dialect: dialect, logger: log}, nil
}

// Verify checks every expectation in order and stops at the first mismatch.
func (v *Verifier) Verify(ctx context.Context, expected []Expectation) (*VerifyStats, error) {
	stats := &VerifyStats{}

	for _, e := range expected {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("verification interrupted: %w", err)
		}

		result, err := v.verifyByCount(ctx, e)
		if err != nil {
			return stats, err
		}

		stats.TablesVerified++
		stats.TotalRows += result.Found
		if !result.Match {
			stats.TablesFailed++
			v.logger.Errorw("Verification failed", "table", e.Table, "expected", result.Expected, "found", result.Found)
			return stats, fmt.Errorf("verification failed for table %s: expected %d rows, found %d",
				e.Table, result.Expected, result.Found)
		}
		stats.TablesPassed++
	}

	v.logger.Debugw("Verification passed", "tables", stats.TablesVerified, "rows", stats.TotalRows)
	return stats, nil
}

func (v *Verifier) verifyByCount(ctx context.Context, e Expectation) (*VerifyResult, error) {
	var count int64
	query := "SELECT COUNT(*) FROM " + v.dialect.Quote(e.Table)
	if err := v.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count rows in %s: %w", e.Table, err)
	}
	return &VerifyResult{
		Table:    e.Table,
		Expected: e.Rows,
		Found:    count,
		Match:    count == e.Rows,
	}, nil
}

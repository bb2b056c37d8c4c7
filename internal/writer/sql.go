package writer

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dbsmedya/jsontables/internal/database"
	"github.com/dbsmedya/jsontables/internal/discovery"
	"github.com/dbsmedya/jsontables/internal/jsonvalue"
	"github.com/dbsmedya/jsontables/internal/lock"
	"github.com/dbsmedya/jsontables/internal/logger"
	"github.com/dbsmedya/jsontables/internal/sqlutil"
	"github.com/dbsmedya/jsontables/internal/types"
	"github.com/dbsmedya/jsontables/internal/verifier"
)

// RowColumn is the leading column holding the 1-based row number.
const RowColumn = "_row"

const defaultBatchSize = 500

// opener connects to the destination and returns its location for reports.
// release is called when the sink is done with db.
type opener func(ctx context.Context) (db *sql.DB, location string, release func() error, err error)

// SQLWriter writes each table into a database table inside one transaction.
type SQLWriter struct {
	dialect  sqlutil.Dialect
	settings Settings
	open     opener
}

// NewSQLiteWriter creates a sink writing <base>_<ts>.db in the output directory.
func NewSQLiteWriter(s Settings) *SQLWriter {
	s = s.withDefaults()
	w := &SQLWriter{dialect: sqlutil.SQLite, settings: s}
	w.open = func(ctx context.Context) (*sql.DB, string, func() error, error) {
		if err := s.ensureDir(); err != nil {
			return nil, "", nil, err
		}
		path := s.path(".db", s.BaseName, s.stamp())
		db, err := database.OpenSQLite(ctx, path)
		if err != nil {
			return nil, "", nil, err
		}
		return db, path, db.Close, nil
	}
	return w
}

// NewMySQLWriter creates a sink writing into the configured MySQL database.
func NewMySQLWriter(s Settings) *SQLWriter {
	s = s.withDefaults()
	w := &SQLWriter{dialect: sqlutil.MySQL, settings: s}
	w.open = func(ctx context.Context) (*sql.DB, string, func() error, error) {
		m := database.NewManager(&s.Database)
		if err := m.Connect(ctx); err != nil {
			return nil, "", nil, err
		}
		unlock, err := lockDestination(ctx, m.DB, s.Database.Database, s.Logger)
		if err != nil {
			_ = m.Close()
			return nil, "", nil, err
		}
		release := func() error {
			if err := unlock(); err != nil {
				s.Logger.Warnw("Failed to release destination lock", "error", err)
			}
			return m.Close()
		}
		return m.DB, mysqlLocation(&s), release, nil
	}
	return w
}

// lockDestination takes the advisory lock for database so concurrent runs do
// not drop and refill the same tables. The returned func releases it.
func lockDestination(ctx context.Context, db *sql.DB, database string, log *logger.Logger) (func() error, error) {
	l, err := lock.NewAdvisoryLock(ctx, db, lock.DatabaseLockName(database))
	if err != nil {
		return nil, err
	}
	if err := l.AcquireOrFail(ctx, lock.TimeoutMedium); err != nil {
		_ = l.Release(ctx)
		return nil, err
	}
	log.Debugw("Acquired destination lock", "lock", l.Name())

	return func() error {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return l.Release(releaseCtx)
	}, nil
}

// NewSQLWriterForDB creates a sink writing through an existing connection.
// The caller keeps ownership of db.
func NewSQLWriterForDB(db *sql.DB, dialect sqlutil.Dialect, location string, s Settings) *SQLWriter {
	return &SQLWriter{
		dialect:  dialect,
		settings: s.withDefaults(),
		open: func(context.Context) (*sql.DB, string, func() error, error) {
			return db, location, func() error { return nil }, nil
		},
	}
}

func mysqlLocation(s *Settings) string {
	return net.JoinHostPort(s.Database.Host, strconv.Itoa(s.Database.Port)) + "/" + s.Database.Database
}

// tablePlan is the destination layout of one table.
type tablePlan struct {
	named   *Named
	columns []*types.Column
	names   []string // destination column names, RowColumn first
	kinds   []sqlutil.ColumnType
}

func (w *SQLWriter) plan(n *Named) (*tablePlan, error) {
	namer := discovery.NewNamer(discovery.StyleFile, discovery.MaxFileNameLength)
	namer.Reserve(RowColumn)

	cols := n.Table.Columns()
	p := &tablePlan{
		named:   n,
		columns: cols,
		names:   make([]string, 0, len(cols)+1),
		kinds:   make([]sqlutil.ColumnType, 0, len(cols)),
	}
	p.names = append(p.names, RowColumn)
	for _, c := range cols {
		name, err := namer.Assign(c.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to name column %s of %s: %w", c.Name, n.Name, err)
		}
		p.names = append(p.names, name)
		p.kinds = append(p.kinds, InferType(c))
	}
	return p, nil
}

// Write creates one table per input table and inserts all rows in a single
// transaction. When verification is enabled the row counts are checked after
// commit.
func (w *SQLWriter) Write(ctx context.Context, tables []*Named) (*Report, error) {
	startTime := time.Now()
	format := FormatMySQL
	if w.dialect == sqlutil.SQLite {
		format = FormatSQLite
	}
	report := &Report{Format: format}
	if len(tables) == 0 {
		return report, nil
	}

	db, location, release, err := w.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(); err != nil {
			w.settings.Logger.Warnw("Failed to close database", "error", err)
		}
	}()

	plans := make([]*tablePlan, len(tables))
	for i, t := range tables {
		if plans[i], err = w.plan(t); err != nil {
			return nil, err
		}
	}

	log := w.settings.Logger
	log.Debug("Starting destination transaction")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin destination transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			log.Warn("Rolling back destination transaction")
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Errorf("Failed to rollback transaction: %v", rbErr)
			}
		}
	}()

	for _, p := range plans {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sql write interrupted: %w", err)
		}
		if err := w.createTable(ctx, tx, p); err != nil {
			return nil, fmt.Errorf("failed to create table %s: %w", p.named.Name, err)
		}
		if err := w.insertRows(ctx, tx, p); err != nil {
			return nil, fmt.Errorf("failed to insert into table %s: %w", p.named.Name, err)
		}
		log.WithTable(p.named.Name).Debugw("Inserted rows", "rows", p.named.Table.RowCount())
		report.add(p.named)
	}

	log.Debug("Committing destination transaction")
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit destination transaction: %w", err)
	}
	tx = nil

	if w.settings.Database.Verify {
		if err := w.verify(ctx, db, plans); err != nil {
			return nil, err
		}
	}

	report.Outputs = append(report.Outputs, location)
	report.Duration = time.Since(startTime)
	log.Infow("Database write complete",
		"location", location,
		"tables", len(report.Tables),
		"rows", report.Rows,
		"duration", report.Duration,
	)
	return report, nil
}

// createStatement returns the DDL for a table plan.
func (w *SQLWriter) createStatement(p *tablePlan) string {
	defs := make([]string, 0, len(p.names))
	rowType := w.dialect.SQLType(sqlutil.TypeInteger)
	defs = append(defs, w.dialect.Quote(RowColumn)+" "+rowType+" NOT NULL PRIMARY KEY")
	for i, typ := range p.kinds {
		defs = append(defs, w.dialect.Quote(p.names[i+1])+" "+w.dialect.SQLType(typ))
	}
	return "CREATE TABLE " + w.dialect.Quote(p.named.Name) + " (" + strings.Join(defs, ", ") + ")"
}

func (w *SQLWriter) createTable(ctx context.Context, tx *sql.Tx, p *tablePlan) error {
	if w.settings.Database.ReplaceExisting {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+w.dialect.Quote(p.named.Name)); err != nil {
			return err
		}
	}
	_, err := tx.ExecContext(ctx, w.createStatement(p))
	return err
}

// batchRows returns how many rows fit in one INSERT.
func (w *SQLWriter) batchRows(columns int) int {
	n := w.settings.Database.BatchSize
	if n <= 0 {
		n = defaultBatchSize
	}
	if limit := w.dialect.MaxPlaceholders() / columns; n > limit {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (w *SQLWriter) insertRows(ctx context.Context, tx *sql.Tx, p *tablePlan) error {
	rows := p.named.Table.RowCount()
	batch := w.batchRows(len(p.names))

	for start := 0; start < rows; start += batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + batch
		if end > rows {
			end = rows
		}

		args := make([]interface{}, 0, (end-start)*len(p.names))
		for i := start; i < end; i++ {
			args = append(args, int64(i+1))
			for j, c := range p.columns {
				args = append(args, w.cellArg(c, p.kinds[j], i))
			}
		}

		query := w.dialect.InsertStatement(p.named.Name, p.names, end-start)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("rows %d-%d: %w", start+1, end, err)
		}
	}
	return nil
}

func (w *SQLWriter) cellArg(c *types.Column, typ sqlutil.ColumnType, i int) interface{} {
	if c.IsMissing(i) {
		return nil
	}
	switch typ {
	case sqlutil.TypeText:
		return c.Text(i)
	case sqlutil.TypeDateTime:
		if w.dialect == sqlutil.SQLite {
			return c.Text(i)
		}
		return c.Dates[i]
	}
	return c.Native(i)
}

// verify compares the destination row count of every table with the rows written.
func (w *SQLWriter) verify(ctx context.Context, db *sql.DB, plans []*tablePlan) error {
	v, err := verifier.NewVerifier(db, w.dialect, w.settings.Logger)
	if err != nil {
		return err
	}
	expected := make([]verifier.Expectation, 0, len(plans))
	for _, p := range plans {
		expected = append(expected, verifier.Expectation{
			Table: p.named.Name,
			Rows:  int64(p.named.Table.RowCount()),
		})
	}
	_, err = v.Verify(ctx, expected)
	return err
}

// InferType picks the narrowest column type holding every present cell.
func InferType(c *types.Column) sqlutil.ColumnType {
	if c.IsDate() {
		return sqlutil.TypeDateTime
	}

	seen := false
	allBool, allInt, allNumber := true, true, true
	for _, v := range c.Cells {
		switch v.Kind() {
		case jsonvalue.KindNull, jsonvalue.KindMissing:
			continue
		case jsonvalue.KindBool:
			allInt, allNumber = false, false
		case jsonvalue.KindNumber:
			allBool = false
			if _, ok := v.Int64(); !ok {
				allInt = false
			}
			if _, ok := v.Float64(); !ok {
				allNumber = false
			}
		default:
			return sqlutil.TypeText
		}
		seen = true
	}

	switch {
	case !seen:
		return sqlutil.TypeText
	case allBool:
		return sqlutil.TypeBoolean
	case allInt:
		return sqlutil.TypeInteger
	case allNumber:
		return sqlutil.TypeReal
	}
	return sqlutil.TypeText
}

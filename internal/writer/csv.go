package writer

import (
	"context"
	"encoding/csv"
	"fmt"
	"time"
)

// CSVWriter writes one CSV file per table.
type CSVWriter struct {
	settings Settings
}

// NewCSVWriter creates a CSV sink.
func NewCSVWriter(s Settings) *CSVWriter {
	return &CSVWriter{settings: s.withDefaults()}
}

// Write writes every table to its own file. A single table is written to
// <base>_<ts>.csv, several tables to <base>_<name>_<ts>.csv.
func (w *CSVWriter) Write(ctx context.Context, tables []*Named) (*Report, error) {
	startTime := time.Now()
	report := &Report{Format: FormatCSV}
	if len(tables) == 0 {
		return report, nil
	}
	if err := w.settings.ensureDir(); err != nil {
		return nil, err
	}

	stamp := w.settings.stamp()
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("csv write interrupted: %w", err)
		}

		name := ""
		if len(tables) > 1 {
			name = t.Name
		}
		path := w.settings.path(".csv", w.settings.BaseName, name, stamp)
		if err := w.writeFile(path, t); err != nil {
			return nil, err
		}

		w.settings.Logger.WithTable(t.Name).Debugw("Wrote CSV file", "path", path, "rows", t.Table.RowCount())
		report.Outputs = append(report.Outputs, path)
		report.add(t)
	}

	report.Duration = time.Since(startTime)
	return report, nil
}

func (w *CSVWriter) writeFile(path string, t *Named) (err error) {
	f, err := w.settings.Fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close CSV file %s: %w", path, cerr)
		}
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Table.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for i := 0; i < t.Table.RowCount(); i++ {
		if err := cw.Write(t.Table.Row(i)); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file %s: %w", path, err)
	}
	return nil
}

// Package writer materializes flattened tables as CSV files, an XLSX
// workbook or tables in a SQL database.
package writer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/dbsmedya/jsontables/internal/config"
	"github.com/dbsmedya/jsontables/internal/discovery"
	"github.com/dbsmedya/jsontables/internal/logger"
	"github.com/dbsmedya/jsontables/internal/types"
)

// TimestampLayout formats the run timestamp embedded in output names.
const TimestampLayout = "20060102_150405"

var (
	// ErrUnknownFormat is returned for an output format no sink handles.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrSheetTooLarge is returned when a table does not fit on a worksheet.
	ErrSheetTooLarge = errors.New("table exceeds worksheet limits")
)

// Format identifies an output sink.
type Format string

const (
	FormatXLSX   Format = config.FormatXLSX
	FormatCSV    Format = config.FormatCSV
	FormatSQLite Format = config.FormatSQLite
	FormatMySQL  Format = config.FormatMySQL
)

// ParseFormat converts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV, FormatSQLite, FormatMySQL:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// NameStyle returns the character rules table names must follow.
func (f Format) NameStyle() discovery.NameStyle {
	if f == FormatXLSX {
		return discovery.StyleSheet
	}
	return discovery.StyleFile
}

// Named is a flattened table ready to be written.
type Named struct {
	Name  string
	Path  string // source path, reported in summaries
	Table *types.FlatTable
}

// Summary describes the table for reports.
func (n *Named) Summary() types.TableSummary {
	return n.Table.Summary(n.Name, n.Path)
}

// Report describes what a sink wrote.
type Report struct {
	Format   Format
	Outputs  []string // files written, or the database location
	Tables   []types.TableSummary
	Rows     int64
	Duration time.Duration
}

func (r *Report) add(n *Named) {
	r.Tables = append(r.Tables, n.Summary())
	r.Rows += int64(n.Table.RowCount())
}

// Sink writes a set of tables in one output format.
type Sink interface {
	Write(ctx context.Context, tables []*Named) (*Report, error)
}

// Settings carries everything a sink needs besides the tables.
type Settings struct {
	Fs          afero.Fs
	Dir         string
	BaseName    string
	Timestamp   bool
	Clock       func() time.Time
	Spreadsheet config.SpreadsheetConfig
	Database    config.DatabaseConfig
	Logger      *logger.Logger
}

// SettingsFromConfig builds sink settings writing to the OS file system.
func SettingsFromConfig(cfg *config.Config, log *logger.Logger) Settings {
	return Settings{
		Fs:          afero.NewOsFs(),
		Dir:         cfg.Output.Dir,
		BaseName:    cfg.Output.BaseName,
		Timestamp:   cfg.Output.Timestamp,
		Clock:       time.Now,
		Spreadsheet: cfg.Spreadsheet,
		Database:    cfg.Database,
		Logger:      log,
	}
}

func (s Settings) withDefaults() Settings {
	if s.Fs == nil {
		s.Fs = afero.NewOsFs()
	}
	if s.Dir == "" {
		s.Dir = "."
	}
	if s.Clock == nil {
		s.Clock = time.Now
	}
	if s.Logger == nil {
		s.Logger = logger.NewNop()
	}
	return s
}

// stamp returns the run timestamp, or "" when timestamps are disabled.
func (s Settings) stamp() string {
	if !s.Timestamp {
		return ""
	}
	return s.Clock().Format(TimestampLayout)
}

// path joins the non-empty parts with "_" and places the file in Dir.
func (s Settings) path(ext string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return filepath.Join(s.Dir, strings.Join(kept, "_")+ext)
}

func (s Settings) ensureDir() error {
	if err := s.Fs.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.Dir, err)
	}
	return nil
}

// New returns the sink for format.
func New(format Format, s Settings) (Sink, error) {
	s = s.withDefaults()
	switch format {
	case FormatCSV:
		return NewCSVWriter(s), nil
	case FormatXLSX:
		return NewXLSXWriter(s), nil
	case FormatSQLite:
		return NewSQLiteWriter(s), nil
	case FormatMySQL:
		return NewMySQLWriter(s), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

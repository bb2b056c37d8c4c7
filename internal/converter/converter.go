// Package converter coordinates a conversion run: it loads the input
// document, discovers its tables, flattens them and hands them to the
// configured output sink.
package converter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/afero"

	"github.com/dbsmedya/jsontables/internal/config"
	"github.com/dbsmedya/jsontables/internal/datetime"
	"github.com/dbsmedya/jsontables/internal/discovery"
	"github.com/dbsmedya/jsontables/internal/flatten"
	"github.com/dbsmedya/jsontables/internal/jsonvalue"
	"github.com/dbsmedya/jsontables/internal/logger"
	"github.com/dbsmedya/jsontables/internal/types"
	"github.com/dbsmedya/jsontables/internal/writer"
)

var (
	// ErrNothingToTabulate is returned when the document is a bare scalar.
	ErrNothingToTabulate = errors.New("document holds no tabular data")
	// ErrInputTooLarge is returned when the input exceeds input.max_size.
	ErrInputTooLarge = errors.New("input file exceeds size limit")
)

// Fallback policies applied when discovery finds no table.
const (
	FallbackWrap = "wrap"
	FallbackNone = "none"
)

// Result contains statistics and status of a conversion.
type Result struct {
	InputPath   string
	Format      writer.Format
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Fallback    bool     // the root table was synthesized
	Outputs     []string // files written or database location
	Tables      []types.TableSummary
	DateColumns map[string][]string // table name -> converted columns
	Rows        int64
	Stats       types.DiscoveryStats
}

// Option configures a Converter.
type Option func(*Converter)

// WithFs sets the file system used for input and file outputs.
func WithFs(fs afero.Fs) Option {
	return func(c *Converter) { c.fs = fs }
}

// WithClock sets the clock used for output timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *Converter) { c.clock = clock }
}

// WithSink replaces the sink selected by output.format.
func WithSink(sink writer.Sink) Option {
	return func(c *Converter) { c.sink = sink }
}

// Converter runs conversions for one configuration.
type Converter struct {
	cfg    *config.Config
	format writer.Format
	naming discovery.NamingMode
	logger *logger.Logger
	fs     afero.Fs
	clock  func() time.Time
	sink   writer.Sink
}

// New creates a Converter. A nil logger discards output.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) (*Converter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	format, err := writer.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	naming, err := discovery.ParseNamingMode(cfg.Conversion.NamingMode)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	c := &Converter{
		cfg:    cfg,
		format: format,
		naming: naming,
		logger: log,
		fs:     afero.NewOsFs(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Format returns the output format of the converter.
func (c *Converter) Format() writer.Format {
	return c.format
}

// Load reads and decodes the input document.
func (c *Converter) Load(path string) (*jsonvalue.Value, error) {
	info, err := c.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("failed to read input: %s is not a regular file", path)
	}

	limit, err := c.cfg.Input.MaxInputBytes()
	if err != nil {
		return nil, err
	}
	if limit > 0 && uint64(info.Size()) > limit {
		return nil, fmt.Errorf("%w: %s is %s, limit is %s", ErrInputTooLarge, path,
			datasize.ByteSize(info.Size()).HumanReadable(), datasize.ByteSize(limit).HumanReadable())
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	defer f.Close()

	doc, err := jsonvalue.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	c.logger.Debugw("Loaded input", "file", path, "bytes", info.Size(), "root", doc.Kind().String())
	return doc, nil
}

// EngineOptions returns the discovery options for the configured format.
func (c *Converter) EngineOptions() discovery.Options {
	opts := discovery.Options{
		IncludeEmpty:  c.cfg.Conversion.IncludeEmptyArrays,
		Naming:        c.naming,
		Style:         c.format.NameStyle(),
		MaxNameLength: c.cfg.NameLength(),
		GroupSiblings: c.cfg.Conversion.GroupSiblings,
		SampleSize:    c.cfg.Conversion.SchemaSampleSize,
	}
	if c.format == writer.FormatXLSX && c.cfg.Spreadsheet.Summary {
		opts.Reserved = []string{writer.SummarySheet}
	}
	return opts
}

// Discover finds the tables of doc. When none is found the fallback policy
// applies; the returned flag reports whether the root table was synthesized.
func (c *Converter) Discover(doc *jsonvalue.Value) (*types.TableSet, bool, error) {
	set := discovery.NewEngine(c.EngineOptions(), c.logger).Discover(doc)
	if set.Len() > 0 || c.cfg.Conversion.Fallback == FallbackNone {
		return set, false, nil
	}

	var rows []*jsonvalue.Value
	switch doc.Kind() {
	case jsonvalue.KindArray:
		rows = doc.Items()
	case jsonvalue.KindObject:
		rows = []*jsonvalue.Value{doc}
	default:
		return nil, false, fmt.Errorf("%w: root is a %s", ErrNothingToTabulate, doc.Kind())
	}

	root := &types.Table{
		Name: discovery.Sanitize(discovery.RootName, c.format.NameStyle(), c.cfg.NameLength()),
		Rows: rows,
	}
	if err := set.Add(root); err != nil {
		return nil, false, err
	}
	set.Stats.TablesFound = set.Len()
	set.Stats.RowsFound = set.TotalRows()

	c.logger.Infow("No tables discovered, wrapping the document root", "table", root.Name, "rows", len(rows))
	return set, true, nil
}

// Tabulate flattens every table of set and runs the datetime pass when
// enabled. It returns the tables and the date columns per table.
func (c *Converter) Tabulate(set *types.TableSet) ([]*writer.Named, map[string][]string) {
	tables := make([]*writer.Named, 0, set.Len())
	dates := make(map[string][]string)

	for _, t := range set.Tables() {
		ft := flatten.Flatten(t.Rows)
		if c.cfg.Dates.Enabled {
			if converted := datetime.Convert(ft, c.cfg.Dates.MinRatio); len(converted) > 0 {
				dates[t.Name] = converted
				c.logger.WithTable(t.Name).Debugw("Converted date columns", "columns", converted)
			}
		}
		tables = append(tables, &writer.Named{Name: t.Name, Path: t.Path, Table: ft})
	}
	return tables, dates
}

// Inspect loads, discovers and flattens the input without writing anything.
func (c *Converter) Inspect(path string) (*Result, []*writer.Named, error) {
	result := &Result{
		InputPath: path,
		Format:    c.format,
		StartedAt: time.Now(),
	}

	doc, err := c.Load(path)
	if err != nil {
		return nil, nil, err
	}
	set, fallback, err := c.Discover(doc)
	if err != nil {
		return nil, nil, err
	}
	tables, dates := c.Tabulate(set)

	result.Fallback = fallback
	result.Stats = set.Stats
	result.DateColumns = dates
	for _, t := range tables {
		result.Tables = append(result.Tables, t.Summary())
		result.Rows += int64(t.Table.RowCount())
	}
	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
	return result, tables, nil
}

// Run converts the document at path and writes it with the configured sink.
func (c *Converter) Run(ctx context.Context, path string) (*Result, error) {
	log := c.logger.WithFile(path).WithFormat(string(c.format))
	log.Info("Starting conversion")

	result, tables, err := c.Inspect(path)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		log.Warn("No tables to write")
		return result, nil
	}

	sink, err := c.newSink()
	if err != nil {
		return nil, err
	}
	report, err := sink.Write(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to write %s output: %w", c.format, err)
	}

	result.Outputs = report.Outputs
	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	log.Infow("Conversion complete",
		"tables", len(result.Tables),
		"rows", result.Rows,
		"outputs", result.Outputs,
		"duration", result.Duration,
	)
	return result, nil
}

func (c *Converter) newSink() (writer.Sink, error) {
	if c.sink != nil {
		return c.sink, nil
	}
	s := writer.SettingsFromConfig(c.cfg, c.logger)
	s.Fs = c.fs
	s.Clock = c.clock
	return writer.New(c.format, s)
}

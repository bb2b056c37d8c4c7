package writer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"

	"github.com/dbsmedya/jsontables/internal/jsonvalue"
	"github.com/dbsmedya/jsontables/internal/types"
)

// SummarySheet is the name of the sheet listing every table.
const SummarySheet = "__summary__"

// Column width bounds applied by autofit, in characters.
const (
	minColumnWidth = 10
	maxColumnWidth = 60
	autofitRows    = 2000
)

// Excel built-in number formats.
const (
	numFmtDate     = 14 // m/d/yyyy
	numFmtDateTime = 22 // m/d/yyyy h:mm
)

// maxExactInt is the largest integer a spreadsheet number holds exactly.
const maxExactInt = 1 << 53

// XLSXWriter writes all tables into one workbook, one sheet per table.
type XLSXWriter struct {
	settings Settings
}

// NewXLSXWriter creates a workbook sink.
func NewXLSXWriter(s Settings) *XLSXWriter {
	return &XLSXWriter{settings: s.withDefaults()}
}

// Write writes <base>_<ts>.xlsx. Sheet names are the table names.
func (w *XLSXWriter) Write(ctx context.Context, tables []*Named) (*Report, error) {
	startTime := time.Now()
	report := &Report{Format: FormatXLSX}
	if len(tables) == 0 {
		return report, nil
	}
	for _, t := range tables {
		if err := checkSheetSize(t); err != nil {
			return nil, err
		}
	}
	if err := w.settings.ensureDir(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("xlsx write interrupted: %w", err)
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return nil, fmt.Errorf("failed to name sheet %q: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", t.Name, err)
		}

		if err := w.writeSheet(f, t); err != nil {
			return nil, fmt.Errorf("failed to write sheet %q: %w", t.Name, err)
		}
		w.settings.Logger.WithTable(t.Name).Debugw("Wrote sheet", "rows", t.Table.RowCount(), "cols", t.Table.ColumnCount())
		report.add(t)
	}

	if w.settings.Spreadsheet.Summary {
		if err := w.writeSummary(f, report.Tables); err != nil {
			return nil, fmt.Errorf("failed to write summary sheet: %w", err)
		}
	}
	f.SetActiveSheet(0)

	path := w.settings.path(".xlsx", w.settings.BaseName, w.settings.stamp())
	if err := w.save(f, path); err != nil {
		return nil, err
	}

	report.Outputs = append(report.Outputs, path)
	report.Duration = time.Since(startTime)
	return report, nil
}

func checkSheetSize(t *Named) error {
	rows, cols := t.Table.RowCount()+1, t.Table.ColumnCount()
	if rows > excelize.TotalRows || cols > excelize.MaxColumns {
		return fmt.Errorf("%w: table %s has %d rows and %d columns, the limit is %d x %d",
			ErrSheetTooLarge, t.Name, rows-1, cols, excelize.TotalRows-1, excelize.MaxColumns)
	}
	return nil
}

func (w *XLSXWriter) save(f *excelize.File, path string) (err error) {
	out, err := w.settings.Fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook %s: %w", path, cerr)
		}
	}()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook %s: %w", path, err)
	}
	return nil
}

func (w *XLSXWriter) writeSheet(f *excelize.File, t *Named) error {
	sheet := t.Name
	cols := t.Table.Columns()
	rows := t.Table.RowCount()

	header := make([]interface{}, len(cols))
	for j, c := range cols {
		header[j] = c.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			row[j] = cellValue(c, i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if err := applyDateStyles(f, sheet, cols, rows); err != nil {
		return err
	}
	return w.decorate(f, sheet, rows, len(cols), func(j int) []string {
		return columnSample(cols[j], rows)
	})
}

// decorate applies autofit, frozen header and filters as configured.
func (w *XLSXWriter) decorate(f *excelize.File, sheet string, rows, cols int, sample func(j int) []string) error {
	opts := w.settings.Spreadsheet

	if opts.Autofit {
		for j := 0; j < cols; j++ {
			name, err := excelize.ColumnNumberToName(j + 1)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(sheet, name, name, columnWidth(sample(j))); err != nil {
				return err
			}
		}
	}

	if opts.Freeze && rows > 0 {
		err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
		if err != nil {
			return err
		}
	}

	if opts.Filters && rows > 0 && cols > 0 {
		last, err := excelize.CoordinatesToCellName(cols, rows+1)
		if err != nil {
			return err
		}
		if err := f.AutoFilter(sheet, "A1:"+last, nil); err != nil {
			return err
		}
	}
	return nil
}

func applyDateStyles(f *excelize.File, sheet string, cols []*types.Column, rows int) error {
	if rows == 0 {
		return nil
	}
	styles := map[int]int{}
	for j, c := range cols {
		if !c.IsDate() {
			continue
		}
		numFmt := numFmtDateTime
		if c.DateOnly() {
			numFmt = numFmtDate
		}
		style, ok := styles[numFmt]
		if !ok {
			var err error
			if style, err = f.NewStyle(&excelize.Style{NumFmt: numFmt}); err != nil {
				return err
			}
			styles[numFmt] = style
		}

		top, err := excelize.CoordinatesToCellName(j+1, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(j+1, rows+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, top, bottom, style); err != nil {
			return err
		}
	}
	return nil
}

func (w *XLSXWriter) writeSummary(f *excelize.File, tables []types.TableSummary) error {
	sorted := make([]types.TableSummary, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Name < sorted[b].Name })

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	grid := [][]string{{"sheet", "rows", "cols", "source_path"}}
	header := []interface{}{"sheet", "rows", "cols", "source_path"}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return err
	}
	for i, s := range sorted {
		row := []interface{}{s.Name, s.Rows, s.Cols, s.Path}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
		grid = append(grid, []string{s.Name, strconv.Itoa(s.Rows), strconv.Itoa(s.Cols), s.Path})
	}

	return w.decorate(f, SummarySheet, len(sorted), len(header), func(j int) []string {
		out := make([]string, len(grid))
		for i, r := range grid {
			out[i] = r[j]
		}
		return out
	})
}

// columnSample returns the header and the leading cells used for autofit.
func columnSample(c *types.Column, rows int) []string {
	n := rows
	if n > autofitRows {
		n = autofitRows
	}
	out := make([]string, 0, n+1)
	out = append(out, c.Name)
	for i := 0; i < n; i++ {
		out = append(out, c.Text(i))
	}
	return out
}

func columnWidth(texts []string) float64 {
	widest := 0
	for _, s := range texts {
		if w := runewidth.StringWidth(s); w > widest {
			widest = w
		}
	}
	width := widest + 2
	if width < minColumnWidth {
		width = minColumnWidth
	}
	if width > maxColumnWidth {
		width = maxColumnWidth
	}
	return float64(width)
}

// cellValue converts cell i of c into a value excelize stores natively.
func cellValue(c *types.Column, i int) interface{} {
	if c.IsMissing(i) {
		return nil
	}
	if c.IsDate() {
		return c.Dates[i]
	}

	v := c.Cells[i]
	switch v.Kind() {
	case jsonvalue.KindBool:
		return v.BoolValue()
	case jsonvalue.KindNumber:
		if n, ok := v.Int64(); ok {
			if n > -maxExactInt && n < maxExactInt {
				return n
			}
			return v.Text()
		}
		if fl, ok := v.Float64(); ok {
			return fl
		}
		return v.Text()
	}
	return truncateCell(v.CellString())
}

func truncateCell(s string) string {
	if len(s) <= excelize.TotalCellChars {
		return s
	}
	runes := []rune(s)
	if len(runes) <= excelize.TotalCellChars {
		return s
	}
	return string(runes[:excelize.TotalCellChars])
}

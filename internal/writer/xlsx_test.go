package writer

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dbsmedya/jsontables/internal/config"
	"github.com/dbsmedya/jsontables/internal/datetime"
	"github.com/dbsmedya/jsontables/internal/jsonvalue"
	"github.com/dbsmedya/jsontables/internal/types"
)

func openWorkbook(t *testing.T, fs afero.Fs, path string) *excelize.File {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func xlsxSettings(fs afero.Fs, sheet config.SpreadsheetConfig) Settings {
	s := testSettings(fs, "out")
	s.Spreadsheet = sheet
	return s
}

func TestXLSXWriter_Sheets(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewXLSXWriter(xlsxSettings(fs, config.SpreadsheetConfig{Summary: true}))

	people := named(t, "people", `[{"id":1,"name":"a"},{"id":2,"name":"b"}]`)
	people.Path = "data.people"
	orders := named(t, "orders", `[{"sku":"x","qty":3}]`)

	report, err := w.Write(context.Background(), []*Named{people, orders})
	require.NoError(t, err)

	path := "out/data_20240102_030405.xlsx"
	assert.Equal(t, []string{path}, report.Outputs)
	assert.Equal(t, int64(3), report.Rows)

	f := openWorkbook(t, fs, path)
	assert.Equal(t, []string{"people", "orders", SummarySheet}, f.GetSheetList())
	assert.Equal(t, 0, f.GetActiveSheetIndex())

	rows, err := f.GetRows("people")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id", "name"}, {"1", "a"}, {"2", "b"}}, rows)

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"sheet", "rows", "cols", "source_path"},
		{"orders", "1", "2", "orders"},
		{"people", "2", "2", "data.people"},
	}, summary)
}

func TestXLSXWriter_NoSummary(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewXLSXWriter(xlsxSettings(fs, config.SpreadsheetConfig{}))

	report, err := w.Write(context.Background(), []*Named{named(t, "Sheet1", `[{"a":1}]`)})
	require.NoError(t, err)

	f := openWorkbook(t, fs, report.Outputs[0])
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}

func TestXLSXWriter_CellTypes(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewXLSXWriter(xlsxSettings(fs, config.SpreadsheetConfig{}))

	tbl := named(t, "t", `[
		{"n":42,"f":1.5,"big":9007199254740993,"s":"text","tags":[1,2],"when":"2020-01-15","at":"2020-01-15T10:30:00Z"},
		{"n":7,"when":"2020-01-16","at":"2020-01-16T11:00:00Z"}
	]`)
	require.ElementsMatch(t, []string{"when", "at"}, datetime.Convert(tbl.Table, 0.5))

	report, err := w.Write(context.Background(), []*Named{tbl})
	require.NoError(t, err)
	f := openWorkbook(t, fs, report.Outputs[0])

	raw := excelize.Options{RawCellValue: true}
	cell := func(ref string) string {
		v, err := f.GetCellValue("t", ref, raw)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "42", cell("A2"))
	assert.Equal(t, "1.5", cell("B2"))
	assert.Equal(t, "9007199254740993", cell("C2"))
	assert.Equal(t, "text", cell("D2"))
	assert.Equal(t, "[1,2]", cell("E2"))
	assert.Equal(t, "43845", cell("F2"))
	assert.Equal(t, "", cell("B3"))

	typ, err := f.GetCellType("t", "A2")
	require.NoError(t, err)
	assert.Equal(t, excelize.CellTypeUnset, typ)

	typ, err = f.GetCellType("t", "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeUnset, typ, "large integers are stored as text")

	dateStyle := func(ref string) int {
		id, err := f.GetCellStyle("t", ref)
		require.NoError(t, err)
		style, err := f.GetStyle(id)
		require.NoError(t, err)
		return style.NumFmt
	}
	assert.Equal(t, numFmtDate, dateStyle("F2"))
	assert.Equal(t, numFmtDate, dateStyle("F3"))
	assert.Equal(t, numFmtDateTime, dateStyle("G2"))
}

func TestXLSXWriter_Decorations(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewXLSXWriter(xlsxSettings(fs, config.SpreadsheetConfig{Autofit: true, Freeze: true, Filters: true}))

	long := strings.Repeat("x", 80)
	tbl := named(t, "people", `[{"id":1,"name":"`+long+`","city":"Amsterdam Centraal"}]`)

	report, err := w.Write(context.Background(), []*Named{tbl})
	require.NoError(t, err)
	f := openWorkbook(t, fs, report.Outputs[0])

	panes, err := f.GetPanes("people")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
	assert.Equal(t, "A2", panes.TopLeftCell)

	width := func(col string) float64 {
		w, err := f.GetColWidth("people", col)
		require.NoError(t, err)
		return w
	}
	assert.Equal(t, float64(minColumnWidth), width("A"))
	assert.Equal(t, float64(maxColumnWidth), width("B"))
	assert.Equal(t, float64(len("Amsterdam Centraal")+2), width("C"))

	found := false
	for _, dn := range f.GetDefinedName() {
		if dn.Name == "_xlnm._FilterDatabase" && dn.Scope == "people" {
			found = true
		}
	}
	assert.True(t, found, "autofilter should be defined on the sheet")
}

func TestXLSXWriter_EmptyTableSkipsFreeze(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewXLSXWriter(xlsxSettings(fs, config.SpreadsheetConfig{Freeze: true, Filters: true}))

	empty := &Named{Name: "empty", Path: "empty", Table: types.NewFlatTable(0)}
	report, err := w.Write(context.Background(), []*Named{empty})
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.Rows)

	f := openWorkbook(t, fs, report.Outputs[0])
	panes, err := f.GetPanes("empty")
	require.NoError(t, err)
	assert.False(t, panes.Freeze)
	assert.Empty(t, f.GetDefinedName())
}

func TestXLSXWriter_NoTables(t *testing.T) {
	fs := afero.NewMemMapFs()
	report, err := NewXLSXWriter(xlsxSettings(fs, config.SpreadsheetConfig{Summary: true})).Write(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Outputs)
}

func TestXLSXWriter_TooManyColumns(t *testing.T) {
	tbl := types.NewFlatTable(0)
	for i := 0; i <= excelize.MaxColumns; i++ {
		require.NoError(t, tbl.AddColumn("c"+strconv.Itoa(i), []*jsonvalue.Value{}))
	}

	fs := afero.NewMemMapFs()
	_, err := NewXLSXWriter(xlsxSettings(fs, config.SpreadsheetConfig{})).Write(context.Background(),
		[]*Named{{Name: "wide", Path: "wide", Table: tbl}})
	assert.ErrorIs(t, err, ErrSheetTooLarge)
}

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, float64(10), columnWidth([]string{"a"}))
	assert.Equal(t, float64(14), columnWidth([]string{"a", "twelve chars"}))
	assert.Equal(t, float64(60), columnWidth([]string{strings.Repeat("z", 100)}))
	// Wide runes count double.
	assert.Equal(t, float64(22), columnWidth([]string{strings.Repeat("日", 10)}))
}

func TestTruncateCell(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, truncateCell(short))

	long := strings.Repeat("é", excelize.TotalCellChars+10)
	got := truncateCell(long)
	assert.Equal(t, excelize.TotalCellChars, len([]rune(got)))
}

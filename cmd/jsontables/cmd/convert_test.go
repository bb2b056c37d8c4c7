package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersDoc = `{
	"store": "north",
	"orders": [
		{"id": 1, "placed": "2024-03-01", "customer": {"name": "Ada"},
		 "lines": [{"sku": "A1", "qty": 2}, {"sku": "B2", "qty": 1}]},
		{"id": 2, "placed": "2024-03-02", "customer": {"name": "Lin"},
		 "lines": [{"sku": "A1", "qty": 5}]}
	]
}`

// resetConvertFlags restores every convert flag after a test.
func resetConvertFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		convertFormat, convertOut, convertBaseName, convertNaming = "", "", "", ""
		convertIncludeEmpty, convertGroupSiblings = false, false
		convertAutofit, convertFreeze, convertFilters = false, false, false
		convertNoDates, convertNoTimestamp = false, false
	})
}

func TestConvertCommandStructure(t *testing.T) {
	assert.Equal(t, "convert <file.json>", convertCmd.Use)
	assert.NotEmpty(t, convertCmd.Short)
	assert.Contains(t, convertCmd.Long, "Example:")
	assert.Contains(t, convertCmd.Long, "jsontables convert")
	assert.NotNil(t, convertCmd.RunE)
	assert.Error(t, convertCmd.Args(convertCmd, nil))
	assert.NoError(t, convertCmd.Args(convertCmd, []string{"a.json"}))
}

func TestConvertCommandFlags(t *testing.T) {
	flags := convertCmd.Flags()

	for _, name := range []string{
		"format", "out", "base-name", "naming", "include-empty", "group-siblings",
		"autofit", "freeze", "filters", "no-dates", "no-timestamp",
	} {
		assert.NotNil(t, flags.Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "f", flags.Lookup("format").Shorthand)
	assert.Equal(t, "o", flags.Lookup("out").Shorthand)
}

func TestConvertOverrides(t *testing.T) {
	resetConvertFlags(t)

	convertFormat = "csv"
	convertOut = "reports"
	convertBaseName = "orders"
	convertNaming = "full"
	convertFreeze = true
	convertNoDates = true

	o := convertOverrides()
	assert.Equal(t, "csv", o.Format)
	assert.Equal(t, "reports", o.OutputDir)
	assert.Equal(t, "orders", o.BaseName)
	assert.Equal(t, "full", o.NamingMode)
	assert.True(t, o.Freeze)
	assert.True(t, o.NoDates)
	assert.False(t, o.Filters)
	assert.False(t, o.NoTimestamp)
}

func TestRunConvert_CSV(t *testing.T) {
	resetConvertFlags(t)
	outDir := t.TempDir()
	useConfig(t, map[string]interface{}{
		"output":  map[string]interface{}{"format": "xlsx", "dir": "ignored", "base_name": "shop"},
		"logging": quietLogging(),
	})
	input := writeInput(t, ordersDoc)

	convertFormat = "csv"
	convertOut = outDir
	convertNoTimestamp = true

	c, buf := testCommand()
	require.NoError(t, runConvert(c, []string{input}))

	data, err := os.ReadFile(filepath.Join(outDir, "shop_orders.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "id,placed,customer.name,lines\n")
	assert.Contains(t, string(data), "\n1,2024-03-01,Ada,")
	assert.Contains(t, string(data), "\n2,2024-03-02,Lin,")

	data, err = os.ReadFile(filepath.Join(outDir, "shop_lines.csv"))
	require.NoError(t, err)
	assert.Equal(t, "sku,qty\nA1,2\nB2,1\n", string(data))

	// The second order's lines are a table of their own.
	data, err = os.ReadFile(filepath.Join(outDir, "shop_lines_2.csv"))
	require.NoError(t, err)
	assert.Equal(t, "sku,qty\nA1,5\n", string(data))

	out := buf.String()
	assert.Contains(t, out, "Conversion: "+input)
	assert.Contains(t, out, "orders: placed")
	assert.Contains(t, out, filepath.Join(outDir, "shop_orders.csv"))
	assert.Contains(t, out, "Wrote 3 table(s), 5 row(s)")
}

func TestRunConvert_XLSX(t *testing.T) {
	resetConvertFlags(t)
	outDir := t.TempDir()
	useConfig(t, map[string]interface{}{"logging": quietLogging()})
	input := writeInput(t, ordersDoc)

	convertFormat = "xlsx"
	convertOut = outDir
	convertBaseName = "shop"
	convertNoTimestamp = true
	convertFreeze = true
	convertFilters = true

	c, _ := testCommand()
	require.NoError(t, runConvert(c, []string{input}))

	_, err := os.Stat(filepath.Join(outDir, "shop.xlsx"))
	assert.NoError(t, err)
}

func TestRunConvert_SQLite(t *testing.T) {
	resetConvertFlags(t)
	outDir := t.TempDir()
	useConfig(t, map[string]interface{}{"logging": quietLogging()})
	input := writeInput(t, ordersDoc)

	convertFormat = "sqlite"
	convertOut = outDir
	convertBaseName = "shop"
	convertNoTimestamp = true

	c, buf := testCommand()
	require.NoError(t, runConvert(c, []string{input}))

	_, err := os.Stat(filepath.Join(outDir, "shop.db"))
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Wrote 3 table(s)")
}

func TestRunConvert_InvalidJSON(t *testing.T) {
	resetConvertFlags(t)
	useConfig(t, map[string]interface{}{"logging": quietLogging()})
	input := writeInput(t, `{"orders": [`)

	convertFormat = "csv"
	convertOut = t.TempDir()

	c, buf := testCommand()
	err := runConvert(c, []string{input})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
	assert.Contains(t, buf.String(), "Conversion failed")
}

func TestRunConvert_InvalidFlag(t *testing.T) {
	resetConvertFlags(t)
	useConfig(t, map[string]interface{}{"logging": quietLogging()})
	input := writeInput(t, ordersDoc)

	convertFormat = "parquet"

	c, _ := testCommand()
	err := runConvert(c, []string{input})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
}

func TestRunConvert_ScalarDocument(t *testing.T) {
	resetConvertFlags(t)
	useConfig(t, map[string]interface{}{"logging": quietLogging()})
	input := writeInput(t, `"just a string"`)

	convertFormat = "csv"
	convertOut = t.TempDir()

	c, _ := testCommand()
	err := runConvert(c, []string{input})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tabular data")
}

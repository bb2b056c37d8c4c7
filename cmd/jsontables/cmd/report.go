package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/jsontables/internal/converter"
	"github.com/dbsmedya/jsontables/internal/types"
)

const rootPathLabel = "(root)"

// printHeader prints a formatted header
func printHeader(w io.Writer, format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := runewidth.StringWidth(title) + 4
	fmt.Fprintln(w, strings.Repeat("=", width))
	fmt.Fprintf(w, "  %s\n", color.Bold.Sprint(title))
	fmt.Fprintln(w, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "[%s]\n", color.Cyan.Sprint(title))
	fmt.Fprintln(w, strings.Repeat("-", runewidth.StringWidth(title)+2))
}

func printSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", color.Green.Sprint("✓"), fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", color.Yellow.Sprint("!"), fmt.Sprintf(format, args...))
}

func printFailure(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", color.Red.Sprint("✗"), fmt.Sprintf(format, args...))
}

// printTableList prints one aligned line per table.
func printTableList(w io.Writer, tables []types.TableSummary) {
	rows := [][]string{{"NAME", "ROWS", "COLS", "PATH"}}
	for _, t := range tables {
		path := t.Path
		if path == "" {
			path = rootPathLabel
		}
		rows = append(rows, []string{t.Name, strconv.Itoa(t.Rows), strconv.Itoa(t.Cols), path})
	}
	printColumns(w, rows, 2)
}

// printColumns left-aligns cells by display width, so CJK names line up.
func printColumns(w io.Writer, rows [][]string, gap int) {
	var widths []int
	for _, row := range rows {
		for j, cell := range row {
			if j >= len(widths) {
				widths = append(widths, 0)
			}
			if cw := runewidth.StringWidth(cell); cw > widths[j] {
				widths[j] = cw
			}
		}
	}

	pad := strings.Repeat(" ", gap)
	for _, row := range rows {
		var sb strings.Builder
		sb.WriteString("  ")
		for j, cell := range row {
			if j == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[j]))
			sb.WriteString(pad)
		}
		fmt.Fprintln(w, sb.String())
	}
}

// printDateColumns lists converted date columns in table order.
func printDateColumns(w io.Writer, tables []types.TableSummary, dates map[string][]string) {
	if len(dates) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	seen := make(map[string]bool, len(dates))
	for _, t := range tables {
		if cols, ok := dates[t.Name]; ok {
			fmt.Fprintf(w, "  %s: %s\n", t.Name, strings.Join(cols, ", "))
			seen[t.Name] = true
		}
	}
	var rest []string
	for name := range dates {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		fmt.Fprintf(w, "  %s: %s\n", name, strings.Join(dates[name], ", "))
	}
}

// printResult prints the report of a conversion or an inspection.
func printResult(w io.Writer, title string, result *converter.Result) {
	printHeader(w, "%s: %s", title, result.InputPath)

	fmt.Fprintln(w)
	printSection(w, "Overview")
	fmt.Fprintf(w, "  Format:        %s\n", result.Format)
	fmt.Fprintf(w, "  Tables:        %d\n", len(result.Tables))
	fmt.Fprintf(w, "  Rows:          %d\n", result.Rows)
	fmt.Fprintf(w, "  Nodes Visited: %d\n", result.Stats.NodesVisited)
	fmt.Fprintf(w, "  Max Depth:     %d\n", result.Stats.MaxDepth)
	fmt.Fprintf(w, "  Duration:      %s\n", result.Duration.Round(time.Microsecond))
	if result.Fallback {
		printWarning(w, "No arrays of objects found, the document root was wrapped as a table")
	}

	if len(result.Tables) == 0 {
		fmt.Fprintln(w)
		printWarning(w, "No tables found")
		return
	}

	fmt.Fprintln(w)
	printSection(w, "Tables")
	printTableList(w, result.Tables)

	fmt.Fprintln(w)
	printSection(w, "Date Columns")
	printDateColumns(w, result.Tables, result.DateColumns)

	if len(result.Outputs) > 0 {
		fmt.Fprintln(w)
		printSection(w, "Outputs")
		for _, out := range result.Outputs {
			fmt.Fprintf(w, "  %s\n", out)
		}
	}
}

package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/malbeclabs/jvlake/inspector/pkg/identifier"
)

// NotAvailable marks a value that could not be resolved.
const NotAvailable = "N/A"

var subFieldLabels = map[string]string{
	identifier.JyoCD:   "Venue code",
	identifier.Kaiji:   "Meeting",
	identifier.Nichiji: "Day",
	identifier.RaceNum: "Race number",
}

// Render writes res to w as plain text lines.
func Render(w io.Writer, res Result) error {
	bw := bufio.NewWriter(w)
	switch res.Outcome {
	case OutcomeSchemaDiagnostic:
		renderDiagnostic(bw, res)
	default:
		renderReport(bw, res)
	}
	return bw.Flush()
}

func renderReport(w io.Writer, res Result) {
	fmt.Fprintf(w, "Recent races by %s (%d of %d rows):\n", res.DateColumn, len(res.Records), res.TotalRows)
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, rec := range res.Records {
		fmt.Fprintf(w, "Date: %s\n", FormatValue(rec.Date, rec.HasDate))
		for _, f := range rec.Identifier.Fields {
			fmt.Fprintf(w, "  %s: %s\n", subFieldLabels[f.Name], FormatValue(f.Value, f.Present))
		}
		if res.NameColumn != "" {
			fmt.Fprintf(w, "  Race name: %s\n", FormatValue(rec.Name, rec.HasName))
		}
		fmt.Fprintln(w, strings.Repeat("-", 40))
	}
}

func renderDiagnostic(w io.Writer, res Result) {
	fmt.Fprintf(w, "No date column found (looked for %s); inspecting the table layout:\n", strings.Join(res.LookedForDates, ", "))
	fmt.Fprintf(w, "Columns (%d): %s\n", len(res.Columns), strings.Join(res.Columns, ", "))
	if res.FirstRow == nil {
		fmt.Fprintln(w, "First row: <table is empty>")
		return
	}
	parts := make([]string, 0, len(res.Columns))
	for _, col := range res.Columns {
		v, ok := res.FirstRow.Get(col)
		parts = append(parts, fmt.Sprintf("%s=%s", col, FormatValue(v, ok)))
	}
	fmt.Fprintf(w, "First row: {%s}\n", strings.Join(parts, ", "))
}

// FormatValue renders a cell value, or NotAvailable when it is absent. Dates at midnight UTC
// render without a time component.
func FormatValue(v any, present bool) string {
	if !present || v == nil {
		return NotAvailable
	}
	switch x := v.(type) {
	case time.Time:
		if x.Equal(x.Truncate(24 * time.Hour)) {
			return x.UTC().Format(time.DateOnly)
		}
		return x.UTC().Format(time.RFC3339)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/aegis-screen/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// PrintHeader prints a formatted title block with key/value lines
func PrintHeader(w io.Writer, title string, fields [][2]string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, singleLine)
	for _, kv := range fields {
		fmt.Fprintf(w, "  %-10s: %s\n", kv[0], kv[1])
	}
	fmt.Fprintln(w, singleLine)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintRanking prints ranked rows as a table: #, code, total rank, then value/rank per factor
func PrintRanking(w io.Writer, ranking *contracts.Ranking) {
	columns := []string{"#", "code", "total"}
	widths := []int{4, 10, 7}
	for _, f := range ranking.Factors {
		columns = append(columns, f, f+" rank")
		widths = append(widths, max(12, len(f)), max(8, len(f)+5))
	}

	PrintTableHeader(w, columns, widths)
	for i, row := range ranking.Rows {
		values := []string{strconv.Itoa(i + 1), row.Code, formatFloat(row.TotalRank)}
		for _, f := range ranking.Factors {
			if f == "fscore" {
				values = append(values, formatFScore(row.FScore), "")
				continue
			}
			values = append(values, formatFloat(lookup(row.Values, f)), formatFloat(lookup(row.Ranks, f)))
		}
		PrintTableRow(w, values, widths)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d rows\n", ranking.Len())
}

// PrintQuality prints one coverage snapshot
func PrintQuality(w io.Writer, snap *contracts.DataQualitySnapshot) {
	status := "PASS"
	if !snap.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(w, "  [%s] %s %s  score=%.2f  complete=%d/%d\n",
		status, snap.Source, snap.Period, snap.QualityScore, snap.ValidStocks, snap.TotalStocks)

	metrics := make([]string, 0, len(snap.Coverage))
	for m := range snap.Coverage {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)
	for _, m := range metrics {
		PrintKeyValue(w, m, fmt.Sprintf("%.1f%%", snap.Coverage[m]*100), 14)
	}
	for _, f := range snap.Failures {
		PrintWarning(w, f)
	}
}

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func lookup(m map[string]float64, key string) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return math.NaN()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	s := strconv.FormatFloat(v, 'f', 4, 64)
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}

func formatFScore(s *contracts.FScore) string {
	if s == nil {
		return "-"
	}
	return strconv.Itoa(s.Total)
}

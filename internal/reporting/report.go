package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/spboyer/promptlab/internal/models"
)

// RenderText formats an aggregated report for terminal output. Metrics print
// in lexical order so runs are comparable line by line.
func RenderText(report models.AggregatedReport) string {
	var b strings.Builder

	b.WriteString("=== Evaluation Report ===\n\n")
	b.WriteString(fmt.Sprintf("Total runs: %d\n", report.TotalRuns))

	if len(report.Metrics) == 0 {
		b.WriteString("No metrics to report.\n")
		return b.String()
	}

	names := make([]string, 0, len(report.Metrics))
	nameWidth := 0
	for name := range report.Metrics {
		names = append(names, name)
		if w := runewidth.StringWidth(name); w > nameWidth {
			nameWidth = w
		}
	}
	sort.Strings(names)

	b.WriteString("\n")
	for _, name := range names {
		agg := report.Metrics[name]
		label := runewidth.FillRight(name, nameWidth)

		switch agg.Kind {
		case models.MetricNumber:
			writeNumeric(&b, label, agg.Numeric)
		case models.MetricBoolean:
			writeBoolean(&b, label, agg.Boolean)
		default:
			writeStrings(&b, label, agg.Strings)
		}
	}

	return b.String()
}

func writeNumeric(b *strings.Builder, label string, num *models.NumericSummary) {
	b.WriteString(fmt.Sprintf("%s  n=%d avg=%.2f min=%.2f max=%.2f median=%.2f p90=%.2f\n",
		label, num.Count, num.Avg, num.Min, num.Max, num.Median, num.P90))

	if num.CI != nil {
		b.WriteString(fmt.Sprintf("%s  95%% CI [%.2f, %.2f]\n",
			strings.Repeat(" ", runewidth.StringWidth(label)), num.CI.Lower, num.CI.Upper))
	}

	b.WriteString(fmt.Sprintf("%s  histogram: %s\n",
		strings.Repeat(" ", runewidth.StringWidth(label)), formatDistribution(num.Histogram)))
}

func writeBoolean(b *strings.Builder, label string, sum *models.BooleanSummary) {
	b.WriteString(fmt.Sprintf("%s  n=%d true=%d false=%d\n", label, sum.Count, sum.True, sum.False))
}

func writeStrings(b *strings.Builder, label string, sum *models.StringSummary) {
	b.WriteString(fmt.Sprintf("%s  n=%d %s\n", label, sum.Count, formatDistribution(sum.Distribution)))
}

// formatDistribution renders value:count pairs sorted by key for stable
// output.
func formatDistribution(dist map[string]int) string {
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, dist[k]))
	}
	return strings.Join(parts, " ")
}

// WriteJSON writes the report as indented JSON, creating parent directories
// as needed.
func WriteJSON(path string, report models.AggregatedReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

package aggregate

import (
	"encoding/json"
	"sort"

	"github.com/mattn/go-runewidth"

	"github.com/spboyer/promptlab/internal/models"
	"github.com/spboyer/promptlab/internal/statistics"
)

// maxDistributionKeyWidth bounds string distribution keys so free-text values
// accidentally routed to a string field cannot explode the report.
const maxDistributionKeyWidth = 50

// Aggregate summarizes a batch of score results per metric field. The field
// set comes from the rubric when one is supplied, otherwise from the union of
// keys observed across results. Fields with no usable values are omitted:
// their kind cannot be determined. Malformed individual values are skipped,
// never an error.
func Aggregate(results []models.ScoreResult, rubric models.Rubric) models.AggregatedReport {
	report := models.AggregatedReport{
		TotalRuns: len(results),
		Metrics:   map[string]models.MetricAggregation{},
	}

	for _, field := range fieldSet(results, rubric) {
		values := collectValues(results, field)
		if len(values) == 0 {
			continue
		}

		kind := declaredKind(rubric, field)
		if kind == "" {
			kind = inferKind(values[0])
		}

		var agg models.MetricAggregation
		switch kind {
		case models.MetricNumber:
			agg = aggregateNumeric(values)
		case models.MetricBoolean:
			agg = aggregateBoolean(values)
		default:
			agg = aggregateStrings(values)
		}

		// Every usable value may still have been filtered out by the kind
		// branch (e.g. strings in a declared-numeric field).
		if agg.Numeric == nil && agg.Boolean == nil && agg.Strings == nil {
			continue
		}
		report.Metrics[field] = agg
	}

	return report
}

// fieldSet returns the rubric's declared names, or the sorted union of
// observed keys when no rubric is supplied.
func fieldSet(results []models.ScoreResult, rubric models.Rubric) []string {
	if !rubric.Empty() {
		return rubric.Names()
	}

	seen := map[string]bool{}
	for _, result := range results {
		for name := range result.Metrics {
			seen[name] = true
		}
	}

	fields := make([]string, 0, len(seen))
	for name := range seen {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

func collectValues(results []models.ScoreResult, field string) []any {
	var values []any
	for _, result := range results {
		if v, ok := result.Metrics[field]; ok && v != nil {
			values = append(values, v)
		}
	}
	return values
}

func declaredKind(rubric models.Rubric, field string) models.MetricKind {
	f, ok := rubric.Lookup(field)
	if !ok {
		return ""
	}
	switch f.Kind {
	case models.KindNumber:
		return models.MetricNumber
	case models.KindBoolean:
		return models.MetricBoolean
	default:
		return models.MetricString
	}
}

func inferKind(value any) models.MetricKind {
	switch value.(type) {
	case float64, float32, int, int64, json.Number:
		return models.MetricNumber
	case bool:
		return models.MetricBoolean
	default:
		return models.MetricString
	}
}

func aggregateNumeric(values []any) models.MetricAggregation {
	numbers := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := toFloat(v); ok {
			numbers = append(numbers, f)
		}
	}
	if len(numbers) == 0 {
		return models.MetricAggregation{Kind: models.MetricNumber}
	}

	sort.Float64s(numbers)

	summary := &models.NumericSummary{
		Count:     len(numbers),
		Avg:       statistics.Mean(numbers),
		Min:       numbers[0],
		Max:       numbers[len(numbers)-1],
		Median:    statistics.Median(numbers),
		P90:       statistics.Percentile(numbers, 0.9),
		Histogram: statistics.Histogram(numbers),
	}
	if len(numbers) >= 2 {
		ci := statistics.BootstrapCI(numbers, 0.95)
		summary.CI = &ci
	}

	return models.MetricAggregation{Kind: models.MetricNumber, Numeric: summary}
}

func aggregateBoolean(values []any) models.MetricAggregation {
	summary := &models.BooleanSummary{}
	for _, v := range values {
		b, ok := v.(bool)
		if !ok {
			continue
		}
		summary.Count++
		if b {
			summary.True++
		} else {
			summary.False++
		}
	}
	if summary.Count == 0 {
		return models.MetricAggregation{Kind: models.MetricBoolean}
	}
	return models.MetricAggregation{Kind: models.MetricBoolean, Boolean: summary}
}

func aggregateStrings(values []any) models.MetricAggregation {
	summary := &models.StringSummary{Distribution: map[string]int{}}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		summary.Count++
		summary.Distribution[runewidth.Truncate(s, maxDistributionKeyWidth, "…")]++
	}
	if summary.Count == 0 {
		return models.MetricAggregation{Kind: models.MetricString}
	}
	return models.MetricAggregation{Kind: models.MetricString, Strings: summary}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

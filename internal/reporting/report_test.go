package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spboyer/promptlab/internal/models"
)

func sampleReport() models.AggregatedReport {
	return models.AggregatedReport{
		TotalRuns: 3,
		Metrics: map[string]models.MetricAggregation{
			"accuracy": {
				Kind: models.MetricNumber,
				Numeric: &models.NumericSummary{
					Count: 3, Avg: 3.0, Min: 1.0, Max: 5.0, Median: 3.0, P90: 5.0,
					Histogram: map[string]int{"1": 1, "3": 1, "5": 1},
				},
			},
			"resolved": {
				Kind:    models.MetricBoolean,
				Boolean: &models.BooleanSummary{Count: 3, True: 2, False: 1},
			},
			"tone": {
				Kind:    models.MetricString,
				Strings: &models.StringSummary{Count: 3, Distribution: map[string]int{"friendly": 2, "neutral": 1}},
			},
		},
	}
}

func TestRenderText(t *testing.T) {
	out := RenderText(sampleReport())

	assert.Contains(t, out, "Total runs: 3")
	assert.Contains(t, out, "avg=3.00")
	assert.Contains(t, out, "median=3.00")
	assert.Contains(t, out, "histogram: 1:1 3:1 5:1")
	assert.Contains(t, out, "true=2 false=1")
	assert.Contains(t, out, "friendly:2 neutral:1")

	// Metrics print in lexical order.
	assert.Less(t, strings.Index(out, "accuracy"), strings.Index(out, "resolved"))
	assert.Less(t, strings.Index(out, "resolved"), strings.Index(out, "tone"))
}

func TestRenderTextEmptyReport(t *testing.T) {
	out := RenderText(models.AggregatedReport{TotalRuns: 0, Metrics: map[string]models.MetricAggregation{}})
	assert.Contains(t, out, "No metrics to report.")
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, WriteJSON(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got models.AggregatedReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 3, got.TotalRuns)
	assert.Equal(t, 2, got.Metrics["resolved"].Boolean.True)
}

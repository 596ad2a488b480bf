package models

import (
	"time"

	"github.com/spboyer/promptlab/internal/statistics"
)

// ScoringErrorKey is the sentinel metric recorded when every scoring strategy
// failed. A scoring failure must never abort a batch, so the failure is folded
// into the metrics mapping instead of being returned as an error.
const ScoringErrorKey = "scoring_error"

// ScoreResult holds the judge's metrics for one transcript. Created once per
// transcript and never mutated afterwards.
type ScoreResult struct {
	ID           string         `json:"id"`
	Metrics      map[string]any `json:"metrics"`
	TranscriptID string         `json:"transcript_id"`
	EntryID      string         `json:"entry_id"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Failed reports whether this result carries the scoring-error sentinel
// instead of real metrics.
func (r ScoreResult) Failed() bool {
	_, ok := r.Metrics[ScoringErrorKey]
	return ok
}

// MetricKind classifies an aggregated metric column.
type MetricKind string

const (
	MetricNumber  MetricKind = "number"
	MetricBoolean MetricKind = "boolean"
	MetricString  MetricKind = "string"
)

// AggregatedReport summarizes a batch of score results per metric. It is
// derived data: it can be recomputed at any time from the stored results and
// is never treated as authoritative state.
type AggregatedReport struct {
	TotalRuns int                          `json:"total_runs"`
	Metrics   map[string]MetricAggregation `json:"metrics"`
}

// MetricAggregation is the per-field summary. Exactly one of the kind-specific
// summaries is set, matching Kind.
type MetricAggregation struct {
	Kind    MetricKind      `json:"kind"`
	Numeric *NumericSummary `json:"numeric,omitempty"`
	Boolean *BooleanSummary `json:"boolean,omitempty"`
	Strings *StringSummary  `json:"strings,omitempty"`
}

// NumericSummary reports distribution statistics over a numeric metric.
//
// Median is the lower-middle element for even counts (a documented design
// choice, not an averaged median) and P90 the element at index
// floor(0.9 * n) of the ascending sort. Histogram buckets are exact values,
// not ranges.
type NumericSummary struct {
	Count     int            `json:"count"`
	Avg       float64        `json:"avg"`
	Min       float64        `json:"min"`
	Max       float64        `json:"max"`
	Median    float64        `json:"median"`
	P90       float64        `json:"p90"`
	Histogram map[string]int `json:"histogram"`

	// CI is a bootstrap confidence interval over the values, populated when
	// at least two values exist.
	CI *statistics.ConfidenceInterval `json:"ci,omitempty"`
}

// BooleanSummary reports the two-bucket distribution of a boolean metric.
type BooleanSummary struct {
	Count int `json:"count"`
	True  int `json:"true"`
	False int `json:"false"`
}

// StringSummary reports the value distribution of a string or enum metric.
// Distribution keys longer than 50 characters are truncated with a trailing
// ellipsis before counting.
type StringSummary struct {
	Count        int            `json:"count"`
	Distribution map[string]int `json:"distribution"`
}

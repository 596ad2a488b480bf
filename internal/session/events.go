package session

import "time"

// EventType identifies the kind of session event.
type EventType string

const (
	EventBatchStart    EventType = "batch_start"
	EventBatchComplete EventType = "batch_complete"
	EventEntryStart    EventType = "entry_start"
	EventEntryComplete EventType = "entry_complete"
	EventTurn          EventType = "turn"
	EventScore         EventType = "score"
	EventError         EventType = "error"
)

// Event is a single timestamped entry in a session log. RunID is stamped by
// the logger, not by event constructors.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id,omitempty"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Data:      data,
	}
}

// BatchStartData returns event data for a batch start.
func BatchStartData(specPath, mode string, entryCount int) map[string]any {
	return map[string]any{
		"spec_path":   specPath,
		"mode":        mode,
		"entry_count": entryCount,
	}
}

// BatchCompleteData returns event data for a batch end.
func BatchCompleteData(totalEntries, scored, failed int, durationMs int64) map[string]any {
	return map[string]any{
		"total_entries": totalEntries,
		"scored":        scored,
		"failed":        failed,
		"duration_ms":   durationMs,
	}
}

// EntryStartData returns event data for a dataset entry start.
func EntryStartData(entryName string, entryNum, totalEntries int) map[string]any {
	return map[string]any{
		"entry_name":    entryName,
		"entry_num":     entryNum,
		"total_entries": totalEntries,
	}
}

// EntryCompleteData returns event data for a dataset entry completion.
func EntryCompleteData(entryName, stopReason string, turns int, durationMs int64) map[string]any {
	return map[string]any{
		"entry_name":  entryName,
		"stop_reason": stopReason,
		"turns":       turns,
		"duration_ms": durationMs,
	}
}

// TurnData returns event data for one simulated turn.
func TurnData(entryName, speaker string, index int, seeded bool) map[string]any {
	return map[string]any{
		"entry_name": entryName,
		"speaker":    speaker,
		"index":      index,
		"seeded":     seeded,
	}
}

// ScoreData returns event data for a scoring result.
func ScoreData(entryName, resultID string, failed bool) map[string]any {
	return map[string]any{
		"entry_name": entryName,
		"result_id":  resultID,
		"failed":     failed,
	}
}

// ErrorData returns event data for an error.
func ErrorData(message string, details map[string]any) map[string]any {
	d := map[string]any{
		"message": message,
	}
	for k, v := range details {
		d[k] = v
	}
	return d
}

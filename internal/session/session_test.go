package session

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerWritesOneLinePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run-session.jsonl")

	logger, err := NewJSONLogger(path)
	require.NoError(t, err)

	require.NoError(t, logger.Log(NewEvent(EventBatchStart, BatchStartData("eval.yaml", "simulate", 3))))
	require.NoError(t, logger.Log(NewEvent(EventEntryStart, EntryStartData("refund-flow", 1, 3))))
	require.NoError(t, logger.Log(NewEvent(EventEntryComplete, EntryCompleteData("refund-flow", "natural", 4, 1200))))
	require.NoError(t, logger.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		events = append(events, event)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, events, 3)
	assert.Equal(t, EventBatchStart, events[0].Type)
	assert.Equal(t, "simulate", events[0].Data["mode"])
	assert.Equal(t, EventEntryComplete, events[2].Type)
	assert.Equal(t, "natural", events[2].Data["stop_reason"])
	assert.False(t, events[0].Timestamp.IsZero())

	// Every line carries the same run ID.
	assert.NotEmpty(t, events[0].RunID)
	assert.Equal(t, events[0].RunID, events[1].RunID)
	assert.Equal(t, events[0].RunID, events[2].RunID)
}

func TestJSONLoggerDistinguishesRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")

	first, err := NewJSONLogger(path)
	require.NoError(t, err)
	require.NoError(t, first.Log(NewEvent(EventBatchStart, BatchStartData("eval.yaml", "generate", 1))))
	require.NoError(t, first.Close())

	second, err := NewJSONLogger(path)
	require.NoError(t, err)
	require.NoError(t, second.Log(NewEvent(EventBatchStart, BatchStartData("eval.yaml", "generate", 1))))
	require.NoError(t, second.Close())

	assert.NotEqual(t, first.RunID(), second.RunID())
}

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath("logs", "Support Triage v2")
	assert.Equal(t, "logs", filepath.Dir(path))
	assert.Contains(t, filepath.Base(path), "Support-Triage-v2-")
	assert.True(t, strings.HasSuffix(path, ".jsonl"))

	assert.Contains(t, filepath.Base(DefaultLogPath("logs", "")), "eval-")
}

func TestJSONLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")

	first, err := NewJSONLogger(path)
	require.NoError(t, err)
	require.NoError(t, first.Log(NewEvent(EventError, ErrorData("boom", nil))))
	require.NoError(t, first.Close())

	second, err := NewJSONLogger(path)
	require.NoError(t, err)
	require.NoError(t, second.Log(NewEvent(EventError, ErrorData("again", nil))))
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, len(splitLines(data)))
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	return lines
}

func TestNopLogger(t *testing.T) {
	var logger Logger = NopLogger{}
	assert.NoError(t, logger.Log(NewEvent(EventTurn, TurnData("x", "assistant", 0, false))))
	assert.NoError(t, logger.Close())
}

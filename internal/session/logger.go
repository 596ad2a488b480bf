package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger records batch events. Implementations must be safe for concurrent
// use: the driver and the simulator's turn listener both log.
type Logger interface {
	Log(event Event) error
	Close() error
}

// JSONLogger appends events to an NDJSON file, one line per event. Every line
// carries the same run ID, so logs from re-runs appended to one file can be
// told apart.
type JSONLogger struct {
	mu    sync.Mutex
	file  *os.File
	runID string
	path  string
}

// NewJSONLogger opens (or creates) the session log at path. Parent
// directories are created automatically.
func NewJSONLogger(path string) (*JSONLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating session log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening session log: %w", err)
	}

	return &JSONLogger{
		file:  f,
		runID: uuid.NewString(),
		path:  path,
	}, nil
}

// Log writes one event as a single JSON line, stamping it with the logger's
// run ID and a timestamp if the event carries none.
func (l *JSONLogger) Log(event Event) error {
	event.RunID = l.runID
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding session event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing session event: %w", err)
	}
	return nil
}

// RunID returns the identifier stamped on every event this logger writes.
func (l *JSONLogger) RunID() string {
	return l.runID
}

// Path returns the file path of the session log.
func (l *JSONLogger) Path() string {
	return l.path
}

// Close closes the underlying file.
func (l *JSONLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// NopLogger discards all events. Used when no session log was requested.
type NopLogger struct{}

func (NopLogger) Log(Event) error { return nil }
func (NopLogger) Close() error    { return nil }

// DefaultLogPath returns a log path inside dir named after the eval and the
// current time, e.g. "support-triage-20260831T120000Z.jsonl".
func DefaultLogPath(dir, evalName string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, evalName)
	if name == "" {
		name = "eval"
	}

	ts := time.Now().UTC().Format("20060102T150405Z")
	return filepath.Join(dir, fmt.Sprintf("%s-%s.jsonl", name, ts))
}

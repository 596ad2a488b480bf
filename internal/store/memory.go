package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/spboyer/promptlab/internal/models"
)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	transcripts *memoryCollection[models.TranscriptRecord]
	results     *memoryCollection[models.ScoreResult]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transcripts: &memoryCollection[models.TranscriptRecord]{
			records: map[string]models.TranscriptRecord{},
			idOf:    func(r models.TranscriptRecord) string { return r.ID },
			fieldOf: func(r models.TranscriptRecord, field string) (string, bool) {
				switch field {
				case "entry_id":
					return r.EntryID, true
				case "stop_reason":
					return r.StopReason, true
				}
				return "", false
			},
		},
		results: &memoryCollection[models.ScoreResult]{
			records: map[string]models.ScoreResult{},
			idOf:    func(r models.ScoreResult) string { return r.ID },
			fieldOf: func(r models.ScoreResult, field string) (string, bool) {
				switch field {
				case "entry_id":
					return r.EntryID, true
				case "transcript_id":
					return r.TranscriptID, true
				}
				return "", false
			},
		},
	}
}

func (s *MemoryStore) Transcripts() Collection[models.TranscriptRecord] { return s.transcripts }
func (s *MemoryStore) Results() Collection[models.ScoreResult]          { return s.results }
func (s *MemoryStore) Close() error                                    { return nil }

// memoryCollection keeps records keyed by id, preserving insertion order for
// ToArray.
type memoryCollection[T any] struct {
	mu      sync.RWMutex
	records map[string]T
	order   []string
	idOf    func(T) string
	fieldOf func(T, string) (string, bool)
}

func (c *memoryCollection[T]) Add(ctx context.Context, record T) error {
	id := c.idOf(record)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.records[id]; !exists {
		c.order = append(c.order, id)
	}
	c.records[id] = record
	return nil
}

func (c *memoryCollection[T]) Get(ctx context.Context, id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, ok := c.records[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return record, nil
}

func (c *memoryCollection[T]) Update(ctx context.Context, id string, patch func(*T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.records[id]
	if !ok {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	patch(&record)
	c.records[id] = record
	return nil
}

func (c *memoryCollection[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[id]; !ok {
		return nil
	}
	delete(c.records, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *memoryCollection[T]) ToArray(ctx context.Context) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id])
	}
	return out, nil
}

func (c *memoryCollection[T]) WhereEquals(ctx context.Context, field, value string) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []T
	for _, id := range c.order {
		record := c.records[id]
		got, ok := c.fieldOf(record, field)
		if !ok {
			return nil, fmt.Errorf("field %q: %w", field, ErrUnknownField)
		}
		if got == value {
			out = append(out, record)
		}
	}
	return out, nil
}

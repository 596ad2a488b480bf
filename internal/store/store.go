package store

import (
	"context"
	"errors"

	"github.com/spboyer/promptlab/internal/models"
)

// ErrNotFound is returned when a record id does not exist in a collection.
var ErrNotFound = errors.New("record not found")

// ErrUnknownField is returned by WhereEquals for fields that are not
// queryable on the collection.
var ErrUnknownField = errors.New("unknown query field")

// Store groups the typed collections the evaluation engine persists to.
type Store interface {
	Transcripts() Collection[models.TranscriptRecord]
	Results() Collection[models.ScoreResult]
	Close() error
}

// Collection is a typed record collection. The engine only ever appends and
// reads; Update and Delete exist for tooling and tests.
type Collection[T any] interface {
	Add(ctx context.Context, record T) error
	Get(ctx context.Context, id string) (T, error)
	Update(ctx context.Context, id string, patch func(*T)) error
	Delete(ctx context.Context, id string) error
	ToArray(ctx context.Context) ([]T, error)

	// WhereEquals returns all records whose named field equals value. Only
	// the fields each collection declares queryable are accepted.
	WhereEquals(ctx context.Context, field, value string) ([]T, error)
}

package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spboyer/promptlab/internal/models"
)

// transcriptJSON serializes a transcript into a single JSON text column.
type transcriptJSON models.Transcript

func (transcriptJSON) GormDataType() string { return "text" }

func (t transcriptJSON) Value() (driver.Value, error) {
	if t == nil {
		t = transcriptJSON{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *transcriptJSON) Scan(value any) error {
	return scanJSON(value, t)
}

// metricsJSON serializes the metrics mapping into a single JSON text column.
type metricsJSON map[string]any

func (metricsJSON) GormDataType() string { return "text" }

func (m metricsJSON) Value() (driver.Value, error) {
	if m == nil {
		m = metricsJSON{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *metricsJSON) Scan(value any) error {
	return scanJSON(value, m)
}

func scanJSON(value, target any) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column value: %T", value)
	}

	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, target)
}

type transcriptRow struct {
	ID         string `gorm:"primaryKey"`
	EntryID    string `gorm:"index"`
	StopReason string
	Turns      transcriptJSON
	CreatedAt  time.Time
}

func (transcriptRow) TableName() string { return "transcripts" }

type resultRow struct {
	ID           string `gorm:"primaryKey"`
	EntryID      string `gorm:"index"`
	TranscriptID string `gorm:"index"`
	Metrics      metricsJSON
	Timestamp    time.Time
}

func (resultRow) TableName() string { return "results" }

// SQLiteStore persists transcripts and score results in a single SQLite file.
type SQLiteStore struct {
	db          *gorm.DB
	transcripts *sqliteTranscripts
	results     *sqliteResults
}

// Open creates or opens the store at path and migrates its schema.
func Open(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}

	if err := db.AutoMigrate(&transcriptRow{}, &resultRow{}); err != nil {
		return nil, fmt.Errorf("migrating store schema: %w", err)
	}

	return &SQLiteStore{
		db:          db,
		transcripts: &sqliteTranscripts{db: db},
		results:     &sqliteResults{db: db},
	}, nil
}

func (s *SQLiteStore) Transcripts() Collection[models.TranscriptRecord] { return s.transcripts }
func (s *SQLiteStore) Results() Collection[models.ScoreResult]          { return s.results }

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqliteTranscripts implements Collection[models.TranscriptRecord].
type sqliteTranscripts struct {
	db *gorm.DB
}

// Queryable fields are an explicit allowlist so caller-supplied field names
// never reach SQL directly.
var transcriptColumns = map[string]string{
	"entry_id":    "entry_id",
	"stop_reason": "stop_reason",
}

func toTranscriptRow(r models.TranscriptRecord) transcriptRow {
	return transcriptRow{
		ID:         r.ID,
		EntryID:    r.EntryID,
		StopReason: r.StopReason,
		Turns:      transcriptJSON(r.Turns),
		CreatedAt:  r.CreatedAt,
	}
}

func (row transcriptRow) toRecord() models.TranscriptRecord {
	return models.TranscriptRecord{
		ID:         row.ID,
		EntryID:    row.EntryID,
		StopReason: row.StopReason,
		Turns:      models.Transcript(row.Turns),
		CreatedAt:  row.CreatedAt,
	}
}

func (c *sqliteTranscripts) Add(ctx context.Context, record models.TranscriptRecord) error {
	row := toTranscriptRow(record)
	return c.db.WithContext(ctx).Create(&row).Error
}

func (c *sqliteTranscripts) Get(ctx context.Context, id string) (models.TranscriptRecord, error) {
	var row transcriptRow
	err := c.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TranscriptRecord{}, fmt.Errorf("transcript %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.TranscriptRecord{}, err
	}
	return row.toRecord(), nil
}

func (c *sqliteTranscripts) Update(ctx context.Context, id string, patch func(*models.TranscriptRecord)) error {
	record, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	patch(&record)
	record.ID = id
	row := toTranscriptRow(record)
	return c.db.WithContext(ctx).Save(&row).Error
}

func (c *sqliteTranscripts) Delete(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Delete(&transcriptRow{}, "id = ?", id).Error
}

func (c *sqliteTranscripts) ToArray(ctx context.Context) ([]models.TranscriptRecord, error) {
	var rows []transcriptRow
	if err := c.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]models.TranscriptRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func (c *sqliteTranscripts) WhereEquals(ctx context.Context, field, value string) ([]models.TranscriptRecord, error) {
	column, ok := transcriptColumns[field]
	if !ok {
		return nil, fmt.Errorf("transcripts field %q: %w", field, ErrUnknownField)
	}
	var rows []transcriptRow
	if err := c.db.WithContext(ctx).Where(column+" = ?", value).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]models.TranscriptRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// sqliteResults implements Collection[models.ScoreResult].
type sqliteResults struct {
	db *gorm.DB
}

var resultColumns = map[string]string{
	"entry_id":      "entry_id",
	"transcript_id": "transcript_id",
}

func toResultRow(r models.ScoreResult) resultRow {
	return resultRow{
		ID:           r.ID,
		EntryID:      r.EntryID,
		TranscriptID: r.TranscriptID,
		Metrics:      metricsJSON(r.Metrics),
		Timestamp:    r.Timestamp,
	}
}

func (row resultRow) toRecord() models.ScoreResult {
	return models.ScoreResult{
		ID:           row.ID,
		EntryID:      row.EntryID,
		TranscriptID: row.TranscriptID,
		Metrics:      map[string]any(row.Metrics),
		Timestamp:    row.Timestamp,
	}
}

func (c *sqliteResults) Add(ctx context.Context, record models.ScoreResult) error {
	row := toResultRow(record)
	return c.db.WithContext(ctx).Create(&row).Error
}

func (c *sqliteResults) Get(ctx context.Context, id string) (models.ScoreResult, error) {
	var row resultRow
	err := c.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ScoreResult{}, fmt.Errorf("result %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.ScoreResult{}, err
	}
	return row.toRecord(), nil
}

func (c *sqliteResults) Update(ctx context.Context, id string, patch func(*models.ScoreResult)) error {
	record, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	patch(&record)
	record.ID = id
	row := toResultRow(record)
	return c.db.WithContext(ctx).Save(&row).Error
}

func (c *sqliteResults) Delete(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Delete(&resultRow{}, "id = ?", id).Error
}

func (c *sqliteResults) ToArray(ctx context.Context) ([]models.ScoreResult, error) {
	var rows []resultRow
	if err := c.db.WithContext(ctx).Order("timestamp").Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]models.ScoreResult, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func (c *sqliteResults) WhereEquals(ctx context.Context, field, value string) ([]models.ScoreResult, error) {
	column, ok := resultColumns[field]
	if !ok {
		return nil, fmt.Errorf("results field %q: %w", field, ErrUnknownField)
	}
	var rows []resultRow
	if err := c.db.WithContext(ctx).Where(column+" = ?", value).Order("timestamp").Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]models.ScoreResult, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

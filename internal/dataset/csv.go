package dataset

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"

	"github.com/spboyer/promptlab/internal/models"
)

// Row represents a single CSV row with column name to value mapping.
type Row map[string]string

// knownColumns are the CSV columns mapped onto DatasetEntry fields. Everything
// else lands in the entry's metadata.
var knownColumns = map[string]bool{
	"id":       true,
	"name":     true,
	"input":    true,
	"expected": true,
	"seed":     true,
}

// LoadCSV reads a CSV file and returns one DatasetEntry per data row. The
// first row is treated as headers (column names).
func LoadCSV(path string) ([]models.DatasetEntry, error) {
	rows, err := loadRows(path)
	if err != nil {
		return nil, err
	}
	return entriesFromRows(rows, 1)
}

// LoadCSVRange reads entries in the given range [start, end] (1-based,
// inclusive). Row 1 is the first data row (after headers).
func LoadCSVRange(path string, start, end int) ([]models.DatasetEntry, error) {
	if start < 1 {
		return nil, fmt.Errorf("csv: range start must be >= 1, got %d", start)
	}
	if end < start {
		return nil, fmt.Errorf("csv: range end (%d) must be >= start (%d)", end, start)
	}

	rows, err := loadRows(path)
	if err != nil {
		return nil, err
	}

	if end > len(rows) {
		end = len(rows)
	}
	if start > len(rows) {
		return []models.DatasetEntry{}, nil
	}

	return entriesFromRows(rows[start-1:end], start)
}

func loadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	headers := records[0]
	rows := make([]Row, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) != len(headers) {
			return nil, fmt.Errorf("csv: row %d has %d columns, expected %d", i+2, len(record), len(headers))
		}
		row := make(Row, len(headers))
		for j, h := range headers {
			row[h] = record[j]
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// entriesFromRows decodes rows into entries. firstRowNum is the 1-based data
// row number of rows[0], used for generated ids.
func entriesFromRows(rows []Row, firstRowNum int) ([]models.DatasetEntry, error) {
	entries := make([]models.DatasetEntry, 0, len(rows))

	for i, row := range rows {
		rowNum := firstRowNum + i

		var entry models.DatasetEntry
		if err := mapstructure.Decode(row, &entry); err != nil {
			return nil, fmt.Errorf("csv: decoding row %d: %w", rowNum, err)
		}

		if entry.EntryID == "" {
			entry.EntryID = fmt.Sprintf("row-%d", rowNum)
		}

		for column, value := range row {
			if knownColumns[column] || value == "" {
				continue
			}
			if entry.Metadata == nil {
				entry.Metadata = map[string]string{}
			}
			entry.Metadata[column] = value
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

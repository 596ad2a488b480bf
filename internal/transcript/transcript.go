package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spboyer/promptlab/internal/models"
)

// Render formats a transcript as "ROLE: content" blocks joined by blank
// lines. This is the exact form replayed to the judge model, so it must stay
// stable.
func Render(t models.Transcript) string {
	blocks := make([]string, 0, len(t))
	for _, turn := range t {
		blocks = append(blocks, fmt.Sprintf("%s: %s", strings.ToUpper(string(turn.Role)), turn.Content))
	}
	return strings.Join(blocks, "\n\n")
}

// sanitize replaces characters that are unsafe in filenames.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// Filename returns the transcript filename for a dataset entry.
func Filename(entryName string, ts time.Time) string {
	return fmt.Sprintf("%s-%s.json", sanitizeName(entryName), ts.Format("20060102-150405"))
}

// Write serializes a TranscriptRecord and writes it to dir.
func Write(dir string, record *models.TranscriptRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	name := Filename(record.EntryID, record.CreatedAt)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	return path, nil
}

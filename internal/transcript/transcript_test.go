package transcript

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spboyer/promptlab/internal/models"
)

func TestRender(t *testing.T) {
	transcript := models.Transcript{}.
		Append(models.RoleUser, "Where is my order?").
		Append(models.RoleAssistant, "Let me check that for you.")

	got := Render(transcript)
	want := "USER: Where is my order?\n\nASSISTANT: Let me check that for you."
	assert.Equal(t, want, got)
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "", Render(models.Transcript{}))
}

func TestFilenameSanitizes(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, "refund-flow-2-20260314-092653.json", Filename("Refund Flow #2", ts))
	assert.Equal(t, "unnamed-20260314-092653.json", Filename("///", ts))
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()

	record := &models.TranscriptRecord{
		ID:      "tr-1",
		EntryID: "entry-1",
		Turns: models.Transcript{}.
			Append(models.RoleUser, "hello").
			Append(models.RoleAssistant, "hi"),
		StopReason: "natural",
		CreatedAt:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}

	path, err := Write(dir, record)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got models.TranscriptRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Turns, got.Turns)
	assert.Equal(t, "natural", got.StopReason)
}

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleCSV = `id,name,input,expected,seed,locale
e1,Refund,I want a refund,issues a refund,Hi there,en
,No ID,question two,answer two,,fr
e3,Minimal,question three,,,
`

func TestLoadCSV(t *testing.T) {
	entries, err := LoadCSV(writeFile(t, "data.csv", sampleCSV))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	first := entries[0]
	assert.Equal(t, "e1", first.EntryID)
	assert.Equal(t, "Refund", first.DisplayName)
	assert.Equal(t, "I want a refund", first.Input)
	assert.Equal(t, "issues a refund", first.Expected)
	assert.Equal(t, "Hi there", first.SeedMessage)
	assert.Equal(t, map[string]string{"locale": "en"}, first.Metadata)

	// Missing id falls back to the data row number.
	assert.Equal(t, "row-2", entries[1].EntryID)
	assert.Equal(t, "No ID", entries[1].Name())

	// Empty extra columns stay out of metadata.
	assert.Nil(t, entries[2].Metadata)
}

func TestLoadCSVRange(t *testing.T) {
	path := writeFile(t, "data.csv", sampleCSV)

	entries, err := LoadCSVRange(path, 2, 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "row-2", entries[0].EntryID)
	assert.Equal(t, "e3", entries[1].EntryID)

	// End past the data is clamped; start past the data yields nothing.
	entries, err = LoadCSVRange(path, 3, 99)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = LoadCSVRange(path, 10, 12)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = LoadCSVRange(path, 0, 2)
	assert.Error(t, err)

	_, err = LoadCSVRange(path, 3, 2)
	assert.Error(t, err)
}

func TestLoadCSVRaggedRow(t *testing.T) {
	_, err := LoadCSV(writeFile(t, "bad.csv", "id,input\ne1,question,extra\n"))
	assert.Error(t, err)
}

func TestLoadCSVEmptyFile(t *testing.T) {
	_, err := LoadCSV(writeFile(t, "empty.csv", ""))
	assert.Error(t, err)
}

const sampleYAML = `
- id: e1
  name: Refund
  input: I want a refund
  expected: issues a refund
  seed: Hi there
- input: second question
`

func TestLoadYAML(t *testing.T) {
	entries, err := LoadYAML(writeFile(t, "data.yaml", sampleYAML))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "e1", entries[0].EntryID)
	assert.Equal(t, "Hi there", entries[0].SeedMessage)

	// Missing id falls back to the list position.
	assert.Equal(t, "entry-2", entries[1].EntryID)
	assert.Equal(t, "second question", entries[1].Input)
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	csvPath := writeFile(t, "data.csv", sampleCSV)
	entries, err := Load(csvPath)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	yamlPath := writeFile(t, "data.yml", sampleYAML)
	entries, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = Load("data.txt")
	assert.Error(t, err)
}

package dataset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spboyer/promptlab/internal/models"
)

// LoadYAML reads a YAML dataset: a top-level list of entries.
func LoadYAML(path string) ([]models.DatasetEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("yaml: open %s: %w", path, err)
	}

	var entries []models.DatasetEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("yaml: parse %s: %w", path, err)
	}

	for i := range entries {
		if entries[i].EntryID == "" {
			entries[i].EntryID = fmt.Sprintf("entry-%d", i+1)
		}
	}

	return entries, nil
}

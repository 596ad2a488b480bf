// Package dataset loads evaluation datasets from CSV and YAML files.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spboyer/promptlab/internal/models"
)

// Load picks a loader from the file extension.
func Load(path string) ([]models.DatasetEntry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (want .csv, .yaml or .yml)", filepath.Ext(path))
	}
}

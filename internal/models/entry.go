package models

// DatasetEntry is one test case in an evaluation dataset: the input handed to
// the generation stage plus the expected-behavior context handed to the judge.
type DatasetEntry struct {
	EntryID     string            `yaml:"id" json:"entry_id" mapstructure:"id"`
	DisplayName string            `yaml:"name,omitempty" json:"display_name,omitempty" mapstructure:"name"`
	Input       string            `yaml:"input" json:"input" mapstructure:"input"`
	Expected    string            `yaml:"expected,omitempty" json:"expected,omitempty" mapstructure:"expected"`
	SeedMessage string            `yaml:"seed,omitempty" json:"seed_message,omitempty" mapstructure:"seed"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty" mapstructure:"-"`
}

// Name returns the display name, falling back to the entry ID.
func (e DatasetEntry) Name() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.EntryID
}

package models

// AgentConfig holds the model settings for one conversational role. It is
// immutable for the duration of a single simulation run.
type AgentConfig struct {
	Provider          string  `yaml:"provider" json:"provider"`
	Model             string  `yaml:"model" json:"model"`
	Temperature       float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens         int     `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	TopP              float64 `yaml:"top_p,omitempty" json:"top_p,omitempty"`
	SystemInstruction string  `yaml:"system_instruction,omitempty" json:"system_instruction,omitempty"`
}

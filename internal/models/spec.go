package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GenerationMode selects how a dataset entry is turned into a transcript.
type GenerationMode string

const (
	// ModeSimulate runs a multi-turn conversation between the assistant
	// agent and a simulated-user agent.
	ModeSimulate GenerationMode = "simulate"
	// ModeGenerate sends the entry input to the assistant agent once.
	ModeGenerate GenerationMode = "generate"
)

// EvalSpec represents a complete evaluation specification.
type EvalSpec struct {
	SpecIdentity `yaml:",inline"`
	Version      string         `yaml:"version,omitempty"`
	Mode         GenerationMode `yaml:"mode"`
	Dataset      string         `yaml:"dataset"`
	Assistant    AgentConfig    `yaml:"assistant"`
	User         AgentConfig    `yaml:"user,omitempty"`
	Judge        AgentConfig    `yaml:"judge"`
	Rubric       Rubric         `yaml:"rubric,omitempty"`
	Simulation   SimulationOpts `yaml:"simulation,omitempty"`
}

type SpecIdentity struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// SimulationOpts controls the conversation simulator.
type SimulationOpts struct {
	// MaxTurns bounds the total number of generated turns across both
	// agents. A seed message does not count against the budget.
	MaxTurns int `yaml:"max_turns"`
	// FirstSpeaker is "assistant" or "user"; defaults to "user".
	FirstSpeaker string `yaml:"first_speaker,omitempty"`
}

// LoadEvalSpec loads and validates a spec from a YAML file.
func LoadEvalSpec(path string) (*EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec EvalSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}

// Validate checks that the spec is internally consistent. Configuration
// problems are reported here, before any model call is made.
func (s *EvalSpec) Validate() error {
	switch s.Mode {
	case ModeSimulate, ModeGenerate:
	case "":
		s.Mode = ModeGenerate
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeSimulate, ModeGenerate, s.Mode)
	}

	if s.Dataset == "" {
		return fmt.Errorf("dataset path is required")
	}
	if s.Assistant.Provider == "" || s.Assistant.Model == "" {
		return fmt.Errorf("assistant provider and model are required")
	}
	if s.Judge.Provider == "" || s.Judge.Model == "" {
		return fmt.Errorf("judge provider and model are required")
	}

	if s.Mode == ModeSimulate {
		if s.User.Provider == "" || s.User.Model == "" {
			return fmt.Errorf("mode %q requires a user agent provider and model", ModeSimulate)
		}
		if s.Simulation.MaxTurns < 1 {
			return fmt.Errorf("simulation.max_turns must be at least 1, got %d", s.Simulation.MaxTurns)
		}
		switch s.Simulation.FirstSpeaker {
		case "", string(RoleUser), string(RoleAssistant):
		default:
			return fmt.Errorf("simulation.first_speaker must be %q or %q, got %q",
				RoleUser, RoleAssistant, s.Simulation.FirstSpeaker)
		}
	}

	return s.Rubric.Validate()
}

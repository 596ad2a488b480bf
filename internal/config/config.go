// Package config carries run-level settings that are not part of the eval
// spec itself: where things live on disk and how chatty the run is.
package config

import "github.com/spboyer/promptlab/internal/models"

// EvalConfig bundles an eval spec with run-level settings. Immutable after
// construction; use functional options.
type EvalConfig struct {
	spec          *models.EvalSpec
	specDir       string
	storePath     string
	outputPath    string
	logPath       string
	transcriptDir string
	verbose       bool
}

// Option mutates an EvalConfig during construction.
type Option func(*EvalConfig)

// WithSpecDir sets the directory the spec was loaded from; relative dataset
// paths resolve against it.
func WithSpecDir(dir string) Option {
	return func(c *EvalConfig) {
		c.specDir = dir
	}
}

// WithStorePath sets the SQLite store location. Empty disables persistence.
func WithStorePath(path string) Option {
	return func(c *EvalConfig) {
		c.storePath = path
	}
}

// WithOutputPath sets where the JSON report is written. Empty disables it.
func WithOutputPath(path string) Option {
	return func(c *EvalConfig) {
		c.outputPath = path
	}
}

// WithLogPath sets the session event log location. Empty disables it.
func WithLogPath(path string) Option {
	return func(c *EvalConfig) {
		c.logPath = path
	}
}

// WithTranscriptDir sets where per-entry transcript files are written. Empty
// disables them.
func WithTranscriptDir(dir string) Option {
	return func(c *EvalConfig) {
		c.transcriptDir = dir
	}
}

// WithVerbose toggles verbose output.
func WithVerbose(verbose bool) Option {
	return func(c *EvalConfig) {
		c.verbose = verbose
	}
}

// NewEvalConfig creates a config around the given spec. A nil option panics.
func NewEvalConfig(spec *models.EvalSpec, opts ...Option) *EvalConfig {
	c := &EvalConfig{spec: spec}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *EvalConfig) Spec() *models.EvalSpec { return c.spec }
func (c *EvalConfig) SpecDir() string        { return c.specDir }
func (c *EvalConfig) StorePath() string      { return c.storePath }
func (c *EvalConfig) OutputPath() string     { return c.outputPath }
func (c *EvalConfig) LogPath() string        { return c.logPath }
func (c *EvalConfig) TranscriptDir() string  { return c.transcriptDir }
func (c *EvalConfig) Verbose() bool          { return c.verbose }

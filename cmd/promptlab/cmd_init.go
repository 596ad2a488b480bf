package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spboyer/promptlab/internal/models"
	"github.com/spboyer/promptlab/internal/wizard"
)

func newInitCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new eval",
		Long: `Initialize a new evaluation in the given directory.

Creates an eval.yaml spec file and a dataset.csv with example entries.

Use --interactive to run a guided wizard that collects agent and dataset
settings instead of writing the defaults.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, args, interactive)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run guided eval creation wizard")

	return cmd
}

func initCommandE(cmd *cobra.Command, args []string, interactive bool) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	var specContent string
	if interactive {
		draft, err := wizard.RunSpecWizard(cmd.InOrStdin(), cmd.OutOrStdout(), filepath.Base(dir))
		if err != nil {
			return fmt.Errorf("wizard failed: %w", err)
		}
		specContent, err = wizard.GenerateSpecYAML(draft)
		if err != nil {
			return fmt.Errorf("failed to generate spec: %w", err)
		}
	} else {
		spec := models.EvalSpec{
			SpecIdentity: models.SpecIdentity{
				Name:        "my-eval",
				Description: "Evaluation of my prompt.",
			},
			Mode:    models.ModeGenerate,
			Dataset: "dataset.csv",
			Assistant: models.AgentConfig{
				Provider:          "openai",
				Model:             "gpt-4o",
				SystemInstruction: "You are a helpful assistant.",
			},
			Judge: models.AgentConfig{
				Provider: "openai",
				Model:    "gpt-4o",
			},
			Rubric: models.Rubric{
				Instructions: "Score the assistant's handling of the conversation.",
				Fields: []models.RubricField{
					{Name: "accuracy", Kind: models.KindNumber, Description: "Factual accuracy, 1 (wrong) to 5 (fully correct)."},
					{Name: "resolved", Kind: models.KindBoolean, Description: "Whether the user's request was resolved."},
				},
			},
		}
		specData, err := yaml.Marshal(&spec)
		if err != nil {
			return fmt.Errorf("failed to marshal eval spec: %w", err)
		}
		specContent = string(specData)
	}

	specPath := filepath.Join(dir, "eval.yaml")
	if err := os.WriteFile(specPath, []byte(specContent), 0o644); err != nil {
		return fmt.Errorf("failed to write eval.yaml: %w", err)
	}

	datasetContent := `id,name,input,expected
entry-001,capital question,What is the capital of France?,Names Paris.
entry-002,refund request,I want a refund for my last order.,Explains the refund policy and starts the process.
`
	datasetPath := filepath.Join(dir, "dataset.csv")
	if err := os.WriteFile(datasetPath, []byte(datasetContent), 0o644); err != nil {
		return fmt.Errorf("failed to write dataset.csv: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Initialized eval:")          //nolint:errcheck
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", specPath)            //nolint:errcheck
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", datasetPath)         //nolint:errcheck

	return nil
}

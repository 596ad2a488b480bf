package wizard

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/term"

	"github.com/spboyer/promptlab/internal/models"
)

// SpecDraft holds the answers collected by the interactive wizard, before they
// are rendered into an eval spec YAML file.
type SpecDraft struct {
	Name              string `mapstructure:"name"`
	Description       string `mapstructure:"description"`
	Mode              string `mapstructure:"mode"`
	Dataset           string `mapstructure:"dataset"`
	AssistantProvider string `mapstructure:"assistant_provider"`
	AssistantModel    string `mapstructure:"assistant_model"`
	UserProvider      string `mapstructure:"user_provider"`
	UserModel         string `mapstructure:"user_model"`
	JudgeProvider     string `mapstructure:"judge_provider"`
	JudgeModel        string `mapstructure:"judge_model"`
	MaxTurns          int    `mapstructure:"max_turns"`
}

const specYAMLTemplate = `name: {{ .Name }}
{{- if .Description }}
description: {{ .Description }}
{{- end }}
mode: {{ .Mode }}
dataset: {{ .Dataset }}

assistant:
  provider: {{ .AssistantProvider }}
  model: {{ .AssistantModel }}
  system_instruction: |
    You are a helpful assistant.
{{- if eq .Mode "simulate" }}

user:
  provider: {{ .UserProvider }}
  model: {{ .UserModel }}
  system_instruction: |
    You are a user talking to an assistant. Stay in character and end the
    conversation with [END] once your request is handled.

simulation:
  max_turns: {{ .MaxTurns }}
{{- end }}

judge:
  provider: {{ .JudgeProvider }}
  model: {{ .JudgeModel }}

rubric:
  instructions: Score the assistant's handling of the conversation.
  fields:
    - name: accuracy
      kind: number
      description: Factual accuracy, 1 (wrong) to 5 (fully correct).
    - name: resolved
      kind: boolean
      description: Whether the user's request was resolved.
`

var providerOptions = []huh.Option[string]{
	huh.NewOption("openai", "openai"),
	huh.NewOption("anthropic", "anthropic"),
}

// RunSpecWizard runs an interactive huh form to collect eval spec settings.
// If initialName is non-empty, it pre-populates the name field.
func RunSpecWizard(in io.Reader, out io.Writer, initialName string) (*SpecDraft, error) {
	var (
		name              = initialName
		description       string
		mode              = string(models.ModeGenerate)
		datasetPath       = "dataset.csv"
		assistantProvider string
		assistantModel    string
		userProvider      string
		userModel         string
		judgeProvider     string
		judgeModel        string
		maxTurnsRaw       = "8"
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Eval name").
				Description("A short name for this evaluation").
				Placeholder("support-triage").
				Value(&name).
				Validate(requireNonEmpty("eval name")),
			huh.NewInput().
				Title("Description").
				Description("What does this eval measure? (optional)").
				Value(&description),
			huh.NewSelect[string]().
				Title("Generation mode").
				Options(
					huh.NewOption("generate (single-shot completion per entry)", string(models.ModeGenerate)),
					huh.NewOption("simulate (multi-turn conversation per entry)", string(models.ModeSimulate)),
				).
				Value(&mode),
			huh.NewInput().
				Title("Dataset path").
				Description("CSV or YAML file, relative to the spec").
				Value(&datasetPath).
				Validate(requireNonEmpty("dataset path")),
			huh.NewSelect[string]().
				Title("Assistant provider").
				Options(providerOptions...).
				Value(&assistantProvider),
			huh.NewInput().
				Title("Assistant model").
				Placeholder("gpt-4o").
				Value(&assistantModel).
				Validate(requireNonEmpty("assistant model")),
			huh.NewSelect[string]().
				Title("Judge provider").
				Options(providerOptions...).
				Value(&judgeProvider),
			huh.NewInput().
				Title("Judge model").
				Placeholder("gpt-4o").
				Value(&judgeModel).
				Validate(requireNonEmpty("judge model")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Simulated-user provider").
				Options(providerOptions...).
				Value(&userProvider),
			huh.NewInput().
				Title("Simulated-user model").
				Placeholder("gpt-4o-mini").
				Value(&userModel).
				Validate(requireNonEmpty("user model")),
			huh.NewInput().
				Title("Max turns").
				Description("Total generated turns across both agents").
				Value(&maxTurnsRaw),
		).WithHideFunc(func() bool {
			return mode != string(models.ModeSimulate)
		}),
	).
		WithInput(in).
		WithOutput(out)

	// Accessible mode for non-TTY input (tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	answers := map[string]any{
		"name":               strings.TrimSpace(name),
		"description":        strings.TrimSpace(description),
		"mode":               mode,
		"dataset":            strings.TrimSpace(datasetPath),
		"assistant_provider": assistantProvider,
		"assistant_model":    strings.TrimSpace(assistantModel),
		"user_provider":      userProvider,
		"user_model":         strings.TrimSpace(userModel),
		"judge_provider":     judgeProvider,
		"judge_model":        strings.TrimSpace(judgeModel),
		"max_turns":          strings.TrimSpace(maxTurnsRaw),
	}
	return draftFromAnswers(answers)
}

// draftFromAnswers decodes raw form answers into a SpecDraft. Numeric answers
// arrive as strings and are converted by the weakly typed decode.
func draftFromAnswers(answers map[string]any) (*SpecDraft, error) {
	var draft SpecDraft
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &draft,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(answers); err != nil {
		return nil, fmt.Errorf("invalid wizard answers: %w", err)
	}

	if draft.Mode == string(models.ModeSimulate) && draft.MaxTurns < 1 {
		return nil, fmt.Errorf("max turns must be at least 1, got %d", draft.MaxTurns)
	}
	return &draft, nil
}

// GenerateSpecYAML renders an eval spec YAML document from the draft. The
// output loads cleanly with models.LoadEvalSpec.
func GenerateSpecYAML(draft *SpecDraft) (string, error) {
	tmpl, err := template.New("evalspec").Parse(specYAMLTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, draft); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

func requireNonEmpty(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

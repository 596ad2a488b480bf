package wizard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spboyer/promptlab/internal/models"
)

func generateDraft() *SpecDraft {
	return &SpecDraft{
		Name:              "support-triage",
		Description:       "Checks refund handling quality.",
		Mode:              "generate",
		Dataset:           "dataset.csv",
		AssistantProvider: "openai",
		AssistantModel:    "gpt-4o",
		JudgeProvider:     "openai",
		JudgeModel:        "gpt-4o",
	}
}

// loadRendered writes the rendered YAML to disk and parses it back through the
// normal spec loader, so scaffolded specs are known to be loadable.
func loadRendered(t *testing.T, draft *SpecDraft) *models.EvalSpec {
	t.Helper()

	rendered, err := GenerateSpecYAML(draft)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "eval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rendered), 0o644))

	spec, err := models.LoadEvalSpec(path)
	require.NoError(t, err)
	return spec
}

func TestGenerateSpecYAMLGenerateMode(t *testing.T) {
	spec := loadRendered(t, generateDraft())

	assert.Equal(t, "support-triage", spec.Name)
	assert.Equal(t, "Checks refund handling quality.", spec.Description)
	assert.Equal(t, models.ModeGenerate, spec.Mode)
	assert.Equal(t, "dataset.csv", spec.Dataset)
	assert.Equal(t, "gpt-4o", spec.Assistant.Model)
	assert.Equal(t, "openai", spec.Judge.Provider)

	// No simulation section in generate mode.
	assert.Empty(t, spec.User.Provider)
	assert.Zero(t, spec.Simulation.MaxTurns)

	// The scaffold ships a starter rubric.
	require.Len(t, spec.Rubric.Fields, 2)
	assert.Equal(t, models.KindNumber, spec.Rubric.Fields[0].Kind)
	assert.Equal(t, models.KindBoolean, spec.Rubric.Fields[1].Kind)
}

func TestGenerateSpecYAMLSimulateMode(t *testing.T) {
	draft := generateDraft()
	draft.Mode = "simulate"
	draft.UserProvider = "anthropic"
	draft.UserModel = "claude-sonnet-4-20250514"
	draft.MaxTurns = 6

	spec := loadRendered(t, draft)

	assert.Equal(t, models.ModeSimulate, spec.Mode)
	assert.Equal(t, "anthropic", spec.User.Provider)
	assert.Equal(t, 6, spec.Simulation.MaxTurns)
	assert.Contains(t, spec.User.SystemInstruction, "[END]")
}

func TestGenerateSpecYAMLOmitsEmptyDescription(t *testing.T) {
	draft := generateDraft()
	draft.Description = ""

	rendered, err := GenerateSpecYAML(draft)
	require.NoError(t, err)
	assert.NotContains(t, rendered, "description:")
}

func TestDraftFromAnswers(t *testing.T) {
	draft, err := draftFromAnswers(map[string]any{
		"name":               "smoke",
		"mode":               "simulate",
		"dataset":            "d.csv",
		"assistant_provider": "openai",
		"assistant_model":    "gpt-4o",
		"user_provider":      "openai",
		"user_model":         "gpt-4o-mini",
		"judge_provider":     "anthropic",
		"judge_model":        "claude-sonnet-4-20250514",
		"max_turns":          "12",
	})
	require.NoError(t, err)

	assert.Equal(t, "smoke", draft.Name)
	assert.Equal(t, 12, draft.MaxTurns)
	assert.Equal(t, "gpt-4o-mini", draft.UserModel)
}

func TestDraftFromAnswersRejectsBadMaxTurns(t *testing.T) {
	_, err := draftFromAnswers(map[string]any{
		"name":      "smoke",
		"mode":      "simulate",
		"max_turns": "0",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max turns")
}

func TestRequireNonEmpty(t *testing.T) {
	validate := requireNonEmpty("eval name")
	assert.NoError(t, validate("ok"))
	assert.EqualError(t, validate("   "), "eval name is required")
}

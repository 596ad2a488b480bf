package driver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spboyer/promptlab/internal/gateway"
	"github.com/spboyer/promptlab/internal/models"
	"github.com/spboyer/promptlab/internal/store"
)

func generateSpec() *models.EvalSpec {
	return &models.EvalSpec{
		SpecIdentity: models.SpecIdentity{Name: "support-eval"},
		Mode:         models.ModeGenerate,
		Dataset:      "data.csv",
		Assistant:    models.AgentConfig{Provider: "assistant-provider", Model: "assistant-model"},
		Judge:        models.AgentConfig{Provider: "judge-provider", Model: "judge-model"},
		Rubric: models.Rubric{
			Fields: []models.RubricField{
				{Name: "accuracy", Kind: models.KindNumber},
			},
		},
	}
}

func simulateSpec() *models.EvalSpec {
	spec := generateSpec()
	spec.Mode = models.ModeSimulate
	spec.User = models.AgentConfig{Provider: "user-provider", Model: "user-model"}
	spec.Simulation = models.SimulationOpts{MaxTurns: 2}
	return spec
}

func fixedResolver(assistant, user, judge gateway.Client) Resolver {
	return func(provider string) (gateway.Client, error) {
		switch provider {
		case "assistant-provider":
			return assistant, nil
		case "user-provider":
			return user, nil
		case "judge-provider":
			return judge, nil
		default:
			return nil, fmt.Errorf("provider %q: %w", provider, gateway.ErrUnknownProvider)
		}
	}
}

func scoringJudge() *gateway.ScriptedClient {
	judge := gateway.NewScriptedClient()
	judge.StructuredReply = map[string]any{"accuracy": 4.0}
	return judge
}

func entries(n int) []models.DatasetEntry {
	out := make([]models.DatasetEntry, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.DatasetEntry{
			EntryID: fmt.Sprintf("e%d", i),
			Input:   fmt.Sprintf("question %d", i),
		})
	}
	return out
}

func TestRunBatchGenerateMode(t *testing.T) {
	assistant := gateway.NewScriptedClient("the answer")
	memory := store.NewMemoryStore()

	var events []ProgressEvent
	runner := NewBatchRunner(generateSpec(),
		WithResolver(fixedResolver(assistant, nil, scoringJudge())),
		WithStore(memory),
		WithProgressListener(func(event ProgressEvent) {
			events = append(events, event)
		}),
	)

	outcome := runner.RunBatch(context.Background(), entries(2))

	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.Err)
	assert.Empty(t, outcome.Failures)
	require.Len(t, outcome.Results, 2)
	assert.Equal(t, "e1", outcome.Results[0].EntryID)
	assert.Equal(t, 4.0, outcome.Results[0].Metrics["accuracy"])

	// One progress event per entry, after the entry completed.
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].CurrentIndex)
	assert.Equal(t, 2, events[0].Total)
	assert.Equal(t, 50.0, events[0].PercentComplete)
	assert.Equal(t, 100.0, events[1].PercentComplete)

	// Transcript then result were persisted for each entry.
	transcripts, err := memory.Transcripts().ToArray(context.Background())
	require.NoError(t, err)
	assert.Len(t, transcripts, 2)
	assert.Equal(t, "single_shot", transcripts[0].StopReason)

	results, err := memory.Results().ToArray(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, transcripts[0].ID, results[0].TranscriptID)
}

func TestRunBatchSimulateMode(t *testing.T) {
	assistant := gateway.NewScriptedClient("assistant reply")
	user := gateway.NewScriptedClient("user reply")
	memory := store.NewMemoryStore()

	runner := NewBatchRunner(simulateSpec(),
		WithResolver(fixedResolver(assistant, user, scoringJudge())),
		WithStore(memory),
	)

	seeded := entries(1)
	seeded[0].SeedMessage = "Hello, I have a problem."

	outcome := runner.RunBatch(context.Background(), seeded)

	assert.True(t, outcome.Success)
	require.Len(t, outcome.Results, 1)

	transcripts, err := memory.Transcripts().ToArray(context.Background())
	require.NoError(t, err)
	require.Len(t, transcripts, 1)
	assert.Equal(t, "budget_exhausted", transcripts[0].StopReason)

	// Seed plus two generated turns.
	assert.Len(t, transcripts[0].Turns, 3)
	assert.Equal(t, "Hello, I have a problem.", transcripts[0].Turns[0].Content)
}

func TestRunBatchEntryFailureIsolated(t *testing.T) {
	assistant := gateway.NewScriptedClient()
	assistant.TextErr = errors.New("model unavailable")

	runner := NewBatchRunner(generateSpec(),
		WithResolver(fixedResolver(assistant, nil, scoringJudge())),
	)

	outcome := runner.RunBatch(context.Background(), entries(3))

	// Per-entry failures do not fail the batch.
	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.Results)
	require.Len(t, outcome.Failures, 3)
	assert.Equal(t, "generation", outcome.Failures[0].Stage)
	assert.Equal(t, "e1", outcome.Failures[0].EntryID)
	assert.Contains(t, outcome.Failures[0].Message, "model unavailable")
}

func TestRunBatchScoringFailureStillSucceeds(t *testing.T) {
	assistant := gateway.NewScriptedClient("the answer")
	judge := gateway.NewScriptedClient("not json at all")
	judge.StructuredErr = errors.New("schema refused")

	runner := NewBatchRunner(generateSpec(),
		WithResolver(fixedResolver(assistant, nil, judge)),
	)

	outcome := runner.RunBatch(context.Background(), entries(1))

	// Scoring degradation is not an entry failure: the result carries the
	// sentinel metric instead.
	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.Failures)
	require.Len(t, outcome.Results, 1)
	assert.True(t, outcome.Results[0].Failed())
}

func TestRunBatchMissingCredentialsFailsFast(t *testing.T) {
	assistant := gateway.NewScriptedClient("reply")

	resolver := func(provider string) (gateway.Client, error) {
		if provider == "judge-provider" {
			return nil, fmt.Errorf("provider %q: %w", provider, gateway.ErrMissingAPIKey)
		}
		return assistant, nil
	}

	runner := NewBatchRunner(generateSpec(), WithResolver(resolver))
	outcome := runner.RunBatch(context.Background(), entries(2))

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Err, "judge agent")
	assert.Empty(t, outcome.Results)

	// Fail-fast: no model call was made.
	assert.Equal(t, 0, assistant.TextCalls())
}

func TestRunBatchInvalidSpecFailsFast(t *testing.T) {
	spec := generateSpec()
	spec.Dataset = ""

	runner := NewBatchRunner(spec,
		WithResolver(fixedResolver(gateway.NewScriptedClient("x"), nil, scoringJudge())),
	)
	outcome := runner.RunBatch(context.Background(), entries(1))

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Err, "invalid eval spec")
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewBatchRunner(generateSpec(),
		WithResolver(fixedResolver(gateway.NewScriptedClient("x"), nil, scoringJudge())),
	)
	outcome := runner.RunBatch(ctx, entries(5))

	assert.False(t, outcome.Success)
	assert.Equal(t, "batch cancelled", outcome.Err)
	assert.Empty(t, outcome.Results)
}

func TestRunBatchSimulateFailureKeepsPartialTranscript(t *testing.T) {
	assistant := gateway.NewScriptedClient()
	assistant.TextErr = errors.New("model unavailable")
	user := gateway.NewScriptedClient("user reply")
	memory := store.NewMemoryStore()

	runner := NewBatchRunner(simulateSpec(),
		WithResolver(fixedResolver(assistant, user, scoringJudge())),
		WithStore(memory),
	)

	seeded := entries(1)
	seeded[0].SeedMessage = "Hello, I have a problem."

	outcome := runner.RunBatch(context.Background(), seeded)

	assert.True(t, outcome.Success)
	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, "generation", outcome.Failures[0].Stage)

	// The seed turn taken before the model failure survives in the store.
	transcripts, err := memory.Transcripts().ToArray(context.Background())
	require.NoError(t, err)
	require.Len(t, transcripts, 1)
	assert.Equal(t, "failed", transcripts[0].StopReason)
	require.Len(t, transcripts[0].Turns, 1)
	assert.Equal(t, "Hello, I have a problem.", transcripts[0].Turns[0].Content)
}

func TestRunBatchCancelledMidSimulationSkipsScoring(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assistant := gateway.NewMockClient(ctrl)
	assistant.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, gateway.GenerateRequest) (string, error) {
			cancel()
			return "partial reply", nil
		})

	// No expectations: any judge call fails the test.
	judge := gateway.NewMockClient(ctrl)

	user := gateway.NewScriptedClient("user reply")
	memory := store.NewMemoryStore()

	runner := NewBatchRunner(simulateSpec(),
		WithResolver(fixedResolver(assistant, user, judge)),
		WithStore(memory),
	)

	seeded := entries(2)
	seeded[0].SeedMessage = "Hi."
	seeded[1].SeedMessage = "Hi again."

	outcome := runner.RunBatch(ctx, seeded)

	// The first entry is cut short, the second never starts.
	assert.False(t, outcome.Success)
	assert.Equal(t, "batch cancelled", outcome.Err)
	assert.Empty(t, outcome.Results)
	require.Len(t, outcome.Failures, 1)
	assert.Contains(t, outcome.Failures[0].Message, "cancelled")

	// The truncated transcript is kept even though scoring was skipped.
	transcripts, err := memory.Transcripts().ToArray(context.Background())
	require.NoError(t, err)
	require.Len(t, transcripts, 1)
	assert.Equal(t, "cancelled", transcripts[0].StopReason)
	assert.Len(t, transcripts[0].Turns, 2)
}

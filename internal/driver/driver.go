package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spboyer/promptlab/internal/gateway"
	"github.com/spboyer/promptlab/internal/models"
	"github.com/spboyer/promptlab/internal/scorer"
	"github.com/spboyer/promptlab/internal/session"
	"github.com/spboyer/promptlab/internal/simulator"
	"github.com/spboyer/promptlab/internal/store"
)

// ProgressEvent is delivered to progress listeners once per processed entry.
type ProgressEvent struct {
	CurrentIndex    int
	Total           int
	Description     string
	PercentComplete float64
}

// ProgressListener receives progress updates.
type ProgressListener func(event ProgressEvent)

// EntryFailure records one dataset entry that could not be scored. The batch
// continues past it.
type EntryFailure struct {
	EntryID string `json:"entry_id"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// BatchOutcome is the result of one batch run. Success reports whether the
// batch loop itself completed, not whether every entry scored cleanly.
type BatchOutcome struct {
	Success  bool                 `json:"success"`
	Results  []models.ScoreResult `json:"results"`
	Failures []EntryFailure       `json:"failures,omitempty"`
	Err      string               `json:"error,omitempty"`
}

// Resolver produces a model client for a provider. The default wraps
// gateway.Resolve with an environment API-key lookup.
type Resolver func(provider string) (gateway.Client, error)

// BatchRunner sequences dataset entries through generation and scoring,
// strictly one entry at a time.
type BatchRunner struct {
	spec       *models.EvalSpec
	resolver   Resolver
	store      store.Store
	logger     *slog.Logger
	sessionLog session.Logger

	listenerMu sync.Mutex
	listeners  []ProgressListener
}

// RunnerOption configures a BatchRunner.
type RunnerOption func(*BatchRunner)

// WithResolver overrides how provider names become model clients.
func WithResolver(resolver Resolver) RunnerOption {
	return func(r *BatchRunner) {
		r.resolver = resolver
	}
}

// WithStore enables transcript and result persistence.
func WithStore(s store.Store) RunnerOption {
	return func(r *BatchRunner) {
		r.store = s
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *BatchRunner) {
		r.logger = logger
	}
}

// WithSessionLogger records batch events to a session log.
func WithSessionLogger(logger session.Logger) RunnerOption {
	return func(r *BatchRunner) {
		r.sessionLog = logger
	}
}

// WithProgressListener registers a progress listener.
func WithProgressListener(listener ProgressListener) RunnerOption {
	return func(r *BatchRunner) {
		r.listeners = append(r.listeners, listener)
	}
}

// NewBatchRunner creates a runner for one eval spec.
func NewBatchRunner(spec *models.EvalSpec, opts ...RunnerOption) *BatchRunner {
	r := &BatchRunner{
		spec:       spec,
		resolver:   envResolver,
		logger:     slog.Default(),
		sessionLog: session.NopLogger{},
		listeners:  []ProgressListener{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnProgress registers a progress listener.
func (r *BatchRunner) OnProgress(listener ProgressListener) {
	r.listenerMu.Lock()
	defer r.listenerMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *BatchRunner) notifyProgress(event ProgressEvent) {
	r.listenerMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.listenerMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// envResolver is the default Resolver, backed by environment credentials.
func envResolver(provider string) (gateway.Client, error) {
	return gateway.ResolveFromEnv(provider)
}

// clients holds the resolved model clients for one batch. Resolution happens
// once, before any model call, so credential problems fail the whole batch
// fast.
type clients struct {
	assistant gateway.Client
	user      gateway.Client
	judge     gateway.Client
}

func (r *BatchRunner) resolveClients() (*clients, error) {
	c := &clients{}
	var err error

	if c.assistant, err = r.resolver(r.spec.Assistant.Provider); err != nil {
		return nil, fmt.Errorf("assistant agent: %w", err)
	}
	if r.spec.Mode == models.ModeSimulate {
		if c.user, err = r.resolver(r.spec.User.Provider); err != nil {
			return nil, fmt.Errorf("user agent: %w", err)
		}
	}
	if c.judge, err = r.resolver(r.spec.Judge.Provider); err != nil {
		return nil, fmt.Errorf("judge agent: %w", err)
	}

	return c, nil
}

// RunBatch processes every entry sequentially: generation, transcript
// persistence, scoring, then a progress event. A single entry's failure is
// recorded and skipped; configuration errors fail the batch before any model
// call.
func (r *BatchRunner) RunBatch(ctx context.Context, entries []models.DatasetEntry) BatchOutcome {
	if err := r.spec.Validate(); err != nil {
		return BatchOutcome{Err: fmt.Sprintf("invalid eval spec: %v", err)}
	}

	cl, err := r.resolveClients()
	if err != nil {
		return BatchOutcome{Err: err.Error()}
	}

	total := len(entries)
	startTime := time.Now()
	_ = r.sessionLog.Log(session.NewEvent(session.EventBatchStart,
		session.BatchStartData(r.spec.Name, string(r.spec.Mode), total)))

	// Progress dispatch runs on its own goroutine so slow listeners cannot
	// delay the next entry's start. The channel is buffered for the whole
	// batch, so sends never block the loop.
	events := make(chan ProgressEvent, total+1)
	var group errgroup.Group
	group.Go(func() error {
		for event := range events {
			r.notifyProgress(event)
		}
		return nil
	})

	outcome := BatchOutcome{Results: []models.ScoreResult{}}

	for i, entry := range entries {
		if ctx.Err() != nil {
			outcome.Err = "batch cancelled"
			break
		}

		entryStart := time.Now()
		_ = r.sessionLog.Log(session.NewEvent(session.EventEntryStart,
			session.EntryStartData(entry.Name(), i+1, total)))

		result, stopReason, turns, failure := r.runEntry(ctx, cl, entry)
		if failure != nil {
			outcome.Failures = append(outcome.Failures, *failure)
			r.logger.Warn("entry failed",
				"entry", entry.Name(),
				"stage", failure.Stage,
				"error", failure.Message)
			_ = r.sessionLog.Log(session.NewEvent(session.EventError,
				session.ErrorData(failure.Message, map[string]any{"entry_name": entry.Name(), "stage": failure.Stage})))
		} else {
			outcome.Results = append(outcome.Results, *result)
		}

		_ = r.sessionLog.Log(session.NewEvent(session.EventEntryComplete,
			session.EntryCompleteData(entry.Name(), stopReason, turns, time.Since(entryStart).Milliseconds())))

		events <- ProgressEvent{
			CurrentIndex:    i + 1,
			Total:           total,
			Description:     entry.Name(),
			PercentComplete: float64(i+1) / float64(total) * 100,
		}
	}

	close(events)
	_ = group.Wait()

	_ = r.sessionLog.Log(session.NewEvent(session.EventBatchComplete,
		session.BatchCompleteData(total, len(outcome.Results), len(outcome.Failures), time.Since(startTime).Milliseconds())))

	outcome.Success = outcome.Err == ""
	return outcome
}

// runEntry takes one entry through generation and scoring. Simulator and
// scorer state is constructed fresh per entry and never shared.
func (r *BatchRunner) runEntry(ctx context.Context, cl *clients, entry models.DatasetEntry) (*models.ScoreResult, string, int, *EntryFailure) {
	transcript, stopReason, err := r.generate(ctx, cl, entry)
	if err != nil {
		// A mid-run model failure still yields the turns taken so far.
		// Persist them so partial progress survives the failed entry.
		if len(transcript) > 0 {
			r.persistTranscript(ctx, entry, transcript, stopReason)
		}
		return nil, stopReason, len(transcript), &EntryFailure{EntryID: entry.EntryID, Stage: "generation", Message: err.Error()}
	}

	record := r.persistTranscript(ctx, entry, transcript, stopReason)

	// A cancelled run keeps its truncated transcript but is never scored:
	// the judge call would fail on the same cancelled context and leave a
	// spurious scoring-error result behind.
	if stopReason == string(simulator.StopCancelled) {
		return nil, stopReason, len(transcript), &EntryFailure{EntryID: entry.EntryID, Stage: "generation", Message: "simulation cancelled"}
	}

	var scorerOpts []scorer.Option
	if r.store != nil {
		scorerOpts = append(scorerOpts, scorer.WithResultStore(r.store.Results()))
	}
	scorerOpts = append(scorerOpts, scorer.WithLogger(r.logger))

	s := scorer.NewScorer(cl.judge, scorerOpts...)
	result, err := s.Score(ctx, scorer.ScoreRequest{
		Transcript:   transcript,
		TranscriptID: record.ID,
		Entry:        entry,
		Rubric:       r.spec.Rubric,
		Judge:        r.spec.Judge,
	})
	if err != nil {
		return nil, stopReason, len(transcript), &EntryFailure{EntryID: entry.EntryID, Stage: "scoring", Message: err.Error()}
	}

	_ = r.sessionLog.Log(session.NewEvent(session.EventScore,
		session.ScoreData(entry.Name(), result.ID, result.Failed())))

	return &result, stopReason, len(transcript), nil
}

// persistTranscript records the transcript in the store. Persistence failures
// are logged, never fatal: the batch keeps its in-memory results either way.
func (r *BatchRunner) persistTranscript(ctx context.Context, entry models.DatasetEntry, transcript models.Transcript, stopReason string) models.TranscriptRecord {
	record := models.TranscriptRecord{
		ID:         uuid.NewString(),
		EntryID:    entry.EntryID,
		Turns:      transcript,
		StopReason: stopReason,
		CreatedAt:  time.Now().UTC(),
	}
	if r.store != nil {
		// Detached from ctx so a cancelled run still keeps its partial
		// transcript.
		if err := r.store.Transcripts().Add(context.WithoutCancel(ctx), record); err != nil {
			r.logger.Warn("failed to persist transcript",
				"transcript", record.ID,
				"error", err)
		}
	}
	return record
}

// generate produces a transcript for the entry, either by running the
// two-agent simulation or with a single-shot completion.
func (r *BatchRunner) generate(ctx context.Context, cl *clients, entry models.DatasetEntry) (models.Transcript, string, error) {
	if r.spec.Mode == models.ModeSimulate {
		sim := simulator.NewSimulator(cl.assistant, cl.user, simulator.WithTurnListener(func(event simulator.TurnEvent) {
			_ = r.sessionLog.Log(session.NewEvent(session.EventTurn,
				session.TurnData(entry.Name(), string(event.Speaker), event.Index, event.Seeded)))
		}))

		seed := entry.SeedMessage
		if seed == "" {
			seed = entry.Input
		}

		transcript, stopReason, err := sim.Run(ctx, simulator.RunRequest{
			Assistant:    r.spec.Assistant,
			User:         r.spec.User,
			MaxTurns:     r.spec.Simulation.MaxTurns,
			Seed:         seed,
			FirstSpeaker: simulator.Speaker(r.spec.Simulation.FirstSpeaker),
		})
		// The partial transcript travels with the error.
		return transcript, string(stopReason), err
	}

	messages := []gateway.Message{}
	if r.spec.Assistant.SystemInstruction != "" {
		messages = append(messages, gateway.Message{Role: models.RoleSystem, Content: r.spec.Assistant.SystemInstruction})
	}
	messages = append(messages, gateway.Message{Role: models.RoleUser, Content: entry.Input})

	reply, err := cl.assistant.GenerateText(ctx, gateway.GenerateRequest{
		Model:       r.spec.Assistant.Model,
		Messages:    messages,
		Temperature: r.spec.Assistant.Temperature,
		MaxTokens:   r.spec.Assistant.MaxTokens,
		TopP:        r.spec.Assistant.TopP,
	})
	if err != nil {
		return nil, "", fmt.Errorf("single-shot generation: %w", err)
	}

	transcript := models.Transcript{}.
		Append(models.RoleUser, entry.Input).
		Append(models.RoleAssistant, reply)
	return transcript, "single_shot", nil
}

package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spboyer/promptlab/internal/gateway"
	"github.com/spboyer/promptlab/internal/models"
	"github.com/spboyer/promptlab/internal/store"
)

// ScoreRequest carries everything one scoring call needs.
type ScoreRequest struct {
	Transcript   models.Transcript
	TranscriptID string
	Entry        models.DatasetEntry
	Rubric       models.Rubric
	Judge        models.AgentConfig
}

// Scorer asks a judge model to score a transcript against a rubric.
//
// Scoring never fails the caller: when every strategy fails, the returned
// result carries a single sentinel metric recording the failure so a flaky
// judge cannot abort a batch.
type Scorer struct {
	judge   gateway.Client
	results store.Collection[models.ScoreResult]
	logger  *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithResultStore enables best-effort persistence of results before they are
// returned.
func WithResultStore(results store.Collection[models.ScoreResult]) Option {
	return func(s *Scorer) {
		s.results = results
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) {
		s.logger = logger
	}
}

// NewScorer creates a scorer over the judge's model client.
func NewScorer(judge gateway.Client, opts ...Option) *Scorer {
	s := &Scorer{
		judge:  judge,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// strategy is one way of getting a metrics mapping out of the judge.
// Strategies run in order; the first success wins.
type strategy struct {
	name string
	run  func(ctx context.Context) (map[string]any, error)
}

// Score runs the scoring strategy chain for one transcript. The structured
// path runs only when the rubric declares fields; the text fallback always
// closes the chain. The returned error is non-nil only for empty input, never
// for judge failures.
func (s *Scorer) Score(ctx context.Context, req ScoreRequest) (models.ScoreResult, error) {
	if len(req.Transcript) == 0 {
		return models.ScoreResult{}, fmt.Errorf("cannot score an empty transcript")
	}

	prompt := buildScoringPrompt(req.Entry, req.Transcript)
	instruction := req.Rubric.Instructions
	if instruction == "" {
		instruction = defaultJudgeInstruction
	}

	var strategies []strategy
	if !req.Rubric.Empty() {
		strategies = append(strategies, strategy{
			name: "structured",
			run: func(ctx context.Context) (map[string]any, error) {
				return s.scoreStructured(ctx, req, prompt, instruction)
			},
		})
	}
	strategies = append(strategies, strategy{
		name: "text",
		run: func(ctx context.Context) (map[string]any, error) {
			return s.scoreText(ctx, req, prompt, instruction)
		},
	})

	var metrics map[string]any
	var failures []string

	for _, strat := range strategies {
		got, err := strat.run(ctx)
		if err == nil {
			metrics = got
			break
		}
		failures = append(failures, fmt.Sprintf("%s: %v", strat.name, err))
		s.logger.Warn("scoring strategy failed",
			"strategy", strat.name,
			"entry", req.Entry.Name(),
			"error", err)
	}

	if metrics == nil {
		metrics = map[string]any{
			models.ScoringErrorKey: strings.Join(failures, "; "),
		}
	}

	result := models.ScoreResult{
		ID:           uuid.NewString(),
		Metrics:      metrics,
		TranscriptID: req.TranscriptID,
		EntryID:      req.Entry.EntryID,
		Timestamp:    time.Now().UTC(),
	}

	if s.results != nil {
		if err := s.results.Add(ctx, result); err != nil {
			s.logger.Warn("failed to persist score result",
				"result", result.ID,
				"error", err)
		}
	}

	return result, nil
}

func (s *Scorer) scoreStructured(ctx context.Context, req ScoreRequest, prompt, instruction string) (map[string]any, error) {
	obj, err := s.judge.GenerateStructured(ctx, gateway.StructuredRequest{
		Model:             req.Judge.Model,
		Prompt:            prompt,
		SystemInstruction: instruction,
		SchemaName:        "rubric_scores",
		Schema:            BuildSchema(req.Rubric),
		Temperature:       req.Judge.Temperature,
		MaxTokens:         req.Judge.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *Scorer) scoreText(ctx context.Context, req ScoreRequest, prompt, instruction string) (map[string]any, error) {
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\n")
	if hints := rubricFieldHints(req.Rubric); hints != "" {
		sb.WriteString(hints)
		sb.WriteString("\n")
	}
	sb.WriteString(jsonOnlyDirective)

	text, err := s.judge.GenerateText(ctx, gateway.GenerateRequest{
		Model: req.Judge.Model,
		Messages: []gateway.Message{
			{Role: models.RoleSystem, Content: instruction},
			{Role: models.RoleUser, Content: sb.String()},
		},
		Temperature: req.Judge.Temperature,
		MaxTokens:   req.Judge.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	raw, ok := gateway.FirstJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("no JSON object in judge response")
	}

	var metrics map[string]any
	if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
		return nil, fmt.Errorf("parsing judge response: %w", err)
	}
	return metrics, nil
}

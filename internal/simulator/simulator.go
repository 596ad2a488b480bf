package simulator

import (
	"context"
	"fmt"
	"sync"

	"github.com/spboyer/promptlab/internal/gateway"
	"github.com/spboyer/promptlab/internal/models"
)

// Speaker identifies which conversational role generates the next turn.
type Speaker string

const (
	SpeakerAssistant Speaker = "assistant"
	SpeakerUser      Speaker = "user"
	SpeakerNone      Speaker = "none"
)

// StopReason reports why a simulation run ended.
type StopReason string

const (
	// StopNatural means a turn matched a termination pattern.
	StopNatural StopReason = "natural"

	// StopBudget means the turn budget ran out before a termination signal.
	StopBudget StopReason = "budget_exhausted"

	// StopCancelled means the context was cancelled between turns.
	StopCancelled StopReason = "cancelled"

	// StopFailed means a model call failed mid-run. Returned together with
	// the error and the partial transcript.
	StopFailed StopReason = "failed"
)

// RunRequest describes one simulation run.
type RunRequest struct {
	Assistant models.AgentConfig
	User      models.AgentConfig

	// MaxTurns bounds the total number of generated turns across both
	// speakers. The seed turn is not generated and does not count.
	MaxTurns int

	// Seed, when non-empty, becomes the first speaker's opening turn
	// verbatim, with no model call.
	Seed string

	// FirstSpeaker defaults to SpeakerUser when empty.
	FirstSpeaker Speaker
}

// TurnEvent is delivered to turn listeners after each appended turn.
type TurnEvent struct {
	Index   int
	Speaker Speaker
	Role    models.Role
	Content string
	Seeded  bool
}

// TurnListener receives turn updates for live display.
type TurnListener func(event TurnEvent)

// runState is the per-run state machine. Never reused across runs.
type runState struct {
	turnsTaken int
	active     bool
	speaker    Speaker
}

// Simulator drives a two-agent conversation: an assistant agent and a
// simulated-user agent take turns, each seeing the history remapped to its
// own perspective.
type Simulator struct {
	assistant gateway.Client
	user      gateway.Client

	isTerminal func(text string) bool

	listenerMu sync.Mutex
	listeners  []TurnListener
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithTurnListener registers a listener invoked after every appended turn.
func WithTurnListener(listener TurnListener) Option {
	return func(s *Simulator) {
		s.listeners = append(s.listeners, listener)
	}
}

// WithTerminationFunc overrides the default termination heuristics.
func WithTerminationFunc(fn func(text string) bool) Option {
	return func(s *Simulator) {
		s.isTerminal = fn
	}
}

// NewSimulator creates a simulator over the two agents' model clients.
func NewSimulator(assistant, user gateway.Client, opts ...Option) *Simulator {
	s := &Simulator{
		assistant:  assistant,
		user:       user,
		isTerminal: IsTerminal,
		listeners:  []TurnListener{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnTurn registers a turn listener.
func (s *Simulator) OnTurn(listener TurnListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *Simulator) notifyTurn(event TurnEvent) {
	s.listenerMu.Lock()
	listeners := make([]TurnListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run executes one simulation to completion. The returned transcript is valid
// for every stop reason; on StopFailed it holds the turns completed before
// the failing call, and the error describes the failure. Cancellation is
// checked between turns only, never mid-call, and leaves the transcript
// as-is.
func (s *Simulator) Run(ctx context.Context, req RunRequest) (models.Transcript, StopReason, error) {
	if req.MaxTurns < 1 {
		return nil, StopFailed, fmt.Errorf("max turns must be >= 1, got %d", req.MaxTurns)
	}

	first := req.FirstSpeaker
	if first == "" || first == SpeakerNone {
		first = SpeakerUser
	}

	state := &runState{active: true, speaker: first}
	transcript := models.Transcript{}

	if req.Seed != "" {
		transcript = transcript.Append(roleFor(state.speaker), req.Seed)
		s.notifyTurn(TurnEvent{
			Index:   0,
			Speaker: state.speaker,
			Role:    roleFor(state.speaker),
			Content: req.Seed,
			Seeded:  true,
		})

		if s.isTerminal(req.Seed) {
			state.active = false
			state.speaker = SpeakerNone
			return transcript, StopNatural, nil
		}
		state.speaker = other(state.speaker)
	}

	for state.active {
		if ctx.Err() != nil {
			state.active = false
			state.speaker = SpeakerNone
			return transcript, StopCancelled, nil
		}

		if state.turnsTaken >= req.MaxTurns {
			state.active = false
			state.speaker = SpeakerNone
			return transcript, StopBudget, nil
		}

		cfg := req.Assistant
		client := s.assistant
		if state.speaker == SpeakerUser {
			cfg = req.User
			client = s.user
		}

		messages := make([]gateway.Message, 0, len(transcript)+1)
		if cfg.SystemInstruction != "" {
			messages = append(messages, gateway.Message{
				Role:    models.RoleSystem,
				Content: cfg.SystemInstruction,
			})
		}
		messages = append(messages, RemapForSpeaker(transcript, state.speaker)...)

		text, err := client.GenerateText(ctx, gateway.GenerateRequest{
			Model:       cfg.Model,
			Messages:    messages,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			TopP:        cfg.TopP,
		})
		if err != nil {
			state.active = false
			state.speaker = SpeakerNone
			return transcript, StopFailed, fmt.Errorf("generating %s turn %d: %w", state.speaker, state.turnsTaken+1, err)
		}

		transcript = transcript.Append(roleFor(state.speaker), text)
		state.turnsTaken++

		s.notifyTurn(TurnEvent{
			Index:   len(transcript) - 1,
			Speaker: state.speaker,
			Role:    roleFor(state.speaker),
			Content: text,
		})

		if s.isTerminal(text) {
			state.active = false
			state.speaker = SpeakerNone
			return transcript, StopNatural, nil
		}

		state.speaker = other(state.speaker)
	}

	return transcript, StopBudget, nil
}

// roleFor maps a speaker to the role its turns carry in the transcript.
func roleFor(speaker Speaker) models.Role {
	if speaker == SpeakerAssistant {
		return models.RoleAssistant
	}
	return models.RoleUser
}

func other(speaker Speaker) Speaker {
	if speaker == SpeakerAssistant {
		return SpeakerUser
	}
	return SpeakerAssistant
}

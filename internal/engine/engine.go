// Package engine orchestrates negotiation runs.
//
// A run alternates turns between the two agents, consults the referee
// after each round, and finishes with the full judge analysis and the
// concession report. Progress is streamed over an event channel.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parleylab/parley/internal/agent"
	"github.com/parleylab/parley/internal/analysis"
	"github.com/parleylab/parley/internal/core"
	"github.com/parleylab/parley/internal/judge"
	"github.com/parleylab/parley/internal/storage"
)

// DefaultMaxRounds caps a negotiation when no limit is configured.
const DefaultMaxRounds = 10

// Event is a progress notification from a running negotiation.
type Event interface {
	event()
}

// TurnEvent carries one completed turn.
type TurnEvent struct {
	Turn core.TurnRecord
}

// StatusEvent marks a lifecycle transition.
type StatusEvent struct {
	Status core.NegotiationStatus
	Round  int
	Detail string
}

// ResultEvent is the terminal event. The channel is closed after it.
// Result is always present, possibly partial; Err is set when the run
// did not complete cleanly.
type ResultEvent struct {
	Result *core.Result
	Err    error
}

func (TurnEvent) event()   {}
func (StatusEvent) event() {}
func (ResultEvent) event() {}

// Engine runs negotiations between agent pairs.
type Engine struct {
	judge  *judge.Judge
	store  storage.Storage
	logger *slog.Logger
}

// New creates an engine. The store may be nil to skip persistence.
func New(j *judge.Judge, store storage.Storage, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{judge: j, store: store, logger: logger}
}

// Run executes a negotiation and streams events. The returned channel is
// closed after the terminal ResultEvent; callers must drain it.
func (e *Engine) Run(ctx context.Context, a, b *agent.Agent, maxRounds int) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		e.run(ctx, a, b, maxRounds, events)
	}()
	return events
}

// RunSync executes a negotiation and blocks until it finishes.
func (e *Engine) RunSync(ctx context.Context, a, b *agent.Agent, maxRounds int) (*core.Result, error) {
	var final ResultEvent
	for ev := range e.Run(ctx, a, b, maxRounds) {
		if re, ok := ev.(ResultEvent); ok {
			final = re
		}
	}
	return final.Result, final.Err
}

func (e *Engine) run(ctx context.Context, a, b *agent.Agent, maxRounds int, events chan<- Event) {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	result := &core.Result{
		ID:        core.GenerateID(),
		Scenario:  a.Scenario.Name,
		PersonaA:  a.Persona.ID,
		PersonaB:  b.Persona.ID,
		Status:    core.StatusInProgress,
		MaxRounds: maxRounds,
		CreatedAt: time.Now().UTC(),
	}
	if a.Scenario != b.Scenario && a.Scenario.Name != b.Scenario.Name {
		result.Status = core.StatusFailed
		e.finish(ctx, result, a, b, events, fmt.Errorf("agents are negotiating different scenarios"))
		return
	}

	a.Reset()
	b.Reset()

	e.logger.Info("negotiation started",
		"id", result.ID,
		"scenario", result.Scenario,
		"persona_a", result.PersonaA,
		"persona_b", result.PersonaB,
		"max_rounds", maxRounds)
	events <- StatusEvent{Status: core.StatusInProgress, Round: 0}

	var earlyVerdict *core.Verdict
	for round := 1; round <= maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			result.Status = core.StatusFailed
			result.RoundsUsed = round - 1
			e.finish(ctx, result, a, b, events, fmt.Errorf("negotiation cancelled: %w", err))
			return
		}

		msgA, err := e.takeTurn(ctx, a, round, result, events)
		if err != nil {
			result.Status = core.StatusFailed
			result.RoundsUsed = round
			e.finish(ctx, result, a, b, events, err)
			return
		}
		b.ReceiveMessage(msgA)

		msgB, err := e.takeTurn(ctx, b, round, result, events)
		if err != nil {
			result.Status = core.StatusFailed
			result.RoundsUsed = round
			e.finish(ctx, result, a, b, events, err)
			return
		}
		a.ReceiveMessage(msgB)

		result.RoundsUsed = round

		verdict := e.judge.CheckRound(ctx, msgA, msgB, round)
		n := len(result.Turns)
		result.Turns[n-2].PriceOffer = verdict.PartyAOffer
		result.Turns[n-1].PriceOffer = verdict.PartyBOffer
		events <- StatusEvent{Status: core.StatusInProgress, Round: round, Detail: verdict.Explanation}

		if verdict.AgreementReached && verdict.AgreedPrice != nil {
			e.logger.Info("agreement reached", "id", result.ID, "round", round, "price", *verdict.AgreedPrice)
			earlyVerdict = &verdict
			break
		}
	}

	e.conclude(ctx, result, a, b, earlyVerdict)
	e.finish(ctx, result, a, b, events, nil)
}

// takeTurn generates, records, and emits one turn. A generation failure
// still records the marked error turn before returning the error.
func (e *Engine) takeTurn(ctx context.Context, ag *agent.Agent, round int, result *core.Result, events chan<- Event) (string, error) {
	text, err := ag.GenerateMessage(ctx, round)
	turn := core.TurnRecord{
		ID:        core.GenerateID(),
		Round:     round,
		Party:     ag.Party,
		Persona:   ag.Persona.ID,
		Text:      text,
		IsError:   err != nil,
		CreatedAt: time.Now().UTC(),
	}
	result.Turns = append(result.Turns, turn)
	e.logger.Debug("turn completed", "id", result.ID, "round", round, "party", ag.Party, "error", turn.IsError)
	events <- TurnEvent{Turn: turn}
	return text, err
}

// conclude runs the full judge analysis and the concession report for a
// negotiation that ended normally. A same-round referee agreement takes
// precedence over the analysis terms but keeps its narrative.
func (e *Engine) conclude(ctx context.Context, result *core.Result, a, b *agent.Agent, early *core.Verdict) {
	final := e.judge.Analyze(ctx, result.Turns, a.Scenario)
	if early != nil {
		final.AgreementReached = true
		final.Terms = &core.Terms{Price: *early.AgreedPrice}
		final.StoppedEarly = true
	}
	result.Judge = &final
	result.AgreementReached = final.AgreementReached
	result.Terms = final.Terms
	result.Status = core.StatusCompleted

	report := analysis.AnalyzeNegotiation(result.Turns, a.Profile(), b.Profile())
	result.Concessions = &report

	if result.Terms != nil {
		result.UtilityA = core.Float(a.CalculateUtility(result.Terms.Price))
		result.UtilityB = core.Float(b.CalculateUtility(result.Terms.Price))
	}
}

// finish persists the result and emits the terminal event. Persistence
// failures are logged but never fail the run.
func (e *Engine) finish(ctx context.Context, result *core.Result, a, b *agent.Agent, events chan<- Event, runErr error) {
	result.PartyAInfo = a.Info()
	result.PartyBInfo = b.Info()

	if e.store != nil {
		saveCtx := ctx
		if saveCtx.Err() != nil {
			var cancel context.CancelFunc
			saveCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
		}
		if err := e.store.SaveNegotiation(saveCtx, result); err != nil {
			e.logger.Warn("failed to persist negotiation", "id", result.ID, "error", err)
		}
	}

	e.logger.Info("negotiation finished",
		"id", result.ID,
		"status", result.Status,
		"rounds_used", result.RoundsUsed,
		"agreement", result.AgreementReached)
	events <- StatusEvent{Status: result.Status, Round: result.RoundsUsed}
	events <- ResultEvent{Result: result, Err: runErr}
}

// Package batch runs negotiation sweeps across persona pairings.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parleylab/parley/internal/agent"
	"github.com/parleylab/parley/internal/core"
	"github.com/parleylab/parley/internal/engine"
	"github.com/parleylab/parley/internal/oracle"
	"github.com/parleylab/parley/internal/scenario"
)

// Spec describes one sweep.
type Spec struct {
	Scenario     *scenario.Scenario
	PersonaPairs [][2]string
	RunsPerPair  int
	MaxRounds    int
}

// PairSummary aggregates the runs of one persona pairing.
type PairSummary struct {
	PersonaA      string   `json:"persona_a"`
	PersonaB      string   `json:"persona_b"`
	Runs          int      `json:"runs"`
	Failures      int      `json:"failures"`
	Agreements    int      `json:"agreements"`
	AgreementRate float64  `json:"agreement_rate"`
	AvgRounds     float64  `json:"avg_rounds"`
	AvgPrice      *float64 `json:"avg_price,omitempty"`
	AvgUtilityA   *float64 `json:"avg_utility_a,omitempty"`
	AvgUtilityB   *float64 `json:"avg_utility_b,omitempty"`
}

// Summary is the sweep result.
type Summary struct {
	Scenario  string        `json:"scenario"`
	TotalRuns int           `json:"total_runs"`
	Pairs     []PairSummary `json:"pairs"`
}

// Runner executes sweeps on a shared engine and oracle.
type Runner struct {
	engine *engine.Engine
	oracle oracle.Oracle
	logger *slog.Logger
}

// NewRunner creates a batch runner.
func NewRunner(e *engine.Engine, o oracle.Oracle, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{engine: e, oracle: o, logger: logger}
}

// Run executes the sweep. Individual run failures are counted, not
// fatal; the sweep stops only on context cancellation.
func (r *Runner) Run(ctx context.Context, spec Spec) (*Summary, error) {
	if spec.Scenario == nil {
		return nil, fmt.Errorf("batch spec has no scenario")
	}
	if spec.RunsPerPair <= 0 {
		spec.RunsPerPair = 1
	}
	if len(spec.PersonaPairs) == 0 {
		return nil, fmt.Errorf("batch spec has no persona pairs")
	}

	summary := &Summary{Scenario: spec.Scenario.Name}
	for _, pair := range spec.PersonaPairs {
		ps, err := r.runPair(ctx, spec, pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		summary.Pairs = append(summary.Pairs, *ps)
		summary.TotalRuns += ps.Runs
	}
	return summary, nil
}

func (r *Runner) runPair(ctx context.Context, spec Spec, personaA, personaB string) (*PairSummary, error) {
	ps := &PairSummary{PersonaA: personaA, PersonaB: personaB}
	var rounds int
	var priceSum, utilASum, utilBSum float64

	for i := 0; i < spec.RunsPerPair; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch cancelled: %w", err)
		}

		a, err := agent.New(core.PartyA, personaA, spec.Scenario, r.oracle)
		if err != nil {
			return nil, err
		}
		b, err := agent.New(core.PartyB, personaB, spec.Scenario, r.oracle)
		if err != nil {
			return nil, err
		}

		result, err := r.engine.RunSync(ctx, a, b, spec.MaxRounds)
		ps.Runs++
		if err != nil {
			ps.Failures++
			r.logger.Warn("batch run failed",
				"persona_a", personaA, "persona_b", personaB, "run", i+1, "error", err)
			continue
		}

		rounds += result.RoundsUsed
		if result.AgreementReached && result.Terms != nil {
			ps.Agreements++
			priceSum += result.Terms.Price
			if result.UtilityA != nil {
				utilASum += *result.UtilityA
			}
			if result.UtilityB != nil {
				utilBSum += *result.UtilityB
			}
		}
	}

	completed := ps.Runs - ps.Failures
	if completed > 0 {
		ps.AgreementRate = float64(ps.Agreements) / float64(completed)
		ps.AvgRounds = float64(rounds) / float64(completed)
	}
	if ps.Agreements > 0 {
		n := float64(ps.Agreements)
		ps.AvgPrice = core.Float(priceSum / n)
		ps.AvgUtilityA = core.Float(utilASum / n)
		ps.AvgUtilityB = core.Float(utilBSum / n)
	}
	return ps, nil
}

// AllPairs builds the cross product of the given persona IDs.
func AllPairs(personas []string) [][2]string {
	var pairs [][2]string
	for _, a := range personas {
		for _, b := range personas {
			pairs = append(pairs, [2]string{a, b})
		}
	}
	return pairs
}

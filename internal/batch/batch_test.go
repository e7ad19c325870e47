package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleylab/parley/internal/engine"
	"github.com/parleylab/parley/internal/judge"
	"github.com/parleylab/parley/internal/oracle"
	"github.com/parleylab/parley/internal/scenario"
	"github.com/parleylab/parley/internal/storage"
)

const (
	agreementVerdict = `{"agreement_reached": true, "agreed_price": 750, "party_a_offer": 750, "party_b_offer": 750, "explanation": "accepted"}`
	agreementFinal   = `{"agreement_reached": true, "agreed_price": 750, "explanation": "settled at 750"}`
)

func TestRun(t *testing.T) {
	// Two runs of one pair, one round each: the shared oracle serves two
	// agent messages per run, the judge its verdict and analysis.
	agentOracle := oracle.NewScripted(
		"Asking $900.", "Deal at $750.",
		"Asking $900.", "Deal at $750.")
	judgeOracle := oracle.NewScripted(
		agreementVerdict, agreementFinal,
		agreementVerdict, agreementFinal)
	e := engine.New(judge.New(judgeOracle, nil), storage.NewMemory(), nil)
	r := NewRunner(e, agentOracle, nil)

	summary, err := r.Run(context.Background(), Spec{
		Scenario:     scenario.Builtin(),
		PersonaPairs: [][2]string{{"aggressive", "fair"}},
		RunsPerPair:  2,
		MaxRounds:    1,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalRuns)
	require.Len(t, summary.Pairs, 1)

	pair := summary.Pairs[0]
	assert.Equal(t, "aggressive", pair.PersonaA)
	assert.Equal(t, 2, pair.Agreements)
	assert.Equal(t, 1.0, pair.AgreementRate)
	assert.Equal(t, 1.0, pair.AvgRounds)
	require.NotNil(t, pair.AvgPrice)
	assert.Equal(t, 750.0, *pair.AvgPrice)
	require.NotNil(t, pair.AvgUtilityA)
	assert.InDelta(t, 0.5, *pair.AvgUtilityA, 1e-9)
}

func TestRunFailuresCounted(t *testing.T) {
	// The only scripted response covers the first agent; the second call
	// fails and the run is counted as a failure, not an error.
	agentOracle := oracle.NewScripted("Asking $900.")
	e := engine.New(judge.New(oracle.NewScripted(), nil), nil, nil)
	r := NewRunner(e, agentOracle, nil)

	summary, err := r.Run(context.Background(), Spec{
		Scenario:     scenario.Builtin(),
		PersonaPairs: [][2]string{{"none", "none"}},
		RunsPerPair:  1,
		MaxRounds:    1,
	})
	require.NoError(t, err)

	pair := summary.Pairs[0]
	assert.Equal(t, 1, pair.Runs)
	assert.Equal(t, 1, pair.Failures)
	assert.Equal(t, 0, pair.Agreements)
}

func TestRunValidation(t *testing.T) {
	r := NewRunner(engine.New(judge.New(oracle.NewScripted(), nil), nil, nil), oracle.NewScripted(), nil)

	_, err := r.Run(context.Background(), Spec{PersonaPairs: [][2]string{{"none", "none"}}})
	assert.Error(t, err, "missing scenario must fail")

	_, err = r.Run(context.Background(), Spec{Scenario: scenario.Builtin()})
	assert.Error(t, err, "missing pairs must fail")

	_, err = r.Run(context.Background(), Spec{
		Scenario:     scenario.Builtin(),
		PersonaPairs: [][2]string{{"none", "ruthless"}},
	})
	assert.Error(t, err, "unknown persona must fail")
}

func TestAllPairs(t *testing.T) {
	pairs := AllPairs([]string{"a", "b"})
	assert.Len(t, pairs, 4)
	assert.Contains(t, pairs, [2]string{"a", "b"})
	assert.Contains(t, pairs, [2]string{"b", "a"})
}

package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/parleylab/parley/internal/agent"
	"github.com/parleylab/parley/internal/core"
	"github.com/parleylab/parley/internal/judge"
	"github.com/parleylab/parley/internal/oracle"
	"github.com/parleylab/parley/internal/scenario"
	"github.com/parleylab/parley/internal/storage"
)

const (
	noAgreementVerdict = `{"agreement_reached": false, "agreed_price": null, "party_a_offer": 900, "party_b_offer": 650, "explanation": "far apart"}`
	agreementVerdict   = `{"agreement_reached": true, "agreed_price": 775, "party_a_offer": 775, "party_b_offer": 775, "explanation": "accepted"}`
	noAgreementFinal   = `{"agreement_reached": false, "agreed_price": null, "explanation": "no deal in transcript"}`
	agreementFinal     = `{"agreement_reached": true, "agreed_price": 775, "explanation": "settled at 775"}`
)

func newAgents(t *testing.T, oracleA, oracleB oracle.Oracle) (*agent.Agent, *agent.Agent) {
	t.Helper()
	sc := scenario.Builtin()
	a, err := agent.New(core.PartyA, "none", sc, oracleA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := agent.New(core.PartyB, "none", sc, oracleB)
	if err != nil {
		t.Fatal(err)
	}
	return a, b
}

func TestRunEarlyAgreement(t *testing.T) {
	a, b := newAgents(t,
		oracle.NewScripted("Asking $900.", "Let's settle at $775."),
		oracle.NewScripted("I can do $650.", "Deal, $775 works."))
	j := judge.New(oracle.NewScripted(noAgreementVerdict, agreementVerdict, agreementFinal), nil)
	store := storage.NewMemory()
	e := New(j, store, nil)

	result, err := e.RunSync(context.Background(), a, b, 10)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Status != core.StatusCompleted {
		t.Errorf("wrong status: %s", result.Status)
	}
	if !result.AgreementReached {
		t.Fatal("agreement not recorded")
	}
	if result.RoundsUsed != 2 {
		t.Errorf("rounds used: got %d, want 2", result.RoundsUsed)
	}
	if result.Terms == nil || result.Terms.Price != 775 {
		t.Errorf("wrong terms: %+v", result.Terms)
	}
	if result.Judge == nil || !result.Judge.StoppedEarly {
		t.Error("early stop not marked in judge analysis")
	}
	if result.UtilityA == nil || result.UtilityB == nil {
		t.Fatal("utilities not computed")
	}
	// Seller: (775-600)/(900-600), buyer: (775-800)/(650-800).
	if got := *result.UtilityA; got < 0.58 || got > 0.59 {
		t.Errorf("seller utility: got %v", got)
	}
	if got := *result.UtilityB; got < 0.16 || got > 0.17 {
		t.Errorf("buyer utility: got %v", got)
	}

	saved, err := store.GetNegotiation(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("result not persisted: %v", err)
	}
	if saved.RoundsUsed != 2 {
		t.Errorf("persisted result differs: %+v", saved)
	}
}

func TestRunRoundCap(t *testing.T) {
	a, b := newAgents(t,
		oracle.NewScripted("Asking $900.", "Still $900."),
		oracle.NewScripted("Only $600.", "Still $600."))
	j := judge.New(oracle.NewScripted(noAgreementVerdict, noAgreementVerdict, noAgreementFinal), nil)
	e := New(j, storage.NewMemory(), nil)

	result, err := e.RunSync(context.Background(), a, b, 2)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.AgreementReached {
		t.Error("no agreement should be recorded")
	}
	if result.RoundsUsed != 2 {
		t.Errorf("rounds used: got %d, want 2", result.RoundsUsed)
	}
	if result.Status != core.StatusCompleted {
		t.Errorf("cap without agreement still completes: got %s", result.Status)
	}
	if result.Terms != nil {
		t.Errorf("unexpected terms: %+v", result.Terms)
	}
	if result.Concessions == nil {
		t.Error("concession report missing")
	}
}

func TestRunTurnAlternation(t *testing.T) {
	a, b := newAgents(t,
		oracle.NewScripted("A1", "A2"),
		oracle.NewScripted("B1", "B2"))
	j := judge.New(oracle.NewScripted(noAgreementVerdict, noAgreementVerdict, noAgreementFinal), nil)
	e := New(j, nil, nil)

	var turns []core.TurnRecord
	for ev := range e.Run(context.Background(), a, b, 2) {
		if te, ok := ev.(TurnEvent); ok {
			turns = append(turns, te.Turn)
		}
	}

	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}
	wantParties := []core.PartyID{core.PartyA, core.PartyB, core.PartyA, core.PartyB}
	wantRounds := []int{1, 1, 2, 2}
	for i, turn := range turns {
		if turn.Party != wantParties[i] {
			t.Errorf("turn %d: got party %s, want %s", i, turn.Party, wantParties[i])
		}
		if turn.Round != wantRounds[i] {
			t.Errorf("turn %d: got round %d, want %d", i, turn.Round, wantRounds[i])
		}
	}
}

func TestRunRefereeAnnotatesOffers(t *testing.T) {
	a, b := newAgents(t,
		oracle.NewScripted("Asking nine hundred."),
		oracle.NewScripted("I'll think about it."))
	j := judge.New(oracle.NewScripted(noAgreementVerdict, noAgreementFinal), nil)
	e := New(j, nil, nil)

	result, err := e.RunSync(context.Background(), a, b, 1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Turns[0].PriceOffer == nil || *result.Turns[0].PriceOffer != 900 {
		t.Errorf("party A offer not annotated: %+v", result.Turns[0].PriceOffer)
	}
	if result.Turns[1].PriceOffer == nil || *result.Turns[1].PriceOffer != 650 {
		t.Errorf("party B offer not annotated: %+v", result.Turns[1].PriceOffer)
	}
}

func TestRunGenerationFailure(t *testing.T) {
	failing := oracle.NewScripted()
	failing.FailAt[0] = errors.New("backend down")
	a, b := newAgents(t, oracle.NewScripted("Asking $900."), failing)
	j := judge.New(oracle.NewScripted(), nil)
	store := storage.NewMemory()
	e := New(j, store, nil)

	result, err := e.RunSync(context.Background(), a, b, 5)
	if err == nil {
		t.Fatal("expected run error")
	}
	if result == nil {
		t.Fatal("partial result missing")
	}
	if result.Status != core.StatusFailed {
		t.Errorf("wrong status: %s", result.Status)
	}
	if result.Judge != nil {
		t.Error("failed run must not carry a judge analysis")
	}

	last := result.Turns[len(result.Turns)-1]
	if !last.IsError {
		t.Error("failed turn not marked")
	}
	if !strings.HasPrefix(last.Text, "[Error generating message:") {
		t.Errorf("missing error marker: %q", last.Text)
	}

	if _, err := store.GetNegotiation(context.Background(), result.ID); err != nil {
		t.Errorf("partial result not persisted: %v", err)
	}
}

func TestRunCancellation(t *testing.T) {
	a, b := newAgents(t, oracle.NewScripted("A1"), oracle.NewScripted("B1"))
	j := judge.New(oracle.NewScripted(), nil)
	e := New(j, storage.NewMemory(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.RunSync(ctx, a, b, 5)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("wrong error: %v", err)
	}
	if result.Status != core.StatusFailed {
		t.Errorf("wrong status: %s", result.Status)
	}
	if result.RoundsUsed != 0 {
		t.Errorf("rounds used: got %d, want 0", result.RoundsUsed)
	}
}

func TestRunEventStream(t *testing.T) {
	a, b := newAgents(t, oracle.NewScripted("A1"), oracle.NewScripted("B1"))
	j := judge.New(oracle.NewScripted(noAgreementVerdict, noAgreementFinal), nil)
	e := New(j, nil, nil)

	var events []Event
	for ev := range e.Run(context.Background(), a, b, 1) {
		events = append(events, ev)
	}

	if len(events) == 0 {
		t.Fatal("no events emitted")
	}
	if _, ok := events[0].(StatusEvent); !ok {
		t.Errorf("first event should be a status, got %T", events[0])
	}
	last, ok := events[len(events)-1].(ResultEvent)
	if !ok {
		t.Fatalf("last event should be the result, got %T", events[len(events)-1])
	}
	if last.Result == nil {
		t.Fatal("terminal event without result")
	}
}

// Package judge adjudicates negotiations with an LLM referee.
//
// Two operations: a quick per-round agreement check, and a full
// end-of-negotiation analysis. Both ask the oracle for strict JSON; the
// full analysis keeps a deterministic keyword fallback for backends that
// return malformed output.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parleylab/parley/internal/core"
	"github.com/parleylab/parley/internal/oracle"
	"github.com/parleylab/parley/internal/priceparse"
	"github.com/parleylab/parley/internal/scenario"
)

const (
	verdictTemperature  = 0.1
	analysisTemperature = 0.0
	verdictMaxTokens    = 300
	analysisMaxTokens   = 500
)

// AgreementKeywords are the acceptance phrases the fallback parser looks
// for when structured judge output is unavailable. Override to tune for
// a different domain vocabulary.
var AgreementKeywords = []string{"deal", "accept", "agree", "sold", "take it"}

var quickVerdictSchema = oracle.Schema{
	Name: "round_verdict",
	Definition: json.RawMessage(`{
		"type": "object",
		"properties": {
			"agreement_reached": {"type": "boolean"},
			"agreed_price": {"type": ["number", "null"]},
			"party_a_offer": {"type": ["number", "null"]},
			"party_b_offer": {"type": ["number", "null"]},
			"explanation": {"type": "string"}
		},
		"required": ["agreement_reached", "agreed_price", "party_a_offer", "party_b_offer", "explanation"],
		"additionalProperties": false
	}`),
}

var analysisSchema = oracle.Schema{
	Name: "negotiation_analysis",
	Definition: json.RawMessage(`{
		"type": "object",
		"properties": {
			"agreement_reached": {"type": "boolean"},
			"agreed_price": {"type": ["number", "null"]},
			"explanation": {"type": "string"}
		},
		"required": ["agreement_reached", "agreed_price", "explanation"],
		"additionalProperties": false
	}`),
}

// Judge wraps an oracle into the two adjudication operations.
type Judge struct {
	oracle oracle.Oracle
	logger *slog.Logger
}

// New creates a judge backed by the given oracle.
func New(o oracle.Oracle, logger *slog.Logger) *Judge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Judge{oracle: o, logger: logger}
}

// CheckRound asks the referee whether the latest exchange settled the
// negotiation, and what each party's current offer is. It never returns
// an error: on any failure the verdict is a safe no-agreement default so
// the negotiation continues.
func (j *Judge) CheckRound(ctx context.Context, msgA, msgB string, round int) core.Verdict {
	prompt := fmt.Sprintf(`You are refereeing a price negotiation. Here is the latest exchange (round %d):

Party A said: %s

Party B said: %s

Determine:
1. Has an explicit agreement been reached in this exchange? Only true if one party clearly accepted a specific price.
2. If agreed, what price was agreed?
3. What is each party's current price offer, if any? Ignore calendar years such as 2018; they are never prices.

Respond with JSON only.`, round, msgA, msgB)

	raw, err := j.oracle.Complete(ctx, oracle.Request{
		Prompt:      prompt,
		Temperature: verdictTemperature,
		MaxTokens:   verdictMaxTokens,
		Schema:      &quickVerdictSchema,
	})
	if err != nil {
		j.logger.Warn("round verdict failed, continuing without ruling", "round", round, "error", err)
		return core.Verdict{Explanation: "referee unavailable"}
	}

	var v core.Verdict
	if err := json.Unmarshal([]byte(extractJSON(raw)), &v); err != nil {
		j.logger.Warn("round verdict unparseable, continuing without ruling", "round", round, "error", err)
		return core.Verdict{Explanation: "referee output unparseable"}
	}
	// Never report an agreement without a price to settle on.
	if v.AgreementReached && v.AgreedPrice == nil {
		v.AgreementReached = false
		v.Explanation = "agreement claimed without a price; treated as no agreement"
	}
	return v
}

// Analyze performs the full end-of-negotiation factual determination.
// It sees both parties' private constraints so it can judge whether a
// claimed agreement was even feasible. On oracle failure or malformed
// output it falls back to a deterministic transcript parse.
func (j *Judge) Analyze(ctx context.Context, turns []core.TurnRecord, sc *scenario.Scenario) core.Analysis {
	secA := sc.SecretsFor(core.PartyA)
	secB := sc.SecretsFor(core.PartyB)

	var transcript strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&transcript, "[Round %d] %s: %s\n", turn.Round, turn.Party.DisplayName(), turn.Text)
	}

	prompt := fmt.Sprintf(`You are the judge of a completed price negotiation. You know both parties' private constraints:

Party A (%s): limit %s, ideal %s
Party B (%s): limit %s, ideal %s

TRANSCRIPT:
%s
Determine as a factual matter:
1. Did the parties reach an explicit agreement on a price?
2. If so, at what price? Ignore calendar years such as 2018; they are never prices.
3. Explain your determination briefly.

Respond with JSON only.`,
		secA.Role, formatPrice(secA.Profile().AbsoluteLimit), formatPrice(secA.IdealPrice),
		secB.Role, formatPrice(secB.Profile().AbsoluteLimit), formatPrice(secB.IdealPrice),
		transcript.String())

	raw, err := j.oracle.Complete(ctx, oracle.Request{
		Prompt:      prompt,
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
		Schema:      &analysisSchema,
	})
	if err != nil {
		j.logger.Warn("judge analysis failed, using transcript fallback", "error", err)
		return fallbackAnalysis(turns)
	}

	var parsed struct {
		AgreementReached bool     `json:"agreement_reached"`
		AgreedPrice      *float64 `json:"agreed_price"`
		Explanation      string   `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		j.logger.Warn("judge analysis unparseable, using transcript fallback", "error", err)
		return fallbackAnalysis(turns)
	}

	analysis := core.Analysis{
		AgreementReached: parsed.AgreementReached,
		Explanation:      parsed.Explanation,
	}
	if parsed.AgreementReached {
		if parsed.AgreedPrice == nil {
			analysis.AgreementReached = false
			analysis.Explanation = "agreement claimed without a price; treated as no agreement"
		} else {
			analysis.Terms = &core.Terms{Price: *parsed.AgreedPrice}
		}
	}
	return analysis
}

// fallbackAnalysis scans the tail of the transcript for acceptance
// language next to a plausible price.
func fallbackAnalysis(turns []core.TurnRecord) core.Analysis {
	start := len(turns) - 6
	if start < 0 {
		start = 0
	}
	for i := len(turns) - 1; i >= start; i-- {
		lower := strings.ToLower(turns[i].Text)
		accepted := false
		for _, kw := range AgreementKeywords {
			if strings.Contains(lower, kw) {
				accepted = true
				break
			}
		}
		if !accepted {
			continue
		}
		for _, price := range priceparse.All(turns[i].Text) {
			if price >= 100 && price <= 10000 {
				return core.Analysis{
					AgreementReached: true,
					Terms:            &core.Terms{Price: price},
					Explanation:      fmt.Sprintf("fallback parse: acceptance language with price $%.0f in round %d", price, turns[i].Round),
				}
			}
		}
	}
	return core.Analysis{Explanation: "fallback parse: no acceptance language with a plausible price found"}
}

// extractJSON trims markdown fences some backends wrap around JSON.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func formatPrice(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("$%.0f", *v)
}

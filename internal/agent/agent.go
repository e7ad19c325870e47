// Package agent implements an LLM-driven negotiating party.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/parleylab/parley/internal/core"
	"github.com/parleylab/parley/internal/oracle"
	"github.com/parleylab/parley/internal/persona"
	"github.com/parleylab/parley/internal/priceparse"
	"github.com/parleylab/parley/internal/scenario"
)

const (
	messageTemperature = 0.7
	messageMaxTokens   = 200
)

// Agent is one negotiating party. It keeps its own view of the
// conversation and a running list of the offers it has made.
type Agent struct {
	Party    core.PartyID
	Persona  *persona.Persona
	Scenario *scenario.Scenario

	oracle  oracle.Oracle
	history []persona.Exchange
	offers  []float64
	sent    int
}

// New creates an agent for one party of the scenario.
func New(party core.PartyID, personaID string, sc *scenario.Scenario, o oracle.Oracle) (*Agent, error) {
	p := persona.Get(personaID)
	if p == nil {
		return nil, fmt.Errorf("unknown persona: %s", personaID)
	}
	sec := sc.SecretsFor(party)
	if sec.Role != core.RoleSeller && sec.Role != core.RoleBuyer {
		return nil, fmt.Errorf("scenario %s: party %s has no valid role", sc.Name, party)
	}
	return &Agent{Party: party, Persona: p, Scenario: sc, oracle: o}, nil
}

// Role returns the agent's negotiation role for this scenario.
func (a *Agent) Role() core.Role {
	return a.Scenario.SecretsFor(a.Party).Role
}

// Profile returns the agent's private negotiation parameters.
func (a *Agent) Profile() core.Profile {
	return a.Scenario.SecretsFor(a.Party).Profile()
}

// GenerateMessage produces the agent's next message for the given round.
// On backend failure it returns a visibly marked error message along with
// the error, so the transcript records that the turn was not negotiated.
func (a *Agent) GenerateMessage(ctx context.Context, round int) (string, error) {
	prompt := persona.BuildMessagePrompt(a.Persona, a.Scenario, a.Party, a.history, round, a.offers)

	text, err := a.oracle.Complete(ctx, oracle.Request{
		Prompt:      prompt,
		Temperature: messageTemperature,
		MaxTokens:   messageMaxTokens,
	})
	if err != nil {
		return fmt.Sprintf("[Error generating message: %v]", err), fmt.Errorf("message generation failed for %s: %w", a.Party, err)
	}

	text = strings.TrimSpace(text)
	a.sent++
	a.history = append(a.history, persona.Exchange{Mine: true, Text: text})
	if price := priceparse.First(text); price != nil {
		a.offers = append(a.offers, *price)
	}
	return text, nil
}

// ReceiveMessage records a message from the other party.
func (a *Agent) ReceiveMessage(text string) {
	a.history = append(a.history, persona.Exchange{Mine: false, Text: text})
}

// Offers returns the prices this agent has proposed so far.
func (a *Agent) Offers() []float64 {
	out := make([]float64, len(a.offers))
	copy(out, a.offers)
	return out
}

// CalculateUtility scores an agreed price against the agent's private
// parameters. Utility is 1.0 at the ideal, 0.0 at the walk-away limit,
// linear between, clamped to [0, 1]. With missing parameters the score
// is a neutral 0.5. When ideal and limit coincide the score is a step:
// 1.0 for a role-favorable or equal price, 0.0 otherwise.
func (a *Agent) CalculateUtility(price float64) float64 {
	p := a.Profile()
	if p.AbsoluteLimit == nil || p.IdealValue == nil {
		return 0.5
	}
	limit, ideal := *p.AbsoluteLimit, *p.IdealValue
	if ideal == limit {
		switch p.Role {
		case core.RoleSeller:
			if price >= limit {
				return 1.0
			}
		case core.RoleBuyer:
			if price <= limit {
				return 1.0
			}
		}
		return 0.0
	}
	u := (price - limit) / (ideal - limit)
	if u < 0 {
		return 0.0
	}
	if u > 1 {
		return 1.0
	}
	return u
}

// Reset clears conversation state so the agent can run a fresh negotiation.
func (a *Agent) Reset() {
	a.history = nil
	a.offers = nil
	a.sent = 0
}

// Info returns the agent's public summary.
func (a *Agent) Info() core.PartyInfo {
	return core.PartyInfo{
		Party:        a.Party,
		Persona:      a.Persona.ID,
		Role:         a.Role(),
		MessagesSent: a.sent,
	}
}

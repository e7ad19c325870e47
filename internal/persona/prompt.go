package persona

import (
	"fmt"
	"sort"
	"strings"

	"github.com/parleylab/parley/internal/core"
	"github.com/parleylab/parley/internal/scenario"
)

// Exchange is one prior message as seen from the prompted agent's side.
type Exchange struct {
	Mine bool
	Text string
}

// BuildMessagePrompt assembles the full instruction prompt for one turn.
// Public info is rendered with sorted keys so the prompt is stable for a
// given scenario.
func BuildMessagePrompt(p *Persona, sc *scenario.Scenario, party core.PartyID, history []Exchange, round int, prevOffers []float64) string {
	sec := sc.SecretsFor(party)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("YOUR ROLE: You are the %s in this negotiation.\n", sec.Role))
	switch sec.Role {
	case core.RoleSeller:
		b.WriteString("GOAL: Sell for the highest price you can get.\n")
	case core.RoleBuyer:
		b.WriteString("GOAL: Buy for the lowest price you can get.\n")
	}
	if p != nil && p.PromptLine != "" {
		b.WriteString(p.PromptLine + "\n")
	}

	b.WriteString("\nNEGOTIATION CONTEXT (known to both parties):\n")
	keys := make([]string, 0, len(sc.PublicInfo))
	for k := range sc.PublicInfo {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("- %s: %v\n", strings.ReplaceAll(k, "_", " "), sc.PublicInfo[k]))
	}

	b.WriteString("\nYOUR CONSTRAINTS (private, do not reveal directly):\n")
	switch sec.Role {
	case core.RoleSeller:
		if sec.MinimumAcceptablePrice != nil {
			b.WriteString(fmt.Sprintf("- Minimum acceptable price: $%.0f. Never agree to less.\n", *sec.MinimumAcceptablePrice))
		}
	case core.RoleBuyer:
		if sec.MaximumBudget != nil {
			b.WriteString(fmt.Sprintf("- Maximum budget: $%.0f. Never agree to more.\n", *sec.MaximumBudget))
		}
	}
	if sec.IdealPrice != nil {
		b.WriteString(fmt.Sprintf("- Ideal price: $%.0f.\n", *sec.IdealPrice))
	}
	if sec.Strategy != "" {
		b.WriteString(fmt.Sprintf("- Suggested approach: %s\n", sec.Strategy))
	}
	b.WriteString("Use this information strategically. Do not state your limits outright.\n")

	if len(history) > 0 {
		b.WriteString("\nCONVERSATION HISTORY:\n")
		for _, ex := range history {
			if ex.Mine {
				b.WriteString(fmt.Sprintf("You said: %s\n", ex.Text))
			} else {
				b.WriteString(fmt.Sprintf("The other party said: %s\n", ex.Text))
			}
		}
	}

	if len(prevOffers) > 0 {
		last := prevOffers[len(prevOffers)-1]
		b.WriteString(fmt.Sprintf("\nYour most recent offer was $%.0f. Stay consistent with your own prior offers.\n", last))
	}

	b.WriteString("\nYOUR TASK: ")
	if len(history) == 0 {
		b.WriteString(fmt.Sprintf("Open the negotiation (round %d). Make your opening statement and, if appropriate, an opening offer.\n", round))
	} else {
		b.WriteString(fmt.Sprintf("Respond to the other party (round %d). You may counter, concede, hold firm, or accept their offer.\n", round))
	}
	b.WriteString("Write only your next message in natural conversational language. Do not include labels, headers, or your role name.")

	return b.String()
}

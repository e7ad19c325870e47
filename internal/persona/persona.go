// Package persona defines negotiator personalities and builds agent prompts.
package persona

// Persona represents a negotiator personality. The prompt line is kept
// deliberately short so behavior stays emergent rather than scripted.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PromptLine  string `json:"prompt_line"`
}

// DefaultPersonas returns the built-in personas.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			ID:          "none",
			Name:        "None",
			Description: "No persona - pure emergent behavior",
			PromptLine:  "",
		},
		{
			ID:          "aggressive",
			Name:        "Aggressive",
			Description: "Pushes hard and concedes reluctantly",
			PromptLine:  "You are an aggressive negotiator.",
		},
		{
			ID:          "fair",
			Name:        "Fair",
			Description: "Seeks an outcome both sides can live with",
			PromptLine:  "You are a fair negotiator.",
		},
		{
			ID:          "deceptive",
			Name:        "Deceptive",
			Description: "Willing to mislead about constraints and alternatives",
			PromptLine:  "You are a deceptive negotiator.",
		},
		{
			ID:          "logical",
			Name:        "Logical",
			Description: "Argues from facts, numbers, and market evidence",
			PromptLine:  "You are a logical negotiator.",
		},
		{
			ID:          "cooperative",
			Name:        "Cooperative",
			Description: "Looks for joint gains and common ground",
			PromptLine:  "You are a cooperative negotiator.",
		},
		{
			ID:          "stubborn",
			Name:        "Stubborn",
			Description: "Anchors early and moves very little",
			PromptLine:  "You are a stubborn negotiator.",
		},
		{
			ID:          "desperate",
			Name:        "Desperate",
			Description: "Needs a deal and shows it",
			PromptLine:  "You are a desperate negotiator.",
		},
		{
			ID:          "strategic",
			Name:        "Strategic",
			Description: "Plans concessions and paces the exchange",
			PromptLine:  "You are a strategic negotiator.",
		},
	}
}

// Get returns a persona by ID, or nil if unknown.
func Get(id string) *Persona {
	for _, p := range DefaultPersonas() {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// List returns all available persona IDs.
func List() []string {
	personas := DefaultPersonas()
	ids := make([]string, len(personas))
	for i, p := range personas {
		ids[i] = p.ID
	}
	return ids
}

// Valid checks if a persona ID is valid.
func Valid(id string) bool {
	return Get(id) != nil
}

// Package core contains the core domain types for parley.
package core

import (
	"time"

	"github.com/google/uuid"
)

// Role determines concession direction semantics: sellers concede by
// lowering price, buyers by raising it.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// PartyID identifies one of the two negotiating parties.
type PartyID string

const (
	PartyA PartyID = "party_a"
	PartyB PartyID = "party_b"
)

// Opponent returns the other party.
func (p PartyID) Opponent() PartyID {
	if p == PartyA {
		return PartyB
	}
	return PartyA
}

// DisplayName returns a human-friendly label for transcripts.
func (p PartyID) DisplayName() string {
	if p == PartyA {
		return "Party A"
	}
	return "Party B"
}

// NegotiationStatus represents the lifecycle state of a negotiation run.
type NegotiationStatus string

const (
	StatusPending    NegotiationStatus = "pending"
	StatusInProgress NegotiationStatus = "in_progress"
	StatusCompleted  NegotiationStatus = "completed"
	StatusFailed     NegotiationStatus = "failed"
)

// TurnRecord is one party's utterance within a round.
type TurnRecord struct {
	ID      string  `json:"id" bson:"id"`
	Round   int     `json:"round" bson:"round"`
	Party   PartyID `json:"party" bson:"party"`
	Persona string  `json:"persona,omitempty" bson:"persona,omitempty"`
	Text    string  `json:"text" bson:"text"`
	// PriceOffer is the referee-extracted new price proposal for this
	// turn. Nil when the turn contained no new offer (pure acceptance,
	// filler) or when extraction failed for the round.
	PriceOffer *float64  `json:"price_offer,omitempty" bson:"price_offer,omitempty"`
	IsError    bool      `json:"is_error,omitempty" bson:"is_error,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// Profile holds a party's private, fixed-for-the-run parameters.
type Profile struct {
	Role Role `json:"role" bson:"role"`
	// AbsoluteLimit is the walk-away point: the seller's minimum
	// acceptable price or the buyer's maximum budget.
	AbsoluteLimit *float64 `json:"absolute_limit,omitempty" bson:"absolute_limit,omitempty"`
	IdealValue    *float64 `json:"ideal_value,omitempty" bson:"ideal_value,omitempty"`
}

// Terms are the agreed-upon settlement terms.
type Terms struct {
	Price float64 `json:"price" bson:"price"`
}

// Verdict is the quick referee's same-round ruling.
type Verdict struct {
	AgreementReached bool     `json:"agreement_reached"`
	AgreedPrice      *float64 `json:"agreed_price"`
	PartyAOffer      *float64 `json:"party_a_offer"`
	PartyBOffer      *float64 `json:"party_b_offer"`
	Explanation      string   `json:"explanation"`
}

// Analysis is the full judge's end-of-negotiation factual determination.
type Analysis struct {
	AgreementReached bool   `json:"agreement_reached" bson:"agreement_reached"`
	Terms            *Terms `json:"agreement_terms" bson:"agreement_terms"`
	Explanation      string `json:"explanation" bson:"explanation"`
	// StoppedEarly is set when the per-round referee confirmed agreement
	// before the round cap; its price takes precedence over the terms
	// extracted here.
	StoppedEarly bool `json:"stopped_early,omitempty" bson:"stopped_early,omitempty"`
}

// ConcessionEvent is one price movement toward the opponent, derived from
// a party's offer sequence.
type ConcessionEvent struct {
	Round     int     `json:"round" bson:"round"`
	FromPrice float64 `json:"from_price" bson:"from_price"`
	ToPrice   float64 `json:"to_price" bson:"to_price"`
	Amount    float64 `json:"amount" bson:"amount"`
	// Intensity is amount / remaining negotiation space before the
	// concession. Nil when the party's absolute limit is unknown or the
	// space is not positive.
	Intensity *float64 `json:"intensity,omitempty" bson:"intensity,omitempty"`
}

// PartyConcessions summarizes one party's concession behavior.
type PartyConcessions struct {
	Count            int               `json:"concession_count" bson:"concession_count"`
	TotalAmount      float64           `json:"total_concession_amount" bson:"total_concession_amount"`
	AvgAmount        float64           `json:"avg_concession_size" bson:"avg_concession_size"`
	Pattern          string            `json:"pattern" bson:"pattern"`
	Rounds           []int             `json:"concession_rounds" bson:"concession_rounds"`
	Trajectory       []float64         `json:"price_trajectory" bson:"price_trajectory"`
	Events           []ConcessionEvent `json:"concessions,omitempty" bson:"concessions,omitempty"`
	Intensities      []float64         `json:"intensities,omitempty" bson:"intensities,omitempty"`
	AvgIntensity     *float64          `json:"avg_intensity,omitempty" bson:"avg_intensity,omitempty"`
	MaxIntensity     *float64          `json:"max_intensity,omitempty" bson:"max_intensity,omitempty"`
	MinIntensity     *float64          `json:"min_intensity,omitempty" bson:"min_intensity,omitempty"`
	IntensityPattern string            `json:"intensity_pattern" bson:"intensity_pattern"`
	AbsoluteLimit    *float64          `json:"absolute_limit,omitempty" bson:"absolute_limit,omitempty"`
	ExtractionMethod string            `json:"extraction_method" bson:"extraction_method"`
}

// Concession pattern classifications.
const (
	PatternInsufficientData = "insufficient_data"
	PatternNone             = "none"
	PatternSingle           = "single"
	PatternGradual          = "gradual"
	PatternLargeEarly       = "large_early"
	PatternLargeLate        = "large_late"
	PatternMixed            = "mixed"
)

// ConcessionComparison contrasts the two parties' concession behavior.
type ConcessionComparison struct {
	CountDifference       int      `json:"concession_difference" bson:"concession_difference"`
	TotalAmountDifference float64  `json:"total_amount_difference" bson:"total_amount_difference"`
	AvgIntensityDiff      *float64 `json:"avg_intensity_difference,omitempty" bson:"avg_intensity_difference,omitempty"`
	MaxIntensityDiff      *float64 `json:"max_intensity_difference,omitempty" bson:"max_intensity_difference,omitempty"`
	MoreDesperate         string   `json:"more_desperate,omitempty" bson:"more_desperate,omitempty"`
}

// ConcessionReport is the analyzer's output for a complete negotiation.
type ConcessionReport struct {
	PartyA     PartyConcessions     `json:"party_a" bson:"party_a"`
	PartyB     PartyConcessions     `json:"party_b" bson:"party_b"`
	Comparison ConcessionComparison `json:"comparison" bson:"comparison"`
}

// PartyInfo is a party's public summary attached to results.
type PartyInfo struct {
	Party        PartyID `json:"party" bson:"party"`
	Persona      string  `json:"persona" bson:"persona"`
	Role         Role    `json:"role" bson:"role"`
	MessagesSent int     `json:"messages_sent" bson:"messages_sent"`
}

// Result is the terminal output of a negotiation run.
type Result struct {
	ID               string            `json:"id" bson:"_id"`
	Scenario         string            `json:"scenario" bson:"scenario"`
	PersonaA         string            `json:"persona_a" bson:"persona_a"`
	PersonaB         string            `json:"persona_b" bson:"persona_b"`
	Status           NegotiationStatus `json:"status" bson:"status"`
	AgreementReached bool              `json:"agreement_reached" bson:"agreement_reached"`
	RoundsUsed       int               `json:"rounds_used" bson:"rounds_used"`
	MaxRounds        int               `json:"max_rounds" bson:"max_rounds"`
	Turns            []TurnRecord      `json:"messages" bson:"messages"`
	Terms            *Terms            `json:"agreement_terms,omitempty" bson:"agreement_terms,omitempty"`
	UtilityA         *float64          `json:"utility_a,omitempty" bson:"utility_a,omitempty"`
	UtilityB         *float64          `json:"utility_b,omitempty" bson:"utility_b,omitempty"`
	PartyAInfo       PartyInfo         `json:"party_a_info" bson:"party_a_info"`
	PartyBInfo       PartyInfo         `json:"party_b_info" bson:"party_b_info"`
	Judge            *Analysis         `json:"judge_analysis,omitempty" bson:"judge_analysis,omitempty"`
	Concessions      *ConcessionReport `json:"concessions,omitempty" bson:"concessions,omitempty"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at"`
}

// GenerateID returns a new unique identifier.
func GenerateID() string {
	return uuid.NewString()
}

// Float returns a pointer to v. Convenience for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}

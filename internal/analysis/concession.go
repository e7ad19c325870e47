// Package analysis derives concession metrics from negotiation transcripts.
//
// Everything here is deterministic and pure: the input is a transcript
// with optional referee price annotations, the output describes how each
// party moved, how fast, and who gave up more ground.
package analysis

import (
	"github.com/parleylab/parley/internal/core"
	"github.com/parleylab/parley/internal/priceparse"
)

// Intensity pattern classifications.
const (
	IntensityInsufficientData = "insufficient_data"
	IntensityStrategicSingle  = "strategic_single"
	IntensityDesperateSingle  = "desperate_single"
	IntensityModerateSingle   = "moderate_single"
	IntensityStrategic        = "strategic"
	IntensityDesperate        = "desperate"
	IntensityEscalating       = "escalating"
	IntensityDeEscalating     = "de-escalating"
	IntensityMixed            = "mixed"
)

// AnalyzeNegotiation produces the full concession report for both parties.
func AnalyzeNegotiation(turns []core.TurnRecord, profileA, profileB core.Profile) core.ConcessionReport {
	a := AnalyzePartyTurns(turns, core.PartyA, profileA)
	b := AnalyzePartyTurns(turns, core.PartyB, profileB)
	return core.ConcessionReport{
		PartyA:     a,
		PartyB:     b,
		Comparison: compare(a, b),
	}
}

// AnalyzePartyTurns summarizes one party's concession behavior from its
// side of the transcript.
func AnalyzePartyTurns(turns []core.TurnRecord, party core.PartyID, profile core.Profile) core.PartyConcessions {
	trajectory, rounds, method := extractTrajectory(turns, party)

	pc := core.PartyConcessions{
		Trajectory:       trajectory,
		AbsoluteLimit:    profile.AbsoluteLimit,
		ExtractionMethod: method,
		Pattern:          core.PatternInsufficientData,
		IntensityPattern: IntensityInsufficientData,
	}
	if len(trajectory) < 2 {
		return pc
	}

	for i := 1; i < len(trajectory); i++ {
		prev, cur := trajectory[i-1], trajectory[i]
		amount := concessionAmount(profile.Role, prev, cur)
		if amount <= 0 {
			continue
		}
		ev := core.ConcessionEvent{
			Round:     rounds[i],
			FromPrice: prev,
			ToPrice:   cur,
			Amount:    amount,
			Intensity: intensity(profile, prev, amount),
		}
		pc.Events = append(pc.Events, ev)
		pc.Rounds = append(pc.Rounds, ev.Round)
		pc.TotalAmount += amount
		if ev.Intensity != nil {
			pc.Intensities = append(pc.Intensities, *ev.Intensity)
		}
	}

	pc.Count = len(pc.Events)
	if pc.Count > 0 {
		pc.AvgAmount = pc.TotalAmount / float64(pc.Count)
	}
	pc.Pattern = classifyAmounts(pc.Events)
	pc.IntensityPattern = classifyIntensities(pc.Intensities)
	if len(pc.Intensities) > 0 {
		avg, max, min := stats(pc.Intensities)
		pc.AvgIntensity, pc.MaxIntensity, pc.MinIntensity = &avg, &max, &min
	}
	return pc
}

// extractTrajectory collects a party's offer sequence. Referee-annotated
// offers are preferred; without any annotation the transcript is parsed
// directly.
func extractTrajectory(turns []core.TurnRecord, party core.PartyID) ([]float64, []int, string) {
	annotated := false
	for _, t := range turns {
		if t.Party == party && t.PriceOffer != nil {
			annotated = true
			break
		}
	}

	var prices []float64
	var rounds []int
	for _, t := range turns {
		if t.Party != party {
			continue
		}
		var p *float64
		if annotated {
			p = t.PriceOffer
		} else {
			p = priceparse.First(t.Text)
		}
		if p != nil {
			prices = append(prices, *p)
			rounds = append(rounds, t.Round)
		}
	}

	method := "pattern"
	if annotated {
		method = "referee"
	}
	return prices, rounds, method
}

// concessionAmount returns the size of the movement toward the opponent,
// or 0 when the move goes the party's own way.
func concessionAmount(role core.Role, prev, cur float64) float64 {
	switch role {
	case core.RoleSeller:
		if cur < prev {
			return prev - cur
		}
	case core.RoleBuyer:
		if cur > prev {
			return cur - prev
		}
	}
	return 0
}

// intensity relates a concession to the negotiation space remaining
// before it: prev minus limit for sellers, limit minus prev for buyers.
func intensity(profile core.Profile, prev, amount float64) *float64 {
	if profile.AbsoluteLimit == nil {
		return nil
	}
	var space float64
	switch profile.Role {
	case core.RoleSeller:
		space = prev - *profile.AbsoluteLimit
	case core.RoleBuyer:
		space = *profile.AbsoluteLimit - prev
	}
	if space <= 0 {
		return nil
	}
	v := amount / space
	return &v
}

func classifyAmounts(events []core.ConcessionEvent) string {
	switch len(events) {
	case 0:
		return core.PatternNone
	case 1:
		return core.PatternSingle
	}

	allSmall := true
	for _, ev := range events {
		if ev.Amount >= 50 {
			allSmall = false
			break
		}
	}
	if allSmall {
		return core.PatternGradual
	}
	if events[0].Amount > 100 {
		return core.PatternLargeEarly
	}
	if events[len(events)-1].Amount > 100 {
		return core.PatternLargeLate
	}
	return core.PatternMixed
}

func classifyIntensities(intensities []float64) string {
	switch len(intensities) {
	case 0:
		return IntensityInsufficientData
	case 1:
		switch {
		case intensities[0] < 0.2:
			return IntensityStrategicSingle
		case intensities[0] > 0.6:
			return IntensityDesperateSingle
		default:
			return IntensityModerateSingle
		}
	}

	allStrategic := true
	for _, v := range intensities {
		if v >= 0.2 {
			allStrategic = false
			break
		}
	}
	if allStrategic {
		return IntensityStrategic
	}

	avg, _, _ := stats(intensities)
	if avg > 0.4 {
		return IntensityDesperate
	}

	half := len(intensities) / 2
	firstAvg := mean(intensities[:half])
	secondAvg := mean(intensities[half:])
	if secondAvg > firstAvg*1.3 {
		return IntensityEscalating
	}
	if firstAvg > secondAvg*1.3 {
		return IntensityDeEscalating
	}
	return IntensityMixed
}

func compare(a, b core.PartyConcessions) core.ConcessionComparison {
	c := core.ConcessionComparison{
		CountDifference:       a.Count - b.Count,
		TotalAmountDifference: a.TotalAmount - b.TotalAmount,
	}
	if a.AvgIntensity != nil && b.AvgIntensity != nil {
		diff := *a.AvgIntensity - *b.AvgIntensity
		c.AvgIntensityDiff = &diff
		if diff > 0 {
			c.MoreDesperate = string(core.PartyA)
		} else if diff < 0 {
			c.MoreDesperate = string(core.PartyB)
		}
	}
	if a.MaxIntensity != nil && b.MaxIntensity != nil {
		diff := *a.MaxIntensity - *b.MaxIntensity
		c.MaxIntensityDiff = &diff
	}
	return c
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func stats(vs []float64) (avg, max, min float64) {
	avg = mean(vs)
	max, min = vs[0], vs[0]
	for _, v := range vs[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return avg, max, min
}

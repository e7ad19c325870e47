package judge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleylab/parley/internal/core"
	"github.com/parleylab/parley/internal/oracle"
	"github.com/parleylab/parley/internal/scenario"
)

func TestCheckRound(t *testing.T) {
	t.Run("AgreementWithPrice", func(t *testing.T) {
		o := oracle.NewScripted(`{"agreement_reached": true, "agreed_price": 775, "party_a_offer": 775, "party_b_offer": 775, "explanation": "buyer accepted"}`)
		j := New(o, nil)

		v := j.CheckRound(context.Background(), "I can do $775.", "Deal, $775 works.", 4)
		require.True(t, v.AgreementReached)
		require.NotNil(t, v.AgreedPrice)
		assert.Equal(t, 775.0, *v.AgreedPrice)
	})

	t.Run("NoAgreement", func(t *testing.T) {
		o := oracle.NewScripted(`{"agreement_reached": false, "agreed_price": null, "party_a_offer": 850, "party_b_offer": 700, "explanation": "still apart"}`)
		j := New(o, nil)

		v := j.CheckRound(context.Background(), "How about $850?", "Best I can do is $700.", 2)
		assert.False(t, v.AgreementReached)
		require.NotNil(t, v.PartyAOffer)
		assert.Equal(t, 850.0, *v.PartyAOffer)
		require.NotNil(t, v.PartyBOffer)
		assert.Equal(t, 700.0, *v.PartyBOffer)
	})

	t.Run("AgreementWithoutPriceRejected", func(t *testing.T) {
		o := oracle.NewScripted(`{"agreement_reached": true, "agreed_price": null, "party_a_offer": null, "party_b_offer": null, "explanation": "they shook on it"}`)
		j := New(o, nil)

		v := j.CheckRound(context.Background(), "Great.", "Great.", 3)
		assert.False(t, v.AgreementReached, "agreement without a price must not stand")
	})

	t.Run("OracleFailureSafeDefault", func(t *testing.T) {
		o := oracle.NewScripted()
		o.FailAt[0] = errors.New("timeout")
		j := New(o, nil)

		v := j.CheckRound(context.Background(), "Offer.", "Counter.", 1)
		assert.False(t, v.AgreementReached)
		assert.Nil(t, v.AgreedPrice)
	})

	t.Run("MalformedOutputSafeDefault", func(t *testing.T) {
		o := oracle.NewScripted("I think they agreed on something around 800")
		j := New(o, nil)

		v := j.CheckRound(context.Background(), "Offer.", "Counter.", 1)
		assert.False(t, v.AgreementReached)
	})

	t.Run("MarkdownFencedOutput", func(t *testing.T) {
		o := oracle.NewScripted("```json\n{\"agreement_reached\": true, \"agreed_price\": 800, \"party_a_offer\": 800, \"party_b_offer\": 800, \"explanation\": \"ok\"}\n```")
		j := New(o, nil)

		v := j.CheckRound(context.Background(), "x", "y", 1)
		require.True(t, v.AgreementReached)
		assert.Equal(t, 800.0, *v.AgreedPrice)
	})
}

func turn(round int, party core.PartyID, text string) core.TurnRecord {
	return core.TurnRecord{ID: core.GenerateID(), Round: round, Party: party, Text: text, CreatedAt: time.Now()}
}

func TestAnalyze(t *testing.T) {
	turns := []core.TurnRecord{
		turn(1, core.PartyA, "Asking $900."),
		turn(1, core.PartyB, "I'll give you $650."),
		turn(2, core.PartyA, "Meet me at $775."),
		turn(2, core.PartyB, "Deal, I accept $775."),
	}

	t.Run("StructuredOutput", func(t *testing.T) {
		o := oracle.NewScripted(`{"agreement_reached": true, "agreed_price": 775, "explanation": "buyer accepted 775"}`)
		j := New(o, nil)

		a := j.Analyze(context.Background(), turns, scenario.Builtin())
		require.True(t, a.AgreementReached)
		require.NotNil(t, a.Terms)
		assert.Equal(t, 775.0, a.Terms.Price)
	})

	t.Run("AgreementWithoutPriceRejected", func(t *testing.T) {
		o := oracle.NewScripted(`{"agreement_reached": true, "agreed_price": null, "explanation": "vague consensus"}`)
		j := New(o, nil)

		a := j.Analyze(context.Background(), turns, scenario.Builtin())
		assert.False(t, a.AgreementReached)
		assert.Nil(t, a.Terms)
	})

	t.Run("FallbackOnOracleFailure", func(t *testing.T) {
		o := oracle.NewScripted()
		o.FailAt[0] = errors.New("unavailable")
		j := New(o, nil)

		a := j.Analyze(context.Background(), turns, scenario.Builtin())
		require.True(t, a.AgreementReached)
		require.NotNil(t, a.Terms)
		assert.Equal(t, 775.0, a.Terms.Price)
	})

	t.Run("FallbackNoAcceptance", func(t *testing.T) {
		o := oracle.NewScripted()
		o.FailAt[0] = errors.New("unavailable")
		j := New(o, nil)

		stalled := []core.TurnRecord{
			turn(1, core.PartyA, "Asking $900."),
			turn(1, core.PartyB, "Too much, $650 tops."),
		}
		a := j.Analyze(context.Background(), stalled, scenario.Builtin())
		assert.False(t, a.AgreementReached)
	})

	t.Run("FallbackIgnoresImplausiblePrices", func(t *testing.T) {
		o := oracle.NewScripted()
		o.FailAt[0] = errors.New("unavailable")
		j := New(o, nil)

		weird := []core.TurnRecord{
			turn(1, core.PartyA, "It's a 2018 model, great deal at any price."),
		}
		a := j.Analyze(context.Background(), weird, scenario.Builtin())
		assert.False(t, a.AgreementReached, "year must not be read as an agreed price")
	})
}

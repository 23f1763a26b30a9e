package model

import (
	"testing"
	"time"

	"github.com/aristath/loom/internal/domain"
	"github.com/aristath/loom/internal/modules/refdata"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAlwaysRuleSwapsWeightExactly(t *testing.T) {
	sub := NewSubstituter(refdata.WithSampleData(), nil, zerolog.Nop())
	m := directModel()

	derived := sub.Apply(m, []domain.SubstitutionRule{{
		ID:                   "r1",
		OriginalSecurityID:   "AAPL",
		SubstituteSecurityID: "NVDA",
		Condition:            domain.Always(),
		Priority:             domain.PriorityMedium,
	}})

	assert.NotContains(t, derived.Securities, "AAPL")
	assert.InDelta(t, 0.25, derived.Securities["NVDA"], 1e-12)
	assert.Contains(t, m.Securities, "AAPL", "source model must stay untouched")
	assert.InDelta(t, 1.0, derived.SecuritiesWeightSum(), 1e-9)
}

func TestApplyESGScoreCondition(t *testing.T) {
	// Sample data: AAPL overall 48, MSFT overall 74.
	sub := NewSubstituter(refdata.WithSampleData(), nil, zerolog.Nop())
	m := directModel()

	derived := sub.Apply(m, []domain.SubstitutionRule{
		{
			ID:                   "low-esg-aapl",
			OriginalSecurityID:   "AAPL",
			SubstituteSecurityID: "NVDA",
			Condition:            domain.ESGScoreBelow(50),
			Priority:             domain.PriorityHigh,
		},
		{
			ID:                   "low-esg-msft",
			OriginalSecurityID:   "MSFT",
			SubstituteSecurityID: "ADBE",
			Condition:            domain.ESGScoreBelow(50),
			Priority:             domain.PriorityHigh,
		},
	})

	assert.Contains(t, derived.Securities, "NVDA")
	assert.Contains(t, derived.Securities, "MSFT", "score above threshold must not fire")
	assert.NotContains(t, derived.Securities, "ADBE")
}

func TestApplyTaxLotValueCondition(t *testing.T) {
	sub := NewSubstituter(refdata.WithSampleData(), nil, zerolog.Nop())
	m := directModel()
	rules := []domain.SubstitutionRule{{
		ID:                   "small-lot",
		OriginalSecurityID:   "AAPL",
		SubstituteSecurityID: "NVDA",
		Condition:            domain.TaxLotValueBelow(5000),
		Priority:             domain.PriorityLow,
	}}

	holdings := []domain.Holding{{
		SecurityID:  "AAPL",
		MarketValue: 4000,
		CostBasis:   3500,
		AcquiredAt:  time.Now().AddDate(0, -6, 0),
	}}

	derived := sub.ApplyWithHoldings(m, rules, holdings)
	assert.Contains(t, derived.Securities, "NVDA")

	t.Run("no holdings means the gate never fires", func(t *testing.T) {
		unchanged := sub.Apply(m, rules)
		assert.Contains(t, unchanged.Securities, "AAPL")
	})

	t.Run("lot value above threshold does not fire", func(t *testing.T) {
		big := []domain.Holding{{SecurityID: "AAPL", MarketValue: 50000, CostBasis: 40000}}
		unchanged := sub.ApplyWithHoldings(m, rules, big)
		assert.Contains(t, unchanged.Securities, "AAPL")
	})
}

func TestApplyClientPreferenceCondition(t *testing.T) {
	m := directModel()
	rules := []domain.SubstitutionRule{{
		ID:                   "no-mega-tech",
		OriginalSecurityID:   "AMZN",
		SubstituteSecurityID: "SHOP",
		Condition:            domain.ClientPreference("avoid-mega-tech"),
		Priority:             domain.PriorityMedium,
	}}

	withPref := NewSubstituter(refdata.WithSampleData(), []string{"avoid-mega-tech"}, zerolog.Nop())
	derived := withPref.Apply(m, rules)
	assert.Contains(t, derived.Securities, "SHOP")

	withoutPref := NewSubstituter(refdata.WithSampleData(), nil, zerolog.Nop())
	unchanged := withoutPref.Apply(m, rules)
	assert.Contains(t, unchanged.Securities, "AMZN")
}

func TestApplyOrdersByPriorityHighestFirst(t *testing.T) {
	sub := NewSubstituter(refdata.WithSampleData(), nil, zerolog.Nop())
	m := directModel()

	// Both rules target AAPL. The high-priority rule moves the weight first,
	// so the low-priority rule finds nothing to swap.
	derived := sub.Apply(m, []domain.SubstitutionRule{
		{
			ID:                   "low",
			OriginalSecurityID:   "AAPL",
			SubstituteSecurityID: "ADBE",
			Condition:            domain.Always(),
			Priority:             domain.PriorityLow,
		},
		{
			ID:                   "high",
			OriginalSecurityID:   "AAPL",
			SubstituteSecurityID: "NVDA",
			Condition:            domain.Always(),
			Priority:             domain.PriorityHigh,
		},
	})

	require.Contains(t, derived.Securities, "NVDA")
	assert.NotContains(t, derived.Securities, "ADBE")
}

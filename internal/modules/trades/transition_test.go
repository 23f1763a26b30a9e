package trades

import (
	"testing"

	"github.com/aristath/loom/internal/config"
	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionSellsThenBuys(t *testing.T) {
	s := NewTransitionStrategy(config.Default(), zerolog.Nop())

	p := &domain.Portfolio{
		ID:          "port-tr",
		MarketValue: 100_000,
		Holdings: []domain.Holding{
			{SecurityID: "AAPL", MarketValue: 50_000, Weight: 0.5, TargetWeight: 0.5, CostBasis: 40_000},
			{SecurityID: "AGG", MarketValue: 50_000, Weight: 0.5, TargetWeight: 0.5, CostBasis: 50_000},
		},
	}
	targets := map[string]float64{
		"AAPL": 0.2,
		"AGG":  0.5,
		"NVDA": 0.3,
	}

	trades := s.GenerateTrades(p, targets, true)
	require.Len(t, trades, 2)

	// Sells precede buys.
	sell := trades[0]
	assert.Equal(t, "AAPL", sell.SecurityID)
	assert.False(t, sell.IsBuy)
	assert.InDelta(t, 30_000, sell.Amount, 1e-6)
	assert.Equal(t, domain.TradeReasonTransition, sell.Reason)
	// Pro-rated: $10k gain, selling 30k of 50k, at 20%.
	require.True(t, sell.HasTaxImpact())
	assert.InDelta(t, 10_000*(30_000.0/50_000.0)*0.2, *sell.TaxImpact, 1e-6)

	buy := trades[1]
	assert.Equal(t, "NVDA", buy.SecurityID)
	assert.True(t, buy.IsBuy)
	assert.InDelta(t, 30_000, buy.Amount, 1e-6)
	assert.False(t, buy.HasTaxImpact())
}

func TestTransitionSellsPositionsMissingFromTarget(t *testing.T) {
	s := NewTransitionStrategy(config.Default(), zerolog.Nop())

	p := &domain.Portfolio{
		ID:          "port-tr2",
		MarketValue: 100_000,
		Holdings: []domain.Holding{
			{SecurityID: "META", MarketValue: 100_000, Weight: 1.0, TargetWeight: 1.0, CostBasis: 120_000},
		},
	}
	trades := s.GenerateTrades(p, map[string]float64{"AGG": 1.0}, true)
	require.Len(t, trades, 2)

	sell := trades[0]
	assert.Equal(t, "META", sell.SecurityID)
	assert.InDelta(t, 100_000, sell.Amount, 1e-6)
	require.True(t, sell.HasTaxImpact())
	assert.Zero(t, *sell.TaxImpact, "losses realize no gain")

	buy := trades[1]
	assert.Equal(t, "AGG", buy.SecurityID)
	assert.InDelta(t, 100_000, buy.Amount, 1e-6)
}

func TestTransitionSkipsSmallMoves(t *testing.T) {
	s := NewTransitionStrategy(config.Default(), zerolog.Nop())

	p := &domain.Portfolio{
		ID:          "port-tr3",
		MarketValue: 10_000,
		Holdings: []domain.Holding{
			{SecurityID: "AAPL", MarketValue: 5_000, Weight: 0.5, TargetWeight: 0.5, CostBasis: 5_000},
			{SecurityID: "AGG", MarketValue: 5_000, Weight: 0.5, TargetWeight: 0.5, CostBasis: 5_000},
		},
	}
	// Half-percent shifts at a $10k total are $50 moves, under the $100 floor.
	trades := s.GenerateTrades(p, map[string]float64{"AAPL": 0.495, "AGG": 0.505}, false)
	assert.Empty(t, trades)
}

func TestTransitionGenerateRequiresInputs(t *testing.T) {
	s := NewTransitionStrategy(config.Default(), zerolog.Nop())
	_, err := s.Generate(Request{Portfolio: &domain.Portfolio{}})
	assert.Error(t, err)
}

package trades

import (
	"testing"

	"github.com/aristath/loom/internal/config"
	"github.com/aristath/loom/internal/domain"
	"github.com/aristath/loom/internal/modules/factors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factorPortfolio() *domain.Portfolio {
	return &domain.Portfolio{
		ID:          "portfolio-123",
		MarketValue: 1_000_000,
		Holdings: []domain.Holding{
			{
				SecurityID:   "AAPL",
				MarketValue:  500_000,
				Weight:       0.5,
				TargetWeight: 0.5,
				CostBasis:    400_000,
				FactorExposures: map[string]float64{
					"momentum": 0.8,
					"value":    -0.2,
				},
			},
			{
				SecurityID:   "JPM",
				MarketValue:  500_000,
				Weight:       0.5,
				TargetWeight: 0.5,
				CostBasis:    550_000,
				FactorExposures: map[string]float64{
					"momentum": 0.1,
					"value":    0.7,
				},
			},
		},
	}
}

func TestFactorTradesReduceDriftedExposure(t *testing.T) {
	model := factors.WithSampleData(zerolog.Nop())
	model.SetExposures("portfolio-123", map[string]float64{"momentum": 0.5, "value": 0.1})
	s := NewFactorStrategy(model, config.Default(), zerolog.Nop())

	// Momentum is 0.3 over target; value is on target.
	targets := map[string]float64{"momentum": 0.2, "value": 0.1}
	trades := s.GenerateTrades(factorPortfolio(), "portfolio-123", targets, false)
	require.NotEmpty(t, trades)

	byID := make(map[string]domain.RebalanceTrade)
	for _, tr := range trades {
		assert.Equal(t, domain.TradeReasonFactorAdjustment, tr.Reason)
		byID[tr.SecurityID] = tr
	}

	// AAPL: adjustment = 0.3 * 0.8 * 2.0 = 0.48 -> sell $480k.
	aapl, ok := byID["AAPL"]
	require.True(t, ok)
	assert.False(t, aapl.IsBuy, "positive drift sells high-exposure holdings")
	assert.InDelta(t, 0.3*0.8*2.0*500_000, aapl.Amount, 1e-6)

	// JPM: adjustment = 0.3 * 0.1 * 2.0 = 0.06 -> sell $30k.
	jpm, ok := byID["JPM"]
	require.True(t, ok)
	assert.False(t, jpm.IsBuy)
	assert.InDelta(t, 0.3*0.1*2.0*500_000, jpm.Amount, 1e-6)
}

func TestFactorTradesBuyWhenUnderexposed(t *testing.T) {
	model := factors.WithSampleData(zerolog.Nop())
	model.SetExposures("portfolio-123", map[string]float64{"value": 0.1})
	s := NewFactorStrategy(model, config.Default(), zerolog.Nop())

	// Value 0.4 under target.
	targets := map[string]float64{"value": 0.5}
	trades := s.GenerateTrades(factorPortfolio(), "portfolio-123", targets, false)
	require.NotEmpty(t, trades)

	for _, tr := range trades {
		if tr.SecurityID == "JPM" {
			assert.True(t, tr.IsBuy, "negative drift buys positive-exposure holdings")
			assert.InDelta(t, 0.4*0.7*2.0*500_000, tr.Amount, 1e-6)
		}
	}
}

func TestFactorTradesCappedAtMarketValue(t *testing.T) {
	model := factors.WithSampleData(zerolog.Nop())
	model.SetExposures("portfolio-123", map[string]float64{"momentum": 1.5})
	s := NewFactorStrategy(model, config.Default(), zerolog.Nop())

	trades := s.GenerateTrades(factorPortfolio(), "portfolio-123", map[string]float64{"momentum": 0.0}, false)
	for _, tr := range trades {
		if tr.SecurityID == "AAPL" {
			// 1.5 * 0.8 * 2.0 = 2.4x would exceed the position.
			assert.InDelta(t, 500_000, tr.Amount, 1e-6)
		}
	}
}

func TestFactorTradesNoDriftNoTrades(t *testing.T) {
	model := factors.WithSampleData(zerolog.Nop())
	model.SetExposures("portfolio-123", map[string]float64{"momentum": 0.25})
	s := NewFactorStrategy(model, config.Default(), zerolog.Nop())

	// Drift 0.05 is under the 0.1 threshold.
	trades := s.GenerateTrades(factorPortfolio(), "portfolio-123", map[string]float64{"momentum": 0.2}, false)
	assert.Empty(t, trades)
}

func TestFactorTradesUnknownPortfolio(t *testing.T) {
	s := NewFactorStrategy(factors.WithSampleData(zerolog.Nop()), config.Default(), zerolog.Nop())
	trades := s.GenerateTrades(factorPortfolio(), "missing", map[string]float64{"momentum": 0.2}, false)
	assert.Empty(t, trades)
}

func TestFactorTradesTaxAwareSells(t *testing.T) {
	model := factors.WithSampleData(zerolog.Nop())
	model.SetExposures("portfolio-123", map[string]float64{"momentum": 0.5})
	s := NewFactorStrategy(model, config.Default(), zerolog.Nop())

	trades := s.GenerateTrades(factorPortfolio(), "portfolio-123", map[string]float64{"momentum": 0.2}, true)
	require.NotEmpty(t, trades)

	for _, tr := range trades {
		switch tr.SecurityID {
		case "AAPL":
			// $100k gain at 20%.
			require.True(t, tr.HasTaxImpact())
			assert.InDelta(t, 20_000, *tr.TaxImpact, 1e-6)
		case "JPM":
			// At a loss: impact zero.
			require.True(t, tr.HasTaxImpact())
			assert.Zero(t, *tr.TaxImpact)
		}
	}
}

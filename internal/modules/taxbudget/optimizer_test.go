package taxbudget

import (
	"testing"

	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proposedTrades() []domain.RebalanceTrade {
	return []domain.RebalanceTrade{
		{SecurityID: "AAPL", Amount: 50_000, IsBuy: false, Reason: domain.TradeReasonRebalance, TaxImpact: domain.TaxImpactOf(3_000)},
		{SecurityID: "AGG", Amount: 50_000, IsBuy: true, Reason: domain.TradeReasonRebalance},
		{SecurityID: "MSFT", Amount: 30_000, IsBuy: false, Reason: domain.TradeReasonRebalance, TaxImpact: domain.TaxImpactOf(4_000)},
		{SecurityID: "AMZN", Amount: 20_000, IsBuy: false, Reason: domain.TradeReasonTaxLossHarvesting, TaxImpact: domain.TaxImpactOf(-1_500)},
		{SecurityID: "JPM", Amount: 10_000, IsBuy: false, Reason: domain.TradeReasonRebalance},
	}
}

func TestOptimizeDefersCostliestSells(t *testing.T) {
	o := NewOptimizer(zerolog.Nop())

	res := o.Optimize(proposedTrades(), 5_000, 0)
	require.Len(t, res.Trades, 4)

	ids := make([]string, 0, len(res.Trades))
	for _, tr := range res.Trades {
		ids = append(ids, tr.SecurityID)
	}
	// The AMZN harvest offsets $1.5k, so AAPL's $3k lands at $1.5k net.
	// MSFT's $4k would still push the total past $5k.
	assert.Equal(t, []string{"AAPL", "AGG", "AMZN", "JPM"}, ids)
	assert.InDelta(t, 1_500, res.RealizedImpact, 1e-6)
	assert.Equal(t, 1, res.Deferred)
}

func TestOptimizeHarvestedLossesFreeBudget(t *testing.T) {
	o := NewOptimizer(zerolog.Nop())

	trades := []domain.RebalanceTrade{
		{SecurityID: "AMZN", Amount: 20_000, IsBuy: false, Reason: domain.TradeReasonTaxLossHarvesting, TaxImpact: domain.TaxImpactOf(-1_500)},
		{SecurityID: "AAPL", Amount: 50_000, IsBuy: false, Reason: domain.TradeReasonRebalance, TaxImpact: domain.TaxImpactOf(3_000)},
	}
	res := o.Optimize(trades, 2_000, 0)

	// The $3k gain alone blows the $2k budget, but the harvested loss nets
	// it down to $1.5k.
	require.Len(t, res.Trades, 2)
	assert.InDelta(t, 1_500, res.RealizedImpact, 1e-6)
	assert.Zero(t, res.Deferred)
}

func TestOptimizePrefersCheaperGainsRegardlessOfOrder(t *testing.T) {
	o := NewOptimizer(zerolog.Nop())

	trades := []domain.RebalanceTrade{
		{SecurityID: "AAPL", Amount: 50_000, IsBuy: false, Reason: domain.TradeReasonRebalance, TaxImpact: domain.TaxImpactOf(3_000)},
		{SecurityID: "MSFT", Amount: 30_000, IsBuy: false, Reason: domain.TradeReasonRebalance, TaxImpact: domain.TaxImpactOf(2_000)},
	}
	res := o.Optimize(trades, 4_000, 0)

	// Only one gain fits; the cheaper MSFT sell wins even though AAPL was
	// proposed first.
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "MSFT", res.Trades[0].SecurityID)
	assert.InDelta(t, 2_000, res.RealizedImpact, 1e-6)
}

func TestOptimizeAccountsForRealizedYTD(t *testing.T) {
	o := NewOptimizer(zerolog.Nop())

	res := o.Optimize(proposedTrades(), 10_000, 4_000)
	// $6k remains: the AMZN harvest pulls the running total to -$1.5k, so
	// both gains fit at $5.5k net.
	require.Len(t, res.Trades, len(proposedTrades()))
	assert.InDelta(t, 5_500, res.RealizedImpact, 1e-6)
	assert.Zero(t, res.Deferred)
}

func TestOptimizeExhaustedBudgetKeepsNonGainTrades(t *testing.T) {
	o := NewOptimizer(zerolog.Nop())

	res := o.Optimize(proposedTrades(), 5_000, 9_000)
	require.Len(t, res.Trades, 3)
	for _, tr := range res.Trades {
		if tr.HasTaxImpact() {
			assert.LessOrEqual(t, *tr.TaxImpact, 0.0)
		}
	}
	assert.InDelta(t, -1_500, res.RealizedImpact, 1e-6)
	assert.Equal(t, 2, res.Deferred)
}

func TestOptimizeGenerousBudgetKeepsEverything(t *testing.T) {
	o := NewOptimizer(zerolog.Nop())

	res := o.Optimize(proposedTrades(), 100_000, 0)
	assert.Len(t, res.Trades, len(proposedTrades()))
	assert.InDelta(t, 5_500, res.RealizedImpact, 1e-6)
	assert.Zero(t, res.Deferred)
}

func TestOptimizeIsIdempotent(t *testing.T) {
	o := NewOptimizer(zerolog.Nop())

	first := o.Optimize(proposedTrades(), 5_000, 0)
	second := o.Optimize(first.Trades, 5_000, 0)
	assert.Equal(t, first.Trades, second.Trades)
	assert.InDelta(t, first.RealizedImpact, second.RealizedImpact, 1e-6)
}

func TestOptimizeEmptyInput(t *testing.T) {
	o := NewOptimizer(zerolog.Nop())
	res := o.Optimize(nil, 5_000, 0)
	assert.Empty(t, res.Trades)
	assert.Zero(t, res.RealizedImpact)
}

package trades

import (
	"math"
	"sort"

	"github.com/aristath/loom/internal/config"
	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// RebalanceStrategy realigns weights with targets. It works on a flat
// portfolio (per-holding drift) or a sleeved account (per-sleeve drift,
// routed through the sleeve's largest holding).
type RebalanceStrategy struct {
	driftThreshold   float64
	minTradeAmount   float64
	maxTrades        int
	capitalGainsRate float64
	log              zerolog.Logger
}

// NewRebalanceStrategy creates the strategy with the configured thresholds.
func NewRebalanceStrategy(cfg *config.Config, log zerolog.Logger) *RebalanceStrategy {
	return &RebalanceStrategy{
		driftThreshold:   cfg.DriftThreshold,
		minTradeAmount:   cfg.MinTradeAmount,
		maxTrades:        cfg.MaxTrades,
		capitalGainsRate: cfg.CapitalGainsRate,
		log:              log.With().Str("strategy", "rebalance").Logger(),
	}
}

func (s *RebalanceStrategy) Name() string { return "rebalance" }

func (s *RebalanceStrategy) Reason() domain.TradeReason { return domain.TradeReasonRebalance }

// Generate dispatches on the request: a sleeved account takes precedence over
// a flat portfolio.
func (s *RebalanceStrategy) Generate(req Request) ([]domain.RebalanceTrade, error) {
	if req.UMA != nil {
		return s.GenerateUMATrades(req.UMA, req.TaxAware), nil
	}
	if req.Portfolio != nil {
		return s.GeneratePortfolioTrades(req.Portfolio, req.TaxAware), nil
	}
	return nil, domain.NewInvalidParameter("request", "rebalance requires a portfolio or account")
}

// candidate is one drifted position awaiting trade sizing.
type candidate struct {
	index    int
	drift    float64
	absDrift float64
}

// rankCandidates sorts by absolute drift descending and truncates to the max
// trade count BEFORE amounts are computed, so small-amount skips below do not
// free up slots for lesser drifts.
func (s *RebalanceStrategy) rankCandidates(candidates []candidate) []candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].absDrift > candidates[j].absDrift
	})
	if s.maxTrades > 0 && len(candidates) > s.maxTrades {
		candidates = candidates[:s.maxTrades]
	}
	return candidates
}

// GeneratePortfolioTrades rebalances a flat portfolio toward its holdings'
// target weights.
func (s *RebalanceStrategy) GeneratePortfolioTrades(p *domain.Portfolio, taxAware bool) []domain.RebalanceTrade {
	var candidates []candidate
	for i := range p.Holdings {
		d := p.Holdings[i].Weight - p.Holdings[i].TargetWeight
		if math.Abs(d) >= s.driftThreshold {
			candidates = append(candidates, candidate{index: i, drift: d, absDrift: math.Abs(d)})
		}
	}
	candidates = s.rankCandidates(candidates)

	var trades []domain.RebalanceTrade
	for _, c := range candidates {
		h := &p.Holdings[c.index]
		targetValue := p.MarketValue * h.TargetWeight
		amount := math.Abs(targetValue - h.MarketValue)
		if amount < s.minTradeAmount {
			continue
		}

		isBuy := c.drift < 0
		trades = append(trades, domain.RebalanceTrade{
			SecurityID: h.SecurityID,
			Amount:     amount,
			IsBuy:      isBuy,
			Reason:     domain.TradeReasonRebalance,
			TaxImpact:  s.sellTaxImpact(taxAware, isBuy, h.UnrealizedGain()),
		})
	}

	s.log.Debug().
		Str("portfolio_id", p.ID).
		Int("candidates", len(candidates)).
		Int("trades", len(trades)).
		Msg("Generated rebalance trades")
	return trades
}

// GenerateUMATrades rebalances a sleeved account. A drifted sleeve trades its
// largest holding for the full sleeve-level amount.
func (s *RebalanceStrategy) GenerateUMATrades(uma *domain.UnifiedManagedAccount, taxAware bool) []domain.RebalanceTrade {
	var candidates []candidate
	for i := range uma.Sleeves {
		d := uma.Sleeves[i].Drift()
		if math.Abs(d) >= s.driftThreshold {
			candidates = append(candidates, candidate{index: i, drift: d, absDrift: math.Abs(d)})
		}
	}
	candidates = s.rankCandidates(candidates)

	total := uma.TotalMarketValue()
	var trades []domain.RebalanceTrade
	for _, c := range candidates {
		sleeve := &uma.Sleeves[c.index]
		targetValue := total * sleeve.TargetWeight
		amount := math.Abs(targetValue - sleeve.MarketValue)
		if amount < s.minTradeAmount {
			continue
		}

		holding := sleeve.LargestHolding()
		if holding == nil {
			continue
		}

		isBuy := c.drift < 0
		trades = append(trades, domain.RebalanceTrade{
			SecurityID: holding.SecurityID,
			Amount:     amount,
			IsBuy:      isBuy,
			Reason:     domain.TradeReasonRebalance,
			TaxImpact:  s.sellTaxImpact(taxAware, isBuy, holding.UnrealizedGain()),
		})
	}

	s.log.Debug().
		Str("account_id", uma.ID).
		Int("candidates", len(candidates)).
		Int("trades", len(trades)).
		Msg("Generated account rebalance trades")
	return trades
}

// sellTaxImpact estimates realized gains on a tax-aware sell: the unrealized
// gain times the capital gains rate, zero for positions at a loss. Buys and
// tax-unaware sells carry no estimate.
func (s *RebalanceStrategy) sellTaxImpact(taxAware, isBuy bool, unrealizedGain float64) *float64 {
	if !taxAware || isBuy {
		return nil
	}
	if unrealizedGain > 0 {
		return domain.TaxImpactOf(unrealizedGain * s.capitalGainsRate)
	}
	return domain.TaxImpactOf(0.0)
}

package trades

import (
	"sort"

	"github.com/aristath/loom/internal/config"
	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// TransitionStrategy moves a portfolio onto a new set of target weights,
// including positions the portfolio does not hold yet. Sells come first so
// their proceeds can fund the buys.
type TransitionStrategy struct {
	minTradeAmount   float64
	capitalGainsRate float64
	log              zerolog.Logger
}

// NewTransitionStrategy creates the strategy with the configured thresholds.
func NewTransitionStrategy(cfg *config.Config, log zerolog.Logger) *TransitionStrategy {
	return &TransitionStrategy{
		minTradeAmount:   cfg.MinTradeAmount,
		capitalGainsRate: cfg.CapitalGainsRate,
		log:              log.With().Str("strategy", "transition").Logger(),
	}
}

func (s *TransitionStrategy) Name() string { return "transition" }

func (s *TransitionStrategy) Reason() domain.TradeReason { return domain.TradeReasonTransition }

// Generate requires Portfolio and TargetWeights.
func (s *TransitionStrategy) Generate(req Request) ([]domain.RebalanceTrade, error) {
	if req.Portfolio == nil || req.TargetWeights == nil {
		return nil, domain.NewInvalidParameter("request", "transition requires a portfolio and target weights")
	}
	return s.GenerateTrades(req.Portfolio, req.TargetWeights, req.TaxAware), nil
}

// GenerateTrades produces the sells and buys that take the portfolio to the
// target weights. Amounts are sized against the current total value. Tax
// impact on tax-aware sells is pro-rated by the fraction of the position
// being sold.
func (s *TransitionStrategy) GenerateTrades(p *domain.Portfolio, targetWeights map[string]float64, taxAware bool) []domain.RebalanceTrade {
	held := make(map[string]*domain.Holding, len(p.Holdings))
	for i := range p.Holdings {
		held[p.Holdings[i].SecurityID] = &p.Holdings[i]
	}

	var trades []domain.RebalanceTrade

	// Sells: current weight above target, or security absent from the target.
	for i := range p.Holdings {
		h := &p.Holdings[i]
		targetWeight := targetWeights[h.SecurityID]
		if targetWeight >= h.Weight {
			continue
		}

		sellAmount := h.MarketValue - p.MarketValue*targetWeight
		if sellAmount < s.minTradeAmount {
			continue
		}

		var taxImpact *float64
		if taxAware {
			if gain := h.UnrealizedGain(); gain > 0 {
				taxImpact = domain.TaxImpactOf(gain * sellAmount / h.MarketValue * s.capitalGainsRate)
			} else {
				taxImpact = domain.TaxImpactOf(0.0)
			}
		}

		trades = append(trades, domain.RebalanceTrade{
			SecurityID: h.SecurityID,
			Amount:     sellAmount,
			IsBuy:      false,
			Reason:     domain.TradeReasonTransition,
			TaxImpact:  taxImpact,
		})
	}

	// Buys: target weight above current, including unheld securities.
	targets := make([]string, 0, len(targetWeights))
	for securityID := range targetWeights {
		targets = append(targets, securityID)
	}
	sort.Strings(targets)

	for _, securityID := range targets {
		targetWeight := targetWeights[securityID]
		var currentWeight, currentValue float64
		if h, ok := held[securityID]; ok {
			currentWeight = h.Weight
			currentValue = h.MarketValue
		}
		if targetWeight <= currentWeight {
			continue
		}

		buyAmount := p.MarketValue*targetWeight - currentValue
		if buyAmount < s.minTradeAmount {
			continue
		}

		trades = append(trades, domain.RebalanceTrade{
			SecurityID: securityID,
			Amount:     buyAmount,
			IsBuy:      true,
			Reason:     domain.TradeReasonTransition,
		})
	}

	s.log.Debug().
		Str("portfolio_id", p.ID).
		Int("targets", len(targetWeights)).
		Int("trades", len(trades)).
		Msg("Generated transition trades")
	return trades
}

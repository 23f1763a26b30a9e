package trades

import (
	"math"
	"sort"

	"github.com/aristath/loom/internal/config"
	"github.com/aristath/loom/internal/domain"
	"github.com/aristath/loom/internal/modules/drift"
	"github.com/aristath/loom/internal/modules/factors"
	"github.com/rs/zerolog"
)

// FactorStrategy trades holdings to pull drifted factor exposures back toward
// their targets. It ranks holdings by how much they contribute to each
// drifted factor and sizes trades from the combined drift-weighted exposure.
type FactorStrategy struct {
	model            *factors.Model
	driftThreshold   float64
	minTradeAmount   float64
	adjustmentScale  float64
	maxPerFactor     int
	capitalGainsRate float64
	log              zerolog.Logger
}

// NewFactorStrategy creates the strategy over the given factor model.
func NewFactorStrategy(model *factors.Model, cfg *config.Config, log zerolog.Logger) *FactorStrategy {
	return &FactorStrategy{
		model:            model,
		driftThreshold:   cfg.FactorDriftThreshold,
		minTradeAmount:   cfg.MinTradeAmount,
		adjustmentScale:  cfg.FactorAdjustmentScale,
		maxPerFactor:     cfg.MaxFactorTradesPerFactor,
		capitalGainsRate: cfg.CapitalGainsRate,
		log:              log.With().Str("strategy", "factor").Logger(),
	}
}

func (s *FactorStrategy) Name() string { return "factor" }

func (s *FactorStrategy) Reason() domain.TradeReason { return domain.TradeReasonFactorAdjustment }

// Generate requires Portfolio, PortfolioID, and TargetExposures.
func (s *FactorStrategy) Generate(req Request) ([]domain.RebalanceTrade, error) {
	if req.Portfolio == nil || req.TargetExposures == nil {
		return nil, domain.NewInvalidParameter("request", "factor adjustment requires a portfolio and target exposures")
	}
	return s.GenerateTrades(req.Portfolio, req.PortfolioID, req.TargetExposures, req.TaxAware), nil
}

// GenerateTrades produces factor adjustment trades. An unknown portfolio ID
// or no significant factor drift yields no trades.
func (s *FactorStrategy) GenerateTrades(p *domain.Portfolio, portfolioID string, targetExposures map[string]float64, taxAware bool) []domain.RebalanceTrade {
	current, err := s.model.Exposures(portfolioID)
	if err != nil {
		s.log.Debug().Str("portfolio_id", portfolioID).Msg("No factor exposures recorded")
		return nil
	}

	factorDrift := drift.FactorDrift(current, targetExposures, s.driftThreshold)
	if len(factorDrift) == 0 {
		return nil
	}

	selected := s.selectHoldings(p, factorDrift)

	var trades []domain.RebalanceTrade
	for i := range p.Holdings {
		h := &p.Holdings[i]
		factorIDs, ok := selected[h.SecurityID]
		if !ok {
			continue
		}

		amount, isBuy := s.tradeAmount(h, factorIDs, factorDrift)
		if amount < s.minTradeAmount {
			continue
		}

		var taxImpact *float64
		if taxAware && !isBuy {
			if gain := h.UnrealizedGain(); gain > 0 {
				taxImpact = domain.TaxImpactOf(gain * s.capitalGainsRate)
			} else {
				taxImpact = domain.TaxImpactOf(0.0)
			}
		}

		trades = append(trades, domain.RebalanceTrade{
			SecurityID: h.SecurityID,
			Amount:     amount,
			IsBuy:      isBuy,
			Reason:     domain.TradeReasonFactorAdjustment,
			TaxImpact:  taxImpact,
		})
	}

	s.log.Debug().
		Str("portfolio_id", portfolioID).
		Int("drifted_factors", len(factorDrift)).
		Int("trades", len(trades)).
		Msg("Generated factor adjustment trades")
	return trades
}

// selectHoldings picks, per drifted factor, the holdings whose weighted
// exposure moves that factor the most in the corrective direction. Positive
// drift wants exposure reduced, so low (negative) sensitivity ranks first.
func (s *FactorStrategy) selectHoldings(p *domain.Portfolio, factorDrift map[string]float64) map[string][]string {
	factorIDs := make([]string, 0, len(factorDrift))
	for factorID := range factorDrift {
		factorIDs = append(factorIDs, factorID)
	}
	sort.Strings(factorIDs)

	selected := make(map[string][]string)
	for _, factorID := range factorIDs {
		d := factorDrift[factorID]

		type ranked struct {
			securityID  string
			sensitivity float64
		}
		var rankings []ranked
		for i := range p.Holdings {
			h := &p.Holdings[i]
			exposure, ok := h.FactorExposures[factorID]
			if !ok {
				continue
			}
			sensitivity := exposure * h.Weight
			if d > 0 {
				sensitivity = -sensitivity
			}
			rankings = append(rankings, ranked{securityID: h.SecurityID, sensitivity: sensitivity})
		}

		sort.SliceStable(rankings, func(i, j int) bool {
			return rankings[i].sensitivity > rankings[j].sensitivity
		})
		if s.maxPerFactor > 0 && len(rankings) > s.maxPerFactor {
			rankings = rankings[:s.maxPerFactor]
		}

		for _, r := range rankings {
			selected[r.securityID] = append(selected[r.securityID], factorID)
		}
	}
	return selected
}

// tradeAmount combines the drift-weighted exposures of the selected factors
// into one adjustment. A net positive adjustment reduces exposure (sell); the
// amount is capped at the position's market value.
func (s *FactorStrategy) tradeAmount(h *domain.Holding, factorIDs []string, factorDrift map[string]float64) (float64, bool) {
	var total float64
	for _, factorID := range factorIDs {
		d, ok := factorDrift[factorID]
		if !ok {
			continue
		}
		exposure, ok := h.FactorExposures[factorID]
		if !ok {
			continue
		}
		total += d * exposure * s.adjustmentScale
	}

	isBuy := total < 0
	amount := math.Min(math.Abs(total)*h.MarketValue, h.MarketValue)
	return amount, isBuy
}

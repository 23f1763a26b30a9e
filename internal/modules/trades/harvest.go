package trades

import (
	"math"
	"time"

	"github.com/aristath/loom/internal/config"
	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// HarvestStrategy realizes unrealized losses for their tax benefit. Each
// qualifying position is sold in full and paired with a wash-sale-safe
// substitute buy so market exposure is kept.
type HarvestStrategy struct {
	selector         ReplacementSelector
	minPositionValue float64
	maxDailyFraction float64
	log              zerolog.Logger
}

// NewHarvestStrategy creates the strategy with the configured position floor
// and per-run harvest cap.
func NewHarvestStrategy(selector ReplacementSelector, cfg *config.Config, log zerolog.Logger) *HarvestStrategy {
	return &HarvestStrategy{
		selector:         selector,
		minPositionValue: cfg.HarvestMinPositionValue,
		maxDailyFraction: cfg.HarvestMaxDailyFraction,
		log:              log.With().Str("strategy", "harvest").Logger(),
	}
}

func (s *HarvestStrategy) Name() string { return "harvest" }

func (s *HarvestStrategy) Reason() domain.TradeReason { return domain.TradeReasonTaxLossHarvesting }

// Generate requires TaxSettings and either UMA or Portfolio.
func (s *HarvestStrategy) Generate(req Request) ([]domain.RebalanceTrade, error) {
	if req.TaxSettings == nil {
		return nil, domain.NewInvalidParameter("request", "harvesting requires tax settings")
	}
	if req.UMA != nil {
		return s.GenerateUMATrades(req.UMA, req.TaxSettings), nil
	}
	if req.Portfolio != nil {
		return s.generate(req.Portfolio.Holdings, req.Portfolio.MarketValue, req.TaxSettings), nil
	}
	return nil, domain.NewInvalidParameter("request", "harvesting requires a portfolio or account")
}

// GenerateUMATrades harvests losses across all sleeves of the account.
func (s *HarvestStrategy) GenerateUMATrades(uma *domain.UnifiedManagedAccount, settings *domain.TaxOptimizationSettings) []domain.RebalanceTrade {
	var holdings []domain.Holding
	for i := range uma.Sleeves {
		holdings = append(holdings, uma.Sleeves[i].Holdings...)
	}
	return s.generate(holdings, uma.TotalMarketValue(), settings)
}

func (s *HarvestStrategy) generate(holdings []domain.Holding, totalValue float64, settings *domain.TaxOptimizationSettings) []domain.RebalanceTrade {
	harvestBudget := totalValue * s.maxDailyFraction
	var harvestedValue float64

	// Substitutes bought this run and positions already sold; neither may be
	// bought or sold again without triggering a wash sale.
	touched := make(map[string]bool)

	var trades []domain.RebalanceTrade
	for i := range holdings {
		h := &holdings[i]
		loss := h.UnrealizedGain()
		if loss >= 0 {
			continue
		}
		if h.MarketValue < s.minPositionValue {
			continue
		}
		if touched[h.SecurityID] {
			continue
		}
		if harvestedValue+h.MarketValue > harvestBudget {
			continue
		}

		rate := settings.RateFor(holdingPeriodOf(h))
		savings := -loss * rate
		if settings.MinTaxSavings != nil && savings < *settings.MinTaxSavings {
			continue
		}

		harvestedValue += h.MarketValue
		touched[h.SecurityID] = true
		trades = append(trades, domain.RebalanceTrade{
			SecurityID: h.SecurityID,
			Amount:     h.MarketValue,
			IsBuy:      false,
			Reason:     domain.TradeReasonTaxLossHarvesting,
			TaxImpact:  domain.TaxImpactOf(-savings),
		})

		substitute, ok := s.selector.Replacement(h.SecurityID)
		if !ok || touched[substitute] {
			continue
		}
		touched[substitute] = true
		trades = append(trades, domain.RebalanceTrade{
			SecurityID: substitute,
			Amount:     h.MarketValue,
			IsBuy:      true,
			Reason:     domain.TradeReasonTaxLossHarvesting,
		})
	}

	s.log.Debug().
		Float64("harvested_value", harvestedValue).
		Int("trades", len(trades)).
		Msg("Generated loss harvesting trades")
	return trades
}

// holdingPeriodOf classifies the holding's age for rate selection. Positions
// held a year or longer qualify for the long-term rate.
func holdingPeriodOf(h *domain.Holding) domain.HoldingPeriod {
	if !h.AcquiredAt.IsZero() && time.Since(h.AcquiredAt) >= 365*24*time.Hour {
		return domain.HoldingPeriodLongTerm
	}
	return domain.HoldingPeriodShortTerm
}

// HarvestableValue reports the total market value currently held at a loss,
// before floors and caps.
func HarvestableValue(holdings []domain.Holding) float64 {
	var total float64
	for i := range holdings {
		if holdings[i].UnrealizedGain() < 0 {
			total += math.Abs(holdings[i].MarketValue)
		}
	}
	return total
}

package household

import (
	"fmt"
	"sort"

	"github.com/aristath/loom/internal/domain"
	"github.com/aristath/loom/internal/modules/trades"
	"github.com/rs/zerolog"
)

// Recommendation is one asset relocation suggestion: move a holding from one
// account to another for a better tax outcome.
type Recommendation struct {
	SecurityID         string          `json:"security_id"`
	SourceAccountID    string          `json:"source_account_id"`
	TargetAccountID    string          `json:"target_account_id"`
	Amount             float64         `json:"amount"`
	TaxEfficiencyScore float64         `json:"tax_efficiency_score"`
	EstimatedSavings   float64         `json:"estimated_savings"`
	Priority           domain.Priority `json:"priority"`
	Reason             string          `json:"reason"`
}

// Optimizer produces asset location recommendations and household-wide
// tax-optimized trade lists.
type Optimizer struct {
	ref      domain.SecurityReference
	selector trades.ReplacementSelector
	log      zerolog.Logger
}

// NewOptimizer creates a household optimizer backed by the given security
// reference and wash-sale replacement selector.
func NewOptimizer(ref domain.SecurityReference, selector trades.ReplacementSelector, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		ref:      ref,
		selector: selector,
		log:      log.With().Str("component", "household_optimizer").Logger(),
	}
}

// Asset classes that throw off regular taxable income score low; broad
// equity scores high.
func assetTaxEfficiency(assetClass string) float64 {
	switch assetClass {
	case "FixedIncome":
		return 0.3
	case "RealEstate":
		return 0.4
	case "Equity":
		return 0.8
	default:
		return 0.5
	}
}

const (
	inefficientCutoff = 0.5
	efficientCutoff   = 0.8
	// efficiencyBoundary splits holdings into efficient and inefficient for
	// the location score.
	efficiencyBoundary = 0.7

	deferralSavingsRate   = 0.15
	relocationSavingsRate = 0.05
)

// RecommendAssetLocation flags tax-inefficient holdings sitting in taxable
// accounts (move to tax-deferred, high priority) and tax-efficient holdings
// sitting in tax-advantaged accounts (move to taxable, medium priority).
// Returns nothing when the household lacks either account type.
func (o *Optimizer) RecommendAssetLocation(h *Household) []Recommendation {
	taxable := h.AccountsByTaxType(AccountTaxable)
	deferred := h.AccountsByTaxType(AccountTaxDeferred)
	advantaged := h.TaxAdvantagedAccounts()
	if len(taxable) == 0 || len(advantaged) == 0 {
		return nil
	}

	var recs []Recommendation
	if len(deferred) > 0 {
		target := deferred[0]
		for _, account := range taxable {
			for i := range account.Sleeves {
				for _, holding := range account.Sleeves[i].Holdings {
					class := o.ref.AssetClass(holding.SecurityID)
					efficiency := assetTaxEfficiency(class)
					if efficiency > inefficientCutoff {
						continue
					}
					recs = append(recs, Recommendation{
						SecurityID:         holding.SecurityID,
						SourceAccountID:    account.ID,
						TargetAccountID:    target.ID,
						Amount:             holding.MarketValue,
						TaxEfficiencyScore: efficiency,
						EstimatedSavings:   holding.MarketValue * deferralSavingsRate,
						Priority:           domain.PriorityHigh,
						Reason:             fmt.Sprintf("%s is tax inefficient and belongs in a tax-advantaged account", class),
					})
				}
			}
		}
	}

	target := taxable[0]
	for _, account := range advantaged {
		for i := range account.Sleeves {
			for _, holding := range account.Sleeves[i].Holdings {
				class := o.ref.AssetClass(holding.SecurityID)
				efficiency := assetTaxEfficiency(class)
				if efficiency < efficientCutoff {
					continue
				}
				recs = append(recs, Recommendation{
					SecurityID:         holding.SecurityID,
					SourceAccountID:    account.ID,
					TargetAccountID:    target.ID,
					Amount:             holding.MarketValue,
					TaxEfficiencyScore: efficiency,
					EstimatedSavings:   holding.MarketValue * relocationSavingsRate,
					Priority:           domain.PriorityMedium,
					Reason:             fmt.Sprintf("%s is tax efficient and could be held in a taxable account", class),
				})
			}
		}
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority > recs[j].Priority })

	o.log.Debug().
		Str("household_id", h.ID).
		Int("recommendations", len(recs)).
		Msg("Generated asset location recommendations")
	return recs
}

// LocationEfficiency scores how well assets are placed across account types:
// the share of inefficient assets already in tax-advantaged accounts (weight
// 0.6) plus the share of efficient assets already in taxable accounts (weight
// 0.4). Returns 1.0 when the household has only one account type.
func (o *Optimizer) LocationEfficiency(h *Household) float64 {
	taxable := h.AccountsByTaxType(AccountTaxable)
	advantaged := h.TaxAdvantagedAccounts()
	if len(taxable) == 0 || len(advantaged) == 0 {
		return 1.0
	}

	var inefficientInAdvantaged, totalInefficient float64
	var efficientInTaxable, totalEfficient float64

	for _, account := range taxable {
		for i := range account.Sleeves {
			for _, holding := range account.Sleeves[i].Holdings {
				if assetTaxEfficiency(o.ref.AssetClass(holding.SecurityID)) > efficiencyBoundary {
					efficientInTaxable += holding.MarketValue
					totalEfficient += holding.MarketValue
				} else {
					totalInefficient += holding.MarketValue
				}
			}
		}
	}
	for _, account := range advantaged {
		for i := range account.Sleeves {
			for _, holding := range account.Sleeves[i].Holdings {
				if assetTaxEfficiency(o.ref.AssetClass(holding.SecurityID)) > efficiencyBoundary {
					totalEfficient += holding.MarketValue
				} else {
					inefficientInAdvantaged += holding.MarketValue
					totalInefficient += holding.MarketValue
				}
			}
		}
	}

	inefficientRatio := 1.0
	if totalInefficient > 0 {
		inefficientRatio = inefficientInAdvantaged / totalInefficient
	}
	efficientRatio := 1.0
	if totalEfficient > 0 {
		efficientRatio = efficientInTaxable / totalEfficient
	}
	return 0.6*inefficientRatio + 0.4*efficientRatio
}

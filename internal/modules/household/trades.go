package household

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/loom/internal/domain"
)

// AccountTrades is one account's slice of a household trade plan.
type AccountTrades struct {
	AccountID string                  `json:"account_id"`
	Trades    []domain.RebalanceTrade `json:"trades"`
}

// defaultMinTaxSavings applies when an account enables loss harvesting
// without setting its own floor.
const defaultMinTaxSavings = 100.0

// GenerateTaxOptimizedTrades builds the household trade plan: loss-harvesting
// trades for each taxable account, relocation sell/buy pairs from the asset
// location recommendations, then the shared gains budget applied across all
// accounts when household tax settings are present.
func (o *Optimizer) GenerateTaxOptimizedTrades(h *Household) []AccountTrades {
	var plan []AccountTrades

	for _, account := range h.AccountsByTaxType(AccountTaxable) {
		tlh := o.harvestAccount(account)
		if len(tlh) > 0 {
			plan = append(plan, AccountTrades{AccountID: account.ID, Trades: tlh})
		}
	}

	for _, rec := range o.RecommendAssetLocation(h) {
		plan = appendTrade(plan, rec.SourceAccountID, domain.RebalanceTrade{
			SecurityID: rec.SecurityID,
			Amount:     rec.Amount,
			IsBuy:      false,
			Reason:     domain.TradeReasonRebalance,
		})
		plan = appendTrade(plan, rec.TargetAccountID, domain.RebalanceTrade{
			SecurityID: rec.SecurityID,
			Amount:     rec.Amount,
			IsBuy:      true,
			Reason:     domain.TradeReasonRebalance,
		})
	}

	if h.TaxSettings != nil {
		budget := math.MaxFloat64
		if h.TaxSettings.AnnualTaxBudget != nil {
			budget = *h.TaxSettings.AnnualTaxBudget
		}
		plan = o.OptimizeForBudget(plan, budget, h.TaxSettings.RealizedGainsYTD)
	}

	o.log.Debug().
		Str("household_id", h.ID).
		Int("accounts", len(plan)).
		Msg("Generated household trade plan")
	return plan
}

// harvestAccount emits loss-harvesting sell/buy pairs for one taxable
// account. The account must carry tax settings with harvesting enabled.
func (o *Optimizer) harvestAccount(account *domain.UnifiedManagedAccount) []domain.RebalanceTrade {
	settings := account.TaxSettings
	if settings == nil || !settings.PrioritizeLossHarvesting {
		return nil
	}
	minSavings := defaultMinTaxSavings
	if settings.MinTaxSavings != nil {
		minSavings = *settings.MinTaxSavings
	}

	var out []domain.RebalanceTrade
	for i := range account.Sleeves {
		for _, holding := range account.Sleeves[i].Holdings {
			loss := holding.UnrealizedGain()
			if loss >= 0 {
				continue
			}
			savings := -loss * settings.ShortTermTaxRate
			if savings < minSavings {
				continue
			}

			out = append(out, domain.RebalanceTrade{
				SecurityID: holding.SecurityID,
				Amount:     holding.MarketValue,
				IsBuy:      false,
				Reason:     domain.TradeReasonTaxLossHarvesting,
				TaxImpact:  domain.TaxImpactOf(-savings),
			})
			if substitute, ok := o.selector.Replacement(holding.SecurityID); ok {
				out = append(out, domain.RebalanceTrade{
					SecurityID: substitute,
					Amount:     holding.MarketValue,
					IsBuy:      true,
					Reason:     domain.TradeReasonTaxLossHarvesting,
				})
			}
		}
	}
	return out
}

func appendTrade(plan []AccountTrades, accountID string, trade domain.RebalanceTrade) []AccountTrades {
	for i := range plan {
		if plan[i].AccountID == accountID {
			plan[i].Trades = append(plan[i].Trades, trade)
			return plan
		}
	}
	return append(plan, AccountTrades{AccountID: accountID, Trades: []domain.RebalanceTrade{trade}})
}

func pairKey(t domain.RebalanceTrade) string {
	return fmt.Sprintf("%s|%.4f", t.SecurityID, t.Amount)
}

// OptimizeForBudget applies the remaining household gains budget across the
// per-account trade lists. Loss-harvesting trades always survive, as do sells
// realizing no gain; gain-realizing sells compete for the budget in ascending
// impact order. A non-harvest buy survives only when its paired sell (same
// security and amount) does, so a relocation never ends up one-legged.
// Accounts whose trades are all dropped disappear from the plan.
func (o *Optimizer) OptimizeForBudget(plan []AccountTrades, annualBudget, realizedYTD float64) []AccountTrades {
	remaining := annualBudget - realizedYTD

	// If everything fits, keep the plan as proposed.
	var totalImpact float64
	for _, at := range plan {
		for _, t := range at.Trades {
			if !t.IsBuy {
				totalImpact += t.TaxImpactOrZero()
			}
		}
	}
	if remaining > 0 && totalImpact <= remaining {
		return plan
	}

	keep := make([][]bool, len(plan))
	keptSells := make(map[string]bool)
	var running float64

	type candidate struct {
		list, index int
		impact      float64
	}
	var candidates []candidate

	for li, at := range plan {
		keep[li] = make([]bool, len(at.Trades))
		for ti, t := range at.Trades {
			switch {
			case t.Reason == domain.TradeReasonTaxLossHarvesting:
				keep[li][ti] = true
				if !t.IsBuy {
					running += t.TaxImpactOrZero()
				}
			case t.IsBuy:
				// Paired below.
			case t.TaxImpactOrZero() <= 0:
				keep[li][ti] = true
				keptSells[pairKey(t)] = true
			default:
				candidates = append(candidates, candidate{list: li, index: ti, impact: *t.TaxImpact})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].impact < candidates[j].impact })
	for _, c := range candidates {
		if remaining > 0 && running+c.impact <= remaining {
			running += c.impact
			keep[c.list][c.index] = true
			keptSells[pairKey(plan[c.list].Trades[c.index])] = true
		}
	}

	var out []AccountTrades
	for li, at := range plan {
		var kept []domain.RebalanceTrade
		for ti, t := range at.Trades {
			if keep[li][ti] {
				kept = append(kept, t)
				continue
			}
			if t.IsBuy && t.Reason != domain.TradeReasonTaxLossHarvesting && keptSells[pairKey(t)] {
				kept = append(kept, t)
			}
		}
		if len(kept) > 0 {
			out = append(out, AccountTrades{AccountID: at.AccountID, Trades: kept})
		}
	}
	return out
}

// Package taxbudget filters proposed trades against an annual realized-gains
// budget. Buys and loss-realizing sells always pass, with kept losses
// offsetting the budget; gain-realizing sells are admitted
// cheapest-impact-first until the remaining budget is spent.
package taxbudget

import (
	"sort"

	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// Optimizer applies a capital gains budget to trade lists.
type Optimizer struct {
	log zerolog.Logger
}

// NewOptimizer creates a budget optimizer.
func NewOptimizer(log zerolog.Logger) *Optimizer {
	return &Optimizer{
		log: log.With().Str("component", "tax_budget").Logger(),
	}
}

// Result describes one budget pass.
type Result struct {
	// Trades are the admitted trades, in their original order.
	Trades []domain.RebalanceTrade
	// RealizedImpact is the net tax impact of the admitted sells, harvested
	// losses included.
	RealizedImpact float64
	// Deferred counts the sells dropped for exceeding the budget.
	Deferred int
}

// Optimize keeps the trades that fit within the gains budget for the year.
// Remaining budget is the annual budget minus gains already realized; when
// nothing remains, only buys and non-gain sells survive. Kept loss sells
// offset the running total, so a harvested loss frees budget for another
// gain. Gain-realizing sells compete for what is left in ascending impact
// order; kept trades come back in their original order.
func (o *Optimizer) Optimize(trades []domain.RebalanceTrade, annualBudget, realizedYTD float64) Result {
	remaining := annualBudget - realizedYTD

	var running float64
	keep := make([]bool, len(trades))
	var gainSells []int
	for i, t := range trades {
		if t.IsBuy {
			keep[i] = true
			continue
		}
		if impact := t.TaxImpactOrZero(); impact <= 0 {
			keep[i] = true
			running += impact
			continue
		}
		gainSells = append(gainSells, i)
	}

	sort.SliceStable(gainSells, func(a, b int) bool {
		return *trades[gainSells[a]].TaxImpact < *trades[gainSells[b]].TaxImpact
	})

	deferred := 0
	for _, i := range gainSells {
		impact := *trades[i].TaxImpact
		if remaining > 0 && running+impact <= remaining {
			running += impact
			keep[i] = true
			continue
		}
		deferred++
	}

	var out []domain.RebalanceTrade
	for i, t := range trades {
		if keep[i] {
			out = append(out, t)
		}
	}

	o.log.Debug().
		Float64("remaining_budget", remaining).
		Float64("realized_impact", running).
		Int("kept", len(out)).
		Int("deferred", deferred).
		Msg("Applied tax budget")
	return Result{Trades: out, RealizedImpact: running, Deferred: deferred}
}

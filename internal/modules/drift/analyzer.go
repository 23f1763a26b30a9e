// Package drift measures how far an account has moved from its targets, at
// sleeve, security, asset-class, sector, and factor level.
package drift

import (
	"math"

	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// Analyzer computes drift analyses for sleeved accounts.
type Analyzer struct {
	ref domain.SecurityReference
	log zerolog.Logger
}

// NewAnalyzer creates a drift analyzer backed by the given security master.
func NewAnalyzer(ref domain.SecurityReference, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		ref: ref,
		log: log.With().Str("component", "drift_analyzer").Logger(),
	}
}

// AnalyzeUMA measures drift across all sleeves of the account. The overall
// score is the mean absolute sleeve drift, clamped to [0, 1]; a freshly built
// account scores zero.
func (a *Analyzer) AnalyzeUMA(uma *domain.UnifiedManagedAccount) domain.DriftAnalysis {
	analysis := domain.DriftAnalysis{
		PortfolioID:     uma.ID,
		SleeveDrift:     make(map[string]float64),
		SecurityDrift:   make(map[string]float64),
		AssetClassDrift: make(map[string]float64),
		SectorDrift:     make(map[string]float64),
		FactorDrift:     make(map[string]float64),
	}

	var totalAbsDrift float64
	for i := range uma.Sleeves {
		d := uma.Sleeves[i].Drift()
		analysis.SleeveDrift[uma.Sleeves[i].ID] = d
		totalAbsDrift += math.Abs(d)
	}
	if len(uma.Sleeves) > 0 {
		analysis.DriftScore = math.Min(totalAbsDrift/float64(len(uma.Sleeves)), 1.0)
	}

	a.aggregateHoldingDrift(uma, &analysis)

	a.log.Debug().
		Str("account_id", uma.ID).
		Float64("drift_score", analysis.DriftScore).
		Int("sleeves", len(uma.Sleeves)).
		Msg("Analyzed account drift")
	return analysis
}

// aggregateHoldingDrift rolls per-holding weight drift up to security, asset
// class, and sector. Account-level weights combine the sleeve's target weight
// with the holding's weight inside the sleeve.
func (a *Analyzer) aggregateHoldingDrift(uma *domain.UnifiedManagedAccount, analysis *domain.DriftAnalysis) {
	total := uma.TotalMarketValue()
	if total <= 0 {
		return
	}

	for i := range uma.Sleeves {
		sleeve := &uma.Sleeves[i]
		for j := range sleeve.Holdings {
			h := &sleeve.Holdings[j]
			current := h.MarketValue / total
			target := sleeve.TargetWeight * h.TargetWeight
			d := current - target

			analysis.SecurityDrift[h.SecurityID] += d
			analysis.AssetClassDrift[a.ref.AssetClass(h.SecurityID)] += d
			analysis.SectorDrift[a.ref.Sector(h.SecurityID)] += d
		}
	}
}

// FactorDrift returns the signed drift per factor over the union of both
// exposure maps, keeping only factors whose absolute drift reaches the
// threshold. A missing factor counts as exposure zero.
func FactorDrift(current, target map[string]float64, threshold float64) map[string]float64 {
	drift := make(map[string]float64)
	for factor, exposure := range current {
		d := exposure - target[factor]
		if math.Abs(d) >= threshold {
			drift[factor] = d
		}
	}
	for factor, exposure := range target {
		if _, seen := current[factor]; seen {
			continue
		}
		d := -exposure
		if math.Abs(d) >= threshold {
			drift[factor] = d
		}
	}
	return drift
}

// DriftScore squashes a factor drift map into a [0, 1] score. importance
// weights individual factors, defaulting to 1.0; an empty drift map scores 0.
func DriftScore(factorDrift, importance map[string]float64) float64 {
	if len(factorDrift) == 0 {
		return 0.0
	}

	var weightedSum, totalWeight float64
	for factor, d := range factorDrift {
		weight := 1.0
		if w, ok := importance[factor]; ok {
			weight = w
		}
		weightedSum += math.Abs(d) * weight
		totalWeight += weight
	}

	avg := weightedSum / math.Max(totalWeight, 1.0)
	return 1.0 / (1.0 + math.Exp(-5.0*avg))
}

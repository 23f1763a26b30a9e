// Package domain provides core domain models and types for the UMA engine.
package domain

import "time"

// WeightSumTolerance is the tolerance used everywhere weights are checked
// against 1.0.
const WeightSumTolerance = 1e-4

// ModelType represents the structural variant of a model portfolio.
type ModelType string

const (
	// ModelTypeDirect is a model consisting of individual securities.
	ModelTypeDirect ModelType = "DIRECT"
	// ModelTypeComposite is a model consisting of other models.
	ModelTypeComposite ModelType = "COMPOSITE"
	// ModelTypeHybrid is a model consisting of both securities and other models.
	ModelTypeHybrid ModelType = "HYBRID"
)

// ModelPortfolio is a hierarchical allocation definition. It is immutable once
// validated; substitution rules produce derived copies rather than mutating it.
type ModelPortfolio struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ModelType   ModelType `json:"model_type"`
	// AssetAllocation maps asset class to target weight.
	AssetAllocation map[string]float64 `json:"asset_allocation"`
	// SectorAllocation maps sector to target weight.
	SectorAllocation map[string]float64 `json:"sector_allocation"`
	// Securities maps security ID to target weight (direct portion).
	Securities map[string]float64 `json:"securities"`
	// ChildModels maps child model ID to target weight (composite portion).
	ChildModels map[string]float64 `json:"child_models"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// SecuritiesWeightSum returns the sum of direct security weights.
func (m *ModelPortfolio) SecuritiesWeightSum() float64 {
	var sum float64
	for _, w := range m.Securities {
		sum += w
	}
	return sum
}

// ChildModelsWeightSum returns the sum of child model weights.
func (m *ModelPortfolio) ChildModelsWeightSum() float64 {
	var sum float64
	for _, w := range m.ChildModels {
		sum += w
	}
	return sum
}

// Clone returns a deep copy of the model. Substitution and screening operate
// on clones so the validated original stays untouched.
func (m *ModelPortfolio) Clone() *ModelPortfolio {
	clone := *m
	clone.AssetAllocation = cloneWeights(m.AssetAllocation)
	clone.SectorAllocation = cloneWeights(m.SectorAllocation)
	clone.Securities = cloneWeights(m.Securities)
	clone.ChildModels = cloneWeights(m.ChildModels)
	return &clone
}

func cloneWeights(weights map[string]float64) map[string]float64 {
	if weights == nil {
		return nil
	}
	copied := make(map[string]float64, len(weights))
	for k, v := range weights {
		copied[k] = v
	}
	return copied
}

// Holding is a dollar-denominated position inside a sleeve or portfolio.
type Holding struct {
	SecurityID      string             `json:"security_id"`
	MarketValue     float64            `json:"market_value"`
	Weight          float64            `json:"weight"`
	TargetWeight    float64            `json:"target_weight"`
	CostBasis       float64            `json:"cost_basis"`
	AcquiredAt      time.Time          `json:"acquired_at"`
	FactorExposures map[string]float64 `json:"factor_exposures"`
}

// UnrealizedGain returns market value minus cost basis (negative for a loss).
func (h *Holding) UnrealizedGain() float64 {
	return h.MarketValue - h.CostBasis
}

// Sleeve is a named, independently tracked slice of an account mapped to one
// source model.
type Sleeve struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ModelID       string    `json:"model_id"`
	TargetWeight  float64   `json:"target_weight"`
	CurrentWeight float64   `json:"current_weight"`
	Holdings      []Holding `json:"holdings"`
	MarketValue   float64   `json:"market_value"`
}

// Drift returns the signed weight drift of this sleeve (current - target).
func (s *Sleeve) Drift() float64 {
	return s.CurrentWeight - s.TargetWeight
}

// LargestHolding returns the holding with the greatest market value, or nil
// for an empty sleeve. Sleeve-level rebalance trades are routed through it.
func (s *Sleeve) LargestHolding() *Holding {
	var largest *Holding
	for i := range s.Holdings {
		if largest == nil || s.Holdings[i].MarketValue > largest.MarketValue {
			largest = &s.Holdings[i]
		}
	}
	return largest
}

// UnifiedManagedAccount is an account composed of multiple sleeves under one
// owner.
type UnifiedManagedAccount struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Owner       string                   `json:"owner"`
	Sleeves     []Sleeve                 `json:"sleeves"`
	CashBalance float64                  `json:"cash_balance"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	TaxSettings *TaxOptimizationSettings `json:"tax_settings,omitempty"`
	ESGCriteria *ESGScreeningCriteria    `json:"esg_criteria,omitempty"`
}

// TotalMarketValue is recomputed from the sleeves; it is never stored so it
// cannot go stale when holdings change.
func (u *UnifiedManagedAccount) TotalMarketValue() float64 {
	var total float64
	for i := range u.Sleeves {
		total += u.Sleeves[i].MarketValue
	}
	return total
}

// WithTaxOptimization attaches tax optimization settings to the account.
func (u *UnifiedManagedAccount) WithTaxOptimization(settings TaxOptimizationSettings) *UnifiedManagedAccount {
	u.TaxSettings = &settings
	return u
}

// WithESGScreening attaches ESG screening criteria to the account.
func (u *UnifiedManagedAccount) WithESGScreening(criteria ESGScreeningCriteria) *UnifiedManagedAccount {
	u.ESGCriteria = &criteria
	return u
}

// TaxOptimizationSettings controls tax-aware trade generation for an account.
type TaxOptimizationSettings struct {
	// AnnualTaxBudget is the maximum realized gains per year. Nil means
	// unlimited.
	AnnualTaxBudget *float64 `json:"annual_tax_budget,omitempty"`
	// RealizedGainsYTD is the realized gains accumulated so far this year.
	RealizedGainsYTD float64 `json:"realized_gains_ytd"`
	// PrioritizeLossHarvesting enables the loss-harvesting pass before
	// regular rebalancing.
	PrioritizeLossHarvesting bool `json:"prioritize_loss_harvesting"`
	// DeferShortTermGains prefers long-term lots when selling.
	DeferShortTermGains bool `json:"defer_short_term_gains"`
	// MinTaxSavings is the minimum estimated savings required to bother
	// harvesting a loss. Nil disables the floor.
	MinTaxSavings    *float64 `json:"min_tax_savings,omitempty"`
	ShortTermTaxRate float64  `json:"short_term_tax_rate"`
	LongTermTaxRate  float64  `json:"long_term_tax_rate"`
}

// RateFor returns the applicable tax rate for a holding period.
func (t *TaxOptimizationSettings) RateFor(period HoldingPeriod) float64 {
	if period == HoldingPeriodShortTerm {
		return t.ShortTermTaxRate
	}
	return t.LongTermTaxRate
}

// HoldingPeriod is the tax classification of a lot's age.
type HoldingPeriod string

const (
	// HoldingPeriodShortTerm is less than one year.
	HoldingPeriodShortTerm HoldingPeriod = "SHORT_TERM"
	// HoldingPeriodLongTerm is one year or more.
	HoldingPeriodLongTerm HoldingPeriod = "LONG_TERM"
)

// TaxLot is a single acquisition lot of a security holding.
type TaxLot struct {
	ID                  string        `json:"id"`
	SecurityID          string        `json:"security_id"`
	AcquiredAt          time.Time     `json:"acquired_at"`
	Quantity            float64       `json:"quantity"`
	CostBasisPerShare   float64       `json:"cost_basis_per_share"`
	MarketValuePerShare float64       `json:"market_value_per_share"`
	UnrealizedGainLoss  float64       `json:"unrealized_gain_loss"`
	HoldingPeriod       HoldingPeriod `json:"holding_period"`
}

// MarketValue returns the lot's current market value.
func (l *TaxLot) MarketValue() float64 {
	return l.Quantity * l.MarketValuePerShare
}

// Portfolio is a flat (non-sleeved) account view used by the holding-level
// trade strategies.
type Portfolio struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MarketValue float64   `json:"market_value"`
	CashBalance float64   `json:"cash_balance"`
	Holdings    []Holding `json:"holdings"`
}

// CashFlowType classifies an external cash movement.
type CashFlowType string

const (
	CashFlowDeposit    CashFlowType = "DEPOSIT"
	CashFlowWithdrawal CashFlowType = "WITHDRAWAL"
	CashFlowDividend   CashFlowType = "DIVIDEND"
	CashFlowInterest   CashFlowType = "INTEREST"
	CashFlowFee        CashFlowType = "FEE"
)

// CashFlow is an external cash movement into or out of a portfolio. Amount is
// positive for inflows and negative for outflows.
type CashFlow struct {
	Amount float64      `json:"amount"`
	Date   time.Time    `json:"date"`
	Type   CashFlowType `json:"type"`
}

// ESGScore holds the component scores for a security, each on a 0-100 scale.
// Lower controversy is better.
type ESGScore struct {
	Environmental float64 `json:"environmental"`
	Social        float64 `json:"social"`
	Governance    float64 `json:"governance"`
	Overall       float64 `json:"overall"`
	Controversy   float64 `json:"controversy"`
}

// ESGScreeningCriteria defines minimum ESG standards for account holdings.
type ESGScreeningCriteria struct {
	MinOverallScore       *float64 `json:"min_overall_score,omitempty"`
	MinEnvironmentalScore *float64 `json:"min_environmental_score,omitempty"`
	MinSocialScore        *float64 `json:"min_social_score,omitempty"`
	MinGovernanceScore    *float64 `json:"min_governance_score,omitempty"`
	MaxControversyScore   *float64 `json:"max_controversy_score,omitempty"`
	ExcludedSectors       []string `json:"excluded_sectors,omitempty"`
	ExcludedActivities    []string `json:"excluded_activities,omitempty"`
}

package domain

// TradeReason is the closed set of reasons a trade can be generated for.
type TradeReason string

const (
	// TradeReasonRebalance realigns weights with targets.
	TradeReasonRebalance TradeReason = "REBALANCE"
	// TradeReasonDeposit invests a cash inflow.
	TradeReasonDeposit TradeReason = "DEPOSIT"
	// TradeReasonWithdrawal raises cash for an outflow.
	TradeReasonWithdrawal TradeReason = "WITHDRAWAL"
	// TradeReasonTransition moves the account to a new target model.
	TradeReasonTransition TradeReason = "TRANSITION"
	// TradeReasonTaxLossHarvesting realizes a loss for tax benefit.
	TradeReasonTaxLossHarvesting TradeReason = "TAX_LOSS_HARVESTING"
	// TradeReasonFactorAdjustment corrects factor exposure drift.
	TradeReasonFactorAdjustment TradeReason = "FACTOR_EXPOSURE_ADJUSTMENT"
)

// RebalanceTrade is a pure value object describing a trade instruction. The
// engine never executes trades.
type RebalanceTrade struct {
	SecurityID string      `json:"security_id"`
	// Amount is the unsigned dollar amount to trade.
	Amount float64     `json:"amount"`
	IsBuy  bool        `json:"is_buy"`
	Reason TradeReason `json:"reason"`
	// TaxImpact is the estimated realized-gain impact of the trade: positive
	// for a tax cost, negative for tax savings. Nil when tax impact was not
	// evaluated (buys and tax-unaware sells).
	TaxImpact *float64 `json:"tax_impact,omitempty"`
}

// HasTaxImpact reports whether a tax impact was evaluated for this trade.
func (t *RebalanceTrade) HasTaxImpact() bool {
	return t.TaxImpact != nil
}

// TaxImpactOrZero returns the evaluated tax impact, or zero when none was
// evaluated.
func (t *RebalanceTrade) TaxImpactOrZero() float64 {
	if t.TaxImpact == nil {
		return 0
	}
	return *t.TaxImpact
}

// TaxImpactOf is a convenience for building the optional tax impact field.
func TaxImpactOf(v float64) *float64 {
	return &v
}

// DriftAnalysis is the result of comparing current against target state, by
// weight and by factor exposure. All drift values are signed
// (current - target).
type DriftAnalysis struct {
	// PortfolioID identifies the analyzed account or portfolio.
	PortfolioID string `json:"portfolio_id"`
	// DriftScore is the overall normalized drift in [0, 1].
	DriftScore      float64            `json:"drift_score"`
	SleeveDrift     map[string]float64 `json:"sleeve_drift,omitempty"`
	AssetClassDrift map[string]float64 `json:"asset_class_drift,omitempty"`
	SectorDrift     map[string]float64 `json:"sector_drift,omitempty"`
	SecurityDrift   map[string]float64 `json:"security_drift,omitempty"`
	FactorDrift     map[string]float64 `json:"factor_drift,omitempty"`
}

// HasSignificantDrift reports whether the overall drift score reaches the
// given threshold.
func (d *DriftAnalysis) HasSignificantDrift(threshold float64) bool {
	return d.DriftScore >= threshold
}

package domain

// SecurityReference looks up security-master data. The engine consumes it and
// never computes reference data itself. Implementations must be safe for
// concurrent reads.
type SecurityReference interface {
	// Price returns the current price for a security, false when unknown.
	Price(securityID string) (float64, bool)
	// AssetClass returns the asset class for a security ("Equity",
	// "FixedIncome", "RealEstate", ...). Unknown securities map to "Other".
	AssetClass(securityID string) string
	// Sector returns the sector for a security, "Other" when unknown.
	Sector(securityID string) string
	// ESGScore returns the ESG scores for a security, false when unknown.
	ESGScore(securityID string) (ESGScore, bool)
	// FactorExposures returns the factor exposure map for a security. A
	// missing security yields an empty map; a missing factor is treated as
	// exposure 0.0 by all callers.
	FactorExposures(securityID string) map[string]float64
	// TaxLots derives the acquisition lots backing a holding.
	TaxLots(holding Holding) []TaxLot
}

// ModelRepository fetches model portfolios by ID, including recursive child
// lookups. Implementations are read-only from the engine's point of view.
type ModelRepository interface {
	// Get returns the model for the given ID, or a *NotFoundError.
	Get(modelID string) (*ModelPortfolio, error)
}

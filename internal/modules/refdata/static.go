// Package refdata provides a map-backed security master implementing the
// reference lookups the engine consumes. Production deployments substitute a
// real data vendor behind the same interface.
package refdata

import (
	"sync"
	"time"

	"github.com/aristath/loom/internal/domain"
)

// Security is one security-master entry.
type Security struct {
	Price           float64
	AssetClass      string
	Sector          string
	ESG             *domain.ESGScore
	FactorExposures map[string]float64
}

// Static is an in-memory security master. Safe for concurrent reads after
// construction; Add is for setup only.
type Static struct {
	mu         sync.RWMutex
	securities map[string]Security
}

// NewStatic creates an empty security master.
func NewStatic() *Static {
	return &Static{securities: make(map[string]Security)}
}

// Add inserts or replaces a security entry.
func (s *Static) Add(securityID string, sec Security) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.securities[securityID] = sec
	return s
}

// Price returns the current price, false when the security is unknown.
func (s *Static) Price(securityID string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.securities[securityID]
	if !ok {
		return 0, false
	}
	return sec.Price, true
}

// AssetClass returns the asset class, "Other" when unknown.
func (s *Static) AssetClass(securityID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.securities[securityID]
	if !ok || sec.AssetClass == "" {
		return "Other"
	}
	return sec.AssetClass
}

// Sector returns the sector, "Other" when unknown.
func (s *Static) Sector(securityID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.securities[securityID]
	if !ok || sec.Sector == "" {
		return "Other"
	}
	return sec.Sector
}

// ESGScore returns the ESG scores, false when unknown.
func (s *Static) ESGScore(securityID string) (domain.ESGScore, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.securities[securityID]
	if !ok || sec.ESG == nil {
		return domain.ESGScore{}, false
	}
	return *sec.ESG, true
}

// FactorExposures returns the factor exposure map, empty when unknown. The
// returned map is a copy.
func (s *Static) FactorExposures(securityID string) map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.securities[securityID]
	if !ok || sec.FactorExposures == nil {
		return map[string]float64{}
	}
	exposures := make(map[string]float64, len(sec.FactorExposures))
	for k, v := range sec.FactorExposures {
		exposures[k] = v
	}
	return exposures
}

// TaxLots derives a single acquisition lot from the holding. With no lot-level
// history recorded, the whole position is treated as one lot acquired at the
// holding's acquisition date.
func (s *Static) TaxLots(holding domain.Holding) []domain.TaxLot {
	if holding.MarketValue <= 0 {
		return nil
	}

	price, ok := s.Price(holding.SecurityID)
	if !ok || price <= 0 {
		price = holding.MarketValue
	}
	quantity := holding.MarketValue / price

	period := domain.HoldingPeriodShortTerm
	if !holding.AcquiredAt.IsZero() && time.Since(holding.AcquiredAt) >= 365*24*time.Hour {
		period = domain.HoldingPeriodLongTerm
	}

	return []domain.TaxLot{{
		ID:                  "lot-" + holding.SecurityID + "-1",
		SecurityID:          holding.SecurityID,
		AcquiredAt:          holding.AcquiredAt,
		Quantity:            quantity,
		CostBasisPerShare:   holding.CostBasis / quantity,
		MarketValuePerShare: price,
		UnrealizedGainLoss:  holding.MarketValue - holding.CostBasis,
		HoldingPeriod:       period,
	}}
}

func esg(environmental, social, governance, overall, controversy float64) *domain.ESGScore {
	return &domain.ESGScore{
		Environmental: environmental,
		Social:        social,
		Governance:    governance,
		Overall:       overall,
		Controversy:   controversy,
	}
}

// WithSampleData returns a security master preloaded with the demo universe.
func WithSampleData() *Static {
	s := NewStatic()
	s.Add("AAPL", Security{
		Price: 190.0, AssetClass: "Equity", Sector: "Technology",
		ESG: esg(55, 62, 71, 48, 32),
		FactorExposures: map[string]float64{
			"momentum": 0.5, "value": -0.3, "size": 0.9,
			"quality": 0.7, "volatility": -0.2, "growth": 0.6,
		},
	})
	s.Add("MSFT", Security{
		Price: 415.0, AssetClass: "Equity", Sector: "Technology",
		ESG: esg(72, 70, 78, 74, 18),
		FactorExposures: map[string]float64{
			"momentum": 0.4, "value": -0.2, "size": 0.9,
			"quality": 0.8, "volatility": -0.3, "growth": 0.7,
		},
	})
	s.Add("AMZN", Security{
		Price: 180.0, AssetClass: "Equity", Sector: "Consumer Discretionary",
		ESG: esg(58, 49, 64, 56, 41),
		FactorExposures: map[string]float64{
			"momentum": 0.6, "value": -0.5, "size": 0.8,
			"quality": 0.4, "volatility": 0.2, "growth": 0.9,
		},
	})
	s.Add("GOOGL", Security{
		Price: 165.0, AssetClass: "Equity", Sector: "Communication Services",
		ESG: esg(66, 58, 60, 63, 35),
		FactorExposures: map[string]float64{
			"momentum": 0.3, "value": 0.1, "size": 0.8,
			"quality": 0.6, "volatility": -0.1, "growth": 0.5,
		},
	})
	s.Add("NVDA", Security{
		Price: 120.0, AssetClass: "Equity", Sector: "Technology",
		ESG: esg(78, 72, 75, 82, 12),
		FactorExposures: map[string]float64{
			"momentum": 0.9, "value": -0.8, "size": 0.7,
			"quality": 0.7, "volatility": 0.5, "growth": 0.9,
		},
	})
	s.Add("ADBE", Security{
		Price: 530.0, AssetClass: "Equity", Sector: "Technology",
		ESG: esg(74, 69, 72, 76, 15),
		FactorExposures: map[string]float64{
			"momentum": 0.1, "value": 0.0, "size": 0.6,
			"quality": 0.7, "volatility": -0.2, "growth": 0.6,
		},
	})
	s.Add("SHOP", Security{
		Price: 72.0, AssetClass: "Equity", Sector: "Technology",
		ESG: esg(68, 64, 61, 67, 22),
		FactorExposures: map[string]float64{
			"momentum": 0.7, "value": -0.9, "size": 0.2,
			"quality": 0.2, "volatility": 0.8, "growth": 0.9,
		},
	})
	s.Add("META", Security{
		Price: 505.0, AssetClass: "Equity", Sector: "Communication Services",
		ESG: esg(60, 44, 52, 51, 55),
		FactorExposures: map[string]float64{
			"momentum": 0.8, "value": 0.0, "size": 0.8,
			"quality": 0.6, "volatility": 0.3, "growth": 0.7,
		},
	})
	s.Add("JPM", Security{
		Price: 205.0, AssetClass: "Equity", Sector: "Financials",
		ESG: esg(52, 57, 68, 59, 38),
		FactorExposures: map[string]float64{
			"momentum": 0.2, "value": 0.6, "size": 0.8,
			"quality": 0.5, "volatility": -0.1, "growth": 0.1,
		},
	})
	s.Add("BAC", Security{
		Price: 41.0, AssetClass: "Equity", Sector: "Financials",
		ESG: esg(50, 54, 62, 55, 40),
		FactorExposures: map[string]float64{
			"momentum": 0.1, "value": 0.7, "size": 0.7,
			"quality": 0.4, "volatility": 0.1, "growth": 0.0,
		},
	})
	s.Add("AGG", Security{
		Price: 98.0, AssetClass: "FixedIncome", Sector: "Fixed Income",
		ESG: esg(61, 60, 65, 62, 10),
	})
	s.Add("VNQ", Security{
		Price: 88.0, AssetClass: "RealEstate", Sector: "Real Estate",
		ESG: esg(57, 55, 59, 57, 20),
	})
	return s
}

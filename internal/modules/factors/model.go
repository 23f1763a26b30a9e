// Package factors provides the factor model: factor definitions, per-portfolio
// exposures, return contribution, and covariance-based risk math.
package factors

import (
	"math"
	"sync"

	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Factor describes one risk factor.
type Factor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Model holds the factor universe, factor returns, per-portfolio exposures,
// and the factor covariance matrix. Covariance rows follow the factor order.
type Model struct {
	mu         sync.RWMutex
	factors    []Factor
	returns    map[string]float64
	exposures  map[string]map[string]float64
	covariance *mat.SymDense
	log        zerolog.Logger
}

// NewModel creates a factor model. covariance must be n×n for n factors.
func NewModel(factors []Factor, returns map[string]float64, covariance *mat.SymDense, log zerolog.Logger) *Model {
	return &Model{
		factors:    factors,
		returns:    returns,
		exposures:  make(map[string]map[string]float64),
		covariance: covariance,
		log:        log.With().Str("component", "factor_model").Logger(),
	}
}

// Factors returns the factor universe in covariance order.
func (m *Model) Factors() []Factor {
	out := make([]Factor, len(m.factors))
	copy(out, m.factors)
	return out
}

// SetExposures records the factor exposures for a portfolio, replacing any
// previous set.
func (m *Model) SetExposures(portfolioID string, exposures map[string]float64) {
	copied := make(map[string]float64, len(exposures))
	for k, v := range exposures {
		copied[k] = v
	}
	m.mu.Lock()
	m.exposures[portfolioID] = copied
	m.mu.Unlock()
}

// Exposures returns a copy of the portfolio's factor exposures, or a
// *domain.NotFoundError for an unknown portfolio.
func (m *Model) Exposures(portfolioID string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exposuresLocked(portfolioID)
}

func (m *Model) exposuresLocked(portfolioID string) (map[string]float64, error) {
	exposures, ok := m.exposures[portfolioID]
	if !ok {
		return nil, domain.NewNotFound("portfolio exposures", portfolioID)
	}
	copied := make(map[string]float64, len(exposures))
	for k, v := range exposures {
		copied[k] = v
	}
	return copied, nil
}

// Contribution returns each factor's return contribution, exposure times
// factor return. Factors without a recorded return contribute zero.
func (m *Model) Contribution(portfolioID string) (map[string]float64, error) {
	exposures, err := m.Exposures(portfolioID)
	if err != nil {
		return nil, err
	}
	contributions := make(map[string]float64, len(exposures))
	for factorID, exposure := range exposures {
		contributions[factorID] = exposure * m.returns[factorID]
	}
	return contributions, nil
}

// ActiveExposures returns portfolio exposure minus benchmark exposure per
// factor, over the portfolio's factor set. A factor missing from the
// benchmark counts as zero.
func (m *Model) ActiveExposures(portfolioID, benchmarkID string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	portfolio, err := m.exposuresLocked(portfolioID)
	if err != nil {
		return nil, err
	}
	benchmark, err := m.exposuresLocked(benchmarkID)
	if err != nil {
		return nil, err
	}

	active := make(map[string]float64, len(portfolio))
	for factorID, exposure := range portfolio {
		active[factorID] = exposure - benchmark[factorID]
	}
	return active, nil
}

// PortfolioRisk returns the factor risk of the portfolio, the square root of
// eᵀVe over the covariance matrix V. Missing exposures count as zero.
func (m *Model) PortfolioRisk(portfolioID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.exposureVectorLocked(portfolioID)
	if err != nil {
		return 0, err
	}

	ve := mat.NewVecDense(len(m.factors), nil)
	ve.MulVec(m.covariance, e)
	return math.Sqrt(mat.Dot(e, ve)), nil
}

// RiskDecomposition returns each factor's contribution to total portfolio
// risk, exposure times marginal contribution normalized by total risk. The
// contributions sum to the portfolio risk.
func (m *Model) RiskDecomposition(portfolioID string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.exposureVectorLocked(portfolioID)
	if err != nil {
		return nil, err
	}

	ve := mat.NewVecDense(len(m.factors), nil)
	ve.MulVec(m.covariance, e)
	risk := math.Sqrt(mat.Dot(e, ve))
	if risk == 0 {
		return nil, domain.NewInvalidParameter("portfolio", "portfolio %s has zero factor risk", portfolioID)
	}

	contributions := make(map[string]float64, len(m.factors))
	for i, factor := range m.factors {
		contributions[factor.ID] = e.AtVec(i) * ve.AtVec(i) / risk
	}
	return contributions, nil
}

func (m *Model) exposureVectorLocked(portfolioID string) (*mat.VecDense, error) {
	exposures, ok := m.exposures[portfolioID]
	if !ok {
		return nil, domain.NewNotFound("portfolio exposures", portfolioID)
	}
	e := mat.NewVecDense(len(m.factors), nil)
	for i, factor := range m.factors {
		e.SetVec(i, exposures[factor.ID])
	}
	return e, nil
}

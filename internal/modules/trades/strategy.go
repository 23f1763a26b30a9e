// Package trades generates trade instructions: weight rebalancing, cash flow
// handling, model transitions, factor exposure adjustment, and tax loss
// harvesting. Strategies are pure; nothing here executes trades.
package trades

import (
	"sync"

	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// Request carries the inputs a strategy may need. Each strategy documents
// which fields it requires; unused fields are ignored.
type Request struct {
	// Portfolio is the flat holdings view used by the portfolio-level
	// strategies.
	Portfolio *domain.Portfolio
	// UMA is the sleeved account view. The rebalance and harvest strategies
	// accept either this or Portfolio.
	UMA *domain.UnifiedManagedAccount
	// CashFlow is the external cash movement for the cashflow strategy.
	CashFlow *domain.CashFlow
	// TargetWeights are the destination weights for the transition strategy.
	TargetWeights map[string]float64
	// PortfolioID selects factor exposures for the factor strategy.
	PortfolioID string
	// TargetExposures are the destination factor exposures for the factor
	// strategy.
	TargetExposures map[string]float64
	// TaxAware enables tax impact estimation on sells.
	TaxAware bool
	// TaxSettings supplies rates and thresholds for the harvest strategy.
	TaxSettings *domain.TaxOptimizationSettings
}

// Strategy is one trade-generation algorithm.
type Strategy interface {
	// Name is the registry key.
	Name() string
	// Reason is the trade reason this strategy emits.
	Reason() domain.TradeReason
	// Generate produces trade instructions for the request.
	Generate(req Request) ([]domain.RebalanceTrade, error)
}

// Registry manages the registered trade strategies.
type Registry struct {
	strategies map[string]Strategy
	mu         sync.RWMutex
	log        zerolog.Logger
}

// NewRegistry creates an empty strategy registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
		log:        log.With().Str("component", "strategy_registry").Logger(),
	}
}

// Register registers a strategy under its name.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.strategies[s.Name()] = s
	r.log.Debug().
		Str("name", s.Name()).
		Str("reason", string(s.Reason())).
		Msg("Registered trade strategy")
}

// Get retrieves a strategy by name, or a *domain.NotFoundError.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[name]
	if !ok {
		return nil, domain.NewNotFound("trade strategy", name)
	}
	return s, nil
}

// List returns all registered strategies.
func (r *Registry) List() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		out = append(out, s)
	}
	return out
}

// Generate runs the named strategy against the request.
func (r *Registry) Generate(name string, req Request) ([]domain.RebalanceTrade, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	trades, err := s.Generate(req)
	if err != nil {
		r.log.Error().Err(err).Str("strategy", name).Msg("Strategy failed")
		return nil, err
	}
	r.log.Debug().
		Str("strategy", name).
		Int("trades", len(trades)).
		Msg("Strategy completed")
	return trades, nil
}

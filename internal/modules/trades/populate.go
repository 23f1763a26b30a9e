package trades

import (
	"github.com/aristath/loom/internal/config"
	"github.com/aristath/loom/internal/modules/factors"
	"github.com/rs/zerolog"
)

// NewPopulatedRegistry creates a registry with all five strategies registered.
func NewPopulatedRegistry(model *factors.Model, selector ReplacementSelector, cfg *config.Config, log zerolog.Logger) *Registry {
	registry := NewRegistry(log)

	registry.Register(NewRebalanceStrategy(cfg, log))
	registry.Register(NewCashFlowStrategy(cfg, log))
	registry.Register(NewTransitionStrategy(cfg, log))
	registry.Register(NewFactorStrategy(model, cfg, log))
	registry.Register(NewHarvestStrategy(selector, cfg, log))

	log.Info().
		Int("strategies", len(registry.strategies)).
		Msg("Trade strategy registry initialized")
	return registry
}

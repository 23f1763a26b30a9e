// Package model provides model portfolio validation, substitution, and
// storage.
package model

import (
	"math"

	"github.com/aristath/loom/internal/domain"
)

// Validate enforces the structural and weight invariants on a model before
// use. Weight sums are checked first, then structural legality. It has no
// side effects; a nil error means the model is safe to build sleeves from.
func Validate(m *domain.ModelPortfolio) error {
	securitiesSum := m.SecuritiesWeightSum()
	childSum := m.ChildModelsWeightSum()

	if m.ModelType == domain.ModelTypeDirect && len(m.Securities) > 0 &&
		math.Abs(securitiesSum-1.0) > domain.WeightSumTolerance {
		return domain.NewModelError(domain.ModelErrorInvalidWeights,
			"securities weights must sum to 1.0, got %v", securitiesSum)
	}

	if m.ModelType == domain.ModelTypeComposite && len(m.ChildModels) > 0 &&
		math.Abs(childSum-1.0) > domain.WeightSumTolerance {
		return domain.NewModelError(domain.ModelErrorInvalidWeights,
			"child model weights must sum to 1.0, got %v", childSum)
	}

	switch m.ModelType {
	case domain.ModelTypeDirect:
		if len(m.ChildModels) > 0 {
			return domain.NewModelError(domain.ModelErrorInvalidStructure,
				"direct models cannot have child models")
		}
		if len(m.Securities) == 0 {
			return domain.NewModelError(domain.ModelErrorInvalidStructure,
				"direct models must have at least one security")
		}
	case domain.ModelTypeComposite:
		if len(m.Securities) > 0 {
			return domain.NewModelError(domain.ModelErrorInvalidStructure,
				"composite models cannot have direct securities")
		}
		if len(m.ChildModels) == 0 {
			return domain.NewModelError(domain.ModelErrorInvalidStructure,
				"composite models must have at least one child model")
		}
	case domain.ModelTypeHybrid:
		if len(m.Securities) == 0 || len(m.ChildModels) == 0 {
			return domain.NewModelError(domain.ModelErrorInvalidStructure,
				"hybrid models must have both securities and child models")
		}
		total := securitiesSum + childSum
		if math.Abs(total-1.0) > domain.WeightSumTolerance {
			return domain.NewModelError(domain.ModelErrorInvalidWeights,
				"total weights must sum to 1.0, got %v", total)
		}
	default:
		return domain.NewModelError(domain.ModelErrorInvalidStructure,
			"unknown model type: %s", m.ModelType)
	}

	return nil
}

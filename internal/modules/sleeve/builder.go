// Package sleeve builds unified managed accounts from model portfolios.
package sleeve

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/loom/internal/config"
	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// Builder turns a model portfolio into a sleeved account. Models are resolved
// through the repository so composite children can live anywhere.
type Builder struct {
	repo        domain.ModelRepository
	ref         domain.SecurityReference
	cashReserve float64
	log         zerolog.Logger
}

// NewBuilder creates a sleeve builder with the configured cash reserve.
func NewBuilder(repo domain.ModelRepository, ref domain.SecurityReference, cfg *config.Config, log zerolog.Logger) *Builder {
	return &Builder{
		repo:        repo,
		ref:         ref,
		cashReserve: cfg.CashReserve,
		log:         log.With().Str("component", "sleeve_builder").Logger(),
	}
}

// BuildUMA creates a unified managed account invested per the model, with the
// configured cash reserve held alongside.
func (b *Builder) BuildUMA(accountID, name, owner, modelID string, investment float64) (*domain.UnifiedManagedAccount, error) {
	if accountID == "" {
		return nil, domain.NewValidationError("account ID cannot be empty")
	}
	if name == "" {
		return nil, domain.NewValidationError("account name cannot be empty")
	}
	if owner == "" {
		return nil, domain.NewValidationError("owner cannot be empty")
	}
	if modelID == "" {
		return nil, domain.NewValidationError("model ID cannot be empty")
	}
	if investment <= 0 {
		return nil, domain.NewInvalidParameter("investment", "initial investment must be positive, got %v", investment)
	}

	model, err := b.repo.Get(modelID)
	if err != nil {
		return nil, err
	}

	sleeves, err := b.BuildSleeves(model, investment)
	if err != nil {
		return nil, &domain.ModelPortfolioError{
			Kind:    domain.ModelErrorSleeveCreation,
			Message: fmt.Sprintf("failed to build sleeves for model %s", modelID),
			Err:     err,
		}
	}

	now := time.Now()
	uma := &domain.UnifiedManagedAccount{
		ID:          accountID,
		Name:        name,
		Owner:       owner,
		Sleeves:     sleeves,
		CashBalance: investment * b.cashReserve,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	b.log.Info().
		Str("account_id", accountID).
		Str("model_id", modelID).
		Int("sleeves", len(sleeves)).
		Float64("invested", uma.TotalMarketValue()).
		Float64("cash", uma.CashBalance).
		Msg("Built unified managed account")
	return uma, nil
}

// BuildSleeves expands the model into sleeves for the given investment.
// Composite children are expanded recursively, so a composite of composites
// flattens into one sleeve per direct leaf.
func (b *Builder) BuildSleeves(model *domain.ModelPortfolio, investment float64) ([]domain.Sleeve, error) {
	return b.buildSleeves(model, investment, 1.0, map[string]bool{})
}

func (b *Builder) buildSleeves(model *domain.ModelPortfolio, investment, targetWeight float64, visited map[string]bool) ([]domain.Sleeve, error) {
	if visited[model.ID] {
		return nil, fmt.Errorf("model %s references itself through its children", model.ID)
	}
	visited[model.ID] = true
	defer delete(visited, model.ID)

	switch model.ModelType {
	case domain.ModelTypeDirect:
		s, err := b.buildDirectSleeve(model, model.Securities, investment, targetWeight)
		if err != nil {
			return nil, err
		}
		return []domain.Sleeve{s}, nil

	case domain.ModelTypeComposite:
		if err := checkWeightSum(model.ChildModelsWeightSum(), "child model"); err != nil {
			return nil, err
		}
		return b.buildChildSleeves(model, investment, targetWeight, nil, visited)

	case domain.ModelTypeHybrid:
		directWeight := model.SecuritiesWeightSum()
		total := directWeight + model.ChildModelsWeightSum()
		if err := checkWeightSum(total, "total"); err != nil {
			return nil, err
		}

		var direct []domain.Sleeve
		if len(model.Securities) > 0 {
			// Security weights sum to the direct portion; normalize so the
			// sleeve's holdings sum to its own investment.
			normalized := make(map[string]float64, len(model.Securities))
			for id, w := range model.Securities {
				normalized[id] = w / directWeight
			}
			s, err := b.buildDirectSleeve(model, normalized, investment*directWeight, targetWeight*directWeight)
			if err != nil {
				return nil, err
			}
			direct = append(direct, s)
		}
		return b.buildChildSleeves(model, investment, targetWeight, direct, visited)
	}

	return nil, fmt.Errorf("unknown model type: %s", model.ModelType)
}

func (b *Builder) buildChildSleeves(model *domain.ModelPortfolio, investment, targetWeight float64, sleeves []domain.Sleeve, visited map[string]bool) ([]domain.Sleeve, error) {
	for childID, weight := range model.ChildModels {
		child, err := b.repo.Get(childID)
		if err != nil {
			return nil, fmt.Errorf("child model not found: %s: %w", childID, err)
		}
		childSleeves, err := b.buildSleeves(child, investment*weight, targetWeight*weight, visited)
		if err != nil {
			return nil, err
		}
		sleeves = append(sleeves, childSleeves...)
	}
	return sleeves, nil
}

// buildDirectSleeve creates one sleeve holding the given securities, funded
// with the full investment split by weight. Cost basis equals market value
// for fresh purchases, and current weight starts at target.
func (b *Builder) buildDirectSleeve(model *domain.ModelPortfolio, securities map[string]float64, investment, targetWeight float64) (domain.Sleeve, error) {
	if investment <= 0 {
		return domain.Sleeve{}, fmt.Errorf("investment amount must be positive, got %v", investment)
	}
	if targetWeight <= 0 || targetWeight > 1 {
		return domain.Sleeve{}, fmt.Errorf("target weight must be between 0 and 1, got %v", targetWeight)
	}
	if len(securities) == 0 {
		return domain.Sleeve{}, fmt.Errorf("model %s has no securities", model.ID)
	}
	var sum float64
	for _, w := range securities {
		sum += w
	}
	if err := checkWeightSum(sum, "security"); err != nil {
		return domain.Sleeve{}, err
	}

	now := time.Now()
	holdings := make([]domain.Holding, 0, len(securities))
	var marketValue float64
	for securityID, weight := range securities {
		value := investment * weight
		marketValue += value
		holdings = append(holdings, domain.Holding{
			SecurityID:      securityID,
			MarketValue:     value,
			Weight:          weight,
			TargetWeight:    weight,
			CostBasis:       value,
			AcquiredAt:      now,
			FactorExposures: b.ref.FactorExposures(securityID),
		})
	}

	return domain.Sleeve{
		ID:            "sleeve-" + model.ID,
		Name:          model.Name + " Sleeve",
		ModelID:       model.ID,
		TargetWeight:  targetWeight,
		CurrentWeight: targetWeight,
		Holdings:      holdings,
		MarketValue:   marketValue,
	}, nil
}

func checkWeightSum(sum float64, kind string) error {
	if math.Abs(sum-1.0) > domain.WeightSumTolerance {
		return fmt.Errorf("%s weights must sum to 1.0, but sum to %v", kind, sum)
	}
	return nil
}

package model

import (
	"sort"

	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// Substituter applies substitution rules to models, producing derived copies.
// Conditions that need reference data (ESG scores, tax lots) are evaluated
// through the injected SecurityReference.
type Substituter struct {
	ref         domain.SecurityReference
	preferences map[string]bool
	log         zerolog.Logger
}

// NewSubstituter creates a substituter. preferences are the client preference
// tags that ClientPreference conditions match against; nil means none.
func NewSubstituter(ref domain.SecurityReference, preferences []string, log zerolog.Logger) *Substituter {
	prefs := make(map[string]bool, len(preferences))
	for _, p := range preferences {
		prefs[p] = true
	}
	return &Substituter{
		ref:         ref,
		preferences: prefs,
		log:         log.With().Str("component", "substituter").Logger(),
	}
}

// Apply evaluates the rules against the model and returns a derived copy with
// matching securities swapped, weight preserved. The input model is never
// mutated. Rules run highest priority first; within equal priority, input
// order is kept.
func (s *Substituter) Apply(model *domain.ModelPortfolio, rules []domain.SubstitutionRule) *domain.ModelPortfolio {
	return s.ApplyWithHoldings(model, rules, nil)
}

// ApplyWithHoldings is Apply with account holdings supplied so tax-lot
// conditions can be evaluated. Without holdings a tax-lot condition never
// fires.
func (s *Substituter) ApplyWithHoldings(
	model *domain.ModelPortfolio,
	rules []domain.SubstitutionRule,
	holdings []domain.Holding,
) *domain.ModelPortfolio {
	derived := model.Clone()

	ordered := make([]domain.SubstitutionRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for _, rule := range ordered {
		if !s.conditionMet(rule, holdings) {
			continue
		}
		weight, held := derived.Securities[rule.OriginalSecurityID]
		if !held {
			continue
		}
		delete(derived.Securities, rule.OriginalSecurityID)
		derived.Securities[rule.SubstituteSecurityID] = weight
		s.log.Debug().
			Str("model_id", model.ID).
			Str("original", rule.OriginalSecurityID).
			Str("substitute", rule.SubstituteSecurityID).
			Float64("weight", weight).
			Msg("Applied substitution rule")
	}

	return derived
}

func (s *Substituter) conditionMet(rule domain.SubstitutionRule, holdings []domain.Holding) bool {
	switch rule.Condition.Kind {
	case domain.ConditionAlways:
		return true
	case domain.ConditionESGScoreBelow:
		score, ok := s.ref.ESGScore(rule.OriginalSecurityID)
		if !ok {
			return false
		}
		return score.Overall < rule.Condition.Threshold
	case domain.ConditionTaxLotValueBelow:
		var lotValue float64
		var found bool
		for i := range holdings {
			if holdings[i].SecurityID != rule.OriginalSecurityID {
				continue
			}
			found = true
			for _, lot := range s.ref.TaxLots(holdings[i]) {
				lotValue += lot.MarketValue()
			}
		}
		return found && lotValue < rule.Condition.Threshold
	case domain.ConditionClientPreference:
		return s.preferences[rule.Condition.Preference]
	}
	return false
}

package domain

// Priority is a small ordered scale for ranking rules and recommendations.
// Sorting is deterministic: ties keep insertion order.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}
	return "unknown"
}

// SubstitutionConditionKind is the closed set of substitution gates.
type SubstitutionConditionKind string

const (
	// ConditionAlways applies the rule unconditionally.
	ConditionAlways SubstitutionConditionKind = "ALWAYS"
	// ConditionESGScoreBelow applies when the original security's overall
	// ESG score is below Threshold.
	ConditionESGScoreBelow SubstitutionConditionKind = "ESG_SCORE_BELOW"
	// ConditionTaxLotValueBelow applies when the combined tax-lot market
	// value of the original security is below Threshold.
	ConditionTaxLotValueBelow SubstitutionConditionKind = "TAX_LOT_VALUE_BELOW"
	// ConditionClientPreference applies when the client preference tag
	// matches Preference.
	ConditionClientPreference SubstitutionConditionKind = "CLIENT_PREFERENCE"
)

// SubstitutionCondition gates a substitution rule. Kind selects the variant;
// Threshold and Preference carry the variant payloads.
type SubstitutionCondition struct {
	Kind       SubstitutionConditionKind `json:"kind"`
	Threshold  float64                   `json:"threshold,omitempty"`
	Preference string                    `json:"preference,omitempty"`
}

// Always returns an unconditional substitution gate.
func Always() SubstitutionCondition {
	return SubstitutionCondition{Kind: ConditionAlways}
}

// ESGScoreBelow returns a gate on the original security's overall ESG score.
func ESGScoreBelow(threshold float64) SubstitutionCondition {
	return SubstitutionCondition{Kind: ConditionESGScoreBelow, Threshold: threshold}
}

// TaxLotValueBelow returns a gate on the original security's tax-lot value.
func TaxLotValueBelow(threshold float64) SubstitutionCondition {
	return SubstitutionCondition{Kind: ConditionTaxLotValueBelow, Threshold: threshold}
}

// ClientPreference returns a gate on a client preference tag.
func ClientPreference(preference string) SubstitutionCondition {
	return SubstitutionCondition{Kind: ConditionClientPreference, Preference: preference}
}

// SubstitutionRule maps one security to a replacement, gated by a condition.
// Rules are applied highest priority first (ties keep input order) and never
// mutate the source model.
type SubstitutionRule struct {
	ID                   string                `json:"id"`
	OriginalSecurityID   string                `json:"original_security_id"`
	SubstituteSecurityID string                `json:"substitute_security_id"`
	Condition            SubstitutionCondition `json:"condition"`
	Priority             Priority              `json:"priority"`
}

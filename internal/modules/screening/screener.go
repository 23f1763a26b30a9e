// Package screening swaps out account holdings that fail ESG criteria and
// reports the account's value-weighted ESG profile.
package screening

import (
	"fmt"
	"sort"

	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// SubstituteFinder proposes an ESG-acceptable replacement for a security.
type SubstituteFinder interface {
	Substitute(securityID string) (string, bool)
}

// TableFinder resolves substitutes from a fixed table, falling back to a
// placeholder "-ESG" variant of the original id so screening always has an
// answer.
type TableFinder struct {
	table map[string]string
}

// NewTableFinder creates a finder over the given table.
func NewTableFinder(table map[string]string) *TableFinder {
	return &TableFinder{table: table}
}

// DefaultSubstitutes maps common holdings to higher-scoring peers in the same
// sector.
func DefaultSubstitutes() map[string]string {
	return map[string]string{
		"AAPL":  "NVDA",
		"MSFT":  "ADBE",
		"AMZN":  "SHOP",
		"GOOGL": "META",
	}
}

func (f *TableFinder) Substitute(securityID string) (string, bool) {
	if sub, ok := f.table[securityID]; ok {
		return sub, true
	}
	return fmt.Sprintf("%s-ESG", securityID), true
}

// Screener applies ESG screening criteria to managed accounts.
type Screener struct {
	ref    domain.SecurityReference
	finder SubstituteFinder
	log    zerolog.Logger
}

// NewScreener creates a screener backed by the given security reference and
// substitute finder.
func NewScreener(ref domain.SecurityReference, finder SubstituteFinder, log zerolog.Logger) *Screener {
	return &Screener{
		ref:    ref,
		finder: finder,
		log:    log.With().Str("component", "esg_screener").Logger(),
	}
}

// neutralScore stands in for securities the reference has no scores for.
func neutralScore() domain.ESGScore {
	return domain.ESGScore{Environmental: 50, Social: 50, Governance: 50, Overall: 50, Controversy: 50}
}

func (s *Screener) scoreFor(securityID string) domain.ESGScore {
	if score, ok := s.ref.ESGScore(securityID); ok {
		return score
	}
	return neutralScore()
}

// FailsCriteria reports whether a security falls short of the criteria.
// Unknown securities are scored neutrally, so they fail only strict criteria.
func (s *Screener) FailsCriteria(securityID string, criteria *domain.ESGScreeningCriteria) bool {
	if criteria == nil {
		return false
	}
	for _, excluded := range criteria.ExcludedSectors {
		if s.ref.Sector(securityID) == excluded {
			return true
		}
	}

	score := s.scoreFor(securityID)
	switch {
	case criteria.MinOverallScore != nil && score.Overall < *criteria.MinOverallScore:
		return true
	case criteria.MinEnvironmentalScore != nil && score.Environmental < *criteria.MinEnvironmentalScore:
		return true
	case criteria.MinSocialScore != nil && score.Social < *criteria.MinSocialScore:
		return true
	case criteria.MinGovernanceScore != nil && score.Governance < *criteria.MinGovernanceScore:
		return true
	case criteria.MaxControversyScore != nil && score.Controversy > *criteria.MaxControversyScore:
		return true
	}
	return false
}

// Rules builds one substitution rule per distinct failing security in the
// account, ordered by security id.
func (s *Screener) Rules(uma *domain.UnifiedManagedAccount, criteria *domain.ESGScreeningCriteria) []domain.SubstitutionRule {
	if criteria == nil {
		return nil
	}

	seen := make(map[string]bool)
	var failing []string
	for i := range uma.Sleeves {
		for _, h := range uma.Sleeves[i].Holdings {
			if seen[h.SecurityID] {
				continue
			}
			seen[h.SecurityID] = true
			if s.FailsCriteria(h.SecurityID, criteria) {
				failing = append(failing, h.SecurityID)
			}
		}
	}
	sort.Strings(failing)

	minOverall := 0.0
	if criteria.MinOverallScore != nil {
		minOverall = *criteria.MinOverallScore
	}

	var rules []domain.SubstitutionRule
	for _, id := range failing {
		substitute, ok := s.finder.Substitute(id)
		if !ok {
			continue
		}
		rules = append(rules, domain.SubstitutionRule{
			ID:                   fmt.Sprintf("esg-rule-%s", id),
			OriginalSecurityID:   id,
			SubstituteSecurityID: substitute,
			Condition:            domain.ESGScoreBelow(minOverall),
			Priority:             domain.PriorityLow,
		})
	}
	return rules
}

// ApplyScreening returns a copy of the account with failing holdings swapped
// for their substitutes. Market values and weights carry over unchanged, so
// sleeve and account totals are preserved; the substitute starts at a cost
// basis equal to its market value. A nil criteria falls back to the
// account's own, and an account with neither is returned as an untouched
// copy.
func (s *Screener) ApplyScreening(uma *domain.UnifiedManagedAccount, criteria *domain.ESGScreeningCriteria) *domain.UnifiedManagedAccount {
	if criteria == nil {
		criteria = uma.ESGCriteria
	}
	screened := cloneAccount(uma)
	if criteria == nil {
		return screened
	}

	substitutes := make(map[string]string)
	for _, rule := range s.Rules(uma, criteria) {
		substitutes[rule.OriginalSecurityID] = rule.SubstituteSecurityID
	}

	replaced := 0
	for i := range screened.Sleeves {
		sleeve := &screened.Sleeves[i]
		for j := range sleeve.Holdings {
			h := &sleeve.Holdings[j]
			substitute, ok := substitutes[h.SecurityID]
			if !ok {
				continue
			}
			h.SecurityID = substitute
			h.CostBasis = h.MarketValue
			h.FactorExposures = s.ref.FactorExposures(substitute)
			replaced++
		}
	}

	s.log.Debug().
		Str("account_id", uma.ID).
		Int("replaced", replaced).
		Msg("Applied ESG screening")
	return screened
}

func cloneAccount(uma *domain.UnifiedManagedAccount) *domain.UnifiedManagedAccount {
	out := *uma
	out.Sleeves = make([]domain.Sleeve, len(uma.Sleeves))
	for i, sleeve := range uma.Sleeves {
		out.Sleeves[i] = sleeve
		out.Sleeves[i].Holdings = make([]domain.Holding, len(sleeve.Holdings))
		for j, h := range sleeve.Holdings {
			out.Sleeves[i].Holdings[j] = h
			if h.FactorExposures != nil {
				exposures := make(map[string]float64, len(h.FactorExposures))
				for k, v := range h.FactorExposures {
					exposures[k] = v
				}
				out.Sleeves[i].Holdings[j].FactorExposures = exposures
			}
		}
	}
	return &out
}

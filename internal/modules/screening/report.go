package screening

import (
	"sort"

	"github.com/aristath/loom/internal/domain"
)

// Contributor is one holding's entry in the impact report.
type Contributor struct {
	SecurityID string  `json:"security_id"`
	Weight     float64 `json:"weight"`
	Score      float64 `json:"score"`
}

// ImpactReport summarizes an account's ESG profile: value-weighted component
// scores and the holdings pulling the overall score up and down.
type ImpactReport struct {
	AccountID     string        `json:"account_id"`
	Environmental float64       `json:"environmental_score"`
	Social        float64       `json:"social_score"`
	Governance    float64       `json:"governance_score"`
	Overall       float64       `json:"overall_score"`
	Controversy   float64       `json:"controversy_score"`
	Top           []Contributor `json:"top_contributors"`
	Bottom        []Contributor `json:"bottom_contributors"`
}

const reportContributors = 5

// GenerateImpactReport computes the account's value-weighted ESG scores.
// Securities without reference scores count as neutral 50s in the averages
// and are left out of the contributor rankings.
func (s *Screener) GenerateImpactReport(uma *domain.UnifiedManagedAccount) ImpactReport {
	total := uma.TotalMarketValue()
	report := ImpactReport{AccountID: uma.ID}
	if total <= 0 {
		return report
	}

	var totalWeight float64
	var contributors []Contributor
	for i := range uma.Sleeves {
		for _, h := range uma.Sleeves[i].Holdings {
			weight := h.MarketValue / total
			score := s.scoreFor(h.SecurityID)

			report.Environmental += score.Environmental * weight
			report.Social += score.Social * weight
			report.Governance += score.Governance * weight
			report.Overall += score.Overall * weight
			report.Controversy += score.Controversy * weight
			totalWeight += weight

			if _, ok := s.ref.ESGScore(h.SecurityID); ok {
				contributors = append(contributors, Contributor{
					SecurityID: h.SecurityID,
					Weight:     weight,
					Score:      score.Overall,
				})
			}
		}
	}
	if totalWeight == 0 {
		return ImpactReport{AccountID: uma.ID}
	}

	report.Environmental /= totalWeight
	report.Social /= totalWeight
	report.Governance /= totalWeight
	report.Overall /= totalWeight
	report.Controversy /= totalWeight

	ranked := make([]Contributor, len(contributors))
	copy(ranked, contributors)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	report.Top = topN(ranked, reportContributors)

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score < ranked[j].Score })
	report.Bottom = topN(ranked, reportContributors)

	return report
}

func topN(contributors []Contributor, n int) []Contributor {
	if len(contributors) > n {
		contributors = contributors[:n]
	}
	out := make([]Contributor, len(contributors))
	copy(out, contributors)
	return out
}

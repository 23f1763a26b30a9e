package screening

import (
	"testing"

	"github.com/aristath/loom/internal/domain"
	"github.com/aristath/loom/internal/modules/refdata"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateImpactReportWeightsByValue(t *testing.T) {
	ref := refdata.NewStatic().
		Add("GOOD", refdata.Security{Price: 100, ESG: &domain.ESGScore{Environmental: 80, Social: 80, Governance: 80, Overall: 80, Controversy: 10}}).
		Add("BAD", refdata.Security{Price: 100, ESG: &domain.ESGScore{Environmental: 20, Social: 20, Governance: 20, Overall: 20, Controversy: 60}})
	s := NewScreener(ref, NewTableFinder(nil), zerolog.Nop())

	uma := &domain.UnifiedManagedAccount{
		ID: "acct-r",
		Sleeves: []domain.Sleeve{
			{ID: "s", MarketValue: 100_000, Holdings: []domain.Holding{
				{SecurityID: "GOOD", MarketValue: 75_000, Weight: 0.75},
				{SecurityID: "BAD", MarketValue: 25_000, Weight: 0.25},
			}},
		},
	}

	report := s.GenerateImpactReport(uma)
	assert.Equal(t, "acct-r", report.AccountID)
	// 0.75*80 + 0.25*20.
	assert.InDelta(t, 65, report.Overall, 1e-9)
	assert.InDelta(t, 65, report.Environmental, 1e-9)
	// 0.75*10 + 0.25*60.
	assert.InDelta(t, 22.5, report.Controversy, 1e-9)

	require.Len(t, report.Top, 2)
	assert.Equal(t, "GOOD", report.Top[0].SecurityID)
	require.Len(t, report.Bottom, 2)
	assert.Equal(t, "BAD", report.Bottom[0].SecurityID)
}

func TestGenerateImpactReportDefaultsMissingScores(t *testing.T) {
	ref := refdata.NewStatic().
		Add("GOOD", refdata.Security{Price: 100, ESG: &domain.ESGScore{Environmental: 80, Social: 80, Governance: 80, Overall: 80, Controversy: 10}})
	s := NewScreener(ref, NewTableFinder(nil), zerolog.Nop())

	uma := &domain.UnifiedManagedAccount{
		ID: "acct-r",
		Sleeves: []domain.Sleeve{
			{ID: "s", MarketValue: 100_000, Holdings: []domain.Holding{
				{SecurityID: "GOOD", MarketValue: 50_000, Weight: 0.5},
				{SecurityID: "MYSTERY", MarketValue: 50_000, Weight: 0.5},
			}},
		},
	}

	report := s.GenerateImpactReport(uma)
	// Unknown security counts as a neutral 50.
	assert.InDelta(t, 65, report.Overall, 1e-9)

	// But it never appears among the ranked contributors.
	require.Len(t, report.Top, 1)
	assert.Equal(t, "GOOD", report.Top[0].SecurityID)
}

func TestGenerateImpactReportCapsContributors(t *testing.T) {
	s := NewScreener(refdata.WithSampleData(), NewTableFinder(nil), zerolog.Nop())

	holdings := []domain.Holding{
		{SecurityID: "AAPL", MarketValue: 10_000},
		{SecurityID: "MSFT", MarketValue: 10_000},
		{SecurityID: "AMZN", MarketValue: 10_000},
		{SecurityID: "GOOGL", MarketValue: 10_000},
		{SecurityID: "NVDA", MarketValue: 10_000},
		{SecurityID: "META", MarketValue: 10_000},
		{SecurityID: "JPM", MarketValue: 10_000},
	}
	uma := &domain.UnifiedManagedAccount{
		ID:      "acct-many",
		Sleeves: []domain.Sleeve{{ID: "s", MarketValue: 70_000, Holdings: holdings}},
	}

	report := s.GenerateImpactReport(uma)
	assert.Len(t, report.Top, 5)
	assert.Len(t, report.Bottom, 5)
	// NVDA 82 leads, AAPL 48 trails.
	assert.Equal(t, "NVDA", report.Top[0].SecurityID)
	assert.Equal(t, "AAPL", report.Bottom[0].SecurityID)
}

func TestGenerateImpactReportEmptyAccount(t *testing.T) {
	s := newScreener()
	report := s.GenerateImpactReport(&domain.UnifiedManagedAccount{ID: "acct-empty"})
	assert.Zero(t, report.Overall)
	assert.Empty(t, report.Top)
}

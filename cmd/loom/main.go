// Package main is a demonstration driver for the loom engine. It builds a
// managed account from a model portfolio, simulates market drift, and walks
// the account through the full optimization pipeline: drift analysis,
// rebalancing, tax loss harvesting, the annual gains budget, and household
// asset location.
package main

import (
	"os"
	"time"

	"github.com/aristath/loom/internal/config"
	"github.com/aristath/loom/internal/database"
	"github.com/aristath/loom/internal/domain"
	"github.com/aristath/loom/internal/modules/drift"
	"github.com/aristath/loom/internal/modules/factors"
	"github.com/aristath/loom/internal/modules/household"
	"github.com/aristath/loom/internal/modules/model"
	"github.com/aristath/loom/internal/modules/refdata"
	"github.com/aristath/loom/internal/modules/screening"
	"github.com/aristath/loom/internal/modules/sleeve"
	"github.com/aristath/loom/internal/modules/taxbudget"
	"github.com/aristath/loom/internal/modules/trades"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalLog := zerolog.New(os.Stderr)
		fatalLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()

	ref := refdata.WithSampleData()
	repo := model.NewMemoryRepository(log)

	growth := &domain.ModelPortfolio{
		ID:        "model-growth",
		Name:      "Growth Equity",
		ModelType: domain.ModelTypeDirect,
		Securities: map[string]float64{
			"AAPL":  0.25,
			"MSFT":  0.25,
			"AMZN":  0.25,
			"GOOGL": 0.25,
		},
	}
	income := &domain.ModelPortfolio{
		ID:         "model-income",
		Name:       "Core Income",
		ModelType:  domain.ModelTypeDirect,
		Securities: map[string]float64{"AGG": 0.8, "VNQ": 0.2},
	}
	for _, m := range []*domain.ModelPortfolio{growth, income} {
		if err := repo.Register(m); err != nil {
			log.Fatal().Err(err).Str("model_id", m.ID).Msg("Model registration failed")
		}
	}

	// Optionally persist the models so other tooling can read them.
	if cfg.ModelDBPath != "" {
		persistModels(cfg, log, growth, income)
	}

	builder := sleeve.NewBuilder(repo, ref, cfg, log)
	uma, err := builder.BuildUMA("acct-demo", "Demo Account", "client-1", "model-growth", 1_000_000)
	if err != nil {
		log.Fatal().Err(err).Msg("Account construction failed")
	}
	log.Info().
		Float64("market_value", uma.TotalMarketValue()).
		Float64("cash_balance", uma.CashBalance).
		Int("sleeves", len(uma.Sleeves)).
		Msg("Built unified managed account")

	// Simulate a quarter of market movement: the growth sleeve rallies and
	// one position slips underwater.
	applyMarketMove(uma, "AAPL", 80_000)
	applyMarketMove(uma, "MSFT", -30_000)

	analyzer := drift.NewAnalyzer(ref, log)
	analysis := analyzer.AnalyzeUMA(uma)
	log.Info().
		Float64("drift_score", analysis.DriftScore).
		Bool("significant", analysis.HasSignificantDrift(cfg.DriftThreshold)).
		Msg("Analyzed account drift")

	factorModel := factors.WithSampleData(log)
	selector := trades.NewTableSelector(trades.DefaultReplacements())
	registry := trades.NewPopulatedRegistry(factorModel, selector, cfg, log)

	rebalance, err := registry.Generate("rebalance", trades.Request{UMA: uma, TaxAware: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Rebalance generation failed")
	}
	logTrades(log, "rebalance", rebalance)

	taxSettings := domain.TaxOptimizationSettings{
		PrioritizeLossHarvesting: true,
		ShortTermTaxRate:         0.35,
		LongTermTaxRate:          0.15,
	}
	var holdings []domain.Holding
	for i := range uma.Sleeves {
		holdings = append(holdings, uma.Sleeves[i].Holdings...)
	}
	log.Info().
		Float64("harvestable_value", trades.HarvestableValue(holdings)).
		Msg("Scanned for loss positions")

	harvest, err := registry.Generate("harvest", trades.Request{UMA: uma, TaxSettings: &taxSettings})
	if err != nil {
		log.Fatal().Err(err).Msg("Loss harvesting failed")
	}
	logTrades(log, "harvest", harvest)

	optimizer := taxbudget.NewOptimizer(log)
	budgeted := optimizer.Optimize(append(rebalance, harvest...), 10_000, 2_000)
	log.Info().
		Int("kept", len(budgeted.Trades)).
		Int("deferred", budgeted.Deferred).
		Float64("realized_impact", budgeted.RealizedImpact).
		Msg("Applied annual tax budget")

	runHousehold(cfg, log, ref, selector, builder, uma, taxSettings)
	runScreening(log, ref, uma)
}

// persistModels saves the demo models through the SQLite repository.
func persistModels(cfg *config.Config, log zerolog.Logger, models ...*domain.ModelPortfolio) {
	db, err := database.New(database.Config{Path: cfg.ModelDBPath, Name: "models"})
	if err != nil {
		log.Error().Err(err).Msg("Model database unavailable")
		return
	}
	defer db.Close()

	store, err := model.NewSQLiteRepository(db.Conn(), log)
	if err != nil {
		log.Error().Err(err).Msg("Model store initialization failed")
		return
	}
	for _, m := range models {
		if err := store.Save(m); err != nil {
			log.Error().Err(err).Str("model_id", m.ID).Msg("Model persistence failed")
		}
	}
}

// applyMarketMove shifts one security's market value and refreshes the
// account's sleeve weights.
func applyMarketMove(uma *domain.UnifiedManagedAccount, securityID string, delta float64) {
	for i := range uma.Sleeves {
		s := &uma.Sleeves[i]
		for j := range s.Holdings {
			if s.Holdings[j].SecurityID != securityID {
				continue
			}
			s.Holdings[j].MarketValue += delta
			s.MarketValue += delta
		}
	}

	total := uma.TotalMarketValue()
	if total <= 0 {
		return
	}
	for i := range uma.Sleeves {
		s := &uma.Sleeves[i]
		s.CurrentWeight = s.MarketValue / total
		for j := range s.Holdings {
			if s.MarketValue > 0 {
				s.Holdings[j].Weight = s.Holdings[j].MarketValue / s.MarketValue
			}
		}
	}
}

func logTrades(log zerolog.Logger, strategy string, list []domain.RebalanceTrade) {
	for _, t := range list {
		event := log.Info().
			Str("strategy", strategy).
			Str("security_id", t.SecurityID).
			Float64("amount", t.Amount).
			Bool("is_buy", t.IsBuy)
		if t.HasTaxImpact() {
			event = event.Float64("tax_impact", *t.TaxImpact)
		}
		event.Msg("Generated trade")
	}
}

// runHousehold pairs the demo account with a tax-deferred income account and
// optimizes asset location across the two.
func runHousehold(cfg *config.Config, log zerolog.Logger, ref domain.SecurityReference, selector trades.ReplacementSelector, builder *sleeve.Builder, taxableAccount *domain.UnifiedManagedAccount, taxSettings domain.TaxOptimizationSettings) {
	ira, err := builder.BuildUMA("acct-ira", "Retirement Account", "client-1", "model-income", 400_000)
	if err != nil {
		log.Fatal().Err(err).Msg("Retirement account construction failed")
	}

	h := household.NewHousehold("Demo Household", "Client One")
	owner := []string{h.Members[0].ID}
	taxableAccount.WithTaxOptimization(taxSettings)
	if err := h.AddAccount(taxableAccount, owner, household.AccountTaxable); err != nil {
		log.Fatal().Err(err).Msg("Household account attach failed")
	}
	if err := h.AddAccount(ira, owner, household.AccountTaxDeferred); err != nil {
		log.Fatal().Err(err).Msg("Household account attach failed")
	}
	budget := 10_000.0
	h.TaxSettings = &domain.TaxOptimizationSettings{
		AnnualTaxBudget:  &budget,
		RealizedGainsYTD: 2_000,
		ShortTermTaxRate: taxSettings.ShortTermTaxRate,
		LongTermTaxRate:  taxSettings.LongTermTaxRate,
	}

	optimizer := household.NewOptimizer(ref, selector, log)
	log.Info().
		Float64("location_efficiency", optimizer.LocationEfficiency(h)).
		Msg("Scored household asset location")

	for _, rec := range optimizer.RecommendAssetLocation(h) {
		log.Info().
			Str("security_id", rec.SecurityID).
			Str("from", rec.SourceAccountID).
			Str("to", rec.TargetAccountID).
			Float64("estimated_savings", rec.EstimatedSavings).
			Str("priority", rec.Priority.String()).
			Msg("Asset location recommendation")
	}

	for _, accountTrades := range optimizer.GenerateTaxOptimizedTrades(h) {
		logTrades(log.With().Str("account_id", accountTrades.AccountID).Logger(), "household", accountTrades.Trades)
	}
}

// runScreening applies an ESG floor to the account and reports its profile.
func runScreening(log zerolog.Logger, ref domain.SecurityReference, uma *domain.UnifiedManagedAccount) {
	screener := screening.NewScreener(ref, screening.NewTableFinder(screening.DefaultSubstitutes()), log)

	minOverall := 60.0
	screened := screener.ApplyScreening(uma, &domain.ESGScreeningCriteria{MinOverallScore: &minOverall})

	before := screener.GenerateImpactReport(uma)
	after := screener.GenerateImpactReport(screened)
	log.Info().
		Float64("overall_before", before.Overall).
		Float64("overall_after", after.Overall).
		Msg("Applied ESG screening")
}

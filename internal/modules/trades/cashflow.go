package trades

import (
	"math"

	"github.com/aristath/loom/internal/config"
	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// CashFlowStrategy invests deposits and funds withdrawals while keeping the
// portfolio near its target weights. Deposits buy against the grown total;
// withdrawals come out of cash first and only sell for the shortfall.
type CashFlowStrategy struct {
	minTradeAmount float64
	log            zerolog.Logger
}

// NewCashFlowStrategy creates the strategy with the configured minimum trade.
func NewCashFlowStrategy(cfg *config.Config, log zerolog.Logger) *CashFlowStrategy {
	return &CashFlowStrategy{
		minTradeAmount: cfg.MinTradeAmount,
		log:            log.With().Str("strategy", "cashflow").Logger(),
	}
}

func (s *CashFlowStrategy) Name() string { return "cashflow" }

func (s *CashFlowStrategy) Reason() domain.TradeReason { return domain.TradeReasonDeposit }

// Generate requires Portfolio and CashFlow. Target weights are always
// maintained through the registry entry point.
func (s *CashFlowStrategy) Generate(req Request) ([]domain.RebalanceTrade, error) {
	if req.Portfolio == nil || req.CashFlow == nil {
		return nil, domain.NewInvalidParameter("request", "cashflow requires a portfolio and a cash flow")
	}
	return s.GenerateTrades(req.Portfolio, req.CashFlow, true), nil
}

// GenerateTrades produces the buys or sells for a cash flow. The flow's sign
// decides the direction: positive deposits, negative withdrawals. With
// maintainTargetWeights false the flow only moves the cash balance and no
// trades are emitted.
func (s *CashFlowStrategy) GenerateTrades(p *domain.Portfolio, flow *domain.CashFlow, maintainTargetWeights bool) []domain.RebalanceTrade {
	if !maintainTargetWeights {
		return nil
	}
	if flow.Amount > 0 {
		return s.depositTrades(p, flow.Amount)
	}
	return s.withdrawalTrades(p, math.Abs(flow.Amount))
}

func (s *CashFlowStrategy) depositTrades(p *domain.Portfolio, amount float64) []domain.RebalanceTrade {
	newTotal := p.MarketValue + amount

	var trades []domain.RebalanceTrade
	for i := range p.Holdings {
		h := &p.Holdings[i]
		buyAmount := newTotal*h.TargetWeight - h.MarketValue
		if buyAmount < s.minTradeAmount {
			continue
		}
		trades = append(trades, domain.RebalanceTrade{
			SecurityID: h.SecurityID,
			Amount:     buyAmount,
			IsBuy:      true,
			Reason:     domain.TradeReasonDeposit,
		})
	}

	s.log.Debug().
		Str("portfolio_id", p.ID).
		Float64("deposit", amount).
		Int("trades", len(trades)).
		Msg("Generated deposit trades")
	return trades
}

func (s *CashFlowStrategy) withdrawalTrades(p *domain.Portfolio, amount float64) []domain.RebalanceTrade {
	// Cash absorbs the withdrawal first.
	if amount-p.CashBalance <= 0 {
		return nil
	}

	newTotal := p.MarketValue - amount
	var trades []domain.RebalanceTrade
	for i := range p.Holdings {
		h := &p.Holdings[i]
		sellAmount := math.Max(0, h.MarketValue-newTotal*h.TargetWeight)
		if sellAmount < s.minTradeAmount {
			continue
		}
		trades = append(trades, domain.RebalanceTrade{
			SecurityID: h.SecurityID,
			Amount:     sellAmount,
			IsBuy:      false,
			Reason:     domain.TradeReasonWithdrawal,
		})
	}

	s.log.Debug().
		Str("portfolio_id", p.ID).
		Float64("withdrawal", amount).
		Int("trades", len(trades)).
		Msg("Generated withdrawal trades")
	return trades
}

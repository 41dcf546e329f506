package sim

import (
	"fmt"
	"time"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/stats"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/logger"
)

// Position is the single open position of a run (단일 심볼, 단일 포지션)
type Position struct {
	Symbol      string
	Direction   contracts.Direction
	Quantity    float64
	EntryTime   time.Time
	EntryPrice  float64
	StopPrice   float64
	TakePrice   float64
	SourceTag   contracts.SourceTag
	ProducerIDs []string

	entryCommission float64
	entrySlippage   float64
}

// Simulator executes merged decisions against a cash/position state machine.
// ⭐ SSOT: 현금/포지션/체결 장부 상태 변경은 여기서만
// 상태 전이: FLAT → OPEN → FLAT. 진입 시 스탑/익절 가격이 고정된다.
type Simulator struct {
	symbol string
	sizing strategyconfig.Sizing
	costs  strategyconfig.Costs
	exit   strategyconfig.Exit

	cash     float64
	position *Position
	ledger   []contracts.Trade
	skipped  []contracts.SkippedTrade

	logger *logger.Logger
}

// NewSimulator creates a flat simulator with the configured initial cash
func NewSimulator(symbol string, cfg *strategyconfig.Config, log *logger.Logger) *Simulator {
	return &Simulator{
		symbol:  symbol,
		sizing:  cfg.Sizing,
		costs:   cfg.Costs,
		exit:    cfg.Exit,
		cash:    cfg.Sizing.InitialCash,
		ledger:  make([]contracts.Trade, 0),
		skipped: make([]contracts.SkippedTrade, 0),
		logger:  log,
	}
}

// Cash returns the current free cash
func (s *Simulator) Cash() float64 { return s.cash }

// OpenPosition returns the current position, nil when flat
func (s *Simulator) OpenPosition() *Position { return s.position }

// Ledger returns the closed trades in chronological order
func (s *Simulator) Ledger() []contracts.Trade { return s.ledger }

// Skipped returns the decisions that could not be executed
func (s *Simulator) Skipped() []contracts.SkippedTrade { return s.skipped }

// Equity marks the portfolio to the given price.
// Invariant: 장부 순손익 합 == 최종 equity − 초기 현금 (강제청산 이후)
func (s *Simulator) Equity(price float64) float64 {
	if s.position == nil {
		return s.cash
	}
	p := s.position
	unrealized := (price - p.EntryPrice) * p.Quantity * p.Direction.Sign()
	return s.cash + p.EntryPrice*p.Quantity + unrealized
}

// Step processes one period: exit rules first, then the merged decision.
// decision이 nil이면 (데이터 스킵 기간) 청산 규칙만 평가한다.
func (s *Simulator) Step(ts time.Time, price float64, recentReturns []float64, decision *contracts.MergedDecision) error {
	if price <= 0 {
		return &SimulationError{Timestamp: ts, Op: "step", Reason: fmt.Sprintf("non-positive price %v", price)}
	}

	// 스탑/익절은 시그널보다 먼저 평가된다
	if s.position != nil {
		if reason := s.exitTriggered(price); reason != "" {
			s.close(ts, price, reason)
		}
	}

	if decision == nil {
		return nil
	}
	if !decision.Direction.Valid() {
		return &SimulationError{
			Timestamp: ts,
			Op:        "apply decision",
			Reason:    fmt.Sprintf("unknown direction %q", decision.Direction),
		}
	}

	switch {
	case decision.Direction == contracts.DirectionFlat:
		if s.position != nil {
			s.close(ts, price, "signal")
		}

	case s.position == nil:
		s.open(ts, price, decision, recentReturns)

	case s.position.Direction != decision.Direction:
		// 반대 방향 시그널: 청산 후 재진입
		s.close(ts, price, "signal")
		s.open(ts, price, decision, recentReturns)

	default:
		// 같은 방향: 보유 유지
	}

	return nil
}

// ForceClose liquidates any open position at the final price.
// 미청산 포지션이 장부에서 빠지면 손익 정합이 깨지므로 run 종료 시 필수.
func (s *Simulator) ForceClose(ts time.Time, price float64) {
	if s.position != nil {
		s.close(ts, price, "end_of_run")
	}
}

// exitTriggered returns the exit reason if the stop or take level is hit
func (s *Simulator) exitTriggered(price float64) string {
	p := s.position
	if p.Direction == contracts.DirectionLong {
		if price <= p.StopPrice {
			return "stop_loss"
		}
		if price >= p.TakePrice {
			return "take_profit"
		}
		return ""
	}
	if price >= p.StopPrice {
		return "stop_loss"
	}
	if price <= p.TakePrice {
		return "take_profit"
	}
	return ""
}

// open sizes and enters a new position. 체결 불가 시 SkippedTrade로 기록.
func (s *Simulator) open(ts time.Time, price float64, decision *contracts.MergedDecision, recentReturns []float64) {
	pct := s.positionPct(decision.Confidence, recentReturns)
	notional := s.cash * pct
	quantity := notional / price
	if quantity <= 0 {
		s.skip(ts, decision.Direction, "zero quantity after sizing")
		return
	}

	commission := notional * s.costs.CommissionPct
	slippage := notional * s.costs.SlippagePct
	if notional+commission+slippage > s.cash {
		s.skip(ts, decision.Direction, "insufficient cash for entry costs")
		return
	}

	stop, take := s.exitLevels(price, decision.Direction)

	s.cash -= notional + commission + slippage
	s.position = &Position{
		Symbol:          s.symbol,
		Direction:       decision.Direction,
		Quantity:        quantity,
		EntryTime:       ts,
		EntryPrice:      price,
		StopPrice:       stop,
		TakePrice:       take,
		SourceTag:       decision.SourceTag(),
		ProducerIDs:     decision.ProducerIDs(),
		entryCommission: commission,
		entrySlippage:   slippage,
	}

	s.logger.WithFields(map[string]interface{}{
		"direction": decision.Direction,
		"quantity":  quantity,
		"price":     price,
		"pct":       pct,
	}).Debug("Position opened")
}

// close realizes the open position into the trade ledger
func (s *Simulator) close(ts time.Time, price float64, reason string) {
	p := s.position
	exitNotional := price * p.Quantity
	commission := exitNotional * s.costs.CommissionPct
	slippage := exitNotional * s.costs.SlippagePct

	grossPnL := (price - p.EntryPrice) * p.Quantity * p.Direction.Sign()
	totalCommission := p.entryCommission + commission
	totalSlippage := p.entrySlippage + slippage
	netPnL := grossPnL - commission - slippage // 진입 비용은 이미 현금에서 차감됨

	entryNotional := p.EntryPrice * p.Quantity
	trade := contracts.Trade{
		Symbol:      p.Symbol,
		Direction:   p.Direction,
		Quantity:    p.Quantity,
		EntryTime:   p.EntryTime,
		EntryPrice:  p.EntryPrice,
		ExitTime:    ts,
		ExitPrice:   price,
		RealizedPnL: grossPnL - totalCommission - totalSlippage,
		ReturnPct:   (grossPnL - totalCommission - totalSlippage) / entryNotional,
		Commission:  totalCommission,
		Slippage:    totalSlippage,
		ExitReason:  reason,
		SourceTag:   p.SourceTag,
		ProducerIDs: p.ProducerIDs,
	}
	s.ledger = append(s.ledger, trade)

	s.cash += entryNotional + netPnL
	s.position = nil

	s.logger.WithFields(map[string]interface{}{
		"reason": reason,
		"pnl":    trade.RealizedPnL,
		"return": trade.ReturnPct,
	}).Debug("Position closed")
}

// positionPct computes confidence x inverse-volatility sizing, clamped
func (s *Simulator) positionPct(confidence float64, recentReturns []float64) float64 {
	scale := 1.0
	if vol := stats.StdDev(recentReturns); vol > 0 {
		scale = s.sizing.TargetVolatility / vol
	}

	pct := confidence * scale
	if pct < s.sizing.MinPositionPct {
		pct = s.sizing.MinPositionPct
	}
	if pct > s.sizing.MaxPositionPct {
		pct = s.sizing.MaxPositionPct
	}
	return pct
}

// exitLevels fixes the stop/take prices at entry time
func (s *Simulator) exitLevels(entry float64, dir contracts.Direction) (stop, take float64) {
	if dir == contracts.DirectionLong {
		return entry * (1 - s.exit.StopLossPct), entry * (1 + s.exit.TakeProfitPct)
	}
	return entry * (1 + s.exit.StopLossPct), entry * (1 - s.exit.TakeProfitPct)
}

func (s *Simulator) skip(ts time.Time, dir contracts.Direction, reason string) {
	s.skipped = append(s.skipped, contracts.SkippedTrade{Timestamp: ts, Direction: dir, Reason: reason})
	s.logger.WithFields(map[string]interface{}{
		"direction": dir,
		"reason":    reason,
	}).Warn("Trade skipped")
}

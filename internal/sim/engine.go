package sim

import (
	"context"
	"math"
	"time"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/merge"
	"github.com/wonny/edgelab/internal/producers"
	"github.com/wonny/edgelab/internal/stats"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/logger"
)

// 일봉 기준 연환산 계수
const periodsPerYear = 252.0

// EquityPoint is one mark-to-market observation of the portfolio
type EquityPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Metrics summarizes a completed run
type Metrics struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	CAGR           float64 `json:"cagr"`
	Sharpe         float64 `json:"sharpe"`
	Sortino        float64 `json:"sortino"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	Volatility     float64 `json:"volatility"` // 연환산
	VaR95          float64 `json:"var_95"`     // 하위 5% 기간 수익률 (historical)
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"`
	TradeCount     int     `json:"trade_count"`
}

// Result is the full output of one simulation run
type Result struct {
	Symbol         string                     `json:"symbol"`
	InitialCash    float64                    `json:"initial_cash"`
	FinalEquity    float64                    `json:"final_equity"`
	Trades         []contracts.Trade          `json:"trades"`
	Skipped        []contracts.SkippedTrade   `json:"skipped_trades"`
	Decisions      []contracts.MergedDecision `json:"decisions"`
	EquityCurve    []EquityPoint              `json:"equity_curve"`
	SkippedPeriods int                        `json:"skipped_periods"`
	Metrics        Metrics                    `json:"metrics"`

	// 치명적 오류로 중단된 경우 여기까지의 부분 장부가 담긴다
	Aborted     bool   `json:"aborted"`
	AbortReason string `json:"abort_reason,omitempty"`
}

// Engine drives one chronological pass over a price series.
// 기간 루프는 단일 고루틴에서 돈다; 병렬성은 기간 내 프로듀서 평가에만 있다.
type Engine struct {
	cfg       *strategyconfig.Config
	producers []producers.Producer
	merger    *merge.Merger
	logger    *logger.Logger
}

// NewEngine wires producers and a merger into a runnable engine
func NewEngine(cfg *strategyconfig.Config, prods []producers.Producer, merger *merge.Merger, log *logger.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		producers: prods,
		merger:    merger,
		logger:    log,
	}
}

// Run walks the series chronologically and returns the completed result.
// 치명적 오류나 취소 시에도 부분 결과는 항상 반환된다.
func (e *Engine) Run(ctx context.Context, series *contracts.Series, indicators []contracts.IndicatorSeries) (*Result, error) {
	sim := NewSimulator(series.Symbol, e.cfg, e.logger)

	result := &Result{
		Symbol:      series.Symbol,
		InitialCash: e.cfg.Sizing.InitialCash,
	}

	// 지표별 커서: 기간이 진행될수록 앞으로만 이동
	cursors := make([]int, len(indicators))

	// 가중치 적응용 히스토리 (프로듀서별 부호 있는 강도, 기간 수익률)
	signalHist := make(map[string][]float64, len(e.producers))
	prodKind := make(map[string]contracts.SourceKind, len(e.producers))
	for _, p := range e.producers {
		signalHist[p.ID()] = make([]float64, 0, series.Len())
		prodKind[p.ID()] = p.Kind()
	}
	returnHist := make([]float64, 0, series.Len())

	closes := series.Closes()

	for i, candle := range series.Candles {
		if err := ctx.Err(); err != nil {
			e.finish(sim, result, candle.Date, candle.Close)
			result.Aborted = true
			result.AbortReason = "run canceled"
			return result, err
		}

		ts := candle.Date
		price := candle.Close

		if i > 0 && closes[i-1] > 0 {
			returnHist = append(returnHist, (price-closes[i-1])/closes[i-1])
		} else {
			returnHist = append(returnHist, 0)
		}

		opinions, err := e.evaluatePeriod(ctx, series, indicators, cursors, i)
		if err != nil {
			if contracts.IsDataError(err) {
				// 데이터 문제는 해당 기간만 스킵 (청산 규칙은 그대로 평가)
				e.logger.WithField("date", ts.Format("2006-01-02")).WithError(err).Warn("Period skipped")
				result.SkippedPeriods++
				e.recordSignals(signalHist, nil)
				if stepErr := sim.Step(ts, price, nil, nil); stepErr != nil {
					return e.abort(sim, result, ts, price, stepErr)
				}
				result.EquityCurve = append(result.EquityCurve, EquityPoint{Time: ts, Value: sim.Equity(price)})
				continue
			}
			return e.abort(sim, result, ts, price, err)
		}

		e.recordSignals(signalHist, opinions)

		decision := e.merger.Merge(ts, opinions)

		if err := sim.Step(ts, price, e.recentReturns(returnHist), &decision); err != nil {
			return e.abort(sim, result, ts, price, err)
		}

		result.EquityCurve = append(result.EquityCurve, EquityPoint{Time: ts, Value: sim.Equity(price)})

		e.maybeAdapt(i, signalHist, prodKind, returnHist)
	}

	last := series.Candles[series.Len()-1]
	e.finish(sim, result, last.Date, last.Close)
	return result, nil
}

// evaluatePeriod builds the no-look-ahead window for index i and runs all producers
func (e *Engine) evaluatePeriod(ctx context.Context, series *contracts.Series, indicators []contracts.IndicatorSeries, cursors []int, i int) ([]contracts.Opinion, error) {
	ts := series.Candles[i].Date

	indicatorPoints := make(map[string][]contracts.ScalarPoint, len(indicators))
	for j := range indicators {
		points := indicators[j].Points
		for cursors[j] < len(points) && !points[cursors[j]].Date.After(ts) {
			cursors[j]++
		}
		indicatorPoints[indicators[j].ID] = points[:cursors[j]]
	}

	window, err := contracts.NewDataWindow(series.Symbol, ts, series.Candles[:i+1], indicatorPoints)
	if err != nil {
		return nil, err
	}

	return producers.EvaluateAll(ctx, e.producers, window, e.logger)
}

// recordSignals appends each producer's signed strength (absent = 0)
func (e *Engine) recordSignals(hist map[string][]float64, opinions []contracts.Opinion) {
	byID := make(map[string]contracts.Opinion, len(opinions))
	for _, op := range opinions {
		byID[op.ProducerID] = op
	}
	for _, p := range e.producers {
		signal := 0.0
		if op, ok := byID[p.ID()]; ok {
			signal = op.Strength * op.Direction.Sign()
		}
		hist[p.ID()] = append(hist[p.ID()], signal)
	}
}

// maybeAdapt recomputes merge weights on the configured cadence.
// 시그널[t-1]과 수익률[t]를 정렬해 룩백 구간의 상관을 계산한다.
func (e *Engine) maybeAdapt(i int, signalHist map[string][]float64, prodKind map[string]contracts.SourceKind, returnHist []float64) {
	every := e.cfg.Merge.AdaptEveryPeriods
	lookback := e.cfg.Merge.AdaptLookbackPeriods
	if every <= 0 || lookback <= 0 {
		return
	}
	if i < lookback || (i+1)%every != 0 {
		return
	}

	correlations := make([]merge.ProducerCorrelation, 0, len(e.producers))
	for _, p := range e.producers {
		signals := signalHist[p.ID()]

		start := len(returnHist) - lookback
		var x, y []float64
		for t := start; t < len(returnHist); t++ {
			x = append(x, signals[t-1])
			y = append(y, returnHist[t])
		}
		correlations = append(correlations, merge.ProducerCorrelation{
			ProducerID:  p.ID(),
			Kind:        prodKind[p.ID()],
			Correlation: stats.Correlation(x, y),
		})
	}
	e.merger.AdaptWeights(correlations)
}

// recentReturns slices the sizing lookback off the return history
func (e *Engine) recentReturns(returnHist []float64) []float64 {
	lookback := e.cfg.Sizing.VolLookback
	if lookback <= 0 || len(returnHist) <= lookback {
		return returnHist
	}
	return returnHist[len(returnHist)-lookback:]
}

// abort closes out a fatal error: partial ledger preserved, error surfaced
func (e *Engine) abort(sim *Simulator, result *Result, ts time.Time, price float64, err error) (*Result, error) {
	e.finish(sim, result, ts, price)
	result.Aborted = true
	result.AbortReason = err.Error()
	e.logger.WithError(err).Error("Simulation aborted")
	return result, err
}

// finish force-closes, copies ledgers and computes metrics
func (e *Engine) finish(sim *Simulator, result *Result, ts time.Time, price float64) {
	sim.ForceClose(ts, price)
	result.FinalEquity = sim.Cash()
	result.Trades = sim.Ledger()
	result.Skipped = sim.Skipped()
	result.Decisions = e.merger.DecisionLog().All()
	result.Metrics = computeMetrics(result)
}

// computeMetrics derives the summary statistics from the equity curve and ledger
func computeMetrics(result *Result) Metrics {
	m := Metrics{TradeCount: len(result.Trades)}

	if result.InitialCash > 0 {
		m.TotalReturnPct = (result.FinalEquity - result.InitialCash) / result.InitialCash
	}

	equity := make([]float64, len(result.EquityCurve))
	returns := make([]float64, 0, len(result.EquityCurve))
	for i, pt := range result.EquityCurve {
		equity[i] = pt.Value
		if i > 0 && equity[i-1] > 0 {
			returns = append(returns, (pt.Value-equity[i-1])/equity[i-1])
		}
	}

	m.Sharpe = stats.Sharpe(returns, periodsPerYear)
	m.Sortino = stats.Sortino(returns, periodsPerYear)
	m.MaxDrawdownPct = stats.MaxDrawdown(equity)
	m.Volatility = stats.StdDev(returns) * math.Sqrt(periodsPerYear)
	m.VaR95 = stats.Percentile(returns, 5)

	if years := float64(len(result.EquityCurve)) / periodsPerYear; years > 0 && result.InitialCash > 0 && result.FinalEquity > 0 {
		m.CAGR = math.Pow(result.FinalEquity/result.InitialCash, 1/years) - 1
	}

	var wins int
	var grossProfit, grossLoss float64
	for i := range result.Trades {
		t := &result.Trades[i]
		if t.Win() {
			wins++
			grossProfit += t.RealizedPnL
		} else {
			grossLoss += -t.RealizedPnL
		}
	}
	if len(result.Trades) > 0 {
		m.WinRate = float64(wins) / float64(len(result.Trades))
	}
	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	}

	return m
}

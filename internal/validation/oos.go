package validation

import (
	"math"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/stats"
	"github.com/wonny/edgelab/internal/strategyconfig"
)

// segmentStats are the per-segment aggregates the degradation tests compare
type segmentStats struct {
	trades  int
	sharpe  float64
	winRate float64
	maxLoss float64 // 가장 큰 단일 손실 (양수 크기)
}

func summarizeSegment(trades []contracts.Trade) segmentStats {
	s := segmentStats{trades: len(trades)}
	if len(trades) == 0 {
		return s
	}

	returns := make([]float64, len(trades))
	var wins int
	for i, t := range trades {
		returns[i] = t.ReturnPct
		if t.Win() {
			wins++
		}
		if loss := -t.RealizedPnL; loss > s.maxLoss {
			s.maxLoss = loss
		}
	}
	s.sharpe = stats.Sharpe(returns, 252)
	s.winRate = float64(wins) / float64(len(trades))
	return s
}

// degradation returns the fractional drop from train to test (0 = no drop)
func degradation(train, test float64) float64 {
	if train <= 0 {
		return 0
	}
	d := (train - test) / math.Abs(train)
	if d < 0 {
		return 0
	}
	return d
}

// outOfSampleTest compares train/test performance after the configured split
func outOfSampleTest(trades []contracts.Trade, cfg strategyconfig.Validation) *contracts.OutOfSampleFinding {
	train, test := splitTrades(trades, cfg.Split)
	ts, vs := summarizeSegment(train), summarizeSegment(test)

	finding := &contracts.OutOfSampleFinding{
		SplitMethod:      cfg.Split.Method,
		TrainTrades:      ts.trades,
		TestTrades:       vs.trades,
		TrainSharpe:      ts.sharpe,
		TestSharpe:       vs.sharpe,
		TrainWinRate:     ts.winRate,
		TestWinRate:      vs.winRate,
		SharpeDegradPct:  degradation(ts.sharpe, vs.sharpe),
		WinRateDegradPct: degradation(ts.winRate, vs.winRate),
	}

	switch {
	case vs.trades < 5:
		// test 구간이 너무 얇으면 비교 자체가 무의미
		finding.Result = contracts.ValidationNeedsReview
	case finding.SharpeDegradPct >= cfg.Overfit.High:
		finding.Result = contracts.ValidationInvalid
	case finding.SharpeDegradPct >= cfg.Overfit.Moderate || vs.sharpe < 0:
		finding.Result = contracts.ValidationNeedsReview
	default:
		finding.Result = contracts.ValidationValid
	}
	return finding
}

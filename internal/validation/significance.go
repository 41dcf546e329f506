package validation

import (
	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/stats"
	"github.com/wonny/edgelab/internal/strategyconfig"
)

// significanceTest runs a one-sample t-test of trade PnL against a zero mean.
// 효과크기(Cohen's d)와 power 기준 필요 표본 수를 함께 보고한다.
func significanceTest(trades []contracts.Trade, cfg strategyconfig.Validation) *contracts.SignificanceFinding {
	pnl := make([]float64, len(trades))
	for i, t := range trades {
		pnl[i] = t.RealizedPnL
	}

	tStat, pValue := stats.TTestOneSample(pnl)
	mean := stats.Mean(pnl)

	effectSize := 0.0
	if sd := stats.StdDev(pnl); sd > 0 {
		effectSize = mean / sd
	}

	finding := &contracts.SignificanceFinding{
		SampleSize:   len(trades),
		MeanPnL:      mean,
		TStatistic:   tStat,
		PValue:       pValue,
		EffectSize:   effectSize,
		RequiredN:    stats.RequiredSampleSize(effectSize, cfg.Alpha, cfg.Power),
		Significant:  pValue < cfg.Alpha && mean > 0,
		AlphaApplied: cfg.Alpha,
	}

	switch {
	case finding.Significant:
		finding.Result = contracts.ValidationValid
	case pValue < cfg.Alpha && mean < 0:
		// 유의미하게 손실을 내는 전략
		finding.Result = contracts.ValidationInvalid
	default:
		finding.Result = contracts.ValidationNeedsReview
	}
	return finding
}

package validation

import (
	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/sim"
	"github.com/wonny/edgelab/internal/stats"
	"github.com/wonny/edgelab/internal/strategyconfig"
)

// 전체 패스 대비 양(+) 수익 패스 비율 기준
const (
	wfValidRatio  = 0.60
	wfReviewRatio = 0.45
)

// walkForwardTest slides a fixed training window forward in fixed steps.
// 각 패스는 train 구간 장부에서 가중치를 재도출하고, 직후 test 구간의
// 실현 성과(적합이 아닌)를 기록한다. 패스별 가중치는 독립 사본이다.
// 시그널 로직을 재실행하지 않고 이미 실행된 run의 장부/자산곡선 위에서 동작한다.
func walkForwardTest(result *sim.Result, cfg strategyconfig.WalkForward) *contracts.WalkForwardFinding {
	curve := result.EquityCurve
	total := len(curve)

	finding := &contracts.WalkForwardFinding{}
	if cfg.TrainPeriods <= 0 || cfg.StepPeriods <= 0 || total <= cfg.TrainPeriods {
		finding.Result = contracts.ValidationInsufficientData
		return finding
	}

	for k := 0; ; k++ {
		trainStart := k * cfg.StepPeriods
		trainEnd := trainStart + cfg.TrainPeriods
		if trainEnd >= total {
			break
		}
		testStart := trainEnd
		testEnd := testStart + cfg.StepPeriods
		if testEnd > total {
			testEnd = total
		}

		pass := contracts.WalkForwardPass{
			Pass:       k + 1,
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  testStart,
			TestEnd:    testEnd,
			Weights:    deriveWeights(tradesWithin(result.Trades, curve, trainStart, trainEnd)),
		}

		testTrades := tradesWithin(result.Trades, curve, testStart, testEnd)
		pass.TestTrades = len(testTrades)

		pass.RealizedPnL = curve[testEnd-1].Value - curve[testStart].Value
		if curve[testStart].Value > 0 {
			pass.RealizedRet = pass.RealizedPnL / curve[testStart].Value
		}
		pass.RealizedSharp = stats.Sharpe(windowReturns(curve, testStart, testEnd), 252)

		finding.Passes = append(finding.Passes, pass)
	}

	finding.PassCount = len(finding.Passes)
	if finding.PassCount == 0 {
		finding.Result = contracts.ValidationInsufficientData
		return finding
	}

	var positive int
	rets := make([]float64, finding.PassCount)
	for i, p := range finding.Passes {
		rets[i] = p.RealizedRet
		if p.RealizedRet > 0 {
			positive++
		}
	}
	finding.PositiveRatio = float64(positive) / float64(finding.PassCount)
	finding.MeanRet = stats.Mean(rets)

	switch {
	case finding.PositiveRatio >= wfValidRatio && finding.MeanRet > 0:
		finding.Result = contracts.ValidationValid
	case finding.PositiveRatio >= wfReviewRatio:
		finding.Result = contracts.ValidationNeedsReview
	default:
		finding.Result = contracts.ValidationInvalid
	}
	return finding
}

// tradesWithin selects trades that exited inside the index window [start, end)
func tradesWithin(trades []contracts.Trade, curve []sim.EquityPoint, start, end int) []contracts.Trade {
	if start >= end || end > len(curve) {
		return nil
	}
	from, to := curve[start].Time, curve[end-1].Time

	out := make([]contracts.Trade, 0)
	for _, t := range trades {
		if !t.ExitTime.Before(from) && !t.ExitTime.After(to) {
			out = append(out, t)
		}
	}
	return out
}

// deriveWeights re-derives price/alt merge weights from a train segment.
// 평균 거래 수익률이 좋은 소스 쪽으로 기울이되 어느 쪽도 끄지는 않는다.
func deriveWeights(trainTrades []contracts.Trade) map[string]float64 {
	var priceRets, altRets []float64
	for _, t := range trainTrades {
		switch t.SourceTag {
		case contracts.SourcePriceOnly:
			priceRets = append(priceRets, t.ReturnPct)
		case contracts.SourceAltOnly:
			altRets = append(altRets, t.ReturnPct)
		case contracts.SourceCombined:
			priceRets = append(priceRets, t.ReturnPct)
			altRets = append(altRets, t.ReturnPct)
		}
	}

	const scale = 5.0
	price := weightFloor(0.5 + stats.Mean(priceRets)*scale)
	alt := weightFloor(0.5 + stats.Mean(altRets)*scale)

	total := price + alt
	return map[string]float64{
		string(contracts.SourceKindPrice): price / total,
		string(contracts.SourceKindAlt):   alt / total,
	}
}

func weightFloor(w float64) float64 {
	if w < 0.05 {
		return 0.05
	}
	return w
}

// windowReturns computes per-period returns over curve[start:end]
func windowReturns(curve []sim.EquityPoint, start, end int) []float64 {
	out := make([]float64, 0, end-start)
	for i := start + 1; i < end; i++ {
		prev := curve[i-1].Value
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (curve[i].Value-prev)/prev)
	}
	return out
}

package validation

import (
	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/stats"
	"github.com/wonny/edgelab/internal/strategyconfig"
)

// 리스크 점수 가중치: Sharpe 저하가 가장 무겁다
const (
	overfitSharpeWeight  = 0.5
	overfitWinRateWeight = 0.3
	overfitMaxLossWeight = 0.2
)

// overfitTest quantifies train-to-test degradation into a risk score and level
func overfitTest(trades []contracts.Trade, cfg strategyconfig.Validation) *contracts.OverfitFinding {
	train, test := splitTrades(trades, cfg.Split)
	ts, vs := summarizeSegment(train), summarizeSegment(test)

	sharpeDegrad := degradation(ts.sharpe, vs.sharpe)
	winRateDegrad := degradation(ts.winRate, vs.winRate)

	// 최대 손실은 반대 방향: test에서 커지면 악화
	maxLossIncrease := 0.0
	if ts.maxLoss > 0 && vs.maxLoss > ts.maxLoss {
		maxLossIncrease = (vs.maxLoss - ts.maxLoss) / ts.maxLoss
	}

	riskScore := stats.Clamp01(
		overfitSharpeWeight*stats.Clamp01(sharpeDegrad) +
			overfitWinRateWeight*stats.Clamp01(winRateDegrad) +
			overfitMaxLossWeight*stats.Clamp01(maxLossIncrease))

	level := classifyOverfit(riskScore, cfg.Overfit)

	finding := &contracts.OverfitFinding{
		Level:           level,
		RiskScore:       riskScore,
		SharpeDegrad:    sharpeDegrad,
		WinRateDegrad:   winRateDegrad,
		MaxLossincrease: maxLossIncrease,
	}

	switch level {
	case contracts.OverfitNone, contracts.OverfitLow:
		finding.Result = contracts.ValidationValid
	case contracts.OverfitModerate:
		finding.Result = contracts.ValidationNeedsReview
	default:
		finding.Result = contracts.ValidationInvalid
	}
	return finding
}

// classifyOverfit maps a risk score onto the 5 configured severity bands
func classifyOverfit(score float64, th strategyconfig.OverfitThresholds) contracts.OverfitLevel {
	switch {
	case score < th.Low:
		return contracts.OverfitNone
	case score < th.Moderate:
		return contracts.OverfitLow
	case score < th.High:
		return contracts.OverfitModerate
	case score < th.Severe:
		return contracts.OverfitHigh
	default:
		return contracts.OverfitSevere
	}
}

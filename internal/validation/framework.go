package validation

import (
	"fmt"
	"time"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/sim"
	"github.com/wonny/edgelab/internal/stats"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/logger"
)

// Framework runs every validation test against a completed simulation run.
// ⭐ SSOT: 전략 합격/불합격 판정은 여기서만
type Framework struct {
	cfg    strategyconfig.Validation
	logger *logger.Logger
}

// NewFramework creates a validation framework from the validated config
func NewFramework(cfg strategyconfig.Validation, log *logger.Logger) *Framework {
	return &Framework{cfg: cfg, logger: log}
}

// Validate produces an immutable report for one run.
// 동일 입력이면 동일 리포트가 재생성된다 (GeneratedAt 제외).
//
// 거래 수가 최소 기준 미만이면 무조건 insufficient_data: 판단 자체를 유보하며,
// 이는 실패가 아니라 정당한 결과값이다.
func (f *Framework) Validate(runID string, result *sim.Result) *contracts.ValidationReport {
	report := &contracts.ValidationReport{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		TradeCount:  len(result.Trades),
	}

	if len(result.Trades) < f.cfg.MinTrades {
		report.Result = contracts.ValidationInsufficientData
		report.Recommendations = []string{
			fmt.Sprintf("only %d trades recorded, need at least %d for validation", len(result.Trades), f.cfg.MinTrades),
			"extend the simulation date range or relax the entry confidence threshold",
		}
		f.logger.WithField("trades", len(result.Trades)).Info("Validation deferred, insufficient data")
		return report
	}

	report.OutOfSample = outOfSampleTest(result.Trades, f.cfg)
	report.Overfitting = overfitTest(result.Trades, f.cfg)
	report.Significance = significanceTest(result.Trades, f.cfg)
	report.Stability = stabilityTest(result.EquityCurve)
	report.WalkForward = walkForwardTest(result, f.cfg.WalkForward)

	report.Result = f.overallResult(report)
	report.ConfidenceScore = confidenceScore(report)
	report.Recommendations = recommend(report)

	f.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"result": report.Result,
		"score":  report.ConfidenceScore,
	}).Info("Validation completed")
	return report
}

// overallResult combines the sub-findings.
// 기본은 네 테스트 중 최악, 단 워크포워드가 판정 가능하면 워크포워드가
// 최종 결과를 지배한다 (실배포 성과의 가장 충실한 추정치이므로).
func (f *Framework) overallResult(r *contracts.ValidationReport) contracts.ValidationResult {
	worst := r.OutOfSample.Result
	worst = contracts.WorseOf(worst, r.Overfitting.Result)
	worst = contracts.WorseOf(worst, r.Significance.Result)
	worst = contracts.WorseOf(worst, r.Stability.Result)

	if r.WalkForward.Result != contracts.ValidationInsufficientData {
		if r.WalkForward.Result != worst {
			f.logger.WithFields(map[string]interface{}{
				"walk_forward": r.WalkForward.Result,
				"others":       worst,
			}).Info("Walk-forward overrides combined result")
		}
		return r.WalkForward.Result
	}
	return worst
}

// confidenceScore blends the sub-findings into one 0~1 score
func confidenceScore(r *contracts.ValidationReport) float64 {
	wf := r.WalkForward.PositiveRatio
	overfit := 1 - r.Overfitting.RiskScore
	sig := stats.Clamp01(1 - r.Significance.PValue)
	oos := 1 - stats.Clamp01(r.OutOfSample.SharpeDegradPct)

	score := 0.35*wf + 0.25*overfit + 0.2*sig + 0.2*oos
	if r.Stability.DegradingTrend {
		score -= 0.1
	}
	return stats.Clamp01(score)
}

// recommend turns the findings into actionable notes
func recommend(r *contracts.ValidationReport) []string {
	var recs []string

	if r.OutOfSample.Result != contracts.ValidationValid {
		recs = append(recs, fmt.Sprintf("out-of-sample Sharpe degraded %.0f%%, re-examine parameter choices",
			r.OutOfSample.SharpeDegradPct*100))
	}
	if r.Overfitting.Level != contracts.OverfitNone && r.Overfitting.Level != contracts.OverfitLow {
		recs = append(recs, fmt.Sprintf("overfitting level %s (risk %.2f), simplify the strategy or widen the training window",
			r.Overfitting.Level, r.Overfitting.RiskScore))
	}
	if !r.Significance.Significant {
		recs = append(recs, fmt.Sprintf("PnL not statistically significant (p=%.3f), need ~%d trades at the observed effect size",
			r.Significance.PValue, r.Significance.RequiredN))
	}
	if r.Stability.DegradingTrend {
		recs = append(recs, "recent periods underperform the full-period average, check for regime drift")
	}
	if r.WalkForward.Result == contracts.ValidationInvalid {
		recs = append(recs, fmt.Sprintf("walk-forward positive ratio %.0f%%, strategy does not survive redeployment",
			r.WalkForward.PositiveRatio*100))
	}
	return recs
}

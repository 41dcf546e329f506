package strategyconfig

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError 검증 실패 (시뮬레이션 시작 전 중단)
// 스펙의 ConfigError에 해당: 생성 시점에 실패하며 run은 시작되지 않는다.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (시뮬레이션 시작 전 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Producers ===
	t := cfg.Producers.Trend
	if t.FastWindow <= 0 || t.SlowWindow <= 0 {
		return ValidationError{"producers.trend", "windows must be > 0"}
	}
	if t.FastWindow >= t.SlowWindow {
		return ValidationError{"producers.trend", "fast_window must be < slow_window"}
	}
	if t.MinObservations < t.SlowWindow {
		return ValidationError{"producers.trend.min_observations", fmt.Sprintf("must be >= slow_window=%d", t.SlowWindow)}
	}
	if t.StrengthScale <= 0 {
		return ValidationError{"producers.trend.strength_scale", "must be > 0"}
	}

	cr := cfg.Producers.CorrRegime
	if cr.IndicatorID == "" {
		return ValidationError{"producers.corr_regime.indicator_id", "required"}
	}
	if cr.Window < 2 {
		return ValidationError{"producers.corr_regime.window", "must be >= 2"}
	}
	if cr.TrailingWindow < cr.Window {
		return ValidationError{"producers.corr_regime.trailing_window", "must be >= window"}
	}
	if cr.MinObservations < 20 {
		return ValidationError{"producers.corr_regime.min_observations", "must be >= 20"}
	}
	if cr.SignificanceLevel <= 0 || cr.SignificanceLevel >= 1 {
		return ValidationError{"producers.corr_regime.significance_level", "must be in (0, 1)"}
	}
	if cr.BreakdownSigma <= 0 || cr.SurgeSigma <= 0 || cr.LowSigma <= 0 {
		return ValidationError{"producers.corr_regime", "sigma thresholds must be > 0"}
	}
	if cr.LowSigma > cr.BreakdownSigma {
		return ValidationError{"producers.corr_regime", "low_sigma must be <= breakdown_sigma"}
	}

	mh := cfg.Producers.MacroHedge
	for i, ind := range mh.Indicators {
		if ind.ID == "" {
			return ValidationError{
				Field:   fmt.Sprintf("producers.macro_hedge.indicators[%d].id", i),
				Message: "required",
			}
		}
		// 임계값은 경보가 심해지는 방향으로 단조여야 한다
		if !ind.Invert && (ind.Yellow > ind.Orange || ind.Orange > ind.Red) {
			return ValidationError{
				Field:   fmt.Sprintf("producers.macro_hedge.indicators[%d]", i),
				Message: "thresholds must satisfy yellow <= orange <= red",
			}
		}
		if ind.Invert && (ind.Yellow < ind.Orange || ind.Orange < ind.Red) {
			return ValidationError{
				Field:   fmt.Sprintf("producers.macro_hedge.indicators[%d]", i),
				Message: "inverted thresholds must satisfy yellow >= orange >= red",
			}
		}
	}

	// === Merge ===
	switch cfg.Merge.Policy {
	case "weighted", "voting", "max_confidence":
	default:
		return ValidationError{"merge.policy", fmt.Sprintf("unknown policy %q", cfg.Merge.Policy)}
	}
	if err := validateWeightsSum([]float64{cfg.Merge.PriceWeight, cfg.Merge.AltWeight}, 1.0, 1e-6); err != nil {
		return ValidationError{"merge.price_weight+alt_weight", err.Error()}
	}
	if cfg.Merge.PriceWeight < 0 || cfg.Merge.AltWeight < 0 {
		return ValidationError{"merge", "weights must be >= 0"}
	}
	if cfg.Merge.MinConfidence < 0 || cfg.Merge.MinConfidence > 1 {
		return ValidationError{"merge.min_confidence", "must be in range [0, 1]"}
	}
	if cfg.Merge.AdaptLookbackPeriods <= 0 {
		return ValidationError{"merge.adapt_lookback_periods", "must be > 0"}
	}
	if cfg.Merge.AdaptEveryPeriods <= 0 {
		return ValidationError{"merge.adapt_every_periods", "must be > 0"}
	}

	// === Sizing ===
	s := cfg.Sizing
	if s.InitialCash <= 0 {
		return ValidationError{"sizing.initial_cash", "must be > 0"}
	}
	if err := validatePctRange(s.MinPositionPct, "sizing.min_position_pct"); err != nil {
		return err
	}
	if err := validatePctRange(s.MaxPositionPct, "sizing.max_position_pct"); err != nil {
		return err
	}
	if s.MinPositionPct > s.MaxPositionPct {
		return ValidationError{"sizing", "min_position_pct must be <= max_position_pct"}
	}
	if s.VolLookback < 2 {
		return ValidationError{"sizing.vol_lookback", "must be >= 2"}
	}
	if s.TargetVolatility <= 0 {
		return ValidationError{"sizing.target_volatility", "must be > 0"}
	}

	// === Costs ===
	if cfg.Costs.CommissionPct < 0 {
		return ValidationError{"costs.commission_pct", "must be >= 0"}
	}
	if cfg.Costs.SlippagePct < 0 {
		return ValidationError{"costs.slippage_pct", "must be >= 0"}
	}

	// === Exit ===
	if cfg.Exit.StopLossPct <= 0 {
		return ValidationError{"exit.stop_loss_pct", "must be > 0"}
	}
	if cfg.Exit.TakeProfitPct <= 0 {
		return ValidationError{"exit.take_profit_pct", "must be > 0"}
	}

	// === Validation ===
	v := cfg.Validation
	if v.MinTrades < 1 {
		return ValidationError{"validation.min_trades", "must be >= 1"}
	}
	switch v.Split.Method {
	case "sequential", "random", "expanding":
	default:
		return ValidationError{"validation.split.method", fmt.Sprintf("unknown method %q", v.Split.Method)}
	}
	if v.Split.TrainRatio <= 0 || v.Split.TrainRatio >= 1 {
		return ValidationError{"validation.split.train_ratio", "must be in (0, 1)"}
	}
	ot := v.Overfit
	if !(ot.Low > 0 && ot.Low < ot.Moderate && ot.Moderate < ot.High && ot.High < ot.Severe) {
		return ValidationError{"validation.overfit", "thresholds must be strictly increasing and > 0"}
	}
	if v.Alpha <= 0 || v.Alpha >= 1 {
		return ValidationError{"validation.alpha", "must be in (0, 1)"}
	}
	if v.Power <= 0 || v.Power >= 1 {
		return ValidationError{"validation.power", "must be in (0, 1)"}
	}
	if v.WalkForward.TrainPeriods <= 0 {
		return ValidationError{"validation.walk_forward.train_periods", "must be > 0"}
	}
	if v.WalkForward.StepPeriods <= 0 {
		return ValidationError{"validation.walk_forward.step_periods", "must be > 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 샘플이 작은 상관 윈도우는 레짐 판정이 불안정
	if cfg.Producers.CorrRegime.Window < 20 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_CORR_WINDOW",
			Message: "corr_regime.window < 20: 상관 추정 불안정 가능",
		})
	}

	// 낙관적 슬리피지 가정 경고
	if cfg.Costs.SlippagePct < 0.0005 {
		warnings = append(warnings, Warning{
			Code:    "OPTIMISTIC_SLIPPAGE",
			Message: "slippage_pct < 0.05%: 낙관적일 수 있음",
		})
	}

	// 워크포워드 train 대비 step이 너무 크면 패스 수 부족
	if cfg.Validation.WalkForward.StepPeriods > cfg.Validation.WalkForward.TrainPeriods {
		warnings = append(warnings, Warning{
			Code:    "COARSE_WALK_FORWARD",
			Message: "step_periods > train_periods: 워크포워드 패스가 부족할 수 있음",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

// validatePctRange는 퍼센트 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}

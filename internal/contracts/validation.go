package contracts

import "time"

// ValidationResult classifies a validation outcome
type ValidationResult string

const (
	ValidationValid            ValidationResult = "valid"
	ValidationNeedsReview      ValidationResult = "needs_review"
	ValidationInvalid          ValidationResult = "invalid"
	ValidationInsufficientData ValidationResult = "insufficient_data"
)

// severityRank orders results from best to worst.
// insufficient_data는 실패가 아니라 "아직 판단 불가"이며 별도로 다뤄진다.
func (r ValidationResult) severityRank() int {
	switch r {
	case ValidationValid:
		return 0
	case ValidationNeedsReview:
		return 1
	case ValidationInvalid:
		return 2
	case ValidationInsufficientData:
		return 3
	default:
		return 3
	}
}

// WorseOf returns the more severe of two results
func WorseOf(a, b ValidationResult) ValidationResult {
	if b.severityRank() > a.severityRank() {
		return b
	}
	return a
}

// OverfitLevel classifies in-sample vs out-of-sample degradation
type OverfitLevel string

const (
	OverfitNone     OverfitLevel = "none"
	OverfitLow      OverfitLevel = "low"
	OverfitModerate OverfitLevel = "moderate"
	OverfitHigh     OverfitLevel = "high"
	OverfitSevere   OverfitLevel = "severe"
)

// OutOfSampleFinding is the train/test degradation sub-finding
type OutOfSampleFinding struct {
	Result           ValidationResult `json:"result"`
	SplitMethod      string           `json:"split_method"`
	TrainTrades      int              `json:"train_trades"`
	TestTrades       int              `json:"test_trades"`
	TrainSharpe      float64          `json:"train_sharpe"`
	TestSharpe       float64          `json:"test_sharpe"`
	TrainWinRate     float64          `json:"train_win_rate"`
	TestWinRate      float64          `json:"test_win_rate"`
	SharpeDegradPct  float64          `json:"sharpe_degradation_pct"`
	WinRateDegradPct float64          `json:"win_rate_degradation_pct"`
}

// OverfitFinding is the overfitting-detection sub-finding
type OverfitFinding struct {
	Result          ValidationResult `json:"result"`
	Level           OverfitLevel     `json:"level"`
	RiskScore       float64          `json:"risk_score"` // 0.0 ~ 1.0
	SharpeDegrad    float64          `json:"sharpe_degradation"`
	WinRateDegrad   float64          `json:"win_rate_degradation"`
	MaxLossincrease float64          `json:"max_loss_increase"`
}

// SignificanceFinding is the statistical-significance sub-finding
type SignificanceFinding struct {
	Result       ValidationResult `json:"result"`
	SampleSize   int              `json:"sample_size"`
	MeanPnL      float64          `json:"mean_pnl"`
	TStatistic   float64          `json:"t_statistic"`
	PValue       float64          `json:"p_value"`
	EffectSize   float64          `json:"effect_size"` // Cohen's d
	RequiredN    int              `json:"required_n"`  // power 0.8 기준 필요 표본
	Significant  bool             `json:"significant"`
	AlphaApplied float64          `json:"alpha_applied"`
}

// StabilityFinding is the stability-over-time sub-finding
type StabilityFinding struct {
	Result          ValidationResult `json:"result"`
	Cadence         string           `json:"cadence"` // "monthly" | "quarterly"
	PeriodCount     int              `json:"period_count"`
	PeriodReturns   []float64        `json:"period_returns"`
	TrendSlope      float64          `json:"trend_slope"`
	DegradingTrend  bool             `json:"degrading_trend"`
	RecentVsOverall float64          `json:"recent_vs_overall"`
}

// WalkForwardPass is one re-optimization pass's realized result
type WalkForwardPass struct {
	Pass          int                `json:"pass"`
	TrainStart    int                `json:"train_start"`
	TrainEnd      int                `json:"train_end"` // exclusive
	TestStart     int                `json:"test_start"`
	TestEnd       int                `json:"test_end"` // exclusive
	Weights       map[string]float64 `json:"weights"`
	TestTrades    int                `json:"test_trades"`
	RealizedPnL   float64            `json:"realized_pnl"`
	RealizedRet   float64            `json:"realized_return"`
	RealizedSharp float64            `json:"realized_sharpe"`
}

// WalkForwardFinding is the walk-forward analysis sub-finding.
// 실배포 성과의 가장 충실한 추정치이며, 다른 테스트와 충돌하면 이 결과가 우선한다.
type WalkForwardFinding struct {
	Result        ValidationResult  `json:"result"`
	Passes        []WalkForwardPass `json:"passes"`
	PassCount     int               `json:"pass_count"`
	PositiveRatio float64           `json:"positive_ratio"`
	MeanRet       float64           `json:"mean_return"`
}

// ValidationReport is the output of one validation run.
// 동일 입력에 대해 멱등적으로 재생성 가능하며, 생성 후 불변이다.
type ValidationReport struct {
	RunID           string           `json:"run_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	TradeCount      int              `json:"trade_count"`
	Result          ValidationResult `json:"result"`
	ConfidenceScore float64          `json:"confidence_score"` // 0.0 ~ 1.0

	OutOfSample  *OutOfSampleFinding  `json:"out_of_sample,omitempty"`
	Overfitting  *OverfitFinding      `json:"overfitting,omitempty"`
	Significance *SignificanceFinding `json:"significance,omitempty"`
	Stability    *StabilityFinding    `json:"stability,omitempty"`
	WalkForward  *WalkForwardFinding  `json:"walk_forward,omitempty"`

	Recommendations []string `json:"recommendations,omitempty"`
}

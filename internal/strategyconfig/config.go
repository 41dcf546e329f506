package strategyconfig

import "time"

// Config는 시그널 병합/시뮬레이션/검증 전략의 전체 설정
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Producers  Producers  `yaml:"producers" json:"producers"`
	Merge      Merge      `yaml:"merge" json:"merge"`
	Sizing     Sizing     `yaml:"sizing" json:"sizing"`
	Costs      Costs      `yaml:"costs" json:"costs"`
	Exit       Exit       `yaml:"exit" json:"exit"`
	Validation Validation `yaml:"validation" json:"validation"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Producers 프로듀서별 파라미터
type Producers struct {
	Trend      Trend      `yaml:"trend" json:"trend"`
	CorrRegime CorrRegime `yaml:"corr_regime" json:"corr_regime"`
	MacroHedge MacroHedge `yaml:"macro_hedge" json:"macro_hedge"`
}

// Trend 가격 추세 프로듀서 (fast/slow 이동 통계)
type Trend struct {
	FastWindow      int     `yaml:"fast_window" json:"fast_window"`
	SlowWindow      int     `yaml:"slow_window" json:"slow_window"`
	MinObservations int     `yaml:"min_observations" json:"min_observations"`
	StrengthScale   float64 `yaml:"strength_scale" json:"strength_scale"` // tanh 스케일
	FlatThreshold   float64 `yaml:"flat_threshold" json:"flat_threshold"` // divergence 중립 구간
}

// CorrRegime 상관 레짐 프로듀서
type CorrRegime struct {
	IndicatorID       string  `yaml:"indicator_id" json:"indicator_id"`
	Window            int     `yaml:"window" json:"window"`                         // 롤링 상관 윈도우
	TrailingWindow    int     `yaml:"trailing_window" json:"trailing_window"`       // 트레일링 평균/표준편차 윈도우
	MinObservations   int     `yaml:"min_observations" json:"min_observations"`     // 최소 20
	SignificanceLevel float64 `yaml:"significance_level" json:"significance_level"` // 기본 0.05
	BreakdownSigma    float64 `yaml:"breakdown_sigma" json:"breakdown_sigma"`       // breakdown 판정 (기본 2.0)
	SurgeSigma        float64 `yaml:"surge_sigma" json:"surge_sigma"`               // high/surge 판정 (기본 2.0)
	LowSigma          float64 `yaml:"low_sigma" json:"low_sigma"`                   // low 판정 (기본 1.0)
}

// MacroHedge 매크로 헤지 프로듀서
type MacroHedge struct {
	Indicators      []MacroIndicator `yaml:"indicators" json:"indicators"`
	MinObservations int              `yaml:"min_observations" json:"min_observations"`
}

// MacroIndicator 매크로 지표와 경보 임계값
// Yellow <= Orange <= Red 순으로 임계값이 심해진다.
// Invert=true이면 값이 임계값 아래로 내려갈 때 경보.
type MacroIndicator struct {
	ID     string  `yaml:"id" json:"id"`
	Yellow float64 `yaml:"yellow" json:"yellow"`
	Orange float64 `yaml:"orange" json:"orange"`
	Red    float64 `yaml:"red" json:"red"`
	Invert bool    `yaml:"invert" json:"invert"`
}

// Merge 시그널 병합 설정
type Merge struct {
	Policy        string  `yaml:"policy" json:"policy"`                 // weighted | voting | max_confidence
	PriceWeight   float64 `yaml:"price_weight" json:"price_weight"`     // 기본 0.6
	AltWeight     float64 `yaml:"alt_weight" json:"alt_weight"`         // 기본 0.4
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"` // 미달 시 flat 강제

	// 수익률 상관 기반 가중치 적응 (재조정 주기/룩백은 설정값)
	AdaptLookbackPeriods int `yaml:"adapt_lookback_periods" json:"adapt_lookback_periods"`
	AdaptEveryPeriods    int `yaml:"adapt_every_periods" json:"adapt_every_periods"`
}

// Sizing 포지션 사이징
type Sizing struct {
	InitialCash      float64 `yaml:"initial_cash" json:"initial_cash"`
	MinPositionPct   float64 `yaml:"min_position_pct" json:"min_position_pct"`
	MaxPositionPct   float64 `yaml:"max_position_pct" json:"max_position_pct"`
	VolLookback      int     `yaml:"vol_lookback" json:"vol_lookback"`
	TargetVolatility float64 `yaml:"target_volatility" json:"target_volatility"` // 기간 변동성 기준
}

// Costs 거래 비용 (진입/청산 양쪽에 적용)
type Costs struct {
	CommissionPct float64 `yaml:"commission_pct" json:"commission_pct"`
	SlippagePct   float64 `yaml:"slippage_pct" json:"slippage_pct"`
}

// Exit 청산 조건
type Exit struct {
	StopLossPct   float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	TakeProfitPct float64 `yaml:"take_profit_pct" json:"take_profit_pct"`
}

// Validation 검증 프레임워크 설정
type Validation struct {
	MinTrades int `yaml:"min_trades" json:"min_trades"` // 기본 30

	Split       Split             `yaml:"split" json:"split"`
	Overfit     OverfitThresholds `yaml:"overfit" json:"overfit"`
	Alpha       float64           `yaml:"alpha" json:"alpha"` // 유의수준, 기본 0.05
	Power       float64           `yaml:"power" json:"power"` // 검정력, 기본 0.8
	WalkForward WalkForward       `yaml:"walk_forward" json:"walk_forward"`
}

// Split train/test 분할 설정
type Split struct {
	Method     string  `yaml:"method" json:"method"` // sequential | random | expanding
	TrainRatio float64 `yaml:"train_ratio" json:"train_ratio"`
	Seed       int64   `yaml:"seed" json:"seed"` // random 분할 재현용
}

// OverfitThresholds 성과 저하율 기준 5단계 분류 임계값
// none < Low <= low < Moderate <= moderate < High <= high < Severe <= severe
type OverfitThresholds struct {
	Low      float64 `yaml:"low" json:"low"`
	Moderate float64 `yaml:"moderate" json:"moderate"`
	High     float64 `yaml:"high" json:"high"`
	Severe   float64 `yaml:"severe" json:"severe"`
}

// WalkForward 워크포워드 분석 설정
type WalkForward struct {
	TrainPeriods int `yaml:"train_periods" json:"train_periods"`
	StepPeriods  int `yaml:"step_periods" json:"step_periods"`
}

// DecisionSnapshot 의사결정 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Default returns a config with the documented default parameters.
// YAML 없이 코드에서 바로 시뮬레이션을 돌릴 때 사용 (테스트 포함).
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "edgelab_v1",
			Version:    "1.0.0",
		},
		Producers: Producers{
			Trend: Trend{
				FastWindow:      10,
				SlowWindow:      30,
				MinObservations: 30,
				StrengthScale:   25,
				FlatThreshold:   0.002,
			},
			CorrRegime: CorrRegime{
				IndicatorID:       "alt_flow",
				Window:            20,
				TrailingWindow:    60,
				MinObservations:   20,
				SignificanceLevel: 0.05,
				BreakdownSigma:    2.0,
				SurgeSigma:        2.0,
				LowSigma:          1.0,
			},
			MacroHedge: MacroHedge{
				Indicators: []MacroIndicator{
					{ID: "vix", Yellow: 20, Orange: 28, Red: 36},
					{ID: "yield_spread", Yellow: 0.5, Orange: 0.2, Red: 0.0, Invert: true},
				},
				MinObservations: 5,
			},
		},
		Merge: Merge{
			Policy:               "weighted",
			PriceWeight:          0.6,
			AltWeight:            0.4,
			MinConfidence:        0.3,
			AdaptLookbackPeriods: 60,
			AdaptEveryPeriods:    20,
		},
		Sizing: Sizing{
			InitialCash:      1_000_000,
			MinPositionPct:   0.05,
			MaxPositionPct:   0.25,
			VolLookback:      20,
			TargetVolatility: 0.015,
		},
		Costs: Costs{
			CommissionPct: 0.0015,
			SlippagePct:   0.001,
		},
		Exit: Exit{
			StopLossPct:   0.05,
			TakeProfitPct: 0.12,
		},
		Validation: Validation{
			MinTrades: 30,
			Split: Split{
				Method:     "sequential",
				TrainRatio: 0.7,
				Seed:       42,
			},
			Overfit: OverfitThresholds{
				Low:      0.10,
				Moderate: 0.25,
				High:     0.45,
				Severe:   0.70,
			},
			Alpha: 0.05,
			Power: 0.8,
			WalkForward: WalkForward{
				TrainPeriods: 100,
				StepPeriods:  20,
			},
		},
	}
}

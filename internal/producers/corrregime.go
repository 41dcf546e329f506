package producers

import (
	"context"
	"time"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/stats"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/logger"
)

// Regime classifies the current cross-source correlation state
type Regime string

const (
	RegimeHigh      Regime = "high"
	RegimeNormal    Regime = "normal"
	RegimeLow       Regime = "low"
	RegimeBreakdown Regime = "breakdown"
)

// CorrRegimeProducer emits mean-reversion opinions from cross-source
// correlation regime shifts.
// ⭐ SSOT: 상관 레짐 판정은 여기서만
// breakdown(상관 급락)에서 매수, surge(상관 급등)에서 매도.
type CorrRegimeProducer struct {
	cfg    strategyconfig.CorrRegime
	logger *logger.Logger
}

// NewCorrRegimeProducer creates a new correlation-regime producer
func NewCorrRegimeProducer(cfg strategyconfig.CorrRegime, log *logger.Logger) *CorrRegimeProducer {
	return &CorrRegimeProducer{cfg: cfg, logger: log}
}

// ID implements Producer
func (p *CorrRegimeProducer) ID() string { return "corr_regime" }

// Kind implements Producer
func (p *CorrRegimeProducer) Kind() contracts.SourceKind { return contracts.SourceKindAlt }

// Produce computes the correlation-regime opinion for the window's end.
// 관측치가 min_observations 미만이거나 트레일링 히스토리가 부족하면 nil.
func (p *CorrRegimeProducer) Produce(ctx context.Context, window *contracts.DataWindow) (*contracts.Opinion, error) {
	points, ok := window.Indicator(p.cfg.IndicatorID)
	if !ok {
		return nil, &contracts.DataError{
			Timestamp: window.End,
			Reason:    "missing indicator " + p.cfg.IndicatorID,
		}
	}

	priceReturns := window.Returns()
	indicatorDeltas := deltas(points)

	// 끝 시점 기준 정렬 (윈도우는 이미 정렬 공급이 계약)
	n := len(priceReturns)
	if len(indicatorDeltas) < n {
		n = len(indicatorDeltas)
	}
	if n < p.cfg.MinObservations {
		return nil, nil
	}
	priceReturns = priceReturns[len(priceReturns)-n:]
	indicatorDeltas = indicatorDeltas[len(indicatorDeltas)-n:]

	// 롤링 상관 히스토리 구축
	corrs := rollingCorrelation(priceReturns, indicatorDeltas, p.cfg.Window)
	if len(corrs) < 2 {
		return nil, nil
	}
	if len(corrs) > p.cfg.TrailingWindow {
		corrs = corrs[len(corrs)-p.cfg.TrailingWindow:]
	}

	current := corrs[len(corrs)-1]
	trailing := corrs[:len(corrs)-1]
	trailingMean := stats.Mean(trailing)
	trailingStd := stats.StdDev(trailing)
	if trailingStd == 0 {
		return nil, nil
	}

	return p.opinionFromCorr(window.End, current, trailingMean, trailingStd, n), nil
}

// opinionFromCorr builds the opinion from the current correlation and its
// trailing distribution. n은 유의성 검정에 쓰이는 관측치 수.
func (p *CorrRegimeProducer) opinionFromCorr(ts time.Time, current, trailingMean, trailingStd float64, n int) *contracts.Opinion {
	z := (current - trailingMean) / trailingStd
	regime := p.classify(z)

	direction := contracts.DirectionFlat
	switch regime {
	case RegimeBreakdown:
		direction = contracts.DirectionLong // 평균 회귀 진입
	case RegimeHigh:
		direction = contracts.DirectionShort
	}

	// 강도: 편차 크기 * 유의성 가중
	strength := 0.0
	if direction != contracts.DirectionFlat {
		strength = stats.Clamp01(abs(z) / (2 * p.cfg.BreakdownSigma))
		pValue := stats.CorrelationPValue(current, n)
		if pValue > p.cfg.SignificanceLevel {
			// 유의하지 않은 상관: 절반 가중
			strength *= 0.5
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"regime":        string(regime),
		"z":             z,
		"current_corr":  current,
		"trailing_mean": trailingMean,
		"observations":  n,
	}).Debug("Classified correlation regime")

	return &contracts.Opinion{
		ProducerID: p.ID(),
		Kind:       p.Kind(),
		Timestamp:  ts,
		Direction:  direction,
		Strength:   strength,
		Metrics: map[string]float64{
			"correlation":   current,
			"trailing_mean": trailingMean,
			"trailing_std":  trailingStd,
			"z_score":       z,
		},
	}
}

// classify maps a standard-deviation distance to a regime
func (p *CorrRegimeProducer) classify(z float64) Regime {
	switch {
	case z <= -p.cfg.BreakdownSigma:
		return RegimeBreakdown
	case z >= p.cfg.SurgeSigma:
		return RegimeHigh
	case z <= -p.cfg.LowSigma:
		return RegimeLow
	default:
		return RegimeNormal
	}
}

// rollingCorrelation computes correlations over each trailing window of size w
func rollingCorrelation(x, y []float64, w int) []float64 {
	if len(x) < w || w < 2 {
		return nil
	}
	out := make([]float64, 0, len(x)-w+1)
	for end := w; end <= len(x); end++ {
		out = append(out, stats.Correlation(x[end-w:end], y[end-w:end]))
	}
	return out
}

func deltas(points []contracts.ScalarPoint) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		out = append(out, points[i].Value-points[i-1].Value)
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

package producers

import (
	"context"
	"math"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/stats"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/logger"
)

// TrendProducer emits a directional opinion from fast/slow moving average divergence.
// ⭐ SSOT: 가격 추세 시그널 계산은 여기서만
type TrendProducer struct {
	cfg    strategyconfig.Trend
	logger *logger.Logger
}

// NewTrendProducer creates a new price-trend producer
func NewTrendProducer(cfg strategyconfig.Trend, log *logger.Logger) *TrendProducer {
	return &TrendProducer{cfg: cfg, logger: log}
}

// ID implements Producer
func (p *TrendProducer) ID() string { return "trend" }

// Kind implements Producer
func (p *TrendProducer) Kind() contracts.SourceKind { return contracts.SourceKindPrice }

// Produce computes the trend opinion for the window's end timestamp.
// 히스토리가 min_observations 미만이면 의견 없음 (nil).
func (p *TrendProducer) Produce(ctx context.Context, window *contracts.DataWindow) (*contracts.Opinion, error) {
	closes := window.Closes()
	if len(closes) < p.cfg.MinObservations {
		return nil, nil
	}

	fastMA := stats.Mean(closes[len(closes)-p.cfg.FastWindow:])
	slowMA := stats.Mean(closes[len(closes)-p.cfg.SlowWindow:])
	if slowMA == 0 {
		return nil, &contracts.DataError{Timestamp: window.End, Reason: "zero slow moving average"}
	}

	// divergence 부호가 방향, 크기가 강도
	divergence := (fastMA - slowMA) / slowMA

	direction := contracts.DirectionFlat
	if divergence > p.cfg.FlatThreshold {
		direction = contracts.DirectionLong
	} else if divergence < -p.cfg.FlatThreshold {
		direction = contracts.DirectionShort
	}

	// tanh 정규화 (모멘텀 점수와 동일한 방식)
	strength := math.Tanh(math.Abs(divergence) * p.cfg.StrengthScale)
	if direction == contracts.DirectionFlat {
		strength = 0
	}

	p.logger.WithFields(map[string]interface{}{
		"symbol":     window.Symbol,
		"fast_ma":    fastMA,
		"slow_ma":    slowMA,
		"divergence": divergence,
		"direction":  direction,
	}).Debug("Calculated trend signal")

	return &contracts.Opinion{
		ProducerID: p.ID(),
		Kind:       p.Kind(),
		Timestamp:  window.End,
		Direction:  direction,
		Strength:   stats.Clamp01(strength),
		Metrics: map[string]float64{
			"fast_ma":    fastMA,
			"slow_ma":    slowMA,
			"divergence": divergence,
		},
	}, nil
}

package producers

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/logger"
)

// corrWindow builds a window whose indicator deltas track the price returns,
// with the sign flipped over the last `flipped` periods (상관 붕괴 재현).
func corrWindow(t *testing.T, n, flipped int) *contracts.DataWindow {
	t.Helper()

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]contracts.Candle, n)
	points := make([]contracts.ScalarPoint, n)

	price, value := 100.0, 50.0
	candles[0] = contracts.Candle{Date: start, Close: price}
	points[0] = contracts.ScalarPoint{Date: start, Value: value}
	for i := 1; i < n; i++ {
		ret := 0.01 * math.Sin(float64(i))
		price *= 1 + ret

		delta := 100 * ret
		if i >= n-flipped {
			delta = -delta
		}
		value += delta

		date := start.AddDate(0, 0, i)
		candles[i] = contracts.Candle{Date: date, Close: price}
		points[i] = contracts.ScalarPoint{Date: date, Value: value}
	}

	w, err := contracts.NewDataWindow("005930", candles[n-1].Date, candles,
		map[string][]contracts.ScalarPoint{"alt_flow": points})
	require.NoError(t, err)
	return w
}

// 120일 중 마지막 15일에서 가격-지표 상관이 붕괴하면 breakdown으로
// 분류되어 평균 회귀 long 의견이 나와야 한다.
func TestCorrRegime_ProduceBreakdown(t *testing.T) {
	p := NewCorrRegimeProducer(strategyconfig.Default().Producers.CorrRegime, logger.NewNop())

	op, err := p.Produce(context.Background(), corrWindow(t, 120, 15))
	require.NoError(t, err)
	require.NotNil(t, op)

	assert.Equal(t, "corr_regime", op.ProducerID)
	assert.Equal(t, contracts.SourceKindAlt, op.Kind)
	assert.Equal(t, contracts.DirectionLong, op.Direction)
	assert.InDelta(t, -3.55, op.Metrics["z_score"], 0.05)
	assert.InDelta(t, 0.887, op.Strength, 0.01) // |z|/4, 유의하므로 절반 가중 없음
}

func TestCorrRegime_ProduceInsufficientObservations(t *testing.T) {
	p := NewCorrRegimeProducer(strategyconfig.Default().Producers.CorrRegime, logger.NewNop())

	// 관측 15개 < min_observations 20: 의견도 에러도 없다
	op, err := p.Produce(context.Background(), corrWindow(t, 16, 0))
	assert.NoError(t, err)
	assert.Nil(t, op)
}

func TestCorrRegime_ProduceMissingIndicator(t *testing.T) {
	p := NewCorrRegimeProducer(strategyconfig.Default().Producers.CorrRegime, logger.NewNop())

	op, err := p.Produce(context.Background(), makeWindow(t, constant(120, 100)))
	require.Error(t, err)
	assert.True(t, contracts.IsDataError(err))
	assert.Nil(t, op)
}

func TestCorrRegime_Classify(t *testing.T) {
	p := NewCorrRegimeProducer(strategyconfig.Default().Producers.CorrRegime, logger.NewNop())

	tests := []struct {
		z    float64
		want Regime
	}{
		{-3.0, RegimeBreakdown},
		{-2.0, RegimeBreakdown},
		{-1.5, RegimeLow},
		{0.0, RegimeNormal},
		{1.5, RegimeNormal},
		{2.5, RegimeHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.classify(tt.z), "z=%.1f", tt.z)
	}
}

// 트레일링 평균보다 3σ 낮은 상관 + 관측 25개: breakdown 레짐,
// 평균 회귀 방향(long)의 non-nil 의견이 나와야 한다.
func TestCorrRegime_BreakdownOpinion(t *testing.T) {
	p := NewCorrRegimeProducer(strategyconfig.Default().Producers.CorrRegime, logger.NewNop())

	ts := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	trailingMean, trailingStd := 0.6, 0.1
	current := trailingMean - 3*trailingStd // 3σ 이탈

	op := p.opinionFromCorr(ts, current, trailingMean, trailingStd, 25)
	require.NotNil(t, op)
	assert.Equal(t, contracts.DirectionLong, op.Direction)
	assert.Greater(t, op.Strength, 0.0)
	assert.InDelta(t, -3.0, op.Metrics["z_score"], 1e-9)
}

func TestCorrRegime_HighRegimeShort(t *testing.T) {
	p := NewCorrRegimeProducer(strategyconfig.Default().Producers.CorrRegime, logger.NewNop())

	ts := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	op := p.opinionFromCorr(ts, 0.9, 0.5, 0.1, 30) // z = +4

	require.NotNil(t, op)
	assert.Equal(t, contracts.DirectionShort, op.Direction)
}

func TestRollingCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{2, 4, 6, 8, 10, 12}

	out := rollingCorrelation(x, y, 3)
	require.Len(t, out, 4)
	for _, r := range out {
		assert.InDelta(t, 1.0, r, 1e-9)
	}

	assert.Nil(t, rollingCorrelation(x[:2], y[:2], 3)) // 윈도우보다 짧음
}

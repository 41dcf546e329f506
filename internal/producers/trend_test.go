package producers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/logger"
)

// makeWindow builds a daily window ending at the last close
func makeWindow(t *testing.T, closes []float64) *contracts.DataWindow {
	t.Helper()

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]contracts.Candle, len(closes))
	for i, c := range closes {
		candles[i] = contracts.Candle{Date: start.AddDate(0, 0, i), Close: c}
	}

	w, err := contracts.NewDataWindow("005930", candles[len(candles)-1].Date, candles, nil)
	require.NoError(t, err)
	return w
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestTrendProducer_Sideways(t *testing.T) {
	p := NewTrendProducer(strategyconfig.Default().Producers.Trend, logger.NewNop())

	// 90일 횡보: 방향 없음, 강도 0
	op, err := p.Produce(context.Background(), makeWindow(t, constant(90, 100)))
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, contracts.DirectionFlat, op.Direction)
	assert.Equal(t, 0.0, op.Strength)
}

func TestTrendProducer_Uptrend(t *testing.T) {
	p := NewTrendProducer(strategyconfig.Default().Producers.Trend, logger.NewNop())

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 * (1 + 0.01*float64(i)) // 일 1% 상승
	}

	op, err := p.Produce(context.Background(), makeWindow(t, closes))
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, contracts.DirectionLong, op.Direction)
	assert.Greater(t, op.Strength, 0.0)
	assert.LessOrEqual(t, op.Strength, 1.0)
	assert.Greater(t, op.Metrics["divergence"], 0.0)
}

func TestTrendProducer_InsufficientHistory(t *testing.T) {
	p := NewTrendProducer(strategyconfig.Default().Producers.Trend, logger.NewNop())

	// min_observations 미만: 의견 없음 (flat 아님)
	op, err := p.Produce(context.Background(), makeWindow(t, constant(10, 100)))
	require.NoError(t, err)
	assert.Nil(t, op)
}

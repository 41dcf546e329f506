package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/strategyconfig"
)

func ledgerOf(n int) []contracts.Trade {
	trades := make([]contracts.Trade, n)
	for i := range trades {
		trades[i] = contracts.Trade{
			ExitTime:    day(i),
			RealizedPnL: float64(100 + i),
			ReturnPct:   0.001 * float64(i),
		}
	}
	return trades
}

func TestSplitTrades_Sequential(t *testing.T) {
	cfg := strategyconfig.Split{Method: "sequential", TrainRatio: 0.7}

	train, test := splitTrades(ledgerOf(10), cfg)
	require.Len(t, train, 7)
	require.Len(t, test, 3)

	// train은 시간상 앞쪽, test는 뒤쪽
	assert.True(t, train[6].ExitTime.Before(test[0].ExitTime))
}

func TestSplitTrades_RandomIsReproducible(t *testing.T) {
	cfg := strategyconfig.Split{Method: "random", TrainRatio: 0.7, Seed: 42}
	trades := ledgerOf(20)

	train1, test1 := splitTrades(trades, cfg)
	train2, test2 := splitTrades(trades, cfg)

	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
	assert.Len(t, train1, 14)
	assert.Len(t, test1, 6)

	// 다른 시드는 다른 분할
	cfg.Seed = 7
	train3, _ := splitTrades(trades, cfg)
	assert.NotEqual(t, train1, train3)
}

func TestSplitTrades_TinyLedgerKeepsBothSides(t *testing.T) {
	cfg := strategyconfig.Split{Method: "sequential", TrainRatio: 0.99}

	train, test := splitTrades(ledgerOf(2), cfg)
	assert.Len(t, train, 1)
	assert.Len(t, test, 1)
}

func TestDegradation(t *testing.T) {
	assert.InDelta(t, 0.5, degradation(2.0, 1.0), 1e-9)
	assert.Equal(t, 0.0, degradation(1.0, 1.5)) // 개선은 저하가 아니다
	assert.Equal(t, 0.0, degradation(-0.5, -1.0))
	assert.Equal(t, 0.0, degradation(0, 1))
}

func TestClassifyOverfit(t *testing.T) {
	th := strategyconfig.Default().Validation.Overfit

	tests := []struct {
		score float64
		want  contracts.OverfitLevel
	}{
		{0.05, contracts.OverfitNone},
		{0.15, contracts.OverfitLow},
		{0.30, contracts.OverfitModerate},
		{0.50, contracts.OverfitHigh},
		{0.90, contracts.OverfitSevere},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyOverfit(tt.score, th), "score %.2f", tt.score)
	}
}

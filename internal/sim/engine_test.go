package sim

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/merge"
	"github.com/wonny/edgelab/internal/producers"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/logger"
)

func makeSeries(t *testing.T, closes []float64) *contracts.Series {
	t.Helper()

	candles := make([]contracts.Candle, len(closes))
	for i, c := range closes {
		candles[i] = contracts.Candle{
			Date:   day(i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return &contracts.Series{Symbol: "TEST", Candles: candles}
}

func trendEngine(t *testing.T, cfg *strategyconfig.Config) *Engine {
	t.Helper()

	log := logger.NewNop()
	merger, err := merge.New(cfg.Merge, log)
	require.NoError(t, err)

	prods := []producers.Producer{producers.NewTrendProducer(cfg.Producers.Trend, log)}
	return NewEngine(cfg, prods, merger, log)
}

// 횡보장 90일: 추세 프로듀서만으로는 거래가 한 건도 나오지 않아야 한다
func TestRun_SidewaysProducesNoTrades(t *testing.T) {
	cfg := strategyconfig.Default()

	closes := make([]float64, 90)
	for i := range closes {
		closes[i] = 100 // 평평한 시세
	}

	result, err := trendEngine(t, cfg).Run(context.Background(), makeSeries(t, closes), nil)
	require.NoError(t, err)

	assert.Empty(t, result.Trades)
	assert.False(t, result.Aborted)
	assert.Len(t, result.EquityCurve, 90)
	assert.Len(t, result.Decisions, 90)
	assert.Equal(t, cfg.Sizing.InitialCash, result.FinalEquity)
	assert.Equal(t, 0, result.Metrics.TradeCount)
}

// 상승 추세에서 거래가 발생하고, 장부 손익 합이 equity 변화와 일치해야 한다
func TestRun_TrendingReconciles(t *testing.T) {
	cfg := strategyconfig.Default()

	closes := make([]float64, 200)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		closes[i] = closes[i-1] * (1 + 0.01*math.Sin(float64(i)/15))
	}

	result, err := trendEngine(t, cfg).Run(context.Background(), makeSeries(t, closes), nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Trades)

	var total float64
	for _, trade := range result.Trades {
		total += trade.RealizedPnL
	}
	assert.InDelta(t, result.FinalEquity-result.InitialCash, total, 1e-6)
	assert.Equal(t, len(result.Trades), result.Metrics.TradeCount)

	// 모든 결정의 신뢰도는 [0, 1]
	for _, d := range result.Decisions {
		assert.GreaterOrEqual(t, d.Confidence, 0.0)
		assert.LessOrEqual(t, d.Confidence, 1.0)
	}
}

func TestRun_CancelReturnsPartialResult(t *testing.T) {
	cfg := strategyconfig.Default()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}

	result, err := trendEngine(t, cfg).Run(ctx, makeSeries(t, closes), nil)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Aborted)
	assert.Equal(t, "run canceled", result.AbortReason)
}

// 지표가 전혀 없으면 corr_regime 프로듀서는 기간마다 스킵되지만 run은 계속된다
func TestRun_MissingIndicatorSkipsProducerOnly(t *testing.T) {
	cfg := strategyconfig.Default()
	log := logger.NewNop()

	merger, err := merge.New(cfg.Merge, log)
	require.NoError(t, err)

	prods := []producers.Producer{
		producers.NewTrendProducer(cfg.Producers.Trend, log),
		producers.NewCorrRegimeProducer(cfg.Producers.CorrRegime, log),
	}
	engine := NewEngine(cfg, prods, merger, log)

	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}

	result, err := engine.Run(context.Background(), makeSeries(t, closes), nil)
	require.NoError(t, err)
	assert.False(t, result.Aborted)
	assert.Len(t, result.EquityCurve, 50)
}

func TestComputeMetrics_Basics(t *testing.T) {
	result := &Result{
		InitialCash: 1_000_000,
		FinalEquity: 1_100_000,
		Trades: []contracts.Trade{
			{RealizedPnL: 150_000},
			{RealizedPnL: -50_000},
		},
		EquityCurve: []EquityPoint{
			{Time: day(0), Value: 1_000_000},
			{Time: day(1), Value: 1_050_000},
			{Time: day(2), Value: 1_100_000},
		},
	}

	m := computeMetrics(result)
	assert.InDelta(t, 0.10, m.TotalReturnPct, 1e-9)
	assert.InDelta(t, 0.5, m.WinRate, 1e-9)
	assert.InDelta(t, 3.0, m.ProfitFactor, 1e-9)
	assert.Equal(t, 2, m.TradeCount)
	assert.Positive(t, m.CAGR)
	// 기간 수익률 [1/21, 0.05]의 하위 5% (선형 보간)
	assert.InDelta(t, 0.047738095238, m.VaR95, 1e-9)
}

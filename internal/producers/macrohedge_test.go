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

func TestClassifyAlert(t *testing.T) {
	vix := strategyconfig.MacroIndicator{ID: "vix", Yellow: 20, Orange: 28, Red: 36}

	assert.Equal(t, AlertGreen, classifyAlert(vix, 15))
	assert.Equal(t, AlertYellow, classifyAlert(vix, 22))
	assert.Equal(t, AlertOrange, classifyAlert(vix, 30))
	assert.Equal(t, AlertRed, classifyAlert(vix, 40))

	// 역방향 지표: 값이 내려갈수록 경보
	spread := strategyconfig.MacroIndicator{ID: "yield_spread", Yellow: 0.5, Orange: 0.2, Red: 0.0, Invert: true}
	assert.Equal(t, AlertGreen, classifyAlert(spread, 1.0))
	assert.Equal(t, AlertYellow, classifyAlert(spread, 0.4))
	assert.Equal(t, AlertRed, classifyAlert(spread, -0.1))
}

func macroWindow(t *testing.T, vixValues []float64) *contracts.DataWindow {
	t.Helper()

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	points := make([]contracts.ScalarPoint, len(vixValues))
	for i, v := range vixValues {
		points[i] = contracts.ScalarPoint{Date: start.AddDate(0, 0, i), Value: v}
	}
	end := start.AddDate(0, 0, len(vixValues)-1)

	w, err := contracts.NewDataWindow("005930", end,
		[]contracts.Candle{{Date: end, Close: 100}},
		map[string][]contracts.ScalarPoint{"vix": points})
	require.NoError(t, err)
	return w
}

func TestMacroHedge_Produce(t *testing.T) {
	p := NewMacroHedgeProducer(strategyconfig.Default().Producers.MacroHedge, logger.NewNop())

	// VIX 40: red → 숏 헤지, 강도 0.9
	op, err := p.Produce(context.Background(), macroWindow(t, []float64{18, 22, 27, 33, 40}))
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, contracts.DirectionShort, op.Direction)
	assert.InDelta(t, 0.9, op.Strength, 1e-9)

	// VIX 15: green → flat, 강도 0
	op, err = p.Produce(context.Background(), macroWindow(t, []float64{14, 15, 16, 15, 15}))
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, contracts.DirectionFlat, op.Direction)
	assert.Equal(t, 0.0, op.Strength)
}

func TestMacroHedge_NoObservableIndicators(t *testing.T) {
	p := NewMacroHedgeProducer(strategyconfig.Default().Producers.MacroHedge, logger.NewNop())

	end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	w, err := contracts.NewDataWindow("005930", end,
		[]contracts.Candle{{Date: end, Close: 100}}, nil)
	require.NoError(t, err)

	op, err := p.Produce(context.Background(), w)
	require.NoError(t, err)
	assert.Nil(t, op)
}

func TestStressTest(t *testing.T) {
	p := NewMacroHedgeProducer(strategyconfig.Default().Producers.MacroHedge, logger.NewNop())

	snapshot := &contracts.PortfolioSnapshot{
		Timestamp: time.Now(),
		Cash:      500_000,
		Positions: []contracts.PositionExposure{
			{Symbol: "005930", Quantity: 100, Price: 70_000},
		},
	}

	results := p.StressTest(snapshot, []StressScenario{
		{Name: "crash", Shocks: map[string]float64{"*": -0.30}},
		{Name: "targeted", Shocks: map[string]float64{"005930": -0.10}},
		{Name: "unrelated", Shocks: map[string]float64{"035420": -0.50}},
	})
	require.Len(t, results, 3)

	// 전체 -30%: 주식만 깎이고 현금은 유지
	assert.InDelta(t, 500_000+7_000_000*0.7, results[0].ShockedValue, 1)
	assert.Greater(t, results[0].ExpectedDrawdownPct, 0.0)

	// 해당 심볼만 -10%
	assert.InDelta(t, 500_000+7_000_000*0.9, results[1].ShockedValue, 1)

	// 무관한 충격: 영향 없음
	assert.InDelta(t, 7_500_000, results[2].ShockedValue, 1)
	assert.InDelta(t, 0.0, results[2].ExpectedDrawdownPct, 1e-9)
}

package attribution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/pkg/logger"
)

func trade(tag contracts.SourceTag, pnl float64, exitDay int) contracts.Trade {
	exit := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, exitDay)
	return contracts.Trade{
		Symbol:      "TEST",
		Direction:   contracts.DirectionLong,
		Quantity:    10,
		EntryTime:   exit.AddDate(0, 0, -3),
		EntryPrice:  100,
		ExitTime:    exit,
		ExitPrice:   100 + pnl/10,
		RealizedPnL: pnl,
		ReturnPct:   pnl / 1000,
		ExitReason:  "signal",
		SourceTag:   tag,
	}
}

func TestAnalyze_EmptyLedger(t *testing.T) {
	report := NewAnalyzer(logger.NewNop()).Analyze(nil)

	require.NotNil(t, report)
	assert.Empty(t, report.Records)
	assert.Empty(t, report.BestSource)
	assert.Empty(t, report.WorstSource)
}

// 존재하는 소스들의 손익 기여율 합은 100%
func TestAnalyze_ContributionsSumTo100(t *testing.T) {
	trades := []contracts.Trade{
		trade(contracts.SourcePriceOnly, 500, 1),
		trade(contracts.SourcePriceOnly, -200, 3),
		trade(contracts.SourceAltOnly, 300, 5),
		trade(contracts.SourceCombined, 150, 7),
		trade(contracts.SourceCombined, -50, 9),
	}

	report := NewAnalyzer(logger.NewNop()).Analyze(trades)
	require.Len(t, report.Records, 3)

	var sum float64
	for _, rec := range report.Records {
		sum += rec.PnLContributionPct
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestAnalyze_PerTagAggregates(t *testing.T) {
	trades := []contracts.Trade{
		trade(contracts.SourcePriceOnly, 500, 1),
		trade(contracts.SourcePriceOnly, -200, 3),
		trade(contracts.SourceAltOnly, 300, 5), // 손실 없음
	}

	report := NewAnalyzer(logger.NewNop()).Analyze(trades)
	require.Len(t, report.Records, 2)

	byTag := make(map[contracts.SourceTag]contracts.AttributionRecord)
	for _, rec := range report.Records {
		byTag[rec.SourceTag] = rec
	}

	price := byTag[contracts.SourcePriceOnly]
	assert.Equal(t, 2, price.TradeCount)
	assert.InDelta(t, 300, price.TotalPnL, 1e-9)
	assert.InDelta(t, 0.5, price.WinRate, 1e-9)
	require.True(t, price.ProfitFactorDefined)
	assert.InDelta(t, 2.5, price.ProfitFactor, 1e-9)

	// gross loss가 0인 소스는 profit factor 미정의
	alt := byTag[contracts.SourceAltOnly]
	assert.Equal(t, 1, alt.TradeCount)
	assert.False(t, alt.ProfitFactorDefined)
	assert.InDelta(t, 1.0, alt.WinRate, 1e-9)
}

func TestAnalyze_CorrelationDiagonalIsOne(t *testing.T) {
	trades := []contracts.Trade{
		trade(contracts.SourcePriceOnly, 100, 1),
		trade(contracts.SourcePriceOnly, -80, 2),
		trade(contracts.SourceAltOnly, 60, 1),
		trade(contracts.SourceAltOnly, 40, 2),
	}

	report := NewAnalyzer(logger.NewNop()).Analyze(trades)

	for tag, row := range report.Correlation {
		assert.Equal(t, 1.0, row[tag])
	}
	// 대칭
	assert.InDelta(t,
		report.Correlation[contracts.SourcePriceOnly][contracts.SourceAltOnly],
		report.Correlation[contracts.SourceAltOnly][contracts.SourcePriceOnly],
		1e-9)
}

func TestAnalyze_RanksBestAndWorst(t *testing.T) {
	trades := []contracts.Trade{
		trade(contracts.SourcePriceOnly, 400, 1),
		trade(contracts.SourcePriceOnly, 350, 4),
		trade(contracts.SourceAltOnly, -300, 2),
		trade(contracts.SourceAltOnly, -250, 5),
	}

	report := NewAnalyzer(logger.NewNop()).Analyze(trades)
	assert.Equal(t, contracts.SourcePriceOnly, report.BestSource)
	assert.Equal(t, contracts.SourceAltOnly, report.WorstSource)
}

// 단일 소스만 있으면 best == worst
func TestAnalyze_SingleSource(t *testing.T) {
	trades := []contracts.Trade{
		trade(contracts.SourceCombined, 100, 1),
		trade(contracts.SourceCombined, 200, 2),
	}

	report := NewAnalyzer(logger.NewNop()).Analyze(trades)
	require.Len(t, report.Records, 1)
	assert.Equal(t, contracts.SourceCombined, report.BestSource)
	assert.Equal(t, contracts.SourceCombined, report.WorstSource)
	assert.InDelta(t, 100.0, report.Records[0].PnLContributionPct, 1e-9)
}

package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanStdDev(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)

	assert.Equal(t, 0.0, StdDev([]float64{5}))
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-9)
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}
	assert.InDelta(t, 1.0, Correlation(x, y), 1e-9)

	inv := []float64{10, 8, 6, 4, 2}
	assert.InDelta(t, -1.0, Correlation(x, inv), 1e-9)

	// 상수 시리즈는 NaN 대신 0
	assert.Equal(t, 0.0, Correlation(x, []float64{3, 3, 3, 3, 3}))

	// 길이 불일치는 짧은 쪽 기준
	assert.InDelta(t, 1.0, Correlation(x, y[:3]), 1e-9)
}

func TestSharpe(t *testing.T) {
	assert.Equal(t, 0.0, Sharpe([]float64{0.01}, 252))
	assert.Equal(t, 0.0, Sharpe([]float64{0.01, 0.01, 0.01}, 252)) // 무변동

	up := []float64{0.01, 0.02, 0.015, 0.012, 0.018}
	assert.Greater(t, Sharpe(up, 252), 0.0)

	down := []float64{-0.01, -0.02, -0.015, -0.012, -0.018}
	assert.Less(t, Sharpe(down, 252), 0.0)
}

func TestSortino(t *testing.T) {
	// 하락 없는 수익률: 하방 변동성 0
	assert.Equal(t, 0.0, Sortino([]float64{0.01, 0.02, 0.03}, 252))

	mixed := []float64{0.02, -0.01, 0.03, -0.02, 0.01}
	assert.Greater(t, Sortino(mixed, 252), 0.0)
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown(nil))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100, 110, 120})) // 단조 증가

	// 120 → 90: 25% 낙폭
	assert.InDelta(t, 0.25, MaxDrawdown([]float64{100, 120, 90, 110}), 1e-9)
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Percentile(values, 0), 1e-9)
	assert.InDelta(t, 3.0, Percentile(values, 50), 1e-9)
	assert.InDelta(t, 5.0, Percentile(values, 100), 1e-9)
}

func TestTTestOneSample(t *testing.T) {
	// 명확히 양의 평균
	positive := []float64{1.0, 1.2, 0.8, 1.1, 0.9, 1.0, 1.3, 0.7, 1.1, 0.9}
	tStat, p := TTestOneSample(positive)
	assert.Greater(t, tStat, 2.0)
	assert.Less(t, p, 0.05)

	// 0 주변 대칭
	symmetric := []float64{1, -1, 2, -2, 0.5, -0.5}
	_, p = TTestOneSample(symmetric)
	assert.Greater(t, p, 0.5)

	// 표본 부족
	tStat, p = TTestOneSample([]float64{1})
	assert.Equal(t, 0.0, tStat)
	assert.Equal(t, 1.0, p)
}

func TestRequiredSampleSize(t *testing.T) {
	// 효과크기 클수록 필요 표본은 적다
	small := RequiredSampleSize(0.2, 0.05, 0.8)
	large := RequiredSampleSize(0.8, 0.05, 0.8)
	assert.Greater(t, small, large)

	// d=0.5, α=0.05, power=0.8 → 관례상 약 32
	n := RequiredSampleSize(0.5, 0.05, 0.8)
	assert.InDelta(t, 32, float64(n), 2)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 0.7, Clamp01(0.7))
	assert.Equal(t, 1.0, Clamp01(1.5))
}

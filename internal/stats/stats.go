package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// =============================================================================
// 통계 유틸리티 (순수 계산)
// ⭐ SSOT: 공용 통계 계산은 여기서만
// =============================================================================

// Mean 평균 계산
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev 표본 표준편차 계산
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Correlation Pearson 상관계수 계산 (길이 불일치 시 짧은 쪽 기준)
func Correlation(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return 0
	}
	r := stat.Correlation(x[:n], y[:n], nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// Sharpe 연환산 Sharpe ratio (무위험수익률 0 가정)
func Sharpe(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	sd := StdDev(returns)
	if sd == 0 {
		return 0
	}
	return Mean(returns) / sd * math.Sqrt(periodsPerYear)
}

// Sortino 연환산 Sortino ratio (하방 변동성만 분모로 사용)
func Sortino(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var downSum float64
	var downN int
	for _, r := range returns {
		if r < 0 {
			downSum += r * r
			downN++
		}
	}
	if downN == 0 {
		return 0
	}
	downside := math.Sqrt(downSum / float64(downN))
	if downside == 0 {
		return 0
	}
	return Mean(returns) / downside * math.Sqrt(periodsPerYear)
}

// MaxDrawdown 자산곡선 기준 최대 낙폭 (0.0 ~ 1.0)
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	maxDD := 0.0
	peak := equity[0]
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - v) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Percentile 백분위수 계산 (선형 보간, p: 0~100)
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Clamp01 값을 [0, 1]로 자름
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// =============================================================================
// 분포 함수
// =============================================================================

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// NormQuantile 표준정규분포 역함수
func NormQuantile(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return stdNormal.Quantile(p)
}

// TTestOneSample 단일표본 t-검정 (귀무가설: 평균 = 0, 양측)
// 반환: t 통계량, p-value. n < 2이면 (0, 1).
func TTestOneSample(values []float64) (tStat, pValue float64) {
	n := len(values)
	if n < 2 {
		return 0, 1
	}

	mean := Mean(values)
	sd := StdDev(values)
	if sd == 0 {
		if mean == 0 {
			return 0, 1
		}
		// 분산 0, 평균 비0: 극단적으로 유의
		return math.Inf(sign(mean)), 0
	}

	tStat = mean / (sd / math.Sqrt(float64(n)))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	pValue = 2 * (1 - dist.CDF(math.Abs(tStat)))
	return tStat, pValue
}

// CorrelationPValue 상관계수의 유의확률 (t 변환, 양측)
func CorrelationPValue(r float64, n int) float64 {
	if n < 3 {
		return 1
	}
	if r >= 1 || r <= -1 {
		return 0
	}

	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * (1 - dist.CDF(math.Abs(t)))
}

// RequiredSampleSize 관측 효과크기에서 power 달성에 필요한 표본 수
// 단일표본 양측 검정 근사: n = ((z_{1-α/2} + z_{power}) / d)^2
func RequiredSampleSize(effectSize, alpha, power float64) int {
	d := math.Abs(effectSize)
	if d == 0 {
		return math.MaxInt32
	}

	z := (NormQuantile(1-alpha/2) + NormQuantile(power)) / d
	n := int(math.Ceil(z * z))
	if n < 2 {
		n = 2
	}
	return n
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

package validation

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/sim"
	"github.com/wonny/edgelab/internal/stats"
)

// 단조로운 월 버킷이 이 수를 넘어가면 분기 단위로 묶는다
const maxMonthlyBuckets = 24

// 최근 구간으로 간주하는 버킷 수
const recentBuckets = 3

// stabilityTest buckets equity-curve returns by calendar period and looks
// for a degrading trend over time.
func stabilityTest(curve []sim.EquityPoint) *contracts.StabilityFinding {
	cadence, periodReturns := bucketReturns(curve)

	finding := &contracts.StabilityFinding{
		Cadence:       cadence,
		PeriodCount:   len(periodReturns),
		PeriodReturns: periodReturns,
	}

	if len(periodReturns) < 3 {
		// 추세를 말하기에 기간이 너무 짧다
		finding.Result = contracts.ValidationNeedsReview
		return finding
	}

	xs := make([]float64, len(periodReturns))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, periodReturns, nil, false)
	finding.TrendSlope = slope

	overall := stats.Mean(periodReturns)
	recent := stats.Mean(periodReturns[len(periodReturns)-min(recentBuckets, len(periodReturns)):])
	finding.RecentVsOverall = recent - overall
	finding.DegradingTrend = slope < 0 && recent < overall

	switch {
	case finding.DegradingTrend && recent < 0:
		finding.Result = contracts.ValidationInvalid
	case finding.DegradingTrend:
		finding.Result = contracts.ValidationNeedsReview
	default:
		finding.Result = contracts.ValidationValid
	}
	return finding
}

// bucketReturns folds the equity curve into monthly (or quarterly) returns
func bucketReturns(curve []sim.EquityPoint) (string, []float64) {
	if len(curve) < 2 {
		return "monthly", nil
	}

	monthly := bucketBy(curve, monthKey)
	if len(monthly) <= maxMonthlyBuckets {
		return "monthly", monthly
	}
	return "quarterly", bucketBy(curve, quarterKey)
}

func monthKey(t time.Time) string   { return t.Format("2006-01") }
func quarterKey(t time.Time) string { return t.Format("2006") + quarterOf(t) }

func quarterOf(t time.Time) string {
	switch {
	case t.Month() <= 3:
		return "-Q1"
	case t.Month() <= 6:
		return "-Q2"
	case t.Month() <= 9:
		return "-Q3"
	default:
		return "-Q4"
	}
}

// bucketBy computes the return of each calendar bucket from its boundary values
func bucketBy(curve []sim.EquityPoint, key func(time.Time) string) []float64 {
	type bucket struct {
		first, last float64
	}
	buckets := make(map[string]*bucket)
	order := make([]string, 0)

	for _, pt := range curve {
		k := key(pt.Time)
		b, ok := buckets[k]
		if !ok {
			buckets[k] = &bucket{first: pt.Value, last: pt.Value}
			order = append(order, k)
			continue
		}
		b.last = pt.Value
	}
	sort.Strings(order)

	returns := make([]float64, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		if b.first == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (b.last-b.first)/b.first)
	}
	return returns
}

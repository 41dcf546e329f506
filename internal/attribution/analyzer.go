package attribution

import (
	"sort"
	"time"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/stats"
	"github.com/wonny/edgelab/pkg/logger"
)

// Analyzer recomputes source attribution from the trade ledger on demand.
// ⭐ SSOT: 장부가 원본, 여기서는 상태를 갖지 않는다
type Analyzer struct {
	logger *logger.Logger
}

// NewAnalyzer creates a stateless attribution analyzer
func NewAnalyzer(log *logger.Logger) *Analyzer {
	return &Analyzer{logger: log}
}

// Analyze aggregates the ledger per source tag.
// 빈 장부는 빈 레코드의 리포트를 반환한다 (에러 아님).
func (a *Analyzer) Analyze(trades []contracts.Trade) *contracts.AttributionReport {
	report := &contracts.AttributionReport{
		Records:     make([]contracts.AttributionRecord, 0, 3),
		Correlation: make(map[contracts.SourceTag]map[contracts.SourceTag]float64),
	}
	if len(trades) == 0 {
		return report
	}

	byTag := make(map[contracts.SourceTag][]contracts.Trade)
	var totalPnL float64
	for _, t := range trades {
		byTag[t.SourceTag] = append(byTag[t.SourceTag], t)
		totalPnL += t.RealizedPnL
	}

	fullSharpe := ledgerSharpe(trades)

	for _, tag := range contracts.AllSourceTags() {
		group, ok := byTag[tag]
		if !ok {
			continue
		}
		rec := aggregate(tag, group)

		// Invariant: 존재하는 소스들의 기여율 합은 100%
		if totalPnL != 0 {
			rec.PnLContributionPct = rec.TotalPnL / totalPnL * 100
		}

		// 해당 소스를 빼고 다시 계산한 Sharpe와의 차이
		rec.RiskAdjustedContribution = fullSharpe - ledgerSharpe(exclude(trades, tag))

		report.Records = append(report.Records, rec)
	}

	report.Correlation = correlationMatrix(byTag)
	report.BestSource, report.WorstSource = rank(report.Records)

	a.logger.WithFields(map[string]interface{}{
		"sources": len(report.Records),
		"trades":  len(trades),
	}).Debug("Attribution computed")
	return report
}

// aggregate computes the per-tag counters
func aggregate(tag contracts.SourceTag, group []contracts.Trade) contracts.AttributionRecord {
	rec := contracts.AttributionRecord{
		SourceTag:  tag,
		TradeCount: len(group),
	}

	var wins int
	for _, t := range group {
		rec.TotalPnL += t.RealizedPnL
		if t.Win() {
			wins++
			rec.GrossProfit += t.RealizedPnL
		} else {
			rec.GrossLoss += -t.RealizedPnL
		}
	}
	rec.WinRate = float64(wins) / float64(len(group))

	// gross_loss 0이면 profit factor는 미정의 (0으로 뭉개지 않는다)
	if rec.GrossLoss > 0 {
		rec.ProfitFactor = rec.GrossProfit / rec.GrossLoss
		rec.ProfitFactorDefined = true
	}
	return rec
}

// ledgerSharpe computes a Sharpe over per-trade returns ordered by exit time
func ledgerSharpe(trades []contracts.Trade) float64 {
	if len(trades) < 2 {
		return 0
	}
	sorted := make([]contracts.Trade, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ExitTime.Before(sorted[j].ExitTime) })

	returns := make([]float64, len(sorted))
	for i, t := range sorted {
		returns[i] = t.ReturnPct
	}
	return stats.Sharpe(returns, 252)
}

func exclude(trades []contracts.Trade, tag contracts.SourceTag) []contracts.Trade {
	out := make([]contracts.Trade, 0, len(trades))
	for _, t := range trades {
		if t.SourceTag != tag {
			out = append(out, t)
		}
	}
	return out
}

// correlationMatrix correlates per-source daily PnL series over the union of exit dates
func correlationMatrix(byTag map[contracts.SourceTag][]contracts.Trade) map[contracts.SourceTag]map[contracts.SourceTag]float64 {
	days := make(map[time.Time]struct{})
	daily := make(map[contracts.SourceTag]map[time.Time]float64, len(byTag))
	for tag, group := range byTag {
		daily[tag] = make(map[time.Time]float64)
		for _, t := range group {
			day := t.ExitTime.Truncate(24 * time.Hour)
			daily[tag][day] += t.RealizedPnL
			days[day] = struct{}{}
		}
	}

	ordered := make([]time.Time, 0, len(days))
	for d := range days {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	series := make(map[contracts.SourceTag][]float64, len(byTag))
	for tag := range byTag {
		s := make([]float64, len(ordered))
		for i, d := range ordered {
			s[i] = daily[tag][d] // 거래 없는 날은 0
		}
		series[tag] = s
	}

	matrix := make(map[contracts.SourceTag]map[contracts.SourceTag]float64, len(byTag))
	for a := range byTag {
		matrix[a] = make(map[contracts.SourceTag]float64, len(byTag))
		for b := range byTag {
			if a == b {
				matrix[a][b] = 1
				continue
			}
			matrix[a][b] = stats.Correlation(series[a], series[b])
		}
	}
	return matrix
}

// rank picks best/worst by risk-adjusted contribution, PnL as tie-breaker
func rank(records []contracts.AttributionRecord) (best, worst contracts.SourceTag) {
	if len(records) == 0 {
		return "", ""
	}
	bi, wi := 0, 0
	for i := 1; i < len(records); i++ {
		if better(records[i], records[bi]) {
			bi = i
		}
		if better(records[wi], records[i]) {
			wi = i
		}
	}
	return records[bi].SourceTag, records[wi].SourceTag
}

func better(a, b contracts.AttributionRecord) bool {
	if a.RiskAdjustedContribution != b.RiskAdjustedContribution {
		return a.RiskAdjustedContribution > b.RiskAdjustedContribution
	}
	return a.TotalPnL > b.TotalPnL
}

package commands

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/runner"
)

// ═══════════════════════════════════════════════════════════
// Common CSV Loading & Formatting Utilities
// 모든 커맨드가 동일한 입출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// loadCandlesCSV reads an OHLCV file: date,open,high,low,close,volume
func loadCandlesCSV(path, symbol string) (*contracts.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prices file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read prices file: %w", err)
	}

	series := &contracts.Series{Symbol: symbol}
	for i, row := range rows {
		if i == 0 && strings.EqualFold(row[0], "date") {
			continue // 헤더
		}
		if len(row) < 6 {
			return nil, fmt.Errorf("line %d: expected 6 columns, got %d", i+1, len(row))
		}

		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q", i+1, row[0])
		}

		vals := make([]float64, 5)
		for j := 1; j <= 5; j++ {
			vals[j-1], err = strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid number %q", i+1, row[j])
			}
		}

		series.Candles = append(series.Candles, contracts.Candle{
			Date: date, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4],
		})
	}

	if len(series.Candles) == 0 {
		return nil, fmt.Errorf("no candles in %s", path)
	}
	return series, nil
}

// loadIndicatorCSV reads a scalar file: date,value
func loadIndicatorCSV(path, id string) (*contracts.IndicatorSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open indicator file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read indicator file: %w", err)
	}

	series := &contracts.IndicatorSeries{ID: id}
	for i, row := range rows {
		if i == 0 && strings.EqualFold(row[0], "date") {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", i+1, len(row))
		}

		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q", i+1, row[0])
		}
		value, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid number %q", i+1, row[1])
		}

		series.Points = append(series.Points, contracts.ScalarPoint{Date: date, Value: value})
	}
	return series, nil
}

// parseIndicatorFlags parses repeated id=path flags
func parseIndicatorFlags(flags []string) (map[string]string, error) {
	out := make(map[string]string, len(flags))
	for _, f := range flags {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid --indicator %q, expected id=path", f)
		}
		out[parts[0]] = parts[1]
	}
	return out, nil
}

// printRunResult renders one run's summary to stdout
func printRunResult(result *runner.RunResult) {
	s := result.Simulation

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Run %s (%s, policy=%s)\n", result.RunID, result.Symbol, result.Policy)
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Initial Cash   : %.0f\n", s.InitialCash)
	fmt.Printf("  Final Equity   : %.0f\n", s.FinalEquity)
	fmt.Printf("  Total Return   : %.2f%%\n", s.Metrics.TotalReturnPct*100)
	fmt.Printf("  CAGR           : %.2f%%\n", s.Metrics.CAGR*100)
	fmt.Printf("  Sharpe         : %.2f\n", s.Metrics.Sharpe)
	fmt.Printf("  Sortino        : %.2f\n", s.Metrics.Sortino)
	fmt.Printf("  Max Drawdown   : %.2f%%\n", s.Metrics.MaxDrawdownPct*100)
	fmt.Printf("  VaR (95%%)      : %.2f%%\n", s.Metrics.VaR95*100)
	fmt.Printf("  Win Rate       : %.1f%%\n", s.Metrics.WinRate*100)
	fmt.Printf("  Trades         : %d (skipped %d)\n", s.Metrics.TradeCount, len(s.Skipped))
	if s.Aborted {
		fmt.Printf("  ⚠️  Aborted     : %s\n", s.AbortReason)
	}

	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Println("  Attribution")
	for _, rec := range result.Attribution.Records {
		pf := "n/a"
		if rec.ProfitFactorDefined {
			pf = fmt.Sprintf("%.2f", rec.ProfitFactor)
		}
		fmt.Printf("  %-14s trades=%-4d win=%.0f%% pf=%-5s pnl=%.0f (%.1f%%)\n",
			rec.SourceTag, rec.TradeCount, rec.WinRate*100, pf, rec.TotalPnL, rec.PnLContributionPct)
	}

	fmt.Println("───────────────────────────────────────────────────────────")
	v := result.Validation
	fmt.Printf("  Validation     : %s (confidence %.2f)\n", v.Result, v.ConfidenceScore)
	if v.WalkForward != nil {
		fmt.Printf("  Walk-forward   : %d passes, %.0f%% positive\n",
			v.WalkForward.PassCount, v.WalkForward.PositiveRatio*100)
	}
	for _, rec := range v.Recommendations {
		fmt.Printf("  • %s\n", rec)
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/edgelab/internal/runner"
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "파라미터 스윕",
	Long: `병합 정책과 가중치 조합 전체를 병렬로 시뮬레이션하고 순위를 매깁니다.

각 조합은 완전히 독립적인 run이며, Ctrl+C는 진행 중인 run을 끝낸 뒤
남은 조합만 취소합니다.

Example:
  go run ./cmd/edgelab sweep --symbol 005930 --prices data/005930.csv --from 2022-01-01
  go run ./cmd/edgelab sweep --symbol 005930 --prices data/005930.csv \
      --indicator alt_flow=data/alt_flow.csv --from 2022-01-01`,
	RunE: runSweep,
}

var (
	sweepSymbol     string
	sweepPrices     string
	sweepIndicators []string
	sweepFrom       string
	sweepTo         string
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepSymbol, "symbol", "", "종목 코드 (필수)")
	sweepCmd.Flags().StringVar(&sweepPrices, "prices", "", "OHLCV CSV 경로 (필수)")
	sweepCmd.Flags().StringArrayVar(&sweepIndicators, "indicator", nil, "지표 CSV (id=path, 반복 가능)")
	sweepCmd.Flags().StringVar(&sweepFrom, "from", "", "시작 날짜 (YYYY-MM-DD, 필수)")
	sweepCmd.Flags().StringVar(&sweepTo, "to", "", "종료 날짜 (YYYY-MM-DD, 기본: 오늘)")

	sweepCmd.MarkFlagRequired("symbol")
	sweepCmd.MarkFlagRequired("prices")
	sweepCmd.MarkFlagRequired("from")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, log, err := initRuntime()
	if err != nil {
		return err
	}

	start, end, err := parsePeriod(sweepFrom, sweepTo)
	if err != nil {
		return err
	}

	strategy, _, err := loadStrategy(cfg)
	if err != nil {
		return err
	}

	feed, err := buildFeed(sweepSymbol, sweepPrices, sweepIndicators)
	if err != nil {
		return err
	}

	// Ctrl+C → run 사이에서 협조적 취소
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := runner.New(feed, feed.AsIndicatorFeed(), log)
	outcomes := run.Sweep(ctx, runner.SweepRequest{
		Symbol:   sweepSymbol,
		Start:    start,
		End:      end,
		Base:     strategy,
		Variants: defaultVariants(),
		Workers:  cfg.SweepWorkers,
	})

	printSweepTable(outcomes)
	return nil
}

// defaultVariants is the standard policy/weight grid
func defaultVariants() []runner.Variant {
	variants := []runner.Variant{
		{Name: "voting", Policy: "voting"},
		{Name: "max_confidence", Policy: "max_confidence"},
	}
	for _, pw := range []float64{0.4, 0.5, 0.6, 0.7, 0.8} {
		variants = append(variants, runner.Variant{
			Name:        fmt.Sprintf("weighted_%.0f_%.0f", pw*100, (1-pw)*100),
			Policy:      "weighted",
			PriceWeight: pw,
			AltWeight:   1 - pw,
		})
	}
	return variants
}

// printSweepTable renders outcomes sorted by Sharpe
func printSweepTable(outcomes []runner.SweepOutcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		si, sj := -1.0, -1.0
		if outcomes[i].Result != nil {
			si = outcomes[i].Result.Simulation.Metrics.Sharpe
		}
		if outcomes[j].Result != nil {
			sj = outcomes[j].Result.Simulation.Metrics.Sharpe
		}
		return si > sj
	})

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Sweep Results (sorted by Sharpe)")
	fmt.Println("───────────────────────────────────────────────────────────")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("  %-18s ❌ %v\n", o.Variant.Name, o.Err)
			continue
		}
		m := o.Result.Simulation.Metrics
		fmt.Printf("  %-18s sharpe=%.2f return=%.1f%% mdd=%.1f%% trades=%d validation=%s\n",
			o.Variant.Name, m.Sharpe, m.TotalReturnPct*100, m.MaxDrawdownPct*100,
			m.TradeCount, o.Result.Validation.Result)
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
}

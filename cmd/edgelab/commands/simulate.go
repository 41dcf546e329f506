package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/edgelab/internal/results"
	"github.com/wonny/edgelab/internal/runner"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/config"
	"github.com/wonny/edgelab/pkg/logger"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "시그널 시뮬레이션",
	Long: `과거 데이터 위에서 전략을 재생하고 검증 리포트를 생성합니다.

시뮬레이션은 다음을 산출합니다:
- 체결 장부와 자산 곡선
- 소스별 귀인 분석
- 5종 검증 판정 (out-of-sample, 과적합, 유의성, 안정성, 워크포워드)

Example:
  go run ./cmd/edgelab simulate run --symbol 005930 --prices data/005930.csv --from 2022-01-01
  go run ./cmd/edgelab simulate run --symbol 005930 --prices data/005930.csv \
      --indicator alt_flow=data/alt_flow.csv --from 2022-01-01 --policy voting`,
}

var (
	simulateRunCmd = &cobra.Command{
		Use:   "run",
		Short: "시뮬레이션 실행",
		RunE:  runSimulate,
	}

	// Flags
	simSymbol     string
	simPrices     string
	simIndicators []string
	simFrom       string
	simTo         string
	simPolicy     string
	simSave       bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.AddCommand(simulateRunCmd)

	simulateRunCmd.Flags().StringVar(&simSymbol, "symbol", "", "종목 코드 (필수)")
	simulateRunCmd.Flags().StringVar(&simPrices, "prices", "", "OHLCV CSV 경로 (필수)")
	simulateRunCmd.Flags().StringArrayVar(&simIndicators, "indicator", nil, "지표 CSV (id=path, 반복 가능)")
	simulateRunCmd.Flags().StringVar(&simFrom, "from", "", "시작 날짜 (YYYY-MM-DD, 필수)")
	simulateRunCmd.Flags().StringVar(&simTo, "to", "", "종료 날짜 (YYYY-MM-DD, 기본: 오늘)")
	simulateRunCmd.Flags().StringVar(&simPolicy, "policy", "", "병합 정책 오버라이드 (weighted|voting|max_confidence)")
	simulateRunCmd.Flags().BoolVar(&simSave, "save", false, "결과를 DB에 저장")

	simulateRunCmd.MarkFlagRequired("symbol")
	simulateRunCmd.MarkFlagRequired("prices")
	simulateRunCmd.MarkFlagRequired("from")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, log, err := initRuntime()
	if err != nil {
		return err
	}

	start, end, err := parsePeriod(simFrom, simTo)
	if err != nil {
		return err
	}

	strategy, rawStrategy, err := loadStrategy(cfg)
	if err != nil {
		return err
	}

	feed, err := buildFeed(simSymbol, simPrices, simIndicators)
	if err != nil {
		return err
	}

	run := runner.New(feed, feed.AsIndicatorFeed(), log)

	ctx := context.Background()
	result, err := run.RunSimulation(ctx, runner.RunRequest{
		Symbol: simSymbol,
		Start:  start,
		End:    end,
		Config: strategy,
		Policy: simPolicy,
	})
	if err != nil {
		// 중단된 run도 부분 결과는 출력한다
		if result != nil {
			printRunResult(result)
		}
		return err
	}

	printRunResult(result)

	if simSave {
		snapshot, err := strategyconfig.NewDecisionSnapshot(strategy, rawStrategy)
		if err != nil {
			return err
		}
		if err := saveResult(ctx, cfg, log, result, snapshot); err != nil {
			return err
		}
		fmt.Printf("\n💾 Saved run %s\n", result.RunID)
	}
	return nil
}

// parsePeriod parses --from/--to into a concrete range
func parsePeriod(fromStr, toStr string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}

	end := time.Now()
	if toStr != "" {
		end, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
	}
	return start, end, nil
}

// loadStrategy reads the strategy YAML, falling back to built-in defaults.
// 원본 YAML 바이트는 결정 스냅샷 저장용으로 함께 반환한다
func loadStrategy(cfg *config.Config) (*strategyconfig.Config, []byte, error) {
	path := strategyFile
	if path == "" {
		path = cfg.StrategyConfigPath
	}

	strategy, raw, err := strategyconfig.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load strategy %s: %w", path, err)
	}

	for _, w := range strategyconfig.Warn(strategy) {
		fmt.Printf("⚠️  %s: %s\n", w.Code, w.Message)
	}
	return strategy, raw, nil
}

// buildFeed loads all CSV inputs into a memory feed
func buildFeed(symbol, pricesPath string, indicatorFlags []string) (*runner.MemoryFeed, error) {
	feed := runner.NewMemoryFeed()

	series, err := loadCandlesCSV(pricesPath, symbol)
	if err != nil {
		return nil, err
	}
	feed.AddSeries(series)

	indicators, err := parseIndicatorFlags(indicatorFlags)
	if err != nil {
		return nil, err
	}
	for id, path := range indicators {
		ind, err := loadIndicatorCSV(path, id)
		if err != nil {
			return nil, err
		}
		feed.AddIndicator(ind)
	}
	return feed, nil
}

// saveResult persists a run and its strategy snapshot through the results repository
func saveResult(ctx context.Context, cfg *config.Config, log *logger.Logger, result *runner.RunResult, snapshot *strategyconfig.DecisionSnapshot) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL not configured")
	}

	pool, err := results.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := results.NewRepository(pool)
	if err := repo.SaveSnapshot(ctx, snapshot); err != nil {
		return err
	}
	if err := repo.SaveRun(ctx, result); err != nil {
		return err
	}
	log.WithField("run_id", result.RunID).Info("Run persisted")
	return nil
}

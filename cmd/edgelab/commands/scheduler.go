package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/edgelab/internal/results"
	"github.com/wonny/edgelab/internal/runner"
	"github.com/wonny/edgelab/internal/scheduler"
	"github.com/wonny/edgelab/internal/scheduler/jobs"
	"github.com/wonny/edgelab/internal/strategyconfig"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "정기 재검증 스케줄러",
	Long: `cron 스케줄에 따라 추적 종목들을 주기적으로 재검증합니다.

데이터 디렉토리에서 <symbol>.csv를 가격으로, indicators/<id>.csv를
지표로 읽습니다. 결과는 DATABASE_URL이 설정된 경우 DB에 저장됩니다.

Example:
  go run ./cmd/edgelab scheduler start --data data/ --symbols 005930,035420`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedDataDir string
	schedSymbols string
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)

	schedulerStartCmd.Flags().StringVar(&schedDataDir, "data", "data", "CSV 데이터 디렉토리")
	schedulerStartCmd.Flags().StringVar(&schedSymbols, "symbols", "", "재검증 종목 목록 (쉼표 구분, 필수)")

	schedulerStartCmd.MarkFlagRequired("symbols")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, log, err := initRuntime()
	if err != nil {
		return err
	}

	strategy, rawStrategy, err := loadStrategy(cfg)
	if err != nil {
		return err
	}

	snapshot, err := strategyconfig.NewDecisionSnapshot(strategy, rawStrategy)
	if err != nil {
		return err
	}

	symbols := strings.Split(schedSymbols, ",")
	feed, err := loadDataDir(schedDataDir, symbols)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo *results.Repository
	if cfg.Database.URL != "" {
		pool, err := results.NewPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		repo = results.NewRepository(pool)
	} else {
		log.Warn("DATABASE_URL not set, results will not be persisted")
	}

	run := runner.New(feed, feed.AsIndicatorFeed(), log)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewRevalidateJob(run, repo, strategy, snapshot, cfg, symbols, log)); err != nil {
		return err
	}

	sched.Start()
	fmt.Printf("📅 Scheduler running (revalidate: %s), Ctrl+C to stop\n", cfg.RevalidateSchedule)

	<-ctx.Done()
	sched.Stop()
	return nil
}

// loadDataDir fills a memory feed from <dir>/<symbol>.csv and <dir>/indicators/*.csv
func loadDataDir(dir string, symbols []string) (*runner.MemoryFeed, error) {
	feed := runner.NewMemoryFeed()

	for _, symbol := range symbols {
		series, err := loadCandlesCSV(filepath.Join(dir, symbol+".csv"), symbol)
		if err != nil {
			return nil, err
		}
		feed.AddSeries(series)
	}

	indicatorFiles, err := filepath.Glob(filepath.Join(dir, "indicators", "*.csv"))
	if err != nil {
		return nil, err
	}
	for _, path := range indicatorFiles {
		id := strings.TrimSuffix(filepath.Base(path), ".csv")
		ind, err := loadIndicatorCSV(path, id)
		if err != nil {
			return nil, err
		}
		feed.AddIndicator(ind)
	}
	return feed, nil
}

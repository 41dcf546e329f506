package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/edgelab/internal/results"
	"github.com/wonny/edgelab/internal/runner"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/config"
	"github.com/wonny/edgelab/pkg/logger"
)

// RevalidateJob replays the strategy over the trailing window and re-runs
// validation, so drift shows up before live performance does.
// ⭐ SSOT: 정기 재검증 스케줄은 이 Job에서만
type RevalidateJob struct {
	runner   *runner.Runner
	repo     *results.Repository
	strategy *strategyconfig.Config
	snapshot *strategyconfig.DecisionSnapshot
	config   *config.Config
	symbols  []string
	logger   *logger.Logger
}

// NewRevalidateJob creates the periodic revalidation job
func NewRevalidateJob(run *runner.Runner, repo *results.Repository, strategy *strategyconfig.Config, snapshot *strategyconfig.DecisionSnapshot, cfg *config.Config, symbols []string, log *logger.Logger) *RevalidateJob {
	return &RevalidateJob{
		runner:   run,
		repo:     repo,
		strategy: strategy,
		snapshot: snapshot,
		config:   cfg,
		symbols:  symbols,
		logger:   log,
	}
}

// Name returns the job name
func (j *RevalidateJob) Name() string {
	return "revalidate"
}

// Schedule returns the configured cron schedule
func (j *RevalidateJob) Schedule() string {
	return j.config.RevalidateSchedule
}

// Run revalidates every tracked symbol over the trailing 2 years
func (j *RevalidateJob) Run(ctx context.Context) error {
	end := time.Now().Truncate(24 * time.Hour)
	start := end.AddDate(-2, 0, 0)

	if j.repo != nil && j.snapshot != nil {
		if err := j.repo.SaveSnapshot(ctx, j.snapshot); err != nil {
			return fmt.Errorf("save config snapshot: %w", err)
		}
	}

	for _, symbol := range j.symbols {
		result, err := j.runner.RunSimulation(ctx, runner.RunRequest{
			Symbol: symbol,
			Start:  start,
			End:    end,
			Config: j.strategy,
		})
		if err != nil {
			return fmt.Errorf("revalidate %s: %w", symbol, err)
		}

		if j.repo != nil {
			if err := j.repo.SaveRun(ctx, result); err != nil {
				return fmt.Errorf("save run %s: %w", result.RunID, err)
			}
		}

		j.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"run_id": result.RunID,
			"result": result.Validation.Result,
		}).Info("Symbol revalidated")
	}
	return nil
}

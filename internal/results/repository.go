package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/runner"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/config"
)

// Repository handles run result persistence
// ⭐ SSOT: 결과 저장/조회는 여기서만 (코어 자체는 DB를 모른다)
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new results repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NewPool creates a pgx pool from process config
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return pool, nil
}

// SaveRun persists one run: summary row plus trades and the validation report.
// 같은 run_id 재저장은 전체를 교체한다 (멱등).
func (r *Repository) SaveRun(ctx context.Context, result *runner.RunResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	metricsJSON, err := json.Marshal(result.Simulation.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	attributionJSON, err := json.Marshal(result.Attribution)
	if err != nil {
		return fmt.Errorf("failed to marshal attribution: %w", err)
	}

	query := `
		INSERT INTO results.runs (
			run_id, symbol, config_hash, policy, started_at, finished_at,
			initial_cash, final_equity, trade_count, aborted, abort_reason,
			metrics, attribution
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (run_id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			config_hash = EXCLUDED.config_hash,
			policy = EXCLUDED.policy,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			initial_cash = EXCLUDED.initial_cash,
			final_equity = EXCLUDED.final_equity,
			trade_count = EXCLUDED.trade_count,
			aborted = EXCLUDED.aborted,
			abort_reason = EXCLUDED.abort_reason,
			metrics = EXCLUDED.metrics,
			attribution = EXCLUDED.attribution
	`

	_, err = tx.Exec(ctx, query,
		result.RunID, result.Symbol, result.ConfigHash, result.Policy,
		result.StartedAt, result.FinishedAt,
		result.Simulation.InitialCash, result.Simulation.FinalEquity,
		len(result.Simulation.Trades), result.Simulation.Aborted, result.Simulation.AbortReason,
		metricsJSON, attributionJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if err := r.saveTrades(ctx, tx, result.RunID, result.Simulation.Trades); err != nil {
		return err
	}
	if err := r.saveValidation(ctx, tx, result.RunID, result.Validation); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// saveTrades replaces the run's trade ledger rows
func (r *Repository) saveTrades(ctx context.Context, tx pgx.Tx, runID string, trades []contracts.Trade) error {
	_, err := tx.Exec(ctx, "DELETE FROM results.trades WHERE run_id = $1", runID)
	if err != nil {
		return fmt.Errorf("failed to delete old trades: %w", err)
	}

	query := `
		INSERT INTO results.trades (
			run_id, symbol, direction, quantity, entry_time, entry_price,
			exit_time, exit_price, realized_pnl, return_pct, commission,
			slippage, exit_reason, source_tag, producer_ids
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	for _, t := range trades {
		producerIDsJSON, err := json.Marshal(t.ProducerIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal producer ids: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			runID, t.Symbol, string(t.Direction), t.Quantity, t.EntryTime, t.EntryPrice,
			t.ExitTime, t.ExitPrice, t.RealizedPnL, t.ReturnPct, t.Commission,
			t.Slippage, t.ExitReason, string(t.SourceTag), producerIDsJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}
	}
	return nil
}

// saveValidation replaces the run's validation report row
func (r *Repository) saveValidation(ctx context.Context, tx pgx.Tx, runID string, report *contracts.ValidationReport) error {
	if report == nil {
		return nil
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal validation report: %w", err)
	}

	query := `
		INSERT INTO results.validation_reports (
			run_id, generated_at, result, confidence_score, report
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id) DO UPDATE SET
			generated_at = EXCLUDED.generated_at,
			result = EXCLUDED.result,
			confidence_score = EXCLUDED.confidence_score,
			report = EXCLUDED.report
	`

	_, err = tx.Exec(ctx, query,
		runID, report.GeneratedAt, string(report.Result), report.ConfidenceScore, reportJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save validation report: %w", err)
	}
	return nil
}

// SaveSnapshot records the exact strategy YAML behind a config hash.
// 같은 해시면 내용도 같으므로 최초 1회만 기록하면 된다
func (r *Repository) SaveSnapshot(ctx context.Context, snap *strategyconfig.DecisionSnapshot) error {
	query := `
		INSERT INTO results.config_snapshots (
			config_hash, strategy_id, config_yaml, created_at
		) VALUES ($1, $2, $3, $4)
		ON CONFLICT (config_hash) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		snap.ConfigHash, snap.StrategyID, snap.ConfigYAML, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save config snapshot: %w", err)
	}
	return nil
}

// GetSnapshot loads the strategy YAML that a run's config_hash points to
func (r *Repository) GetSnapshot(ctx context.Context, configHash string) (*strategyconfig.DecisionSnapshot, error) {
	query := `
		SELECT config_hash, strategy_id, config_yaml, created_at
		FROM results.config_snapshots
		WHERE config_hash = $1
	`

	var snap strategyconfig.DecisionSnapshot
	err := r.pool.QueryRow(ctx, query, configHash).Scan(
		&snap.ConfigHash, &snap.StrategyID, &snap.ConfigYAML, &snap.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("no snapshot for config %s", configHash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snap, nil
}

// RunSummary is the persisted run header
type RunSummary struct {
	RunID       string    `json:"run_id"`
	Symbol      string    `json:"symbol"`
	ConfigHash  string    `json:"config_hash"`
	Policy      string    `json:"policy"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	InitialCash float64   `json:"initial_cash"`
	FinalEquity float64   `json:"final_equity"`
	TradeCount  int       `json:"trade_count"`
	Aborted     bool      `json:"aborted"`
	AbortReason string    `json:"abort_reason"`
}

// GetRun retrieves one run summary
func (r *Repository) GetRun(ctx context.Context, runID string) (*RunSummary, error) {
	query := `
		SELECT run_id, symbol, config_hash, policy, started_at, finished_at,
		       initial_cash, final_equity, trade_count, aborted, abort_reason
		FROM results.runs
		WHERE run_id = $1
	`

	var s RunSummary
	err := r.pool.QueryRow(ctx, query, runID).Scan(
		&s.RunID, &s.Symbol, &s.ConfigHash, &s.Policy, &s.StartedAt, &s.FinishedAt,
		&s.InitialCash, &s.FinalEquity, &s.TradeCount, &s.Aborted, &s.AbortReason,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &s, nil
}

// ListRuns retrieves recent run summaries for a symbol
func (r *Repository) ListRuns(ctx context.Context, symbol string, limit int) ([]RunSummary, error) {
	query := `
		SELECT run_id, symbol, config_hash, policy, started_at, finished_at,
		       initial_cash, final_equity, trade_count, aborted, abort_reason
		FROM results.runs
		WHERE symbol = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]RunSummary, 0)
	for rows.Next() {
		var s RunSummary
		err := rows.Scan(
			&s.RunID, &s.Symbol, &s.ConfigHash, &s.Policy, &s.StartedAt, &s.FinishedAt,
			&s.InitialCash, &s.FinalEquity, &s.TradeCount, &s.Aborted, &s.AbortReason,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return summaries, nil
}

// GetValidationReport retrieves the stored validation report for a run
func (r *Repository) GetValidationReport(ctx context.Context, runID string) (*contracts.ValidationReport, error) {
	query := `
		SELECT report
		FROM results.validation_reports
		WHERE run_id = $1
	`

	var reportJSON []byte
	err := r.pool.QueryRow(ctx, query, runID).Scan(&reportJSON)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("no validation report for run %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get validation report: %w", err)
	}

	var report contracts.ValidationReport
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/edgelab/internal/attribution"
	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/merge"
	"github.com/wonny/edgelab/internal/producers"
	"github.com/wonny/edgelab/internal/sim"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/internal/validation"
	"github.com/wonny/edgelab/pkg/logger"
)

// RunRequest describes one simulation run.
// Policy/weight 오버라이드는 설정 사본에만 적용된다 (스윕용).
type RunRequest struct {
	RunID  string // 비어 있으면 자동 생성
	Symbol string
	Start  time.Time
	End    time.Time

	Config *strategyconfig.Config

	// 선택적 오버라이드
	Policy      string
	PriceWeight float64
	AltWeight   float64
}

// RunResult bundles everything one run produced
type RunResult struct {
	RunID       string                       `json:"run_id"`
	Symbol      string                       `json:"symbol"`
	ConfigHash  string                       `json:"config_hash"`
	Policy      string                       `json:"policy"`
	StartedAt   time.Time                    `json:"started_at"`
	FinishedAt  time.Time                    `json:"finished_at"`
	Simulation  *sim.Result                  `json:"simulation"`
	Attribution *contracts.AttributionReport `json:"attribution"`
	Validation  *contracts.ValidationReport  `json:"validation"`
}

// Runner is the single externally callable entry point of the core.
// ⭐ SSOT: 시뮬레이션 실행 진입점은 여기서만
// 상태를 공유하지 않으므로 여러 run을 병렬로 돌려도 안전하다.
type Runner struct {
	prices     contracts.PriceFeed
	indicators contracts.IndicatorFeed
	logger     *logger.Logger
}

// New wires the feeds into a runner
func New(prices contracts.PriceFeed, indicators contracts.IndicatorFeed, log *logger.Logger) *Runner {
	return &Runner{prices: prices, indicators: indicators, logger: log}
}

// RunSimulation executes one full run: load, simulate, attribute, validate.
// 설정 오류는 시뮬레이션 시작 전에 (생성 시점에) 실패한다.
func (r *Runner) RunSimulation(ctx context.Context, req RunRequest) (*RunResult, error) {
	cfg, err := applyOverrides(req)
	if err != nil {
		return nil, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash config: %w", err)
	}

	log := r.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"symbol": req.Symbol,
	})
	log.Info("Run started")

	series, indicatorSeries, err := r.loadData(ctx, req, cfg)
	if err != nil {
		return nil, err
	}

	prods := buildProducers(cfg, r.logger)
	merger, err := merge.New(cfg.Merge, r.logger)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:      runID,
		Symbol:     req.Symbol,
		ConfigHash: hash,
		Policy:     cfg.Merge.Policy,
		StartedAt:  time.Now().UTC(),
	}

	engine := sim.NewEngine(cfg, prods, merger, r.logger)
	simResult, runErr := engine.Run(ctx, series, indicatorSeries)

	// 중단된 run도 부분 장부는 분석/보고된다
	result.Simulation = simResult
	result.Attribution = attribution.NewAnalyzer(r.logger).Analyze(simResult.Trades)
	result.Validation = validation.NewFramework(cfg.Validation, r.logger).Validate(runID, simResult)
	result.FinishedAt = time.Now().UTC()

	if runErr != nil {
		log.WithError(runErr).Error("Run aborted")
		return result, runErr
	}

	log.WithFields(map[string]interface{}{
		"trades": len(simResult.Trades),
		"result": result.Validation.Result,
	}).Info("Run finished")
	return result, nil
}

// applyOverrides copies the config, applies sweep overrides and re-validates
func applyOverrides(req RunRequest) (*strategyconfig.Config, error) {
	if req.Config == nil {
		return nil, strategyconfig.ValidationError{Field: "config", Message: "config is required"}
	}

	cfg := *req.Config
	if req.Policy != "" {
		cfg.Merge.Policy = req.Policy
	}
	if req.PriceWeight > 0 || req.AltWeight > 0 {
		cfg.Merge.PriceWeight = req.PriceWeight
		cfg.Merge.AltWeight = req.AltWeight
	}

	if err := strategyconfig.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadData pulls prices and every configured indicator from the feeds
func (r *Runner) loadData(ctx context.Context, req RunRequest, cfg *strategyconfig.Config) (*contracts.Series, []contracts.IndicatorSeries, error) {
	series, err := r.prices.Load(ctx, req.Symbol, req.Start, req.End)
	if err != nil {
		return nil, nil, fmt.Errorf("load prices: %w", err)
	}

	ids := indicatorIDs(cfg)
	indicatorSeries := make([]contracts.IndicatorSeries, 0, len(ids))
	for _, id := range ids {
		s, err := r.indicators.Load(ctx, id, req.Start, req.End)
		if err != nil {
			return nil, nil, fmt.Errorf("load indicator %s: %w", id, err)
		}
		indicatorSeries = append(indicatorSeries, *s)
	}
	return series, indicatorSeries, nil
}

// indicatorIDs collects every indicator the configured producers consume
func indicatorIDs(cfg *strategyconfig.Config) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)

	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	add(cfg.Producers.CorrRegime.IndicatorID)
	for _, m := range cfg.Producers.MacroHedge.Indicators {
		add(m.ID)
	}
	return ids
}

// buildProducers instantiates the fixed producer set.
// 프로듀서 추가는 설정이 아니라 코드 변경이다 (닫힌 집합).
func buildProducers(cfg *strategyconfig.Config, log *logger.Logger) []producers.Producer {
	prods := []producers.Producer{
		producers.NewTrendProducer(cfg.Producers.Trend, log),
	}
	if cfg.Producers.CorrRegime.IndicatorID != "" {
		prods = append(prods, producers.NewCorrRegimeProducer(cfg.Producers.CorrRegime, log))
	}
	if len(cfg.Producers.MacroHedge.Indicators) > 0 {
		prods = append(prods, producers.NewMacroHedgeProducer(cfg.Producers.MacroHedge, log))
	}
	return prods
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/edgelab/pkg/config"
	"github.com/wonny/edgelab/pkg/logger"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "edgelab",
	Short: "EdgeLab - 트레이딩 시그널 검증 코어",
	Long: `EdgeLab Unified CLI

시그널 프로듀서 → 병합 → 시뮬레이션 → 귀인 분석 → 검증 파이프라인.
전략이 실계좌에 가기 전에 통계적으로 살아남는지 판정합니다.

Usage:
  go run ./cmd/edgelab [command]

Examples:
  go run ./cmd/edgelab simulate run --symbol 005930 --prices data/005930.csv --from 2023-01-01
  go run ./cmd/edgelab sweep --symbol 005930 --prices data/005930.csv --from 2023-01-01
  go run ./cmd/edgelab stress`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default from STRATEGY_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initRuntime loads process config and builds the logger
func initRuntime() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

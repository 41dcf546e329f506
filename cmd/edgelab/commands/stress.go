package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/producers"
)

// stressCmd represents the stress command
var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "스트레스 테스트",
	Long: `가상의 시장 충격을 현재 포트폴리오에 적용하고 예상 낙폭을 계산합니다.

Example:
  go run ./cmd/edgelab stress --cash 500000 --position 005930=100@70000
  go run ./cmd/edgelab stress --cash 500000 --position 005930=100@70000 --position 035420=50@200000`,
	RunE: runStress,
}

var (
	stressCash      float64
	stressPositions []string
)

func init() {
	rootCmd.AddCommand(stressCmd)

	stressCmd.Flags().Float64Var(&stressCash, "cash", 0, "보유 현금")
	stressCmd.Flags().StringArrayVar(&stressPositions, "position", nil, "포지션 (symbol=qty@price, 반복 가능)")
}

func runStress(cmd *cobra.Command, args []string) error {
	cfg, log, err := initRuntime()
	if err != nil {
		return err
	}

	strategy, _, err := loadStrategy(cfg)
	if err != nil {
		return err
	}

	snapshot := &contracts.PortfolioSnapshot{
		Timestamp: time.Now(),
		Cash:      stressCash,
	}
	for _, p := range stressPositions {
		pos, err := parsePosition(p)
		if err != nil {
			return err
		}
		snapshot.Positions = append(snapshot.Positions, pos)
	}

	hedge := producers.NewMacroHedgeProducer(strategy.Producers.MacroHedge, log)
	results := hedge.StressTest(snapshot, defaultScenarios())

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Stress Test (portfolio value %.0f)\n", snapshot.TotalValue())
	fmt.Println("───────────────────────────────────────────────────────────")
	for _, r := range results {
		fmt.Printf("  %-22s shocked=%.0f drawdown=%.1f%%\n",
			r.Scenario, r.ShockedValue, r.ExpectedDrawdownPct*100)
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
	return nil
}

// parsePosition parses symbol=qty@price
func parsePosition(s string) (contracts.PositionExposure, error) {
	var pos contracts.PositionExposure

	eq := strings.SplitN(s, "=", 2)
	if len(eq) != 2 {
		return pos, fmt.Errorf("invalid --position %q, expected symbol=qty@price", s)
	}
	at := strings.SplitN(eq[1], "@", 2)
	if len(at) != 2 {
		return pos, fmt.Errorf("invalid --position %q, expected symbol=qty@price", s)
	}

	qty, err := strconv.ParseFloat(at[0], 64)
	if err != nil {
		return pos, fmt.Errorf("invalid quantity %q", at[0])
	}
	price, err := strconv.ParseFloat(at[1], 64)
	if err != nil {
		return pos, fmt.Errorf("invalid price %q", at[1])
	}

	return contracts.PositionExposure{Symbol: eq[0], Quantity: qty, Price: price}, nil
}

// defaultScenarios is the standard shock set
func defaultScenarios() []producers.StressScenario {
	return []producers.StressScenario{
		{Name: "market_crash_15", Shocks: map[string]float64{"*": -0.15}},
		{Name: "market_crash_30", Shocks: map[string]float64{"*": -0.30}},
		{Name: "mild_correction", Shocks: map[string]float64{"*": -0.07}},
		{Name: "melt_up", Shocks: map[string]float64{"*": 0.10}},
	}
}

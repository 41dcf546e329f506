package producers

import (
	"context"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/logger"
)

// AlertLevel classifies macro stress severity
type AlertLevel string

const (
	AlertGreen  AlertLevel = "green"
	AlertYellow AlertLevel = "yellow"
	AlertOrange AlertLevel = "orange"
	AlertRed    AlertLevel = "red"
)

// rank orders alert levels from calm to severe
func (a AlertLevel) rank() int {
	switch a {
	case AlertYellow:
		return 1
	case AlertOrange:
		return 2
	case AlertRed:
		return 3
	default:
		return 0
	}
}

// hedgeStrength maps alert severity to opinion strength
var hedgeStrength = map[AlertLevel]float64{
	AlertGreen:  0,
	AlertYellow: 0.3,
	AlertOrange: 0.6,
	AlertRed:    0.9,
}

// MacroHedgeProducer monitors macro indicators against thresholds and emits
// hedge-sizing opinions.
// ⭐ SSOT: 매크로 경보 판정과 스트레스 테스트는 여기서만
type MacroHedgeProducer struct {
	cfg    strategyconfig.MacroHedge
	logger *logger.Logger
}

// NewMacroHedgeProducer creates a new macro-hedge producer
func NewMacroHedgeProducer(cfg strategyconfig.MacroHedge, log *logger.Logger) *MacroHedgeProducer {
	return &MacroHedgeProducer{cfg: cfg, logger: log}
}

// ID implements Producer
func (p *MacroHedgeProducer) ID() string { return "macro_hedge" }

// Kind implements Producer
func (p *MacroHedgeProducer) Kind() contracts.SourceKind { return contracts.SourceKindAlt }

// Produce classifies the overall alert level and emits a hedge opinion.
// 전체 경보는 지표별 경보 중 가장 심한 것.
func (p *MacroHedgeProducer) Produce(ctx context.Context, window *contracts.DataWindow) (*contracts.Opinion, error) {
	overall := AlertGreen
	metrics := make(map[string]float64, len(p.cfg.Indicators))
	observed := 0

	for _, ind := range p.cfg.Indicators {
		points, ok := window.Indicator(ind.ID)
		if !ok || len(points) == 0 {
			continue
		}
		if len(points) < p.cfg.MinObservations {
			continue
		}
		observed++

		value := points[len(points)-1].Value
		metrics[ind.ID] = value

		level := classifyAlert(ind, value)
		if level.rank() > overall.rank() {
			overall = level
		}
	}

	if observed == 0 {
		// 모든 매크로 지표가 관측 불가: 의견 없음
		return nil, nil
	}

	direction := contracts.DirectionFlat
	strength := hedgeStrength[overall]
	if overall != AlertGreen {
		// 헤지 = 숏 방향 의견, 강도는 경보 심각도에 비례
		direction = contracts.DirectionShort
	}

	p.logger.WithFields(map[string]interface{}{
		"alert":      string(overall),
		"indicators": observed,
	}).Debug("Classified macro alert level")

	metrics["alert_rank"] = float64(overall.rank())

	return &contracts.Opinion{
		ProducerID: p.ID(),
		Kind:       p.Kind(),
		Timestamp:  window.End,
		Direction:  direction,
		Strength:   strength,
		Metrics:    metrics,
	}, nil
}

// classifyAlert maps one indicator value to an alert level
func classifyAlert(ind strategyconfig.MacroIndicator, value float64) AlertLevel {
	if ind.Invert {
		switch {
		case value <= ind.Red:
			return AlertRed
		case value <= ind.Orange:
			return AlertOrange
		case value <= ind.Yellow:
			return AlertYellow
		default:
			return AlertGreen
		}
	}
	switch {
	case value >= ind.Red:
		return AlertRed
	case value >= ind.Orange:
		return AlertOrange
	case value >= ind.Yellow:
		return AlertYellow
	default:
		return AlertGreen
	}
}

// =============================================================================
// Stress Test
// =============================================================================

// StressScenario is a hypothetical shock, per symbol ("*" = 전체 시장)
type StressScenario struct {
	Name   string             `json:"name"`
	Shocks map[string]float64 `json:"shocks"` // 수익률 충격 (예: -0.15)
}

// StressResult reports the expected impact of one scenario
type StressResult struct {
	Scenario            string  `json:"scenario"`
	PortfolioValue      float64 `json:"portfolio_value"`
	ShockedValue        float64 `json:"shocked_value"`
	ExpectedDrawdownPct float64 `json:"expected_drawdown_pct"`
}

// StressTest replays hypothetical shocks against the current simulated
// portfolio and reports expected drawdown per scenario.
// 순수 계산: 포트폴리오 스냅샷 조립은 호출자(시뮬레이터)의 몫.
func (p *MacroHedgeProducer) StressTest(snapshot *contracts.PortfolioSnapshot, scenarios []StressScenario) []StressResult {
	results := make([]StressResult, 0, len(scenarios))
	baseValue := snapshot.TotalValue()

	for _, scenario := range scenarios {
		shockedValue := snapshot.Cash

		for _, pos := range snapshot.Positions {
			shock, exists := scenario.Shocks[pos.Symbol]
			if !exists {
				shock, exists = scenario.Shocks["*"]
				if !exists {
					shockedValue += pos.MarketValue()
					continue
				}
			}
			shockedValue += pos.Quantity * pos.Price * (1 + shock)
		}

		drawdown := 0.0
		if baseValue > 0 && shockedValue < baseValue {
			drawdown = (baseValue - shockedValue) / baseValue
		}

		results = append(results, StressResult{
			Scenario:            scenario.Name,
			PortfolioValue:      baseValue,
			ShockedValue:        shockedValue,
			ExpectedDrawdownPct: drawdown,
		})
	}

	return results
}

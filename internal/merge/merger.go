package merge

import (
	"fmt"
	"time"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/stats"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/logger"
)

// 가중 정책 confidence 공식의 고정 계수
const (
	confStrengthWeight  = 0.7
	confAgreementWeight = 0.2
	confCorrWeight      = 0.1
)

// Merger combines producer opinions into one decision per period.
// ⭐ SSOT: 시그널 병합은 여기서만
// 머저는 run마다 하나씩 생성되고 자신의 decision log를 소유한다.
// 워크포워드 재최적화 패스는 각자 별도 머저(별도 가중치 사본)를 만든다.
type Merger struct {
	policy        contracts.MergePolicy
	minConfidence float64

	// 소스 종류별 가중치 (적응형, run 내에서만 변경)
	kindWeights map[contracts.SourceKind]float64

	// 수익률 상관 기반 보정값 (0.0 ~ 1.0, 0.5 = 중립)
	corrAdjust float64

	log    *contracts.DecisionLog
	logger *logger.Logger
}

// New creates a merger from a validated merge config
func New(cfg strategyconfig.Merge, log *logger.Logger) (*Merger, error) {
	policy := contracts.MergePolicy(cfg.Policy)
	if !policy.Valid() {
		return nil, strategyconfig.ValidationError{Field: "merge.policy", Message: fmt.Sprintf("unknown policy %q", cfg.Policy)}
	}

	return &Merger{
		policy:        policy,
		minConfidence: cfg.MinConfidence,
		kindWeights: map[contracts.SourceKind]float64{
			contracts.SourceKindPrice: cfg.PriceWeight,
			contracts.SourceKindAlt:   cfg.AltWeight,
		},
		corrAdjust: 0.5,
		log:        contracts.NewDecisionLog(),
		logger:     log,
	}, nil
}

// DecisionLog returns the merger's append-only decision log
func (m *Merger) DecisionLog() *contracts.DecisionLog {
	return m.log
}

// Weights returns a copy of the current kind weights
func (m *Merger) Weights() map[string]float64 {
	return map[string]float64{
		string(contracts.SourceKindPrice): m.kindWeights[contracts.SourceKindPrice],
		string(contracts.SourceKindAlt):   m.kindWeights[contracts.SourceKindAlt],
	}
}

// Merge combines the opinions active at ts into one decision.
// 결정은 항상 decision log에 추가된다 (유일한 관측 가능한 부수효과).
func (m *Merger) Merge(ts time.Time, opinions []contracts.Opinion) contracts.MergedDecision {
	var decision contracts.MergedDecision

	if len(opinions) == 0 {
		decision = contracts.MergedDecision{
			Timestamp:    ts,
			Direction:    contracts.DirectionFlat,
			Confidence:   0,
			Contributing: nil,
			Policy:       m.policy,
		}
		m.log.Append(decision)
		return decision
	}

	contributing := make([]contracts.Opinion, len(opinions))
	copy(contributing, opinions)

	switch m.policy {
	case contracts.PolicyVoting:
		decision = m.mergeVoting(ts, contributing)
	case contracts.PolicyMaxConfidence:
		decision = m.mergeMaxConfidence(ts, contributing)
	default:
		decision = m.mergeWeighted(ts, contributing)
	}

	// 최소 신뢰도 미달은 flat 강제 (기여 의견은 추적을 위해 유지)
	if decision.Direction != contracts.DirectionFlat && decision.Confidence < m.minConfidence {
		m.logger.WithFields(map[string]interface{}{
			"confidence": decision.Confidence,
			"threshold":  m.minConfidence,
		}).Debug("Decision below confidence threshold, forced flat")
		decision.Direction = contracts.DirectionFlat
	}

	m.log.Append(decision)
	return decision
}

// mergeWeighted blends opinions with kind weights and the fixed confidence formula
func (m *Merger) mergeWeighted(ts time.Time, opinions []contracts.Opinion) contracts.MergedDecision {
	var score, weightSum float64
	strengths := make([]float64, 0, len(opinions))

	for _, op := range opinions {
		w := m.kindWeights[op.Kind]
		score += w * op.Strength * op.Direction.Sign()
		weightSum += w
		strengths = append(strengths, op.Strength)
	}
	if weightSum > 0 {
		score /= weightSum
	}

	direction := contracts.DirectionFlat
	if score > 1e-9 {
		direction = contracts.DirectionLong
	} else if score < -1e-9 {
		direction = contracts.DirectionShort
	}

	confidence := confStrengthWeight*stats.Mean(strengths) +
		confAgreementWeight*agreement(opinions, direction) +
		confCorrWeight*m.corrAdjust

	return contracts.MergedDecision{
		Timestamp:    ts,
		Direction:    direction,
		Confidence:   stats.Clamp01(confidence),
		Contributing: opinions,
		Policy:       m.policy,
	}
}

// mergeVoting applies majority voting; ties resolve to flat
func (m *Merger) mergeVoting(ts time.Time, opinions []contracts.Opinion) contracts.MergedDecision {
	var longs, shorts int
	for _, op := range opinions {
		switch op.Direction {
		case contracts.DirectionLong:
			longs++
		case contracts.DirectionShort:
			shorts++
		}
	}

	direction := contracts.DirectionFlat
	switch {
	case longs > shorts:
		direction = contracts.DirectionLong
	case shorts > longs:
		direction = contracts.DirectionShort
	}

	// 다수파 의견 강도의 평균이 신뢰도
	var winners []float64
	for _, op := range opinions {
		if op.Direction == direction {
			winners = append(winners, op.Strength)
		}
	}
	confidence := 0.0
	if direction != contracts.DirectionFlat {
		confidence = stats.Mean(winners)
	}

	return contracts.MergedDecision{
		Timestamp:    ts,
		Direction:    direction,
		Confidence:   stats.Clamp01(confidence),
		Contributing: opinions,
		Policy:       m.policy,
	}
}

// mergeMaxConfidence adopts the single strongest opinion verbatim.
// 단일 의견 입력에 대해 멱등: 방향/강도가 그대로 출력된다.
func (m *Merger) mergeMaxConfidence(ts time.Time, opinions []contracts.Opinion) contracts.MergedDecision {
	best := opinions[0]
	for _, op := range opinions[1:] {
		if op.Strength > best.Strength {
			best = op
		}
	}

	return contracts.MergedDecision{
		Timestamp:    ts,
		Direction:    best.Direction,
		Confidence:   stats.Clamp01(best.Strength),
		Contributing: []contracts.Opinion{best},
		Policy:       m.policy,
	}
}

// agreement returns the fraction of directional opinions that agree with dir
func agreement(opinions []contracts.Opinion, dir contracts.Direction) float64 {
	if dir == contracts.DirectionFlat {
		return 0
	}
	var directional, agreeing int
	for _, op := range opinions {
		if op.Direction == contracts.DirectionFlat {
			continue
		}
		directional++
		if op.Direction == dir {
			agreeing++
		}
	}
	if directional == 0 {
		return 0
	}
	return float64(agreeing) / float64(directional)
}

// =============================================================================
// Weight Adaptation
// =============================================================================

// ProducerCorrelation is a producer's historical correlation with realized returns
type ProducerCorrelation struct {
	ProducerID  string
	Kind        contracts.SourceKind
	Correlation float64
}

// AdaptWeights adjusts kind weights upward for kinds whose producers show
// positive historical correlation with realized returns, then renormalizes.
// 재조정 주기/룩백은 호출자(runner/walk-forward) 설정에 따른다.
func (m *Merger) AdaptWeights(correlations []ProducerCorrelation) {
	if len(correlations) == 0 {
		return
	}

	kindCorr := make(map[contracts.SourceKind][]float64)
	all := make([]float64, 0, len(correlations))
	for _, pc := range correlations {
		kindCorr[pc.Kind] = append(kindCorr[pc.Kind], pc.Correlation)
		all = append(all, pc.Correlation)
	}

	const eta = 0.5 // 적응 강도
	total := 0.0
	for kind, weight := range m.kindWeights {
		corr := stats.Mean(kindCorr[kind])
		adjusted := weight * (1 + eta*corr)
		if adjusted < 0.05 {
			adjusted = 0.05 // 어느 소스도 완전히 끄지 않는다
		}
		m.kindWeights[kind] = adjusted
		total += adjusted
	}
	for kind := range m.kindWeights {
		m.kindWeights[kind] /= total
	}

	m.corrAdjust = stats.Clamp01(0.5 + stats.Mean(all)/2)

	m.logger.WithFields(map[string]interface{}{
		"price_weight": m.kindWeights[contracts.SourceKindPrice],
		"alt_weight":   m.kindWeights[contracts.SourceKindAlt],
		"corr_adjust":  m.corrAdjust,
	}).Debug("Adapted merge weights")
}

// SetWeights overrides kind weights directly (워크포워드 재최적화용)
func (m *Merger) SetWeights(price, alt float64) {
	total := price + alt
	if total <= 0 {
		return
	}
	m.kindWeights[contracts.SourceKindPrice] = price / total
	m.kindWeights[contracts.SourceKindAlt] = alt / total
}

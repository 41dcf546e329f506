package contracts

import "time"

// MergePolicy selects how opinions are combined into one decision
type MergePolicy string

const (
	PolicyWeighted      MergePolicy = "weighted"
	PolicyVoting        MergePolicy = "voting"
	PolicyMaxConfidence MergePolicy = "max_confidence"
)

// Valid reports whether p is a known merge policy
func (p MergePolicy) Valid() bool {
	return p == PolicyWeighted || p == PolicyVoting || p == PolicyMaxConfidence
}

// MergedDecision is the combined trading decision for one timestamp.
// ⭐ SSOT: 머저 → 시뮬레이터 의사결정 전달
// Invariant: Confidence는 기여 의견들의 강도/합의/상관 가중의 결정적 함수이며,
// direction이 flat이 아니면 Contributing은 비어 있을 수 없다.
type MergedDecision struct {
	Timestamp    time.Time   `json:"timestamp"`
	Direction    Direction   `json:"direction"`
	Confidence   float64     `json:"confidence"` // 0.0 ~ 1.0
	Contributing []Opinion   `json:"contributing_opinions"`
	Policy       MergePolicy `json:"merge_policy_used"`
}

// SourceTag derives the attribution label from the contributing producers
func (d *MergedDecision) SourceTag() SourceTag {
	var hasPrice, hasAlt bool
	for _, op := range d.Contributing {
		switch op.Kind {
		case SourceKindPrice:
			hasPrice = true
		case SourceKindAlt:
			hasAlt = true
		}
	}
	switch {
	case hasPrice && hasAlt:
		return SourceCombined
	case hasAlt:
		return SourceAltOnly
	default:
		return SourcePriceOnly
	}
}

// ProducerIDs returns the ids of all contributing producers
func (d *MergedDecision) ProducerIDs() []string {
	ids := make([]string, 0, len(d.Contributing))
	for _, op := range d.Contributing {
		ids = append(ids, op.ProducerID)
	}
	return ids
}

// DecisionLog is the append-only record of merged decisions for one run.
// 시뮬레이션 run별로 하나씩 소유; 다른 run과 절대 공유되지 않는다.
type DecisionLog struct {
	decisions []MergedDecision
}

// NewDecisionLog creates an empty decision log
func NewDecisionLog() *DecisionLog {
	return &DecisionLog{decisions: make([]MergedDecision, 0)}
}

// Append adds a decision to the log
func (l *DecisionLog) Append(d MergedDecision) {
	l.decisions = append(l.decisions, d)
}

// Len returns the number of logged decisions
func (l *DecisionLog) Len() int {
	return len(l.decisions)
}

// All returns a copy of the logged decisions in order
func (l *DecisionLog) All() []MergedDecision {
	out := make([]MergedDecision, len(l.decisions))
	copy(out, l.decisions)
	return out
}

package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/strategyconfig"
	"github.com/wonny/edgelab/pkg/logger"
)

var testTS = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func newMerger(t *testing.T, policy string) *Merger {
	t.Helper()

	cfg := strategyconfig.Default().Merge
	cfg.Policy = policy

	m, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	return m
}

func opinion(id string, kind contracts.SourceKind, dir contracts.Direction, strength float64) contracts.Opinion {
	return contracts.Opinion{
		ProducerID: id,
		Kind:       kind,
		Timestamp:  testTS,
		Direction:  dir,
		Strength:   strength,
	}
}

func TestMerge_UnknownPolicy(t *testing.T) {
	cfg := strategyconfig.Default().Merge
	cfg.Policy = "coin_flip"

	_, err := New(cfg, logger.NewNop())
	assert.Error(t, err)
}

// 두 프로듀서가 모두 long(0.8, 0.6)일 때 voting: long, 신뢰도는 평균 0.7,
// 기여 의견에 두 id가 모두 남는다.
func TestMerge_VotingMajority(t *testing.T) {
	m := newMerger(t, "voting")

	d := m.Merge(testTS, []contracts.Opinion{
		opinion("trend", contracts.SourceKindPrice, contracts.DirectionLong, 0.8),
		opinion("corr_regime", contracts.SourceKindAlt, contracts.DirectionLong, 0.6),
	})

	assert.Equal(t, contracts.DirectionLong, d.Direction)
	assert.InDelta(t, 0.7, d.Confidence, 1e-9)
	assert.ElementsMatch(t, []string{"trend", "corr_regime"}, d.ProducerIDs())
	assert.Equal(t, contracts.SourceCombined, d.SourceTag())
}

func TestMerge_VotingTieIsFlat(t *testing.T) {
	m := newMerger(t, "voting")

	d := m.Merge(testTS, []contracts.Opinion{
		opinion("trend", contracts.SourceKindPrice, contracts.DirectionLong, 0.9),
		opinion("corr_regime", contracts.SourceKindAlt, contracts.DirectionShort, 0.9),
	})
	assert.Equal(t, contracts.DirectionFlat, d.Direction)
}

// max_confidence는 단일 의견 입력에 대해 멱등: 방향/강도가 그대로 나온다
func TestMerge_MaxConfidenceIdempotent(t *testing.T) {
	m := newMerger(t, "max_confidence")

	in := opinion("trend", contracts.SourceKindPrice, contracts.DirectionShort, 0.85)
	d := m.Merge(testTS, []contracts.Opinion{in})

	assert.Equal(t, in.Direction, d.Direction)
	assert.InDelta(t, in.Strength, d.Confidence, 1e-9)
	require.Len(t, d.Contributing, 1)
	assert.Equal(t, "trend", d.Contributing[0].ProducerID)
}

func TestMerge_MaxConfidencePicksStrongest(t *testing.T) {
	m := newMerger(t, "max_confidence")

	d := m.Merge(testTS, []contracts.Opinion{
		opinion("trend", contracts.SourceKindPrice, contracts.DirectionLong, 0.4),
		opinion("macro_hedge", contracts.SourceKindAlt, contracts.DirectionShort, 0.9),
	})
	assert.Equal(t, contracts.DirectionShort, d.Direction)
	assert.InDelta(t, 0.9, d.Confidence, 1e-9)
}

func TestMerge_WeightedConfidenceBounds(t *testing.T) {
	m := newMerger(t, "weighted")

	d := m.Merge(testTS, []contracts.Opinion{
		opinion("trend", contracts.SourceKindPrice, contracts.DirectionLong, 1.0),
		opinion("corr_regime", contracts.SourceKindAlt, contracts.DirectionLong, 1.0),
	})

	assert.Equal(t, contracts.DirectionLong, d.Direction)
	assert.GreaterOrEqual(t, d.Confidence, 0.0)
	assert.LessOrEqual(t, d.Confidence, 1.0)
}

func TestMerge_MinConfidenceForcesFlat(t *testing.T) {
	cfg := strategyconfig.Default().Merge
	cfg.MinConfidence = 0.95 // 사실상 통과 불가

	m, err := New(cfg, logger.NewNop())
	require.NoError(t, err)

	d := m.Merge(testTS, []contracts.Opinion{
		opinion("trend", contracts.SourceKindPrice, contracts.DirectionLong, 0.5),
	})

	assert.Equal(t, contracts.DirectionFlat, d.Direction)
	// 추적을 위해 기여 의견은 유지된다
	assert.NotEmpty(t, d.Contributing)
}

func TestMerge_EmptyOpinionsIsFlat(t *testing.T) {
	m := newMerger(t, "weighted")

	d := m.Merge(testTS, nil)
	assert.Equal(t, contracts.DirectionFlat, d.Direction)
	assert.Equal(t, 0.0, d.Confidence)
	assert.Empty(t, d.Contributing)
}

func TestMerge_DecisionLogAppends(t *testing.T) {
	m := newMerger(t, "weighted")

	for i := 0; i < 5; i++ {
		m.Merge(testTS.AddDate(0, 0, i), []contracts.Opinion{
			opinion("trend", contracts.SourceKindPrice, contracts.DirectionLong, 0.7),
		})
	}

	log := m.DecisionLog()
	assert.Equal(t, 5, log.Len())

	// 신뢰도는 항상 [0, 1]
	for _, d := range log.All() {
		assert.GreaterOrEqual(t, d.Confidence, 0.0)
		assert.LessOrEqual(t, d.Confidence, 1.0)
	}
}

func TestAdaptWeights(t *testing.T) {
	m := newMerger(t, "weighted")
	before := m.Weights()

	// 가격 소스는 수익률과 양의 상관, 대체 소스는 음의 상관
	m.AdaptWeights([]ProducerCorrelation{
		{ProducerID: "trend", Kind: contracts.SourceKindPrice, Correlation: 0.6},
		{ProducerID: "corr_regime", Kind: contracts.SourceKindAlt, Correlation: -0.4},
	})

	after := m.Weights()
	assert.Greater(t, after["price"], before["price"])
	assert.Less(t, after["alt"], before["alt"])
	assert.InDelta(t, 1.0, after["price"]+after["alt"], 1e-9)
}

func TestSetWeights_Normalizes(t *testing.T) {
	m := newMerger(t, "weighted")

	m.SetWeights(3, 1)
	w := m.Weights()
	assert.InDelta(t, 0.75, w["price"], 1e-9)
	assert.InDelta(t, 0.25, w["alt"], 1e-9)
}

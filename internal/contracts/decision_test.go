package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMergedDecision_SourceTag(t *testing.T) {
	tests := []struct {
		name  string
		kinds []SourceKind
		want  SourceTag
	}{
		{"price only", []SourceKind{SourceKindPrice}, SourcePriceOnly},
		{"alt only", []SourceKind{SourceKindAlt}, SourceAltOnly},
		{"combined", []SourceKind{SourceKindPrice, SourceKindAlt}, SourceCombined},
		{"no contributors", nil, SourcePriceOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := MergedDecision{}
			for i, kind := range tt.kinds {
				d.Contributing = append(d.Contributing, Opinion{
					ProducerID: string(rune('a' + i)),
					Kind:       kind,
				})
			}
			assert.Equal(t, tt.want, d.SourceTag())
		})
	}
}

func TestDecisionLog_AppendOnly(t *testing.T) {
	log := NewDecisionLog()
	assert.Equal(t, 0, log.Len())

	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	log.Append(MergedDecision{Timestamp: ts, Direction: DirectionLong})
	log.Append(MergedDecision{Timestamp: ts.AddDate(0, 0, 1), Direction: DirectionFlat})

	all := log.All()
	assert.Len(t, all, 2)
	assert.Equal(t, DirectionLong, all[0].Direction)

	// All()은 사본: 수정이 로그에 반영되면 안 된다
	all[0].Direction = DirectionShort
	assert.Equal(t, DirectionLong, log.All()[0].Direction)
}

func TestWorseOf(t *testing.T) {
	assert.Equal(t, ValidationInvalid, WorseOf(ValidationValid, ValidationInvalid))
	assert.Equal(t, ValidationNeedsReview, WorseOf(ValidationNeedsReview, ValidationValid))
	assert.Equal(t, ValidationInsufficientData, WorseOf(ValidationInvalid, ValidationInsufficientData))
	assert.Equal(t, ValidationValid, WorseOf(ValidationValid, ValidationValid))
}

func TestNewDataWindow_NoLookAhead(t *testing.T) {
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewDataWindow("005930", end, []Candle{
		{Date: end.AddDate(0, 0, -1), Close: 100},
		{Date: end.AddDate(0, 0, 1), Close: 101}, // 미래 데이터
	}, nil)
	assert.Error(t, err)
	assert.True(t, IsDataError(err))

	w, err := NewDataWindow("005930", end, []Candle{
		{Date: end.AddDate(0, 0, -1), Close: 100},
		{Date: end, Close: 101},
	}, map[string][]ScalarPoint{
		"vix": {{Date: end, Value: 18}},
	})
	assert.NoError(t, err)
	assert.Equal(t, []float64{100, 101}, w.Closes())
}

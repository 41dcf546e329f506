package contracts

import "time"

// Direction is a producer's or decision's directional stance
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	DirectionFlat  Direction = "flat"
)

// Sign maps a direction to {+1, -1, 0}
func (d Direction) Sign() float64 {
	switch d {
	case DirectionLong:
		return 1
	case DirectionShort:
		return -1
	default:
		return 0
	}
}

// Valid reports whether d is one of the three known directions
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort || d == DirectionFlat
}

// SourceKind classifies a producer by the data it consumes
type SourceKind string

const (
	SourceKindPrice SourceKind = "price" // 가격 기반
	SourceKindAlt   SourceKind = "alt"   // 대체 데이터 기반
)

// Opinion is a single producer's directional view at one timestamp.
// ⭐ SSOT: 프로듀서 → 머저 의견 전달
// 생성 후 불변; 매 기간 새로 생성된다.
type Opinion struct {
	ProducerID string             `json:"producer_id"`
	Kind       SourceKind         `json:"kind"`
	Timestamp  time.Time          `json:"timestamp"`
	Direction  Direction          `json:"direction"`
	Strength   float64            `json:"strength"` // 0.0 ~ 1.0
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

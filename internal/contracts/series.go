package contracts

import (
	"fmt"
	"time"
)

// Candle represents one OHLCV bar
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series represents a time-indexed OHLCV series for one symbol
// ⭐ SSOT: 외부 데이터 수집기 → 코어 가격 데이터 전달
// 거래일 기준 gap-free가 보장되거나, Gaps에 결측일이 명시되어야 한다.
type Series struct {
	Symbol  string      `json:"symbol"`
	Candles []Candle    `json:"candles"`
	Gaps    []time.Time `json:"gaps,omitempty"`
}

// Len returns the number of candles
func (s *Series) Len() int {
	return len(s.Candles)
}

// Closes returns the close prices in chronological order
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Returns computes simple period-over-period returns (length Len()-1)
func (s *Series) Returns() []float64 {
	if len(s.Candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(s.Candles)-1)
	for i := 1; i < len(s.Candles); i++ {
		prev := s.Candles[i-1].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (s.Candles[i].Close-prev)/prev)
	}
	return out
}

// ScalarPoint represents one observation of a macro/alternative indicator
type ScalarPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// IndicatorSeries represents a time-indexed scalar series
// 매크로/대체 데이터 공급자와의 계약; 가격 시리즈와 동일한 gap 규약을 따른다.
type IndicatorSeries struct {
	ID     string        `json:"id"`
	Points []ScalarPoint `json:"points"`
	Gaps   []time.Time   `json:"gaps,omitempty"`
}

// Values returns the scalar values in chronological order
func (s *IndicatorSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// DataWindow is a bounded, aligned slice of history ending at End.
// ⭐ SSOT: 프로듀서 입력은 반드시 이 타입을 통해서만 전달
// 룩어헤드 금지: End 이후의 데이터는 절대 포함될 수 없다.
type DataWindow struct {
	Symbol     string
	End        time.Time
	Candles    []Candle
	Indicators map[string][]ScalarPoint
}

// NewDataWindow builds a window and enforces the no-look-ahead invariant.
// End 이후 타임스탬프가 하나라도 있으면 DataError.
func NewDataWindow(symbol string, end time.Time, candles []Candle, indicators map[string][]ScalarPoint) (*DataWindow, error) {
	for _, c := range candles {
		if c.Date.After(end) {
			return nil, &DataError{
				Timestamp: end,
				Reason:    fmt.Sprintf("candle at %s is after window end", c.Date.Format("2006-01-02")),
			}
		}
	}
	for id, points := range indicators {
		for _, p := range points {
			if p.Date.After(end) {
				return nil, &DataError{
					Timestamp: end,
					Reason:    fmt.Sprintf("indicator %s point at %s is after window end", id, p.Date.Format("2006-01-02")),
				}
			}
		}
	}

	return &DataWindow{
		Symbol:     symbol,
		End:        end,
		Candles:    candles,
		Indicators: indicators,
	}, nil
}

// Closes returns the close prices of the window's candles
func (w *DataWindow) Closes() []float64 {
	out := make([]float64, len(w.Candles))
	for i, c := range w.Candles {
		out[i] = c.Close
	}
	return out
}

// Returns computes simple returns over the window's candles
func (w *DataWindow) Returns() []float64 {
	if len(w.Candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(w.Candles)-1)
	for i := 1; i < len(w.Candles); i++ {
		prev := w.Candles[i-1].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (w.Candles[i].Close-prev)/prev)
	}
	return out
}

// Indicator returns the named indicator points, if present
func (w *DataWindow) Indicator(id string) ([]ScalarPoint, bool) {
	points, ok := w.Indicators[id]
	return points, ok
}

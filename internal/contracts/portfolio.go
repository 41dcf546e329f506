package contracts

import "time"

// PositionExposure is a point-in-time view of one open position
type PositionExposure struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"` // 음수 = 숏
	Price    float64 `json:"price"`    // 평가 가격
}

// MarketValue returns the signed market value of the exposure
func (p PositionExposure) MarketValue() float64 {
	return p.Quantity * p.Price
}

// PortfolioSnapshot is a point-in-time view of the simulated portfolio.
// 스트레스 테스트 입력용; 시뮬레이터가 생성한다.
type PortfolioSnapshot struct {
	Timestamp time.Time          `json:"timestamp"`
	Cash      float64            `json:"cash"`
	Positions []PositionExposure `json:"positions"`
}

// TotalValue returns cash plus position market value
func (s *PortfolioSnapshot) TotalValue() float64 {
	total := s.Cash
	for _, p := range s.Positions {
		total += p.MarketValue()
	}
	return total
}

package contracts

import (
	"context"
	"time"
)

// PriceFeed supplies historical OHLCV data.
// 구현은 외부 데이터 수집기의 몫; 코어는 이 인터페이스만 소비한다.
// 반환 시리즈는 거래일 기준 gap-free이거나 Gaps가 명시되어야 한다.
type PriceFeed interface {
	Load(ctx context.Context, symbol string, start, end time.Time) (*Series, error)
}

// IndicatorFeed supplies historical macro/alternative indicator data
type IndicatorFeed interface {
	Load(ctx context.Context, indicatorID string, start, end time.Time) (*IndicatorSeries, error)
}

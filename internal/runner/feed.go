package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/edgelab/internal/contracts"
)

// MemoryFeed serves pre-loaded series from memory.
// 코어는 네트워크/디스크 I/O를 하지 않는다: 데이터는 run 시작 전에
// 외부 수집기가 미리 채워 넣는다.
type MemoryFeed struct {
	mu         sync.RWMutex
	series     map[string]*contracts.Series
	indicators map[string]*contracts.IndicatorSeries
}

// NewMemoryFeed creates an empty in-memory feed
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{
		series:     make(map[string]*contracts.Series),
		indicators: make(map[string]*contracts.IndicatorSeries),
	}
}

// AddSeries registers a price series (전체 교체)
func (f *MemoryFeed) AddSeries(s *contracts.Series) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.series[s.Symbol] = s
}

// AddIndicator registers an indicator series (전체 교체)
func (f *MemoryFeed) AddIndicator(s *contracts.IndicatorSeries) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indicators[s.ID] = s
}

// Load returns the symbol's candles within [start, end]
func (f *MemoryFeed) Load(_ context.Context, symbol string, start, end time.Time) (*contracts.Series, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	src, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("no price series loaded for symbol %s", symbol)
	}

	out := &contracts.Series{Symbol: symbol}
	for _, c := range src.Candles {
		if inRange(c.Date, start, end) {
			out.Candles = append(out.Candles, c)
		}
	}
	for _, g := range src.Gaps {
		if inRange(g, start, end) {
			out.Gaps = append(out.Gaps, g)
		}
	}
	if len(out.Candles) == 0 {
		return nil, fmt.Errorf("no candles for %s in %s..%s",
			symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return out, nil
}

// LoadIndicator returns the indicator's points within [start, end]
func (f *MemoryFeed) LoadIndicator(_ context.Context, indicatorID string, start, end time.Time) (*contracts.IndicatorSeries, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	src, ok := f.indicators[indicatorID]
	if !ok {
		return nil, fmt.Errorf("no indicator series loaded for %s", indicatorID)
	}

	out := &contracts.IndicatorSeries{ID: indicatorID}
	for _, p := range src.Points {
		if inRange(p.Date, start, end) {
			out.Points = append(out.Points, p)
		}
	}
	return out, nil
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// indicatorFeedAdapter exposes LoadIndicator as contracts.IndicatorFeed
type indicatorFeedAdapter struct{ feed *MemoryFeed }

func (a indicatorFeedAdapter) Load(ctx context.Context, indicatorID string, start, end time.Time) (*contracts.IndicatorSeries, error) {
	return a.feed.LoadIndicator(ctx, indicatorID, start, end)
}

// AsIndicatorFeed adapts the memory feed to the indicator interface
func (f *MemoryFeed) AsIndicatorFeed() contracts.IndicatorFeed {
	return indicatorFeedAdapter{feed: f}
}

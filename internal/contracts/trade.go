package contracts

import "time"

// SourceTag labels which producer family originated a trade
type SourceTag string

const (
	SourcePriceOnly SourceTag = "price_only"
	SourceAltOnly   SourceTag = "alt_data_only"
	SourceCombined  SourceTag = "combined"
)

// AllSourceTags lists every tag in a deterministic order
func AllSourceTags() []SourceTag {
	return []SourceTag{SourcePriceOnly, SourceAltOnly, SourceCombined}
}

// Trade is a closed position record. Immutable once created.
// ⭐ SSOT: 시뮬레이터의 trade ledger에만 기록됨
type Trade struct {
	Symbol      string    `json:"symbol"`
	Direction   Direction `json:"direction"`
	Quantity    float64   `json:"quantity"`
	EntryTime   time.Time `json:"entry_time"`
	EntryPrice  float64   `json:"entry_price"`
	ExitTime    time.Time `json:"exit_time"`
	ExitPrice   float64   `json:"exit_price"`
	RealizedPnL float64   `json:"realized_pnl"` // 수수료/슬리피지 차감 후
	ReturnPct   float64   `json:"return_pct"`
	Commission  float64   `json:"commission"`
	Slippage    float64   `json:"slippage"`
	ExitReason  string    `json:"exit_reason"` // "signal", "stop_loss", "take_profit", "end_of_run"

	SourceTag   SourceTag `json:"signal_source_tag"`
	ProducerIDs []string  `json:"producer_ids"`
}

// Win reports whether the trade closed with positive PnL
func (t *Trade) Win() bool {
	return t.RealizedPnL > 0
}

// SkippedTrade records a decision that could not be executed (non-fatal)
type SkippedTrade struct {
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	Reason    string    `json:"reason"`
}

package contracts

// AttributionRecord is the per-source aggregate computed from the trade ledger.
// Ledger가 원본이며 이 레코드는 요청 시마다 전체 재계산된다.
type AttributionRecord struct {
	SourceTag  SourceTag `json:"source_tag"`
	TradeCount int       `json:"trade_count"`
	WinRate    float64   `json:"win_rate"`

	// ProfitFactor는 gross_loss가 0이면 정의되지 않는다.
	// Defined=false일 때 ProfitFactor 값은 무시해야 한다 (JSON에서는 생략).
	ProfitFactor        float64 `json:"profit_factor,omitempty"`
	ProfitFactorDefined bool    `json:"profit_factor_defined"`

	GrossProfit        float64 `json:"gross_profit"`
	GrossLoss          float64 `json:"gross_loss"`
	TotalPnL           float64 `json:"total_pnl"`
	PnLContributionPct float64 `json:"pnl_contribution_pct"`

	// 해당 소스 제외 시 포트폴리오 Sharpe 변화량
	RiskAdjustedContribution float64 `json:"risk_adjusted_contribution"`
}

// AttributionReport is the full output of the attribution analyzer
type AttributionReport struct {
	Records []AttributionRecord `json:"records"`

	// 소스별 기간 수익률 간 상관행렬 (tag → tag → corr)
	Correlation map[SourceTag]map[SourceTag]float64 `json:"correlation"`

	BestSource  SourceTag `json:"best_source,omitempty"`
	WorstSource SourceTag `json:"worst_source,omitempty"`
}

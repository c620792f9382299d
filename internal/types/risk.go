package types

// RiskSnapshot is the account-level risk view the execution runtime sizes
// against. It is produced by the risk provider and consumed verbatim; the
// runtime never recomputes account figures.
type RiskSnapshot struct {
	// Balance is the account balance in quote currency.
	Balance float64 `json:"balance"`
	// RiskPerTradeUsd caps the budget of a single placement. Zero means no
	// per-trade cap beyond the account-level budget.
	RiskPerTradeUsd float64 `json:"risk_per_trade_usd"`
	// TotalOpenRiskUsd is the summed 1R of open positions as seen by the
	// risk module at snapshot time.
	TotalOpenRiskUsd float64 `json:"total_open_risk_usd"`
	// MaxAllowedRiskUsd bounds the summed 1R across all open positions.
	MaxAllowedRiskUsd float64 `json:"max_allowed_risk_usd"`
	// MaxPositions bounds the count of concurrently open positions.
	MaxPositions int `json:"max_positions"`
}

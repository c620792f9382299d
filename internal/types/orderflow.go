package types

import "time"

// TradeSide is the aggressor side of a tape print.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// TradeTick is one print from the exchange trade tape.
type TradeTick struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
	Size  float64   `json:"size"`
	Side  TradeSide `json:"side"`
}

// BookLevel is a single price level of an order book update. A size of zero
// or below deletes the level.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderFlowSnapshot is the point-in-time feature view for one symbol,
// returned without mutating the underlying state. Unknown symbols yield a
// zero-valued snapshot.
type OrderFlowSnapshot struct {
	Symbol string `json:"symbol"`
	// OFI is the latest order-flow imbalance sample; OFIPrev the one before.
	OFI     float64 `json:"ofi"`
	OFIPrev float64 `json:"ofi_prev"`
	// VPIN is the mean of the retained volume-bucket imbalance samples.
	VPIN float64 `json:"vpin"`
	// Delta is the signed volume over the most recent 200 trades,
	// DeltaPrev the same statistic over the 200 trades before those.
	Delta     float64 `json:"delta"`
	DeltaPrev float64 `json:"delta_prev"`
	BestBid   float64 `json:"best_bid"`
	BestAsk   float64 `json:"best_ask"`
	// LastTradeAt is the timestamp of the most recent tape print.
	LastTradeAt time.Time `json:"last_trade_at"`
	// Trades holds the 200 most recent tape prints, oldest first.
	Trades []TradeTick `json:"trades"`
}

// LiquidationEvent is one forced-liquidation print.
type LiquidationEvent struct {
	Price float64   `json:"price"`
	Size  float64   `json:"size"`
	Side  TradeSide `json:"side"`
	Time  time.Time `json:"time"`
}

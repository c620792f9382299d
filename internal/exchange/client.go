// Package exchange defines the client capability the execution layer
// places orders through, plus the Binance futures implementation.
package exchange

import (
	"context"
	"time"

	"github.com/moznion/go-optional"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
)

// CreateOrderResult is the acknowledgment of an accepted order.
type CreateOrderResult struct {
	OrderID string
}

// FillResult reports the executed state of an order after waiting.
// FilledQty may be a partial quantity when Filled is false.
type FillResult struct {
	Filled    bool
	AvgPrice  float64
	FilledQty float64
}

// Protection describes the protective orders attached after a fill.
type Protection struct {
	StopLoss   float64
	TakeProfit optional.Option[float64]
}

// Client is the exchange capability injected into the order placement
// protocol. Implementations must be safe for concurrent use.
type Client interface {
	// CreateOrder submits the order and returns the exchange order ID.
	// The request's ClientOrderID doubles as an idempotency key: the
	// exchange deduplicates a retried create carrying the same ID.
	CreateOrder(ctx context.Context, order types.OrderRequest) (CreateOrderResult, error)

	// CancelOrder cancels an open order.
	CancelOrder(ctx context.Context, symbol string, orderID string) error

	// WaitForFill waits until the order reaches a terminal state or the
	// timeout elapses, and reports the executed quantity either way. A
	// non-nil error means the fill state is unknown, not that the order
	// failed.
	WaitForFill(ctx context.Context, symbol string, orderID string, timeout time.Duration) (FillResult, error)

	// SetProtection attaches a protective stop, and optionally a take
	// profit, closing the position opened by an order on entrySide.
	SetProtection(ctx context.Context, symbol string, entrySide types.PurchaseType, protection Protection) error

	// Balance returns the available quote balance in USD terms.
	Balance(ctx context.Context) (float64, error)
}

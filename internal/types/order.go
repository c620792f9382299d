package types

import (
	"github.com/go-playground/validator/v10"

	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

type PurchaseType string

type OrderType string

type OrderStatus string

type PositionType string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusFailed          OrderStatus = "FAILED"
)

const (
	PositionTypeLong  PositionType = "LONG"
	PositionTypeShort PositionType = "SHORT"
)

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderRequest is the exchange-facing payload for a single order creation.
type OrderRequest struct {
	Symbol    string       `yaml:"symbol" json:"symbol" validate:"required"`
	Side      PurchaseType `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	OrderType OrderType    `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET LIMIT"`
	Price     float64      `yaml:"price" json:"price" validate:"required_if=OrderType LIMIT,gte=0"`
	Quantity  float64      `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	// ClientOrderID is the idempotency key. The exchange deduplicates retried
	// creates carrying the same value.
	ClientOrderID string `yaml:"client_order_id" json:"client_order_id"`
	// ReduceOnly restricts the order to closing exposure.
	ReduceOnly bool `yaml:"reduce_only" json:"reduce_only"`
}

// Validate validates the OrderRequest struct.
func (o *OrderRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order request", err)
	}

	return nil
}

// OppositeSide returns the side that closes an order of the given side.
func OppositeSide(side PurchaseType) PurchaseType {
	if side == PurchaseTypeBuy {
		return PurchaseTypeSell
	}

	return PurchaseTypeBuy
}

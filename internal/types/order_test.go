package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderRequestValidate(t *testing.T) {
	tests := []struct {
		name        string
		order       OrderRequest
		shouldError bool
	}{
		{
			name: "valid limit order",
			order: OrderRequest{
				Symbol:        "BTCUSDT",
				Side:          PurchaseTypeBuy,
				OrderType:     OrderTypeLimit,
				Price:         64000.5,
				Quantity:      0.25,
				ClientOrderID: "ord-1",
			},
			shouldError: false,
		},
		{
			name: "valid market order without price",
			order: OrderRequest{
				Symbol:    "ETHUSDT",
				Side:      PurchaseTypeSell,
				OrderType: OrderTypeMarket,
				Quantity:  1.0,
			},
			shouldError: false,
		},
		{
			name: "missing symbol",
			order: OrderRequest{
				Side:      PurchaseTypeBuy,
				OrderType: OrderTypeLimit,
				Price:     100.0,
				Quantity:  1.0,
			},
			shouldError: true,
		},
		{
			name: "invalid side",
			order: OrderRequest{
				Symbol:    "BTCUSDT",
				Side:      PurchaseType("HOLD"),
				OrderType: OrderTypeLimit,
				Price:     100.0,
				Quantity:  1.0,
			},
			shouldError: true,
		},
		{
			name: "limit order without price",
			order: OrderRequest{
				Symbol:    "BTCUSDT",
				Side:      PurchaseTypeBuy,
				OrderType: OrderTypeLimit,
				Quantity:  1.0,
			},
			shouldError: true,
		},
		{
			name: "zero quantity",
			order: OrderRequest{
				Symbol:    "BTCUSDT",
				Side:      PurchaseTypeBuy,
				OrderType: OrderTypeLimit,
				Price:     100.0,
				Quantity:  0,
			},
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.shouldError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOppositeSide(t *testing.T) {
	assert.Equal(t, PurchaseTypeSell, OppositeSide(PurchaseTypeBuy))
	assert.Equal(t, PurchaseTypeBuy, OppositeSide(PurchaseTypeSell))
}

package exchange

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"go.uber.org/zap"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/logger"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

const (
	// defaultPollInterval is how often WaitForFill checks order state.
	defaultPollInterval = 500 * time.Millisecond
)

// Service interfaces for mocking the Binance futures API

// CreateOrderService interface for creating orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side futures.SideType) CreateOrderService
	Type(orderType futures.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	StopPrice(price string) CreateOrderService
	TimeInForce(tif futures.TimeInForceType) CreateOrderService
	NewClientOrderID(id string) CreateOrderService
	ReduceOnly(reduceOnly bool) CreateOrderService
	ClosePosition(closePosition bool) CreateOrderService
	Do(ctx context.Context) (*futures.CreateOrderResponse, error)
}

// GetOrderService interface for querying a single order.
type GetOrderService interface {
	Symbol(symbol string) GetOrderService
	OrderID(orderID int64) GetOrderService
	Do(ctx context.Context) (*futures.Order, error)
}

// CancelOrderService interface for canceling orders.
type CancelOrderService interface {
	Symbol(symbol string) CancelOrderService
	OrderID(orderID int64) CancelOrderService
	Do(ctx context.Context) (*futures.CancelOrderResponse, error)
}

// GetBalanceService interface for reading futures wallet balances.
type GetBalanceService interface {
	Do(ctx context.Context) ([]*futures.Balance, error)
}

// FuturesClient interface abstracts the Binance futures client for
// testing.
type FuturesClient interface {
	NewCreateOrderService() CreateOrderService
	NewGetOrderService() GetOrderService
	NewCancelOrderService() CancelOrderService
	NewGetBalanceService() GetBalanceService
}

// realFuturesClient wraps the actual futures.Client.
type realFuturesClient struct {
	client *futures.Client
}

func (r *realFuturesClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realFuturesClient) NewGetOrderService() GetOrderService {
	return &realGetOrderService{service: r.client.NewGetOrderService()}
}

func (r *realFuturesClient) NewCancelOrderService() CancelOrderService {
	return &realCancelOrderService{service: r.client.NewCancelOrderService()}
}

func (r *realFuturesClient) NewGetBalanceService() GetBalanceService {
	return &realGetBalanceService{service: r.client.NewGetBalanceService()}
}

// Real service wrappers

type realCreateOrderService struct {
	service *futures.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side futures.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType futures.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) StopPrice(price string) CreateOrderService {
	s.service = s.service.StopPrice(price)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif futures.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	s.service = s.service.NewClientOrderID(id)

	return s
}

func (s *realCreateOrderService) ReduceOnly(reduceOnly bool) CreateOrderService {
	s.service = s.service.ReduceOnly(reduceOnly)

	return s
}

func (s *realCreateOrderService) ClosePosition(closePosition bool) CreateOrderService {
	s.service = s.service.ClosePosition(closePosition)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*futures.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetOrderService struct {
	service *futures.GetOrderService
}

func (s *realGetOrderService) Symbol(symbol string) GetOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realGetOrderService) OrderID(orderID int64) GetOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realGetOrderService) Do(ctx context.Context) (*futures.Order, error) {
	return s.service.Do(ctx)
}

type realCancelOrderService struct {
	service *futures.CancelOrderService
}

func (s *realCancelOrderService) Symbol(symbol string) CancelOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelOrderService) OrderID(orderID int64) CancelOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realCancelOrderService) Do(ctx context.Context) (*futures.CancelOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetBalanceService struct {
	service *futures.GetBalanceService
}

func (s *realGetBalanceService) Do(ctx context.Context) ([]*futures.Balance, error) {
	return s.service.Do(ctx)
}

// BinanceFutures implements Client against the Binance USD-M futures
// API. It is stateless; all data is fetched directly from the API.
type BinanceFutures struct {
	client       FuturesClient
	logger       *logger.Logger
	pollInterval time.Duration
}

// NewBinanceFutures creates a Binance futures client. If
// config.Testnet is set, it connects to the futures testnet. A
// config.BaseURL takes precedence over the testnet switch.
func NewBinanceFutures(config BinanceConfig, log *logger.Logger) (*BinanceFutures, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Testnet {
		futures.UseTestnet = true
	}

	client := binance.NewFuturesClient(config.ApiKey, config.SecretKey)

	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	return &BinanceFutures{
		client:       &realFuturesClient{client: client},
		logger:       log,
		pollInterval: defaultPollInterval,
	}, nil
}

// newBinanceFuturesWithClient creates a client around a custom
// FuturesClient. This is used for testing with mock services.
func newBinanceFuturesWithClient(client FuturesClient, log *logger.Logger) *BinanceFutures {
	return &BinanceFutures{
		client:       client,
		logger:       log,
		pollInterval: defaultPollInterval,
	}
}

// CreateOrder submits one order. Limit orders are priced passively and
// rest on the book until filled or cancelled.
func (b *BinanceFutures) CreateOrder(ctx context.Context, order types.OrderRequest) (CreateOrderResult, error) {
	if err := order.Validate(); err != nil {
		return CreateOrderResult{}, err
	}

	side, err := mapOrderSide(order.Side)
	if err != nil {
		return CreateOrderResult{}, err
	}

	var orderType futures.OrderType

	switch order.OrderType {
	case types.OrderTypeMarket:
		orderType = futures.OrderTypeMarket
	case types.OrderTypeLimit:
		orderType = futures.OrderTypeLimit
	default:
		return CreateOrderResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order type: %s", order.OrderType)
	}

	service := b.client.NewCreateOrderService().
		Symbol(order.Symbol).
		Side(side).
		Type(orderType).
		Quantity(formatFloat(order.Quantity))

	if order.OrderType == types.OrderTypeLimit {
		service = service.
			Price(formatFloat(order.Price)).
			TimeInForce(futures.TimeInForceTypeGTC)
	}

	if order.ClientOrderID != "" {
		service = service.NewClientOrderID(order.ClientOrderID)
	}

	if order.ReduceOnly {
		service = service.ReduceOnly(true)
	}

	resp, err := service.Do(ctx)
	if err != nil {
		return CreateOrderResult{}, errors.Wrap(errors.ErrCodeExchangeRejected, "failed to create order on Binance", err)
	}

	return CreateOrderResult{OrderID: strconv.FormatInt(resp.OrderID, 10)}, nil
}

// CancelOrder cancels an open order by exchange order ID.
func (b *BinanceFutures) CancelOrder(ctx context.Context, symbol string, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order ID format", err)
	}

	_, err = b.client.NewCancelOrderService().
		Symbol(symbol).
		OrderID(id).
		Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCancelFailed, "failed to cancel order on Binance", err)
	}

	return nil
}

// WaitForFill polls the order until it reaches a terminal state or the
// timeout elapses. Transient poll failures are logged and retried until
// the deadline; the last observed execution state is returned either
// way.
func (b *BinanceFutures) WaitForFill(ctx context.Context, symbol string, orderID string, timeout time.Duration) (FillResult, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return FillResult{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order ID format", err)
	}

	deadline := time.Now().Add(timeout)

	var last FillResult

	for {
		order, pollErr := b.client.NewGetOrderService().
			Symbol(symbol).
			OrderID(id).
			Do(ctx)
		if pollErr != nil {
			b.logger.Warn("order status poll failed",
				zap.String("symbol", symbol),
				zap.String("order_id", orderID),
				zap.Error(pollErr))
		} else {
			last = fillResultFromOrder(order)

			switch order.Status {
			case futures.OrderStatusTypeFilled,
				futures.OrderStatusTypeCanceled,
				futures.OrderStatusTypeRejected,
				futures.OrderStatusTypeExpired:
				return last, nil
			}
		}

		if !time.Now().Before(deadline) {
			return last, nil
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(b.pollInterval):
		}
	}
}

// SetProtection places a close-position stop market order on the
// opposite side of the entry, and a take profit order when requested.
func (b *BinanceFutures) SetProtection(ctx context.Context, symbol string, entrySide types.PurchaseType, protection Protection) error {
	exitSide, err := mapOrderSide(types.OppositeSide(entrySide))
	if err != nil {
		return err
	}

	if protection.StopLoss <= 0 {
		return errors.New(errors.ErrCodeInvalidStopLoss, "stop loss price must be greater than zero")
	}

	_, err = b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(exitSide).
		Type(futures.OrderTypeStopMarket).
		StopPrice(formatFloat(protection.StopLoss)).
		ClosePosition(true).
		Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeProtectionFailed, "failed to set stop loss on Binance", err)
	}

	if protection.TakeProfit.IsSome() {
		_, err = b.client.NewCreateOrderService().
			Symbol(symbol).
			Side(exitSide).
			Type(futures.OrderTypeTakeProfitMarket).
			StopPrice(formatFloat(protection.TakeProfit.Unwrap())).
			ClosePosition(true).
			Do(ctx)
		if err != nil {
			return errors.Wrap(errors.ErrCodeProtectionFailed, "failed to set take profit on Binance", err)
		}
	}

	return nil
}

// Balance sums the available balance of the stable quote assets.
func (b *BinanceFutures) Balance(ctx context.Context) (float64, error) {
	balances, err := b.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeBalanceFetchFailed, "failed to get balance from Binance", err)
	}

	var total float64

	for _, balance := range balances {
		switch balance.Asset {
		case "USDT", "USDC", "BUSD":
			available, parseErr := strconv.ParseFloat(balance.AvailableBalance, 64)
			if parseErr != nil {
				continue
			}

			total += available
		}
	}

	return total, nil
}

// Helper functions

// mapOrderSide maps our purchase side to the Binance side type.
func mapOrderSide(side types.PurchaseType) (futures.SideType, error) {
	switch side {
	case types.PurchaseTypeBuy:
		return futures.SideTypeBuy, nil
	case types.PurchaseTypeSell:
		return futures.SideTypeSell, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order side: %s", side)
	}
}

// fillResultFromOrder converts a Binance order into a fill result.
func fillResultFromOrder(order *futures.Order) FillResult {
	executed, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)
	avgPrice, _ := strconv.ParseFloat(order.AvgPrice, 64)

	return FillResult{
		Filled:    order.Status == futures.OrderStatusTypeFilled,
		AvgPrice:  avgPrice,
		FilledQty: executed,
	}
}

// formatFloat renders a price or quantity the way the Binance API
// expects, without trailing zeros.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Ensure BinanceFutures implements Client.
var _ Client = (*BinanceFutures)(nil)

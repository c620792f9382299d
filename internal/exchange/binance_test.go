package exchange

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/logger"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

// Mock implementations for testing

type mockFuturesClient struct {
	createOrderService *mockCreateOrderService
	getOrderService    *mockGetOrderService
	cancelOrderService *mockCancelOrderService
	getBalanceService  *mockGetBalanceService
}

func newMockFuturesClient() *mockFuturesClient {
	return &mockFuturesClient{
		createOrderService: &mockCreateOrderService{},
		getOrderService:    &mockGetOrderService{},
		cancelOrderService: &mockCancelOrderService{},
		getBalanceService:  &mockGetBalanceService{},
	}
}

func (m *mockFuturesClient) NewCreateOrderService() CreateOrderService {
	return m.createOrderService
}

func (m *mockFuturesClient) NewGetOrderService() GetOrderService {
	return m.getOrderService
}

func (m *mockFuturesClient) NewCancelOrderService() CancelOrderService {
	return m.cancelOrderService
}

func (m *mockFuturesClient) NewGetBalanceService() GetBalanceService {
	return m.getBalanceService
}

// createOrderCall captures the builder state of one submitted order.
type createOrderCall struct {
	symbol        string
	side          futures.SideType
	orderType     futures.OrderType
	quantity      string
	price         string
	stopPrice     string
	tif           futures.TimeInForceType
	clientOrderID string
	reduceOnly    bool
	closePosition bool
}

// mockCreateOrderService implements CreateOrderService.
type mockCreateOrderService struct {
	current  createOrderCall
	calls    []createOrderCall
	response *futures.CreateOrderResponse
	err      error
}

func (m *mockCreateOrderService) Symbol(symbol string) CreateOrderService {
	m.current.symbol = symbol
	return m
}

func (m *mockCreateOrderService) Side(side futures.SideType) CreateOrderService {
	m.current.side = side
	return m
}

func (m *mockCreateOrderService) Type(orderType futures.OrderType) CreateOrderService {
	m.current.orderType = orderType
	return m
}

func (m *mockCreateOrderService) Quantity(quantity string) CreateOrderService {
	m.current.quantity = quantity
	return m
}

func (m *mockCreateOrderService) Price(price string) CreateOrderService {
	m.current.price = price
	return m
}

func (m *mockCreateOrderService) StopPrice(price string) CreateOrderService {
	m.current.stopPrice = price
	return m
}

func (m *mockCreateOrderService) TimeInForce(tif futures.TimeInForceType) CreateOrderService {
	m.current.tif = tif
	return m
}

func (m *mockCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	m.current.clientOrderID = id
	return m
}

func (m *mockCreateOrderService) ReduceOnly(reduceOnly bool) CreateOrderService {
	m.current.reduceOnly = reduceOnly
	return m
}

func (m *mockCreateOrderService) ClosePosition(closePosition bool) CreateOrderService {
	m.current.closePosition = closePosition
	return m
}

func (m *mockCreateOrderService) Do(_ context.Context) (*futures.CreateOrderResponse, error) {
	m.calls = append(m.calls, m.current)
	m.current = createOrderCall{}

	return m.response, m.err
}

// getOrderResult is one scripted poll response.
type getOrderResult struct {
	order *futures.Order
	err   error
}

// mockGetOrderService implements GetOrderService, replaying scripted
// responses and repeating the last one.
type mockGetOrderService struct {
	symbol  string
	orderID int64
	results []getOrderResult
	polls   int
}

func (m *mockGetOrderService) Symbol(symbol string) GetOrderService {
	m.symbol = symbol
	return m
}

func (m *mockGetOrderService) OrderID(orderID int64) GetOrderService {
	m.orderID = orderID
	return m
}

func (m *mockGetOrderService) Do(_ context.Context) (*futures.Order, error) {
	idx := m.polls
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}

	m.polls++
	result := m.results[idx]

	return result.order, result.err
}

// mockCancelOrderService implements CancelOrderService.
type mockCancelOrderService struct {
	symbol   string
	orderID  int64
	response *futures.CancelOrderResponse
	err      error
	calls    int
}

func (m *mockCancelOrderService) Symbol(symbol string) CancelOrderService {
	m.symbol = symbol
	return m
}

func (m *mockCancelOrderService) OrderID(orderID int64) CancelOrderService {
	m.orderID = orderID
	return m
}

func (m *mockCancelOrderService) Do(_ context.Context) (*futures.CancelOrderResponse, error) {
	m.calls++
	return m.response, m.err
}

// mockGetBalanceService implements GetBalanceService.
type mockGetBalanceService struct {
	balances []*futures.Balance
	err      error
}

func (m *mockGetBalanceService) Do(_ context.Context) ([]*futures.Balance, error) {
	return m.balances, m.err
}

type BinanceFuturesTestSuite struct {
	suite.Suite
	client   *mockFuturesClient
	exchange *BinanceFutures
}

func TestBinanceFuturesSuite(t *testing.T) {
	suite.Run(t, new(BinanceFuturesTestSuite))
}

func (s *BinanceFuturesTestSuite) SetupTest() {
	log, err := logger.NewLogger()
	s.Require().NoError(err)

	s.client = newMockFuturesClient()
	s.exchange = newBinanceFuturesWithClient(s.client, log)
	s.exchange.pollInterval = time.Millisecond
}

func (s *BinanceFuturesTestSuite) TestCreateOrderLimit() {
	s.client.createOrderService.response = &futures.CreateOrderResponse{OrderID: 12345}

	result, err := s.exchange.CreateOrder(context.Background(), types.OrderRequest{
		Symbol:        "BTCUSDT",
		Side:          types.PurchaseTypeBuy,
		OrderType:     types.OrderTypeLimit,
		Price:         42000.5,
		Quantity:      0.25,
		ClientOrderID: "plan-1",
	})
	s.Require().NoError(err)
	s.Equal("12345", result.OrderID)

	s.Require().Len(s.client.createOrderService.calls, 1)
	call := s.client.createOrderService.calls[0]
	s.Equal("BTCUSDT", call.symbol)
	s.Equal(futures.SideTypeBuy, call.side)
	s.Equal(futures.OrderTypeLimit, call.orderType)
	s.Equal("0.25", call.quantity)
	s.Equal("42000.5", call.price)
	s.Equal(futures.TimeInForceTypeGTC, call.tif)
	s.Equal("plan-1", call.clientOrderID)
}

func (s *BinanceFuturesTestSuite) TestCreateOrderMarketSkipsPrice() {
	s.client.createOrderService.response = &futures.CreateOrderResponse{OrderID: 7}

	_, err := s.exchange.CreateOrder(context.Background(), types.OrderRequest{
		Symbol:    "BTCUSDT",
		Side:      types.PurchaseTypeSell,
		OrderType: types.OrderTypeMarket,
		Quantity:  1,
	})
	s.Require().NoError(err)

	call := s.client.createOrderService.calls[0]
	s.Equal(futures.OrderTypeMarket, call.orderType)
	s.Empty(call.price)
	s.Empty(call.tif)
}

func (s *BinanceFuturesTestSuite) TestCreateOrderRejected() {
	s.client.createOrderService.err = stderrors.New("insufficient margin")

	_, err := s.exchange.CreateOrder(context.Background(), types.OrderRequest{
		Symbol:    "BTCUSDT",
		Side:      types.PurchaseTypeBuy,
		OrderType: types.OrderTypeMarket,
		Quantity:  1,
	})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeExchangeRejected))
}

func (s *BinanceFuturesTestSuite) TestCreateOrderInvalidRequest() {
	_, err := s.exchange.CreateOrder(context.Background(), types.OrderRequest{
		Symbol:    "BTCUSDT",
		Side:      types.PurchaseTypeBuy,
		OrderType: types.OrderTypeLimit,
		Quantity:  0,
	})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidOrder))
	s.Empty(s.client.createOrderService.calls)
}

func (s *BinanceFuturesTestSuite) TestCancelOrder() {
	s.client.cancelOrderService.response = &futures.CancelOrderResponse{}

	err := s.exchange.CancelOrder(context.Background(), "BTCUSDT", "555")
	s.Require().NoError(err)
	s.Equal("BTCUSDT", s.client.cancelOrderService.symbol)
	s.Equal(int64(555), s.client.cancelOrderService.orderID)
}

func (s *BinanceFuturesTestSuite) TestCancelOrderBadID() {
	err := s.exchange.CancelOrder(context.Background(), "BTCUSDT", "not-a-number")
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
	s.Zero(s.client.cancelOrderService.calls)
}

func (s *BinanceFuturesTestSuite) TestWaitForFillFilled() {
	s.client.getOrderService.results = []getOrderResult{
		{order: &futures.Order{Status: futures.OrderStatusTypeNew, ExecutedQuantity: "0", AvgPrice: "0"}},
		{order: &futures.Order{Status: futures.OrderStatusTypeFilled, ExecutedQuantity: "2", AvgPrice: "100.5"}},
	}

	result, err := s.exchange.WaitForFill(context.Background(), "BTCUSDT", "555", time.Second)
	s.Require().NoError(err)
	s.True(result.Filled)
	s.Equal(2.0, result.FilledQty)
	s.Equal(100.5, result.AvgPrice)
}

func (s *BinanceFuturesTestSuite) TestWaitForFillTimeoutReportsPartial() {
	s.client.getOrderService.results = []getOrderResult{
		{order: &futures.Order{Status: futures.OrderStatusTypePartiallyFilled, ExecutedQuantity: "0.5", AvgPrice: "100"}},
	}

	result, err := s.exchange.WaitForFill(context.Background(), "BTCUSDT", "555", 5*time.Millisecond)
	s.Require().NoError(err)
	s.False(result.Filled)
	s.Equal(0.5, result.FilledQty)
}

func (s *BinanceFuturesTestSuite) TestWaitForFillToleratesPollFailures() {
	s.client.getOrderService.results = []getOrderResult{
		{err: stderrors.New("connection reset")},
		{order: &futures.Order{Status: futures.OrderStatusTypeFilled, ExecutedQuantity: "1", AvgPrice: "99"}},
	}

	result, err := s.exchange.WaitForFill(context.Background(), "BTCUSDT", "555", time.Second)
	s.Require().NoError(err)
	s.True(result.Filled)
}

func (s *BinanceFuturesTestSuite) TestSetProtectionStopOnly() {
	s.client.createOrderService.response = &futures.CreateOrderResponse{OrderID: 9}

	err := s.exchange.SetProtection(context.Background(), "BTCUSDT", types.PurchaseTypeBuy, Protection{
		StopLoss: 99.5,
	})
	s.Require().NoError(err)

	s.Require().Len(s.client.createOrderService.calls, 1)
	call := s.client.createOrderService.calls[0]
	s.Equal(futures.SideTypeSell, call.side)
	s.Equal(futures.OrderTypeStopMarket, call.orderType)
	s.Equal("99.5", call.stopPrice)
	s.True(call.closePosition)
}

func (s *BinanceFuturesTestSuite) TestSetProtectionWithTakeProfit() {
	s.client.createOrderService.response = &futures.CreateOrderResponse{OrderID: 9}

	err := s.exchange.SetProtection(context.Background(), "BTCUSDT", types.PurchaseTypeSell, Protection{
		StopLoss:   110,
		TakeProfit: optional.Some(90.0),
	})
	s.Require().NoError(err)

	s.Require().Len(s.client.createOrderService.calls, 2)
	s.Equal(futures.OrderTypeStopMarket, s.client.createOrderService.calls[0].orderType)
	s.Equal(futures.SideTypeBuy, s.client.createOrderService.calls[0].side)
	s.Equal(futures.OrderTypeTakeProfitMarket, s.client.createOrderService.calls[1].orderType)
	s.Equal("90", s.client.createOrderService.calls[1].stopPrice)
}

func (s *BinanceFuturesTestSuite) TestSetProtectionFailure() {
	s.client.createOrderService.err = stderrors.New("would trigger immediately")

	err := s.exchange.SetProtection(context.Background(), "BTCUSDT", types.PurchaseTypeBuy, Protection{
		StopLoss: 99.5,
	})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeProtectionFailed))
}

func (s *BinanceFuturesTestSuite) TestBalanceSumsQuoteAssets() {
	s.client.getBalanceService.balances = []*futures.Balance{
		{Asset: "USDT", AvailableBalance: "500.5"},
		{Asset: "BNB", AvailableBalance: "2"},
		{Asset: "USDC", AvailableBalance: "99.5"},
	}

	balance, err := s.exchange.Balance(context.Background())
	s.Require().NoError(err)
	s.Equal(600.0, balance)
}

func (s *BinanceFuturesTestSuite) TestBalanceError() {
	s.client.getBalanceService.err = stderrors.New("api down")

	_, err := s.exchange.Balance(context.Background())
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeBalanceFetchFailed))
}

package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/config"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/controlplane"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/exchange"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/execution"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/feed"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/risk"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/version"
	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

type protectCall struct {
	symbol     string
	entrySide  types.PurchaseType
	protection exchange.Protection
}

type mockExchangeClient struct {
	mu           sync.Mutex
	createErr    error
	createCalls  []types.OrderRequest
	lastOrderID  int
	fillResult   exchange.FillResult
	fillErr      error
	cancelCalls  []string
	protectCalls []protectCall
	protectErr   error
	balance      float64
	balanceErr   error
}

var _ exchange.Client = (*mockExchangeClient)(nil)

func (m *mockExchangeClient) CreateOrder(_ context.Context, order types.OrderRequest) (exchange.CreateOrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls = append(m.createCalls, order)
	if m.createErr != nil {
		return exchange.CreateOrderResult{}, m.createErr
	}

	m.lastOrderID++

	return exchange.CreateOrderResult{OrderID: fmt.Sprintf("%d", m.lastOrderID)}, nil
}

func (m *mockExchangeClient) CancelOrder(_ context.Context, _ string, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelCalls = append(m.cancelCalls, orderID)

	return nil
}

func (m *mockExchangeClient) WaitForFill(_ context.Context, _ string, _ string, _ time.Duration) (exchange.FillResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.fillResult, m.fillErr
}

func (m *mockExchangeClient) SetProtection(_ context.Context, symbol string, entrySide types.PurchaseType, protection exchange.Protection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.protectCalls = append(m.protectCalls, protectCall{symbol: symbol, entrySide: entrySide, protection: protection})

	return m.protectErr
}

func (m *mockExchangeClient) Balance(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.balance, m.balanceErr
}

type BotTestSuite struct {
	suite.Suite
	client *mockExchangeClient
	bot    *Bot
	placed []execution.OrderPlan
	errs   []error
}

func TestBotSuite(t *testing.T) {
	suite.Run(t, new(BotTestSuite))
}

func (s *BotTestSuite) validConfig() config.Config {
	return config.Config{
		Version: version.GetVersion(),
		Symbols: []string{"BTCUSDT"},
		Exchange: exchange.BinanceConfig{
			ApiKey:    "test-key",
			SecretKey: "test-secret",
			Testnet:   true,
		},
		Runtime: execution.RuntimeConfig{
			MaxOrdersPerMin: 5,
			LotStep:         1,
			MinQty:          1,
		},
		Risk: risk.Config{
			MaxAllowedRiskUsd: 100,
			MaxPositions:      3,
		},
		// A dead endpoint: the feed keeps retrying without ever
		// connecting, which is all these tests need.
		Feed:   feed.Config{URL: "ws://127.0.0.1:1/ws"},
		Server: controlplane.Config{Listen: "127.0.0.1:0"},
	}
}

func (s *BotTestSuite) SetupTest() {
	s.client = &mockExchangeClient{balance: 1000}
	s.placed = nil
	s.errs = nil

	onPlaced := OnOrderPlacedCallback(func(plan execution.OrderPlan, _ execution.PlaceOrderResult) {
		s.placed = append(s.placed, plan)
	})
	onError := OnErrorCallback(func(err error) {
		s.errs = append(s.errs, err)
	})

	bot, err := NewBot(s.validConfig(), Callbacks{
		OnOrderPlaced: &onPlaced,
		OnError:       &onError,
	})
	s.Require().NoError(err)

	bot.SetClient(s.client)
	s.bot = bot
}

func (s *BotTestSuite) TearDownTest() {
	_ = s.bot.journal.Close()
}

func (s *BotTestSuite) longSignal() types.Signal {
	return types.Signal{
		Time:      time.Now(),
		Symbol:    "BTCUSDT",
		Direction: types.DirectionLong,
		EntryZone: types.EntryZone{Low: 100, High: 101},
	}
}

// placeFilled drives one operator signal through to an open protected
// position. The default per-trade risk cap sizes it to 4 contracts.
func (s *BotTestSuite) placeFilled() {
	s.client.fillResult = exchange.FillResult{Filled: true, AvgPrice: 100.2, FilledQty: 4}

	result, err := s.bot.PlaceSignal(context.Background(), s.longSignal(), 99)
	s.Require().NoError(err)
	s.Require().True(result.Filled)
}

func (s *BotTestSuite) TestNewBotWiresComponents() {
	s.NotNil(s.bot.Server())
	s.NotNil(s.bot.runtime)
	s.NotNil(s.bot.feed)
	s.Equal(execution.StateScan, s.bot.runtime.State())
}

func (s *BotTestSuite) TestPlaceSignalJournalsFill() {
	s.placeFilled()

	s.Require().Len(s.placed, 1)
	s.Equal("BTCUSDT", s.placed[0].Symbol)
	s.Equal(4.0, s.placed[0].Quantity)

	orders, err := s.bot.journal.Orders("BTCUSDT")
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(s.placed[0].ID, orders[0].PlanID)
	s.Equal(types.OrderStatusFilled, orders[0].Status)
	s.True(orders[0].StopSet)
	s.InDelta(100.2, orders[0].AvgPrice, 1e-9)

	positions, err := s.bot.journal.OpenPositions()
	s.Require().NoError(err)
	s.Require().Len(positions, 1)
	s.Equal("BTCUSDT", positions[0].Symbol)
	s.InDelta(100.2, positions[0].Entry, 1e-9)
	s.True(positions[0].SLActive)

	s.Equal(execution.StateManage, s.bot.runtime.State())
	s.Empty(s.errs)
}

func (s *BotTestSuite) TestPlaceSignalRejectionNotJournaled() {
	s.bot.runtime.SetKillSwitch(true)

	_, err := s.bot.PlaceSignal(context.Background(), s.longSignal(), 99)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeKillSwitchActive))

	orders, err := s.bot.journal.Orders("BTCUSDT")
	s.Require().NoError(err)
	s.Empty(orders)
	s.Empty(s.placed)
	s.Require().Len(s.errs, 1)
}

func (s *BotTestSuite) TestPlaceSignalFillTimeoutJournalsCancelled() {
	s.client.fillResult = exchange.FillResult{}

	_, err := s.bot.PlaceSignal(context.Background(), s.longSignal(), 99)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeFillTimeout))

	orders, err := s.bot.journal.Orders("BTCUSDT")
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(types.OrderStatusCancelled, orders[0].Status)

	positions, err := s.bot.journal.OpenPositions()
	s.Require().NoError(err)
	s.Empty(positions)

	s.Equal(execution.StateScan, s.bot.runtime.State())
	s.Empty(s.placed)
}

func (s *BotTestSuite) TestExitPositionFullPath() {
	s.placeFilled()

	pnl, err := s.bot.ExitPosition(context.Background(), "BTCUSDT", 101.2)
	s.Require().NoError(err)
	s.InDelta(4.0, pnl, 1e-9)

	s.Require().Len(s.client.createCalls, 2)
	exit := s.client.createCalls[1]
	s.Equal(types.PurchaseTypeSell, exit.Side)
	s.Equal(types.OrderTypeMarket, exit.OrderType)
	s.True(exit.ReduceOnly)
	s.Equal(4.0, exit.Quantity)

	s.Equal(execution.StateScan, s.bot.runtime.State())

	positions, err := s.bot.journal.OpenPositions()
	s.Require().NoError(err)
	s.Empty(positions)
}

func (s *BotTestSuite) TestExitUnknownPosition() {
	_, err := s.bot.ExitPosition(context.Background(), "ETHUSDT", 2000)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodePositionNotFound))
	s.Empty(s.client.createCalls)
}

func (s *BotTestSuite) TestExitCloseOrderFailure() {
	s.placeFilled()
	s.client.createErr = fmt.Errorf("margin check failed")

	_, err := s.bot.ExitPosition(context.Background(), "BTCUSDT", 101)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeExchangeRejected))

	// The position stays open everywhere.
	s.Equal(execution.StateManage, s.bot.runtime.State())

	positions, err := s.bot.journal.OpenPositions()
	s.Require().NoError(err)
	s.Len(positions, 1)
}

func (s *BotTestSuite) TestAdjustStopRearmsProtection() {
	s.placeFilled()

	s.Require().NoError(s.bot.AdjustStop(context.Background(), "BTCUSDT", 99.5))

	s.Require().Len(s.client.protectCalls, 2)
	rearm := s.client.protectCalls[1]
	s.Equal("BTCUSDT", rearm.symbol)
	s.Equal(types.PurchaseTypeBuy, rearm.entrySide)
	s.InDelta(99.5, rearm.protection.StopLoss, 1e-9)

	runtimePositions := s.bot.runtime.Positions()
	s.Require().Len(runtimePositions, 1)
	s.InDelta(99.5, runtimePositions[0].Stop, 1e-9)

	journalPositions, err := s.bot.journal.OpenPositions()
	s.Require().NoError(err)
	s.Require().Len(journalPositions, 1)
	s.InDelta(99.5, journalPositions[0].Stop, 1e-9)
}

func (s *BotTestSuite) TestAdjustStopWideningRejected() {
	s.placeFilled()

	err := s.bot.AdjustStop(context.Background(), "BTCUSDT", 98)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidStopLoss))

	// Only the placement protection call happened.
	s.Len(s.client.protectCalls, 1)
}

func (s *BotTestSuite) TestAdjustStopUnknownPosition() {
	err := s.bot.AdjustStop(context.Background(), "ETHUSDT", 99)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodePositionNotFound))
}

func (s *BotTestSuite) TestRunReconcilesAndServes() {
	s.Require().NoError(s.bot.journal.OpenPosition(types.Position{
		Symbol:   "BTCUSDT",
		Side:     types.PositionTypeLong,
		Entry:    100,
		Stop:     95,
		Quantity: 2,
		SLActive: true,
		OpenedAt: time.Now(),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- s.bot.Run(ctx)
	}()

	s.Require().Eventually(func() bool {
		response, err := http.Get(fmt.Sprintf("%s/health", s.bot.Server().BaseURL()))
		if err != nil {
			return false
		}
		defer response.Body.Close()

		return response.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	s.Equal(execution.StateManage, s.bot.runtime.State())
	s.InDelta(10.0, s.bot.runtime.OpenRiskUsd(), 1e-9)

	cancel()

	select {
	case err := <-done:
		s.Require().ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		s.Fail("bot did not stop after cancellation")
	}
}

func (s *BotTestSuite) TestRunFailsOnBalanceProbe() {
	s.client.balanceErr = fmt.Errorf("invalid api key")

	err := s.bot.Run(context.Background())
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeBalanceFetchFailed))
}

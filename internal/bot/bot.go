// Package bot assembles the trading engine from one root config: market
// feed, order flow store, execution runtime, exchange client, journal,
// risk provider and the operations server. It also implements the
// operator actions the control plane exposes.
package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/config"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/controlplane"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/exchange"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/execution"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/feed"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/fees"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/journal"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/logger"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/orderflow"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/risk"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

// Bot owns every long-lived component and wires them together.
type Bot struct {
	config       config.Config
	logger       *logger.Logger
	store        *orderflow.Store
	liquidations *orderflow.LiquidationBuffer
	runtime      *execution.Runtime
	client       exchange.Client
	feeModel     fees.Model
	riskProvider *risk.Provider
	journal      *journal.Journal
	feed         *feed.Feed
	server       *controlplane.Server
	callbacks    Callbacks
}

// clientBalanceSource reads the balance through whatever client the bot
// currently holds, so a client injected after construction is picked
// up.
type clientBalanceSource struct {
	bot *Bot
}

func (s clientBalanceSource) Balance(ctx context.Context) (float64, error) {
	return s.bot.client.Balance(ctx)
}

// NewBot builds every component from the config. Nothing connects or
// listens until Run.
func NewBot(cfg config.Config, callbacks Callbacks) (*Bot, error) {
	log, err := logger.NewLogger()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runtime, err := execution.NewRuntime(cfg.Runtime, log)
	if err != nil {
		return nil, err
	}

	client, err := exchange.NewBinanceFutures(cfg.Exchange, log)
	if err != nil {
		return nil, err
	}

	orderJournal, err := journal.NewJournal(cfg.Journal, log)
	if err != nil {
		return nil, err
	}

	store := orderflow.NewStore()
	liquidations := orderflow.NewLiquidationBuffer()

	b := &Bot{
		config:       cfg,
		logger:       log,
		store:        store,
		liquidations: liquidations,
		runtime:      runtime,
		client:       client,
		feeModel:     fees.GetFeeModel(fees.ScheduleFlat, cfg.Runtime.FeeRate),
		journal:      orderJournal,
		callbacks:    callbacks,
	}

	riskProvider, err := risk.NewProvider(cfg.Risk, clientBalanceSource{bot: b}, log)
	if err != nil {
		if closeErr := orderJournal.Close(); closeErr != nil {
			log.Warn("Failed to close journal", zap.Error(closeErr))
		}

		return nil, err
	}

	b.riskProvider = riskProvider
	b.feed = feed.NewFeed(cfg.Feed, cfg.Symbols, store, liquidations, log)
	b.server = controlplane.NewServer(cfg.Server, runtime, store, liquidations, b, log)

	return b, nil
}

// SetClient replaces the exchange client. Must be called before Run.
func (b *Bot) SetClient(client exchange.Client) {
	b.client = client
}

// Server returns the operations server, which knows its bound address
// once Run has started it.
func (b *Bot) Server() *controlplane.Server {
	return b.server
}

// Run starts the market feed and the operations server, reconciles open
// positions from the journal and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	var runErr error

	defer func() {
		if err := b.server.Stop(); err != nil {
			b.logger.Warn("Failed to stop operations server", zap.Error(err))
		}

		if err := b.journal.Close(); err != nil {
			b.logger.Warn("Failed to close journal", zap.Error(err))
		}
	}()

	if err := b.preRunCheck(); err != nil {
		runErr = err

		return runErr
	}

	// Probe the account before opening any streams. Bad credentials
	// should fail here, not on the first placement.
	balance, err := b.client.Balance(ctx)
	if err != nil {
		runErr = errors.Wrap(errors.ErrCodeBalanceFetchFailed, "pre-run balance check failed", err)

		return runErr
	}

	b.logger.Info("Account balance", zap.Float64("balance", balance))

	positions, err := b.journal.OpenPositions()
	if err != nil {
		runErr = err

		return runErr
	}

	b.runtime.Reconcile(positions)

	if err := b.server.Start(); err != nil {
		runErr = err

		return runErr
	}

	feedDone := make(chan error, 1)

	go func() {
		feedDone <- b.feed.Run(ctx)
	}()

	b.logger.Info("Bot running",
		zap.Strings("symbols", b.config.Symbols),
		zap.String("server", b.server.Address()))

	select {
	case <-ctx.Done():
		// The feed unwinds on the same ctx; wait for it.
		runErr = <-feedDone
	case runErr = <-feedDone:
	}

	return runErr
}

func (b *Bot) preRunCheck() error {
	if b.client == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "exchange client not set")
	}

	if len(b.config.Symbols) == 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "no symbols configured")
	}

	return nil
}

// PlaceSignal runs the full placement path for an operator signal: risk
// snapshot, runtime approval, protected placement, journal record.
func (b *Bot) PlaceSignal(ctx context.Context, signal types.Signal, stop float64) (execution.PlaceOrderResult, error) {
	snapshot, err := b.riskProvider.Snapshot(ctx, b.runtime.OpenRiskUsd())
	if err != nil {
		b.emitError(err)

		return execution.PlaceOrderResult{}, err
	}

	plan, result, placeErr := b.runtime.PlaceWithAdapter(ctx, b.client, signal, snapshot, b.feeModel, stop, b.config.FillTimeout())
	if plan.ID != "" {
		b.recordPlacement(plan, result)
	}

	if placeErr != nil {
		b.emitError(placeErr)

		return result, placeErr
	}

	if b.callbacks.OnOrderPlaced != nil {
		(*b.callbacks.OnOrderPlaced)(plan, result)
	}

	return result, nil
}

// ExitPosition closes an open position with a reduce-only market order,
// updates the runtime book and journals the realized PnL.
func (b *Bot) ExitPosition(ctx context.Context, symbol string, exitPrice float64) (float64, error) {
	position, ok := b.findPosition(symbol)
	if !ok {
		return 0, errors.Newf(errors.ErrCodePositionNotFound, "no open position for %s", symbol)
	}

	closeSide := types.PurchaseTypeSell
	if position.Side == types.PositionTypeShort {
		closeSide = types.PurchaseTypeBuy
	}

	_, err := b.client.CreateOrder(ctx, types.OrderRequest{
		Symbol:     symbol,
		Side:       closeSide,
		OrderType:  types.OrderTypeMarket,
		Quantity:   position.Quantity,
		ReduceOnly: true,
	})
	if err != nil {
		b.emitError(err)

		return 0, errors.Wrap(errors.ErrCodeExchangeRejected, "failed to close position", err)
	}

	if err := b.runtime.ExitPosition(symbol); err != nil {
		return 0, err
	}

	pnl, journalErr := b.journal.ClosePosition(symbol, exitPrice, time.Now())
	if journalErr != nil {
		// The position is already closed on the exchange; a journal
		// miss must not fail the operation.
		b.logger.Warn("Failed to journal position close", zap.Error(journalErr))
		b.emitError(journalErr)

		pnl = realizedPnl(position, exitPrice)
	}

	return pnl, nil
}

// AdjustStop tightens the protective stop on an open position, re-arms
// it on the exchange and journals the new level. Widening is rejected.
func (b *Bot) AdjustStop(ctx context.Context, symbol string, stop float64) error {
	position, ok := b.findPosition(symbol)
	if !ok {
		return errors.Newf(errors.ErrCodePositionNotFound, "no open position for %s", symbol)
	}

	tightens := (position.Side == types.PositionTypeLong && stop > position.Stop) ||
		(position.Side == types.PositionTypeShort && stop < position.Stop)
	if !tightens {
		return errors.Newf(errors.ErrCodeInvalidStopLoss, "stop %v does not tighten current stop %v", stop, position.Stop)
	}

	entrySide := types.PurchaseTypeBuy
	if position.Side == types.PositionTypeShort {
		entrySide = types.PurchaseTypeSell
	}

	if err := b.client.SetProtection(ctx, symbol, entrySide, exchange.Protection{StopLoss: stop}); err != nil {
		b.emitError(err)

		return errors.Wrap(errors.ErrCodeProtectionFailed, "failed to move stop", err)
	}

	b.runtime.AdjustStop(symbol, stop)

	if err := b.journal.UpdateStop(symbol, stop); err != nil {
		b.logger.Warn("Failed to journal stop update", zap.Error(err))
		b.emitError(err)
	}

	return nil
}

// recordPlacement journals the order outcome and, when the order
// filled, the opened position.
func (b *Bot) recordPlacement(plan execution.OrderPlan, result execution.PlaceOrderResult) {
	status := types.OrderStatusFilled

	switch {
	case result.OrderID == "":
		status = types.OrderStatusFailed
	case result.FilledQty <= 0:
		status = types.OrderStatusCancelled
	case !result.Filled:
		status = types.OrderStatusPartiallyFilled
	}

	if err := b.journal.RecordOrder(time.Now(), plan, result, status); err != nil {
		b.logger.Warn("Failed to journal order", zap.Error(err))
		b.emitError(err)
	}

	if result.FilledQty <= 0 {
		return
	}

	entry := result.AvgPrice
	if entry <= 0 {
		entry = plan.Entry
	}

	side := types.PositionTypeLong
	if plan.Side == types.PurchaseTypeSell {
		side = types.PositionTypeShort
	}

	position := types.Position{
		Symbol:   plan.Symbol,
		Side:     side,
		Entry:    entry,
		Stop:     plan.Stop,
		Quantity: result.FilledQty,
		SLActive: result.StopSet,
		OpenedAt: time.Now(),
	}

	if err := b.journal.OpenPosition(position); err != nil {
		b.logger.Warn("Failed to journal position open", zap.Error(err))
		b.emitError(err)
	}
}

func (b *Bot) findPosition(symbol string) (types.Position, bool) {
	for _, position := range b.runtime.Positions() {
		if position.Symbol == symbol {
			return position, true
		}
	}

	return types.Position{}, false
}

func (b *Bot) emitError(err error) {
	if b.callbacks.OnError != nil {
		(*b.callbacks.OnError)(err)
	}
}

func realizedPnl(position types.Position, exitPrice float64) float64 {
	diff := exitPrice - position.Entry
	if position.Side == types.PositionTypeShort {
		diff = position.Entry - exitPrice
	}

	return diff * position.Quantity
}

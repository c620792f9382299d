// Package feed streams Binance USD-M futures market data into the
// order flow store: top-of-book depth, aggregated trades and forced
// liquidations over one WebSocket connection.
package feed

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/logger"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/orderflow"
	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

const (
	defaultStreamURL = "wss://fstream.binance.com/ws"

	maxMessageBytes = 5 * 1024 * 1024
	readTimeout     = 60 * time.Second
	writeTimeout    = 10 * time.Second
	pingInterval    = 20 * time.Second
	// watchdogQuiet forces a reconnect when the connection stays up but
	// nothing arrives. Depth pushes every 100ms, so this is generous.
	watchdogQuiet = 30 * time.Second

	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// Feed owns the stream connection and routes parsed events into the
// order flow store and the liquidation buffer.
type Feed struct {
	config       Config
	symbols      []string
	store        *orderflow.Store
	liquidations *orderflow.LiquidationBuffer
	logger       *logger.Logger

	dropped atomic.Int64
}

// NewFeed creates a feed for the given symbols.
func NewFeed(config Config, symbols []string, store *orderflow.Store, liquidations *orderflow.LiquidationBuffer, log *logger.Logger) *Feed {
	return &Feed{
		config:       config,
		symbols:      symbols,
		store:        store,
		liquidations: liquidations,
		logger:       log,
	}
}

// Dropped returns the count of malformed frames discarded so far.
func (f *Feed) Dropped() int64 {
	return f.dropped.Load()
}

// Run connects and pumps events until ctx is cancelled, reconnecting
// with capped exponential backoff on any connection failure.
func (f *Feed) Run(ctx context.Context) error {
	backoff := reconnectBase

	for {
		started := time.Now()

		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// A connection that lived a while earns a fresh backoff.
		if time.Since(started) > time.Minute {
			backoff = reconnectBase
		}

		f.logger.Warn("stream disconnected",
			zap.Error(err),
			zap.Duration("retry_in", backoff))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

// runConnection dials, subscribes and reads until the connection dies
// or ctx is cancelled.
func (f *Feed) runConnection(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.streamURL(), nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFeedUnavailable, "failed to dial stream", err)
	}
	defer conn.Close()

	if err := f.subscribe(conn); err != nil {
		return err
	}

	f.logger.Info("stream connected",
		zap.String("url", f.streamURL()),
		zap.Strings("symbols", f.symbols))

	conn.SetReadLimit(maxMessageBytes)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	var lastMessage atomic.Int64
	lastMessage.Store(time.Now().UnixNano())

	keepaliveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go f.keepalive(keepaliveCtx, conn, &lastMessage)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			return errors.Wrap(errors.ErrCodeFeedUnavailable, "stream read failed", err)
		}

		lastMessage.Store(time.Now().UnixNano())
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		f.handleMessage(raw)
	}
}

// keepalive pings the peer and force-closes a connection that went
// silent, which unblocks the read loop into a reconnect.
func (f *Feed) keepalive(ctx context.Context, conn *websocket.Conn, lastMessage *atomic.Int64) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Unblocks the read loop so cancellation is prompt.
			conn.Close()

			return
		case <-ticker.C:
			if time.Since(time.Unix(0, lastMessage.Load())) > watchdogQuiet {
				f.logger.Warn("stream silent, forcing reconnect")
				conn.Close()

				return
			}

			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()

				return
			}
		}
	}
}

// subscribe sends one SUBSCRIBE frame covering depth, trades and
// liquidations for every configured symbol.
func (f *Feed) subscribe(conn *websocket.Conn) error {
	params := make([]string, 0, len(f.symbols)*3)

	for _, symbol := range f.symbols {
		stream := strings.ToLower(symbol)
		params = append(params,
			stream+"@depth20@100ms",
			stream+"@aggTrade",
			stream+"@forceOrder")
	}

	payload := map[string]any{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     time.Now().Unix(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFeedSubscription, "failed to marshal subscription", err)
	}

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(errors.ErrCodeFeedSubscription, "failed to subscribe", err)
	}

	return nil
}

func (f *Feed) streamURL() string {
	if f.config.URL != "" {
		return f.config.URL
	}

	return defaultStreamURL
}

// dropMessage counts a malformed frame. The stream keeps running; a bad
// frame is data loss, not a connection problem.
func (f *Feed) dropMessage(reason string, err error) {
	f.dropped.Add(1)
	f.logger.Debug("dropped stream frame",
		zap.String("reason", reason),
		zap.Error(err))
}

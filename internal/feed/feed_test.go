package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/logger"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/orderflow"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
)

type FeedTestSuite struct {
	suite.Suite
	store        *orderflow.Store
	liquidations *orderflow.LiquidationBuffer
	feed         *Feed
}

func TestFeedSuite(t *testing.T) {
	suite.Run(t, new(FeedTestSuite))
}

func (s *FeedTestSuite) SetupTest() {
	log, err := logger.NewLogger()
	s.Require().NoError(err)

	s.store = orderflow.NewStore()
	s.liquidations = orderflow.NewLiquidationBuffer()
	s.feed = NewFeed(Config{}, []string{"BTCUSDT"}, s.store, s.liquidations, log)
}

func (s *FeedTestSuite) TestDepthFrameUpdatesBook() {
	frame := `{"e":"depthUpdate","E":1700000000100,"T":1700000000095,"s":"BTCUSDT",` +
		`"U":100,"u":120,"pu":99,` +
		`"b":[["42000.50","1.5"],["42000.00","2.0"]],` +
		`"a":[["42001.00","0.8"],["42001.50","1.2"]]}`

	s.feed.handleMessage([]byte(frame))

	snapshot := s.store.GetSnapshot("BTCUSDT")
	s.Equal(42000.5, snapshot.BestBid)
	s.Equal(42001.0, snapshot.BestAsk)
	s.Equal(int64(0), s.feed.Dropped())
}

func (s *FeedTestSuite) TestAggTradeMakerFlagResolvesSide() {
	sell := `{"e":"aggTrade","E":1700000000200,"s":"BTCUSDT","a":5,` +
		`"p":"42000.10","q":"0.25","f":1,"l":2,"T":1700000000190,"m":true}`
	buy := `{"e":"aggTrade","E":1700000000210,"s":"BTCUSDT","a":6,` +
		`"p":"42000.20","q":"0.40","f":3,"l":4,"T":1700000000205,"m":false}`

	s.feed.handleMessage([]byte(sell))
	s.feed.handleMessage([]byte(buy))

	snapshot := s.store.GetSnapshot("BTCUSDT")
	s.Require().Len(snapshot.Trades, 2)
	s.Equal(types.TradeSideSell, snapshot.Trades[0].Side)
	s.Equal(42000.10, snapshot.Trades[0].Price)
	s.Equal(0.25, snapshot.Trades[0].Size)
	s.Equal(types.TradeSideBuy, snapshot.Trades[1].Side)
	s.Equal(time.UnixMilli(1700000000205).UTC(), snapshot.Trades[1].Time.UTC())
	s.InDelta(0.15, snapshot.Delta, 1e-9)
}

func (s *FeedTestSuite) TestForceOrderBuffered() {
	frame := `{"e":"forceOrder","E":1700000000300,"o":{"s":"BTCUSDT","S":"SELL",` +
		`"o":"LIMIT","f":"IOC","q":"0.014","p":"41900.00","ap":"41950.11",` +
		`"X":"FILLED","l":"0.014","z":"0.014","T":1700000000299}}`

	s.feed.handleMessage([]byte(frame))

	events := s.liquidations.Recent("BTCUSDT")
	s.Require().Len(events, 1)
	s.Equal(types.TradeSideSell, events[0].Side)
	s.Equal(41900.0, events[0].Price)
	s.Equal(0.014, events[0].Size)
	s.Equal(time.UnixMilli(1700000000299).UTC(), events[0].Time.UTC())
}

func (s *FeedTestSuite) TestSubscriptionAckIgnored() {
	s.feed.handleMessage([]byte(`{"result":null,"id":1}`))

	s.Equal(int64(0), s.feed.Dropped())
	s.Empty(s.store.Symbols())
}

func (s *FeedTestSuite) TestMalformedFramesCounted() {
	s.feed.handleMessage([]byte(`not json`))
	s.feed.handleMessage([]byte(`{"e":"depthUpdate","s":"BTCUSDT","b":"bogus"}`))
	s.feed.handleMessage([]byte(`{"e":"aggTrade","p":"1","q":"2"}`))

	s.Equal(int64(3), s.feed.Dropped())
	s.Empty(s.store.Symbols())
}

func (s *FeedTestSuite) TestStreamURLOverride() {
	s.Equal(defaultStreamURL, s.feed.streamURL())

	log, err := logger.NewLogger()
	s.Require().NoError(err)

	custom := NewFeed(Config{URL: "ws://localhost:9999/ws"}, nil, s.store, s.liquidations, log)
	s.Equal("ws://localhost:9999/ws", custom.streamURL())
}

func (s *FeedTestSuite) TestRunStreamsFromServer() {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan []string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var request struct {
			Method string   `json:"method"`
			Params []string `json:"params"`
		}
		if err := conn.ReadJSON(&request); err != nil {
			return
		}
		subscribed <- request.Params

		depth := `{"e":"depthUpdate","E":1700000000100,"T":1700000000095,"s":"BTCUSDT",` +
			`"b":[["42000.50","1.5"]],"a":[["42001.00","0.8"]]}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(depth)); err != nil {
			return
		}

		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	log, err := logger.NewLogger()
	s.Require().NoError(err)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	feed := NewFeed(Config{URL: url}, []string{"BTCUSDT"}, s.store, s.liquidations, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- feed.Run(ctx)
	}()

	select {
	case params := <-subscribed:
		s.ElementsMatch([]string{"btcusdt@depth20@100ms", "btcusdt@aggTrade", "btcusdt@forceOrder"}, params)
	case <-time.After(2 * time.Second):
		s.FailNow("no subscription received")
	}

	s.Eventually(func() bool {
		return s.store.GetSnapshot("BTCUSDT").BestBid == 42000.5
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(2 * time.Second):
		s.FailNow("run did not stop on cancellation")
	}
}

func TestEventShapes(t *testing.T) {
	// The wire structs stay aligned with the exchange payloads.
	var depth depthEvent
	if err := json.Unmarshal([]byte(`{"e":"depthUpdate","s":"X","b":[["1","2"]],"a":[]}`), &depth); err != nil {
		t.Fatalf("depth unmarshal: %v", err)
	}
	if depth.Bids[0][0] != "1" {
		t.Fatalf("unexpected bid price %q", depth.Bids[0][0])
	}
}

package feed

import (
	"encoding/json"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/orderflow"
)

// depthEvent is the futures partial book depth push. Each push carries
// the full top 20 levels per side, so it is applied as a snapshot.
type depthEvent struct {
	Event  string     `json:"e"`
	Symbol string     `json:"s"`
	Bids   [][]string `json:"b"`
	Asks   [][]string `json:"a"`
}

// aggTradeEvent is the futures aggregated trade push. The maker flag
// encodes the aggressor: a buyer-maker print was seller-initiated.
type aggTradeEvent struct {
	Event      string `json:"e"`
	Symbol     string `json:"s"`
	Price      string `json:"p"`
	Quantity   string `json:"q"`
	TradeTime  int64  `json:"T"`
	BuyerMaker bool   `json:"m"`
}

// forceOrderEvent is the futures liquidation order push.
type forceOrderEvent struct {
	Event string `json:"e"`
	Order struct {
		Symbol    string `json:"s"`
		Side      string `json:"S"`
		Price     string `json:"p"`
		Quantity  string `json:"q"`
		TradeTime int64  `json:"T"`
	} `json:"o"`
}

// handleMessage routes one raw frame by its event type. Subscription
// acks carry no event type and fall through silently.
func (f *Feed) handleMessage(raw []byte) {
	var probe struct {
		Event string `json:"e"`
	}

	if err := json.Unmarshal(raw, &probe); err != nil {
		f.dropMessage("unparsable frame", err)
		return
	}

	switch probe.Event {
	case "depthUpdate":
		f.handleDepth(raw)
	case "aggTrade":
		f.handleAggTrade(raw)
	case "forceOrder":
		f.handleForceOrder(raw)
	}
}

func (f *Feed) handleDepth(raw []byte) {
	var event depthEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		f.dropMessage("bad depth frame", err)
		return
	}

	if event.Symbol == "" {
		f.dropMessage("depth frame without symbol", nil)
		return
	}

	bids := orderflow.ParseBookLevels(event.Bids)
	asks := orderflow.ParseBookLevels(event.Asks)

	f.store.UpdateOrderbook(event.Symbol, bids, asks, true)
}

func (f *Feed) handleAggTrade(raw []byte) {
	var event aggTradeEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		f.dropMessage("bad trade frame", err)
		return
	}

	if event.Symbol == "" {
		f.dropMessage("trade frame without symbol", nil)
		return
	}

	side := "buy"
	if event.BuyerMaker {
		side = "sell"
	}

	f.store.UpdateTrades(event.Symbol, []map[string]any{{
		"side":  side,
		"price": event.Price,
		"size":  event.Quantity,
		"time":  event.TradeTime,
	}})
}

func (f *Feed) handleForceOrder(raw []byte) {
	var event forceOrderEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		f.dropMessage("bad liquidation frame", err)
		return
	}

	if event.Order.Symbol == "" {
		f.dropMessage("liquidation frame without symbol", nil)
		return
	}

	liquidation, ok := orderflow.ParseLiquidation(map[string]any{
		"side":  event.Order.Side,
		"price": event.Order.Price,
		"size":  event.Order.Quantity,
		"time":  event.Order.TradeTime,
	})
	if !ok {
		f.dropMessage("unusable liquidation frame", nil)
		return
	}

	f.liquidations.Add(event.Order.Symbol, liquidation)
}

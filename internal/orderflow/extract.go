package orderflow

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
)

// Field aliases accepted on inbound raw records. Exchanges disagree on
// field naming, so each field is resolved from an ordered candidate
// list with the first usable key winning.
var (
	sideKeys  = []string{"side", "S", "takerSide", "direction"}
	priceKeys = []string{"price", "p"}
	sizeKeys  = []string{"size", "q", "qty", "quantity", "amount"}
	timeKeys  = []string{"time", "T", "timestamp", "ts"}
)

// ParseTradeTick builds a trade tick from a raw record. It returns false
// when no side can be resolved or price or size are not finite numbers.
// A missing timestamp leaves the tick time zero.
func ParseTradeTick(raw map[string]any) (types.TradeTick, bool) {
	side, ok := resolveSide(raw)
	if !ok {
		return types.TradeTick{}, false
	}
	price, ok := resolveFloat(raw, priceKeys)
	if !ok {
		return types.TradeTick{}, false
	}
	size, ok := resolveFloat(raw, sizeKeys)
	if !ok {
		return types.TradeTick{}, false
	}

	tick := types.TradeTick{
		Price: price,
		Size:  size,
		Side:  side,
	}
	if ts, ok := resolveTime(raw); ok {
		tick.Time = ts
	}
	return tick, true
}

// ParseLiquidation builds a liquidation event from a raw record, with
// the same field resolution rules as trades.
func ParseLiquidation(raw map[string]any) (types.LiquidationEvent, bool) {
	side, ok := resolveSide(raw)
	if !ok {
		return types.LiquidationEvent{}, false
	}
	price, ok := resolveFloat(raw, priceKeys)
	if !ok {
		return types.LiquidationEvent{}, false
	}
	size, ok := resolveFloat(raw, sizeKeys)
	if !ok {
		return types.LiquidationEvent{}, false
	}

	event := types.LiquidationEvent{
		Price: price,
		Size:  size,
		Side:  side,
	}
	if ts, ok := resolveTime(raw); ok {
		event.Time = ts
	}
	return event, true
}

// ParseBookLevels converts wire levels in [price, size] string pair form
// into typed book levels, dropping malformed entries.
func ParseBookLevels(raw [][]string) []types.BookLevel {
	levels := make([]types.BookLevel, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			continue
		}
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil || !isFinite(price) {
			continue
		}
		size, err := strconv.ParseFloat(pair[1], 64)
		if err != nil || !isFinite(size) {
			continue
		}
		levels = append(levels, types.BookLevel{Price: price, Size: size})
	}
	return levels
}

func resolveSide(raw map[string]any) (types.TradeSide, bool) {
	for _, key := range sideKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch strings.ToLower(s) {
		case "buy":
			return types.TradeSideBuy, true
		case "sell":
			return types.TradeSideSell, true
		}
	}
	return "", false
}

func resolveFloat(raw map[string]any, keys []string) (float64, bool) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if f, ok := asFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

func resolveTime(raw map[string]any) (time.Time, bool) {
	for _, key := range timeKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if ts, ok := asTime(v); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

// asFloat accepts the numeric encodings seen on exchange streams:
// JSON numbers, quoted decimal strings and Go integer types.
func asFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if !isFinite(f) {
		return 0, false
	}
	return f, true
}

// asTime accepts millisecond epoch numbers, RFC 3339 strings and
// time.Time values.
func asTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case float64:
		return time.UnixMilli(int64(val)), true
	case int:
		return time.UnixMilli(int64(val)), true
	case int64:
		return time.UnixMilli(val), true
	case json.Number:
		ms, err := val.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	case string:
		ts, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	}
	return time.Time{}, false
}

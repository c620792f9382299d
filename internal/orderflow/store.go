// Package orderflow maintains per-instrument microstructure state from
// streaming order book and trade tape events and serves point-in-time
// feature snapshots to the strategy layer.
package orderflow

import (
	"math"
	"sort"
	"sync"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
)

const (
	// maxOFIHistory bounds the retained order-flow imbalance samples.
	maxOFIHistory = 50
	// maxTradeTape bounds the retained tape prints per symbol.
	maxTradeTape = 1500
	// maxVPINBuckets bounds the retained bucket imbalance samples.
	maxVPINBuckets = 100
	// deltaWindow is the number of recent trades the snapshot delta
	// statistics are computed over.
	deltaWindow = 200
)

// state is the mutable aggregate for one symbol. All access is
// serialized by the owning Store; OFI and bucket math depend on strict
// previous-versus-current ordering.
type state struct {
	bids map[float64]float64
	asks map[float64]float64

	bestBid     float64
	bestAsk     float64
	bestBidSize float64
	bestAskSize float64

	prevBestBidSize float64
	prevBestAskSize float64

	ofiHistory []float64

	trades []types.TradeTick

	vpinBuckets []float64
	bucketBuy   float64
	bucketSell  float64
	bucketSize  float64
}

func newState() *state {
	return &state{
		bids: make(map[float64]float64),
		asks: make(map[float64]float64),
	}
}

// Store is the registry of per-symbol order flow state. One instance is
// created at startup and passed by reference to the feed and control
// plane; symbol states are created lazily on first write.
type Store struct {
	mu     sync.RWMutex
	states map[string]*state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		states: make(map[string]*state),
	}
}

// getOrCreate returns the state for symbol, creating it on first write.
// Caller must hold mu.
func (s *Store) getOrCreate(symbol string) *state {
	st, ok := s.states[symbol]
	if !ok {
		st = newState()
		s.states[symbol] = st
	}
	return st
}

// UpdateOrderbook applies one book update to the symbol state. A
// snapshot replaces both sides, a delta upserts the given levels with a
// size at or below zero removing the price. Levels with a non-finite
// price or size are skipped. Every call appends one order-flow
// imbalance sample derived from the change in best-level sizes.
func (s *Store) UpdateOrderbook(symbol string, bids []types.BookLevel, asks []types.BookLevel, isSnapshot bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(symbol)

	if isSnapshot {
		st.bids = make(map[float64]float64)
		st.asks = make(map[float64]float64)
	}

	bidsTouched := applyLevels(st.bids, bids) || isSnapshot
	asksTouched := applyLevels(st.asks, asks) || isSnapshot

	if bidsTouched {
		st.prevBestBidSize = st.bestBidSize
		st.bestBid, st.bestBidSize = maxLevel(st.bids)
	}
	if asksTouched {
		st.prevBestAskSize = st.bestAskSize
		st.bestAsk, st.bestAskSize = minLevel(st.asks)
	}

	ofi := (st.bestBidSize - st.prevBestBidSize) - (st.bestAskSize - st.prevBestAskSize)
	if isFinite(ofi) {
		st.ofiHistory = appendBounded(st.ofiHistory, ofi, maxOFIHistory)
	}
}

// UpdateTrades appends raw tape prints to the symbol state and advances
// the volume clock. Prints with an unresolvable side or non-finite
// price or size are skipped. The bucket threshold adapts to the average
// trade size over the whole retained tape; once the in-progress bucket
// volume crosses it, the bucket imbalance is recorded and both
// accumulators reset.
func (s *Store) UpdateTrades(symbol string, rawTrades []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(symbol)

	for _, raw := range rawTrades {
		tick, ok := ParseTradeTick(raw)
		if !ok {
			continue
		}

		st.trades = appendBounded(st.trades, tick, maxTradeTape)

		total := 0.0
		for _, t := range st.trades {
			total += t.Size
		}
		avg := total / float64(len(st.trades))
		st.bucketSize = math.Max(avg*50, math.Max(avg*10, 1))

		if tick.Side == types.TradeSideBuy {
			st.bucketBuy += tick.Size
		} else {
			st.bucketSell += tick.Size
		}

		if volume := st.bucketBuy + st.bucketSell; volume >= st.bucketSize {
			imbalance := math.Abs(st.bucketBuy-st.bucketSell) / volume
			st.vpinBuckets = appendBounded(st.vpinBuckets, imbalance, maxVPINBuckets)
			st.bucketBuy = 0
			st.bucketSell = 0
		}
	}
}

// GetSnapshot returns the current feature view for symbol without
// mutating state. Unknown symbols yield a zero-valued snapshot.
func (s *Store) GetSnapshot(symbol string) types.OrderFlowSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := types.OrderFlowSnapshot{
		Symbol: symbol,
		Trades: []types.TradeTick{},
	}

	st, ok := s.states[symbol]
	if !ok {
		return snapshot
	}

	if n := len(st.ofiHistory); n > 0 {
		snapshot.OFI = st.ofiHistory[n-1]
		if n > 1 {
			snapshot.OFIPrev = st.ofiHistory[n-2]
		}
	}

	if len(st.vpinBuckets) > 0 {
		total := 0.0
		for _, v := range st.vpinBuckets {
			total += v
		}
		snapshot.VPIN = total / float64(len(st.vpinBuckets))
	}

	snapshot.BestBid = st.bestBid
	snapshot.BestAsk = st.bestAsk

	n := len(st.trades)
	recent := st.trades[max(0, n-deltaWindow):]
	prior := st.trades[max(0, n-2*deltaWindow):max(0, n-deltaWindow)]
	snapshot.Delta = signedVolume(recent)
	snapshot.DeltaPrev = signedVolume(prior)

	if n > 0 {
		snapshot.LastTradeAt = st.trades[n-1].Time
	}

	snapshot.Trades = make([]types.TradeTick, len(recent))
	copy(snapshot.Trades, recent)

	return snapshot
}

// Symbols returns the symbols with state, sorted for stable output.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.states))
	for symbol := range s.states {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// applyLevels upserts levels into one book side and reports whether any
// valid level was applied.
func applyLevels(side map[float64]float64, levels []types.BookLevel) bool {
	touched := false
	for _, lvl := range levels {
		if !isFinite(lvl.Price) || !isFinite(lvl.Size) {
			continue
		}
		if lvl.Size <= 0 {
			delete(side, lvl.Price)
		} else {
			side[lvl.Price] = lvl.Size
		}
		touched = true
	}
	return touched
}

// maxLevel returns the highest price level, or zeros for an empty side.
func maxLevel(side map[float64]float64) (price float64, size float64) {
	found := false
	for p, s := range side {
		if !found || p > price {
			price, size = p, s
			found = true
		}
	}
	return price, size
}

// minLevel returns the lowest price level, or zeros for an empty side.
func minLevel(side map[float64]float64) (price float64, size float64) {
	found := false
	for p, s := range side {
		if !found || p < price {
			price, size = p, s
			found = true
		}
	}
	return price, size
}

// signedVolume sums buy sizes minus sell sizes.
func signedVolume(trades []types.TradeTick) float64 {
	total := 0.0
	for _, t := range trades {
		if t.Side == types.TradeSideBuy {
			total += t.Size
		} else {
			total -= t.Size
		}
	}
	return total
}

// appendBounded appends v and evicts the oldest entries beyond limit.
func appendBounded[T any](seq []T, v T, limit int) []T {
	seq = append(seq, v)
	if len(seq) > limit {
		seq = seq[len(seq)-limit:]
	}
	return seq
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

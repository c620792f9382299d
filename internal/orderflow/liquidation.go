package orderflow

import (
	"sync"
	"time"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
)

const (
	// maxLiquidations bounds retained liquidation prints per symbol.
	maxLiquidations = 50
	// liquidationTTL is how long a liquidation print stays relevant.
	liquidationTTL = 5 * time.Minute
)

// LiquidationBuffer retains recent forced liquidation prints per
// symbol. Entries expire after liquidationTTL and the buffer holds at
// most maxLiquidations entries per symbol, dropping the oldest first.
// Both constraints are applied on every insert, age filter first.
type LiquidationBuffer struct {
	mu     sync.Mutex
	events map[string][]types.LiquidationEvent
	now    func() time.Time
}

// NewLiquidationBuffer creates an empty buffer.
func NewLiquidationBuffer() *LiquidationBuffer {
	return NewLiquidationBufferWithClock(time.Now)
}

// NewLiquidationBufferWithClock is NewLiquidationBuffer with an
// injectable clock for tests.
func NewLiquidationBufferWithClock(now func() time.Time) *LiquidationBuffer {
	return &LiquidationBuffer{
		events: make(map[string][]types.LiquidationEvent),
		now:    now,
	}
}

// Add inserts one liquidation print. Prints without a timestamp are
// stamped with the arrival time.
func (b *LiquidationBuffer) Add(symbol string, event types.LiquidationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if event.Time.IsZero() {
		event.Time = b.now()
	}

	events := append(b.events[symbol], event)

	cutoff := b.now().Add(-liquidationTTL)
	fresh := events[:0]
	for _, ev := range events {
		if ev.Time.After(cutoff) {
			fresh = append(fresh, ev)
		}
	}
	if len(fresh) > maxLiquidations {
		fresh = fresh[len(fresh)-maxLiquidations:]
	}
	b.events[symbol] = fresh
}

// Recent returns a copy of the retained prints for symbol, oldest
// first.
func (b *LiquidationBuffer) Recent(symbol string) []types.LiquidationEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.events[symbol]
	out := make([]types.LiquidationEvent, len(events))
	copy(out, events)
	return out
}

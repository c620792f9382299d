package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/orderflow"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
)

// DataGenerator generates realistic order flow data for testing and benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Tick is one generated slice of market activity: a full order book
// snapshot, the tape prints that crossed it, and at most one forced
// liquidation.
type Tick struct {
	Symbol string
	Time   time.Time
	Bids   []types.BookLevel
	Asks   []types.BookLevel
	// Trades holds raw tape prints in the wire shape the store ingests.
	Trades []map[string]any
	// Liquidation is nil on ticks without a forced print.
	Liquidation *types.LiquidationEvent
}

// GeneratorConfig configures how order flow data is generated.
type GeneratorConfig struct {
	// Symbol is the instrument symbol (e.g., "BTCUSDT", "ETHUSDT")
	Symbol string
	// StartTime is the beginning of the event series
	StartTime time.Time
	// Interval is the duration between each tick
	Interval time.Duration
	// Count is the number of ticks to generate
	Count int
	// InitialPrice is the starting mid price
	InitialPrice float64
	// Volatility controls mid price movement per tick (0.0004 = 4 bps)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// Spread is the bid-ask spread as a fraction of the mid price
	Spread float64
	// Depth is the number of book levels generated per side
	Depth int
	// BaseSize is the average size of a book level or tape print
	BaseSize float64
	// SizeVariance is the variance in sizes (0.0 to 1.0)
	SizeVariance float64
	// LiquidationRate is the per-tick probability of a forced print
	LiquidationRate float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:          "BTCUSDT",
		StartTime:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:        100 * time.Millisecond,
		Count:           10000,
		InitialPrice:    42000.0,
		Volatility:      0.0004, // 4 bps per tick
		Trend:           0.0,    // neutral
		Spread:          0.0002, // 2 bps
		Depth:           20,
		BaseSize:        0.5,
		SizeVariance:    0.4,
		LiquidationRate: 0.01,
	}
}

// Generate creates a slice of ticks based on the configuration.
// The mid price follows a geometric Brownian motion model for realistic
// movement; tape aggressors lean toward the direction of the move.
func (g *DataGenerator) Generate(config GeneratorConfig) []Tick {
	ticks := make([]Tick, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		// Mid price move using Box-Muller transform for normal distribution
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count) // Distribute trend across ticks

		mid := currentPrice * (1 + priceChange + drift)
		if mid <= 0 {
			mid = currentPrice * 0.99 // Prevent negative prices
		}

		halfSpread := math.Max(mid*config.Spread/2, 0.01)
		bestBid := roundToDecimals(mid-halfSpread, 2)
		bestAsk := roundToDecimals(mid+halfSpread, 2)
		step := math.Max(halfSpread, 0.01)

		bids := make([]types.BookLevel, config.Depth)
		asks := make([]types.BookLevel, config.Depth)
		for level := 0; level < config.Depth; level++ {
			bids[level] = types.BookLevel{
				Price: roundToDecimals(bestBid-float64(level)*step, 2),
				Size:  g.size(config),
			}
			asks[level] = types.BookLevel{
				Price: roundToDecimals(bestAsk+float64(level)*step, 2),
				Size:  g.size(config),
			}
		}

		// Aggressors lean toward the direction of the move
		buyBias := 0.5
		if z > 0 {
			buyBias = 0.7
		} else if z < 0 {
			buyBias = 0.3
		}

		tradeCount := 1 + g.rng.Intn(3)
		trades := make([]map[string]any, tradeCount)
		for t := 0; t < tradeCount; t++ {
			side := "sell"
			price := bestBid
			if g.rng.Float64() < buyBias {
				side = "buy"
				price = bestAsk
			}
			trades[t] = map[string]any{
				"side":  side,
				"price": price,
				"size":  g.size(config),
				"time":  currentTime,
			}
		}

		tick := Tick{
			Symbol: config.Symbol,
			Time:   currentTime,
			Bids:   bids,
			Asks:   asks,
			Trades: trades,
		}

		if g.rng.Float64() < config.LiquidationRate {
			// A down move squeezes longs into forced sells, an up move shorts
			event := types.LiquidationEvent{
				Price: bestBid,
				Size:  roundToDecimals(config.BaseSize*(2+g.rng.Float64()*4), 4),
				Side:  types.TradeSideSell,
				Time:  currentTime,
			}
			if z > 0 {
				event.Price = bestAsk
				event.Side = types.TradeSideBuy
			}
			tick.Liquidation = &event
		}

		ticks[i] = tick

		// Update for next iteration
		currentPrice = mid
		currentTime = currentTime.Add(config.Interval)
	}

	return ticks
}

// GenerateMultiSymbol generates ticks for multiple symbols.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) []Tick {
	var allTicks []Tick

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		// Vary initial price and volatility slightly per symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		symbolTicks := g.Generate(config)
		allTicks = append(allTicks, symbolTicks...)
	}

	return allTicks
}

// Apply replays generated ticks into the store and liquidation buffer
// the same way the live feed would, giving tests realistic flow state
// without a connection. A nil liquidation buffer skips forced prints.
func Apply(store *orderflow.Store, liquidations *orderflow.LiquidationBuffer, ticks []Tick) {
	for _, tick := range ticks {
		store.UpdateOrderbook(tick.Symbol, tick.Bids, tick.Asks, true)
		store.UpdateTrades(tick.Symbol, tick.Trades)
		if tick.Liquidation != nil && liquidations != nil {
			liquidations.Add(tick.Symbol, *tick.Liquidation)
		}
	}
}

// Generate10K is a convenience function to generate 10,000 ticks
// with default settings for benchmarking.
func Generate10K(symbol string) []Tick {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Symbol = symbol
	config.Count = 10000
	return gen.Generate(config)
}

// size draws one book level or tape print size around BaseSize.
func (g *DataGenerator) size(config GeneratorConfig) float64 {
	variation := 1.0 + (g.rng.Float64()*2-1)*config.SizeVariance
	size := config.BaseSize * variation
	if size <= 0 {
		size = config.BaseSize * 0.1
	}
	return roundToDecimals(size, 4)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}

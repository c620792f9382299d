package bot

import (
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/execution"
)

// Lifecycle callback types for the bot.

// OnOrderPlacedCallback is called after a placement attempt produced an
// exchange order.
type OnOrderPlacedCallback func(plan execution.OrderPlan, result execution.PlaceOrderResult)

// OnErrorCallback is called when a non-fatal error occurs.
type OnErrorCallback func(err error)

// Callbacks holds lifecycle callback functions for the bot. All fields
// are pointers - nil means no callback will be invoked.
type Callbacks struct {
	// OnOrderPlaced is called when a placement succeeds.
	OnOrderPlaced *OnOrderPlacedCallback

	// OnError is called when a non-fatal error occurs.
	OnError *OnErrorCallback
}

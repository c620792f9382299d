package execution

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/exchange"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/logger"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

const (
	// maxCreateAttempts bounds order creation tries, the first included.
	maxCreateAttempts = 2
	// backoffStep is the linear backoff unit between create attempts.
	backoffStep = 500 * time.Millisecond
)

// retryablePatterns mark exchange failures worth another attempt. The
// match is case-insensitive on the error message.
var retryablePatterns = []string{
	"timeout",
	"timed out",
	"temporar",
	"rate limit",
	"too many requests",
	"try again",
}

// PlaceOrderInput describes one protected placement attempt. It is a
// transient value object, not persisted.
type PlaceOrderInput struct {
	Order       types.OrderRequest
	StopLoss    float64
	TakeProfit  optional.Option[float64]
	FillTimeout time.Duration
}

// PlaceOrderResult reports how far one protected placement got. On
// error it still carries everything that took effect before the
// failure.
type PlaceOrderResult struct {
	OrderID   string  `json:"order_id"`
	Filled    bool    `json:"filled"`
	AvgPrice  float64 `json:"avg_price"`
	StopSet   bool    `json:"stop_set"`
	FilledQty float64 `json:"filled_qty"`
}

// Protocol places one maker-first limit order and attaches a protective
// stop, idempotently and with bounded retry. It is stateless; every
// call is independent.
type Protocol struct {
	client exchange.Client
	logger *logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewProtocol creates a protocol bound to an exchange client.
func NewProtocol(client exchange.Client, log *logger.Logger) *Protocol {
	return &Protocol{
		client: client,
		logger: log,
		sleep:  sleepContext,
	}
}

// PlaceProtected runs the full placement sequence: create with retry,
// wait for fill, attach protection. Every step after creation assumes
// the previous step's effect is real and irreversible, so the partial
// result is returned together with the error for the caller to act on.
func (p *Protocol) PlaceProtected(ctx context.Context, input PlaceOrderInput) (PlaceOrderResult, error) {
	order := input.Order
	if order.ClientOrderID == "" {
		order.ClientOrderID = uuid.NewString()
	}

	var result PlaceOrderResult

	created, err := p.createWithRetry(ctx, order)
	if err != nil {
		return result, err
	}

	if created.OrderID == "" {
		return result, errors.New(errors.ErrCodeOrderIDMissing, "exchange accepted order without an order ID")
	}

	result.OrderID = created.OrderID

	fill, waitErr := p.client.WaitForFill(ctx, order.Symbol, created.OrderID, input.FillTimeout)
	result.Filled = fill.Filled
	result.AvgPrice = fill.AvgPrice
	result.FilledQty = fill.FilledQty

	if fill.FilledQty <= 0 {
		// Nothing executed: cancel best effort and report the timeout.
		// The cancel's own failure is logged, never surfaced.
		if cancelErr := p.client.CancelOrder(ctx, order.Symbol, created.OrderID); cancelErr != nil {
			p.logger.Warn("best effort cancel failed",
				zap.String("symbol", order.Symbol),
				zap.String("order_id", created.OrderID),
				zap.Error(cancelErr))
		}

		if waitErr != nil {
			return result, errors.Wrap(errors.ErrCodeFillTimeout, "Fill timeout", waitErr)
		}

		return result, errors.Newf(errors.ErrCodeFillTimeout, "Fill timeout: order %s not filled within %s", created.OrderID, input.FillTimeout)
	}

	if protectErr := p.client.SetProtection(ctx, order.Symbol, order.Side, exchange.Protection{
		StopLoss:   input.StopLoss,
		TakeProfit: input.TakeProfit,
	}); protectErr != nil {
		// The fill is real and the position is now live without a stop.
		// Not compensated here; surfaced for the caller to handle.
		return result, errors.Wrap(errors.ErrCodeProtectionFailed, "Failed to set protection", protectErr)
	}

	result.StopSet = true

	p.logger.Info("order placed and protected",
		zap.String("symbol", order.Symbol),
		zap.String("order_id", result.OrderID),
		zap.Bool("filled", result.Filled),
		zap.Float64("filled_qty", result.FilledQty))

	return result, nil
}

// createWithRetry attempts order creation up to maxCreateAttempts
// times. Non-retryable failures surface immediately with the underlying
// error; retryable ones back off linearly and are wrapped fatally once
// attempts are exhausted. The idempotency key on the order makes the
// retried create safe to deduplicate on the exchange.
func (p *Protocol) createWithRetry(ctx context.Context, order types.OrderRequest) (exchange.CreateOrderResult, error) {
	var lastErr error

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		created, err := p.client.CreateOrder(ctx, order)
		if err == nil {
			return created, nil
		}

		if !isRetryable(err) {
			return exchange.CreateOrderResult{}, err
		}

		lastErr = err
		p.logger.Warn("order create attempt failed",
			zap.Int("attempt", attempt),
			zap.String("symbol", order.Symbol),
			zap.Error(err))

		if sleepErr := p.sleep(ctx, backoffDelay(attempt)); sleepErr != nil {
			return exchange.CreateOrderResult{}, sleepErr
		}
	}

	return exchange.CreateOrderResult{}, errors.Wrap(errors.ErrCodeOrderCreateFailed, "Order create failed", lastErr)
}

// backoffDelay is the pure backoff function: linear in the attempt
// number.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(attempt) * backoffStep
}

// isRetryable classifies an exchange failure by message pattern:
// timeouts, temporary conditions, rate limiting and explicit try-again
// signals earn a retry, everything else is fatal.
func isRetryable(err error) bool {
	message := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(message, pattern) {
			return true
		}
	}

	return false
}

// sleepContext waits for d without blocking other work, honoring ctx
// cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

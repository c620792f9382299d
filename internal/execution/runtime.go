package execution

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/exchange"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/fees"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/logger"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/ratelimit"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/utils"
	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

// OrderPlan is the approved output of a successful placement request.
// Its ID doubles as the client order ID, and therefore the idempotency
// key, of the order built from it.
type OrderPlan struct {
	ID       string             `json:"id"`
	Symbol   string             `json:"symbol"`
	Side     types.PurchaseType `json:"side"`
	Entry    float64            `json:"entry"`
	Stop     float64            `json:"stop"`
	Quantity float64            `json:"quantity"`
	Signal   types.Signal       `json:"signal"`
}

// Runtime is the finite-state execution controller. It accepts signals
// plus risk snapshots, sizes positions, enforces throttling and safety
// switches, and tracks open positions through fill, management and
// exit. State, positions and the audit trail are mutated only through
// its methods.
type Runtime struct {
	mu sync.Mutex

	config RuntimeConfig
	logger *logger.Logger
	audit  *AuditLog

	state      State
	positions  []types.Position
	window     *ratelimit.SlidingWindow
	killSwitch bool
	safeMode   bool

	now func() time.Time
}

// NewRuntime creates a runtime in the SCAN state.
func NewRuntime(config RuntimeConfig, log *logger.Logger) (*Runtime, error) {
	return newRuntimeWithClock(config, log, time.Now)
}

// newRuntimeWithClock is NewRuntime with an injectable clock used by
// the throttle window, the audit trail and position open times.
func newRuntimeWithClock(config RuntimeConfig, log *logger.Logger, now func() time.Time) (*Runtime, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Runtime{
		config: config,
		logger: log,
		audit:  NewAuditLogWithClock(now),
		state:  StateScan,
		window: ratelimit.NewSlidingWindowWithClock(config.MaxOrdersPerMin, time.Minute, now),
		now:    now,
	}, nil
}

// State returns the current lifecycle state.
func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// Positions returns a copy of the open positions.
func (r *Runtime) Positions() []types.Position {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.Position, len(r.positions))
	copy(out, r.positions)

	return out
}

// OpenRiskUsd sums the 1R of all open positions.
func (r *Runtime) OpenRiskUsd() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.openRiskLocked()
}

// KillSwitch reports whether the kill switch is set.
func (r *Runtime) KillSwitch() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.killSwitch
}

// SafeMode reports whether safe mode is set.
func (r *Runtime) SafeMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.safeMode
}

// AuditEntries returns the audit trail, most recent first.
func (r *Runtime) AuditEntries() []AuditEntry {
	return r.audit.Entries()
}

// SetKillSwitch toggles the global entry override. It blocks new
// placements only; the machine state is untouched.
func (r *Runtime) SetKillSwitch(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.killSwitch = on
	r.audit.Append("kill_switch", map[string]any{"on": on})
	r.logger.Warn("kill switch toggled", zap.Bool("on", on))
}

// SetSafeMode toggles safe mode, which blocks new placements the same
// way the kill switch does.
func (r *Runtime) SetSafeMode(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.safeMode = on
	r.audit.Append("safe_mode", map[string]any{"on": on})
	r.logger.Warn("safe mode toggled", zap.Bool("on", on))
}

// RequestPlace validates a signal against the safety switches, the
// placement throttle and the risk policy. If every check passes it
// sizes the position, moves the machine to PLACE and returns the order
// plan. It never talks to the exchange itself.
func (r *Runtime) RequestPlace(signal types.Signal, risk types.RiskSnapshot, feeModel fees.Model, stop float64) (OrderPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.killSwitch {
		return r.rejectPlace(signal.Symbol, errors.New(errors.ErrCodeKillSwitchActive, "kill switch is active"))
	}

	if r.safeMode {
		return r.rejectPlace(signal.Symbol, errors.New(errors.ErrCodeSafeModeActive, "safe mode is active"))
	}

	if err := r.enforceState(StateScan); err != nil {
		return r.rejectPlace(signal.Symbol, err)
	}

	if err := signal.Validate(); err != nil {
		return r.rejectPlace(signal.Symbol, err)
	}

	if r.window.Full() {
		return r.rejectPlace(signal.Symbol, errors.Newf(errors.ErrCodeThrottleExceeded, "order throttle reached: %d per minute", r.config.MaxOrdersPerMin))
	}

	budget := r.riskBudget(risk)
	if budget <= 0 {
		return r.rejectPlace(signal.Symbol, errors.New(errors.ErrCodeRiskBudgetExhausted, "risk budget exhausted"))
	}

	entry := entryPrice(signal)

	distance := stopDistance(signal.Direction, entry, stop)
	if distance <= 0 {
		return r.rejectPlace(signal.Symbol, errors.Newf(errors.ErrCodeInvalidStopLoss, "stop %.8f does not protect a %s entry at %.8f", stop, signal.Direction, entry))
	}

	quantity := utils.QuantizeToStep(budget/distance, r.config.LotStep)
	if quantity <= 0 || quantity < r.config.MinQty {
		return r.rejectPlace(signal.Symbol, errors.Newf(errors.ErrCodeQuantityBelowMinimum, "quantity %.8f below minimum %.8f", quantity, r.config.MinQty))
	}

	oneR := distance * quantity

	cost := feeModel.EstimateRoundTrip(entry, quantity) + r.config.SlippageBuffer
	if oneR <= cost {
		return r.rejectPlace(signal.Symbol, errors.Newf(errors.ErrCodeEdgeTooThin, "risk value %.4f does not clear estimated cost %.4f", oneR, cost))
	}

	if len(r.positions) >= risk.MaxPositions {
		return r.rejectPlace(signal.Symbol, errors.Newf(errors.ErrCodeMaxPositionsReached, "max positions reached: %d", risk.MaxPositions))
	}

	if err := r.transition(StatePlace); err != nil {
		return r.rejectPlace(signal.Symbol, err)
	}

	r.window.Record()

	plan := OrderPlan{
		ID:       uuid.NewString(),
		Symbol:   signal.Symbol,
		Side:     sideForDirection(signal.Direction),
		Entry:    entry,
		Stop:     stop,
		Quantity: quantity,
		Signal:   signal,
	}

	r.audit.Append("signal_accepted", map[string]any{
		"symbol":    signal.Symbol,
		"direction": string(signal.Direction),
		"zone_low":  signal.EntryZone.Low,
		"zone_high": signal.EntryZone.High,
		"message":   signal.Message,
	})
	r.audit.Append("risk_check", map[string]any{
		"balance":          risk.Balance,
		"budget":           budget,
		"open_risk":        r.openRiskLocked(),
		"max_allowed_risk": risk.MaxAllowedRiskUsd,
		"quantity":         quantity,
		"one_r":            oneR,
	})

	r.logger.Info("placement approved",
		zap.String("symbol", plan.Symbol),
		zap.String("side", string(plan.Side)),
		zap.Float64("entry", plan.Entry),
		zap.Float64("stop", plan.Stop),
		zap.Float64("quantity", plan.Quantity))

	return plan, nil
}

// HandleOrderAck records the exchange acknowledgment of a working
// order. Legal only while placing; no state change.
func (r *Runtime) HandleOrderAck(orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enforceState(StatePlace); err != nil {
		return err
	}

	r.audit.Append("order_ack", map[string]any{"order_id": orderID})
	r.logger.Info("order acknowledged", zap.String("order_id", orderID))

	return nil
}

// HandleFill opens a position from a fill acknowledgment and moves the
// machine to MANAGE.
func (r *Runtime) HandleFill(orderID string, symbol string, side types.PositionType, entry float64, quantity float64, stop float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enforceState(StatePlace, StateManage); err != nil {
		return err
	}

	if err := r.transition(StateManage); err != nil {
		return err
	}

	position := types.Position{
		Symbol:   symbol,
		Side:     side,
		Entry:    entry,
		Stop:     stop,
		Quantity: quantity,
		SLActive: true,
		OpenedAt: r.now(),
	}
	r.positions = append(r.positions, position)

	r.audit.Append("fill", map[string]any{
		"order_id": orderID,
		"symbol":   symbol,
		"side":     string(side),
		"entry":    entry,
		"quantity": quantity,
		"stop":     stop,
	})
	r.logger.Info("fill recorded",
		zap.String("order_id", orderID),
		zap.String("symbol", symbol),
		zap.Float64("entry", entry),
		zap.Float64("quantity", quantity))

	return nil
}

// AdjustStop tightens the protective stop of the open position for
// symbol. A stop only moves toward price: up for longs, down for
// shorts. Loosening attempts and unknown symbols are silently ignored.
func (r *Runtime) AdjustStop(symbol string, newStop float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.positions {
		position := &r.positions[i]
		if position.Symbol != symbol {
			continue
		}

		if position.Side == types.PositionTypeLong && newStop <= position.Stop {
			return
		}

		if position.Side == types.PositionTypeShort && newStop >= position.Stop {
			return
		}

		previous := position.Stop
		position.Stop = newStop

		r.audit.Append("stop_adjusted", map[string]any{
			"symbol": symbol,
			"from":   previous,
			"to":     newStop,
		})
		r.logger.Info("stop adjusted",
			zap.String("symbol", symbol),
			zap.Float64("from", previous),
			zap.Float64("to", newStop))

		return
	}
}

// ExitPosition closes out the tracked position for symbol. With other
// positions still open the machine stays in MANAGE; otherwise it passes
// through EXIT and returns to SCAN within the same call.
func (r *Runtime) ExitPosition(symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enforceState(StateManage); err != nil {
		return err
	}

	index := -1

	for i, position := range r.positions {
		if position.Symbol == symbol {
			index = i
			break
		}
	}

	if index < 0 {
		return errors.Newf(errors.ErrCodePositionNotFound, "no open position for %s", symbol)
	}

	position := r.positions[index]
	r.positions = append(r.positions[:index], r.positions[index+1:]...)

	r.audit.Append("position_closed", map[string]any{
		"symbol":   symbol,
		"entry":    position.Entry,
		"quantity": position.Quantity,
	})
	r.logger.Info("position closed",
		zap.String("symbol", symbol),
		zap.Int("remaining", len(r.positions)))

	if len(r.positions) > 0 {
		return r.transition(StateManage)
	}

	if err := r.transition(StateExit); err != nil {
		return err
	}

	return r.transition(StateScan)
}

// Abandon returns the machine to SCAN after a placement died before any
// fill. Legal only from PLACE.
func (r *Runtime) Abandon(reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enforceState(StatePlace); err != nil {
		return err
	}

	r.audit.Append("place_abandoned", map[string]any{"reason": reason})
	r.logger.Warn("placement abandoned", zap.String("reason", reason))

	return r.transition(StateScan)
}

// Reconcile unconditionally replaces the open position set from an
// external source of truth and realigns the machine state with it,
// bypassing the transition table. It is the escape hatch for
// resynchronizing after a crash or a missed event.
func (r *Runtime) Reconcile(positions []types.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.positions = make([]types.Position, len(positions))
	copy(r.positions, positions)

	previous := r.state
	if len(r.positions) > 0 {
		r.state = StateManage
	} else {
		r.state = StateScan
	}

	r.audit.Append("reconciled", map[string]any{
		"positions": len(r.positions),
		"from":      string(previous),
		"to":        string(r.state),
	})
	r.logger.Info("positions reconciled",
		zap.Int("count", len(r.positions)),
		zap.String("state", string(r.state)))
}

// PlaceWithAdapter orchestrates the full path end to end: approve the
// placement, run the placement protocol against the exchange and record
// the outcome. The approved plan is returned alongside the result so
// callers can journal it. A placement that dies without a fill abandons
// back to SCAN. A fill whose protection could not be attached stays
// open, flagged unprotected, and drops the runtime into safe mode; the
// protocol error is surfaced in every failure case.
func (r *Runtime) PlaceWithAdapter(ctx context.Context, client exchange.Client, signal types.Signal, risk types.RiskSnapshot, feeModel fees.Model, stop float64, fillTimeout time.Duration) (OrderPlan, PlaceOrderResult, error) {
	plan, err := r.RequestPlace(signal, risk, feeModel, stop)
	if err != nil {
		return OrderPlan{}, PlaceOrderResult{}, err
	}

	protocol := NewProtocol(client, r.logger)

	result, placeErr := protocol.PlaceProtected(ctx, PlaceOrderInput{
		Order: types.OrderRequest{
			Symbol:        plan.Symbol,
			Side:          plan.Side,
			OrderType:     types.OrderTypeLimit,
			Price:         plan.Entry,
			Quantity:      plan.Quantity,
			ClientOrderID: plan.ID,
		},
		StopLoss:    plan.Stop,
		FillTimeout: fillTimeout,
	})

	if result.OrderID != "" {
		if ackErr := r.HandleOrderAck(result.OrderID); ackErr != nil {
			return plan, result, ackErr
		}
	}

	if result.FilledQty <= 0 {
		if placeErr == nil {
			placeErr = errors.New(errors.ErrCodeFillTimeout, "order not filled")
		}

		if abandonErr := r.Abandon(placeErr.Error()); abandonErr != nil {
			r.logger.Error("failed to abandon placement", zap.Error(abandonErr))
		}

		return plan, result, placeErr
	}

	entry := result.AvgPrice
	if entry <= 0 {
		entry = plan.Entry
	}

	if fillErr := r.HandleFill(result.OrderID, plan.Symbol, positionSideFor(plan.Side), entry, result.FilledQty, plan.Stop); fillErr != nil {
		return plan, result, fillErr
	}

	if placeErr != nil {
		// The fill is real but the stop is not working.
		r.markUnprotected(plan.Symbol)
		return plan, result, placeErr
	}

	return plan, result, nil
}

// transition moves the machine to next after checking the table. An
// illegal move is a caller contract breach, not a runtime condition.
// Caller must hold mu.
func (r *Runtime) transition(next State) error {
	if !canTransition(r.state, next) {
		return errors.Newf(errors.ErrCodeForbiddenTransition, "Forbidden transition: %s -> %s", r.state, next)
	}

	previous := r.state
	r.state = next

	r.audit.Append("state_transition", map[string]any{
		"from": string(previous),
		"to":   string(next),
	})
	r.logger.Info("state transition",
		zap.String("from", string(previous)),
		zap.String("to", string(next)))

	return nil
}

// enforceState asserts the current state is one of expected, decoupling
// "is this move legal" from "is this the right moment". Caller must
// hold mu.
func (r *Runtime) enforceState(expected ...State) error {
	for _, e := range expected {
		if r.state == e {
			return nil
		}
	}

	return errors.Newf(errors.ErrCodeUnexpectedState, "unexpected state %s, expected one of %v", r.state, expected)
}

// rejectPlace audits and returns a placement rejection. Caller must
// hold mu.
func (r *Runtime) rejectPlace(symbol string, err error) (OrderPlan, error) {
	r.audit.Append("place_rejected", map[string]any{
		"symbol": symbol,
		"reason": err.Error(),
	})
	r.logger.Warn("placement rejected", zap.String("symbol", symbol), zap.Error(err))

	return OrderPlan{}, err
}

// riskBudget is the loss allowance left for one more trade: the account
// allowance minus the risk already committed to open positions, capped
// by the per-trade limit when one is set. Caller must hold mu.
func (r *Runtime) riskBudget(risk types.RiskSnapshot) float64 {
	budget := risk.MaxAllowedRiskUsd - r.openRiskLocked()
	if risk.RiskPerTradeUsd > 0 && budget > risk.RiskPerTradeUsd {
		budget = risk.RiskPerTradeUsd
	}

	return budget
}

// openRiskLocked sums open position 1R. Caller must hold mu.
func (r *Runtime) openRiskLocked() float64 {
	total := 0.0
	for _, position := range r.positions {
		total += position.Risk()
	}

	return total
}

// markUnprotected flags the position for symbol as running without a
// working stop and drops the runtime into safe mode so no new entries
// are approved until an operator intervenes.
func (r *Runtime) markUnprotected(symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.positions {
		if r.positions[i].Symbol == symbol {
			r.positions[i].SLActive = false
		}
	}

	r.safeMode = true

	r.audit.Append("unprotected_position", map[string]any{"symbol": symbol})
	r.logger.Error("position left unprotected, entering safe mode",
		zap.String("symbol", symbol))
}

// entryPrice picks the near edge of the entry zone: a long enters at
// the low edge, a short at the high edge.
func entryPrice(signal types.Signal) float64 {
	if signal.Direction == types.DirectionLong {
		return signal.EntryZone.Low
	}

	return signal.EntryZone.High
}

// stopDistance is the protective distance between entry and stop in the
// trade's direction; non-positive values mean the stop does not
// protect.
func stopDistance(direction types.Direction, entry float64, stop float64) float64 {
	if direction == types.DirectionLong {
		return entry - stop
	}

	return stop - entry
}

// sideForDirection maps the signal direction to the order side.
func sideForDirection(direction types.Direction) types.PurchaseType {
	if direction == types.DirectionLong {
		return types.PurchaseTypeBuy
	}

	return types.PurchaseTypeSell
}

// positionSideFor maps an order side to the resulting position side.
func positionSideFor(side types.PurchaseType) types.PositionType {
	if side == types.PurchaseTypeBuy {
		return types.PositionTypeLong
	}

	return types.PositionTypeShort
}

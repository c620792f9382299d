// Package execution contains the finite-state execution controller and
// the protected order placement protocol that turn a trading signal
// into a risk-checked, idempotent order on the exchange.
package execution

// State is the runtime lifecycle phase.
type State string

const (
	// StateScan is the idle phase: watching for signals.
	StateScan State = "SCAN"
	// StatePlace is the in-flight phase: an order is being worked.
	StatePlace State = "PLACE"
	// StateManage is the open-position phase.
	StateManage State = "MANAGE"
	// StateExit is the transient unwinding phase between the last
	// position closing and the return to SCAN.
	StateExit State = "EXIT"
)

// transitions is the fixed table of allowed moves, kept as data and
// separate from the methods that call transition. PLACE may fall back
// to SCAN when a placement dies without a fill.
var transitions = map[State][]State{
	StateScan:   {StatePlace},
	StatePlace:  {StateManage, StateScan},
	StateManage: {StateManage, StateExit},
	StateExit:   {StateScan},
}

// canTransition reports whether moving from current to next is allowed.
func canTransition(current State, next State) bool {
	for _, allowed := range transitions[current] {
		if allowed == next {
			return true
		}
	}

	return false
}

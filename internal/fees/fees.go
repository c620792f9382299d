// Package fees estimates trading costs used by pre-trade edge checks.
package fees

// Model estimates the cost of a trade in USD.
type Model interface {
	// EstimateRoundTrip returns the estimated fee in USD for entering and
	// exiting a position of the given quantity around the given price.
	EstimateRoundTrip(price float64, quantity float64) float64
}

type Schedule string

const (
	ScheduleFlat Schedule = "flat"
	ScheduleFree Schedule = "free"
)

var AllSchedules = []any{
	ScheduleFlat,
	ScheduleFree,
}

// GetFeeModel returns the fee model for the given schedule. The rate is
// the single-side fee fraction and only applies to the flat schedule.
func GetFeeModel(schedule Schedule, rate float64) Model {
	switch schedule {
	case ScheduleFlat:
		return NewFlatRate(rate)
	case ScheduleFree:
		return NewFree()
	default:
		return NewFree()
	}
}

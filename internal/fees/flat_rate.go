package fees

// FlatRate implements Model with a fixed taker fee fraction per side.
type FlatRate struct {
	rate float64
}

// NewFlatRate creates a flat rate fee model. Rate is the single-side
// fee fraction, e.g. 0.0005 for 5 bps.
func NewFlatRate(rate float64) Model {
	return &FlatRate{rate: rate}
}

// EstimateRoundTrip charges the rate on the notional twice, once for
// entry and once for exit.
func (f *FlatRate) EstimateRoundTrip(price float64, quantity float64) float64 {
	if price <= 0 || quantity <= 0 {
		return 0.0
	}
	return price * quantity * f.rate * 2
}

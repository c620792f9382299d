package fees

// Free implements Model with zero fees.
type Free struct{}

// NewFree creates a zero fee model.
func NewFree() Model {
	return &Free{}
}

// EstimateRoundTrip returns 0 for any trade.
func (f *Free) EstimateRoundTrip(price float64, quantity float64) float64 {
	return 0.0
}

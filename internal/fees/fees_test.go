package fees

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type FeesTestSuite struct {
	suite.Suite
}

func TestFeesSuite(t *testing.T) {
	suite.Run(t, new(FeesTestSuite))
}

func (suite *FeesTestSuite) TestFree() {
	model := NewFree()
	suite.NotNil(model)

	tests := []struct {
		name     string
		price    float64
		quantity float64
		expected float64
	}{
		{"zero quantity", 100, 0, 0},
		{"small trade", 100, 10, 0},
		{"large trade", 50000, 2, 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result := model.EstimateRoundTrip(tc.price, tc.quantity)
			suite.Equal(tc.expected, result)
		})
	}
}

func (suite *FeesTestSuite) TestFlatRate() {
	model := NewFlatRate(0.0005)
	suite.NotNil(model)

	tests := []struct {
		name     string
		price    float64
		quantity float64
		expected float64
	}{
		{"zero quantity", 100, 0, 0},
		{"zero price", 0, 10, 0},
		{"negative quantity", 100, -1, 0},
		{"unit trade", 100, 1, 0.1},        // 100 * 1 * 0.0005 * 2
		{"larger notional", 50000, 2, 100}, // 50000 * 2 * 0.0005 * 2
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result := model.EstimateRoundTrip(tc.price, tc.quantity)
			suite.InDelta(tc.expected, result, 1e-9)
		})
	}
}

func (suite *FeesTestSuite) TestGetFeeModel() {
	tests := []struct {
		name           string
		schedule       Schedule
		price          float64
		quantity       float64
		expectedResult float64
	}{
		{
			name:           "flat schedule",
			schedule:       ScheduleFlat,
			price:          1000,
			quantity:       1,
			expectedResult: 1.0,
		},
		{
			name:           "free schedule",
			schedule:       ScheduleFree,
			price:          1000,
			quantity:       1,
			expectedResult: 0.0,
		},
		{
			name:           "unknown schedule defaults to free",
			schedule:       Schedule("unknown"),
			price:          1000,
			quantity:       1,
			expectedResult: 0.0,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			model := GetFeeModel(tc.schedule, 0.0005)
			suite.NotNil(model)
			result := model.EstimateRoundTrip(tc.price, tc.quantity)
			suite.InDelta(tc.expectedResult, result, 1e-9)
		})
	}
}

func (suite *FeesTestSuite) TestAllSchedules() {
	suite.Len(AllSchedules, 2)
	suite.Contains(AllSchedules, ScheduleFlat)
	suite.Contains(AllSchedules, ScheduleFree)
}

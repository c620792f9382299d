package risk

import (
	"github.com/go-playground/validator/v10"

	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

// Config holds the account-level risk limits.
type Config struct {
	// MaxAllowedRiskUsd bounds the summed 1R across all open positions.
	MaxAllowedRiskUsd float64 `json:"maxAllowedRiskUsd" yaml:"maxAllowedRiskUsd" jsonschema:"title=Max Allowed Risk USD,description=Upper bound on summed 1R across open positions" validate:"required,gt=0"`
	// MaxPositions bounds the count of concurrently open positions.
	MaxPositions int `json:"maxPositions" yaml:"maxPositions" jsonschema:"title=Max Positions,description=Upper bound on concurrently open positions" validate:"required,gt=0"`
	// RiskPerTradeUsd caps the budget of a single placement. Zero picks
	// the default per-trade cap.
	RiskPerTradeUsd float64 `json:"riskPerTradeUsd" yaml:"riskPerTradeUsd" jsonschema:"title=Risk Per Trade USD,description=Budget cap of a single placement (0 = default)" validate:"gte=0"`
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid risk config", err)
	}

	return nil
}

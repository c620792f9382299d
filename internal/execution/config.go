package execution

import (
	"github.com/go-playground/validator/v10"

	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

// RuntimeConfig holds the execution limits. It is immutable for the
// runtime's lifetime.
type RuntimeConfig struct {
	// MaxOrdersPerMin caps placements inside a sliding 60 second window.
	MaxOrdersPerMin int `json:"maxOrdersPerMin" yaml:"maxOrdersPerMin" jsonschema:"title=Max Orders Per Minute,description=Placement cap inside a sliding 60 second window" validate:"required,gt=0"`
	// SlippageBuffer is a fixed USD amount added to the estimated cost
	// when judging whether a trade clears its edge.
	SlippageBuffer float64 `json:"slippageBuffer" yaml:"slippageBuffer" jsonschema:"title=Slippage Buffer,description=Fixed USD cost buffer for the edge check" validate:"gte=0"`
	// FeeRate is the single-side fee fraction fed to the fee model.
	FeeRate float64 `json:"feeRate" yaml:"feeRate" jsonschema:"title=Fee Rate,description=Single-side fee fraction" validate:"gte=0"`
	// LotStep is the exchange quantity step; computed quantities are
	// quantized down to an exact multiple of it.
	LotStep float64 `json:"lotStep" yaml:"lotStep" jsonschema:"title=Lot Step,description=Exchange quantity step" validate:"required,gt=0"`
	// MinQty is the smallest order quantity worth placing.
	MinQty float64 `json:"minQty" yaml:"minQty" jsonschema:"title=Min Quantity,description=Smallest placeable quantity" validate:"gte=0"`
}

// Validate validates the RuntimeConfig struct.
func (c *RuntimeConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid runtime config", err)
	}

	return nil
}

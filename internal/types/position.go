package types

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

// Position is one open position. It is owned exclusively by the execution
// runtime while open: created on fill acknowledgment, mutated only through
// stop adjustment, removed on exit or reconciliation.
type Position struct {
	Symbol   string       `yaml:"symbol" json:"symbol" validate:"required"`
	Side     PositionType `yaml:"side" json:"side" validate:"required,oneof=LONG SHORT"`
	Entry    float64      `yaml:"entry" json:"entry" validate:"required,gt=0"`
	Stop     float64      `yaml:"stop" json:"stop" validate:"required,gt=0"`
	Quantity float64      `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	// SLActive reports whether the protective stop is live on the exchange.
	// False means the position is unprotected and needs operator attention.
	SLActive bool      `yaml:"sl_active" json:"sl_active"`
	OpenedAt time.Time `yaml:"opened_at" json:"opened_at"`
}

// Risk returns the position's 1R in quote currency: |entry − stop| × quantity.
func (p Position) Risk() float64 {
	return math.Abs(p.Entry-p.Stop) * p.Quantity
}

// Validate validates the Position struct.
func (p *Position) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid position", err)
	}

	return nil
}

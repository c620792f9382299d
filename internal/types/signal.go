package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

type Direction string

const (
	// DirectionLong asks the runtime to open or extend long exposure.
	DirectionLong Direction = "long"
	// DirectionShort asks the runtime to open or extend short exposure.
	DirectionShort Direction = "short"
)

// EntryZone is the price band a signal considers acceptable for entry.
// The runtime enters at the near edge: zone low for longs, zone high for
// shorts.
type EntryZone struct {
	Low  float64 `yaml:"low" json:"low" validate:"required,gt=0"`
	High float64 `yaml:"high" json:"high" validate:"required,gtefield=Low"`
}

// Signal is an externally produced trade intention. The runtime consumes it
// verbatim; nothing in this repository generates signals.
type Signal struct {
	// Time is the time the signal was produced.
	Time time.Time `yaml:"time" json:"time"`
	// Symbol is the instrument the signal applies to.
	Symbol string `yaml:"symbol" json:"symbol" validate:"required"`
	// Direction is the requested exposure direction.
	Direction Direction `yaml:"direction" json:"direction" validate:"required,oneof=long short"`
	// EntryZone is the acceptable entry price band.
	EntryZone EntryZone `yaml:"entry_zone" json:"entry_zone" validate:"required"`
	// Message is free-form context from the signal source.
	Message string `yaml:"message" json:"message"`
}

// Validate validates the Signal struct.
func (s *Signal) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSignal, "invalid signal", err)
	}

	return nil
}

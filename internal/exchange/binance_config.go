package exchange

import (
	"github.com/go-playground/validator/v10"

	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

// BinanceConfig contains credentials and endpoint selection for the
// Binance futures client.
type BinanceConfig struct {
	ApiKey    string `json:"apiKey" yaml:"apiKey" jsonschema:"title=API Key,description=Binance API key" validate:"required"`
	SecretKey string `json:"secretKey" yaml:"secretKey" jsonschema:"title=Secret Key,description=Binance API secret key" validate:"required"`
	// BaseURL overrides the API endpoint and takes precedence over
	// Testnet.
	BaseURL string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty" jsonschema:"title=Base URL,description=Custom API endpoint"`
	Testnet bool   `json:"testnet,omitempty" yaml:"testnet,omitempty" jsonschema:"title=Testnet,description=Use the futures testnet endpoint"`
}

// Validate validates the BinanceConfig struct.
func (c *BinanceConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance config", err)
	}

	return nil
}

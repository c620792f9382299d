package feed

// Config holds the market stream settings.
type Config struct {
	// URL overrides the stream endpoint. Empty uses the Binance USD-M
	// futures production stream.
	URL string `json:"url" yaml:"url" jsonschema:"title=Stream URL,description=WebSocket stream endpoint override (empty = production)"`
}

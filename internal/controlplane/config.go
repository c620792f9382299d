package controlplane

// Config holds the operations server settings.
type Config struct {
	// Listen is the address the HTTP server binds to, for example
	// "127.0.0.1:8089". Port 0 picks a free port.
	Listen string `json:"listen" yaml:"listen" jsonschema:"title=Listen,description=Address the operations HTTP server binds to" validate:"required"`
}

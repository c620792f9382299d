package journal

// Config holds the journal storage settings.
type Config struct {
	// Path is the DuckDB database file. Empty runs in memory, which
	// keeps nothing across restarts.
	Path string `json:"path" yaml:"path" jsonschema:"title=Journal Path,description=DuckDB database file (empty = in-memory)"`
}

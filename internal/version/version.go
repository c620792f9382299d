package version

// Version is the current version of the execution engine.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/Adamcza88/ai-matic-bot-sub001/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "v1.3.0"

// GetVersion returns the current version of the engine.
func GetVersion() string {
	return Version
}

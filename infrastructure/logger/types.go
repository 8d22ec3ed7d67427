package logger

// Supported output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Default configuration values.
const (
	DefaultLevel  = "info"
	DefaultFormat = FormatJSON
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum logging level (debug, info, warn, error, fatal).
	Level string `env:"LOG_LEVEL" yaml:"level"`
	// Format is "json" (default) or "console" for interactive CLI runs.
	Format string `env:"LOG_FORMAT" yaml:"format"`
	// Development disables sampling so every entry is written.
	Development bool `yaml:"development"`
	// OutputPaths lists files or "stdout"/"stderr" sinks.
	OutputPaths []string `yaml:"output_paths"`
}

// SetDefaults applies default values to the config if not set.
// CLI output goes to stdout, so logs default to stderr.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stderr"}
	}
}

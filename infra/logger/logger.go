// Package logger provides the zerolog-backed implementation of the core
// logging interface. Output format and verbosity come from the loaded
// configuration, not from ambient environment state.
package logger

import corelogger "github.com/evfleet/chargesim/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// Config selects the log level and output encoding.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
	// Format is "json" for machine-readable output or "console" for a
	// human-readable writer during local runs.
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

// active holds the settings applied by Configure. Loggers created before
// Configure use the defaults.
var active = func() Config {
	var c Config
	c.SetDefaults()
	return c
}()

// Configure sets the logging options used by subsequent New calls. It is
// called once at startup, after the configuration is loaded and before any
// component loggers are created.
func Configure(cfg Config) {
	cfg.SetDefaults()
	active = cfg
}

// New returns a Logger tagged with the given component.
func New(component string) Logger {
	return NewZerologLogger(active, component)
}

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

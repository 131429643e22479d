package config

import (
	"io"

	"github.com/hashicorp/go-hclog"
)

// Logger builds the application logger. Logging is off unless
// devOptions.enableLogging is set or verbose output was requested.
func (c Config) Logger(name string, out io.Writer, verbose bool) hclog.Logger {
	level := hclog.Info
	if verbose {
		level = hclog.Debug
	}
	if !c.DevOptions.EnableLogging && !verbose {
		level = hclog.Off
		out = io.Discard
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Output: out,
		Level:  level,
	})
}

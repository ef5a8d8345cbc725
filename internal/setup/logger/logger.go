package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a JSON logger on stderr; stdout is left to protocols such as MCP stdio.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stderr).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Logger()
}

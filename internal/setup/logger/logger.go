// Package logger builds the process-wide zerolog logger for headless
// binaries. Output is JSON on stdout; every line carries the service name
// so worker and API logs can be told apart in a shared sink.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a logger at the given level. Unknown or empty levels fall back
// to info rather than zerolog's NoLevel, which would disable filtering.
func New(level string, service string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Str("service", service).
		Logger()
}

// Package logger builds the zerolog.Logger used throughout distributedq.
// Components take a zerolog.Logger via constructor injection rather than
// reading the package global directly, so tests can supply a silent or
// buffered logger; cmd/ entry points use Log (or New) to build the one
// instance that gets threaded through the process.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the process-wide default logger, built once at init for cmd/
// entry points that have no more specific logger to inject.
var Log zerolog.Logger

func init() {
	Log = New()
}

// New builds a logger: JSON to stdout for production, pretty-printed to
// stderr otherwise, selected by APP_ENV.
func New() zerolog.Logger {
	l := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger()

	if os.Getenv("APP_ENV") != "production" {
		l = l.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return l
}

// GetLogger returns the process-wide default logger instance.
func GetLogger() zerolog.Logger {
	return Log
}

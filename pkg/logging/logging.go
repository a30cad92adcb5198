// Package logging configures the global zerolog logger for wordpick.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// logWriter stores the current log writer globally
	logWriter io.Writer
)

// init sets the global logging level to ErrorLevel by default so library
// consumers stay quiet until they opt in.
func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	logWriter = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// Configure sets the global logging level, format, and destination.
// Format is "text" (console writer) or "json"; an optional file path
// redirects output.
func Configure(levelStr, format, file string) error {
	level := parseLogLevel(levelStr)
	zerolog.SetGlobalLevel(level)

	w := logWriter
	switch {
	case file != "":
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		w = f
	case strings.EqualFold(format, "json"):
		w = os.Stderr
	}

	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	return nil
}

// parseLogLevel converts a string log level to zerolog.Level
func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		levelString = "error"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		log.Error().Err(err).
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to error level.")
		return zerolog.ErrorLevel
	}
	return level
}

// SetLogWriter sets the global log writer
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// NewLogger returns a component-scoped logger writing to the global writer.
func NewLogger(component string, level zerolog.Level) zerolog.Logger {
	return NewLoggerWithWriter(component, level, logWriter)
}

// NewLoggerWithWriter returns a component-scoped logger with an explicit
// destination. Used by tests and by components that own their output.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()
}

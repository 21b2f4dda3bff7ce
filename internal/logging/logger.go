// Package logging adapts zerolog to the small structured-logging interface
// every pipeline stage depends on, following the Bind*/Named chaining style
// used throughout the teacher codebase.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the structured-logging interface passed into every long-lived
// pipeline component. Implementations must be safe for concurrent use.
type Logger interface {
	BindStr(key, value string) Logger
	BindInt(key string, value int) Logger
	Named(name string) Logger
	Debug(msg string)
	Info(msg string)
	Warning(msg string)
	InfoError(msg string, err error)
	WarningError(msg string, err error)
}

type zerologLogger struct {
	logger zerolog.Logger
}

func (z zerologLogger) BindStr(key, value string) Logger {
	return zerologLogger{logger: z.logger.With().Str(key, value).Logger()}
}

func (z zerologLogger) BindInt(key string, value int) Logger {
	return zerologLogger{logger: z.logger.With().Int(key, value).Logger()}
}

func (z zerologLogger) Named(name string) Logger {
	return zerologLogger{logger: z.logger.With().Str("component", name).Logger()}
}

func (z zerologLogger) Debug(msg string) {
	z.logger.Debug().Msg(msg)
}

func (z zerologLogger) Info(msg string) {
	z.logger.Info().Msg(msg)
}

func (z zerologLogger) Warning(msg string) {
	z.logger.Warn().Msg(msg)
}

func (z zerologLogger) InfoError(msg string, err error) {
	z.logger.Info().Err(err).Msg(msg)
}

func (z zerologLogger) WarningError(msg string, err error) {
	z.logger.Warn().Err(err).Msg(msg)
}

// NewLogger builds a root Logger. debug raises the level to debug and
// switches to a human console writer instead of JSON, the same toggle the
// teacher exposes via Config.Debug.
func NewLogger(debug bool) Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	var writer io.Writer = os.Stderr
	if debug {
		writer = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	return zerologLogger{
		logger: zerolog.New(writer).Level(level).With().Timestamp().Logger(),
	}
}

// Noop returns a Logger that discards everything, useful in tests.
func Noop() Logger {
	return zerologLogger{logger: zerolog.Nop()}
}

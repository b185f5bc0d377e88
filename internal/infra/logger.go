package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs the service logger. Development builds log at debug
// level through a console writer; everything else emits JSON at info level.
func NewLogger(appEnv string) zerolog.Logger {
	return newLogger(os.Stdout, appEnv)
}

func newLogger(out io.Writer, appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "impacthub").
		Logger()
}

// NopLogger returns a logger that discards everything. Tests and CLI helpers use it.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// Logger aliases zerolog.Logger so packages can accept the logging contract
// without importing zerolog directly.
type Logger = zerolog.Logger

// Package logger is the process-wide structured logger. Calls take a message
// followed by alternating key/value pairs:
//
//	logger.Info("Upstream fetched", "path", p, "status", 200)
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log = newLogger(os.Stderr, zerolog.InfoLevel)

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Configure replaces the output and level. An empty level keeps "info".
func Configure(w io.Writer, level string) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	log = newLogger(w, lvl)
	return nil
}

func Debug(msg string, kv ...any) { emit(log.Debug(), msg, kv) }
func Info(msg string, kv ...any)  { emit(log.Info(), msg, kv) }
func Warn(msg string, kv ...any)  { emit(log.Warn(), msg, kv) }
func Error(msg string, kv ...any) { emit(log.Error(), msg, kv) }

func emit(e *zerolog.Event, msg string, kv []any) {
	if e == nil {
		return
	}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if i+1 == len(kv) {
			e = e.Str(key, "!MISSING")
			break
		}
		switch v := kv[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case string:
			e = e.Str(key, v)
		case time.Duration:
			e = e.Str(key, v.String())
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

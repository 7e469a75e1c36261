// Package logging holds the process-wide zerolog logger.
//
// Console output and log output share the terminal, so logging is off
// unless it is enabled explicitly (modsh --print-logs).
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger. It discards everything until Init enables it.
var Logger = zerolog.Nop()

// Level is a zerolog level.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// Config holds logger configuration.
type Config struct {
	// Enabled turns logging on. A disabled logger drops every event.
	Enabled bool
	Level   Level
	// Output defaults to os.Stderr.
	Output io.Writer
	// Pretty selects the human-readable console writer.
	Pretty     bool
	TimeFormat string
}

// DefaultConfig returns a disabled, info-level configuration.
func DefaultConfig() Config {
	return Config{
		Level:      InfoLevel,
		Output:     os.Stderr,
		Pretty:     true,
		TimeFormat: time.Kitchen,
	}
}

// Init replaces the global logger.
func Init(cfg Config) {
	if !cfg.Enabled {
		Logger = zerolog.Nop()
		return
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}

	out := cfg.Output
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: cfg.TimeFormat}
	}
	Logger = zerolog.New(out).Level(cfg.Level).With().Timestamp().Logger()
}

// ParseLevel parses a level name, case-insensitively. Unknown names give
// InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DebugLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// For returns a child of the global logger tagged with component.
func For(component string) *zerolog.Logger {
	l := Logger.With().Str("component", component).Logger()
	return &l
}

func Debug() *zerolog.Event { return Logger.Debug() }
func Info() *zerolog.Event  { return Logger.Info() }
func Warn() *zerolog.Event  { return Logger.Warn() }
func Error() *zerolog.Event { return Logger.Error() }

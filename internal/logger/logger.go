// Package logger configures the zerolog logger shared by every depweave
// package. Until Init is called all output is discarded, so the engine
// stays silent when embedded as a library.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// FieldComponent tags every child logger with the package that emitted it.
const FieldComponent = "component"

var (
	mu   sync.RWMutex
	base = zerolog.Nop()
)

// New builds a zerolog.Logger from cfg. Unknown levels fall back to info.
func New(cfg Config) zerolog.Logger {
	cfg.ApplyDefaults()
	return newWithWriter(cfg, outputWriter(cfg.Output))
}

func newWithWriter(cfg Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if strings.ToLower(cfg.Format) == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
			NoColor:    cfg.NoColor,
		}
	}

	zl := zerolog.New(out).Level(level)
	if cfg.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}
	return zl
}

// Init installs the process-wide logger.
func Init(cfg Config) {
	Set(New(cfg))
}

// Set replaces the process-wide logger. Tests use it to capture output.
func Set(l zerolog.Logger) {
	mu.Lock()
	base = l
	mu.Unlock()
}

// Get returns the process-wide logger.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Component returns a child logger tagged with the component name.
func Component(name string) *zerolog.Logger {
	l := Get()
	c := l.With().Str(FieldComponent, name).Logger()
	return &c
}

func outputWriter(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout
	case "discard", "none":
		return io.Discard
	default:
		return os.Stderr
	}
}

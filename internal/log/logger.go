package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultFile is the development log file, relative to the working directory.
const DefaultFile = "channel_live_check.log"

// Config selects the default sinks.
//
//   - development: console at debug level plus DefaultFile
//   - production with EnableLogging: console at warn level
//   - production without EnableLogging: silent
type Config struct {
	Level         string    // optional override ("debug", "info", ...)
	Production    bool      // see ProductionFromEnv
	EnableLogging bool      // turns on console output in production
	Output        io.Writer // console sink, defaults to os.Stderr
	File          string    // development file sink, defaults to DefaultFile
	Service       string    // optional service name attached to every entry
}

// ProductionFromEnv reports whether APP_ENV is "production".
func ProductionFromEnv() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("APP_ENV")), "production")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger from cfg. The returned Closer releases the log file,
// if one was opened.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	if cfg.Production && !cfg.EnableLogging {
		return zerolog.Nop(), nopCloser{}, nil
	}

	level := zerolog.DebugLevel
	if cfg.Production {
		level = zerolog.WarnLevel
	}
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	var writer io.Writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	var closer io.Closer = nopCloser{}

	if !cfg.Production {
		path := cfg.File
		if path == "" {
			path = DefaultFile
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file %s: %w", path, err)
		}
		writer = zerolog.MultiLevelWriter(writer, f)
		closer = f
	}

	zctx := zerolog.New(writer).Level(level).With().Timestamp()
	if cfg.Service != "" {
		zctx = zctx.Str("service", cfg.Service)
	}
	return zctx.Logger(), closer, nil
}

var (
	mu   sync.RWMutex
	base = zerolog.Nop()
)

// Configure builds the process-wide logger returned by Base.
func Configure(cfg Config) (io.Closer, error) {
	l, closer, err := New(cfg)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	base = l
	mu.Unlock()
	return closer, nil
}

// Base returns the process-wide logger. It is silent until Configure runs.
func Base() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithComponent returns a child of the process-wide logger annotated with
// the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}

// Component annotates l with a component name.
func Component(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

// Package logging wraps log/slog with the printf-style helpers used across
// the codebase. Call Init once at startup; until then the slog default is used.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Options configures the default logger.
type Options struct {
	Level   string // debug, info, warn, error
	JSON    bool
	NoColor bool
	Output  io.Writer
}

// Init installs the process-wide slog logger.
// Terminals get the tint handler, everything else plain text or JSON.
func Init(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := ParseLevel(opts.Level)

	var h slog.Handler
	switch {
	case opts.JSON:
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	case isTerminal(out):
		h = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor,
		})
	default:
		h = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	l := slog.New(h)
	slog.SetDefault(l)
	return l
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Component returns a logger tagged with the component name.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

func log(level slog.Level, msg string) {
	slog.Default().Log(context.Background(), level, msg)
}

// Info logs an info message
func Info(v ...any) { log(slog.LevelInfo, fmt.Sprint(v...)) }

// Infof logs a formatted info message
func Infof(format string, v ...any) { log(slog.LevelInfo, fmt.Sprintf(format, v...)) }

// Error logs an error message
func Error(v ...any) { log(slog.LevelError, fmt.Sprint(v...)) }

// Errorf logs a formatted error message
func Errorf(format string, v ...any) { log(slog.LevelError, fmt.Sprintf(format, v...)) }

// Warn logs a warning message
func Warn(v ...any) { log(slog.LevelWarn, fmt.Sprint(v...)) }

// Warnf logs a formatted warning message
func Warnf(format string, v ...any) { log(slog.LevelWarn, fmt.Sprintf(format, v...)) }

// Debug logs a debug message
func Debug(v ...any) { log(slog.LevelDebug, fmt.Sprint(v...)) }

// Debugf logs a formatted debug message
func Debugf(format string, v ...any) { log(slog.LevelDebug, fmt.Sprintf(format, v...)) }

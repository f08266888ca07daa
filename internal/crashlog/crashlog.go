// Package crashlog records panics and failures from background tasks.
package crashlog

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
)

// Sink persists error log rows. *db.Store satisfies it.
type Sink interface {
	InsertErrorLog(ctx context.Context, arg db.InsertErrorLogParams) error
}

// Logger persists errors and panics to the error_logs table.
// Safe for concurrent use from multiple goroutines.
type Logger struct {
	sink Sink
	mu   sync.Mutex
}

var (
	global   *Logger
	globalMu sync.Mutex
)

// Init sets up the global crash logger. Call once at startup.
func Init(sink Sink) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if sink == nil {
		global = nil
		return
	}
	global = &Logger{sink: sink}
}

func current() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	return global
}

// LogPanic records a recovered panic with a full stack trace.
// Safe to call even if Init() was never called (logs only).
func LogPanic(module string, r any, ctx map[string]string) {
	msg := fmt.Sprintf("%v", r)
	stack := make([]byte, 4096)
	n := runtime.Stack(stack, false)
	stackStr := string(stack[:n])

	logging.Errorf("[PANIC] %s: %s\n%s", module, msg, stackStr)

	if l := current(); l != nil {
		l.insert("panic", module, msg, stackStr, ctx)
	}
}

// LogError records an error with optional context.
func LogError(module string, err error, ctx map[string]string) {
	if err == nil {
		return
	}

	l := current()
	if l == nil {
		logging.Errorf("[%s] %v", module, err)
		return
	}

	l.insert("error", module, err.Error(), "", ctx)
}

// LogWarn records a warning.
func LogWarn(module string, msg string, ctx map[string]string) {
	l := current()
	if l == nil {
		logging.Warnf("[%s] %s", module, msg)
		return
	}

	l.insert("warn", module, msg, "", ctx)
}

func (l *Logger) insert(level, module, message, stacktrace string, ctx map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ctxJSON string
	if len(ctx) > 0 {
		if b, err := json.Marshal(ctx); err == nil {
			ctxJSON = string(b)
		}
	}

	if err := l.sink.InsertErrorLog(context.Background(), db.InsertErrorLogParams{
		Level:      level,
		Module:     module,
		Message:    message,
		Stacktrace: stacktrace,
		Context:    ctxJSON,
	}); err != nil {
		logging.Warnf("[crashlog] failed to persist %s from %s: %v", level, module, err)
	}
}

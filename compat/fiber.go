package compat

import (
	"fmt"
	"os"

	persistent "github.com/kovalenko-tech/talker-persistent"
)

// FiberAdapter wraps a PersistentHistory to implement Fiber's CommonLogger
// interface. Fiber is duck-typed here, so no fiber dependency is required.
type FiberAdapter struct {
	history      *persistent.PersistentHistory
	fatalHandler func(msg string) // Customizable fatal behavior
	panicHandler func(msg string) // Customizable panic behavior
}

// NewFiberAdapter creates a new Fiber-compatible logger adapter
func NewFiberAdapter(history *persistent.PersistentHistory, opts ...FiberOption) *FiberAdapter {
	adapter := &FiberAdapter{
		history: history,
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior
		},
		panicHandler: func(msg string) {
			panic(msg) // Default behavior
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FiberOption allows customizing adapter behavior
type FiberOption func(*FiberAdapter)

// WithFiberFatalHandler sets a custom fatal handler
func WithFiberFatalHandler(handler func(string)) FiberOption {
	return func(a *FiberAdapter) {
		a.fatalHandler = handler
	}
}

// WithFiberPanicHandler sets a custom panic handler
func WithFiberPanicHandler(handler func(string)) FiberOption {
	return func(a *FiberAdapter) {
		a.panicHandler = handler
	}
}

func (a *FiberAdapter) log(level int64, msg string) {
	a.history.Write(persistent.NewRecord(a.history.StreamID(), level, "fiber", msg))
}

// --- Logger interface implementation ---

// Trace logs at verbose level
func (a *FiberAdapter) Trace(v ...any) {
	a.log(persistent.LevelVerbose, fmt.Sprint(v...))
}

// Debug logs at debug level
func (a *FiberAdapter) Debug(v ...any) {
	a.log(persistent.LevelDebug, fmt.Sprint(v...))
}

// Info logs at info level
func (a *FiberAdapter) Info(v ...any) {
	a.log(persistent.LevelInfo, fmt.Sprint(v...))
}

// Warn logs at warn level
func (a *FiberAdapter) Warn(v ...any) {
	a.log(persistent.LevelWarning, fmt.Sprint(v...))
}

// Error logs at error level
func (a *FiberAdapter) Error(v ...any) {
	a.log(persistent.LevelError, fmt.Sprint(v...))
}

// Fatal logs at critical level and triggers fatal handler
func (a *FiberAdapter) Fatal(v ...any) {
	msg := fmt.Sprint(v...)
	a.log(persistent.LevelCritical, msg)
	a.history.Flush()

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

// Panic logs at critical level and triggers panic handler
func (a *FiberAdapter) Panic(v ...any) {
	msg := fmt.Sprint(v...)
	a.log(persistent.LevelCritical, msg)
	a.history.Flush()

	if a.panicHandler != nil {
		a.panicHandler(msg)
	}
}

// --- Formatted variants ---

// Tracef logs at verbose level with formatting
func (a *FiberAdapter) Tracef(format string, v ...any) {
	a.log(persistent.LevelVerbose, fmt.Sprintf(format, v...))
}

// Debugf logs at debug level with formatting
func (a *FiberAdapter) Debugf(format string, v ...any) {
	a.log(persistent.LevelDebug, fmt.Sprintf(format, v...))
}

// Infof logs at info level with formatting
func (a *FiberAdapter) Infof(format string, v ...any) {
	a.log(persistent.LevelInfo, fmt.Sprintf(format, v...))
}

// Warnf logs at warn level with formatting
func (a *FiberAdapter) Warnf(format string, v ...any) {
	a.log(persistent.LevelWarning, fmt.Sprintf(format, v...))
}

// Errorf logs at error level with formatting
func (a *FiberAdapter) Errorf(format string, v ...any) {
	a.log(persistent.LevelError, fmt.Sprintf(format, v...))
}

// Fatalf logs at critical level with formatting and triggers fatal handler
func (a *FiberAdapter) Fatalf(format string, v ...any) {
	a.Fatal(fmt.Sprintf(format, v...))
}

// Panicf logs at critical level with formatting and triggers panic handler
func (a *FiberAdapter) Panicf(format string, v ...any) {
	a.Panic(fmt.Sprintf(format, v...))
}

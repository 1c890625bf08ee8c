package compat

import (
	"fmt"
	"os"
	"time"

	persistent "github.com/kovalenko-tech/talker-persistent"
)

// GnetAdapter wraps a PersistentHistory to implement gnet's logging.Logger
// interface, so server-internal messages land in the same durable history as
// application records.
type GnetAdapter struct {
	history      *persistent.PersistentHistory
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(history *persistent.PersistentHistory, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		history: history,
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

func (a *GnetAdapter) write(level int64, format string, args ...any) {
	rec := persistent.NewRecord(a.history.StreamID(), level, "gnet", fmt.Sprintf(format, args...))
	a.history.Write(rec)
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.write(persistent.LevelDebug, format, args...)
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.write(persistent.LevelInfo, format, args...)
}

// Warnf logs at warn level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.write(persistent.LevelWarning, format, args...)
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.write(persistent.LevelError, format, args...)
}

// Fatalf logs at critical level and triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.write(persistent.LevelCritical, "%s", msg)

	// Give the buffered sink a moment to reach disk before exit
	a.history.Flush()
	time.Sleep(50 * time.Millisecond)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

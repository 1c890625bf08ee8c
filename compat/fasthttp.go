package compat

import (
	"fmt"
	"strings"

	persistent "github.com/kovalenko-tech/talker-persistent"
)

// FastHTTPAdapter wraps a PersistentHistory to implement fasthttp's Logger
// interface
type FastHTTPAdapter struct {
	history       *persistent.PersistentHistory
	defaultLevel  int64
	levelDetector func(string) int64 // Function to detect log level from message
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(history *persistent.PersistentHistory, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		history:       history,
		defaultLevel:  persistent.LevelInfo,
		levelDetector: DetectLogLevel, // Default level detection
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the default log level for Printf calls
func WithDefaultLevel(level int64) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector sets a custom function to detect log level from message content
func WithLevelDetector(detector func(string) int64) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	// Detect log level from message content
	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected := a.levelDetector(msg); detected != persistent.LevelNone {
			level = detected
		}
	}

	rec := persistent.NewRecord(a.history.StreamID(), level, "fasthttp", msg)
	a.history.Write(rec)
}

// DetectLogLevel attempts to detect log level from message content
func DetectLogLevel(msg string) int64 {
	msgLower := strings.ToLower(msg)

	switch {
	case strings.Contains(msgLower, "panic"), strings.Contains(msgLower, "fatal"):
		return persistent.LevelCritical
	case strings.Contains(msgLower, "error"), strings.Contains(msgLower, "fail"):
		return persistent.LevelError
	case strings.Contains(msgLower, "warn"):
		return persistent.LevelWarning
	case strings.Contains(msgLower, "debug"):
		return persistent.LevelDebug
	default:
		return persistent.LevelNone
	}
}

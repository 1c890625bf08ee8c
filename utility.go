package persistent

import (
	"fmt"
	"strings"

	"github.com/kovalenko-tech/talker-persistent/sanitizer"
)

var textSanitizer = sanitizer.New(sanitizer.StripRunes(markerGlyphs))

// fmtErrorf wrapper, ensures consistent "persistent: " prefix
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "persistent: ") {
		format = "persistent: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// renderValue converts an arbitrary attached value to log-safe text.
func renderValue(v any) string {
	return textSanitizer.Value(v)
}

// Level converts a level string to its numeric constant.
func Level(levelStr string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "verbose":
		return LevelVerbose, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	case "":
		return LevelNone, nil
	default:
		return 0, fmtErrorf("invalid level string: '%s' (use verbose, debug, info, warning, error, critical)", levelStr)
	}
}

// levelToString converts numeric level to display string.
func levelToString(level int64) string {
	switch level {
	case LevelVerbose:
		return "VERBOSE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	case LevelNone:
		return ""
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}

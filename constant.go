package persistent

import (
	"time"
)

// Log level constants
const (
	LevelVerbose int64 = -8
	LevelDebug   int64 = -4
	LevelInfo    int64 = 0
	LevelWarning int64 = 4
	LevelError   int64 = 8
	LevelCritical int64 = 12
)

// LevelNone marks a record carrying no level information
const LevelNone int64 = -128

// Record block markers
//
// Every persisted block starts with a line beginning with recordStartPrefix
// and ends with a line equal to recordEndLine. Rotation and retention key on
// the start prefix, so the marker glyph is stripped from user-supplied text
// by the sanitizer. Marker scanning is a known fragility of the on-disk
// format; a length-prefixed block frame would remove it entirely.
const (
	recordStartPrefix = "◤╱ " // "◤╱ "
	recordEndLine     = "◢╱"  // "◢╱"
	markerGlyphs      = "◤◢"
)

// Worker protocol
const (
	// Bound on waiting for a worker response before synthesizing a failure
	workerResponseTimeout = 30 * time.Second
	// Bound on handing a request to the inbox
	workerSendTimeout = 1 * time.Second
	// Pending completions older than this are treated as abandoned
	pendingMaxAge = 60 * time.Second
	// Pending count beyond which the worker performs a full reset
	pendingHighWater = 1024
	// Inbox capacity
	workerInboxSize = 256
)

// Buffering
const (
	// A write buffer growing beyond bufferClampFactor times the configured
	// size is discarded to bound memory under sustained flush failure
	bufferClampFactor = 10
)

// File naming
const (
	dailyDateLayout = "2006-01-02"
	dirPerm         = 0755
	filePerm        = 0644
)

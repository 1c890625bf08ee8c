package persistent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fileManager owns one physical log file (or a dated family of files) for a
// single stream: append, size rotation, count rotation and the retention
// sweep. All methods run either inside the file worker goroutine or, in
// direct mode, in the caller's goroutine; there is never more than one
// writer per path.
type fileManager struct {
	streamID string
	dir      string
	baseName string
	ext      string

	splitByDay       bool
	retention        RetentionPeriod
	maxFileSizeBytes int64

	path        string
	currentDate time.Time // truncated to day; zero when day-splitting is off
	recordCount int

	rotations uint64
	sweeps    uint64
}

func newFileManager(streamID, savePath string, cfg *Config) *fileManager {
	ext := cfg.Extension
	if ext == "" {
		ext = "log"
	}
	dir := savePath
	if dir == "" {
		dir = "."
	}
	return &fileManager{
		streamID:         streamID,
		dir:              dir,
		baseName:         streamID,
		ext:              ext,
		splitByDay:       cfg.SplitByDay,
		retention:        cfg.retention(),
		maxFileSizeBytes: cfg.MaxFileSizeBytes,
	}
}

// fileName resolves the target file name for the given day. Fixed mode uses
// "<streamId>.<ext>"; day-split mode uses "<base>-<YYYY-MM-DD>.<ext>".
func (m *fileManager) fileName(day time.Time) string {
	if m.splitByDay {
		return fmt.Sprintf("%s-%s.%s", m.baseName, day.Format(dailyDateLayout), m.ext)
	}
	return fmt.Sprintf("%s.%s", m.baseName, m.ext)
}

// initialize resolves the target file, creates parents, runs the retention
// sweep when configured, and seeds the record count from an existing file.
func (m *fileManager) initialize() error {
	now := time.Now()
	if m.splitByDay {
		m.currentDate = day(now)
	}
	m.path = filepath.Join(m.dir, m.fileName(now))

	if err := os.MkdirAll(m.dir, dirPerm); err != nil {
		return fmtErrorf("failed to create log directory '%s': %w", m.dir, err)
	}

	if m.splitByDay && m.retention != RetentionUnlimited {
		m.sweepExpired(now)
	}

	content, err := os.ReadFile(m.path)
	switch {
	case err == nil:
		m.recordCount = countBlocks(string(content))
	case os.IsNotExist(err):
		if err := os.WriteFile(m.path, nil, filePerm); err != nil {
			return fmtErrorf("failed to create log file '%s': %w", m.path, err)
		}
		m.recordCount = 0
	default:
		return fmtErrorf("failed to read log file '%s': %w", m.path, err)
	}
	return nil
}

// write appends the formatted blocks to the file, switching to a new dated
// file on day advance and compacting first when the projected size would
// exceed the configured limit. On I/O failure one recovery is attempted:
// recreate the parent directory and rewrite instead of append.
func (m *fileManager) write(lines []string) error {
	now := time.Now()
	if m.splitByDay && !day(now).Equal(m.currentDate) {
		m.currentDate = day(now)
		m.path = filepath.Join(m.dir, m.fileName(now))
		m.recordCount = 0
		if m.retention != RetentionUnlimited {
			m.sweepExpired(now)
		}
	}

	blob := strings.Join(lines, "")

	if m.maxFileSizeBytes > 0 {
		if info, err := os.Stat(m.path); err == nil {
			if info.Size()+int64(len(blob)) > m.maxFileSizeBytes {
				if err := m.rotateBySize(); err != nil {
					internalDiag("size rotation failed for '%s': %v", m.path, err)
				}
			}
		}
	}

	if err := appendFile(m.path, blob); err != nil {
		// Recovery: the directory may have been removed out from under us
		if mkErr := os.MkdirAll(m.dir, dirPerm); mkErr != nil {
			return fmtErrorf("failed to append to '%s' and failed to recreate directory: %w", m.path, combineErrors(err, mkErr))
		}
		if wrErr := os.WriteFile(m.path, []byte(blob), filePerm); wrErr != nil {
			return fmtErrorf("failed to append to '%s' and rewrite recovery failed: %w", m.path, combineErrors(err, wrErr))
		}
		m.recordCount = countBlocks(blob)
		return nil
	}

	m.recordCount += countBlocks(blob)
	return nil
}

// read returns the full current file content.
func (m *fileManager) read() (string, error) {
	content, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmtErrorf("failed to read log file '%s': %w", m.path, err)
	}
	return string(content), nil
}

// rotateBySize compacts the file by keeping only the most recent
// ceil(n/2) blocks. History is discarded rather than rolled to a second
// file, trading history for bounded disk use.
func (m *fileManager) rotateBySize() error {
	content, err := m.read()
	if err != nil {
		return err
	}
	blocks := splitBlocks(content)
	if len(blocks) <= 1 {
		return nil
	}
	keep := (len(blocks) + 1) / 2
	return m.rewrite(blocks[len(blocks)-keep:])
}

// rotateByCount trims the file to its most recent maxCapacity blocks. The
// count covers blocks already on disk, including any appended in the same
// flush, so one call after a flush is sufficient.
func (m *fileManager) rotateByCount(maxCapacity int) error {
	if maxCapacity <= 0 || m.recordCount <= maxCapacity {
		return nil
	}
	content, err := m.read()
	if err != nil {
		return err
	}
	blocks := splitBlocks(content)
	if len(blocks) <= maxCapacity {
		m.recordCount = len(blocks)
		return nil
	}
	return m.rewrite(blocks[len(blocks)-maxCapacity:])
}

// rewrite replaces the file with exactly the given blocks.
func (m *fileManager) rewrite(blocks []string) error {
	if err := os.WriteFile(m.path, []byte(joinBlocks(blocks)), filePerm); err != nil {
		return fmtErrorf("failed to rewrite log file '%s': %w", m.path, err)
	}
	m.recordCount = len(blocks)
	m.rotations++
	return nil
}

// truncate empties the current file and resets the record count.
func (m *fileManager) truncate() error {
	if err := os.WriteFile(m.path, nil, filePerm); err != nil {
		return fmtErrorf("failed to truncate log file '%s': %w", m.path, err)
	}
	m.recordCount = 0
	return nil
}

// dispose releases the manager's file state. No further I/O happens through
// this manager afterwards.
func (m *fileManager) dispose() {
	m.path = ""
	m.recordCount = 0
}

// sweepExpired deletes day-split files of this stream whose filename date is
// older than the retention period. Files that fail to parse are left alone.
func (m *fileManager) sweepExpired(now time.Time) {
	maxAge := m.retention.Duration()
	if maxAge <= 0 {
		return
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		internalDiag("retention sweep failed to read '%s': %v", m.dir, err)
		return
	}

	prefix := m.baseName + "-"
	suffix := "." + m.ext
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		dateText := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		fileDate, err := time.Parse(dailyDateLayout, dateText)
		if err != nil {
			continue
		}
		if now.Sub(fileDate) > maxAge {
			path := filepath.Join(m.dir, name)
			if err := os.Remove(path); err != nil {
				internalDiag("retention sweep failed to remove '%s': %v", path, err)
			} else {
				m.sweeps++
			}
		}
	}
}

// day truncates a time to its calendar date.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// appendFile appends content to path, creating it if missing.
func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

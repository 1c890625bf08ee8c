package persistent

import (
	"strings"
	"time"

	"github.com/kovalenko-tech/talker-persistent/sanitizer"
)

// blockFormatter renders records into self-delimited text blocks. Each block
// begins with a start-marker line and closes with an end-marker line; the
// rotation and retention scanners key on the start marker.
type blockFormatter struct {
	timestampFormat string
	san             *sanitizer.Sanitizer
	buf             []byte
}

func newBlockFormatter(timestampFormat string) *blockFormatter {
	if timestampFormat == "" {
		timestampFormat = time.RFC3339Nano
	}
	return &blockFormatter{
		timestampFormat: timestampFormat,
		san:             sanitizer.New(sanitizer.StripRunes(markerGlyphs)),
		buf:             make([]byte, 0, 1024),
	}
}

// format renders one record as a complete block, trailing newline included.
func (f *blockFormatter) format(r *LogRecord) string {
	f.buf = f.buf[:0]

	f.buf = append(f.buf, recordStartPrefix...)
	f.buf = r.Time.AppendFormat(f.buf, f.timestampFormat)
	f.buf = append(f.buf, " | "...)
	f.buf = append(f.buf, levelToString(r.Level)...)
	f.buf = append(f.buf, " | "...)
	f.buf = append(f.buf, f.san.Text(r.Title)...)
	f.buf = append(f.buf, '\n')

	if r.Message != "" {
		f.buf = append(f.buf, f.san.Text(r.Message)...)
		f.buf = append(f.buf, '\n')
	}
	if r.ErrorValue != nil {
		f.buf = append(f.buf, "error: "...)
		f.buf = append(f.buf, f.san.Value(r.ErrorValue)...)
		f.buf = append(f.buf, '\n')
	}
	if r.StackTrace != "" {
		f.buf = append(f.buf, "stack trace:\n"...)
		f.buf = append(f.buf, f.san.Text(r.StackTrace)...)
		f.buf = append(f.buf, '\n')
	}

	f.buf = append(f.buf, recordEndLine...)
	f.buf = append(f.buf, '\n')
	return string(f.buf)
}

// countBlocks counts record-start markers in a content blob.
func countBlocks(content string) int {
	if content == "" {
		return 0
	}
	count := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, recordStartPrefix) {
			count++
		}
	}
	return count
}

// splitBlocks splits file content into individual record blocks, markers
// included. Text outside any block (torn writes, foreign lines) is dropped.
func splitBlocks(content string) []string {
	if content == "" {
		return nil
	}
	var blocks []string
	var current []string
	inBlock := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, recordStartPrefix) {
			// An unterminated previous block is kept as-is
			if inBlock && len(current) > 0 {
				blocks = append(blocks, strings.Join(current, "\n")+"\n")
			}
			current = current[:0]
			inBlock = true
		}
		if !inBlock {
			continue
		}
		current = append(current, line)
		if line == recordEndLine {
			blocks = append(blocks, strings.Join(current, "\n")+"\n")
			current = current[:0]
			inBlock = false
		}
	}
	if inBlock && len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n")+"\n")
	}
	return blocks
}

// joinBlocks concatenates blocks back into file content.
func joinBlocks(blocks []string) string {
	return strings.Join(blocks, "")
}

// parseBlock recovers the displayable fields of a record from one block.
// Best-effort: used by tests and diagnostics, not by the write path. A message
// line that itself starts with "error: " or equals "stack trace:" is
// indistinguishable from the optional sections and ends the message early.
func parseBlock(block string, timestampFormat string) (*LogRecord, error) {
	if timestampFormat == "" {
		timestampFormat = time.RFC3339Nano
	}
	lines := strings.Split(strings.TrimSuffix(block, "\n"), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], recordStartPrefix) {
		return nil, fmtErrorf("block does not begin with a record-start marker")
	}

	header := strings.TrimPrefix(lines[0], recordStartPrefix)
	parts := strings.SplitN(header, " | ", 3)
	if len(parts) != 3 {
		return nil, fmtErrorf("malformed block header: '%s'", header)
	}

	ts, err := time.Parse(timestampFormat, parts[0])
	if err != nil {
		return nil, fmtErrorf("failed to parse block timestamp '%s': %w", parts[0], err)
	}
	level, err := Level(parts[1])
	if err != nil {
		return nil, err
	}

	rec := &LogRecord{
		Time:  ts,
		Level: level,
		Title: parts[2],
	}

	var message []string
	section := "message"
	for _, line := range lines[1:] {
		if line == recordEndLine {
			break
		}
		switch {
		case section == "message" && strings.HasPrefix(line, "error: "):
			rec.ErrorValue = strings.TrimPrefix(line, "error: ")
			section = "error"
		case section != "stack" && line == "stack trace:":
			section = "stack"
		case section == "message":
			message = append(message, line)
		case section == "stack":
			if rec.StackTrace != "" {
				rec.StackTrace += "\n"
			}
			rec.StackTrace += line
		}
	}
	rec.Message = strings.Join(message, "\n")
	return rec, nil
}

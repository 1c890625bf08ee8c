package persistent

import (
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"time"
)

// LogRecord is the unit persisted by both sinks. Immutable once constructed;
// SequenceKey is assigned by the record store on persist and is empty until then.
type LogRecord struct {
	StreamID    string
	SequenceKey string
	Time        time.Time
	Level       int64
	Title       string
	Message     string
	ErrorValue  any
	StackTrace  string
}

// NewRecord creates a record for the given stream, defaulting Time to now.
func NewRecord(streamID string, level int64, title, message string) *LogRecord {
	return &LogRecord{
		StreamID: streamID,
		Time:     time.Now(),
		Level:    level,
		Title:    title,
		Message:  message,
	}
}

// normalize enforces the record invariants before persisting.
func (r *LogRecord) normalize(streamID string) {
	if r.StreamID == "" {
		r.StreamID = streamID
	}
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
}

// Stored value encoding: varint headerLen | header | payload | crc32c(header|payload)
// Header is 16 bytes: unix-nano timestamp and level, both big-endian.
// Payload is JSON of the displayable fields.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type recordPayload struct {
	StreamID   string `json:"stream_id"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	ErrorText  string `json:"error,omitempty"`
	StackTrace string `json:"stack_trace,omitempty"`
}

// encodeRecordValue serializes a record into a checksummed value blob.
func encodeRecordValue(r *LogRecord) ([]byte, error) {
	var header [16]byte
	binary.BigEndian.PutUint64(header[0:8], uint64(r.Time.UnixNano()))
	binary.BigEndian.PutUint64(header[8:16], uint64(r.Level))

	p := recordPayload{
		StreamID:   r.StreamID,
		Title:      r.Title,
		Message:    r.Message,
		StackTrace: r.StackTrace,
	}
	if r.ErrorValue != nil {
		p.ErrorText = renderValue(r.ErrorValue)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmtErrorf("failed to encode record payload: %w", err)
	}

	out := make([]byte, 0, 10+len(header)+len(payload)+4)
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(len(header)))
	out = append(out, tmp[:n]...)
	out = append(out, header[:]...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header[:])
	crc = crc32.Update(crc, castagnoli, payload)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	out = append(out, crcb[:]...)
	return out, nil
}

// decodeRecordValue parses a value blob back into a record.
// Returns false on truncated or corrupt data.
func decodeRecordValue(b []byte) (*LogRecord, bool) {
	if len(b) < 1+16+4 {
		return nil, false
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || hlen != 16 {
		return nil, false
	}
	if n+int(hlen)+4 > len(b) {
		return nil, false
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]

	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return nil, false
	}

	var p recordPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, false
	}

	rec := &LogRecord{
		StreamID:   p.StreamID,
		Time:       time.Unix(0, int64(binary.BigEndian.Uint64(header[0:8]))),
		Level:      int64(binary.BigEndian.Uint64(header[8:16])),
		Title:      p.Title,
		Message:    p.Message,
		StackTrace: p.StackTrace,
	}
	if p.ErrorText != "" {
		rec.ErrorValue = p.ErrorText
	}
	return rec, true
}

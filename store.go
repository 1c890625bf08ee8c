package persistent

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/kovalenko-tech/talker-persistent/internal/pebbledb"
)

// diagnosticsEnabled gates internal stderr diagnostics for the shared
// store and worker. Off by default; production callers stay silent.
var diagnosticsEnabled atomic.Bool

// EnableDiagnostics toggles internal stderr diagnostics for the package.
func EnableDiagnostics(enable bool) {
	diagnosticsEnabled.Store(enable)
}

// internalDiag writes internal diagnostics to stderr, if enabled.
func internalDiag(format string, args ...any) {
	if !diagnosticsEnabled.Load() {
		return
	}
	fmt.Fprintf(os.Stderr, "persistent: "+format+"\n", args...)
}

// Key layout (byte-wise, lexicographically sortable):
//   s/{streamId}/e/{seq_be16}
// seq_be16 is 8 bytes of unix-ms timestamp followed by 8 bytes of a
// per-process sequence, so byte order preserves chronological order across
// restarts.
const (
	streamKeyPrefix = "s/"
	entryKeySegment = "/e/"
	seqKeyBytes     = 16
)

func keyStreamPrefix(streamID string) []byte {
	k := make([]byte, 0, len(streamKeyPrefix)+len(streamID)+len(entryKeySegment))
	k = append(k, streamKeyPrefix...)
	k = append(k, streamID...)
	k = append(k, entryKeySegment...)
	return k
}

func keyEntry(streamID string, seq [seqKeyBytes]byte) []byte {
	return append(keyStreamPrefix(streamID), seq[:]...)
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
func keyUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff, no upper bound
}

// seqGenerator produces monotonically increasing 16-byte sequences. If the
// clock regresses it pins to the last seen millisecond and increments the
// counter so keys never go backwards.
type seqGenerator struct {
	mu     sync.Mutex
	lastMs int64
	seq    uint64
}

func (g *seqGenerator) next() [seqKeyBytes]byte {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := time.Now().UnixMilli()
	if ms < g.lastMs {
		ms = g.lastMs
	}
	if ms == g.lastMs {
		g.seq++
	} else {
		g.lastMs = ms
		g.seq = 0
	}

	var out [seqKeyBytes]byte
	binary.BigEndian.PutUint64(out[0:8], uint64(ms))
	binary.BigEndian.PutUint64(out[8:16], g.seq)
	return out
}

// RecordStore is the bounded, embedded-store-backed record collection shared
// by every stream. One process-wide instance owns one Pebble handle; streams
// use disjoint key namespaces.
type RecordStore struct {
	mu          sync.Mutex
	initialized bool
	db          *pebbledb.DB
	records     map[string][]*LogRecord
	seq         seqGenerator
}

// NewRecordStore creates an uninitialized store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string][]*LogRecord),
	}
}

// Initialize opens the backing store at path, preallocates the declared
// streams and loads every persisted record grouped by stream. Idempotent:
// after the first successful call, further calls are no-ops.
func (s *RecordStore) Initialize(path string, streamNames ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	db, err := pebbledb.Open(pebbledb.Options{DataDir: path})
	if err != nil {
		return fmtErrorf("failed to open record store at '%s': %w", path, err)
	}

	records := make(map[string][]*LogRecord, len(streamNames))
	for _, name := range streamNames {
		records[name] = nil
	}

	if err := loadRecords(db, records); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.records = records
	s.initialized = true
	return nil
}

// loadRecords iterates the whole stream keyspace and merges persisted records
// into the preallocated per-stream lists. Corrupt values are skipped.
func loadRecords(db *pebbledb.DB, records map[string][]*LogRecord) error {
	low := []byte(streamKeyPrefix)
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: low,
		UpperBound: keyUpperBound(low),
	})
	if err != nil {
		return fmtErrorf("failed to iterate record store: %w", err)
	}
	defer iter.Close()

	for ok := iter.First(); ok; ok = iter.Next() {
		key := iter.Key()
		streamID, seqKey, valid := parseEntryKey(key)
		if !valid {
			continue
		}
		rec, ok := decodeRecordValue(iter.Value())
		if !ok {
			internalDiag("skipping corrupt record for stream '%s'", streamID)
			continue
		}
		rec.StreamID = streamID
		rec.SequenceKey = seqKey
		records[streamID] = append(records[streamID], rec)
	}

	// Keys are scanned in byte order, which is chronological within a stream;
	// nothing to re-sort. Guard anyway against mixed historical layouts.
	for _, list := range records {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].SequenceKey < list[j].SequenceKey
		})
	}
	return nil
}

// parseEntryKey splits "s/{streamId}/e/{seq}" into its parts.
func parseEntryKey(key []byte) (streamID, seqKey string, valid bool) {
	if len(key) < len(streamKeyPrefix)+len(entryKeySegment)+seqKeyBytes {
		return "", "", false
	}
	body := key[len(streamKeyPrefix):]
	segAt := len(body) - seqKeyBytes - len(entryKeySegment)
	if segAt < 0 || string(body[segAt:segAt+len(entryKeySegment)]) != entryKeySegment {
		return "", "", false
	}
	return string(body[:segAt]), hex.EncodeToString(body[len(body)-seqKeyBytes:]), true
}

// Append persists a record to the stream's list, evicting at most the single
// oldest record when the list is at capacity. Backing-store errors are
// swallowed; the caller is never failed.
func (s *RecordStore) Append(streamID string, rec *LogRecord, maxCapacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}

	rec.normalize(streamID)

	list := s.records[streamID]
	if maxCapacity > 0 && len(list) >= maxCapacity {
		oldest := list[0]
		if key := entryKeyFromSequence(streamID, oldest.SequenceKey); key != nil {
			if err := s.db.Delete(key); err != nil {
				internalDiag("failed to evict record from stream '%s': %v", streamID, err)
			}
		}
		list = list[1:]
	}

	seq := s.seq.next()
	rec.SequenceKey = hex.EncodeToString(seq[:])

	value, err := encodeRecordValue(rec)
	if err != nil {
		internalDiag("failed to encode record for stream '%s': %v", streamID, err)
	} else if err := s.db.Set(keyEntry(streamID, seq), value); err != nil {
		internalDiag("failed to persist record for stream '%s': %v", streamID, err)
	}

	s.records[streamID] = append(list, rec)
}

// entryKeyFromSequence rebuilds a full entry key from a hex sequence key.
func entryKeyFromSequence(streamID, seqKey string) []byte {
	raw, err := hex.DecodeString(seqKey)
	if err != nil || len(raw) != seqKeyBytes {
		return nil
	}
	var seq [seqKeyBytes]byte
	copy(seq[:], raw)
	return keyEntry(streamID, seq)
}

// Clean deletes every persisted record of the stream and clears its list.
func (s *RecordStore) Clean(streamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}

	prefix := keyStreamPrefix(streamID)
	if err := s.db.DeleteRange(prefix, keyUpperBound(prefix)); err != nil {
		internalDiag("failed to clean stream '%s': %v", streamID, err)
	}
	s.records[streamID] = nil
}

// Records returns a read-only snapshot of the stream's records, oldest first.
// Unknown streams and an uninitialized store yield an empty snapshot.
func (s *RecordStore) Records(streamID string) []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil
	}
	list := s.records[streamID]
	out := make([]LogRecord, len(list))
	for i, rec := range list {
		out[i] = *rec
	}
	return out
}

// Len reports the current record count of a stream.
func (s *RecordStore) Len(streamID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[streamID])
}

// Dispose closes the backing store. Safe to call before Initialize and safe
// to call twice.
func (s *RecordStore) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil
	}
	s.initialized = false
	db := s.db
	s.db = nil
	s.records = make(map[string][]*LogRecord)
	if err := db.Close(); err != nil {
		return fmtErrorf("failed to close record store: %w", err)
	}
	return nil
}

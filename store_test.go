package persistent

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore opens a store in a temp directory
func createTestStore(t *testing.T, streams ...string) *RecordStore {
	t.Helper()
	store := NewRecordStore()
	require.NoError(t, store.Initialize(t.TempDir(), streams...))
	t.Cleanup(func() { _ = store.Dispose() })
	return store
}

func testRecord(stream, message string) *LogRecord {
	return &LogRecord{
		StreamID: stream,
		Time:     time.Now(),
		Level:    LevelInfo,
		Title:    "test",
		Message:  message,
	}
}

// TestStoreCapacityInvariant verifies the list never exceeds maxCapacity and
// keeps exactly the most recent writes in order
func TestStoreCapacityInvariant(t *testing.T) {
	store := createTestStore(t, "s1")

	const capacity = 5
	for i := 0; i < 12; i++ {
		store.Append("s1", testRecord("s1", fmt.Sprintf("m%d", i)), capacity)
		assert.LessOrEqual(t, store.Len("s1"), capacity)
	}

	records := store.Records("s1")
	require.Len(t, records, capacity)
	for i, rec := range records {
		assert.Equal(t, fmt.Sprintf("m%d", 12-capacity+i), rec.Message)
	}
}

// TestStoreSequenceKeys checks that persisted records receive ordered keys
func TestStoreSequenceKeys(t *testing.T) {
	store := createTestStore(t, "s1")

	store.Append("s1", testRecord("s1", "a"), 10)
	store.Append("s1", testRecord("s1", "b"), 10)

	records := store.Records("s1")
	require.Len(t, records, 2)
	assert.NotEmpty(t, records[0].SequenceKey)
	assert.Less(t, records[0].SequenceKey, records[1].SequenceKey)
}

// TestStoreSurvivesRestart verifies records reload grouped by stream after reopen
func TestStoreSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	store := NewRecordStore()
	require.NoError(t, store.Initialize(dir, "s1", "s2"))
	store.Append("s1", testRecord("s1", "one"), 10)
	store.Append("s2", testRecord("s2", "two"), 10)
	store.Append("s1", testRecord("s1", "three"), 10)
	require.NoError(t, store.Dispose())

	reopened := NewRecordStore()
	require.NoError(t, reopened.Initialize(dir, "s1", "s2"))
	defer reopened.Dispose()

	s1 := reopened.Records("s1")
	require.Len(t, s1, 2)
	assert.Equal(t, "one", s1[0].Message)
	assert.Equal(t, "three", s1[1].Message)

	s2 := reopened.Records("s2")
	require.Len(t, s2, 1)
	assert.Equal(t, "two", s2[0].Message)
}

// TestStoreEvictionPersists verifies evicted records stay gone across restarts
func TestStoreEvictionPersists(t *testing.T) {
	dir := t.TempDir()

	store := NewRecordStore()
	require.NoError(t, store.Initialize(dir, "s1"))
	for i := 0; i < 6; i++ {
		store.Append("s1", testRecord("s1", fmt.Sprintf("m%d", i)), 3)
	}
	require.NoError(t, store.Dispose())

	reopened := NewRecordStore()
	require.NoError(t, reopened.Initialize(dir, "s1"))
	defer reopened.Dispose()

	records := reopened.Records("s1")
	require.Len(t, records, 3)
	assert.Equal(t, "m3", records[0].Message)
	assert.Equal(t, "m5", records[2].Message)
}

// TestStoreClean removes all records of one stream without touching others
func TestStoreClean(t *testing.T) {
	store := createTestStore(t, "s1", "s2")

	store.Append("s1", testRecord("s1", "a"), 10)
	store.Append("s2", testRecord("s2", "b"), 10)

	store.Clean("s1")
	assert.Empty(t, store.Records("s1"))
	assert.Len(t, store.Records("s2"), 1)
}

// TestStoreInitializeIdempotent verifies a second Initialize is a no-op
func TestStoreInitializeIdempotent(t *testing.T) {
	dir := t.TempDir()
	store := NewRecordStore()
	require.NoError(t, store.Initialize(dir, "s1"))
	defer store.Dispose()

	store.Append("s1", testRecord("s1", "a"), 10)
	require.NoError(t, store.Initialize(dir, "s1"))
	assert.Len(t, store.Records("s1"), 1)
}

// TestStoreDegradesBeforeInitialize checks calls before Initialize do not crash
func TestStoreDegradesBeforeInitialize(t *testing.T) {
	store := NewRecordStore()

	store.Append("s1", testRecord("s1", "a"), 10)
	store.Clean("s1")
	assert.Empty(t, store.Records("s1"))
	assert.NoError(t, store.Dispose())
}

// TestStoreDisposeIdempotent verifies double dispose never raises
func TestStoreDisposeIdempotent(t *testing.T) {
	store := NewRecordStore()
	require.NoError(t, store.Initialize(t.TempDir(), "s1"))

	assert.NoError(t, store.Dispose())
	assert.NoError(t, store.Dispose())
}

// TestStoreUnknownStream verifies unknown streams yield empty snapshots
func TestStoreUnknownStream(t *testing.T) {
	store := createTestStore(t, "s1")
	assert.Empty(t, store.Records("nope"))
}

// TestParseEntryKey covers the key layout parser
func TestParseEntryKey(t *testing.T) {
	var seq [seqKeyBytes]byte
	seq[15] = 7
	key := keyEntry("my/stream", seq)

	streamID, seqKey, valid := parseEntryKey(key)
	require.True(t, valid)
	assert.Equal(t, "my/stream", streamID)
	assert.Len(t, seqKey, seqKeyBytes*2)

	_, _, valid = parseEntryKey([]byte("s/short"))
	assert.False(t, valid)
}

package pebbledb

import (
	"errors"
	"time"

	"github.com/cockroachdb/pebble"
)

// Options configures the Pebble store wrapper.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// SyncWrites requests a WAL fsync on each committed write. When false,
	// WAL syncs are coalesced over GroupCommitInterval.
	SyncWrites bool
	// GroupCommitInterval controls WAL sync coalescing when SyncWrites is off.
	GroupCommitInterval time.Duration
}

// DB wraps a Pebble database instance with the module's durability policy.
type DB struct {
	inner *pebble.DB
	sync  bool
}

// Open creates or opens a Pebble database at opts.DataDir.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebbledb: Options.DataDir is required")
	}

	po := &pebble.Options{}
	if !opts.SyncWrites {
		interval := opts.GroupCommitInterval
		if interval <= 0 {
			interval = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return interval }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, err
	}
	return &DB{inner: inner, sync: opts.SyncWrites}, nil
}

// Close closes the database. Safe on a nil receiver.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

func (db *DB) writeOpts() *pebble.WriteOptions {
	if db.sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Set stores a key/value pair.
func (db *DB) Set(key, value []byte) error {
	return db.inner.Set(key, value, db.writeOpts())
}

// Delete removes a single key.
func (db *DB) Delete(key []byte) error {
	return db.inner.Delete(key, db.writeOpts())
}

// DeleteRange removes every key in [start, end).
func (db *DB) DeleteRange(start, end []byte) error {
	return db.inner.DeleteRange(start, end, db.writeOpts())
}

// Get copies the value for the given key. Returns pebble.ErrNotFound when absent.
func (db *DB) Get(key []byte) ([]byte, error) {
	val, closer, err := db.inner.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

// NewIter creates a raw Pebble iterator with the provided options.
func (db *DB) NewIter(opts *pebble.IterOptions) (*pebble.Iterator, error) {
	return db.inner.NewIter(opts)
}

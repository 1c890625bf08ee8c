// Package pebbledb wraps a Pebble database behind the handful of operations
// the record store needs: open/close, point writes and deletes, range deletes
// and ordered iteration. The wrapper owns the durability policy so callers
// never deal with pebble.WriteOptions directly.
package pebbledb

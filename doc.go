// Package persistent durably stores recent log records in two sinks without
// ever blocking or crashing the producing application: a bounded, embedded
// record store that survives restarts, and rotated human-readable log files.
//
// A PersistentHistory instance owns one stream. Its Write path appends the
// record to the store sink synchronously, evicting the oldest record when the
// stream is at capacity, and batches formatted text blocks for the file sink.
// File I/O for every stream is serialized on a single background worker
// behind a request/response protocol with bounded timeouts, so producers
// never block indefinitely and a failure in one operation never takes down
// the worker.
//
// Files rotate two ways: a byte-size limit compacts a file down to its most
// recent half of records, and a record-count limit trims it to the most
// recent N blocks. With day splitting enabled, files are named by calendar
// date and a retention sweep deletes dated files older than the configured
// period.
//
// Nothing in this package raises past the public façade; under sustained
// failure records may be silently lost, but the host process keeps running.
//
//	persistent.InitializeStores(dataDir, "app_logs")
//	h, _ := persistent.NewBuilder("app_logs").
//		SavePath(logDir).
//		MaxCapacity(500).
//		Build()
//	h.Write(persistent.NewRecord("app_logs", persistent.LevelInfo, "start", "service up"))
package persistent

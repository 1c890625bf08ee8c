package persistent

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// Stats is a snapshot of one history instance's counters.
type Stats struct {
	Written   uint64 // records accepted by Write
	Dropped   uint64 // formatted lines lost to failures or buffer clamping
	Flushes   uint64 // completed file flushes
	Rotations uint64 // count rotations triggered after a flush
}

// PersistentHistory is the façade a log producer calls. It fans a record out
// to the record store (synchronous, in-process) and to the file sink
// (buffered, through the file worker), and guarantees that nothing in this
// path ever raises back to the caller.
type PersistentHistory struct {
	streamID string
	savePath string
	cfg      *Config

	store  *RecordStore
	worker *FileWorker
	direct *fileManager // non-nil when cfg.UseWorker is false

	formatMu  sync.Mutex
	formatter *blockFormatter

	bufMu  sync.Mutex
	buffer []string

	fileReady atomic.Bool
	disposed  atomic.Bool

	written   atomic.Uint64
	dropped   atomic.Uint64
	flushes   atomic.Uint64
	rotations atomic.Uint64
}

// New constructs a history for one stream and initializes its file sink per
// config. It never fails the caller: a file-sink initialization failure
// disables the file sink for this instance only, leaving the store sink
// untouched.
func New(streamID, savePath string, cfg *Config) *PersistentHistory {
	return newWithSinks(streamID, savePath, cfg, nil, nil)
}

// newWithSinks is the injection point used by the builder and tests. The
// sink goroutine is spawned only after the overrides are in place.
func newWithSinks(streamID, savePath string, cfg *Config, store *RecordStore, worker *FileWorker) *PersistentHistory {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.Clone()
	}
	if err := cfg.Validate(); err != nil {
		internalDiag("invalid history config for stream '%s', using defaults: %v", streamID, err)
		cfg = DefaultConfig()
	}

	h := &PersistentHistory{
		streamID:  streamID,
		savePath:  savePath,
		cfg:       cfg,
		store:     defaultStore,
		worker:    defaultWorker,
		formatter: newBlockFormatter(cfg.TimestampFormat),
	}
	if store != nil {
		h.store = store
	}
	if worker != nil {
		h.worker = worker
	}

	if cfg.EnableFile {
		go h.initFileSink()
	}
	return h
}

// initFileSink initializes file-sink state via the worker or directly.
func (h *PersistentHistory) initFileSink() {
	defer h.recoverSilently("file sink init")

	if h.cfg.UseWorker {
		resp := h.worker.sendMessage(fileRequest{
			op:       opInit,
			streamID: h.streamID,
			savePath: h.savePath,
			cfg:      h.cfg,
		})
		if !resp.ok {
			h.internalLog("file sink disabled for stream '%s': %s", h.streamID, resp.err)
			return
		}
	} else {
		m := newFileManager(h.streamID, h.savePath, h.cfg)
		if err := m.initialize(); err != nil {
			h.internalLog("file sink disabled for stream '%s': %v", h.streamID, err)
			return
		}
		h.direct = m
	}
	h.fileReady.Store(true)
}

// Write persists one record to the enabled sinks. Failures degrade silently;
// the producer is never blocked beyond the worker timeout and never sees a
// panic from this path.
func (h *PersistentHistory) Write(rec *LogRecord) {
	defer h.recoverSilently("write")

	if rec == nil || h.disposed.Load() {
		return
	}
	rec.normalize(h.streamID)
	h.written.Add(1)

	if h.cfg.EnableStore {
		h.store.Append(h.streamID, rec, int(h.cfg.MaxCapacity))
	}

	if !h.cfg.EnableFile || !h.fileReady.Load() {
		return
	}

	h.formatMu.Lock()
	line := h.formatter.format(rec)
	h.formatMu.Unlock()

	h.bufMu.Lock()
	h.buffer = append(h.buffer, line)

	flushNow := h.cfg.BufferSize == 0 ||
		(h.cfg.FlushOnError && rec.Level >= LevelError) ||
		int64(len(h.buffer)) >= h.cfg.BufferSize

	if !flushNow {
		h.bufMu.Unlock()
		return
	}

	lines := h.buffer
	h.buffer = nil
	h.bufMu.Unlock()

	h.flushLines(lines)
}

// flushLines sends a batch to the file sink. After a flush, count rotation is
// triggered unless day-splitting is enabled, which relies on size rotation
// and the daily retention sweep instead.
func (h *PersistentHistory) flushLines(lines []string) {
	if len(lines) == 0 {
		return
	}

	maxCount := 0
	if !h.cfg.SplitByDay && h.cfg.MaxCapacity > 0 {
		maxCount = int(h.cfg.MaxCapacity)
	}

	if h.cfg.UseWorker {
		resp := h.worker.sendMessage(fileRequest{
			op:       opWrite,
			streamID: h.streamID,
			lines:    lines,
			maxCount: maxCount,
		})
		if !resp.ok {
			h.requeue(lines)
			h.internalLog("flush failed for stream '%s': %s", h.streamID, resp.err)
			return
		}
	} else {
		if err := h.direct.write(lines); err != nil {
			h.requeue(lines)
			h.internalLog("flush failed for stream '%s': %v", h.streamID, err)
			return
		}
		if maxCount > 0 {
			if err := h.direct.rotateByCount(maxCount); err != nil {
				h.internalLog("count rotation failed for stream '%s': %v", h.streamID, err)
			}
		}
	}

	h.flushes.Add(1)
	if maxCount > 0 {
		h.rotations.Add(1)
	}
}

// requeue preserves a failed batch for the next flush attempt, unless the
// buffer has grown pathologically large, in which case it is cleared to
// bound memory.
func (h *PersistentHistory) requeue(lines []string) {
	h.bufMu.Lock()
	defer h.bufMu.Unlock()

	h.buffer = append(lines, h.buffer...)

	limit := h.cfg.BufferSize
	if limit < 1 {
		limit = 1
	}
	if int64(len(h.buffer)) > bufferClampFactor*limit {
		h.dropped.Add(uint64(len(h.buffer)))
		h.buffer = nil
	}
}

// Flush forces any buffered lines to the file sink.
func (h *PersistentHistory) Flush() {
	defer h.recoverSilently("flush")

	h.bufMu.Lock()
	lines := h.buffer
	h.buffer = nil
	h.bufMu.Unlock()

	if h.fileReady.Load() {
		h.flushLines(lines)
	}
}

// History returns a read-only snapshot of the store sink, oldest first.
// Empty when the store sink is disabled or not initialized.
func (h *PersistentHistory) History() []LogRecord {
	if !h.cfg.EnableStore {
		return nil
	}
	return h.store.Records(h.streamID)
}

// ReadFile returns the current log file content through the file sink.
func (h *PersistentHistory) ReadFile() (string, error) {
	if !h.cfg.EnableFile || !h.fileReady.Load() {
		return "", fmtErrorf("file sink not available for stream '%s'", h.streamID)
	}
	if h.cfg.UseWorker {
		resp := h.worker.sendMessage(fileRequest{op: opRead, streamID: h.streamID})
		if !resp.ok {
			return "", fmtErrorf("failed to read stream '%s': %s", h.streamID, resp.err)
		}
		return resp.content, nil
	}
	return h.direct.read()
}

// Clean clears the store sink for this stream and truncates the file sink's
// current file.
func (h *PersistentHistory) Clean() {
	defer h.recoverSilently("clean")

	if h.cfg.EnableStore {
		h.store.Clean(h.streamID)
	}

	h.bufMu.Lock()
	h.buffer = nil
	h.bufMu.Unlock()

	if h.cfg.EnableFile && h.fileReady.Load() {
		if h.cfg.UseWorker {
			resp := h.worker.sendMessage(fileRequest{op: opTruncate, streamID: h.streamID})
			if !resp.ok {
				h.internalLog("truncate failed for stream '%s': %s", h.streamID, resp.err)
			}
		} else if err := h.direct.truncate(); err != nil {
			h.internalLog("truncate failed for stream '%s': %v", h.streamID, err)
		}
	}
}

// Dispose flushes pending lines, releases the file sink and closes the store
// sink's backing handle. Idempotent.
func (h *PersistentHistory) Dispose() {
	defer h.recoverSilently("dispose")

	if !h.disposed.CompareAndSwap(false, true) {
		return
	}

	h.bufMu.Lock()
	lines := h.buffer
	h.buffer = nil
	h.bufMu.Unlock()

	if h.fileReady.Load() {
		h.flushLines(lines)
		h.fileReady.Store(false)
		if h.cfg.UseWorker {
			h.worker.sendMessage(fileRequest{op: opDispose, streamID: h.streamID})
		} else if h.direct != nil {
			h.direct.dispose()
		}
	}

	if h.cfg.EnableStore {
		if err := h.store.Dispose(); err != nil {
			h.internalLog("store dispose failed: %v", err)
		}
	}
}

// Stats returns a snapshot of this instance's counters.
func (h *PersistentHistory) Stats() Stats {
	return Stats{
		Written:   h.written.Load(),
		Dropped:   h.dropped.Load(),
		Flushes:   h.flushes.Load(),
		Rotations: h.rotations.Load(),
	}
}

// StreamID returns the stream this history persists.
func (h *PersistentHistory) StreamID() string {
	return h.streamID
}

// internalLog writes instance diagnostics to stderr, if enabled by config.
func (h *PersistentHistory) internalLog(format string, args ...any) {
	if !h.cfg.InternalErrorsToStderr {
		return
	}
	fmt.Fprintf(os.Stderr, "persistent: "+format+"\n", args...)
}

// recoverSilently converts a panic in a public path into a diagnostic.
// Logging must never crash the host application.
func (h *PersistentHistory) recoverSilently(operation string) {
	if r := recover(); r != nil {
		h.internalLog("recovered panic during %s for stream '%s': %v", operation, h.streamID, r)
	}
}

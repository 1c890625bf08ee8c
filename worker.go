package persistent

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// File operation kinds carried by worker requests.
type fileOp int

const (
	opInit fileOp = iota
	opWrite
	opRead
	opTruncate
	opDispose
)

// fileRequest is one unit of work for the worker goroutine.
type fileRequest struct {
	id       string
	op       fileOp
	streamID string
	savePath string
	cfg      *Config
	lines    []string
	maxCount int // count rotation bound for opWrite, 0 = no rotation
}

// fileResponse is the single reply matched to a request by id.
type fileResponse struct {
	id          string
	ok          bool
	err         string
	recordCount int
	content     string
}

// pendingCall tracks an in-flight request awaiting its response.
type pendingCall struct {
	ch      chan fileResponse
	created time.Time
}

// FileWorker serializes all blocking file operations for every stream behind
// one background goroutine. Callers are non-blocking initiators: they send a
// request and wait on a completion handle with a bounded timeout, so no
// caller ever blocks indefinitely on file I/O.
type FileWorker struct {
	mu      sync.Mutex
	started bool
	inbox   chan fileRequest
	done    chan struct{}

	pendMu  sync.Mutex
	pending map[string]pendingCall

	responseTimeout time.Duration
	sendTimeout     time.Duration
}

// NewFileWorker creates a worker. The background goroutine is spawned lazily
// on first use.
func NewFileWorker() *FileWorker {
	return &FileWorker{
		pending:         make(map[string]pendingCall),
		responseTimeout: workerResponseTimeout,
		sendTimeout:     workerSendTimeout,
	}
}

// ensureStarted lazily spawns the background goroutine. Concurrent first-use
// calls coalesce under the mutex; a failed spawn leaves started false so a
// later call retries.
func (w *FileWorker) ensureStarted() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return
	}
	w.inbox = make(chan fileRequest, workerInboxSize)
	w.done = make(chan struct{})
	w.started = true
	go w.run(w.inbox, w.done)
}

// sendMessage dispatches a request and waits for its response with a bounded
// timeout. On timeout a failure response is synthesized and the pending entry
// removed; the worker's eventual orphaned reply is dropped by id mismatch.
func (w *FileWorker) sendMessage(req fileRequest) fileResponse {
	w.ensureStarted()
	w.maintainPending()

	req.id = uuid.NewString()
	call := pendingCall{ch: make(chan fileResponse, 1), created: time.Now()}

	w.pendMu.Lock()
	w.pending[req.id] = call
	w.pendMu.Unlock()

	w.mu.Lock()
	inbox := w.inbox
	started := w.started
	w.mu.Unlock()

	if !started || inbox == nil {
		w.removePending(req.id)
		return fileResponse{id: req.id, err: "file worker not running"}
	}

	select {
	case inbox <- req:
	case <-time.After(w.sendTimeout):
		w.removePending(req.id)
		return fileResponse{id: req.id, err: "file worker inbox full"}
	}

	select {
	case resp := <-call.ch:
		return resp
	case <-time.After(w.responseTimeout):
		w.removePending(req.id)
		return fileResponse{id: req.id, err: "file worker response timeout"}
	}
}

// removePending deletes one pending completion.
func (w *FileWorker) removePending(id string) {
	w.pendMu.Lock()
	delete(w.pending, id)
	w.pendMu.Unlock()
}

// deliver hands a response to its waiting caller, or drops it if the caller
// already timed out. The channel is buffered, so the worker never blocks here.
func (w *FileWorker) deliver(resp fileResponse) {
	w.pendMu.Lock()
	call, ok := w.pending[resp.id]
	if ok {
		delete(w.pending, resp.id)
	}
	w.pendMu.Unlock()
	if ok {
		call.ch <- resp
	}
}

// maintainPending purges abandoned completions and performs a full reset when
// the pending count passes the high-water mark, bounding memory growth if the
// worker goroutine becomes unresponsive.
func (w *FileWorker) maintainPending() {
	w.pendMu.Lock()
	cutoff := time.Now().Add(-pendingMaxAge)
	for id, call := range w.pending {
		if call.created.Before(cutoff) {
			call.ch <- fileResponse{id: id, err: "file worker request abandoned"}
			delete(w.pending, id)
		}
	}
	overloaded := len(w.pending) > pendingHighWater
	w.pendMu.Unlock()

	if overloaded {
		internalDiag("file worker pending high-water mark exceeded, resetting")
		w.reset()
	}
}

// reset fails every pending completion and discards the background goroutine;
// the next call respawns it lazily.
func (w *FileWorker) reset() {
	w.mu.Lock()
	if w.started {
		w.started = false
		close(w.done)
		w.inbox = nil
		w.done = nil
	}
	w.mu.Unlock()

	w.pendMu.Lock()
	for id, call := range w.pending {
		call.ch <- fileResponse{id: id, err: "file worker reset"}
		delete(w.pending, id)
	}
	w.pendMu.Unlock()
}

// Dispose terminates the background goroutine and fails all pending
// completions. Safe to call twice; the worker may be lazily restarted by a
// later sendMessage.
func (w *FileWorker) Dispose() {
	w.reset()
}

// run is the worker loop: a private map of stream managers, one message at a
// time. A failure at loop scope is reported rather than vanishing silently.
func (w *FileWorker) run(inbox <-chan fileRequest, done <-chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			internalDiag("file worker loop terminated: %v", r)
		}
	}()

	managers := make(map[string]*fileManager)
	for {
		select {
		case req := <-inbox:
			w.deliver(handleRequest(managers, req))
		case <-done:
			for _, m := range managers {
				m.dispose()
			}
			return
		}
	}
}

// handleRequest processes one message. A panic while handling it is converted
// into a failure response for that message only and never terminates the loop.
func handleRequest(managers map[string]*fileManager, req fileRequest) (resp fileResponse) {
	resp = fileResponse{id: req.id}
	defer func() {
		if r := recover(); r != nil {
			resp.ok = false
			resp.err = fmtErrorf("file operation panicked: %v", r).Error()
		}
	}()

	fail := func(err error) fileResponse {
		resp.ok = false
		resp.err = err.Error()
		return resp
	}

	switch req.op {
	case opInit:
		m := newFileManager(req.streamID, req.savePath, req.cfg)
		if err := m.initialize(); err != nil {
			return fail(err)
		}
		managers[req.streamID] = m
		resp.recordCount = m.recordCount

	case opWrite:
		m, ok := managers[req.streamID]
		if !ok {
			return fail(fmtErrorf("stream '%s' has no initialized file manager", req.streamID))
		}
		if err := m.write(req.lines); err != nil {
			return fail(err)
		}
		if req.maxCount > 0 && !m.splitByDay {
			if err := m.rotateByCount(req.maxCount); err != nil {
				internalDiag("count rotation failed for stream '%s': %v", req.streamID, err)
			}
		}
		resp.recordCount = m.recordCount

	case opRead:
		m, ok := managers[req.streamID]
		if !ok {
			return fail(fmtErrorf("stream '%s' has no initialized file manager", req.streamID))
		}
		content, err := m.read()
		if err != nil {
			return fail(err)
		}
		resp.content = content
		resp.recordCount = m.recordCount

	case opTruncate:
		m, ok := managers[req.streamID]
		if !ok {
			return fail(fmtErrorf("stream '%s' has no initialized file manager", req.streamID))
		}
		if err := m.truncate(); err != nil {
			return fail(err)
		}

	case opDispose:
		if m, ok := managers[req.streamID]; ok {
			m.dispose()
			delete(managers, req.streamID)
		}

	default:
		return fail(fmtErrorf("unknown file operation %d", req.op))
	}

	resp.ok = true
	return resp
}

package persistent

// Process-wide instances shared by every history created through New. The
// store handle is opened once via InitializeStores; all streams share it with
// disjoint key namespaces. The worker serializes file I/O across streams.
var (
	defaultStore  = NewRecordStore()
	defaultWorker = NewFileWorker()
)

// InitializeStores opens the shared record store before any history is
// created. History methods called before this degrade to empty snapshots.
func InitializeStores(path string, streamNames ...string) error {
	return defaultStore.Initialize(path, streamNames...)
}

// DisposeStores closes the shared record store and stops the shared worker.
func DisposeStores() error {
	defaultWorker.Dispose()
	return defaultStore.Dispose()
}

// DefaultStore returns the process-wide record store.
func DefaultStore() *RecordStore {
	return defaultStore
}

// DefaultWorker returns the process-wide file worker.
func DefaultWorker() *FileWorker {
	return defaultWorker
}

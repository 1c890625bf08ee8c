package persistent

// Builder provides a fluent API for constructing a configured history.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	streamID string
	savePath string
	cfg      *Config
	store    *RecordStore
	worker   *FileWorker
	err      error // Accumulate errors for deferred handling
}

// NewBuilder creates a new history builder for the given stream with default
// configuration values.
func NewBuilder(streamID string) *Builder {
	return &Builder{
		streamID: streamID,
		cfg:      DefaultConfig(),
	}
}

// Build constructs the PersistentHistory. Configuration errors accumulated by
// the chain are returned here; construction itself never fails the caller.
func (b *Builder) Build() (*PersistentHistory, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	return newWithSinks(b.streamID, b.savePath, b.cfg, b.store, b.worker), nil
}

// SavePath sets the directory the file sink writes to.
func (b *Builder) SavePath(path string) *Builder {
	b.savePath = path
	return b
}

// Config replaces the whole configuration.
func (b *Builder) Config(cfg *Config) *Builder {
	if cfg != nil {
		b.cfg = cfg.Clone()
	}
	return b
}

// ConfigString applies "key=value" overrides to the configuration.
func (b *Builder) ConfigString(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			b.err = err
			return b
		}
		if err := applyConfigField(b.cfg, key, value); err != nil {
			b.err = err
			return b
		}
	}
	return b
}

// BufferSize sets the flush threshold; 0 flushes every record.
func (b *Builder) BufferSize(size int64) *Builder {
	b.cfg.BufferSize = size
	return b
}

// FlushOnError sets immediate flushing for error and critical records.
func (b *Builder) FlushOnError(enable bool) *Builder {
	b.cfg.FlushOnError = enable
	return b
}

// MaxCapacity sets the record bound for the store sink and count rotation.
func (b *Builder) MaxCapacity(capacity int64) *Builder {
	b.cfg.MaxCapacity = capacity
	return b
}

// MaxFileSizeBytes sets the byte-size rotation limit; 0 disables it.
func (b *Builder) MaxFileSizeBytes(size int64) *Builder {
	b.cfg.MaxFileSizeBytes = size
	return b
}

// EnableStore toggles the embedded record store sink.
func (b *Builder) EnableStore(enable bool) *Builder {
	b.cfg.EnableStore = enable
	return b
}

// EnableFile toggles the on-disk file sink.
func (b *Builder) EnableFile(enable bool) *Builder {
	b.cfg.EnableFile = enable
	return b
}

// SplitByDay toggles one-file-per-calendar-date naming.
func (b *Builder) SplitByDay(enable bool) *Builder {
	b.cfg.SplitByDay = enable
	return b
}

// Retention sets the retention period for day-split files.
func (b *Builder) Retention(period RetentionPeriod) *Builder {
	b.cfg.RetentionPeriod = period.String()
	return b
}

// RetentionString sets the retention period from its config spelling.
func (b *Builder) RetentionString(period string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := ParseRetention(period); err != nil {
		b.err = err
		return b
	}
	b.cfg.RetentionPeriod = period
	return b
}

// Extension sets the log file extension.
func (b *Builder) Extension(ext string) *Builder {
	b.cfg.Extension = ext
	return b
}

// UseWorker toggles background-worker file I/O; false is direct synchronous.
func (b *Builder) UseWorker(enable bool) *Builder {
	b.cfg.UseWorker = enable
	return b
}

// Store sets the record store instance, overriding the shared default.
func (b *Builder) Store(store *RecordStore) *Builder {
	b.store = store
	return b
}

// Worker sets the file worker instance, overriding the shared default.
func (b *Builder) Worker(worker *FileWorker) *Builder {
	b.worker = worker
	return b
}

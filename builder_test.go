package persistent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderChain(t *testing.T) {
	h, err := NewBuilder("app").
		SavePath(t.TempDir()).
		BufferSize(7).
		FlushOnError(false).
		MaxCapacity(50).
		MaxFileSizeBytes(1 << 20).
		Extension("txt").
		SplitByDay(true).
		Retention(RetentionOneWeek).
		EnableStore(false).
		UseWorker(false).
		Build()
	require.NoError(t, err)
	defer h.Dispose()

	assert.Equal(t, int64(7), h.cfg.BufferSize)
	assert.False(t, h.cfg.FlushOnError)
	assert.Equal(t, int64(50), h.cfg.MaxCapacity)
	assert.Equal(t, int64(1<<20), h.cfg.MaxFileSizeBytes)
	assert.Equal(t, "txt", h.cfg.Extension)
	assert.True(t, h.cfg.SplitByDay)
	assert.Equal(t, "1w", h.cfg.RetentionPeriod)
	assert.False(t, h.cfg.EnableStore)
	assert.False(t, h.cfg.UseWorker)
}

func TestBuilderConfigString(t *testing.T) {
	h, err := NewBuilder("app").
		SavePath(t.TempDir()).
		EnableFile(false).
		ConfigString("buffer_size=12", "flush_on_error=false").
		Build()
	require.NoError(t, err)
	defer h.Dispose()

	assert.Equal(t, int64(12), h.cfg.BufferSize)
	assert.False(t, h.cfg.FlushOnError)
}

func TestBuilderAccumulatesErrors(t *testing.T) {
	_, err := NewBuilder("app").
		ConfigString("buffer_size=lots").
		BufferSize(5). // Chained after the error; must not mask it
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffer_size")

	_, err = NewBuilder("app").RetentionString("6d").Build()
	assert.Error(t, err)
}

func TestBuilderValidatesOnBuild(t *testing.T) {
	_, err := NewBuilder("app").BufferSize(-1).Build()
	assert.Error(t, err)
}

func TestBuilderConfigReplacesAndClones(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferSize = 3
	cfg.EnableFile = false

	h, err := NewBuilder("app").Config(cfg).Build()
	require.NoError(t, err)
	defer h.Dispose()

	cfg.BufferSize = 99
	assert.Equal(t, int64(3), h.cfg.BufferSize, "builder holds its own copy")
}

func TestBuilderInjectedSinks(t *testing.T) {
	store := createTestStore(t, "app")
	worker := createTestWorker(t)

	h, err := NewBuilder("app").
		SavePath(t.TempDir()).
		Store(store).
		Worker(worker).
		Build()
	require.NoError(t, err)
	waitFileReady(t, h)

	assert.Same(t, store, h.store)
	assert.Same(t, worker, h.worker)
}

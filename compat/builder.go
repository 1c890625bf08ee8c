package compat

import (
	"fmt"

	persistent "github.com/kovalenko-tech/talker-persistent"
)

// Builder provides a flexible way to create configured history adapters for
// gnet, fasthttp and fiber. It can use an existing *persistent.PersistentHistory
// instance or create a new one for a stream.
type Builder struct {
	history  *persistent.PersistentHistory
	streamID string
	savePath string
	cfg      *persistent.Config
	err      error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithHistory specifies an existing history to use for the adapters
// Recommended for applications that already have a central history instance
// If this is set WithStream is ignored
func (b *Builder) WithHistory(h *persistent.PersistentHistory) *Builder {
	if h == nil {
		b.err = fmt.Errorf("persistent/compat: provided history cannot be nil")
		return b
	}
	b.history = h
	return b
}

// WithStream provides stream parameters for a new history instance
// This is used only if an existing history is NOT provided via WithHistory
func (b *Builder) WithStream(streamID, savePath string, cfg *persistent.Config) *Builder {
	b.streamID = streamID
	b.savePath = savePath
	b.cfg = cfg
	return b
}

// getHistory resolves the history to be used, creating one if necessary
func (b *Builder) getHistory() (*persistent.PersistentHistory, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.history != nil {
		return b.history, nil
	}
	if b.streamID == "" {
		return nil, fmt.Errorf("persistent/compat: no history or stream provided")
	}

	// Cache the newly created history for subsequent builds with this builder
	b.history = persistent.New(b.streamID, b.savePath, b.cfg)
	return b.history, nil
}

// BuildGnet creates a gnet-compatible logger adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	h, err := b.getHistory()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(h, opts...), nil
}

// BuildFastHTTP creates a fasthttp-compatible logger adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	h, err := b.getHistory()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(h, opts...), nil
}

// BuildFiber creates a fiber-compatible logger adapter
func (b *Builder) BuildFiber() (*FiberAdapter, error) {
	h, err := b.getHistory()
	if err != nil {
		return nil, err
	}
	return NewFiberAdapter(h), nil
}

// Package memory provides an ephemeral in-process adapter backed by a
// concurrent map. Contents live exactly as long as the owning store.
package memory

import (
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/stashkv/stash/lib/adapter"
)

// Options configures the memory adapter.
type Options struct {
	// SizeHint pre-sizes the map for the expected number of keys (0 = none).
	SizeHint int
}

type memoryAdapter struct {
	opts Options
	data *xsync.MapOf[string, []byte]
}

// New creates a memory adapter. Pass nil options for defaults.
func New(opts *Options) adapter.Adapter {
	if opts == nil {
		opts = &Options{}
	}
	return &memoryAdapter{opts: *opts}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see adapter/interface.go)
// --------------------------------------------------------------------------

func (m *memoryAdapter) Setup() error {
	if m.opts.SizeHint > 0 {
		m.data = xsync.NewMapOf[string, []byte](xsync.WithPresize(m.opts.SizeHint))
	} else {
		m.data = xsync.NewMapOf[string, []byte]()
	}
	return nil
}

func (m *memoryAdapter) Teardown(_ string) error {
	m.data = nil
	return nil
}

func (m *memoryAdapter) Fetch(key string) ([]byte, bool, error) {
	value, ok := m.data.Load(key)
	if !ok {
		return nil, false, nil
	}
	// copy so callers can never mutate stored bytes
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (m *memoryAdapter) Put(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data.Store(key, stored)
	return nil
}

func (m *memoryAdapter) Delete(key string) error {
	m.data.Delete(key)
	return nil
}

func (m *memoryAdapter) Pairs() ([]adapter.Pair, error) {
	pairs := make([]adapter.Pair, 0, m.data.Size())
	m.data.Range(func(key string, value []byte) bool {
		out := make([]byte, len(value))
		copy(out, value)
		pairs = append(pairs, adapter.Pair{Key: key, Value: out})
		return true
	})
	return pairs, nil
}

func (m *memoryAdapter) SupportsFeature(feature adapter.Feature) bool {
	supported := adapter.FeatureFetch |
		adapter.FeaturePut |
		adapter.FeatureDelete |
		adapter.FeatureEnumerate
	return supported&feature == feature
}

func (m *memoryAdapter) Info() adapter.Info {
	meta := &struct {
		Entries int `json:"entries"`
	}{}
	if m.data != nil {
		meta.Entries = m.data.Size()
	}
	return adapter.Info{
		Name:       "memory",
		Enumerable: true,
		Metadata:   meta,
	}
}

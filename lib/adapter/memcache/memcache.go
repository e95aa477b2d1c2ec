// Package memcache provides a networked-cache adapter speaking the memcached
// protocol. The cache cannot iterate its key space, so the adapter does not
// declare the enumeration capability; enumeration operations on a store
// backed by it fail with a NotEnumerable condition.
package memcache

import (
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stashkv/stash/lib/adapter"
)

// Options configures the memcache adapter.
type Options struct {
	// Endpoints are the memcached server addresses (host:port). Required.
	Endpoints []string
	// Timeout is the per-operation socket timeout (0 = client default).
	Timeout time.Duration
}

type memcacheAdapter struct {
	opts   Options
	client *memcache.Client
}

// New creates a memcache adapter for the given servers.
func New(opts Options) adapter.Adapter {
	return &memcacheAdapter{opts: opts}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see adapter/interface.go)
// --------------------------------------------------------------------------

func (a *memcacheAdapter) Setup() error {
	if len(a.opts.Endpoints) == 0 {
		return fmt.Errorf("memcache: no endpoints given")
	}

	client := memcache.New(a.opts.Endpoints...)
	if a.opts.Timeout > 0 {
		client.Timeout = a.opts.Timeout
	}

	// fail at store start rather than on the first primitive call
	if err := client.Ping(); err != nil {
		return fmt.Errorf("memcache: ping %v: %w", a.opts.Endpoints, err)
	}

	a.client = client
	return nil
}

func (a *memcacheAdapter) Teardown(_ string) error {
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

func (a *memcacheAdapter) Fetch(key string) ([]byte, bool, error) {
	item, err := a.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("memcache: fetch %q: %w", key, err)
	}
	return item.Value, true, nil
}

func (a *memcacheAdapter) Put(key string, value []byte) error {
	if err := a.client.Set(&memcache.Item{Key: key, Value: value}); err != nil {
		return fmt.Errorf("memcache: put %q: %w", key, err)
	}
	return nil
}

func (a *memcacheAdapter) Delete(key string) error {
	err := a.client.Delete(key)
	// deleting an absent key is a successful no-op
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return fmt.Errorf("memcache: delete %q: %w", key, err)
	}
	return nil
}

// PutIfAbsent uses the cache's native atomic "add" command.
func (a *memcacheAdapter) PutIfAbsent(key string, value []byte) (bool, error) {
	err := a.client.Add(&memcache.Item{Key: key, Value: value})
	if errors.Is(err, memcache.ErrNotStored) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("memcache: put-if-absent %q: %w", key, err)
	}
	return true, nil
}

func (a *memcacheAdapter) SupportsFeature(feature adapter.Feature) bool {
	supported := adapter.FeatureFetch |
		adapter.FeaturePut |
		adapter.FeatureDelete
	return supported&feature == feature
}

func (a *memcacheAdapter) Info() adapter.Info {
	meta := &struct {
		Endpoints []string `json:"endpoints"`
	}{
		Endpoints: a.opts.Endpoints,
	}
	return adapter.Info{
		Name:       "memcache",
		Enumerable: false,
		Metadata:   meta,
	}
}

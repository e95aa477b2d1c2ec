package memcache_test

import (
	"os"
	"strings"
	"testing"

	mc "github.com/bradfitz/gomemcache/memcache"

	"github.com/stashkv/stash/lib/adapter"
	"github.com/stashkv/stash/lib/adapter/memcache"
	adaptertesting "github.com/stashkv/stash/lib/adapter/testing"
	"github.com/stashkv/stash/lib/store"
	storetesting "github.com/stashkv/stash/lib/store/testing"
)

// endpoints returns the memcached servers to test against, or skips the
// test. Set STASH_TEST_MEMCACHE to a comma separated server list to enable
// the suite, e.g. STASH_TEST_MEMCACHE=localhost:11211.
func endpoints(t *testing.T) []string {
	t.Helper()
	env := os.Getenv("STASH_TEST_MEMCACHE")
	if env == "" {
		t.Skip("STASH_TEST_MEMCACHE not set, skipping memcache suite")
	}
	return strings.Split(env, ",")
}

// flush empties the shared memcached instance so residue from earlier runs
// cannot leak into the suites, which expect a clean namespace per store.
func flush(t *testing.T, servers []string) {
	t.Helper()
	if err := mc.New(servers...).FlushAll(); err != nil {
		t.Fatalf("flushing memcached failed: %v", err)
	}
}

func TestMemcacheAdapter(t *testing.T) {
	servers := endpoints(t)
	adaptertesting.RunAdapterTests(t, "memcache", func() adapter.Adapter {
		flush(t, servers)
		return memcache.New(memcache.Options{Endpoints: servers})
	})
}

func TestMemcacheStore(t *testing.T) {
	servers := endpoints(t)
	storetesting.RunStoreTests(t, "memcache", func(t *testing.T, opts store.Options) store.IStore {
		flush(t, servers)
		s, err := store.NewStore(memcache.New(memcache.Options{Endpoints: servers}), opts)
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		return s
	})
}

func TestMemcacheRequiresEndpoints(t *testing.T) {
	if err := memcache.New(memcache.Options{}).Setup(); err == nil {
		t.Errorf("expected setup to fail without endpoints")
	}
}

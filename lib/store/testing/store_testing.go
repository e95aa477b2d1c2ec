// Package testing provides a standardized behavior suite for stores. It
// exercises the full derived operation set against an arbitrary backend and
// is run by every adapter package from its own tests.
package testing

import (
	"bytes"
	"testing"
	"time"

	"github.com/stashkv/stash/lib/store"
)

// StoreFactory creates a running store with the given options. The suite
// closes the store via t.Cleanup. Backends with persistent state must hand
// out an empty namespace per call (fresh file, fresh table).
type StoreFactory func(t *testing.T, opts store.Options) store.IStore

// RunStoreTests runs the full store behavior suite.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("RoundTrip", func(t *testing.T) {
			testRoundTrip(t, factory)
		})
		t.Run("DeleteIdempotence", func(t *testing.T) {
			testDeleteIdempotence(t, factory)
		})
		t.Run("GetDefault", func(t *testing.T) {
			testGetDefault(t, factory)
		})
		t.Run("StrictMisses", func(t *testing.T) {
			testStrictMisses(t, factory)
		})
		t.Run("PutNew", func(t *testing.T) {
			testPutNew(t, factory)
		})
		t.Run("Replace", func(t *testing.T) {
			testReplace(t, factory)
		})
		t.Run("Update", func(t *testing.T) {
			testUpdate(t, factory)
		})
		t.Run("GetAndUpdate", func(t *testing.T) {
			testGetAndUpdate(t, factory)
		})
		t.Run("Pop", func(t *testing.T) {
			testPop(t, factory)
		})
		t.Run("DropTakeSplit", func(t *testing.T) {
			testDropTakeSplit(t, factory)
		})
		t.Run("Bump", func(t *testing.T) {
			testBump(t, factory)
		})
		t.Run("Expiry", func(t *testing.T) {
			testExpiry(t, factory)
		})
		t.Run("DefaultTTL", func(t *testing.T) {
			testDefaultTTL(t, factory)
		})
		t.Run("InitialSeed", func(t *testing.T) {
			testInitialSeed(t, factory)
		})
		t.Run("Enumeration", func(t *testing.T) {
			testEnumeration(t, factory)
		})
		t.Run("Closed", func(t *testing.T) {
			testClosed(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func newStore(t *testing.T, factory StoreFactory, opts store.Options) store.IStore {
	t.Helper()
	s := factory(t, opts)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func mustPut(t *testing.T, s store.IStore, key, value string) {
	t.Helper()
	if err := s.Put(key, []byte(value)); err != nil {
		t.Fatalf("Put(%s) failed: %v", key, err)
	}
}

func wantValue(t *testing.T, s store.IStore, key, want string) {
	t.Helper()
	value, loaded, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", key, err)
	}
	if !loaded {
		t.Fatalf("Get(%s): expected key to exist", key)
	}
	if string(value) != want {
		t.Errorf("Get(%s) = %s, want %s", key, value, want)
	}
}

func wantMiss(t *testing.T, s store.IStore, key string) {
	t.Helper()
	_, loaded, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", key, err)
	}
	if loaded {
		t.Errorf("Get(%s): expected a miss", key)
	}
}

func wantCode(t *testing.T, err error, code store.RetCode) {
	t.Helper()
	if store.CodeOf(err) != code {
		t.Errorf("expected condition %s, got %v", code, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testRoundTrip(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	mustPut(t, s, "round-key", "round-value")
	wantValue(t, s, "round-key", "round-value")

	mustPut(t, s, "round-key", "updated-value")
	wantValue(t, s, "round-key", "updated-value")
}

func testDeleteIdempotence(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	mustPut(t, s, "del-key", "v")
	if err := s.Delete("del-key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	wantMiss(t, s, "del-key")

	if err := s.Delete("del-key"); err != nil {
		t.Errorf("Delete of absent key should succeed, got %v", err)
	}
}

func testGetDefault(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	// GetDefault equals the default exactly when Get misses
	value, err := s.GetDefault("missing", []byte("fallback"))
	if err != nil {
		t.Fatalf("GetDefault failed: %v", err)
	}
	if string(value) != "fallback" {
		t.Errorf("GetDefault on miss = %s, want fallback", value)
	}

	mustPut(t, s, "present", "actual")
	value, err = s.GetDefault("present", []byte("fallback"))
	if err != nil {
		t.Fatalf("GetDefault failed: %v", err)
	}
	if string(value) != "actual" {
		t.Errorf("GetDefault on hit = %s, want actual", value)
	}
}

func testStrictMisses(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	_, err := s.GetStrict("missing")
	wantCode(t, err, store.RetCKeyRequired)

	err = s.ReplaceStrict("missing", []byte("v"))
	wantCode(t, err, store.RetCKeyRequired)
	wantMiss(t, s, "missing")

	err = s.UpdateStrict("missing", func(v []byte) []byte { return v })
	wantCode(t, err, store.RetCKeyRequired)

	_, err = s.GetAndUpdateStrict("missing", func(v []byte, loaded bool) ([]byte, []byte, bool) {
		t.Errorf("closure must not run on an absent key")
		return nil, nil, false
	})
	wantCode(t, err, store.RetCKeyRequired)
}

func testPutNew(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	if err := s.PutNew("new-key", []byte("first")); err != nil {
		t.Fatalf("PutNew failed: %v", err)
	}
	wantValue(t, s, "new-key", "first")

	// a second PutNew is a silent no-op
	if err := s.PutNew("new-key", []byte("second")); err != nil {
		t.Fatalf("PutNew failed: %v", err)
	}
	wantValue(t, s, "new-key", "first")

	// the thunk only runs on a miss
	invoked := false
	if err := s.PutNewLazy("new-key", func() []byte {
		invoked = true
		return []byte("lazy")
	}); err != nil {
		t.Fatalf("PutNewLazy failed: %v", err)
	}
	if invoked {
		t.Errorf("thunk was invoked although the key exists")
	}
	wantValue(t, s, "new-key", "first")

	if err := s.PutNewLazy("lazy-key", func() []byte { return []byte("lazy") }); err != nil {
		t.Fatalf("PutNewLazy failed: %v", err)
	}
	wantValue(t, s, "lazy-key", "lazy")
}

func testReplace(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	// Replace on an absent key is a no-op
	if err := s.Replace("absent", []byte("v")); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	wantMiss(t, s, "absent")

	mustPut(t, s, "present", "old")
	if err := s.Replace("present", []byte("new")); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	wantValue(t, s, "present", "new")

	if err := s.ReplaceStrict("present", []byte("newer")); err != nil {
		t.Fatalf("ReplaceStrict failed: %v", err)
	}
	wantValue(t, s, "present", "newer")
}

func testUpdate(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	appendBang := func(v []byte) []byte { return append(v, '!') }

	// absent: the initial value is stored, fn is not applied
	if err := s.Update("upd-key", []byte("init"), appendBang); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	wantValue(t, s, "upd-key", "init")

	// present: fn(current) is stored
	if err := s.Update("upd-key", []byte("init"), appendBang); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	wantValue(t, s, "upd-key", "init!")

	if err := s.UpdateStrict("upd-key", appendBang); err != nil {
		t.Fatalf("UpdateStrict failed: %v", err)
	}
	wantValue(t, s, "upd-key", "init!!")
}

func testGetAndUpdate(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	// absent key is treated as present-with-nil
	ret, err := s.GetAndUpdate("gau-key", func(v []byte, loaded bool) ([]byte, []byte, bool) {
		if loaded || v != nil {
			t.Errorf("expected absent key to yield (nil, false), got (%s, %v)", v, loaded)
		}
		return []byte("returned"), []byte("stored"), false
	})
	if err != nil {
		t.Fatalf("GetAndUpdate failed: %v", err)
	}
	if string(ret) != "returned" {
		t.Errorf("GetAndUpdate = %s, want returned", ret)
	}
	wantValue(t, s, "gau-key", "stored")

	// pop marker deletes the key and yields the previous value
	ret, err = s.GetAndUpdate("gau-key", func(v []byte, loaded bool) ([]byte, []byte, bool) {
		return nil, nil, true
	})
	if err != nil {
		t.Fatalf("GetAndUpdate failed: %v", err)
	}
	if string(ret) != "stored" {
		t.Errorf("pop yielded %s, want stored", ret)
	}
	wantMiss(t, s, "gau-key")

	// pop marker on an absent key yields nil
	ret, err = s.GetAndUpdate("gau-key", func(v []byte, loaded bool) ([]byte, []byte, bool) {
		return nil, nil, true
	})
	if err != nil {
		t.Fatalf("GetAndUpdate failed: %v", err)
	}
	if ret != nil {
		t.Errorf("pop on absent key yielded %s, want nil", ret)
	}
}

func testPop(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	// a miss leaves the store untouched
	_, loaded, err := s.Pop("pop-key")
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if loaded {
		t.Errorf("expected Pop on absent key to report a miss")
	}

	value, err := s.PopDefault("pop-key", []byte("fallback"))
	if err != nil {
		t.Fatalf("PopDefault failed: %v", err)
	}
	if string(value) != "fallback" {
		t.Errorf("PopDefault on miss = %s, want fallback", value)
	}

	mustPut(t, s, "pop-key", "gone-soon")
	value, loaded, err = s.Pop("pop-key")
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if !loaded || string(value) != "gone-soon" {
		t.Errorf("Pop = (%s, %v), want (gone-soon, true)", value, loaded)
	}
	wantMiss(t, s, "pop-key")
}

func testDropTakeSplit(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	for _, key := range []string{"a", "b", "c"} {
		mustPut(t, s, key, "value-"+key)
	}

	taken, err := s.Take([]string{"a", "b", "nope"})
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if len(taken) != 2 || string(taken["a"]) != "value-a" || string(taken["b"]) != "value-b" {
		t.Errorf("Take = %v, want a and b", taken)
	}
	// Take does not remove
	wantValue(t, s, "a", "value-a")

	taken, err = s.Split([]string{"a", "nope"})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(taken) != 1 || string(taken["a"]) != "value-a" {
		t.Errorf("Split = %v, want only a", taken)
	}
	wantMiss(t, s, "a")
	wantValue(t, s, "b", "value-b")

	if err := s.Drop([]string{"b", "c", "nope"}); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	wantMiss(t, s, "b")
	wantMiss(t, s, "c")
}

func testBump(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{
		Initial: map[string][]byte{
			"a": []byte("1"),
			"c": []byte("foo"),
		},
	})

	// integer value: old + amount
	status, err := s.Bump("a", 1)
	if err != nil {
		t.Fatalf("Bump failed: %v", err)
	}
	if status != store.BumpOK {
		t.Errorf("Bump status = %s, want OK", status)
	}
	wantValue(t, s, "a", "2")

	// absent key: zero-initialize then apply
	status, err = s.Bump("b", 2)
	if err != nil {
		t.Fatalf("Bump failed: %v", err)
	}
	if status != store.BumpOK {
		t.Errorf("Bump status = %s, want OK", status)
	}
	wantValue(t, s, "b", "2")

	// non-integer value: tagged error, store unchanged
	status, err = s.Bump("c", 3)
	if err != nil {
		t.Fatalf("Bump failed: %v", err)
	}
	if status != store.BumpValueNotIntegral {
		t.Errorf("Bump status = %s, want ValueNotIntegral", status)
	}
	wantValue(t, s, "c", "foo")

	// increment on a fresh key initializes to 0 then applies the amount
	if err := s.Increment("fresh", 1); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	wantValue(t, s, "fresh", "1")

	// non-strict increment swallows the non-integral case silently
	if err := s.Increment("c", 1); err != nil {
		t.Errorf("Increment on non-integer value must be silent, got %v", err)
	}
	wantValue(t, s, "c", "foo")

	if err := s.Decrement("a", 5); err != nil {
		t.Fatalf("Decrement failed: %v", err)
	}
	wantValue(t, s, "a", "-3")

	// strict variants raise the condition instead
	err = s.IncrementStrict("c", 1)
	wantCode(t, err, store.RetCNotIntegral)

	if err := s.DecrementStrict("b", 1); err != nil {
		t.Fatalf("DecrementStrict failed: %v", err)
	}
	wantValue(t, s, "b", "1")
}

func testExpiry(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	// a short ttl deletes the key
	mustPut(t, s, "short", "v")
	if err := s.Expire("short", 20*time.Millisecond); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	wantMiss(t, s, "short")

	// persist cancels a pending deadline
	mustPut(t, s, "kept", "v")
	if err := s.Expire("kept", 50*time.Millisecond); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if err := s.Persist("kept"); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	wantValue(t, s, "kept", "v")

	// persist on an already persistent key is a no-op
	if err := s.Persist("kept"); err != nil {
		t.Errorf("Persist on persistent key should succeed, got %v", err)
	}

	// re-expire replaces the prior deadline instead of stacking
	mustPut(t, s, "moved", "v")
	if err := s.Expire("moved", 20*time.Millisecond); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if err := s.Expire("moved", 10*time.Second); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	wantValue(t, s, "moved", "v")

	// delete cancels the deadline
	mustPut(t, s, "dropped", "v")
	if err := s.Expire("dropped", 30*time.Millisecond); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if err := s.Delete("dropped"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	mustPut(t, s, "dropped", "reborn")
	time.Sleep(200 * time.Millisecond)
	wantValue(t, s, "dropped", "reborn")

	// PutTTL combines write and deadline in one request
	if err := s.PutTTL("combined", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("PutTTL failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	wantMiss(t, s, "combined")
}

func testDefaultTTL(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{TTL: 20 * time.Millisecond})

	// zero ttl falls back to the store default
	mustPut(t, s, "def-key", "v")
	if err := s.Expire("def-key", 0); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	wantMiss(t, s, "def-key")

	// a plain Put never expires on its own
	mustPut(t, s, "plain", "v")
	time.Sleep(100 * time.Millisecond)
	wantValue(t, s, "plain", "v")

	// without a default ttl and without a per-call ttl the key stays
	noDefault := newStore(t, factory, store.Options{})
	mustPut(t, noDefault, "stay", "v")
	if err := noDefault.Expire("stay", 0); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	wantValue(t, noDefault, "stay", "v")
}

func testInitialSeed(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{
		Initial: map[string][]byte{
			"seed-a": []byte("1"),
			"seed-b": []byte("2"),
		},
	})

	wantValue(t, s, "seed-a", "1")
	wantValue(t, s, "seed-b", "2")
}

func testEnumeration(t *testing.T, factory StoreFactory) {
	s := newStore(t, factory, store.Options{})

	info, err := s.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}

	if !info.Enumerable {
		// negotiation: every enumeration op fails, regardless of contents
		mustPut(t, s, "k", "v")
		if _, err := s.Keys(); store.CodeOf(err) != store.RetCNotEnumerable {
			t.Errorf("Keys on non-enumerable adapter: got %v", err)
		}
		if _, err := s.Values(); store.CodeOf(err) != store.RetCNotEnumerable {
			t.Errorf("Values on non-enumerable adapter: got %v", err)
		}
		if _, err := s.Pairs(); store.CodeOf(err) != store.RetCNotEnumerable {
			t.Errorf("Pairs on non-enumerable adapter: got %v", err)
		}
		if _, err := s.Equal(s); store.CodeOf(err) != store.RetCNotEnumerable {
			t.Errorf("Equal on non-enumerable adapter: got %v", err)
		}
		return
	}

	seed := map[string][]byte{
		"x": []byte("1"),
		"y": []byte("2"),
		"z": []byte("3"),
	}
	for key, value := range seed {
		mustPut(t, s, key, string(value))
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != len(seed) {
		t.Errorf("Keys returned %d keys, want %d", len(keys), len(seed))
	}

	values, err := s.Values()
	if err != nil {
		t.Fatalf("Values failed: %v", err)
	}
	if len(values) != len(seed) {
		t.Errorf("Values returned %d values, want %d", len(values), len(seed))
	}

	pairs, err := s.Pairs()
	if err != nil {
		t.Fatalf("Pairs failed: %v", err)
	}
	for _, p := range pairs {
		if !bytes.Equal(seed[p.Key], p.Value) {
			t.Errorf("pair %s = %s, want %s", p.Key, p.Value, seed[p.Key])
		}
	}

	// equality is unordered pair-set equality
	other := newStore(t, factory, store.Options{})
	for _, key := range []string{"z", "x", "y"} {
		mustPut(t, other, key, string(seed[key]))
	}

	equal, err := s.Equal(other)
	if err != nil {
		t.Fatalf("Equal failed: %v", err)
	}
	if !equal {
		t.Errorf("stores with identical pairs must be equal")
	}

	mustPut(t, other, "y", "changed")
	equal, err = s.Equal(other)
	if err != nil {
		t.Fatalf("Equal failed: %v", err)
	}
	if equal {
		t.Errorf("stores differing in one value must not be equal")
	}

	mustPut(t, other, "y", string(seed["y"]))
	mustPut(t, other, "extra", "1")
	equal, err = s.Equal(other)
	if err != nil {
		t.Fatalf("Equal failed: %v", err)
	}
	if equal {
		t.Errorf("stores differing in key membership must not be equal")
	}
}

func testClosed(t *testing.T, factory StoreFactory) {
	s := factory(t, store.Options{})

	mustPut(t, s, "k", "v")
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// closing twice is fine
	if err := s.Close(); err != nil {
		t.Errorf("second Close should succeed, got %v", err)
	}

	_, _, err := s.Get("k")
	wantCode(t, err, store.RetCStoreStopped)
	wantCode(t, s.Put("k", []byte("v")), store.RetCStoreStopped)
}

// Package testing provides a standardized conformance suite for backend
// adapters. Implementations of the adapter.Adapter contract run the suite
// from their own package tests via RunAdapterTests.
package testing

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stashkv/stash/lib/adapter"
)

// AdapterFactory creates a fresh, unstarted adapter instance per test.
type AdapterFactory func() adapter.Adapter

// RunAdapterTests runs the conformance suite for an adapter implementation.
func RunAdapterTests(t *testing.T, name string, factory AdapterFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("RequiredFeatures", func(t *testing.T) {
			testRequiredFeatures(t, factory())
		})
		t.Run("PutFetch", func(t *testing.T) {
			testPutFetch(t, setup(t, factory))
		})
		t.Run("FetchMiss", func(t *testing.T) {
			testFetchMiss(t, setup(t, factory))
		})
		t.Run("DeleteIdempotent", func(t *testing.T) {
			testDeleteIdempotent(t, setup(t, factory))
		})
		t.Run("ValueIsolation", func(t *testing.T) {
			testValueIsolation(t, setup(t, factory))
		})
		t.Run("Enumerate", func(t *testing.T) {
			testEnumerate(t, setup(t, factory))
		})
		t.Run("PutIfAbsent", func(t *testing.T) {
			testPutIfAbsent(t, setup(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// setup runs the adapter's setup routine and registers teardown
func setup(t *testing.T, factory AdapterFactory) adapter.Adapter {
	t.Helper()

	a := factory()
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() {
		if err := a.Teardown("test finished"); err != nil {
			t.Errorf("Teardown failed: %v", err)
		}
	})
	return a
}

// requireFeature skips the test if the adapter lacks the feature
func requireFeature(t testing.TB, a adapter.Adapter, feature adapter.Feature) {
	if !a.SupportsFeature(feature) {
		t.Skip()
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testRequiredFeatures(t *testing.T, a adapter.Adapter) {
	if !a.SupportsFeature(adapter.RequiredFeatures) {
		t.Errorf("adapter %q must support Fetch, Put and Delete", a.Info().Name)
	}

	info := a.Info()
	if info.Enumerable != a.SupportsFeature(adapter.FeatureEnumerate) {
		t.Errorf("Info().Enumerable disagrees with SupportsFeature(FeatureEnumerate)")
	}
}

func testPutFetch(t *testing.T, a adapter.Adapter) {
	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	if err := a.Put(testKey, testValue1); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	result, found, err := a.Fetch(testKey)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !found {
		t.Errorf("Expected key %s to exist after Put", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	// Put replaces unconditionally
	if err := a.Put(testKey, testValue2); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	result, found, err = a.Fetch(testKey)
	if err != nil || !found {
		t.Fatalf("Fetch after overwrite failed: found=%v err=%v", found, err)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}
}

func testFetchMiss(t *testing.T, a adapter.Adapter) {
	_, found, err := a.Fetch("nonexistent-key")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if found {
		t.Errorf("Expected nonexistent key to return found=false")
	}
}

func testDeleteIdempotent(t *testing.T, a adapter.Adapter) {
	testKey := "delete-key"

	if err := a.Put(testKey, []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := a.Delete(testKey); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, found, err := a.Fetch(testKey)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if found {
		t.Errorf("Expected key %s to be gone after Delete", testKey)
	}

	// deleting an absent key succeeds
	if err := a.Delete(testKey); err != nil {
		t.Errorf("Delete of absent key should succeed, got %v", err)
	}
	if err := a.Delete("never-existed"); err != nil {
		t.Errorf("Delete of never-existing key should succeed, got %v", err)
	}
}

func testValueIsolation(t *testing.T, a adapter.Adapter) {
	testKey := "isolation-key"

	original := []byte("original")
	if err := a.Put(testKey, original); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// mutating the slice passed to Put must not affect the stored value
	original[0] = 'X'

	stored, _, err := a.Fetch(testKey)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !bytes.Equal(stored, []byte("original")) {
		t.Errorf("Put must copy its input, stored value changed to %s", stored)
	}

	// mutating a fetched slice must not affect the stored value
	stored[0] = 'Y'
	again, _, err := a.Fetch(testKey)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !bytes.Equal(again, []byte("original")) {
		t.Errorf("Fetch must return a copy, stored value changed to %s", again)
	}
}

func testEnumerate(t *testing.T, a adapter.Adapter) {
	requireFeature(t, a, adapter.FeatureEnumerate)

	en, ok := a.(adapter.Enumerator)
	if !ok {
		t.Fatalf("adapter declares FeatureEnumerate but does not implement Enumerator")
	}

	want := map[string][]byte{}
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("enum-key-%d", i)
		value := []byte(fmt.Sprintf("enum-value-%d", i))
		want[key] = value
		if err := a.Put(key, value); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	pairs, err := en.Pairs()
	if err != nil {
		t.Fatalf("Pairs failed: %v", err)
	}
	if len(pairs) != len(want) {
		t.Errorf("Expected %d pairs, got %d", len(want), len(pairs))
	}
	for _, p := range pairs {
		if !bytes.Equal(want[p.Key], p.Value) {
			t.Errorf("Pair %s has value %s, want %s", p.Key, p.Value, want[p.Key])
		}
	}
}

func testPutIfAbsent(t *testing.T, a adapter.Adapter) {
	cp, ok := a.(adapter.ConditionalPutter)
	if !ok {
		t.Skip()
	}

	testKey := "absent-key"

	stored, err := cp.PutIfAbsent(testKey, []byte("first"))
	if err != nil {
		t.Fatalf("PutIfAbsent failed: %v", err)
	}
	if !stored {
		t.Errorf("Expected first PutIfAbsent to store")
	}

	stored, err = cp.PutIfAbsent(testKey, []byte("second"))
	if err != nil {
		t.Fatalf("PutIfAbsent failed: %v", err)
	}
	if stored {
		t.Errorf("Expected second PutIfAbsent to be a no-op")
	}

	value, _, err := a.Fetch(testKey)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !bytes.Equal(value, []byte("first")) {
		t.Errorf("Expected original value to survive, got %s", value)
	}
}

package store

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistryRegisterResolve(t *testing.T) {
	reg := NewRegistry()
	_, s := mustStore(t, Options{})

	if err := reg.Register("sessions", s); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	resolved, ok := reg.Resolve("sessions")
	if !ok || resolved != s {
		t.Errorf("Resolve returned a different handle")
	}

	if _, ok := reg.Resolve("unknown"); ok {
		t.Errorf("Resolve of an unknown name must report false")
	}
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()
	_, first := mustStore(t, Options{})
	_, second := mustStore(t, Options{})

	if err := reg.Register("cache", first); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := reg.Register("cache", second); CodeOf(err) != RetCUnsupportedOperation {
		t.Errorf("expected duplicate registration to fail, got %v", err)
	}

	// the original binding stays intact
	resolved, _ := reg.Resolve("cache")
	if resolved != first {
		t.Errorf("duplicate registration displaced the original binding")
	}
}

func TestRegistryDeregister(t *testing.T) {
	reg := NewRegistry()
	_, s := mustStore(t, Options{})

	if err := reg.Register("tmp", s); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	removed, ok := reg.Deregister("tmp")
	if !ok || removed != s {
		t.Errorf("Deregister must hand back the bound store")
	}
	if _, ok := reg.Resolve("tmp"); ok {
		t.Errorf("deregistered name must not resolve")
	}

	// the handle itself is untouched, closing is the caller's call
	if err := removed.Put("k", []byte("v")); err != nil {
		t.Errorf("deregistered store must keep serving: %v", err)
	}

	if _, ok := reg.Deregister("tmp"); ok {
		t.Errorf("second Deregister must report false")
	}
}

func TestRegistryCloseAll(t *testing.T) {
	reg := NewRegistry()

	handles := make([]IStore, 0, 3)
	for i := 0; i < 3; i++ {
		mock := newMockAdapter()
		s, err := NewStore(mock, Options{})
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		handles = append(handles, s)
		if err := reg.Register(fmt.Sprintf("store-%d", i), s); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	if err := reg.CloseAll(); err != nil {
		t.Fatalf("CloseAll failed: %v", err)
	}

	for i, s := range handles {
		if err := s.Put("k", []byte("v")); CodeOf(err) != RetCStoreStopped {
			t.Errorf("store %d still serving after CloseAll: %v", i, err)
		}
		if _, ok := reg.Resolve(fmt.Sprintf("store-%d", i)); ok {
			t.Errorf("store %d still resolvable after CloseAll", i)
		}
	}
}

func TestRegistryConcurrentUse(t *testing.T) {
	reg := NewRegistry()
	_, s := mustStore(t, Options{})
	if err := reg.Register("shared", s); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if _, ok := reg.Resolve("shared"); !ok {
					t.Errorf("worker %d lost the shared binding", w)
					return
				}
			}
		}(w)
	}
	wg.Wait()
}

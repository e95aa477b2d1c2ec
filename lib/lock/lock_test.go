package lock_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stashkv/stash/lib/adapter/memory"
	"github.com/stashkv/stash/lib/lock"
	"github.com/stashkv/stash/lib/store"
)

func newLockStore(t *testing.T) store.IStore {
	t.Helper()
	s, err := store.NewStore(memory.New(nil), store.Options{})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestAcquireRelease(t *testing.T) {
	s := newLockStore(t)
	locks := lock.NewLockManager(s)

	ok, ownerID, err := locks.AcquireLock("resource", 0)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if !ok || len(ownerID) == 0 {
		t.Fatalf("expected the lock to be acquired with an owner ID")
	}

	released, err := locks.ReleaseLock("resource", ownerID)
	if err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if !released {
		t.Errorf("expected the owner to release its lock")
	}

	// the resource is free again
	ok, _, err = locks.AcquireLock("resource", 0)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if !ok {
		t.Errorf("expected the released lock to be acquirable")
	}
}

func TestAcquireHeldLock(t *testing.T) {
	s := newLockStore(t)
	locks := lock.NewLockManager(s)

	ok, first, err := locks.AcquireLock("resource", 0)
	if err != nil || !ok {
		t.Fatalf("AcquireLock = (%v, %v)", ok, err)
	}

	ok, second, err := locks.AcquireLock("resource", 0)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if ok || second != nil {
		t.Errorf("a held lock must not be acquirable")
	}

	// the losing attempt must not have disturbed the holder
	value, found, err := s.Get("resource")
	if err != nil || !found {
		t.Fatalf("Get = (%v, %v)", found, err)
	}
	if !bytes.Equal(value, first) {
		t.Errorf("losing acquisition overwrote the holder's owner ID")
	}
}

func TestReleaseRequiresOwnership(t *testing.T) {
	s := newLockStore(t)
	locks := lock.NewLockManager(s)

	ok, ownerID, err := locks.AcquireLock("resource", 0)
	if err != nil || !ok {
		t.Fatalf("AcquireLock = (%v, %v)", ok, err)
	}

	released, err := locks.ReleaseLock("resource", []byte("not-the-owner"))
	if err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if released {
		t.Errorf("a non-owner must not release the lock")
	}

	// the legitimate owner still can
	released, err = locks.ReleaseLock("resource", ownerID)
	if err != nil || !released {
		t.Errorf("ReleaseLock = (%v, %v), want (true, nil)", released, err)
	}
}

func TestReleaseAbsentLock(t *testing.T) {
	s := newLockStore(t)
	locks := lock.NewLockManager(s)

	released, err := locks.ReleaseLock("never-held", []byte("whatever"))
	if err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if !released {
		t.Errorf("releasing an absent lock must report true")
	}
}

func TestLockTimeout(t *testing.T) {
	s := newLockStore(t)
	locks := lock.NewLockManager(s)

	ok, _, err := locks.AcquireLock("resource", 30*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("AcquireLock = (%v, %v)", ok, err)
	}

	time.Sleep(200 * time.Millisecond)

	// the timeout released the lock without an explicit release
	ok, _, err = locks.AcquireLock("resource", 0)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if !ok {
		t.Errorf("expected the lock to expire after its timeout")
	}
}

// two managers on the same store coordinate the same locks
func TestManagersShareState(t *testing.T) {
	s := newLockStore(t)
	first := lock.NewLockManager(s)
	second := lock.NewLockManager(s)

	ok, ownerID, err := first.AcquireLock("resource", 0)
	if err != nil || !ok {
		t.Fatalf("AcquireLock = (%v, %v)", ok, err)
	}

	ok, _, err = second.AcquireLock("resource", 0)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if ok {
		t.Errorf("a second manager on the same store must see the held lock")
	}

	released, err := second.ReleaseLock("resource", ownerID)
	if err != nil || !released {
		t.Errorf("ReleaseLock = (%v, %v), want (true, nil)", released, err)
	}
}

func TestConcurrentAcquisition(t *testing.T) {
	s := newLockStore(t)

	const contenders = 16
	winners := 0

	var mu sync.Mutex
	var wg sync.WaitGroup
	for c := 0; c < contenders; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks := lock.NewLockManager(s)
			ok, _, err := locks.AcquireLock("resource", 0)
			if err != nil {
				t.Errorf("AcquireLock failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("%d contenders acquired the lock, want exactly 1", winners)
	}
}

package store

import (
	"sync"
	"testing"
	"time"
)

// fireCollector records keys the engine submits for reaping
type fireCollector struct {
	mu    sync.Mutex
	fired []string
	wake  chan struct{}
}

func newFireCollector() *fireCollector {
	return &fireCollector{wake: make(chan struct{}, 64)}
}

func (c *fireCollector) submit(key string) {
	c.mu.Lock()
	c.fired = append(c.fired, key)
	c.mu.Unlock()
	c.wake <- struct{}{}
}

func (c *fireCollector) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.fired...)
}

// waitFired blocks until n keys fired or the deadline elapses
func (c *fireCollector) waitFired(t *testing.T, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		c.mu.Lock()
		count := len(c.fired)
		c.mu.Unlock()
		if count >= n {
			return
		}
		select {
		case <-c.wake:
		case <-deadline:
			t.Fatalf("timed out waiting for %d fires, got %d", n, count)
		}
	}
}

func newTestEngine(t *testing.T) (*expiryEngine, *fireCollector) {
	t.Helper()
	c := newFireCollector()
	e := newExpiryEngine(c.submit)
	t.Cleanup(e.shutdown)
	return e, c
}

func TestExpiryEngineFiresDueKeys(t *testing.T) {
	e, c := newTestEngine(t)

	e.schedule("soon", time.Now().Add(20*time.Millisecond))
	e.schedule("later", time.Now().Add(60*time.Millisecond))

	c.waitFired(t, 2, 2*time.Second)
	fired := c.keys()
	if fired[0] != "soon" || fired[1] != "later" {
		t.Errorf("fired = %v, want [soon later]", fired)
	}
	if e.pending("soon") || e.pending("later") {
		t.Errorf("fired keys must no longer be pending")
	}
}

func TestExpiryEngineCancel(t *testing.T) {
	e, c := newTestEngine(t)

	e.schedule("doomed", time.Now().Add(30*time.Millisecond))
	e.schedule("saved", time.Now().Add(30*time.Millisecond))

	if !e.cancel("saved") {
		t.Errorf("cancel of a pending key must report true")
	}
	if e.cancel("saved") {
		t.Errorf("cancel of an absent key must report false")
	}

	c.waitFired(t, 1, 2*time.Second)
	time.Sleep(100 * time.Millisecond)

	for _, key := range c.keys() {
		if key == "saved" {
			t.Errorf("cancelled key fired anyway")
		}
	}
}

// scheduling an earlier deadline while the loop sleeps on a later one must
// wake the loop and fire the earlier key first
func TestExpiryEngineReschedulesEarlier(t *testing.T) {
	e, c := newTestEngine(t)

	e.schedule("late", time.Now().Add(10*time.Second))
	time.Sleep(20 * time.Millisecond) // let the loop settle on the far deadline
	e.schedule("early", time.Now().Add(20*time.Millisecond))

	c.waitFired(t, 1, 2*time.Second)
	fired := c.keys()
	if fired[0] != "early" {
		t.Errorf("first fire = %s, want early", fired[0])
	}
	if !e.pending("late") {
		t.Errorf("the far deadline must still be pending")
	}
}

func TestExpiryEngineReplaceDeadline(t *testing.T) {
	e, c := newTestEngine(t)

	e.schedule("k", time.Now().Add(20*time.Millisecond))
	e.schedule("k", time.Now().Add(10*time.Second))

	time.Sleep(150 * time.Millisecond)
	if len(c.keys()) != 0 {
		t.Errorf("a replaced deadline fired with the old time: %v", c.keys())
	}
	if !e.pending("k") {
		t.Errorf("the key must still be pending under the new deadline")
	}
}

func TestExpiryEngineShutdownDiscardsPending(t *testing.T) {
	c := newFireCollector()
	e := newExpiryEngine(c.submit)

	e.schedule("k", time.Now().Add(30*time.Millisecond))
	e.shutdown()

	time.Sleep(100 * time.Millisecond)
	if len(c.keys()) != 0 {
		t.Errorf("keys fired after shutdown: %v", c.keys())
	}
}

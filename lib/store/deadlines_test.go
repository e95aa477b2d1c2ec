package store

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
)

func TestDeadlineHeapOrdering(t *testing.T) {
	dh := newDeadlineHeap()
	base := time.Now()

	// insert out of order
	dh.set("c", base.Add(3*time.Second))
	dh.set("a", base.Add(1*time.Second))
	dh.set("b", base.Add(2*time.Second))

	item, ok := dh.peek()
	if !ok || item.key != "a" {
		t.Errorf("peek = %v, want key a", item)
	}

	due := dh.popDue(base.Add(2 * time.Second))
	if len(due) != 2 || due[0] != "a" || due[1] != "b" {
		t.Errorf("popDue = %v, want [a b]", due)
	}
	if dh.Len() != 1 {
		t.Errorf("heap has %d records, want 1", dh.Len())
	}
}

func TestDeadlineHeapReplaceInPlace(t *testing.T) {
	dh := newDeadlineHeap()
	base := time.Now()

	dh.set("a", base.Add(1*time.Second))
	dh.set("b", base.Add(2*time.Second))

	// re-setting a key moves its deadline instead of stacking a second record
	dh.set("a", base.Add(3*time.Second))
	if dh.Len() != 2 {
		t.Fatalf("heap has %d records, want 2", dh.Len())
	}

	item, ok := dh.peek()
	if !ok || item.key != "b" {
		t.Errorf("peek = %v, want key b after moving a back", item)
	}

	due := dh.popDue(base.Add(3 * time.Second))
	if len(due) != 2 || due[0] != "b" || due[1] != "a" {
		t.Errorf("popDue = %v, want [b a]", due)
	}
}

func TestDeadlineHeapRemove(t *testing.T) {
	dh := newDeadlineHeap()
	base := time.Now()

	dh.set("a", base.Add(1*time.Second))
	dh.set("b", base.Add(2*time.Second))

	if !dh.remove("a") {
		t.Errorf("remove of a pending key must report true")
	}
	if dh.remove("a") {
		t.Errorf("remove of an absent key must report false")
	}
	if dh.contains("a") {
		t.Errorf("removed key must not be pending")
	}
	if !dh.contains("b") {
		t.Errorf("unrelated key lost its record")
	}

	due := dh.popDue(base.Add(5 * time.Second))
	if len(due) != 1 || due[0] != "b" {
		t.Errorf("popDue = %v, want [b]", due)
	}
}

func TestDeadlineHeapPopDueEmpty(t *testing.T) {
	dh := newDeadlineHeap()

	if due := dh.popDue(time.Now()); due != nil {
		t.Errorf("popDue on empty heap = %v, want nil", due)
	}

	dh.set("future", time.Now().Add(time.Hour))
	if due := dh.popDue(time.Now()); due != nil {
		t.Errorf("popDue must not return future records, got %v", due)
	}
}

// random churn keeps heap and map views consistent
func TestDeadlineHeapChurn(t *testing.T) {
	dh := newDeadlineHeap()
	base := time.Now()
	rng := rand.New(rand.NewSource(42))

	live := make(map[string]time.Time)
	for i := 0; i < 2000; i++ {
		key := fmt.Sprintf("key-%d", rng.Intn(200))
		switch rng.Intn(3) {
		case 0, 1:
			at := base.Add(time.Duration(rng.Intn(10000)) * time.Millisecond)
			dh.set(key, at)
			live[key] = at
		case 2:
			removed := dh.remove(key)
			if _, want := live[key]; removed != want {
				t.Fatalf("remove(%s) = %v, want %v", key, removed, want)
			}
			delete(live, key)
		}
	}

	if dh.Len() != len(live) {
		t.Fatalf("heap has %d records, map view has %d", dh.Len(), len(live))
	}

	// draining must yield every live key in deadline order
	var prev time.Time
	drained := dh.popDue(base.Add(time.Hour))
	if len(drained) != len(live) {
		t.Fatalf("drained %d records, want %d", len(drained), len(live))
	}
	for _, key := range drained {
		at, ok := live[key]
		if !ok {
			t.Fatalf("drained unknown key %s", key)
		}
		if at.Before(prev) {
			t.Fatalf("drain out of order at key %s", key)
		}
		prev = at
	}
}

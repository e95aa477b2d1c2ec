package store

import (
	"container/heap"
	"time"
)

// This file provides the deadline queue used by the expiry engine: a binary
// min-heap ordered by deadline combined with a hash map for key-based
// access.
//
//   - O(log n) for deadline operations (add, pop, replace)
//   - O(1) for key-based lookups and existence checks
//   - O(log n) for key-based removal (persist, delete)
//
// Setting a deadline for a key that already has one replaces the prior
// deadline in place rather than stacking a second entry.
//
// Not thread-safe; the expiry engine guards it with its own mutex.

// deadlineItem is one pending expiry record
type deadlineItem struct {
	key   string    // the store key this record belongs to
	at    time.Time // absolute deadline
	index int       // index in the heap, maintained by the heap package
}

// deadlineHeap implements the queue with both heap and key-based access
type deadlineHeap struct {
	items []*deadlineItem          // the actual heap slice
	byKey map[string]*deadlineItem // map for O(1) access by key
}

// newDeadlineHeap creates an empty deadline queue
func newDeadlineHeap() *deadlineHeap {
	return &deadlineHeap{
		items: make([]*deadlineItem, 0),
		byKey: make(map[string]*deadlineItem),
	}
}

// Len returns the number of pending records (part of heap.Interface)
func (dh *deadlineHeap) Len() int { return len(dh.items) }

// Less orders records by deadline, earliest first (part of heap.Interface)
func (dh *deadlineHeap) Less(i, j int) bool {
	return dh.items[i].at.Before(dh.items[j].at)
}

// Swap exchanges records at positions i and j (part of heap.Interface)
func (dh *deadlineHeap) Swap(i, j int) {
	dh.items[i], dh.items[j] = dh.items[j], dh.items[i]
	dh.items[i].index = i
	dh.items[j].index = j
}

// Push adds a record to the heap (part of heap.Interface)
func (dh *deadlineHeap) Push(x interface{}) {
	n := len(dh.items)
	item := x.(*deadlineItem)
	item.index = n
	dh.items = append(dh.items, item)
	dh.byKey[item.key] = item
}

// Pop removes and returns the earliest record (part of heap.Interface)
func (dh *deadlineHeap) Pop() interface{} {
	old := dh.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // avoid memory leak
	item.index = -1 // for safety
	dh.items = old[:n-1]
	delete(dh.byKey, item.key)
	return item
}

// set installs or replaces the deadline for a key
func (dh *deadlineHeap) set(key string, at time.Time) {
	if item, exists := dh.byKey[key]; exists {
		// replace deadline and fix heap
		item.at = at
		heap.Fix(dh, item.index)
		return
	}

	heap.Push(dh, &deadlineItem{
		key: key,
		at:  at,
	})
}

// remove cancels the pending record for a key
func (dh *deadlineHeap) remove(key string) bool {
	item, exists := dh.byKey[key]
	if !exists {
		return false
	}

	heap.Remove(dh, item.index)
	return true
}

// peek returns the earliest record without removing it
func (dh *deadlineHeap) peek() (*deadlineItem, bool) {
	if len(dh.items) == 0 {
		return nil, false
	}
	return dh.items[0], true
}

// contains checks if a key has a pending record
func (dh *deadlineHeap) contains(key string) bool {
	_, exists := dh.byKey[key]
	return exists
}

// popDue removes and returns every key whose deadline is at or before now
func (dh *deadlineHeap) popDue(now time.Time) []string {
	var due []string
	for {
		item, ok := dh.peek()
		if !ok || item.at.After(now) {
			return due
		}
		heap.Pop(dh)
		due = append(due, item.key)
	}
}

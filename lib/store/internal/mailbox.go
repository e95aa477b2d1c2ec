// Package internal provides the unbounded mailbox backing each store actor.
//
// The mailbox is a lock-free Multi-Producer Single-Consumer queue:
//
//   - Lock-Free: atomic operations for high throughput even under contention
//   - Unbounded: producers never block, the queue grows as needed
//   - Thread-safe writes: any number of goroutines may Push() concurrently
//   - Single consumer: one goroutine (the actor loop) drains via Recv()
//   - Ordering: items are delivered in the order their Push() completed,
//     which is the arrival order the store guarantees to its callers
package internal

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// node represents a single element in the mailbox
type node[T any] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// Mailbox is a lock-free multi-producer single-consumer queue built from a
// linked list of nodes with atomic pointer operations.
type Mailbox[T any] struct {
	head     atomic.Pointer[node[T]]
	tail     atomic.Pointer[node[T]]
	out      chan *T
	consumer sync.WaitGroup
	closed   atomic.Bool

	// Condition variable so the consumer can wait without spinning
	mu   sync.Mutex
	cond *sync.Cond
}

// NewMailbox creates a new mailbox and starts its internal consumer.
func NewMailbox[T any]() *Mailbox[T] {
	// Sentinel node (dummy node at the beginning)
	sentinel := &node[T]{}

	m := &Mailbox[T]{
		out: make(chan *T),
	}
	m.cond = sync.NewCond(&m.mu)

	m.head.Store(sentinel)
	m.tail.Store(sentinel)

	m.consumer.Add(1)
	go m.consume()

	return m
}

// Push adds an item to the mailbox.
// Returns true if the item was added, or false if the mailbox is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mailbox[T]) Push(value *T) bool {
	if value == nil {
		return false
	}

	if m.closed.Load() {
		return false
	}

	newNode := &node[T]{value: value}

	var tailNode *node[T]
	var backoff uint8 = 0

	for {
		tailNode = m.tail.Load()

		// try to atomically append our node to the current tail
		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// appended; updating tail may be helped by other producers
				m.tail.CompareAndSwap(tailNode, newNode)

				// wake the consumer if it is waiting
				m.mu.Lock()
				m.cond.Signal()
				m.mu.Unlock()

				return true
			}
		} else {
			// help update the tail pointer if another producer appended a
			// node but has not updated the tail yet
			m.tail.CompareAndSwap(tailNode, next)
		}

		// Exponential backoff under contention: spin at low retry counts,
		// yield the processor beyond that
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// consume continuously sends items from the linked list to the output channel and frees memory
func (m *Mailbox[T]) consume() {
	defer m.consumer.Done()
	defer close(m.out)

	for {
		hasItems := false

		for {
			head := m.head.Load()
			next := head.next.Load()

			if next == nil {
				break // no more items available
			}

			hasItems = true

			// capture value before updating pointers
			value := next.value

			// move head pointer (free up memory)
			m.head.Store(next)

			m.out <- value

			// safe to clear after sending
			next.value = nil
		}

		// exit if closed and drained
		if !hasItems && m.closed.Load() {
			return
		}

		if !hasItems {
			m.mu.Lock()
			// double-check condition after acquiring lock
			head := m.head.Load()
			if head.next.Load() == nil && !m.closed.Load() {
				m.cond.Wait()
			}
			m.mu.Unlock()
		}
	}
}

// Recv returns a receive-only channel for consuming from the mailbox.
// The channel is closed once the mailbox is closed and fully drained.
func (m *Mailbox[T]) Recv() <-chan *T {
	return m.out
}

// Close closes the mailbox, preventing further writes.
// Items queued before Close are still delivered to the consumer. A Push
// racing Close may be accepted after the consumer has already exited and
// is then dropped; callers needing a delivery guarantee must bound their
// reply wait on the consumer's lifetime.
func (m *Mailbox[T]) Close() {
	m.closed.Store(true)

	// wake up the consumer if it is waiting
	m.mu.Lock()
	m.cond.Signal()
	m.mu.Unlock()
}

// IsClosed returns true if the mailbox is closed.
func (m *Mailbox[T]) IsClosed() bool {
	return m.closed.Load()
}

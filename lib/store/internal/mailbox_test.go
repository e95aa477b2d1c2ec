package internal

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"
)

// TestBasicOperations tests basic push and receive functionality
func TestBasicOperations(t *testing.T) {
	m := NewMailbox[int]()
	defer m.Close()

	// Push 10 items
	for i := 0; i < 10; i++ {
		if !m.Push(&i) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	// Consume 10 items
	for i := 0; i < 10; i++ {
		select {
		case val := <-m.Recv():
			if *val != i {
				t.Errorf("Expected %d, got %v", i, *val)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for item %d", i)
		}
	}

	// Make sure the mailbox is empty
	select {
	case val := <-m.Recv():
		t.Errorf("Mailbox should be empty, but got %v", val)
	case <-time.After(10 * time.Millisecond):
		// Expected timeout, mailbox is empty
	}
}

// TestNilPushRejected verifies nil items are refused without enqueueing
func TestNilPushRejected(t *testing.T) {
	m := NewMailbox[int]()
	defer m.Close()

	if m.Push(nil) {
		t.Error("Pushing nil should be rejected")
	}
}

// TestConcurrentProducers verifies the mailbox works correctly with multiple producers
func TestConcurrentProducers(t *testing.T) {
	m := NewMailbox[int]()
	defer m.Close()

	const numProducers = 10
	const itemsPerProducer = 1000
	totalItems := numProducers * itemsPerProducer

	// Use a map to track received items
	var mu sync.Mutex
	received := make(map[string]bool)

	// Start a consumer goroutine
	done := make(chan struct{})
	receivedCount := 0

	go func() {
		defer close(done)

		for receivedCount < totalItems {
			select {
			case val := <-m.Recv():

				if val == nil {
					t.Errorf("Received nil item")
					return
				}

				mu.Lock()
				key := fmt.Sprintf("%d", *val)
				if received[key] {
					t.Errorf("Duplicate item received: %d", *val)
				}
				received[key] = true
				receivedCount++
				mu.Unlock()
			case <-time.After(2 * time.Second):
				t.Errorf("Timeout waiting for items, received %d of %d", receivedCount, totalItems)
				return
			}
		}
	}()

	// Start producers
	var wg sync.WaitGroup
	wg.Add(numProducers)

	for p := 0; p < numProducers; p++ {
		go func(producerID int) {
			defer wg.Done()

			base := producerID * itemsPerProducer
			for i := 0; i < itemsPerProducer; i++ {
				val := base + i
				if !m.Push(&val) {
					t.Errorf("Producer %d failed to push item %d", producerID, i)
				}

				// Add some randomness to producer timing
				if i%100 == 0 {
					runtime.Gosched()
				}
			}
		}(p)
	}

	// Wait for all producers to finish
	wg.Wait()

	// Wait for consumer to process all items
	select {
	case <-done:
		// Consumer finished
	case <-time.After(5 * time.Second):
		t.Fatalf("Timeout waiting for consumer to finish")
	}

	// Verify we got all expected items
	if receivedCount != totalItems {
		t.Errorf("Expected %d items, got %d", totalItems, receivedCount)
	}
}

// TestCloseMailbox verifies closing behavior
func TestCloseMailbox(t *testing.T) {
	m := NewMailbox[int]()

	// Push some items
	for i := 0; i < 5; i++ {
		m.Push(&i)
	}

	// Close the mailbox
	m.Close()

	if !m.IsClosed() {
		t.Error("IsClosed should report true after Close")
	}

	// Verify we can't push after closing
	val := 100
	if m.Push(&val) {
		t.Error("Should not be able to push after the mailbox is closed")
	}

	// Verify we can still read queued items
	for i := 0; i < 5; i++ {
		select {
		case val := <-m.Recv():
			if *val != i {
				t.Errorf("Expected %d, got %v", i, *val)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for item %d after close", i)
		}
	}

	// Verify the channel is closed after reading all items
	if _, ok := <-m.Recv(); ok {
		t.Error("Channel should be closed but is still open")
	}
}

// TestOrderingSingleProducer tests that a single producer's items arrive in
// push order, which is the delivery guarantee the store actor relies on
func TestOrderingSingleProducer(t *testing.T) {
	m := NewMailbox[int]()
	defer m.Close()

	const itemCount = 10000
	go func() {
		for i := 0; i < itemCount; i++ {
			m.Push(&i)
		}
	}()

	prev := -1
	for i := 0; i < itemCount; i++ {
		select {
		case val := <-m.Recv():
			if *val <= prev {
				t.Fatalf("Item %d arrived after %d", *val, prev)
			}
			prev = *val
		case <-time.After(1 * time.Second):
			t.Fatalf("Timeout waiting for item %d", i)
		}
	}
}

// BenchmarkSingleProducer benchmarks the mailbox with a single producer
func BenchmarkSingleProducer(b *testing.B) {
	m := NewMailbox[int]()
	defer m.Close()

	// Start consumer
	go func() {
		for range m.Recv() {
			// Just consume
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Push(&i)
	}
}

// BenchmarkMultiProducer benchmarks the mailbox with multiple producers
func BenchmarkMultiProducer(b *testing.B) {
	m := NewMailbox[int]()
	defer m.Close()

	// Start consumer
	go func() {
		for range m.Recv() {
			// Just consume
		}
	}()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Push(&i)
			i++
		}
	})
}

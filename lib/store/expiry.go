package store

import (
	"sync"
	"time"
)

// expiryEngine tracks per-key deadlines for one store and turns elapsed
// deadlines into delete requests against the owning store actor.
//
// State machine per key: persistent (no record) -> expiring (one pending
// record) -> back to persistent (persist, delete, or an overriding
// re-expire) -> expired (deadline fired; the engine removes the record and
// submits a reap request, afterwards the key is indistinguishable from one
// that never had a deadline).
//
// The engine never touches backend state itself: a fired deadline is just
// another request on the store's serialized queue. Schedule and cancel are
// called from inside the actor loop while it processes the corresponding
// client request, so a persist or re-expire that reaches the actor before
// the deadline fires always wins.
type expiryEngine struct {
	mu        sync.Mutex
	deadlines *deadlineHeap

	// submit enqueues a reap request for a fired key on the store actor
	submit func(key string)

	wake chan struct{} // signals the run loop that the earliest deadline changed
	stop chan struct{}
	done chan struct{}
}

func newExpiryEngine(submit func(key string)) *expiryEngine {
	e := &expiryEngine{
		deadlines: newDeadlineHeap(),
		submit:    submit,
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go e.run()
	return e
}

// schedule installs or replaces the deadline for a key.
func (e *expiryEngine) schedule(key string, at time.Time) {
	e.mu.Lock()
	e.deadlines.set(key, at)
	e.mu.Unlock()
	e.notify()
}

// cancel removes the pending deadline for a key, returning whether one
// existed. There is no window in which a cancelled deadline can still fire:
// firing re-checks the heap under the same lock.
func (e *expiryEngine) cancel(key string) bool {
	e.mu.Lock()
	removed := e.deadlines.remove(key)
	e.mu.Unlock()
	return removed
}

// pending reports whether a key currently has a live deadline. The actor
// consults this when processing a reap: a fresh record means the key was
// re-expired after the fire and the reap must not delete it.
func (e *expiryEngine) pending(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deadlines.contains(key)
}

// shutdown stops the run loop and waits for it to exit. Pending deadlines
// are discarded.
func (e *expiryEngine) shutdown() {
	close(e.stop)
	<-e.done
}

// notify wakes the run loop without blocking; a single buffered slot is
// enough because the loop re-reads the heap on every wake.
func (e *expiryEngine) notify() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// run is the engine's scheduler loop. It sleeps until the earliest deadline,
// then removes every due record and submits a reap request for each through
// the store's request queue.
func (e *expiryEngine) run() {
	defer close(e.done)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	timerLive := false

	// drainTimer makes the timer safe to Reset again
	drainTimer := func() {
		if timerLive && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timerLive = false
	}

	for {
		e.mu.Lock()
		next, ok := e.deadlines.peek()
		var wait time.Duration
		if ok {
			wait = time.Until(next.at)
		}
		e.mu.Unlock()

		// nothing pending: sleep until a deadline is scheduled
		if !ok {
			select {
			case <-e.stop:
				return
			case <-e.wake:
				continue
			}
		}

		if wait > 0 {
			drainTimer()
			timer.Reset(wait)
			timerLive = true

			select {
			case <-e.stop:
				drainTimer()
				return
			case <-e.wake:
				// earliest deadline changed, re-evaluate
				continue
			case <-timer.C:
				timerLive = false
			}
		}

		e.mu.Lock()
		due := e.deadlines.popDue(time.Now())
		e.mu.Unlock()

		for _, key := range due {
			e.submit(key)
		}
	}
}

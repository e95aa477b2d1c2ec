// Package lock implements a locking mechanism on top of key-value stores
// that implement the store.IStore interface. It provides a simple yet robust
// way to coordinate access to shared resources across goroutines or, with a
// networked backend, across processes.
//
// The lock manager only ever stores in the provided IStore and has no other
// internal state. Therefore it is safe to be created multiple times on the
// same store. It is even possible to create a new lock manager for every
// acquire and or release operation. As long as the same store is used every
// time, all locks will work as expected.
//
// Core Functionality:
//   - Lock acquisition with ownership verification
//   - Automatic lock expiration through configurable timeouts
//   - Safe release operations that verify ownership
//
// Implementation Approach:
//
//	Locks are implemented by leveraging the serialized conditional
//	operations of the underlying store. Specifically:
//
//	- Lock Acquisition: Attempts to create a key using PutNewTTL, which
//	  guarantees that only one requester can successfully create the key.
//	  The value contains a randomly generated owner ID that identifies the
//	  lock holder.
//
//	- Lock Verification: A successful PutNewTTL operation is followed by a
//	  Get operation to confirm the lock was acquired by checking that the
//	  stored value matches the owner ID.
//
//	- Timeouts: Locks can be configured with an optional timeout that
//	  automatically releases the lock after the specified period,
//	  preventing deadlocks if a client crashes.
//
//	- Safe Release: The ReleaseLock operation first verifies that the
//	  requester is the legitimate owner of the lock by comparing owner IDs
//	  before executing the Delete operation.
//
// Thread Safety:
//
//	The lock manager is as thread-safe as the underlying store.IStore
//	implementation. Stores serialize their requests, so the conditional
//	create never interleaves with a competing one on the same store.
//
// Usage Example:
//
//	// Create a lock manager with a store backend
//	locks := lock.NewLockManager(st)
//
//	// Acquire a lock with a timeout
//	acquired, ownerID, err := locks.AcquireLock("resource:123", 30*time.Second)
//	if err != nil {
//	    // Handle error
//	}
//
//	if acquired {
//	    // Use the resource safely
//	    // ...
//
//	    // Release the lock when done
//	    released, err := locks.ReleaseLock("resource:123", ownerID)
//	    if err != nil {
//	        // Handle error
//	    }
//	}
//
// Security Considerations:
//
//	The lock mechanism uses randomly generated owner IDs, which provides
//	reasonable protection against accidental lock stealing. However, it is
//	not designed to resist malicious attacks, as an attacker with access to
//	the underlying store could potentially manipulate lock data directly.
//
// Performance Impact:
//
//	Lock operations require 1-2 store operations each:
//	- AcquireLock: One PutNewTTL followed by one Get
//	- ReleaseLock: One Get followed by a conditional Delete
//
//	The performance characteristics therefore depend primarily on the
//	underlying store implementation.
package lock

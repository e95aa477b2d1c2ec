package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/stashkv/stash/lib/adapter"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// AdapterFactory is a function type that creates the backend adapter used by
// the store. This is used to abstract the creation of the backend from the
// store implementation.
type AdapterFactory func() adapter.Adapter

// UpdateFunc is the closure consumed by GetAndUpdate. It receives the current
// value (nil if absent) and whether the key was loaded. It either returns
// (ret, next, false) to store next and yield ret, or pop=true to delete the
// key and yield the previous value (ret and next are ignored in that case).
type UpdateFunc func(value []byte, loaded bool) (ret []byte, next []byte, pop bool)

// BumpStatus is the tagged outcome of a Bump operation.
type BumpStatus int

const (
	BumpOK                BumpStatus = iota // value updated
	BumpAmountNotIntegral                   // the given amount is not an integer
	BumpValueNotIntegral                    // the stored value is not an integer
)

func (s BumpStatus) String() string {
	switch s {
	case BumpOK:
		return "OK"
	case BumpAmountNotIntegral:
		return "AmountNotIntegral"
	case BumpValueNotIntegral:
		return "ValueNotIntegral"
	default:
		return "Unknown"
	}
}

// Options holds the configuration a store is started with. It is immutable
// after start.
type Options struct {
	// Name is the logical store name used in logs and metrics.
	Name string
	// Initial holds seed key-value pairs applied before the store accepts
	// requests.
	Initial map[string][]byte
	// TTL is the store-wide default time-to-live used whenever a per-call
	// TTL is omitted (passed as zero). A zero value means never expire.
	TTL time.Duration
}

// IStore is the generic interface for interacting with a key-value store.
// Every method is a synchronous round trip through the store's serialized
// request queue: the call blocks until the operation - including every
// backend primitive it triggers - has fully completed. Requests of one store
// never interleave.
//
// A miss is not an error: read operations report absence through a boolean
// or by returning the given default. The Strict variants instead fail with a
// RetCKeyRequired condition when the key is absent.
type IStore interface {
	// Put inserts or updates a key-value pair.
	Put(key string, value []byte) (err error)
	// PutNew inserts a key-value pair only if the key does not exist.
	// No error is returned if the key already exists.
	PutNew(key string, value []byte) (err error)
	// PutNewLazy is PutNew with a lazily produced value: the thunk is
	// invoked only when the key is absent.
	PutNewLazy(key string, thunk func() []byte) (err error)
	// PutNewTTL is PutNew with an expiry applied when (and only when) the
	// value is stored. A zero ttl falls back to the store default TTL.
	PutNewTTL(key string, value []byte, ttl time.Duration) (err error)
	// PutTTL inserts or updates a key-value pair and installs an expiry
	// deadline in the same serialized request. A zero ttl falls back to the
	// store default TTL; if that is also zero the key stays persistent.
	PutTTL(key string, value []byte, ttl time.Duration) (err error)

	// Get returns the value for a key. The boolean return value indicates
	// whether a value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)
	// GetDefault returns the value for a key, or def if the key is absent.
	GetDefault(key string, def []byte) (value []byte, err error)
	// GetStrict returns the value for a key and fails with RetCKeyRequired
	// if the key is absent.
	GetStrict(key string) (value []byte, err error)
	// Has returns whether a key exists in the store.
	Has(key string) (loaded bool, err error)

	// GetAndUpdate atomically reads and rewrites a key through fn; the key
	// is treated as present-with-nil when absent. See UpdateFunc for the
	// protocol. The returned value is whatever fn yielded.
	GetAndUpdate(key string, fn UpdateFunc) (ret []byte, err error)
	// GetAndUpdateStrict is GetAndUpdate but fails with RetCKeyRequired on
	// an absent key, before fn is invoked.
	GetAndUpdateStrict(key string, fn UpdateFunc) (ret []byte, err error)

	// Pop deletes the key and returns its prior value. On an absent key the
	// store is untouched and loaded is false.
	Pop(key string) (value []byte, loaded bool, err error)
	// PopDefault is Pop returning def when the key is absent.
	PopDefault(key string, def []byte) (value []byte, err error)

	// Replace updates the value only if the key exists; absent keys are a
	// no-op.
	Replace(key string, value []byte) (err error)
	// ReplaceStrict is Replace but fails with RetCKeyRequired on an absent
	// key.
	ReplaceStrict(key string, value []byte) (err error)

	// Update stores initial if the key is absent, otherwise stores
	// fn(current).
	Update(key string, initial []byte, fn func(value []byte) []byte) (err error)
	// UpdateStrict is Update without the initial fallback: an absent key
	// fails with RetCKeyRequired.
	UpdateStrict(key string, fn func(value []byte) []byte) (err error)

	// Delete deletes a key-value pair. Deleting an absent key succeeds.
	Delete(key string) (err error)
	// Drop deletes the given keys in order. The first backend failure
	// aborts and is surfaced immediately; keys already deleted stay
	// deleted (no rollback).
	Drop(keys []string) (err error)
	// Take collects the present keys of the given sequence into a map.
	// Fail-fast like Drop.
	Take(keys []string) (taken map[string][]byte, err error)
	// Split is Take plus deletion of the collected keys. Fail-fast, no
	// rollback.
	Split(keys []string) (taken map[string][]byte, err error)

	// Keys, Values and Pairs enumerate the full store contents. They fail
	// with RetCNotEnumerable if the adapter does not declare the
	// enumeration capability.
	Keys() (keys []string, err error)
	Values() (values [][]byte, err error)
	Pairs() (pairs []adapter.Pair, err error)
	// Equal compares two stores by their collected pairs with unordered
	// set semantics (exact key and value match). Both stores must be
	// enumerable.
	Equal(other IStore) (equal bool, err error)

	// Bump adds amount to the integer value stored at key (implicit zero
	// initialization on a miss) and reports the outcome as a tagged
	// status. The error return carries backend failures only.
	Bump(key string, amount int64) (status BumpStatus, err error)
	// Increment and Decrement apply Bump and silently swallow a
	// non-integral outcome, leaving the store unchanged. This asymmetry
	// with Bump and the Strict variants is intentional public contract.
	Increment(key string, amount int64) (err error)
	Decrement(key string, amount int64) (err error)
	// IncrementStrict and DecrementStrict surface a non-integral outcome
	// as a RetCNotIntegral condition whose message distinguishes an
	// invalid amount from an invalid stored value (the latter names the
	// key).
	IncrementStrict(key string, amount int64) (err error)
	DecrementStrict(key string, amount int64) (err error)

	// Expire installs or replaces the expiry deadline for key as now+ttl,
	// replacing a prior pending deadline, never stacking. A zero ttl falls
	// back to the store default TTL; if that is also zero the call is a
	// no-op and a deadline already pending for key is left in place (use
	// Persist to cancel one).
	Expire(key string, ttl time.Duration) (err error)
	// Persist cancels any pending expiry for key; no-op if the key is
	// already persistent.
	Persist(key string) (err error)

	// Info returns metadata about the backend underlying the store.
	Info() (info adapter.Info, err error)

	// Close stops the expiry engine, drains the request queue and tears
	// down the adapter. All subsequent calls fail with RetCStoreStopped.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Condition is a tagged failure value surfaced to callers, wrapping a return
// code (of type RetCode) and a message. It is distinguished from a normal
// miss result, which is never an error.
type Condition struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (c *Condition) Error() string {
	return fmt.Sprintf("store condition (%s): %s", c.Code, c.Msg)
}

// NewCondition creates a new Condition with the given code and message.
func NewCondition(code RetCode, msg string) *Condition {
	return &Condition{
		Code: code,
		Msg:  msg,
	}
}

// CodeOf extracts the RetCode from an error. A nil error maps to
// RetCSuccess; a non-Condition error maps to RetCBackendFailure.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var cond *Condition
	if errors.As(err, &cond) {
		return cond.Code
	}
	return RetCBackendFailure
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Operation executed successfully.
	RetCBackendFailure                      // 1: A backend primitive reported a failure.
	RetCUnsupportedOperation                // 2: Operation is not supported by the adapter.
	RetCKeyRequired                         // 3: A strict operation was invoked on an absent key.
	RetCNotIntegral                         // 4: Bump amount or stored value is not an integer.
	RetCNotEnumerable                       // 5: Enumeration invoked on a non-enumerable adapter.
	RetCStoreStopped                        // 6: The store has been closed.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCBackendFailure:
		return "BackendFailure"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCKeyRequired:
		return "KeyRequired"
	case RetCNotIntegral:
		return "NotIntegral"
	case RetCNotEnumerable:
		return "NotEnumerable"
	case RetCStoreStopped:
		return "StoreStopped"
	default:
		return "Unknown"
	}
}

package store

import (
	"fmt"
	"strconv"
)

// The bump subsystem: increment/decrement of integer-valued entries with
// implicit zero initialization. Stored integers are base-10 int64 text, the
// same representation networked caches use for their native counters.
//
// Three caller surfaces share one core routine and deliberately diverge in
// how they report a non-integral value:
//   - Bump returns the outcome as a tagged status
//   - Increment/Decrement swallow it silently, leaving the store unchanged
//   - IncrementStrict/DecrementStrict surface it as a condition error
// The silent variant is intentional public contract, not an omission.

// --------------------------------------------------------------------------
// Bump Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Bump(key string, amount int64) (BumpStatus, error) {
	resp := s.call(request{op: opBump, key: key, amount: amount})
	return resp.status, resp.err
}

func (s *storeImpl) Increment(key string, amount int64) error {
	_, err := s.Bump(key, amount)
	return err
}

func (s *storeImpl) Decrement(key string, amount int64) error {
	_, err := s.Bump(key, -amount)
	return err
}

func (s *storeImpl) IncrementStrict(key string, amount int64) error {
	status, err := s.Bump(key, amount)
	if err != nil {
		return err
	}
	return s.bumpStatusErr(key, status)
}

func (s *storeImpl) DecrementStrict(key string, amount int64) error {
	status, err := s.Bump(key, -amount)
	if err != nil {
		return err
	}
	return s.bumpStatusErr(key, status)
}

// bumpStatusErr converts a non-ok bump status into the condition the strict
// variants raise. The message distinguishes an invalid amount from an
// invalid stored value; only the latter names the key.
func (s *storeImpl) bumpStatusErr(key string, status BumpStatus) error {
	switch status {
	case BumpOK:
		return nil
	case BumpAmountNotIntegral:
		return NewCondition(RetCNotIntegral, "bump amount is not an integer")
	case BumpValueNotIntegral:
		return NewCondition(RetCNotIntegral,
			fmt.Sprintf("value at key %q is not an integer", key))
	default:
		return NewCondition(RetCNotIntegral, fmt.Sprintf("unexpected bump status %s", status))
	}
}

// --------------------------------------------------------------------------
// Handler
// --------------------------------------------------------------------------

// doBump runs on the actor goroutine. A miss zero-initializes the key with a
// separate Put and retries the fetch, so initialization and the bump itself
// are two primitive calls within one serialized request. A non-integral
// stored value leaves the store unchanged.
func (s *storeImpl) doBump(req *request) response {
	for {
		value, loaded, err := s.adapter.Fetch(req.key)
		if err != nil {
			return response{err: s.backendErr("Fetch", err)}
		}

		if !loaded {
			if err := s.adapter.Put(req.key, []byte("0")); err != nil {
				return response{err: s.backendErr("Put", err)}
			}
			continue
		}

		current, perr := strconv.ParseInt(string(value), 10, 64)
		if perr != nil {
			return response{status: BumpValueNotIntegral}
		}

		next := strconv.FormatInt(current+req.amount, 10)
		if err := s.adapter.Put(req.key, []byte(next)); err != nil {
			return response{err: s.backendErr("Put", err)}
		}
		return response{status: BumpOK}
	}
}

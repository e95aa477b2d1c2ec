package store

import (
	"bytes"
	"fmt"
	"time"

	"github.com/stashkv/stash/lib/adapter"
)

// This file implements the default derivation layer: every higher-level
// operation is composed from the three required primitives (Fetch, Put,
// Delete). Compound operations are atomic with respect to other requests of
// the same store solely because the actor never interleaves requests, not
// because of any locking inside the adapter.

// --------------------------------------------------------------------------
// Write Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Put(key string, value []byte) error {
	return s.call(request{op: opPut, key: key, value: value}).err
}

func (s *storeImpl) PutNew(key string, value []byte) error {
	return s.call(request{op: opPutNew, key: key, value: value}).err
}

func (s *storeImpl) PutNewLazy(key string, thunk func() []byte) error {
	return s.call(request{op: opPutNewLazy, key: key, thunk: thunk}).err
}

func (s *storeImpl) PutNewTTL(key string, value []byte, ttl time.Duration) error {
	return s.call(request{op: opPutNew, key: key, value: value, ttl: ttl, ttlSet: true}).err
}

func (s *storeImpl) PutTTL(key string, value []byte, ttl time.Duration) error {
	return s.call(request{op: opPutTTL, key: key, value: value, ttl: ttl}).err
}

func (s *storeImpl) Replace(key string, value []byte) error {
	return s.call(request{op: opReplace, key: key, value: value}).err
}

func (s *storeImpl) ReplaceStrict(key string, value []byte) error {
	return s.call(request{op: opReplaceStrict, key: key, value: value}).err
}

func (s *storeImpl) Update(key string, initial []byte, fn func([]byte) []byte) error {
	return s.call(request{op: opUpdate, key: key, value: initial, apply: fn}).err
}

func (s *storeImpl) UpdateStrict(key string, fn func([]byte) []byte) error {
	return s.call(request{op: opUpdateStrict, key: key, apply: fn}).err
}

func (s *storeImpl) Delete(key string) error {
	return s.call(request{op: opDelete, key: key}).err
}

func (s *storeImpl) Drop(keys []string) error {
	return s.call(request{op: opDrop, keys: keys}).err
}

// --------------------------------------------------------------------------
// Read Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	resp := s.call(request{op: opGet, key: key})
	return resp.value, resp.loaded, resp.err
}

func (s *storeImpl) GetDefault(key string, def []byte) ([]byte, error) {
	resp := s.call(request{op: opGetDefault, key: key, def: def})
	return resp.value, resp.err
}

func (s *storeImpl) GetStrict(key string) ([]byte, error) {
	resp := s.call(request{op: opGetStrict, key: key})
	return resp.value, resp.err
}

func (s *storeImpl) Has(key string) (bool, error) {
	resp := s.call(request{op: opHas, key: key})
	return resp.loaded, resp.err
}

// --------------------------------------------------------------------------
// Compound Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) GetAndUpdate(key string, fn UpdateFunc) ([]byte, error) {
	resp := s.call(request{op: opGetAndUpdate, key: key, fn: fn})
	return resp.value, resp.err
}

func (s *storeImpl) GetAndUpdateStrict(key string, fn UpdateFunc) ([]byte, error) {
	resp := s.call(request{op: opGetAndUpdateStrict, key: key, fn: fn})
	return resp.value, resp.err
}

func (s *storeImpl) Pop(key string) ([]byte, bool, error) {
	resp := s.call(request{op: opPop, key: key})
	return resp.value, resp.loaded, resp.err
}

func (s *storeImpl) PopDefault(key string, def []byte) ([]byte, error) {
	resp := s.call(request{op: opPopDefault, key: key, def: def})
	return resp.value, resp.err
}

func (s *storeImpl) Take(keys []string) (map[string][]byte, error) {
	resp := s.call(request{op: opTake, keys: keys})
	return resp.taken, resp.err
}

func (s *storeImpl) Split(keys []string) (map[string][]byte, error) {
	resp := s.call(request{op: opSplit, keys: keys})
	return resp.taken, resp.err
}

// --------------------------------------------------------------------------
// Enumeration Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Keys() ([]string, error) {
	resp := s.call(request{op: opKeys})
	return resp.keys, resp.err
}

func (s *storeImpl) Values() ([][]byte, error) {
	resp := s.call(request{op: opValues})
	return resp.values, resp.err
}

func (s *storeImpl) Pairs() ([]adapter.Pair, error) {
	resp := s.call(request{op: opPairs})
	return resp.pairs, resp.err
}

func (s *storeImpl) Equal(other IStore) (bool, error) {
	mine, err := s.Pairs()
	if err != nil {
		return false, err
	}
	theirs, err := other.Pairs()
	if err != nil {
		return false, err
	}

	if len(mine) != len(theirs) {
		return false, nil
	}

	byKey := make(map[string][]byte, len(mine))
	for _, p := range mine {
		byKey[p.Key] = p.Value
	}
	for _, p := range theirs {
		value, ok := byKey[p.Key]
		if !ok || !bytes.Equal(value, p.Value) {
			return false, nil
		}
	}
	return true, nil
}

// --------------------------------------------------------------------------
// Expiry Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Expire(key string, ttl time.Duration) error {
	return s.call(request{op: opExpire, key: key, ttl: ttl}).err
}

func (s *storeImpl) Persist(key string) error {
	return s.call(request{op: opPersist, key: key}).err
}

// --------------------------------------------------------------------------
// Handlers (run on the actor goroutine, exclusive adapter access)
// --------------------------------------------------------------------------

func (s *storeImpl) doPut(req *request) response {
	if err := s.adapter.Put(req.key, req.value); err != nil {
		return response{err: s.backendErr("Put", err)}
	}
	return response{}
}

func (s *storeImpl) doPutNew(req *request) response {
	stored := false

	// native put-if-absent when the adapter has one, Fetch+Put otherwise
	if cp, ok := s.adapter.(adapter.ConditionalPutter); ok {
		var err error
		stored, err = cp.PutIfAbsent(req.key, req.value)
		if err != nil {
			return response{err: s.backendErr("PutIfAbsent", err)}
		}
	} else {
		_, loaded, err := s.adapter.Fetch(req.key)
		if err != nil {
			return response{err: s.backendErr("Fetch", err)}
		}
		if !loaded {
			if err := s.adapter.Put(req.key, req.value); err != nil {
				return response{err: s.backendErr("Put", err)}
			}
			stored = true
		}
	}

	if stored && req.ttlSet {
		if ttl := s.resolveTTL(req.ttl); ttl > 0 {
			s.expiry.schedule(req.key, time.Now().Add(ttl))
		}
	}
	return response{loaded: stored}
}

func (s *storeImpl) doPutNewLazy(req *request) response {
	_, loaded, err := s.adapter.Fetch(req.key)
	if err != nil {
		return response{err: s.backendErr("Fetch", err)}
	}
	if loaded {
		return response{}
	}
	// the thunk runs only on a miss
	if err := s.adapter.Put(req.key, req.thunk()); err != nil {
		return response{err: s.backendErr("Put", err)}
	}
	return response{}
}

func (s *storeImpl) doPutTTL(req *request) response {
	if err := s.adapter.Put(req.key, req.value); err != nil {
		return response{err: s.backendErr("Put", err)}
	}
	if ttl := s.resolveTTL(req.ttl); ttl > 0 {
		s.expiry.schedule(req.key, time.Now().Add(ttl))
	}
	return response{}
}

func (s *storeImpl) doGet(req *request) response {
	value, loaded, err := s.adapter.Fetch(req.key)
	if err != nil {
		return response{err: s.backendErr("Fetch", err)}
	}
	return response{value: value, loaded: loaded}
}

func (s *storeImpl) doGetDefault(req *request) response {
	value, loaded, err := s.adapter.Fetch(req.key)
	if err != nil {
		return response{err: s.backendErr("Fetch", err)}
	}
	if !loaded {
		return response{value: req.def}
	}
	return response{value: value, loaded: true}
}

func (s *storeImpl) doGetStrict(req *request) response {
	value, loaded, err := s.adapter.Fetch(req.key)
	if err != nil {
		return response{err: s.backendErr("Fetch", err)}
	}
	if !loaded {
		return response{err: s.keyRequiredErr(req.key)}
	}
	return response{value: value, loaded: true}
}

func (s *storeImpl) doHas(req *request) response {
	_, loaded, err := s.adapter.Fetch(req.key)
	if err != nil {
		return response{err: s.backendErr("Fetch", err)}
	}
	return response{loaded: loaded}
}

func (s *storeImpl) doGetAndUpdate(req *request, strict bool) response {
	value, loaded, err := s.adapter.Fetch(req.key)
	if err != nil {
		return response{err: s.backendErr("Fetch", err)}
	}
	if strict && !loaded {
		return response{err: s.keyRequiredErr(req.key)}
	}

	ret, next, pop := req.fn(value, loaded)
	if pop {
		if loaded {
			if err := s.adapter.Delete(req.key); err != nil {
				return response{err: s.backendErr("Delete", err)}
			}
			s.expiry.cancel(req.key)
		}
		// yield the previous value, nil if the key was absent
		return response{value: value, loaded: loaded}
	}

	if err := s.adapter.Put(req.key, next); err != nil {
		return response{err: s.backendErr("Put", err)}
	}
	return response{value: ret, loaded: loaded}
}

func (s *storeImpl) doPop(req *request) response {
	value, loaded, err := s.adapter.Fetch(req.key)
	if err != nil {
		return response{err: s.backendErr("Fetch", err)}
	}
	if !loaded {
		return response{}
	}
	if err := s.adapter.Delete(req.key); err != nil {
		return response{err: s.backendErr("Delete", err)}
	}
	s.expiry.cancel(req.key)
	return response{value: value, loaded: true}
}

func (s *storeImpl) doPopDefault(req *request) response {
	resp := s.doPop(req)
	if resp.err == nil && !resp.loaded {
		resp.value = req.def
	}
	return resp
}

func (s *storeImpl) doReplace(req *request, strict bool) response {
	_, loaded, err := s.adapter.Fetch(req.key)
	if err != nil {
		return response{err: s.backendErr("Fetch", err)}
	}
	if !loaded {
		if strict {
			return response{err: s.keyRequiredErr(req.key)}
		}
		return response{}
	}
	if err := s.adapter.Put(req.key, req.value); err != nil {
		return response{err: s.backendErr("Put", err)}
	}
	return response{loaded: true}
}

func (s *storeImpl) doUpdate(req *request, strict bool) response {
	value, loaded, err := s.adapter.Fetch(req.key)
	if err != nil {
		return response{err: s.backendErr("Fetch", err)}
	}

	var next []byte
	switch {
	case loaded:
		next = req.apply(value)
	case strict:
		return response{err: s.keyRequiredErr(req.key)}
	default:
		next = req.value // the initial value
	}

	if err := s.adapter.Put(req.key, next); err != nil {
		return response{err: s.backendErr("Put", err)}
	}
	return response{loaded: loaded}
}

func (s *storeImpl) doDelete(req *request) response {
	if err := s.adapter.Delete(req.key); err != nil {
		return response{err: s.backendErr("Delete", err)}
	}
	s.expiry.cancel(req.key)
	return response{}
}

func (s *storeImpl) doDrop(req *request) response {
	// fail fast: keys deleted before a failure stay deleted
	for _, key := range req.keys {
		if err := s.adapter.Delete(key); err != nil {
			return response{err: s.backendErr("Delete", err)}
		}
		s.expiry.cancel(key)
	}
	return response{}
}

func (s *storeImpl) doTake(req *request) response {
	taken := make(map[string][]byte)
	for _, key := range req.keys {
		value, loaded, err := s.adapter.Fetch(key)
		if err != nil {
			return response{err: s.backendErr("Fetch", err)}
		}
		if loaded {
			taken[key] = value
		}
	}
	return response{taken: taken}
}

func (s *storeImpl) doSplit(req *request) response {
	taken := make(map[string][]byte)
	for _, key := range req.keys {
		value, loaded, err := s.adapter.Fetch(key)
		if err != nil {
			return response{err: s.backendErr("Fetch", err)}
		}
		if !loaded {
			continue
		}
		if err := s.adapter.Delete(key); err != nil {
			return response{err: s.backendErr("Delete", err)}
		}
		s.expiry.cancel(key)
		taken[key] = value
	}
	return response{taken: taken}
}

// --------------------------------------------------------------------------
// Enumeration Handlers
// --------------------------------------------------------------------------

// enumerate negotiates the enumeration capability and collects all pairs.
func (s *storeImpl) enumerate() ([]adapter.Pair, error) {
	en, ok := s.adapter.(adapter.Enumerator)
	if !ok || !s.adapter.SupportsFeature(adapter.FeatureEnumerate) {
		return nil, NewCondition(RetCNotEnumerable,
			fmt.Sprintf("adapter %q cannot be exhaustively iterated", s.adapterName))
	}
	pairs, err := en.Pairs()
	if err != nil {
		return nil, s.backendErr("Pairs", err)
	}
	return pairs, nil
}

func (s *storeImpl) doKeys(_ *request) response {
	pairs, err := s.enumerate()
	if err != nil {
		return response{err: err}
	}
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, p.Key)
	}
	return response{keys: keys}
}

func (s *storeImpl) doValues(_ *request) response {
	pairs, err := s.enumerate()
	if err != nil {
		return response{err: err}
	}
	values := make([][]byte, 0, len(pairs))
	for _, p := range pairs {
		values = append(values, p.Value)
	}
	return response{values: values}
}

func (s *storeImpl) doPairs(_ *request) response {
	pairs, err := s.enumerate()
	if err != nil {
		return response{err: err}
	}
	return response{pairs: pairs}
}

// --------------------------------------------------------------------------
// Expiry Handlers
// --------------------------------------------------------------------------

func (s *storeImpl) doExpire(req *request) response {
	ttl := s.resolveTTL(req.ttl)
	if ttl == 0 {
		// no per-call ttl and no store default: nothing to schedule, and a
		// deadline already pending for the key is left in place
		return response{}
	}
	s.expiry.schedule(req.key, time.Now().Add(ttl))
	return response{}
}

func (s *storeImpl) doPersist(req *request) response {
	s.expiry.cancel(req.key)
	return response{}
}

func (s *storeImpl) doReap(req *request) response {
	// a live record means the key was re-expired after this reap fired;
	// the newer deadline owns the key now
	if s.expiry.pending(req.key) {
		return response{}
	}
	if err := s.adapter.Delete(req.key); err != nil {
		logger.Errorf("expiry delete of key %q failed: %v", req.key, err)
		return response{err: s.backendErr("Delete", err)}
	}
	s.mReaped.Inc()
	logger.Debugf("expired key %q deleted", req.key)
	return response{}
}

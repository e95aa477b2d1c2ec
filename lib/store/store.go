package store

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stashkv/stash/lib/adapter"
	"github.com/stashkv/stash/lib/logging"
	"github.com/stashkv/stash/lib/store/internal"
)

var logger = logging.GetLogger("store")

// storeImpl is the actor that owns one backend instance. A single goroutine
// (loop) consumes the mailbox and is the only code that ever touches the
// adapter, so backend state is never shared across concurrency domains.
type storeImpl struct {
	adapter     adapter.Adapter
	adapterName string
	opts        Options

	mailbox *internal.Mailbox[request]
	expiry  *expiryEngine

	stopped  atomic.Bool
	done     chan struct{}
	closeOne sync.Once
	closeErr error

	mRequests *metrics.Counter
	mFailures *metrics.Counter
	mReaped   *metrics.Counter
}

// NewStore creates and starts a store bound to the given adapter. The
// adapter's setup routine runs first; a setup failure aborts creation and
// never yields a runnable store. Initial seed pairs are applied before the
// store accepts requests.
func NewStore(adp adapter.Adapter, opts Options) (IStore, error) {
	if adp == nil {
		return nil, NewCondition(RetCUnsupportedOperation, "no adapter given")
	}

	info := adp.Info()
	name := opts.Name
	if name == "" {
		name = info.Name
	}

	// capability negotiation: the three primitives are not optional
	if !adp.SupportsFeature(adapter.RequiredFeatures) {
		return nil, NewCondition(RetCUnsupportedOperation,
			fmt.Sprintf("adapter %q does not support the required Fetch/Put/Delete primitives", info.Name))
	}

	if err := adp.Setup(); err != nil {
		return nil, NewCondition(RetCBackendFailure,
			fmt.Sprintf("adapter %q setup failed: %v", info.Name, err))
	}

	// seed initial pairs before the actor starts serving
	for key, value := range opts.Initial {
		if err := adp.Put(key, value); err != nil {
			_ = adp.Teardown("seeding initial pairs failed")
			return nil, NewCondition(RetCBackendFailure,
				fmt.Sprintf("seeding key %q failed: %v", key, err))
		}
	}

	s := &storeImpl{
		adapter:     adp,
		adapterName: info.Name,
		opts:        opts,
		mailbox:     internal.NewMailbox[request](),
		done:        make(chan struct{}),
		mRequests:   metrics.GetOrCreateCounter(fmt.Sprintf(`stash_store_requests_total{store=%q}`, name)),
		mFailures:   metrics.GetOrCreateCounter(fmt.Sprintf(`stash_store_failures_total{store=%q}`, name)),
		mReaped:     metrics.GetOrCreateCounter(fmt.Sprintf(`stash_store_expired_total{store=%q}`, name)),
	}
	s.expiry = newExpiryEngine(s.submitReap)

	go s.loop()

	logger.Infof("store %q started (adapter=%s, default ttl=%v)", name, info.Name, opts.TTL)
	return s, nil
}

// --------------------------------------------------------------------------
// Actor Loop
// --------------------------------------------------------------------------

// loop is the store's single serialization domain: it dequeues one request,
// runs it to completion including every primitive sub-call, replies, and
// only then dequeues the next. It exits once the mailbox is closed and
// drained, then tears down the adapter.
func (s *storeImpl) loop() {
	defer close(s.done)

	for req := range s.mailbox.Recv() {
		s.mRequests.Inc()
		resp := s.dispatch(req)
		if resp.err != nil {
			s.mFailures.Inc()
		}
		req.respond(resp)
	}

	if err := s.adapter.Teardown("store closed"); err != nil {
		logger.Errorf("adapter %q teardown failed: %v", s.adapterName, err)
		s.closeErr = NewCondition(RetCBackendFailure,
			fmt.Sprintf("adapter %q teardown failed: %v", s.adapterName, err))
	}
}

// dispatch routes one request to its handler. The switch is exhaustive over
// the closed opKind set.
func (s *storeImpl) dispatch(req *request) response {
	switch req.op {
	case opPut:
		return s.doPut(req)
	case opPutNew:
		return s.doPutNew(req)
	case opPutNewLazy:
		return s.doPutNewLazy(req)
	case opPutTTL:
		return s.doPutTTL(req)
	case opGet:
		return s.doGet(req)
	case opGetDefault:
		return s.doGetDefault(req)
	case opGetStrict:
		return s.doGetStrict(req)
	case opHas:
		return s.doHas(req)
	case opGetAndUpdate:
		return s.doGetAndUpdate(req, false)
	case opGetAndUpdateStrict:
		return s.doGetAndUpdate(req, true)
	case opPop:
		return s.doPop(req)
	case opPopDefault:
		return s.doPopDefault(req)
	case opReplace:
		return s.doReplace(req, false)
	case opReplaceStrict:
		return s.doReplace(req, true)
	case opUpdate:
		return s.doUpdate(req, false)
	case opUpdateStrict:
		return s.doUpdate(req, true)
	case opDelete:
		return s.doDelete(req)
	case opDrop:
		return s.doDrop(req)
	case opTake:
		return s.doTake(req)
	case opSplit:
		return s.doSplit(req)
	case opKeys:
		return s.doKeys(req)
	case opValues:
		return s.doValues(req)
	case opPairs:
		return s.doPairs(req)
	case opBump:
		return s.doBump(req)
	case opExpire:
		return s.doExpire(req)
	case opPersist:
		return s.doPersist(req)
	case opReap:
		return s.doReap(req)
	case opInfo:
		return response{info: s.adapter.Info()}
	default:
		return response{err: NewCondition(RetCUnsupportedOperation,
			fmt.Sprintf("unknown operation %s", req.op))}
	}
}

// call submits a request and blocks for the reply.
func (s *storeImpl) call(req request) response {
	if s.stopped.Load() {
		return response{err: NewCondition(RetCStoreStopped, "store is closed")}
	}

	req.reply = make(chan response, 1)
	if !s.mailbox.Push(&req) {
		return response{err: NewCondition(RetCStoreStopped, "store is closed")}
	}

	// A push racing Close can be accepted after the loop already drained
	// and exited, so the reply wait is bounded by the loop's lifetime.
	select {
	case resp := <-req.reply:
		return resp
	case <-s.done:
		// the loop may have replied right before exiting
		select {
		case resp := <-req.reply:
			return resp
		default:
			return response{err: NewCondition(RetCStoreStopped, "store is closed")}
		}
	}
}

// submitReap enqueues a fire-and-forget delete for a key whose deadline
// elapsed. A push onto a closed mailbox is silently dropped; the store is
// shutting down and the key dies with it.
func (s *storeImpl) submitReap(key string) {
	s.mailbox.Push(&request{op: opReap, key: key})
}

// --------------------------------------------------------------------------
// Lifecycle / Metadata Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Close() error {
	s.closeOne.Do(func() {
		s.stopped.Store(true)

		// the expiry engine goes down first so no reap can be scheduled
		// after the mailbox closes
		s.expiry.shutdown()

		// queued requests still drain before the loop exits
		s.mailbox.Close()
		<-s.done

		logger.Infof("store (adapter=%s) closed", s.adapterName)
	})
	return s.closeErr
}

func (s *storeImpl) Info() (adapter.Info, error) {
	resp := s.call(request{op: opInfo})
	return resp.info, resp.err
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// backendErr wraps an adapter-level failure, keeping the native diagnostic.
func (s *storeImpl) backendErr(op string, err error) *Condition {
	return NewCondition(RetCBackendFailure,
		fmt.Sprintf("%s on adapter %q failed: %v", op, s.adapterName, err))
}

// keyRequiredErr is the condition raised by strict operations on a miss.
func (s *storeImpl) keyRequiredErr(key string) *Condition {
	return NewCondition(RetCKeyRequired,
		fmt.Sprintf("key %q not found in %q store", key, s.adapterName))
}

// resolveTTL applies the store-default fallback rule. A zero result means
// there is nothing to schedule.
func (s *storeImpl) resolveTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return s.opts.TTL
	}
	return ttl
}

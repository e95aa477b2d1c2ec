package store

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry maps logical names to running store handles so that application
// code can resolve a well-known store at call time instead of threading
// handles everywhere. It is an explicit value the application owns, never
// implicit global state.
type Registry struct {
	stores *xsync.MapOf[string, IStore]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: xsync.NewMapOf[string, IStore](),
	}
}

// Register binds a name to a store handle. Registering an already bound
// name fails; Deregister the old binding first.
func (r *Registry) Register(name string, s IStore) error {
	if _, loaded := r.stores.LoadOrStore(name, s); loaded {
		return NewCondition(RetCUnsupportedOperation,
			fmt.Sprintf("store name %q is already registered", name))
	}
	return nil
}

// Resolve returns the store bound to a name.
func (r *Registry) Resolve(name string) (IStore, bool) {
	return r.stores.Load(name)
}

// Deregister removes a binding, returning the store that was bound so the
// caller can decide whether to close it.
func (r *Registry) Deregister(name string) (IStore, bool) {
	return r.stores.LoadAndDelete(name)
}

// CloseAll deregisters and closes every store. The first close failure is
// returned but does not stop the sweep.
func (r *Registry) CloseAll() error {
	var firstErr error
	r.stores.Range(func(name string, s IStore) bool {
		r.stores.Delete(name)
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

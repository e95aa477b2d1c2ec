package adapter

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// Feature represents adapter capabilities as bit flags
type Feature uint64

const (
	FeatureFetch     Feature = 1 << iota // Support for Fetch operations
	FeaturePut                           // Support for Put operations
	FeatureDelete                        // Support for Delete operations
	FeatureEnumerate                     // Support for exhaustive enumeration via Pairs
)

// RequiredFeatures is the capability set every adapter must provide.
// A store refuses to start on an adapter that lacks any of these.
const RequiredFeatures = FeatureFetch | FeaturePut | FeatureDelete

func (f Feature) String() string {
	switch f {
	case FeatureFetch:
		return "Fetch"
	case FeaturePut:
		return "Put"
	case FeatureDelete:
		return "Delete"
	case FeatureEnumerate:
		return "Enumerate"
	default:
		return "Unknown"
	}
}

// Pair is a single key-value pair produced by enumeration.
type Pair struct {
	Key   string
	Value []byte
}

// Info describes an adapter instance.
// It is not guaranteed that all fields are filled in or that the information is up-to-date!
type Info struct {
	Name       string      `json:"name"`       // Adapter family, e.g. "memory", "sqlite", "memcache"
	Enumerable bool        `json:"enumerable"` // Whether Pairs is supported
	Metadata   interface{} `json:"metadata"`   // Adapter-specific details
}

// --------------------------------------------------------------------------
// Adapter Interface
// --------------------------------------------------------------------------

// Adapter is the backend contract consumed by the store layer. An adapter
// binds one backend instance (an in-process map, a local table, a networked
// cache) behind three required primitives. The owning store serializes all
// calls, so implementations are never invoked concurrently; they are free to
// hold single-owner handles such as database connections.
//
// On any failed primitive the adapter must leave its state consistent: no
// partially applied writes.
type Adapter interface {

	// Setup opens the backend and prepares it for use.
	// It is called exactly once, before the first primitive call.
	// A non-nil error aborts store creation.
	Setup() error

	// Teardown releases all backend resources. It is called exactly once,
	// after the last primitive call. The reason describes why the store
	// is shutting down and may be logged or ignored.
	Teardown(reason string) error

	// Fetch retrieves the value for an exact key.
	// The boolean return value indicates whether a value for the key was found.
	// Fetch has no side effects. The returned slice must not alias backend
	// memory; callers may mutate it freely.
	Fetch(key string) (value []byte, found bool, err error)

	// Put inserts or updates a key-value pair, replacing any prior value
	// unconditionally.
	Put(key string, value []byte) error

	// Delete removes a key-value pair. Deleting an absent key succeeds
	// (idempotent).
	Delete(key string) error

	// SupportsFeature checks if the adapter supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|).
	// The answer is static for the lifetime of the adapter.
	SupportsFeature(feature Feature) (ok bool)

	// Info returns metadata about the adapter.
	Info() (info Info)
}

// Enumerator is implemented by adapters that declare FeatureEnumerate.
// A non-enumerable adapter (for example a networked cache, which cannot
// efficiently iterate its key space) simply omits it.
type Enumerator interface {
	// Pairs returns every live key-value pair. Values must be copies.
	Pairs() ([]Pair, error)
}

// ConditionalPutter is an optional fast path for put-if-absent. Adapters with
// a native atomic "add" (e.g. memcache) implement it; the store layer falls
// back to Fetch+Put otherwise.
type ConditionalPutter interface {
	// PutIfAbsent stores the value only if the key does not exist.
	// The boolean reports whether the value was stored.
	PutIfAbsent(key string, value []byte) (stored bool, err error)
}

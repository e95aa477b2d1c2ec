// Package adapter defines the backend contract for key-value stores.
// It provides a small Adapter interface that allows heterogeneous storage
// engines to sit behind one uniform store API while abstracting engine
// details.
//
// The package focuses on:
//   - Three required primitives (Fetch, Put, Delete) every backend supplies
//   - Capability discovery through feature flags
//   - Optional enumeration for backends that can iterate their key space
//   - Optional native fast paths the store layer may use when present
//
// Key Components:
//
//   - Adapter Interface: The core contract all backends must satisfy. The
//     owning store serializes every call, so implementations need no internal
//     locking for correctness and may hold exclusive handles (file, table,
//     connection) for their lifetime.
//
//   - Feature Flags: The Feature type defines capability flags advertised
//     through SupportsFeature. A store refuses to start on an adapter that
//     lacks RequiredFeatures; enumeration (FeatureEnumerate) is negotiated
//     at call time and its absence surfaces as a distinct condition rather
//     than a silent empty result.
//
//   - Enumerator / ConditionalPutter: Optional interfaces discovered via type
//     assertion. Enumerator backs the Keys/Values/Pairs/Equal family of store
//     operations; ConditionalPutter lets a backend with a native atomic
//     "put if absent" replace the default Fetch+Put composition.
//
// Implementations:
//
//   - memory: an ephemeral in-process map (enumerable)
//   - sqlite: a persistent local table (enumerable)
//   - memcache: a networked cache client (not enumerable, native put-if-absent)
//
// The testing subpackage provides a standardized conformance suite
// (RunAdapterTests) for validating implementations against this contract.
package adapter

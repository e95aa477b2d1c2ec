// Package store provides a uniform key-value access layer over heterogeneous
// storage backends with request serialization, derived compound operations,
// atomic-looking counters and per-key time-to-live expiry. It serves as an
// abstraction layer over the lower-level adapter.Adapter implementations,
// adding a single consistent contract regardless of which engine backs a
// given store instance.
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations across backends
//   - One serialization domain per store: every request runs to completion
//     before the next begins, so compound operations never interleave
//   - A derivation layer building ~20 Map-like operations from the three
//     required backend primitives
//   - Per-key expiry deadlines handled by an engine independent of the
//     backend's own capabilities
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for
//     interacting with a key-value store. All backends share this common
//     interface, allowing applications to switch between engines without
//     code changes. Methods return Condition errors that carry typed return
//     codes for informed error handling.
//
//   - Store Actor: Each store runs one goroutine that consumes an unbounded
//     mailbox of requests. The request set is a closed, exhaustively matched
//     enum; replies travel back over per-request channels. Client-facing
//     calls are synchronous round trips. Replies complete in arrival order;
//     across different stores there is no ordering relationship.
//
//   - Derivation Layer: Compound operations (GetAndUpdate, Pop, PutNew,
//     Replace, Update, Drop, Take, Split, enumeration, bump) are composed
//     purely from Fetch/Put/Delete, with native adapter fast paths used
//     where an adapter declares them.
//
//   - Expiry Engine: A per-store scheduler holding a deadline heap and a
//     single timer goroutine. Elapsed deadlines become delete requests on
//     the same serialized queue, so an expiry-driven delete can never race a
//     concurrently in-flight client mutation of the same key.
//
//   - Registry: An explicit mapping from logical names to store handles for
//     applications that address well-known stores by name.
//
// Known limitation: there is no caller-visible timeout on a request. A stuck
// backend primitive stalls its store's queue indefinitely.
package store

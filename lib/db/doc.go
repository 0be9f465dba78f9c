// Package db provides a standardized interface for the key-value engines that back
// a local store. It defines the KVDB interface, the feature flags an engine advertises,
// and the metadata structure returned by GetInfo.
//
// The package focuses on:
//   - A unified interface for the primitives the cache layer needs: plain values
//     (Set, SetNX, Get, Delete), counters (Incr) and append-only lists (RPush, LRange)
//   - Feature discovery through capability flags
//   - Standardized metadata reporting
//
// Key Components:
//
//   - KVDB Interface: The core interface that all engines must satisfy. A key either
//     holds a plain value or a list. Applying a list operation to a plain value (or the
//     other way around) fails with ErrWrongType, mirroring the behaviour of Redis.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method. This allows callers (e.g. the
//     lstore package) to detect unsupported operations at runtime.
//
//   - ClampRange: The shared implementation of the inclusive, negative-index aware
//     range semantics used by LRange.
//
// Note on Expiry:
//
//	Only SetNX takes a ttl. Expired entries must never be visible to Get, LRange or a
//	subsequent SetNX, even if the engine removes them lazily.
//
// Related Packages:
//
// The engines/maple package (github.com/ValentinKolb/kvcache/lib/db/engines/maple) provides
// a sharded in-memory implementation of the KVDB interface.
//
// The testing package (github.com/ValentinKolb/kvcache/lib/db/testing) provides
// a standardized test suite for KVDB implementations (RunKVDBTests).
package db

// Package store defines the store client boundary of kvcache: the IStore interface,
// a structured error type and the factory type used to plug in a db.KVDB engine.
//
// The interface is intentionally narrow. It exposes the primitives of a Redis-like
// server that the cache facade and the call instrumentation are built on:
//
//	SET / GET            plain values (Set, Get)
//	INCR                 counters (Incr)
//	RPUSH / LRANGE       append-only lists (RPush, LRange)
//	FLUSHDB              reset of the whole store (FlushDB)
//	SET NX PX / DEL      lock support (SetNX, Delete)
//
// Key Components:
//
//   - IStore Interface: The core abstraction. All implementations share it, so the
//     cache can switch between an in-process store, a Redis server and a remote
//     kvcache server without code changes.
//
//   - Error System: Every failure is reported as *Error with a RetCode. RetCUnreachable
//     marks failures to reach the store (fatal, never recovered by this library) and
//     can be tested with IsUnreachable or errors.Is(err, ErrUnreachable).
//
//   - DBFactory: A function type that abstracts the creation of the underlying db.KVDB
//     for the local store.
//
// Implementations:
//
//   - Local Store (lstore): a thin, thread-safe wrapper around a db.KVDB engine.
//     Available in "github.com/ValentinKolb/kvcache/lib/store/lstore".
//
//   - Redis Store (rstore): a client for a Redis (or Redis compatible) server.
//     Available in "github.com/ValentinKolb/kvcache/lib/store/rstore".
//
//   - RPC Store: a client for a `kvcache serve` process.
//     Available in "github.com/ValentinKolb/kvcache/rpc/client".
//
// The testing sub package provides a conformance suite (RunIStoreTests) that all
// implementations are verified against.
package store

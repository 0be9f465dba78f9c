// Package maple implements a sharded in-memory key-value engine that satisfies the
// db.KVDB interface. It is the engine behind the local store (lstore) and therefore
// behind every in-process cache and every shard served by `kvcache serve`.
//
// The package focuses on:
//   - Concurrent access through sharding and lock-free maps
//   - Plain values, integer counters and append-only lists under one key space
//   - Optional deadlines for entries written with SetNX (used for locks)
//
// Key Components:
//
//   - mapleImpl: The central structure implementing db.KVDB. Keys are hashed with a
//     per-instance seed (FNV-1a, see the util package) and mapped onto a fixed number
//     of shards.
//
//   - Shard: A partition of the key space backed by an xsync.MapOf. All read-modify-write
//     operations (SetNX, Incr, RPush) run inside the map's Compute callback and are
//     therefore atomic per key.
//
//   - Entry: Either a plain value or a list plus an optional deadline. Lists are only
//     ever appended to, which allows readers to copy a consistent prefix without locking.
//
// Expiry:
//
//	Entries with a deadline are invisible as soon as the deadline has passed. A background
//	sweeper removes them physically every GCInterval. The clock is injectable through
//	DBOptions.Now so that tests can move time forward deterministically.
//
// Usage Example:
//
//	database := maple.NewMapleDB(nil)
//	defer database.Close()
//
//	n, _ := database.Incr("Cache.store")
//	_, _ = database.RPush("Cache.store:inputs", []byte(`["foo"]`))
//	inputs, _ := database.LRange("Cache.store:inputs", 0, -1)
package maple

// Package lstore implements a local, in-memory, single-node key-value store based on the
// store.IStore interface. It is a thin wrapper around any db.KVDB implementation.
// Data is stored entirely in memory and is not persisted between process restarts.
//
// Key Features:
//   - Pure in-memory storage without persistence
//   - Direct integration with db.KVDB implementations
//   - Feature detection to handle unsupported operations gracefully
//   - Thread-safe operations for concurrent access (as safe as the engine)
//
// Feature Detection:
//
//	Before executing an operation, the store checks if the underlying engine supports the
//	requested feature through the SupportsFeature method. Unsupported operations return
//	a store.Error with RetCUnsupportedOperation instead of failing silently.
//
// The returned store implements io.Closer; closing it closes the engine.
//
// Usage Example:
//
//	factory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	s := lstore.NewLocalStore(factory)
//
//	n, err := s.Incr("Cache.store")
//	values, err := s.LRange("Cache.store:inputs", 0, -1)
package lstore

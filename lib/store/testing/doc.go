// Package testing provides a conformance suite for store.IStore implementations.
//
// Example usage:
//
//	storetesting.RunIStoreTests(t, "LocalStore", func(t *testing.T) (store.IStore, func()) {
//		s := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
//		return s, func() { _ = s.(io.Closer).Close() }
//	})
package testing

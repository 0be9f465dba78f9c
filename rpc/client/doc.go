// Package client implements the RPC client for the kvcache store server.
// It provides an implementation of the store.IStore interface that forwards every
// operation to a remote server via RPC, so the cache, the call recorder and the
// lock manager can run against a shared store from several processes.
//
// Key Components:
//
//   - NewRPCStore: Factory function that creates a client implementing the store.IStore
//     interface. This client forwards all operations to remote servers via the configured
//     transport layer.
//
// Error Handling:
//
//	All errors are *store.Error values. A request that cannot be delivered (connection
//	refused, timeout, retries exhausted) is reported with store.RetCUnreachable, errors
//	raised by the remote store keep their original code (e.g. store.RetCWrongType).
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//		Endpoints:     []string{"http://localhost:8080"},
//		TimeoutSecond: 5,
//		RetryCount:    3,
//	}
//
//	// Create store client
//	s, _ := client.NewRPCStore(1, config, http.NewHttpClientTransport(), serializer.NewBinarySerializer())
//
//	// Use the store
//	s.Set("mykey", []byte("myvalue"))
//	value, exists, _ := s.Get("mykey")
//
//	// Locks work on top of any store
//	lm := lockmgr.NewLockManager(s)
//
// Thread Safety:
//
//	The client is thread-safe and can be used concurrently from multiple goroutines
//	without additional synchronization.
package client

// Package server implements the kvcache server. It hosts in-memory stores
// (lstore on the maple engine) for remote clients, so several processes can
// share one store and therefore one call log.
//
// Every configured shard id is an independent store. A request names its shard
// (the transport routes it), is decoded by the serializer and handed to the
// shard's IRPCServerAdapter, which calls the store and encodes the result. Store
// errors are answered with their store.RetCode, so rpc clients restore the same
// *store.Error a local caller would see. Unknown shards and undecodable requests
// are answered with store.RetCInvalidOperation.
//
// Locks need no server support: lockmgr works on top of any store.IStore,
// including the rpc client, through SetNX and Delete.
//
// Example:
//
//	s := server.NewRPCServer(common.ServerConfig{
//		Shards:        []common.ServerShard{{ShardID: 100, Type: common.ShardTypeLocalIStore}},
//		Endpoint:      "0.0.0.0:8080",
//		TimeoutSecond: 5,
//		LogLevel:      "info",
//	}, http.NewHttpServerTransport(), serializer.NewBinarySerializer())
//
//	// blocks until ctx is done, then closes all stores
//	err := s.Serve(ctx)
//
// Requests are handled concurrently, the stores are safe for concurrent use.
package server

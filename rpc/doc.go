// Package rpc lets several processes share one in-memory kvcache store. A
// `kvcache serve` process hosts the stores, clients reach them through
// rpc/client, which implements store.IStore like every other backend.
//
// Request path:
//
//	client.NewRPCStore -> serializer -> transport/http (POST /{shardId})
//	  -> server.RPCServer -> IRPCServerAdapter -> store.IStore (lstore)
//
// Sub packages:
//
//   - common: the Message envelope, client and server config, logger setup
//   - serializer: binary, json and gob encodings of Message
//   - transport: client and server transport interfaces, implemented by http, tcp and unix
//   - server: shards, request routing and the store adapter
//   - client: the store.IStore implementation over a transport
package rpc

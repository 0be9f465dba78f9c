// Package transport defines how serialized messages travel between client and
// server. A transport only moves bytes and knows the target shard of a request,
// encoding is the job of package serializer.
//
// A server transport receives requests and hands them to a ServerHandleFunc
// registered by the server, a client transport sends a request to one of the
// configured endpoints and returns the raw response.
//
// Implementations:
//
//   - http: POST /{shardId}, also serves the Prometheus metrics of the server
//   - tcp, unix: framed sockets built on package base
//
// Every server owns its data, so the endpoints of a client are a failover list:
// all requests go to one endpoint and a request that may have reached a server is
// never sent again.
package transport

// Package http implements an HTTP-based transport layer for RPC communication
// between kvcache clients and servers. It provides concrete implementations
// of the transport interfaces defined in the parent package.
//
// The package focuses on:
//   - Client-side HTTP transport for sending RPC requests to servers
//   - Server-side HTTP transport for receiving and handling RPC requests
//   - Failover across multiple server endpoints
//   - Request routing based on shard IDs (POST /{shardId})
//   - Prometheus metrics endpoint (GET /metrics)
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport interface, managing
//     connections to server endpoints. All requests go to one active endpoint.
//     If it refuses the connection, the next endpoint becomes active and the
//     request is tried again after an exponential backoff
//     (github.com/cenkalti/backoff/v5). Every server holds its own data, so the
//     endpoints are alternatives, not replicas. A request that may have reached
//     a server (timeout, error status, broken response) is never sent again.
//
//   - httpServerTransport: Implements IRPCServerTransport interface, setting up
//     an HTTP server that routes incoming requests to the appropriate handler
//     based on the shard ID specified in the URL path. It also implements
//     http.Handler. All metrics of the default github.com/VictoriaMetrics/metrics
//     set (including the call metrics of package instrument) are served under
//     /metrics.
//
// Thread Safety:
//
//	The client transport is thread-safe and can be used concurrently. The
//	active endpoint is switched with an atomic compare-and-swap.
package http

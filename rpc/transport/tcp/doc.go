// Package tcp implements the TCP socket transport of the kvcache RPC system
// on top of package base (framing, request IDs, failover, graceful shutdown).
//
// Endpoints are host:port, optionally prefixed with tcp://. Connections have
// TCP_NODELAY and keep-alive (30s) enabled on both sides.
package tcp

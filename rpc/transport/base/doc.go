// Package base provides the transport core shared by the socket transports (tcp, unix).
// It implements client and server transports on top of any net.Conn; the protocol
// specific parts (dialing, listening, socket options) are injected as connectors.
//
// Wire format: every request and response is one frame
//
//	shardId (uint64) | requestID (uint64) | length (uint32) | payload
//
// all numbers big endian. A response carries the request ID of its request, so one
// connection serves any number of concurrent requests.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: protocol specific operations.
//
//   - clientTransport: keeps one connection to the active endpoint. A reader goroutine
//     hands responses to the waiting requests by request ID. If the active endpoint can
//     not be connected, the next endpoint becomes active and the request is tried again
//     (exponential backoff, github.com/cenkalti/backoff/v5). The endpoints are
//     independent servers, not replicas. Once a frame is written it is never sent again,
//     a timeout or a lost connection is returned to the caller.
//
//   - serverTransport: accepts connections and handles up to maxWorkersPerConn requests
//     of a connection concurrently (counting semaphore). Frames are counted in
//     kvcache_rpc_frames_total{transport="tcp|unix"}. Listen returns after ctx is done and
//     all connections are closed.
//
// Thread Safety:
//
//	All public methods are thread-safe. Writes to a connection are serialized by a mutex.
package base

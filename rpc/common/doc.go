// Package common provides the data structures shared by the rpc server and client.
//
// The package focuses on:
//   - Message protocol definition for client/server communication
//   - Configuration structures for client and server components
//   - Custom logging implementation plugged into the dragonboat logger facade
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication, with a flexible
//     structure that adapts to the different store operations. Includes factory
//     methods for all request and response messages. Errors travel as message
//     plus store.RetCode, so Message.Error restores the typed *store.Error on the
//     client side.
//
//   - MessageType: Enumeration of all operations (set, get, incr, rpush, lrange,
//     flushdb, setnx, delete, info) and the control messages error and success.
//
//   - ServerConfig: Configuration of the server: shards, endpoint, timeout and
//     log level.
//
//   - ClientConfig: Configuration for client components, controlling endpoints,
//     timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation registered as factory of
//     github.com/lni/dragonboat/v4/logger, used by every package of the module.
package common

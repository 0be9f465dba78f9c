// Package unix implements the Unix domain socket transport of the kvcache RPC system
// on top of package base. It is meant for clients on the same machine as the server.
//
// Endpoints are socket paths, optionally prefixed with unix://. The server removes a
// stale socket file before it listens; closing the listener removes the file.
package unix

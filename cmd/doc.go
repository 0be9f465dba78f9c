// Package cmd implements the command-line interface for kvcache. It provides a
// hierarchical command structure with operations for running the store server
// and for using the cache as a client.
//
// The package is organized into several subpackages:
//
//   - cache: Commands for cache operations (store, get, replay, bench)
//   - serve: Command for starting and configuring the kvcache server
//   - util: Shared utilities for command-line processing, configuration and
//     backend selection (internal use)
//
// All flags can also be set with environment variables of the form
// KVCACHE_<FLAG> (e.g. KVCACHE_BACKEND=redis), .env and .env.local files in the
// working directory are loaded as well.
//
// Example session:
//
//	kvcache serve --shards 100=lstore &
//	kvcache cache store foo 42 --parse
//	kvcache cache get <key> --as str
//	kvcache cache replay
//
// See kvcache -help for a list of all commands.
package cmd

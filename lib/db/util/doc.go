// Package util provides small helpers shared by db.KVDB engines.
//
// The package contains:
//   - functions: seed generation, FNV-1a string hashing and shard selection
//   - stats: summary statistics used to report how evenly keys are spread over shards
package util

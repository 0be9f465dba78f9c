package db

import (
	"errors"
	"time"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMaple Implementation = "maple"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureSet    Feature = 1 << iota // Support for Set operations
	FeatureGet                        // Support for Get operations
	FeatureIncr                       // Support for Incr operations
	FeatureRPush                      // Support for RPush operations
	FeatureLRange                     // Support for LRange operations
	FeatureSetNX                      // Support for SetNX operations (with ttl)
	FeatureDelete                     // Support for Delete operations
	FeatureFlush                      // Support for Flush operations
)

func (f Feature) String() string {
	switch f {
	case FeatureSet:
		return "Set"
	case FeatureGet:
		return "Get"
	case FeatureIncr:
		return "Incr"
	case FeatureRPush:
		return "RPush"
	case FeatureLRange:
		return "LRange"
	case FeatureSetNX:
		return "SetNX"
	case FeatureDelete:
		return "Delete"
	case FeatureFlush:
		return "Flush"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	Keys              int            `json:"keys"`
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrWrongType is returned when an operation is applied to a key holding the other kind of value
	// (e.g. RPush on a string or Incr on a list).
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")
	// ErrNotInteger is returned by Incr if the stored value is not a base-10 int64 or would overflow.
	ErrNotInteger = errors.New("value is not an integer or out of range")
)

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for key-value database implementations.
// A key holds either a plain value (written by Set, SetNX and Incr) or a list (written by RPush).
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates a plain value for the given key.
	// If the key already exists (no matter the kind of value), the old value is overwritten.
	Set(key string, value []byte)

	// SetNX inserts a plain value only if the key does not exist (or its ttl has passed).
	// A ttl of zero means the entry never expires. The return value reports whether the value was written.
	SetNX(key string, value []byte, ttl time.Duration) (ok bool)

	// Incr atomically increments the integer stored at key and returns the new value.
	// A missing key is treated as 0.
	Incr(key string) (value int64, err error)

	// RPush appends the value to the tail of the list stored at key and returns the new length.
	// A missing key is created as an empty list first.
	RPush(key string, value []byte) (length int64, err error)

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(key string)

	// Flush removes all keys.
	Flush()

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the plain value for an exact key.
	// The boolean return value indicates whether a value for the key was found.
	// The returned slice is a copy and safe to modify.
	Get(key string) (value []byte, loaded bool, err error)

	// LRange returns the elements of the list at key between start and stop (both inclusive).
	// Negative indices count from the tail (-1 is the last element). Out of range indices are
	// clamped, a missing key yields an empty result.
	LRange(key string, start, stop int64) (values [][]byte, err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close closes the database.
	Close() (err error)
}

// ClampRange converts redis style range bounds (inclusive, negative = from tail)
// for a list of length n into a half open interval [from, to).
// ok is false if the range is empty.
func ClampRange(n, start, stop int64) (from, to int64, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop + 1, true
}

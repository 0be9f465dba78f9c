package util

import (
	"crypto/rand"
	"encoding/binary"
	"github.com/cespare/xxhash/v2"
	"time"
)

// GenerateSeed returns a random seed for shard selection.
// If the system random source fails, the current time is used instead.
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// UintKey is the hashed representation of a string key
type UintKey uint64

// HashString hashes s with xxhash. The seed is mixed into the result
// (splitmix64 finalizer), so two engines with different seeds spread the same keys differently.
func HashString(s string, seed uint64) UintKey {
	h := xxhash.Sum64String(s) ^ seed
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return UintKey(h)
}

// ShardIndex maps a hashed key onto one of n shards
func ShardIndex(key UintKey, n int) int {
	return int(uint64(key) % uint64(n))
}

package maple

import (
	"github.com/ValentinKolb/kvcache/lib/db"
	"github.com/ValentinKolb/kvcache/lib/db/engines/maple/internal"
	"github.com/ValentinKolb/kvcache/lib/db/util"
	"math"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultGCInterval = time.Second // Default interval between sweeps for expired entries
	entryOverhead     = 48          // rough per entry bookkeeping (key header, kind, deadline)
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl implements a sharded in-memory database
type mapleImpl struct {
	seed   uint64            // Seed for the shard hash
	shards []*internal.Shard // Array of shards
	now    func() time.Time  // Clock used for ttl handling

	// garbage collection
	gcInterval  time.Duration
	gcIsRunning atomic.Bool
	gcStop      chan struct{}
	gcDone      sync.WaitGroup
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards  int              // Number of shards (0 = runtime.NumCPU())
	GCInterval time.Duration    // Time between sweeps for expired entries (0 = default: 1 sec)
	Now        func() time.Time // Clock (nil = time.Now)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards:  runtime.NumCPU(),
		GCInterval: defaultGCInterval,
		Now:        time.Now,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
func NewMapleDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}
	if opts.GCInterval <= 0 {
		opts.GCInterval = defaultGCInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	shards := make([]*internal.Shard, opts.NumShards)
	for i := range shards {
		shards[i] = internal.NewShard()
	}

	newDB := &mapleImpl{
		seed:       util.GenerateSeed(),
		shards:     shards,
		now:        opts.Now,
		gcInterval: opts.GCInterval,
		gcStop:     make(chan struct{}),
	}

	newDB.startGC()

	return newDB
}

// shardFor returns the shard responsible for the key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) shardFor(key string) *internal.Shard {
	return maple.shards[util.ShardIndex(util.HashString(key, maple.seed), len(maple.shards))]
}

// nowNano returns the current time of the configured clock in unix nanoseconds
func (maple *mapleImpl) nowNano() int64 {
	return maple.now().UnixNano()
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or overwrites a plain value.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Set(key string, value []byte) {
	// Copy value to prevent memory corruption
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	maple.shardFor(key).Data.Store(key, internal.Entry{
		Kind:  internal.KindValue,
		Value: valueCopy,
	})
}

// SetNX writes a plain value only if no live entry exists for the key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetNX(key string, value []byte, ttl time.Duration) bool {
	now := maple.nowNano()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	var expireAt int64
	if ttl > 0 {
		expireAt = now + ttl.Nanoseconds()
	}

	written := false
	maple.shardFor(key).Data.Compute(key, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		if loaded && !old.Expired(now) {
			return old, false
		}
		written = true
		return internal.Entry{
			Kind:     internal.KindValue,
			Value:    valueCopy,
			ExpireAt: expireAt,
		}, false
	})
	return written
}

// Incr increments the base-10 integer stored at key.
//
// Thread-safety: This method uses the atomic Compute of the shard map.
func (maple *mapleImpl) Incr(key string) (int64, error) {
	now := maple.nowNano()

	var (
		result int64
		err    error
	)
	maple.shardFor(key).Data.Compute(key, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		live := loaded && !old.Expired(now)

		var current int64
		if live {
			if old.Kind != internal.KindValue {
				err = db.ErrWrongType
				return old, false
			}
			n, parseErr := strconv.ParseInt(string(old.Value), 10, 64)
			if parseErr != nil || n == math.MaxInt64 {
				err = db.ErrNotInteger
				return old, false
			}
			current = n
		}

		result = current + 1
		entry := internal.Entry{
			Kind:  internal.KindValue,
			Value: strconv.AppendInt(nil, result, 10),
		}
		// a live counter keeps its deadline
		if live {
			entry.ExpireAt = old.ExpireAt
		}
		return entry, false
	})
	return result, err
}

// RPush appends a value to the list stored at key.
//
// Thread-safety: This method uses the atomic Compute of the shard map.
func (maple *mapleImpl) RPush(key string, value []byte) (int64, error) {
	now := maple.nowNano()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	var (
		length int64
		err    error
	)
	maple.shardFor(key).Data.Compute(key, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		if !loaded || old.Expired(now) {
			length = 1
			return internal.Entry{
				Kind: internal.KindList,
				List: [][]byte{valueCopy},
			}, false
		}
		if old.Kind != internal.KindList {
			err = db.ErrWrongType
			return old, false
		}

		/*
			Note: readers only ever see the prefix of the backing array that was published with
			their snapshot of the entry, so appending in place is safe.
		*/
		old.List = append(old.List, valueCopy)
		length = int64(len(old.List))
		return old, false
	})
	return length, err
}

// Delete removes the key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Delete(key string) {
	maple.shardFor(key).Data.Delete(key)
}

// Flush removes all keys from all shards.
//
// Thread-safety: This method is thread-safe, but not atomic across shards. Writes that race
// with Flush may survive it.
func (maple *mapleImpl) Flush() {
	for _, shard := range maple.shards {
		shard.Data.Clear()
	}
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves the plain value for a key. The returned value is a copy.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Get(key string) ([]byte, bool, error) {
	entry, ok := maple.load(key)
	if !ok {
		return nil, false, nil
	}
	if entry.Kind != internal.KindValue {
		return nil, false, db.ErrWrongType
	}

	data := make([]byte, len(entry.Value))
	copy(data, entry.Value)
	return data, true, nil
}

// LRange returns a copy of the requested slice of the list stored at key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) LRange(key string, start, stop int64) ([][]byte, error) {
	entry, ok := maple.load(key)
	if !ok {
		return [][]byte{}, nil
	}
	if entry.Kind != internal.KindList {
		return nil, db.ErrWrongType
	}

	from, to, ok := db.ClampRange(int64(len(entry.List)), start, stop)
	if !ok {
		return [][]byte{}, nil
	}

	values := make([][]byte, 0, to-from)
	for _, item := range entry.List[from:to] {
		itemCopy := make([]byte, len(item))
		copy(itemCopy, item)
		values = append(values, itemCopy)
	}
	return values, nil
}

// load returns the live entry for key. Expired entries are treated as missing.
func (maple *mapleImpl) load(key string) (internal.Entry, bool) {
	entry, ok := maple.shardFor(key).Data.Load(key)
	if !ok || entry.Expired(maple.nowNano()) {
		return internal.Entry{}, false
	}
	return entry, true
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// startGC starts the sweeper goroutine; if it is already running this function does nothing
func (maple *mapleImpl) startGC() {
	if maple.gcIsRunning.CompareAndSwap(false, true) {
		maple.gcDone.Add(1)
		go maple.garbageCollector()
	}
}

// stopGC stops the sweeper and waits for it to exit. The gc can't be started again afterwards.
func (maple *mapleImpl) stopGC() {
	if maple.gcIsRunning.CompareAndSwap(true, false) {
		close(maple.gcStop)
		maple.gcDone.Wait()
	}
}

// garbageCollector periodically removes expired entries from all shards
func (maple *mapleImpl) garbageCollector() {
	defer maple.gcDone.Done()

	ticker := time.NewTicker(maple.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-maple.gcStop:
			return
		case <-ticker.C:
			maple.sweep()
		}
	}
}

// sweep removes all entries whose deadline has passed
func (maple *mapleImpl) sweep() {
	now := maple.nowNano()
	for _, shard := range maple.shards {
		var expired []string
		shard.Data.Range(func(key string, entry internal.Entry) bool {
			if entry.Expired(now) {
				expired = append(expired, key)
			}
			return true
		})

		for _, key := range expired {
			// double-check: the entry could have been rewritten in the meantime
			shard.Data.Compute(key, func(e internal.Entry, loaded bool) (internal.Entry, bool) {
				return e, !loaded || e.Expired(now)
			})
		}
	}
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	now := maple.nowNano()

	var (
		keys, lists, sizeBytes, expiring int
		shardSizes                       = make([]float64, len(maple.shards))
	)
	for i, shard := range maple.shards {
		shardSizes[i] = float64(shard.Data.Size())
		shard.Data.Range(func(key string, entry internal.Entry) bool {
			if entry.Expired(now) {
				return true
			}
			keys++
			if entry.Kind == internal.KindList {
				lists++
			}
			if entry.ExpireAt != 0 {
				expiring++
			}
			sizeBytes += len(key) + entry.SizeBytes() + entryOverhead
			return true
		})
	}

	meta := &struct {
		ShardCount        int                    `json:"shard_count"`
		ShardDistribution util.DistributionStats `json:"shard_distribution"`
		Lists             int                    `json:"lists"`
		ExpiringKeys      int                    `json:"expiring_keys"`
		Info              string                 `json:"info"`
	}{
		ShardCount:        len(maple.shards),
		ShardDistribution: util.NewDistributionStats(shardSizes),
		Lists:             lists,
		ExpiringKeys:      expiring,
		Info:              "SizeBytes is an estimate.",
	}

	return db.DatabaseInfo{
		Keys:      keys,
		SizeBytes: sizeBytes,
		DbType:    db.ImplMaple,
		SupportedFeatures: []db.Feature{
			db.FeatureSet, db.FeatureGet, db.FeatureSetNX, db.FeatureDelete,
			db.FeatureIncr, db.FeatureRPush, db.FeatureLRange, db.FeatureFlush,
		},
		Metadata: meta,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeatureSet |
		db.FeatureGet |
		db.FeatureIncr |
		db.FeatureRPush |
		db.FeatureLRange |
		db.FeatureSetNX |
		db.FeatureDelete |
		db.FeatureFlush
	return supportedFeatures&feature == feature
}

// Close stops the garbage collector
func (maple *mapleImpl) Close() error {
	maple.stopGC()
	return nil
}

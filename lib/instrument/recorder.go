package instrument

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/lockmgr"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"sync"
	"time"
)

var (
	log = logger.GetLogger("instrument")
)

const (
	defaultLockTTL  = 30 * time.Second
	defaultLockWait = 10 * time.Second
)

// --------------------------------------------------------------------------
// Failure Policy
// --------------------------------------------------------------------------

// FailurePolicy decides what is recorded when the wrapped operation fails
type FailurePolicy int

const (
	// FailureKeepPartial keeps the counter increment and the input entry of a failed call
	// and appends no output. The input log may then be longer than the output log.
	FailureKeepPartial FailurePolicy = iota
	// FailureRecordError appends "!error: <msg>" to the output log of a failed call,
	// so both logs always have the same length.
	FailureRecordError
)

func (p FailurePolicy) String() string {
	switch p {
	case FailureKeepPartial:
		return "keep-partial"
	case FailureRecordError:
		return "record-error"
	default:
		return "unknown"
	}
}

// ParseFailurePolicy parses the output of FailurePolicy.String
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "keep-partial", "":
		return FailureKeepPartial, nil
	case "record-error":
		return FailureRecordError, nil
	default:
		return FailureKeepPartial, fmt.Errorf("unknown failure policy %q (want keep-partial or record-error)", s)
	}
}

// --------------------------------------------------------------------------
// Recorder
// --------------------------------------------------------------------------

// Recorder holds everything the wrappers need to record calls:
// the store, the per operation locks and the failure policy.
// A Recorder is safe for concurrent use and is shared by all wrapped operations.
// All recorders of a process writing to the same store share their operation locks.
type Recorder struct {
	store    store.IStore
	locks    *xsync.MapOf[string, *sync.Mutex]
	release  sync.Once
	formats  *xsync.MapOf[string, struct{}]
	lockMgr  lockmgr.ILockManager
	lockTTL  time.Duration
	lockWait time.Duration
	policy   FailurePolicy
}

// Option configures a Recorder
type Option func(*Recorder)

// WithFailurePolicy sets what is recorded for failed calls (default FailureKeepPartial)
func WithFailurePolicy(p FailurePolicy) Option {
	return func(r *Recorder) {
		r.policy = p
	}
}

// WithDistributedLock serializes calls of the same operation across all processes sharing the store.
// The lock expires after ttl (0 = default of 30s) so a crashed process can not block the operation forever.
func WithDistributedLock(lm lockmgr.ILockManager, ttl time.Duration) Option {
	return func(r *Recorder) {
		r.lockMgr = lm
		if ttl > 0 {
			r.lockTTL = ttl
		}
	}
}

// WithLockWait limits how long a call waits for the distributed lock (default 10s)
func WithLockWait(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.lockWait = d
		}
	}
}

// NewRecorder creates a Recorder writing to s
func NewRecorder(s store.IStore, opts ...Option) *Recorder {
	r := &Recorder{
		store:    s,
		locks:    acquireStoreLocks(s),
		formats:  xsync.NewMapOf[string, struct{}](),
		lockTTL:  defaultLockTTL,
		lockWait: defaultLockWait,
		policy:   FailureKeepPartial,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the store the recorder writes to
func (r *Recorder) Store() store.IStore {
	return r.store
}

// Policy returns the failure policy of the recorder
func (r *Recorder) Policy() FailurePolicy {
	return r.policy
}

// lock serializes all calls of an operation (per concern).
// The returned function releases the lock.
func (r *Recorder) lock(name string, c Concern) (func(), error) {
	key := LockKey(name, c)

	mu, _ := r.locks.LoadOrCompute(key, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	mu.Lock()

	if r.lockMgr == nil {
		return mu.Unlock, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.lockWait)
	defer cancel()
	ownerID, err := r.lockMgr.WaitLock(ctx, key, r.lockTTL)
	if err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}

	return func() {
		if ok, err := r.lockMgr.ReleaseLock(key, ownerID); err != nil || !ok {
			log.Warningf("release %s: released=%v err=%v", key, ok, err)
		}
		mu.Unlock()
	}, nil
}

// markFormat writes the format marker of an operation's call log once per recorder.
// The marker is only written if it does not exist yet.
func (r *Recorder) markFormat(name string) error {
	if _, ok := r.formats.Load(name); ok {
		return nil
	}
	if _, err := r.store.SetNX(FormatKey(name), []byte(FormatVersion), 0); err != nil {
		return err
	}
	r.formats.Store(name, struct{}{})
	return nil
}

// forget drops the cached format markers, needed after the store was flushed
func (r *Recorder) forget() {
	r.formats.Clear()
}

// Close releases the recorder's share of the operation locks of its store.
// It does not close the store.
func (r *Recorder) Close() {
	r.release.Do(func() {
		releaseStoreLocks(r.store)
	})
}

// Reset flushes the store and forgets all cached state
func (r *Recorder) Reset() error {
	if err := r.store.FlushDB(); err != nil {
		return err
	}
	r.forget()
	return nil
}

// --------------------------------------------------------------------------
// Process wide lock table
// --------------------------------------------------------------------------

// storeLocks are the operation locks of one store, shared by all recorders writing to it
type storeLocks struct {
	refs  int
	locks *xsync.MapOf[string, *sync.Mutex]
}

var (
	storeLocksMu sync.Mutex
	locksByStore = map[store.IStore]*storeLocks{}
)

// acquireStoreLocks returns the lock table of s and registers one more user
func acquireStoreLocks(s store.IStore) *xsync.MapOf[string, *sync.Mutex] {
	storeLocksMu.Lock()
	defer storeLocksMu.Unlock()

	sl, ok := locksByStore[s]
	if !ok {
		sl = &storeLocks{locks: xsync.NewMapOf[string, *sync.Mutex]()}
		locksByStore[s] = sl
	}
	sl.refs++
	return sl.locks
}

// releaseStoreLocks drops the lock table of s once its last user is gone
func releaseStoreLocks(s store.IStore) {
	storeLocksMu.Lock()
	defer storeLocksMu.Unlock()

	sl, ok := locksByStore[s]
	if !ok {
		return
	}
	if sl.refs--; sl.refs <= 0 {
		delete(locksByStore, s)
	}
}

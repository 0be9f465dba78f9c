// Package lockmgr implements named locks on top of any store.IStore.
//
// A lock is a key written with SetNX. Its value is the owner ID of the holder
// (host/pid/uuid), its TTL bounds how long a crashed holder can block others.
// The manager keeps no state of its own, so any number of managers on the same
// store (in one or many processes) see the same locks.
//
// Operations:
//
//   - AcquireLock(key, ttl): one SetNX. Returns false without error if the
//     lock is held by someone else. A ttl of 0 means the lock never expires.
//
//   - WaitLock(ctx, key, ttl): retries AcquireLock with exponential backoff
//     (5ms up to 250ms, github.com/cenkalti/backoff/v5) until it succeeds or ctx
//     ends. A store error ends the wait at once, an expired ctx yields an error
//     matching ErrNotAcquired.
//
//   - ReleaseLock(key, ownerID): deletes the lock if it holds ownerID. Releasing
//     a lock held by another owner returns false, a lock that no longer exists
//     (released or expired) counts as released.
//
// Stores implementing store.ICompareAndDelete (rstore, via a Lua script) release
// in one atomic step. On all other stores the release is Get, compare, Delete: if
// the lock expires between Get and Delete and another owner acquires it in that
// window, that lock is removed. Choose a TTL well above the time a lock is held.
//
// Example:
//
//	lm := lockmgr.NewLockManager(s)
//	owner, err := lm.WaitLock(ctx, "Cache.store:lock", 30*time.Second)
//	if err != nil {
//		return err
//	}
//	defer lm.ReleaseLock("Cache.store:lock", owner)
//
// The instrumentation layer uses it with instrument.WithDistributedLock so that
// processes sharing a store (rstore or the rpc client) record calls one at a time.
package lockmgr

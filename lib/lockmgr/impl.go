package lockmgr

import (
	"bytes"
	"context"
	"errors"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/cenkalti/backoff/v5"
	"github.com/lni/dragonboat/v4/logger"
	"time"
)

var (
	log = logger.GetLogger("lockmgr")

	// ErrNotAcquired is returned by WaitLock if the lock is still held by someone else when it gives up.
	ErrNotAcquired = errors.New("lock not acquired")
)

const (
	waitInitialInterval = 5 * time.Millisecond
	waitMaxInterval     = 250 * time.Millisecond
)

type lockMgrImpl struct {
	store store.IStore
}

func NewLockManager(store store.IStore) ILockManager {
	return &lockMgrImpl{
		store: store,
	}
}

func (lp *lockMgrImpl) AcquireLock(key string, timeout time.Duration) (bool, []byte, error) {
	// Generate owner id (host/pid/uuid)
	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// Try to acquire the lock (by setting the value only if it doesn't exist - atomic operation)
	ok, err := lp.store.SetNX(key, ownerID, timeout)
	if err != nil {
		log.Warningf("acquire %q: %v", key, err)
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	return true, ownerID, nil
}

func (lp *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	// Stores that can compare and delete in one step never remove a lock someone else acquired in between
	if cad, ok := lp.store.(store.ICompareAndDelete); ok {
		deleted, loaded, err := cad.CompareAndDelete(key, ownerID)
		if err != nil || !loaded {
			return err == nil, err
		}
		return deleted, nil
	}

	// Check if the lock exists
	value, ok, err := lp.store.Get(key)
	if err != nil || !ok {
		return err == nil, err
	}

	// Check if the lock is owned by us
	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	// Release the lock
	err = lp.store.Delete(key)
	return err == nil, err
}

func (lp *lockMgrImpl) WaitLock(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = waitInitialInterval
	b.MaxInterval = waitMaxInterval

	attempts := 0
	ownerID, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempts++
		ok, id, err := lp.AcquireLock(key, timeout)
		if err != nil {
			// store errors will not go away by waiting
			return nil, backoff.Permanent(err)
		}
		if !ok {
			return nil, ErrNotAcquired
		}
		return id, nil
	}, backoff.WithBackOff(b))
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ErrNotAcquired) {
			return nil, errors.Join(ErrNotAcquired, err)
		}
		return nil, err
	}

	if attempts > 1 {
		log.Debugf("acquired %q after %d attempts", key, attempts)
	}
	return ownerID, nil
}

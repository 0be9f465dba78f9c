package lockmgr

import (
	"context"
	"errors"
	"github.com/ValentinKolb/kvcache/lib/db"
	"github.com/ValentinKolb/kvcache/lib/db/engines/maple"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/ValentinKolb/kvcache/lib/store/lstore"
	"github.com/ValentinKolb/kvcache/lib/store/rstore"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) store.IStore {
	s := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
	return s
}

func TestAcquireRelease(t *testing.T) {
	lm := NewLockManager(newStore(t))

	ok, owner, err := lm.AcquireLock("Cache.store:lock", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(owner), processTag+"/"), string(owner))

	// second acquire must fail while the lock is held
	ok, other, err := lm.AcquireLock("Cache.store:lock", 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, other)

	// a foreign owner can not release the lock
	released, err := lm.ReleaseLock("Cache.store:lock", []byte("someone else"))
	require.NoError(t, err)
	assert.False(t, released)

	released, err = lm.ReleaseLock("Cache.store:lock", owner)
	require.NoError(t, err)
	assert.True(t, released)

	// releasing a missing lock is fine
	released, err = lm.ReleaseLock("Cache.store:lock", owner)
	require.NoError(t, err)
	assert.True(t, released)
}

func TestLockExpires(t *testing.T) {
	lm := NewLockManager(newStore(t))

	ok, _, err := lm.AcquireLock("expiring", 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		ok, _, err := lm.AcquireLock("expiring", 0)
		return err == nil && ok
	}, time.Second, 5*time.Millisecond)
}

func TestWaitLock(t *testing.T) {
	lm := NewLockManager(newStore(t))

	ok, owner, err := lm.AcquireLock("busy", 0)
	require.NoError(t, err)
	require.True(t, ok)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_, _ = lm.ReleaseLock("busy", owner)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	waited, err := lm.WaitLock(ctx, "busy", 0)
	require.NoError(t, err)
	assert.Len(t, waited, bitLength)
}

func TestWaitLockContextEnds(t *testing.T) {
	lm := NewLockManager(newStore(t))

	ok, _, err := lm.AcquireLock("held", 0)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = lm.WaitLock(ctx, "held", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAcquired), "got %v", err)
}

// failingStore reports every write as unreachable
type failingStore struct {
	store.IStore
}

func (failingStore) SetNX(string, []byte, time.Duration) (bool, error) {
	return false, store.NewError(store.RetCUnreachable, "connection refused")
}

func TestWaitLockStoreError(t *testing.T) {
	lm := NewLockManager(failingStore{IStore: newStore(t)})

	start := time.Now()
	_, err := lm.WaitLock(context.Background(), "x", 0)
	require.Error(t, err)
	assert.True(t, store.IsUnreachable(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestMutualExclusion(t *testing.T) {
	lm := NewLockManager(newStore(t))

	var inside, violations atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				owner, err := lm.WaitLock(context.Background(), "critical", 0)
				if err != nil {
					t.Error(err)
					return
				}
				if inside.Add(1) != 1 {
					violations.Add(1)
				}
				inside.Add(-1)
				if _, err := lm.ReleaseLock("critical", owner); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, violations.Load())
}

func TestReleaseAfterExpiryOverRedis(t *testing.T) {
	server := miniredis.RunT(t)
	s, err := rstore.NewRedisStore(rstore.Config{Addr: server.Addr()})
	require.NoError(t, err)
	defer s.(io.Closer).Close()
	lm := NewLockManager(s)

	ok, first, err := lm.AcquireLock("Cache.store:lock", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// the lock expires and another process takes it
	server.FastForward(2 * time.Second)
	ok, second, err := lm.AcquireLock("Cache.store:lock", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := lm.ReleaseLock("Cache.store:lock", first)
	require.NoError(t, err)
	assert.False(t, released)
	value, err := server.Get("Cache.store:lock")
	require.NoError(t, err)
	assert.Equal(t, string(second), value)

	released, err = lm.ReleaseLock("Cache.store:lock", second)
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, server.Exists("Cache.store:lock"))
}

// casStore only supports releasing through CompareAndDelete
type casStore struct {
	store.IStore
	calls atomic.Int32
}

func (s *casStore) Get(string) ([]byte, bool, error) {
	return nil, false, errors.New("get must not be used to release")
}

func (s *casStore) CompareAndDelete(key string, expected []byte) (bool, bool, error) {
	s.calls.Add(1)
	value, ok, err := s.IStore.Get(key)
	if err != nil || !ok {
		return false, false, err
	}
	if string(value) != string(expected) {
		return false, true, nil
	}
	return true, true, s.IStore.Delete(key)
}

func TestReleaseUsesCompareAndDelete(t *testing.T) {
	s := &casStore{IStore: newStore(t)}
	lm := NewLockManager(s)

	ok, owner, err := lm.AcquireLock("l", 0)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := lm.ReleaseLock("l", []byte("someone else"))
	require.NoError(t, err)
	assert.False(t, released)

	released, err = lm.ReleaseLock("l", owner)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = lm.ReleaseLock("l", owner)
	require.NoError(t, err)
	assert.True(t, released, "a missing lock counts as released")
	assert.Equal(t, int32(3), s.calls.Load())
}

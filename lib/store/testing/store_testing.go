package testing

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory creates a new, empty store for a single sub test.
// The returned cleanup function is called when the sub test ends (may be nil).
type StoreFactory func(t *testing.T) (s store.IStore, cleanup func())

// RunIStoreTests runs the conformance suite for an store.IStore implementation.
func RunIStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		run := func(name string, fn func(t *testing.T, s store.IStore)) {
			t.Run(name, func(t *testing.T) {
				s, cleanup := factory(t)
				if cleanup != nil {
					defer cleanup()
				}
				fn(t, s)
			})
		}

		run("Set&Get", testSetGet)
		run("Incr", testIncr)
		run("RPush&LRange", testRPushLRange)
		run("WrongType", testWrongType)
		run("FlushDB", testFlushDB)
		run("SetNX&Delete", testSetNXDelete)
		run("ConcurrentIncr", testConcurrentIncr)
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	require.NoError(t, s.Set("key", []byte("value")))

	val, ok, err := s.Get("key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), val)

	require.NoError(t, s.Set("key", []byte("other")))
	val, _, err = s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("other"), val)

	val, ok, err = s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)

	binary := []byte{0x00, 0xff, 0xfe, 0x10}
	require.NoError(t, s.Set("binary", binary))
	val, _, err = s.Get("binary")
	require.NoError(t, err)
	assert.Equal(t, binary, val)
}

func testIncr(t *testing.T, s store.IStore) {
	for i := int64(1); i <= 3; i++ {
		n, err := s.Incr("counter")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	val, ok, err := s.Get("counter")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", string(val))

	require.NoError(t, s.Set("text", []byte("abc")))
	_, err = s.Incr("text")
	require.Error(t, err)
	assert.False(t, store.IsUnreachable(err))
}

func testRPushLRange(t *testing.T, s store.IStore) {
	for i := 0; i < 4; i++ {
		n, err := s.RPush("list", []byte(fmt.Sprintf("v%d", i)))
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), n)
	}

	values, err := s.LRange("list", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("v0"), []byte("v1"), []byte("v2"), []byte("v3")}, values)

	values, err = s.LRange("list", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("v1"), []byte("v2")}, values)

	values, err = s.LRange("list", -1, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("v3")}, values)

	values, err = s.LRange("list", 10, 20)
	require.NoError(t, err)
	assert.Empty(t, values)

	values, err = s.LRange("missing", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func testWrongType(t *testing.T, s store.IStore) {
	require.NoError(t, s.Set("plain", []byte("x")))
	_, err := s.RPush("plain", []byte("y"))
	require.Error(t, err)
	assert.Equal(t, store.RetCWrongType, store.CodeOf(err))

	_, err = s.RPush("list", []byte("y"))
	require.NoError(t, err)
	_, _, err = s.Get("list")
	require.Error(t, err)
	assert.Equal(t, store.RetCWrongType, store.CodeOf(err))
}

func testFlushDB(t *testing.T, s store.IStore) {
	require.NoError(t, s.Set("a", []byte("1")))
	_, err := s.Incr("b")
	require.NoError(t, err)
	_, err = s.RPush("c", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.FlushDB())

	_, ok, err := s.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.Get("b")
	require.NoError(t, err)
	assert.False(t, ok)
	values, err := s.LRange("c", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func testSetNXDelete(t *testing.T, s store.IStore) {
	ok, err := s.SetNX("lock", []byte("owner-1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX("lock", []byte("owner-2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	val, _, err := s.Get("lock")
	require.NoError(t, err)
	assert.Equal(t, []byte("owner-1"), val)

	require.NoError(t, s.Delete("lock"))
	require.NoError(t, s.Delete("lock"))

	ok, err = s.SetNX("lock", []byte("owner-2"), 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func testConcurrentIncr(t *testing.T, s store.IStore) {
	const (
		workers = 8
		perWork = 50
	)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				_, err := s.Incr("shared")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	val, _, err := s.Get("shared")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(workers*perWork), string(val))
}

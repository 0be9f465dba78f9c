package rstore

import (
	"github.com/ValentinKolb/kvcache/lib/store"
	storetesting "github.com/ValentinKolb/kvcache/lib/store/testing"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T) (store.IStore, func()) {
	server := miniredis.RunT(t)
	s, err := NewRedisStore(Config{Addr: server.Addr()})
	require.NoError(t, err)
	return s, func() { _ = s.(io.Closer).Close() }
}

func Test(t *testing.T) {
	storetesting.RunIStoreTests(t, "RedisStore", newMiniredisStore)
}

func TestUnreachable(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	_, err := NewRedisStore(Config{Addr: addr, DialTimeout: 200 * time.Millisecond, OpTimeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, store.IsUnreachable(err), "expected unreachable error, got %v", err)
}

func TestServerGoesAway(t *testing.T) {
	server := miniredis.RunT(t)
	s, err := NewRedisStore(Config{Addr: server.Addr(), OpTimeout: 200 * time.Millisecond})
	require.NoError(t, err)
	defer s.(io.Closer).Close()

	server.Close()

	_, err = s.Incr("Cache.store")
	require.Error(t, err)
	assert.True(t, store.IsUnreachable(err), "expected unreachable error, got %v", err)
}

func TestSetNXExpires(t *testing.T) {
	server := miniredis.RunT(t)
	s, err := NewRedisStore(Config{Addr: server.Addr()})
	require.NoError(t, err)
	defer s.(io.Closer).Close()

	ok, err := s.SetNX("lock", []byte("a"), 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	server.FastForward(11 * time.Second)

	ok, err = s.SetNX("lock", []byte("b"), 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfigString(t *testing.T) {
	out := Config{Addr: "redis:6379", Password: "secret"}.withDefaults().String()
	assert.Contains(t, out, "redis:6379")
	assert.Contains(t, out, "set")
	assert.NotContains(t, out, "secret")
}

func TestCompareAndDelete(t *testing.T) {
	server := miniredis.RunT(t)
	s, err := NewRedisStore(Config{Addr: server.Addr()})
	require.NoError(t, err)
	defer s.(io.Closer).Close()
	cad := s.(store.ICompareAndDelete)

	deleted, loaded, err := cad.CompareAndDelete("lock", []byte("a"))
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.False(t, deleted)

	require.NoError(t, s.Set("lock", []byte("b")))
	deleted, loaded, err = cad.CompareAndDelete("lock", []byte("a"))
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.False(t, deleted)
	assert.True(t, server.Exists("lock"))

	deleted, loaded, err = cad.CompareAndDelete("lock", []byte("b"))
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.True(t, deleted)
	assert.False(t, server.Exists("lock"))
}

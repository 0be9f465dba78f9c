package replay

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/cache"
	"github.com/ValentinKolb/kvcache/lib/db"
	"github.com/ValentinKolb/kvcache/lib/db/engines/maple"
	"github.com/ValentinKolb/kvcache/lib/instrument"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/ValentinKolb/kvcache/lib/store/lstore"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func sequentialKeys() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("key-%d", n)
	}
}

func newCache(t *testing.T, opts ...cache.Option) *cache.Cache {
	t.Helper()
	s := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
	c, err := cache.New(s, append([]cache.Option{cache.WithKeyGenerator(sequentialKeys())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func render(t *testing.T, h instrument.Handle) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Replay(h, &buf))
	return buf.Bytes()
}

func TestReplayThreeCalls(t *testing.T) {
	c := newCache(t)
	for _, v := range []int{1, 2, 3} {
		_, err := c.Store(v)
		require.NoError(t, err)
	}

	out := render(t, c.StoreOp())
	newGoldie(t).Assert(t, "three_calls", out)

	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	assert.Len(t, lines, 4, "header plus one line per call")
}

func TestReplayMixedValues(t *testing.T) {
	c := newCache(t)
	for _, v := range []any{"foo", []byte("bar"), 2.5, -7, `say "hi"`} {
		_, err := c.Store(v)
		require.NoError(t, err)
	}
	newGoldie(t).Assert(t, "mixed_values", render(t, c.StoreOp()))
}

func TestReplayNeverCalled(t *testing.T) {
	c := newCache(t)

	_, err := Load(c.StoreOp())
	assert.ErrorIs(t, err, ErrNotFound)

	newGoldie(t).Assert(t, "never_called", render(t, c.StoreOp()))
}

func TestReplayIsIdempotent(t *testing.T) {
	c := newCache(t)
	_, err := c.Store("foo")
	require.NoError(t, err)

	first := render(t, c.StoreOp())
	second := render(t, c.StoreOp())
	assert.Equal(t, first, second)

	_, err = c.Store("bar")
	require.NoError(t, err)
	assert.NotEqual(t, first, render(t, c.StoreOp()))
}

func TestReplayFailedCallKeepPartial(t *testing.T) {
	c := newCache(t)
	_, err := c.Store("a")
	require.NoError(t, err)
	_, err = c.Store(true)
	require.Error(t, err)

	trace, err := Load(c.StoreOp())
	require.NoError(t, err)
	assert.Equal(t, int64(2), trace.Count)
	require.Len(t, trace.Calls, 2)
	assert.False(t, trace.Calls[0].Failed)
	assert.True(t, trace.Calls[1].Failed)
	assert.Empty(t, trace.Calls[1].Output)

	newGoldie(t).Assert(t, "failed_keep_partial", render(t, c.StoreOp()))
}

func TestReplayFailedCallBetweenCalls(t *testing.T) {
	c := newCache(t)
	for _, v := range []any{"a", true, "c"} {
		_, err := c.Store(v)
		if v == true {
			require.Error(t, err)
		} else {
			require.NoError(t, err)
		}
	}

	trace, err := Load(c.StoreOp())
	require.NoError(t, err)
	require.Len(t, trace.Calls, 3)
	assert.Equal(t, Call{Input: `["a"]`, Output: "key-1"}, trace.Calls[0])
	assert.Equal(t, Call{Input: `["true"]`, Failed: true}, trace.Calls[1])
	assert.Equal(t, Call{Input: `["c"]`, Output: "key-2"}, trace.Calls[2])

	newGoldie(t).Assert(t, "failed_between_calls", render(t, c.StoreOp()))
}

func TestReplayFailedCallRecordError(t *testing.T) {
	c := newCache(t, cache.WithRecorderOptions(instrument.WithFailurePolicy(instrument.FailureRecordError)))
	_, err := c.Store(true)
	require.Error(t, err)
	_, err = c.Store("b")
	require.NoError(t, err)

	trace, err := Load(c.StoreOp())
	require.NoError(t, err)
	require.Len(t, trace.Calls, 2)
	assert.True(t, trace.Calls[0].Failed)
	assert.Equal(t, "key-1", trace.Calls[1].Output)

	newGoldie(t).Assert(t, "failed_record_error", render(t, c.StoreOp()))
}

func newStore() store.IStore {
	return lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
}

func TestLoadUnknownFormat(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Set(instrument.CounterKey("op"), []byte("1")))
	require.NoError(t, s.Set(instrument.FormatKey("op"), []byte("2")))

	_, err := LoadName(s, "op")
	assert.ErrorIs(t, err, ErrFormat)

	var buf bytes.Buffer
	assert.ErrorIs(t, ReplayName(s, "op", &buf), ErrFormat)
	assert.Empty(t, buf.String())
}

func TestLoadMalformedEntry(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Set(instrument.CounterKey("op"), []byte("1")))
	_, err := s.RPush(instrument.InputsKey("op"), []byte("('foo',)"))
	require.NoError(t, err)

	_, err = LoadName(s, "op")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestLoadWithoutFormatMarker(t *testing.T) {
	// logs written by count-only wrappers or older writers have no marker
	s := newStore()
	op := instrument.CountCalls(instrument.NewRecorder(s), "counted", func(i int) (int, error) { return i, nil })
	for i := 0; i < 4; i++ {
		_, err := op.Call(i)
		require.NoError(t, err)
	}

	trace, err := Load(op)
	require.NoError(t, err)
	assert.Equal(t, int64(4), trace.Count)
	assert.Empty(t, trace.Calls)

	var buf bytes.Buffer
	require.NoError(t, Replay(op, &buf))
	assert.Equal(t, "counted was called 4 times:\n", buf.String())
}

func TestReplayCallHistoryOnly(t *testing.T) {
	s := newStore()
	op := instrument.CallHistory(instrument.NewRecorder(s), "history.only", func(i int) (string, error) {
		return fmt.Sprintf("r%d", i), nil
	})
	for i := 1; i <= 2; i++ {
		_, err := op.Call(i)
		require.NoError(t, err)
	}

	trace, err := Load(op)
	require.NoError(t, err)
	assert.Equal(t, int64(2), trace.Count)
	require.Len(t, trace.Calls, 2)

	newGoldie(t).Assert(t, "history_only", render(t, op))
}

func TestLoadFailedIndexOutOfRange(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Set(instrument.CounterKey("op"), []byte("1")))
	_, err := s.RPush(instrument.InputsKey("op"), []byte(`["a"]`))
	require.NoError(t, err)
	_, err = s.RPush(instrument.FailedKey("op"), []byte("3"))
	require.NoError(t, err)

	_, err = LoadName(s, "op")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestReplayUnreachable(t *testing.T) {
	var buf bytes.Buffer
	err := ReplayName(unreachableStore{}, "op", &buf)
	assert.True(t, store.IsUnreachable(err))
}

type unreachableStore struct {
	store.IStore
}

func (unreachableStore) Get(string) ([]byte, bool, error) {
	return nil, false, store.NewError(store.RetCUnreachable, "connection refused")
}

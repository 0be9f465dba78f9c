package instrument

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/db"
	"github.com/ValentinKolb/kvcache/lib/db/engines/maple"
	"github.com/ValentinKolb/kvcache/lib/lockmgr"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/ValentinKolb/kvcache/lib/store/lstore"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() store.IStore {
	return lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
}

// logOf reads counter, inputs and outputs of an operation
func logOf(t *testing.T, s store.IStore, name string) (int64, []string, []string) {
	t.Helper()

	var counter int64
	raw, ok, err := s.Get(CounterKey(name))
	require.NoError(t, err)
	if ok {
		counter, err = strconv.ParseInt(string(raw), 10, 64)
		require.NoError(t, err)
	}

	toStrings := func(key string) []string {
		values, err := s.LRange(key, 0, -1)
		require.NoError(t, err)
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = string(v)
		}
		return out
	}
	return counter, toStrings(InputsKey(name)), toStrings(OutputsKey(name))
}

func echo(prefix string) Func[int, string] {
	return func(i int) (string, error) {
		return fmt.Sprintf("%s%d", prefix, i), nil
	}
}

func TestInstrumentRecordsCalls(t *testing.T) {
	s := newStore()
	op := Instrument(NewRecorder(s), "Cache.store", echo("k"))

	for i := 1; i <= 3; i++ {
		out, err := op.Call(i)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("k%d", i), out)
	}

	counter, inputs, outputs := logOf(t, s, "Cache.store")
	assert.Equal(t, int64(3), counter)
	assert.Equal(t, []string{`["1"]`, `["2"]`, `["3"]`}, inputs)
	assert.Equal(t, []string{"k1", "k2", "k3"}, outputs)

	format, ok, err := s.Get(FormatKey("Cache.store"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, FormatVersion, string(format))
}

func TestCountCallsOnly(t *testing.T) {
	s := newStore()
	op := CountCalls(NewRecorder(s), "count.only", echo(""))

	for i := 0; i < 5; i++ {
		_, err := op.Call(i)
		require.NoError(t, err)
	}

	counter, inputs, outputs := logOf(t, s, "count.only")
	assert.Equal(t, int64(5), counter)
	assert.Empty(t, inputs)
	assert.Empty(t, outputs)
}

func TestCallHistoryOnly(t *testing.T) {
	s := newStore()
	op := CallHistory(NewRecorder(s), "history.only", echo("r"))

	_, err := op.Call(7)
	require.NoError(t, err)

	counter, inputs, outputs := logOf(t, s, "history.only")
	assert.Zero(t, counter)
	assert.Equal(t, []string{`["7"]`}, inputs)
	assert.Equal(t, []string{"r7"}, outputs)
}

func TestStackedWrappers(t *testing.T) {
	s := newStore()
	rec := NewRecorder(s)
	inner := CallHistory(rec, "Cache.store", echo("k"))
	op := CountCalls(rec, "Cache.store", inner.Func())

	assert.Equal(t, "Cache.store", op.Name())
	assert.Same(t, s, op.Store())

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_, err := op.Call(w*100 + i)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	counter, inputs, outputs := logOf(t, s, "Cache.store")
	assert.Equal(t, int64(100), counter)
	require.Len(t, inputs, 100)
	require.Len(t, outputs, 100)
	for i := range inputs {
		args, err := DecodeArgs([]byte(inputs[i]))
		require.NoError(t, err)
		assert.Equal(t, "k"+args[0], outputs[i], "entry %d", i)
	}
}

func TestConcurrentCallsKeepLogsAligned(t *testing.T) {
	s := newStore()
	op := Instrument(NewRecorder(s), "aligned", echo("out-"))

	const workers, calls = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < calls; i++ {
				_, err := op.Call(w*1000 + i)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	counter, inputs, outputs := logOf(t, s, "aligned")
	assert.Equal(t, int64(workers*calls), counter)
	require.Len(t, inputs, workers*calls)
	require.Len(t, outputs, workers*calls)
	for i := range inputs {
		args, err := DecodeArgs([]byte(inputs[i]))
		require.NoError(t, err)
		assert.Equal(t, "out-"+args[0], outputs[i], "entry %d", i)
	}
}

var errBoom = errors.New("boom")

func failOn(bad int) Func[int, string] {
	return func(i int) (string, error) {
		if i == bad {
			return "", errBoom
		}
		return strconv.Itoa(i), nil
	}
}

func TestFailureKeepPartial(t *testing.T) {
	s := newStore()
	op := Instrument(NewRecorder(s), "partial", failOn(2))

	_, err := op.Call(1)
	require.NoError(t, err)
	_, err = op.Call(2)
	assert.Same(t, errBoom, err, "error of the wrapped operation must be returned unmodified")

	_, err = op.Call(3)
	require.NoError(t, err)

	counter, inputs, outputs := logOf(t, s, "partial")
	assert.Equal(t, int64(3), counter)
	assert.Equal(t, []string{`["1"]`, `["2"]`, `["3"]`}, inputs)
	assert.Equal(t, []string{"1", "3"}, outputs)

	failed, err := s.LRange(FailedKey("partial"), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("1")}, failed, "position of the failed input")
}

func TestFailureRecordError(t *testing.T) {
	s := newStore()
	rec := NewRecorder(s, WithFailurePolicy(FailureRecordError))
	op := Instrument(rec, "recorded", failOn(2))

	for i := 1; i <= 3; i++ {
		_, err := op.Call(i)
		if i == 2 {
			assert.ErrorIs(t, err, errBoom)
		} else {
			assert.NoError(t, err)
		}
	}

	counter, inputs, outputs := logOf(t, s, "recorded")
	assert.Equal(t, int64(3), counter)
	assert.Len(t, inputs, 3)
	assert.Equal(t, []string{"1", "!error: boom", "3"}, outputs)
}

// unreachableStore fails every operation
type unreachableStore struct {
	store.IStore
}

func (unreachableStore) Incr(string) (int64, error) {
	return 0, store.NewError(store.RetCUnreachable, "connection refused")
}

func TestUnreachableStoreAbortsCall(t *testing.T) {
	called := false
	op := Instrument(NewRecorder(unreachableStore{IStore: newStore()}), "down", func(i int) (int, error) {
		called = true
		return i, nil
	})

	_, err := op.Call(1)
	require.Error(t, err)
	assert.True(t, store.IsUnreachable(err))
	assert.False(t, called)
}

func TestFuncN(t *testing.T) {
	s := newStore()
	add := FuncN(func(args ...any) (int, error) {
		sum := 0
		for _, a := range args {
			sum += a.(int)
		}
		return sum, nil
	})
	op := Instrument(NewRecorder(s), "add", add)

	out, err := op.Call(Args{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	_, inputs, outputs := logOf(t, s, "add")
	assert.Equal(t, []string{`["1","2"]`}, inputs)
	assert.Equal(t, []string{"3"}, outputs)
}

func TestDistributedLock(t *testing.T) {
	s := newStore()
	lm := lockmgr.NewLockManager(s)

	// two recorders play two processes sharing one store
	var inside, overlaps atomic.Int32
	fn := func(i int) (int, error) {
		if inside.Add(1) != 1 {
			overlaps.Add(1)
		}
		time.Sleep(time.Millisecond)
		inside.Add(-1)
		return i, nil
	}
	ops := []*Op[int, int]{
		Instrument(NewRecorder(s, WithDistributedLock(lm, time.Second)), "shared", fn),
		Instrument(NewRecorder(s, WithDistributedLock(lm, time.Second)), "shared", fn),
	}

	var wg sync.WaitGroup
	for p, op := range ops {
		wg.Add(1)
		go func(p int, op *Op[int, int]) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, err := op.Call(p*100 + i)
				assert.NoError(t, err)
			}
		}(p, op)
	}
	wg.Wait()

	assert.Zero(t, overlaps.Load())
	counter, inputs, outputs := logOf(t, s, "shared")
	assert.Equal(t, int64(20), counter)
	assert.Len(t, inputs, 20)
	assert.Len(t, outputs, 20)

	// the lock is released after each call
	_, ok, err := s.Get(LockKey("shared", ConcernAll))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordersShareOperationLocks(t *testing.T) {
	s := newStore()
	slowEven := func(i int) (string, error) {
		if i%2 == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		return fmt.Sprintf("out-%d", i), nil
	}

	// two caches on the same store in one process
	recA, recB := NewRecorder(s), NewRecorder(s)
	defer recA.Close()
	defer recB.Close()
	ops := []*Op[int, string]{
		Instrument(recA, "Cache.store", slowEven),
		Instrument(recB, "Cache.store", slowEven),
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ops[i%2].Call(i)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	counter, inputs, outputs := logOf(t, s, "Cache.store")
	assert.Equal(t, int64(20), counter)
	require.Len(t, inputs, 20)
	require.Len(t, outputs, 20)
	for i := range inputs {
		args, err := DecodeArgs([]byte(inputs[i]))
		require.NoError(t, err)
		assert.Equal(t, "out-"+args[0], outputs[i], "entry %d", i)
	}
}

func TestRecorderCloseReleasesLocks(t *testing.T) {
	s := newStore()
	a, b := NewRecorder(s), NewRecorder(s)
	assert.Same(t, a.locks, b.locks)

	a.Close()
	a.Close()
	storeLocksMu.Lock()
	_, ok := locksByStore[s]
	storeLocksMu.Unlock()
	assert.True(t, ok, "b still uses the lock table")

	b.Close()
	storeLocksMu.Lock()
	_, ok = locksByStore[s]
	storeLocksMu.Unlock()
	assert.False(t, ok)

	other := NewRecorder(newStore())
	defer other.Close()
	assert.NotSame(t, b.locks, other.locks)
}

func TestRecorderReset(t *testing.T) {
	s := newStore()
	rec := NewRecorder(s)
	op := Instrument(rec, "reset", echo(""))

	_, err := op.Call(1)
	require.NoError(t, err)
	require.NoError(t, rec.Reset())

	_, err = op.Call(2)
	require.NoError(t, err)

	counter, inputs, _ := logOf(t, s, "reset")
	assert.Equal(t, int64(1), counter)
	assert.Equal(t, []string{`["2"]`}, inputs)

	_, ok, err := s.Get(FormatKey("reset"))
	require.NoError(t, err)
	assert.True(t, ok, "format marker must be rewritten after a reset")
}

func TestParseFailurePolicy(t *testing.T) {
	for _, p := range []FailurePolicy{FailureKeepPartial, FailureRecordError} {
		parsed, err := ParseFailurePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	_, err := ParseFailurePolicy("rollback")
	assert.Error(t, err)
}

func TestCallMetrics(t *testing.T) {
	rec := NewRecorder(newStore())
	fail := errors.New("boom")
	op := CountCalls(rec, "metrics.test", func(i int) (int, error) {
		if i < 0 {
			return 0, fail
		}
		return i, nil
	})

	_, _ = op.Call(1)
	_, _ = op.Call(2)
	_, _ = op.Call(-1)

	labels := `{op="metrics.test",wrapper="count"}`
	assert.Equal(t, uint64(3), metrics.GetOrCreateCounter("kvcache_calls_total"+labels).Get())
	assert.Equal(t, uint64(1), metrics.GetOrCreateCounter("kvcache_call_errors_total"+labels).Get())

	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, false)
	assert.Contains(t, buf.String(), `kvcache_call_duration_seconds_count{op="metrics.test",wrapper="count"} 3`)
}

// slowOutputStore delays appends to output logs
type slowOutputStore struct {
	store.IStore
	delay time.Duration
}

func (s slowOutputStore) RPush(key string, value []byte) (int64, error) {
	if strings.HasSuffix(key, ":outputs") {
		time.Sleep(s.delay)
	}
	return s.IStore.RPush(key, value)
}

func TestCallMetricsIncludeRecording(t *testing.T) {
	rec := NewRecorder(&slowOutputStore{IStore: newStore(), delay: 30 * time.Millisecond})
	defer rec.Close()
	op := Instrument(rec, "metrics.slow", echo(""))

	_, err := op.Call(1)
	require.NoError(t, err)

	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, false)
	prefix := `kvcache_call_duration_seconds_sum{op="metrics.slow",wrapper="instrument"} `
	var sum float64
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, prefix) {
			sum, err = strconv.ParseFloat(strings.TrimPrefix(line, prefix), 64)
			require.NoError(t, err)
		}
	}
	assert.GreaterOrEqual(t, sum, 0.03)
}

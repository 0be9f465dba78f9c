package instrument

import (
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/store"
	"strconv"
	"time"
)

// Func is an operation that can be wrapped. Operations with more than one argument
// take a struct implementing Arguments, or Args (see FuncN).
type Func[A, R any] func(A) (R, error)

// FuncN adapts a variadic operation to Func[Args, R]
func FuncN[R any](fn func(args ...any) (R, error)) Func[Args, R] {
	return func(a Args) (R, error) {
		return fn(a...)
	}
}

// Handle identifies an instrumented operation: its name and the store its call log lives in
type Handle interface {
	Name() string
	Store() store.IStore
}

// Op is a wrapped operation. It is a first class value: Func returns it as a plain Func
// so wrappers can be stacked.
type Op[A, R any] struct {
	rec     *Recorder
	name    string
	concern Concern
	fn      Func[A, R]
	metrics *opMetrics
}

// CountCalls wraps fn so that every call increments the counter <name>
func CountCalls[A, R any](rec *Recorder, name string, fn Func[A, R]) *Op[A, R] {
	return newOp(rec, name, ConcernCount, fn)
}

// CallHistory wraps fn so that every call appends its input to <name>:inputs
// and, on success, its result to <name>:outputs
func CallHistory[A, R any](rec *Recorder, name string, fn Func[A, R]) *Op[A, R] {
	return newOp(rec, name, ConcernHistory, fn)
}

// Instrument combines CountCalls and CallHistory under a single lock
func Instrument[A, R any](rec *Recorder, name string, fn Func[A, R]) *Op[A, R] {
	return newOp(rec, name, ConcernAll, fn)
}

func newOp[A, R any](rec *Recorder, name string, c Concern, fn Func[A, R]) *Op[A, R] {
	return &Op[A, R]{
		rec:     rec,
		name:    name,
		concern: c,
		fn:      fn,
		metrics: newOpMetrics(name, c),
	}
}

// Name returns the qualified name of the operation
func (o *Op[A, R]) Name() string { return o.name }

// Store returns the store holding the call log
func (o *Op[A, R]) Store() store.IStore { return o.rec.store }

// Func returns the wrapped operation as a plain Func
func (o *Op[A, R]) Func() Func[A, R] { return o.Call }

func (o *Op[A, R]) counts() bool {
	return o.concern == ConcernAll || o.concern == ConcernCount
}

func (o *Op[A, R]) records() bool {
	return o.concern == ConcernAll || o.concern == ConcernHistory
}

// Call invokes the operation and records the call.
//
// The order is: increment counter, append input, call, append output. All calls of the same
// operation (and concern) are serialized, so position i of the input and output log belong to the same call.
// Under FailureKeepPartial a failed call appends the position of its input to <name>:failed instead of an output.
// An error of the wrapped operation is returned unmodified.
func (o *Op[A, R]) Call(in A) (R, error) {
	var zero R
	start := time.Now()

	unlock, err := o.rec.lock(o.name, o.concern)
	if err != nil {
		return zero, err
	}
	defer unlock()

	if o.counts() {
		if _, err := o.rec.store.Incr(CounterKey(o.name)); err != nil {
			return zero, fmt.Errorf("%s: increment call counter: %w", o.name, err)
		}
	}

	index := int64(-1)
	if o.records() {
		entry, err := encodeInput(in)
		if err != nil {
			return zero, fmt.Errorf("%s: encode input: %w", o.name, err)
		}
		if err := o.rec.markFormat(o.name); err != nil {
			return zero, fmt.Errorf("%s: write log format: %w", o.name, err)
		}
		n, err := o.rec.store.RPush(InputsKey(o.name), entry)
		if err != nil {
			return zero, fmt.Errorf("%s: append input: %w", o.name, err)
		}
		index = n - 1
	}

	result, callErr := o.fn(in)
	defer func() {
		o.metrics.observe(start, callErr)
	}()

	if callErr != nil {
		if o.records() {
			o.recordFailure(index, callErr)
		}
		return result, callErr
	}

	if o.records() {
		if _, err := o.rec.store.RPush(OutputsKey(o.name), EncodeResult(result)); err != nil {
			return zero, fmt.Errorf("%s: append output: %w", o.name, err)
		}
	}

	return result, nil
}

// recordFailure records a failed call according to the failure policy.
// The error of the wrapped operation takes precedence, so store errors are only logged.
func (o *Op[A, R]) recordFailure(index int64, callErr error) {
	switch o.rec.policy {
	case FailureRecordError:
		if _, err := o.rec.store.RPush(OutputsKey(o.name), EncodeFailure(callErr)); err != nil {
			log.Warningf("%s: could not record failure %q: %v", o.name, callErr, err)
		}
	default:
		// the output log stays one entry short, the index tells replay which input has no output
		if _, err := o.rec.store.RPush(FailedKey(o.name), []byte(strconv.FormatInt(index, 10))); err != nil {
			log.Warningf("%s: could not record failed call %d: %v", o.name, index, err)
		}
	}
}

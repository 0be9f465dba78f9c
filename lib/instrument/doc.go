// Package instrument wraps operations so that every invocation is counted and its
// input and output are appended to a call log in a store.IStore. The log can later
// be read back by package replay.
//
// Store Layout:
//
//	For an operation with the qualified name <name> the following keys are used:
//
//	<name>          integer call counter (INCR)
//	<name>:inputs   list of input entries (RPUSH)
//	<name>:outputs  list of output entries (RPUSH)
//	<name>:failed   positions of inputs whose call failed without an output (RPUSH, FailureKeepPartial)
//	<name>:format   version of the entry encoding (SETNX, currently "1")
//	<name>:lock     store-backed lock, only with WithDistributedLock
//
// Entry Encoding (version 1):
//
//	An input entry is a JSON array with one string per argument, e.g. ["foo"] or ["1","2"].
//	Arguments are rendered by Stringify: text as is, integers in base 10, floats in the
//	shortest form that round-trips, nil as None. An output entry is the stringified result
//	without quoting. Failed calls recorded with FailureRecordError have the output
//	"!error: <msg>".
//
// Wrappers:
//
//   - CountCalls: increments the counter
//   - CallHistory: appends input and output
//   - Instrument: both, in the order counter, input, call, output
//
// Every wrapper returns an *Op. Op.Func returns the wrapped operation as a plain Func,
// so wrappers can be stacked:
//
//	rec := instrument.NewRecorder(s)
//	op := instrument.CountCalls(rec, "Cache.store",
//	    instrument.CallHistory(rec, "Cache.store", storeFn).Func())
//
// Atomicity:
//
//	All calls of one operation name on one store are serialized by a process-local
//	mutex, shared by every Recorder of the process writing to that store. So
//	len(inputs) == len(outputs) + len(failed) == counter holds after each call and
//	the outputs belong to the inputs in order, skipping the failed positions. CountCalls and CallHistory use
//	separate locks, which is what allows stacking them. Stack them in the same order
//	everywhere. With WithDistributedLock the calls are additionally serialized across
//	processes through a lock in the store (see package lockmgr).
//
// Failures:
//
//	An error of the wrapped operation is returned unmodified. The counter and the input
//	entry written before the call stand. Whether an output is appended depends on the
//	FailurePolicy: FailureKeepPartial appends the input position to <name>:failed,
//	FailureRecordError appends "!error: <msg>" to the output log. Errors of the store itself (e.g. store.RetCUnreachable) abort the call
//	and are returned wrapped, so errors.Is and store.IsUnreachable still work.
//
// Metrics:
//
//	Each wrapper updates kvcache_calls_total, kvcache_call_errors_total and
//	kvcache_call_duration_seconds (labels op and wrapper) in the default
//	github.com/VictoriaMetrics/metrics set. The duration covers the whole call including
//	its recording.
package instrument

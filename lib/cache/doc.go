// Package cache is a small facade over a store.IStore: values are stored under
// random keys and read back raw or through typed accessors.
//
// Fresh Session:
//
//	New flushes the store (FLUSHDB) before returning. Constructing a second Cache on
//	the same store therefore removes everything written through the first one,
//	including its call log. Use WithoutReset for read-only inspection.
//
// Instrumentation:
//
//	Store is wrapped with instrument.Instrument under the name "Cache.store". Every
//	call increments the counter "Cache.store" and appends to "Cache.store:inputs" and
//	"Cache.store:outputs". StoreOp returns the handle for replay.Replay.
//
// Supported Values:
//
//	string and []byte are stored as is, integers in base 10 and floats in the shortest
//	form that round-trips. Other types fail with ErrUnsupportedType (the call is still
//	counted and its input logged).
//
// Errors:
//
//   - Get reports an absent key as a nil value, not as error
//   - GetStr fails with *DecodeError (errors.Is(err, ErrDecode))
//   - GetInt and GetFloat fail with *ParseError (errors.Is(err, ErrParse))
//   - store errors are passed through, store.IsUnreachable(err) identifies a lost store
//
// Usage Example:
//
//	c, err := cache.New(s)
//	if err != nil {
//	    return err
//	}
//	key, _ := c.Store("foo")
//	v, _ := c.GetStr(key) // "foo"
//	_ = replay.Replay(c.StoreOp(), os.Stdout)
package cache

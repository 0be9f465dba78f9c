package cache

import (
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/instrument"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	log = logger.GetLogger("cache")
)

// StoreOpName is the qualified name of the instrumented Store operation
const StoreOpName = "Cache.store"

// Transform converts the raw bytes of a value. raw is nil if the key is absent.
type Transform func(raw []byte) (any, error)

// Cache stores values under generated keys in a store.IStore.
// Every call of Store is counted and logged (see package instrument).
type Cache struct {
	store   store.IStore
	rec     *instrument.Recorder
	storeOp *instrument.Op[any, string]
	keyGen  func() string
}

// New creates a Cache on s. Unless WithoutReset is given the store is flushed first,
// so every Cache starts a fresh session.
func New(s store.IStore, opts ...Option) (*Cache, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache{
		store:  s,
		rec:    instrument.NewRecorder(s, o.recOpts...),
		keyGen: o.keyGen,
	}
	c.storeOp = instrument.Instrument[any, string](c.rec, StoreOpName, c.store0)

	if o.reset {
		if err := c.rec.Reset(); err != nil {
			c.rec.Close()
			return nil, fmt.Errorf("reset store: %w", err)
		}
		log.Debugf("store flushed, new session")
	}
	return c, nil
}

// Store saves value under a new random key and returns the key.
// value must be a string, []byte, an integer or a float.
func (c *Cache) Store(value any) (string, error) {
	return c.storeOp.Call(value)
}

// store0 is the uninstrumented store operation
func (c *Cache) store0(value any) (string, error) {
	data, err := toBytes(value)
	if err != nil {
		return "", err
	}

	key := c.keyGen()
	if err := c.store.Set(key, data); err != nil {
		return "", fmt.Errorf("set %s: %w", key, err)
	}
	return key, nil
}

// Get returns the raw bytes stored under key, or nil if the key is absent.
// If fn is not nil it is applied to the raw bytes (nil for an absent key) and its result is returned.
func (c *Cache) Get(key string, fn Transform) (any, error) {
	raw, ok, err := c.store.Get(key)
	if err != nil {
		return nil, err
	}
	switch {
	case !ok:
		raw = nil
	case raw == nil:
		// present but empty
		raw = []byte{}
	}

	if fn != nil {
		return fn(raw)
	}
	if raw == nil {
		return nil, nil
	}
	return raw, nil
}

// GetAs is Get with a typed transform
func GetAs[T any](c *Cache, key string, fn func(raw []byte) (T, error)) (T, error) {
	var zero T
	v, err := c.Get(key, func(raw []byte) (any, error) {
		return fn(raw)
	})
	if err != nil {
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// GetStr returns the value stored under key as string.
// An absent key or invalid UTF-8 is reported as *DecodeError.
func (c *Cache) GetStr(key string) (string, error) {
	return GetAs(c, key, func(raw []byte) (string, error) {
		if raw == nil {
			return "", &DecodeError{Key: key, Err: errKeyNotFound}
		}
		if !utf8.Valid(raw) {
			return "", &DecodeError{Key: key, Err: fmt.Errorf("invalid utf-8")}
		}
		return string(raw), nil
	})
}

// GetInt parses the value stored under key as base 10 integer.
// An absent key or non numeric content is reported as *ParseError.
func (c *Cache) GetInt(key string) (int64, error) {
	return GetAs(c, key, func(raw []byte) (int64, error) {
		if raw == nil {
			return 0, &ParseError{Key: key, As: "int", Err: errKeyNotFound}
		}
		n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
		if err != nil {
			return 0, &ParseError{Key: key, As: "int", Err: err}
		}
		return n, nil
	})
}

// GetFloat parses the value stored under key as float.
// An absent key or non numeric content is reported as *ParseError.
func (c *Cache) GetFloat(key string) (float64, error) {
	return GetAs(c, key, func(raw []byte) (float64, error) {
		if raw == nil {
			return 0, &ParseError{Key: key, As: "float", Err: errKeyNotFound}
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil {
			return 0, &ParseError{Key: key, As: "float", Err: err}
		}
		return f, nil
	})
}

// StoreOp returns the handle of the instrumented Store operation (for package replay)
func (c *Cache) StoreOp() instrument.Handle {
	return c.storeOp
}

// Close closes the underlying store if it can be closed
func (c *Cache) Close() error {
	c.rec.Close()
	if closer, ok := c.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// toBytes converts the supported value types into their stored representation
func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return []byte(instrument.Stringify(v)), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}
}

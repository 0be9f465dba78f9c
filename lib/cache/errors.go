package cache

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/store"
)

var (
	// ErrUnsupportedType is returned by Store for values that are not text, bytes or numbers.
	// It carries the code store.RetCInvalidOperation.
	ErrUnsupportedType = store.NewError(store.RetCInvalidOperation, "unsupported value type")

	// ErrDecode matches every *DecodeError
	ErrDecode = errors.New("decode error")

	// ErrParse matches every *ParseError
	ErrParse = errors.New("parse error")

	errKeyNotFound = errors.New("key not found")
)

// DecodeError is returned by GetStr if the key is absent or the value is not valid UTF-8
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q as string: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// ParseError is returned by GetInt and GetFloat if the key is absent or the value is not a number
type ParseError struct {
	Key string
	As  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q as %s: %v", e.Key, e.As, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

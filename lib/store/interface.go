package store

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/db"
	"time"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() db.KVDB

// IStore is the generic interface for interacting with a key–value store.
// It exposes exactly the primitives the cache and the call instrumentation need.
// All methods return a *Error (wrapped in error, nil on success).
type IStore interface {
	// Set inserts or updates a key–value pair.
	Set(key string, value []byte) (err error)
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)
	// Incr atomically increments the integer counter stored at key and returns the new value.
	// A missing counter starts at 0.
	Incr(key string) (value int64, err error)
	// RPush appends a value to the tail of the list stored at key and returns the new length of the list.
	RPush(key string, value []byte) (length int64, err error)
	// LRange returns the elements of the list at key from start to stop (both inclusive, -1 = tail).
	LRange(key string, start, stop int64) (values [][]byte, err error)
	// FlushDB removes all keys of the store.
	FlushDB() (err error)
	// SetNX sets the value only if the key does not exist. A ttl of zero means no expiration.
	// The boolean return value indicates whether the value was written.
	SetNX(key string, value []byte, ttl time.Duration) (ok bool, err error)
	// Delete deletes a key. Deleting a missing key is not an error.
	Delete(key string) (err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
}

// ICompareAndDelete is implemented by stores that can delete a key only if it holds
// an expected value, as one atomic step.
type ICompareAndDelete interface {
	// CompareAndDelete deletes key if its value equals expected.
	// loaded reports whether the key existed, deleted whether it was removed.
	CompareAndDelete(key string, expected []byte) (deleted bool, loaded bool, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// Is reports whether target is a *Error with the same code.
// This allows checks like errors.Is(err, store.ErrUnreachable).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Errorf creates a new KVStoreError with a formatted message.
func Errorf(code RetCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// FromDBError converts an error of a db.KVDB engine into a *Error
func FromDBError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrWrongType):
		return NewError(RetCWrongType, err.Error())
	case errors.Is(err, db.ErrNotInteger):
		return NewError(RetCInvalidOperation, err.Error())
	default:
		return NewError(RetCInternalError, err.Error())
	}
}

// Sentinels to compare against with errors.Is (only the code is compared)
var (
	ErrUnreachable = NewError(RetCUnreachable, "store unreachable")
	ErrWrongType   = NewError(RetCWrongType, "wrong type")
)

// IsUnreachable reports whether err means that the store could not be reached.
// Such errors are fatal to the caller, there is no local recovery.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// CodeOf returns the RetCode carried by err or RetCSuccess if err is nil.
// Errors that are not a *Error are reported as RetCInternalError.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCWrongType                           // 4: Operation against a key holding the wrong kind of value.
	RetCUnreachable                         // 5: The store could not be reached.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCWrongType:
		return "WrongType"
	case RetCUnreachable:
		return "Unreachable"
	default:
		return "Unknown"
	}
}

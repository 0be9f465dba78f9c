package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/store"
	"time"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key   string `json:"key,omitempty"`   // Used for: all key based operations
	Value []byte `json:"value,omitempty"` // Used for: Set, RPush, SetNX (request), Get, Info (response)
	TTL   uint64 `json:"ttl,omitempty"`   // Used for: SetNX (milliseconds, 0 = no expiration)
	Start int64  `json:"start,omitempty"` // Used for: LRange
	Stop  int64  `json:"stop,omitempty"`  // Used for: LRange

	// Response only fields
	Values [][]byte `json:"values,omitempty"` // Used for: LRange
	Num    int64    `json:"num,omitempty"`    // Used for: Incr (new value), RPush (new length)
	Ok     bool     `json:"ok,omitempty"`     // Used for: Get, SetNX responses
	Err    string   `json:"err,omitempty"`    // Empty if no error, otherwise contains the error message
	Code   uint64   `json:"code,omitempty"`   // store.RetCode of the error
}

// Error converts the error fields of a response back into a *store.Error (nil if there is none)
func (m *Message) Error() error {
	if m.Err == "" && m.MsgType != MsgTError {
		return nil
	}
	code := store.RetCode(m.Code)
	if code == store.RetCSuccess {
		code = store.RetCInternalError
	}
	return store.NewError(code, m.Err)
}

// setErr fills the error fields of a response
func (m *Message) setErr(err error) *Message {
	if err != nil {
		var e *store.Error
		if errors.As(err, &e) {
			m.Err = e.Msg
		} else {
			m.Err = err.Error()
		}
		m.Code = uint64(store.CodeOf(err))
	}
	return m
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewSetRequest creates a new Set request
func NewSetRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTKVSet,
		Key:     key,
		Value:   value,
	}
}

// NewSetResponse creates a new Set response
func NewSetResponse(err error) *Message {
	return (&Message{MsgType: MsgTKVSet}).setErr(err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	return (&Message{
		MsgType: MsgTKVGet,
		Ok:      ok,
		Value:   value,
	}).setErr(err)
}

// NewIncrRequest creates a new Incr request
func NewIncrRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVIncr,
		Key:     key,
	}
}

// NewIncrResponse creates a new Incr response
func NewIncrResponse(value int64, err error) *Message {
	return (&Message{
		MsgType: MsgTKVIncr,
		Num:     value,
	}).setErr(err)
}

// NewRPushRequest creates a new RPush request
func NewRPushRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTKVRPush,
		Key:     key,
		Value:   value,
	}
}

// NewRPushResponse creates a new RPush response
func NewRPushResponse(length int64, err error) *Message {
	return (&Message{
		MsgType: MsgTKVRPush,
		Num:     length,
	}).setErr(err)
}

// NewLRangeRequest creates a new LRange request
func NewLRangeRequest(key string, start, stop int64) *Message {
	return &Message{
		MsgType: MsgTKVLRange,
		Key:     key,
		Start:   start,
		Stop:    stop,
	}
}

// NewLRangeResponse creates a new LRange response
func NewLRangeResponse(values [][]byte, err error) *Message {
	return (&Message{
		MsgType: MsgTKVLRange,
		Values:  values,
	}).setErr(err)
}

// NewFlushDBRequest creates a new FlushDB request
func NewFlushDBRequest() *Message {
	return &Message{
		MsgType: MsgTKVFlushDB,
	}
}

// NewFlushDBResponse creates a new FlushDB response
func NewFlushDBResponse(err error) *Message {
	return (&Message{MsgType: MsgTKVFlushDB}).setErr(err)
}

// NewSetNXRequest creates a new SetNX request. The ttl is transmitted in milliseconds.
func NewSetNXRequest(key string, value []byte, ttl time.Duration) *Message {
	return &Message{
		MsgType: MsgTKVSetNX,
		Key:     key,
		Value:   value,
		TTL:     uint64(ttl.Milliseconds()),
	}
}

// NewSetNXResponse creates a new SetNX response
func NewSetNXResponse(ok bool, err error) *Message {
	return (&Message{
		MsgType: MsgTKVSetNX,
		Ok:      ok,
	}).setErr(err)
}

// TTLDuration returns the TTL field as time.Duration
func (m *Message) TTLDuration() time.Duration {
	return time.Duration(m.TTL) * time.Millisecond
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVDelete,
		Key:     key,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	return (&Message{MsgType: MsgTKVDelete}).setErr(err)
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{
		MsgType: MsgTKVInfo,
	}
}

// NewInfoResponse creates a new Info response, the info is transmitted json encoded in Value
func NewInfoResponse(info []byte, err error) *Message {
	return (&Message{
		MsgType: MsgTKVInfo,
		Value:   info,
	}).setErr(err)
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(code store.RetCode, err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
		Code:    uint64(code),
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:   "success",
	MsgTError:     "error",
	MsgTKVSet:     "set",
	MsgTKVGet:     "get",
	MsgTKVIncr:    "incr",
	MsgTKVRPush:   "rpush",
	MsgTKVLRange:  "lrange",
	MsgTKVFlushDB: "flushdb",
	MsgTKVSetNX:   "setnx",
	MsgTKVDelete:  "delete",
	MsgTKVInfo:    "info",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	for msgType, name := range messageTypeNames {
		if name == s {
			*t = msgType
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTKVSet     // Set a key-value pair
	MsgTKVGet     // Get a value by key
	MsgTKVIncr    // Increment a counter
	MsgTKVRPush   // Append to a list
	MsgTKVLRange  // Read a range of a list
	MsgTKVFlushDB // Remove all keys
	MsgTKVSetNX   // Set a key-value pair if not already set
	MsgTKVDelete  // Delete a key-value pair
	MsgTKVInfo    // Database info
)

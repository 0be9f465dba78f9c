package internal

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Entry Type (value with metadata)
// --------------------------------------------------------------------------

// Kind distinguishes plain values from lists
type Kind uint8

const (
	KindValue Kind = iota
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Entry stores either a plain value or a list together with an optional deadline
type Entry struct {
	Kind     Kind
	Value    []byte   // used if Kind == KindValue
	List     [][]byte // used if Kind == KindList, append only
	ExpireAt int64    // unix nanoseconds, 0 = never
}

// Expired reports whether the deadline of the entry has passed at now (unix nanoseconds)
func (e Entry) Expired(now int64) bool {
	return e.ExpireAt != 0 && now >= e.ExpireAt
}

// SizeBytes estimates the memory used by the payload of the entry
func (e Entry) SizeBytes() int {
	size := len(e.Value)
	for _, item := range e.List {
		size += len(item) + 24 // slice header
	}
	return size
}

func (e Entry) String() string {
	return fmt.Sprintf("Entry{Kind: %s, Value: %d bytes, List: %d items, ExpireAt: %d}", e.Kind, len(e.Value), len(e.List), e.ExpireAt)
}

// --------------------------------------------------------------------------
// Shard Type (partition of the database)
// --------------------------------------------------------------------------

// Shard represents a partition of the database
type Shard struct {
	Data *xsync.MapOf[string, Entry]
}

// NewShard creates a new, empty shard
func NewShard() *Shard {
	return &Shard{
		Data: xsync.NewMapOf[string, Entry](),
	}
}

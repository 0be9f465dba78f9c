package serializer

import (
	"fmt"
	"github.com/ValentinKolb/kvcache/rpc/common"
	"strings"
)

// IRPCSerializer is the interface for all Message Serializers
type IRPCSerializer interface {
	// Serialize serializes a Message into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize deserializes a byte array into a Message
	// It takes a byte array and a pointer to a Message as parameters
	// It returns an error if any
	Deserialize(b []byte, msg *common.Message) error
}

// Names of the available serializers (for configuration)
const (
	NameBinary = "binary"
	NameJSON   = "json"
	NameGOB    = "gob"
)

// FromName returns the serializer with the given name
func FromName(name string) (IRPCSerializer, error) {
	switch strings.ToLower(name) {
	case NameBinary:
		return NewBinarySerializer(), nil
	case NameJSON:
		return NewJSONSerializer(), nil
	case NameGOB:
		return NewGOBSerializer(), nil
	default:
		return nil, fmt.Errorf("unknown serializer %q (supported: %s, %s, %s)", name, NameBinary, NameJSON, NameGOB)
	}
}

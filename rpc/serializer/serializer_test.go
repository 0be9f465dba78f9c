package serializer

import (
	"fmt"
	"github.com/ValentinKolb/kvcache/rpc/common"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Set request
		*common.NewSetRequest("test-key", []byte("test-value")),

		// Get response
		{
			MsgType: common.MsgTKVGet,
			Value:   []byte("test-value"),
			Ok:      true,
		},

		// Incr response (negative numbers must survive)
		{MsgType: common.MsgTKVIncr, Num: -42},

		// LRange request with negative stop
		*common.NewLRangeRequest("Cache.store:inputs", 0, -1),

		// LRange response
		{
			MsgType: common.MsgTKVLRange,
			Values:  [][]byte{[]byte(`["1"]`), []byte(`["2"]`), []byte("\x00\xff")},
		},

		// SetNX request
		{
			MsgType: common.MsgTKVSetNX,
			Key:     "Cache.store:lock",
			Value:   []byte("owner"),
			TTL:     30000,
		},

		// Error response with code
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
			Code:    4,
		},
	}
}

// TestSerializerRoundTrip tests that every serializer restores every message
func TestSerializerRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		s := factory()
		for i, msg := range testMessages() {
			t.Run(fmt.Sprintf("%s/%d-%s", name, i, msg.MsgType), func(t *testing.T) {
				data, err := s.Serialize(msg)
				require.NoError(t, err)

				var result common.Message
				require.NoError(t, s.Deserialize(data, &result))
				assert.Equal(t, msg, result)
			})
		}
	}
}

// TestMessageReuse tests that deserializing into a used message does not leak old fields
func TestMessageReuse(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			first, err := s.Serialize(*common.NewGetResponse([]byte("x"), true, nil))
			require.NoError(t, err)
			second, err := s.Serialize(*common.NewDeleteRequest("b"))
			require.NoError(t, err)

			var msg common.Message
			require.NoError(t, s.Deserialize(first, &msg))
			require.NoError(t, s.Deserialize(second, &msg))

			assert.False(t, msg.Ok)
			assert.Nil(t, msg.Value)
			assert.Equal(t, "b", msg.Key)
		})
	}
}

// TestMessageTypes tests that the type of every known message survives
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		s := factory()
		for msgType := common.MsgTSuccess; msgType <= common.MsgTKVInfo; msgType++ {
			data, err := s.Serialize(common.Message{MsgType: msgType})
			require.NoError(t, err, "%s: serialize %s", name, msgType)

			var result common.Message
			require.NoError(t, s.Deserialize(data, &result), "%s: deserialize %s", name, msgType)
			assert.Equal(t, msgType, result.MsgType, name)
		}
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty value slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTKVSet,
				Key:     "test",
				Value:   []byte{},
			},
		},
		{
			name: "Empty list",
			msg: common.Message{
				MsgType: common.MsgTKVLRange,
				Values:  [][]byte{},
			},
		},
		{
			name: "List with empty element",
			msg: common.Message{
				MsgType: common.MsgTKVLRange,
				Values:  [][]byte{{}, []byte("x")},
			},
		},
		{
			name: "Range with only stop",
			msg:  *common.NewLRangeRequest("k", 0, 5),
		},
		{
			name: "Error code without message",
			msg:  common.Message{MsgType: common.MsgTError, Code: 5},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			err = serializer.Deserialize(data, &result)
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			// the binary format keeps the difference between nil and empty slices
			if !reflect.DeepEqual(tc.msg, result) {
				t.Errorf("mismatch after round trip:\nOriginal: %+v\nResult: %+v", tc.msg, result)
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1}, // Only message type, no flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for key",
			data:        []byte{1, hasKey, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims key length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid length for value",
			data:        []byte{1, hasValue, 0, 0, 0, 10}, // Claims value length 10 but no bytes provided
			expectError: true,
		},
		{
			name:        "Truncated range",
			data:        []byte{1, hasRange, 0, 0, 0, 0, 0, 0, 0, 1}, // start only
			expectError: true,
		},
		{
			name:        "Too many values",
			data:        []byte{1, hasValues, 0xff, 0xff, 0xff, 0xff}, // Claims 4G values
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromName(t *testing.T) {
	for _, name := range []string{NameBinary, NameJSON, NameGOB, "JSON"} {
		if _, err := FromName(name); err != nil {
			t.Errorf("FromName(%q): %v", name, err)
		}
	}
	if _, err := FromName("protobuf"); err == nil {
		t.Errorf("expected error for unknown serializer")
	}
}

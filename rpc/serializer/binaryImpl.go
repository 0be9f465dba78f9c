package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/kvcache/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
//
// Layout: [MsgType:1][flags:1] followed by the present fields in flag order.
// Byte slices and strings are prefixed with their length (uint32), numbers are
// fixed width big endian.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey    byte = 1 << 0 // [len:4][key]
	hasTTL    byte = 1 << 1 // [ttl:8]
	hasRange  byte = 1 << 2 // [start:8][stop:8]
	hasValue  byte = 1 << 3 // [len:4][value]
	hasValues byte = 1 << 4 // [count:4] then count * [len:4][value]
	hasOk     byte = 1 << 5 // [1]
	hasNum    byte = 1 << 6 // [num:8]
	hasErr    byte = 1 << 7 // [code:8][len:4][err]
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	w := binWriter{buf: make([]byte, 2, b.sizeBytes(msg))}

	// Write message type
	w.buf[0] = byte(msg.MsgType)

	// Initialize flags byte
	var flags byte = 0

	if msg.Key != "" {
		flags |= hasKey
		w.bytes([]byte(msg.Key))
	}
	if msg.TTL > 0 {
		flags |= hasTTL
		w.uint64(msg.TTL)
	}
	if msg.Start != 0 || msg.Stop != 0 {
		flags |= hasRange
		w.uint64(uint64(msg.Start))
		w.uint64(uint64(msg.Stop))
	}
	if msg.Value != nil {
		flags |= hasValue
		w.bytes(msg.Value)
	}
	if msg.Values != nil {
		flags |= hasValues
		w.uint32(uint32(len(msg.Values)))
		for _, v := range msg.Values {
			w.bytes(v)
		}
	}
	if msg.Ok {
		flags |= hasOk
		w.buf = append(w.buf, 1)
	}
	if msg.Num != 0 {
		flags |= hasNum
		w.uint64(uint64(msg.Num))
	}
	if msg.Err != "" || msg.Code != 0 {
		flags |= hasErr
		w.uint64(msg.Code)
		w.bytes([]byte(msg.Err))
	}

	// Set flags byte after knowing which fields are present
	w.buf[1] = flags

	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	// Reset all fields, the message may be reused
	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := data[1]
	r := binReader{data: data, pos: 2}

	if flags&hasKey != 0 {
		key, err := r.bytes("key")
		if err != nil {
			return err
		}
		msg.Key = string(key)
	}
	if flags&hasTTL != 0 {
		ttl, err := r.uint64("ttl")
		if err != nil {
			return err
		}
		msg.TTL = ttl
	}
	if flags&hasRange != 0 {
		start, err := r.uint64("range start")
		if err != nil {
			return err
		}
		stop, err := r.uint64("range stop")
		if err != nil {
			return err
		}
		msg.Start, msg.Stop = int64(start), int64(stop)
	}
	if flags&hasValue != 0 {
		value, err := r.bytes("value")
		if err != nil {
			return err
		}
		msg.Value = value
	}
	if flags&hasValues != 0 {
		count, err := r.uint32("values count")
		if err != nil {
			return err
		}
		// every value needs at least its length prefix
		if int(count) > (len(data)-r.pos)/4 {
			return fmt.Errorf("data too short for %d values", count)
		}
		msg.Values = make([][]byte, count)
		for i := range msg.Values {
			if msg.Values[i], err = r.bytes("values"); err != nil {
				return err
			}
		}
	}
	if flags&hasOk != 0 {
		if r.pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}
		msg.Ok = data[r.pos] != 0
		r.pos++
	}
	if flags&hasNum != 0 {
		num, err := r.uint64("num")
		if err != nil {
			return err
		}
		msg.Num = int64(num)
	}
	if flags&hasErr != 0 {
		code, err := r.uint64("error code")
		if err != nil {
			return err
		}
		errMsg, err := r.bytes("error")
		if err != nil {
			return err
		}
		msg.Code = code
		msg.Err = string(errMsg)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.TTL > 0 {
		size += 8
	}
	if msg.Start != 0 || msg.Stop != 0 {
		size += 16
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Values != nil {
		size += 4
		for _, v := range msg.Values {
			size += 4 + len(v)
		}
	}
	if msg.Ok {
		size += 1
	}
	if msg.Num != 0 {
		size += 8
	}
	if msg.Err != "" || msg.Code != 0 {
		size += 8 + 4 + len(msg.Err)
	}

	return size
}

// binWriter appends fields to a buffer
type binWriter struct {
	buf []byte
}

func (w *binWriter) uint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *binWriter) uint64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *binWriter) bytes(v []byte) {
	w.uint32(uint32(len(v)))
	w.buf = append(w.buf, v...)
}

// binReader reads fields and checks the bounds
type binReader struct {
	data []byte
	pos  int
}

func (r *binReader) uint32(field string) (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("data too short for %s", field)
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *binReader) uint64(field string) (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("data too short for %s", field)
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

// bytes reads a length prefixed byte slice. The result is a copy and never nil.
func (r *binReader) bytes(field string) ([]byte, error) {
	n, err := r.uint32(field + " length")
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.data) {
		return nil, fmt.Errorf("data too short for %s data", field)
	}
	v := make([]byte, n)
	copy(v, r.data[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return v, nil
}

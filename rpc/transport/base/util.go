package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net"
)

// headerSize is the size of a frame header: shardId, requestID and payload length
const headerSize = 20

// writeFrame writes a frame to the connection with the format:
// - 8 bytes: shardId (uint64, big endian)
// - 8 bytes: requestID (uint64, big endian)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, shardID uint64, requestID uint64, data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("frame payload of %d bytes exceeds the maximum of %d", len(data), uint32(math.MaxUint32))
	}

	header := make([]byte, headerSize)
	binary.BigEndian.PutUint64(header[:8], shardID)
	binary.BigEndian.PutUint64(header[8:16], requestID)
	binary.BigEndian.PutUint32(header[16:20], uint32(len(data)))

	// header and payload in one syscall
	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame. header is reused for the header bytes (at least headerSize long),
// the payload is always freshly allocated so it can outlive the next read.
func readFrame(r io.Reader, header []byte) (shardID uint64, requestID uint64, data []byte, err error) {
	if len(header) < headerSize {
		header = make([]byte, headerSize)
	}
	if _, err := io.ReadFull(r, header[:headerSize]); err != nil {
		return 0, 0, nil, err
	}

	shardID = binary.BigEndian.Uint64(header[:8])
	requestID = binary.BigEndian.Uint64(header[8:16])
	contentLength := binary.BigEndian.Uint32(header[16:20])

	data = make([]byte, contentLength)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, 0, nil, err
	}
	return shardID, requestID, data, nil
}

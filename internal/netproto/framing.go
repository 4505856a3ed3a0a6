// Package netproto implements the multi-client collaboration protocol:
// length-prefixed JSON frames over TCP, instrument ownership arbitration,
// privilege management, and state broadcast.
package netproto

import (
	"encoding/binary"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxFrameSize rejects frames larger than 100 MiB.
const maxFrameSize = 100 << 20

// WriteMessage writes a length-prefixed JSON message to a stream.
// Wire format: [u32 length big-endian][payload].
func WriteMessage(w io.Writer, msg interface{}) error {
	frame, err := SerializeFrame(msg)
	if err != nil {
		return err
	}
	return WriteRawFrame(w, frame)
}

// SerializeFrame builds a complete frame (header + JSON payload). Use with
// WriteRawFrame to broadcast one serialization to many connections.
func SerializeFrame(msg interface{}) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)
	return frame, nil
}

// WriteRawFrame writes a pre-serialized frame to a stream.
func WriteRawFrame(w io.Writer, frame []byte) error {
	_, err := w.Write(frame)
	return err
}

// ReadMessage reads one length-prefixed JSON message into out.
func ReadMessage(r io.Reader, out interface{}) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > maxFrameSize {
		return fmt.Errorf("message too large: %d bytes", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}

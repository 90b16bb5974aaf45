package packstream

import (
	"bytes"
	"encoding/binary"
	"io"
)

// MaxChunkSize is the largest payload a single chunk can carry.
const MaxChunkSize = 0xffff

// WriteMessage splits data into chunks and writes them followed by the end-of-message marker.
func WriteMessage(wr io.Writer, data []byte) error {
	var out bytes.Buffer
	for len(data) > 0 {
		n := len(data)
		if n > MaxChunkSize {
			n = MaxChunkSize
		}
		var size [2]byte
		binary.BigEndian.PutUint16(size[:], uint16(n))
		out.Write(size[:])
		out.Write(data[:n])
		data = data[n:]
	}
	out.Write([]byte{0x00, 0x00})
	if _, err := wr.Write(out.Bytes()); err != nil {
		return &IoError{inner: err}
	}
	return nil
}

// ReadMessage reads chunks up to the next end-of-message marker. Empty chunks between messages are
// NOOPs and are skipped.
func ReadMessage(rd io.Reader) ([]byte, error) {
	var msg []byte
	for {
		var size [2]byte
		if _, err := io.ReadFull(rd, size[:]); err != nil {
			return nil, &IoError{inner: err}
		}
		n := binary.BigEndian.Uint16(size[:])
		if n == 0 {
			if msg == nil {
				continue
			}
			return msg, nil
		}
		start := len(msg)
		msg = append(msg, make([]byte, n)...)
		if _, err := io.ReadFull(rd, msg[start:]); err != nil {
			return nil, &IoError{inner: err}
		}
	}
}

// Marshal packs a single value into a byte slice.
func Marshal(x interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewPacker(&buf).Pack(x); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal unpacks a single value. Trailing bytes are an error.
func Unmarshal(data []byte) (interface{}, error) {
	r := bytes.NewReader(data)
	x, err := NewUnpacker(r).Unpack()
	if err != nil {
		return nil, err
	}
	if r.Len() > 0 {
		return nil, &IllegalFormatError{msg: "trailing bytes after value"}
	}
	return x, nil
}

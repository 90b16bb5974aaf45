package packstream

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

type Unpacker struct {
	rd io.Reader
}

func NewUnpacker(rd io.Reader) *Unpacker {
	return &Unpacker{rd: rd}
}

func (u *Unpacker) read(n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(u.rd, buf); err != nil {
		return nil, &IoError{inner: err}
	}
	return buf, nil
}

// readLen reads a big-endian length of 1, 2 or 4 bytes.
func (u *Unpacker) readLen(size int) (uint32, error) {
	buf, err := u.read(uint32(size))
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint32(buf[0]), nil
	case 2:
		return uint32(binary.BigEndian.Uint16(buf)), nil
	default:
		return binary.BigEndian.Uint32(buf), nil
	}
}

func (u *Unpacker) readStruct(numFields int) (*Struct, error) {
	if numFields < 0 || numFields > 0x0f {
		return nil, &IllegalFormatError{msg: fmt.Sprintf("invalid struct size: %d", numFields)}
	}
	buf, err := u.read(1)
	if err != nil {
		return nil, err
	}
	s := &Struct{Tag: buf[0], Fields: make([]interface{}, numFields)}
	for i := range s.Fields {
		if s.Fields[i], err = u.Unpack(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (u *Unpacker) readStr(n uint32) (interface{}, error) {
	buf, err := u.read(n)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

func (u *Unpacker) readList(n uint32) ([]interface{}, error) {
	var err error
	l := make([]interface{}, n)
	for i := range l {
		if l[i], err = u.Unpack(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (u *Unpacker) readMap(n uint32) (map[string]interface{}, error) {
	m := make(map[string]interface{}, n)
	for i := uint32(0); i < n; i++ {
		keyx, err := u.Unpack()
		if err != nil {
			return nil, err
		}
		key, ok := keyx.(string)
		if !ok {
			return nil, &IllegalFormatError{msg: fmt.Sprintf("map key is not string type: %T", keyx)}
		}
		if m[key], err = u.Unpack(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// sized reads a length of the given width, then the value it prefixes.
func (u *Unpacker) sized(width int, next func(uint32) (interface{}, error)) (interface{}, error) {
	n, err := u.readLen(width)
	if err != nil {
		return nil, err
	}
	return next(n)
}

func (u *Unpacker) Unpack() (interface{}, error) {
	buf, err := u.read(1)
	if err != nil {
		return nil, err
	}
	marker := buf[0]

	switch {
	case marker < 0x80:
		return int64(marker), nil
	case marker >= 0xf0:
		return int64(marker) - 0x100, nil
	case marker >= 0x80 && marker < 0x90:
		return u.readStr(uint32(marker - 0x80))
	case marker >= 0x90 && marker < 0xa0:
		return u.readList(uint32(marker - 0x90))
	case marker >= 0xa0 && marker < 0xb0:
		return u.readMap(uint32(marker - 0xa0))
	case marker >= 0xb0 && marker < 0xc0:
		return u.readStruct(int(marker - 0xb0))
	}

	list := func(n uint32) (interface{}, error) { return u.readList(n) }
	dict := func(n uint32) (interface{}, error) { return u.readMap(n) }
	bytes := func(n uint32) (interface{}, error) { return u.read(n) }

	switch marker {
	case 0xc0:
		return nil, nil
	case 0xc1:
		b, err := u.read(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case 0xc2:
		return false, nil
	case 0xc3:
		return true, nil
	case 0xc8:
		b, err := u.read(1)
		if err != nil {
			return nil, err
		}
		return int64(int8(b[0])), nil
	case 0xc9:
		b, err := u.read(2)
		if err != nil {
			return nil, err
		}
		return int64(int16(binary.BigEndian.Uint16(b))), nil
	case 0xca:
		b, err := u.read(4)
		if err != nil {
			return nil, err
		}
		return int64(int32(binary.BigEndian.Uint32(b))), nil
	case 0xcb:
		b, err := u.read(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	case 0xcc:
		return u.sized(1, bytes)
	case 0xcd:
		return u.sized(2, bytes)
	case 0xce:
		return u.sized(4, bytes)
	case 0xd0:
		return u.sized(1, u.readStr)
	case 0xd1:
		return u.sized(2, u.readStr)
	case 0xd2:
		return u.sized(4, u.readStr)
	case 0xd4:
		return u.sized(1, list)
	case 0xd5:
		return u.sized(2, list)
	case 0xd6:
		return u.sized(4, list)
	case 0xd8:
		return u.sized(1, dict)
	case 0xd9:
		return u.sized(2, dict)
	case 0xda:
		return u.sized(4, dict)
	}
	return nil, &IllegalFormatError{msg: fmt.Sprintf("unknown marker: %02x", marker)}
}

// UnpackStruct reads a value that must be a struct, as every Bolt message is.
func (u *Unpacker) UnpackStruct() (*Struct, error) {
	x, err := u.Unpack()
	if err != nil {
		return nil, err
	}
	s, ok := x.(*Struct)
	if !ok {
		return nil, &IllegalFormatError{msg: fmt.Sprintf("expected a struct but got %T", x)}
	}
	return s, nil
}

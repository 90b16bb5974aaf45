// Package packstream encodes and decodes PackStream, the value serialization used inside Bolt
// messages. Values are plain Go values: nil, bool, int64, float64, string, []byte,
// []interface{}, map[string]interface{} and *Struct.
package packstream

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
)

// Struct is a tagged structure. Bolt messages and graph or temporal values are structs.
type Struct struct {
	Tag    byte
	Fields []interface{}
}

type Packer struct {
	wr io.Writer
}

func NewPacker(wr io.Writer) *Packer {
	return &Packer{wr: wr}
}

func (p *Packer) write(buf []byte) error {
	if _, err := p.wr.Write(buf); err != nil {
		return &IoError{inner: err}
	}
	return nil
}

func (p *Packer) PackStruct(tag byte, fields ...interface{}) error {
	return p.writeStruct(&Struct{Tag: tag, Fields: fields})
}

func (p *Packer) writeStruct(s *Struct) error {
	l := len(s.Fields)
	if l > 0x0f {
		return &OverflowError{msg: "trying to pack struct with too many fields"}
	}
	if err := p.write([]byte{0xb0 + byte(l), s.Tag}); err != nil {
		return err
	}
	for _, f := range s.Fields {
		if err := p.Pack(f); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packer) writeInt(i int64) error {
	switch {
	case -0x10 <= i && i < 0x80:
		return p.write([]byte{byte(i)})
	case -0x80 <= i && i < -0x10:
		return p.write([]byte{0xc8, byte(i)})
	case -0x8000 <= i && i < 0x8000:
		buf := [3]byte{0xc9}
		binary.BigEndian.PutUint16(buf[1:], uint16(i))
		return p.write(buf[:])
	case -0x80000000 <= i && i < 0x80000000:
		buf := [5]byte{0xca}
		binary.BigEndian.PutUint32(buf[1:], uint32(i))
		return p.write(buf[:])
	default:
		buf := [9]byte{0xcb}
		binary.BigEndian.PutUint64(buf[1:], uint64(i))
		return p.write(buf[:])
	}
}

func (p *Packer) writeFloat(f float64) error {
	buf := [9]byte{0xc1}
	binary.BigEndian.PutUint64(buf[1:], math.Float64bits(f))
	return p.write(buf[:])
}

func (p *Packer) writeListHeader(ll int, shortOffset, longOffset byte) error {
	l := int64(ll)
	if l < 0x10 {
		return p.write([]byte{shortOffset + byte(l)})
	}
	switch {
	case l < 0x100:
		return p.write([]byte{longOffset, byte(l)})
	case l < 0x10000:
		buf := [3]byte{longOffset + 1}
		binary.BigEndian.PutUint16(buf[1:], uint16(l))
		return p.write(buf[:])
	case l <= math.MaxUint32:
		buf := [5]byte{longOffset + 2}
		binary.BigEndian.PutUint32(buf[1:], uint32(l))
		return p.write(buf[:])
	}
	return &OverflowError{msg: fmt.Sprintf("trying to pack too large list of size %d", l)}
}

func (p *Packer) writeString(s string) error {
	if err := p.writeListHeader(len(s), 0x80, 0xd0); err != nil {
		return err
	}
	return p.write([]byte(s))
}

func (p *Packer) writeBytes(b []byte) error {
	l := int64(len(b))
	switch {
	case l < 0x100:
		if err := p.write([]byte{0xcc, byte(l)}); err != nil {
			return err
		}
	case l < 0x10000:
		buf := [3]byte{0xcd}
		binary.BigEndian.PutUint16(buf[1:], uint16(l))
		if err := p.write(buf[:]); err != nil {
			return err
		}
	case l <= math.MaxUint32:
		buf := [5]byte{0xce}
		binary.BigEndian.PutUint32(buf[1:], uint32(l))
		if err := p.write(buf[:]); err != nil {
			return err
		}
	default:
		return &OverflowError{msg: fmt.Sprintf("trying to pack too large byte array of size %d", l)}
	}
	return p.write(b)
}

// Pack writes one value. Map keys are written in sorted order so that output is deterministic.
func (p *Packer) Pack(x interface{}) error {
	switch v := x.(type) {
	case nil:
		return p.write([]byte{0xc0})
	case bool:
		if v {
			return p.write([]byte{0xc3})
		}
		return p.write([]byte{0xc2})
	case int:
		return p.writeInt(int64(v))
	case int8:
		return p.writeInt(int64(v))
	case int16:
		return p.writeInt(int64(v))
	case int32:
		return p.writeInt(int64(v))
	case int64:
		return p.writeInt(v)
	case uint8:
		return p.writeInt(int64(v))
	case uint16:
		return p.writeInt(int64(v))
	case uint32:
		return p.writeInt(int64(v))
	case float32:
		return p.writeFloat(float64(v))
	case float64:
		return p.writeFloat(v)
	case string:
		return p.writeString(v)
	case []byte:
		return p.writeBytes(v)
	case []string:
		if err := p.writeListHeader(len(v), 0x90, 0xd4); err != nil {
			return err
		}
		for _, s := range v {
			if err := p.writeString(s); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		if err := p.writeListHeader(len(v), 0x90, 0xd4); err != nil {
			return err
		}
		for _, e := range v {
			if err := p.Pack(e); err != nil {
				return err
			}
		}
		return nil
	case map[string]interface{}:
		if err := p.writeListHeader(len(v), 0xa0, 0xd8); err != nil {
			return err
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := p.writeString(k); err != nil {
				return err
			}
			if err := p.Pack(v[k]); err != nil {
				return err
			}
		}
		return nil
	case *Struct:
		return p.writeStruct(v)
	case Struct:
		return p.writeStruct(&v)
	}
	return &UnsupportedTypeError{value: x}
}

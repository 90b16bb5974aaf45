package packstream

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestIntegerEncodingBoundaries(t *testing.T) {
	g := NewWithT(t)
	cases := []struct {
		value  int64
		header []byte
		size   int
	}{
		{0, []byte{0x00}, 1},
		{-16, []byte{0xf0}, 1},
		{127, []byte{0x7f}, 1},
		{-17, []byte{0xc8, 0xef}, 2},
		{-128, []byte{0xc8, 0x80}, 2},
		{128, []byte{0xc9, 0x00, 0x80}, 3},
		{-32768, []byte{0xc9, 0x80, 0x00}, 3},
		{32768, []byte{0xca}, 5},
		{math.MaxInt32, []byte{0xca, 0x7f, 0xff, 0xff, 0xff}, 5},
		{math.MinInt32, []byte{0xca, 0x80, 0x00, 0x00, 0x00}, 5},
		{math.MaxInt32 + 1, []byte{0xcb}, 9},
		{math.MinInt64, []byte{0xcb, 0x80}, 9},
	}
	for _, c := range cases {
		data, err := Marshal(c.value)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(data).To(HaveLen(c.size), "value %d", c.value)
		g.Expect(data[:len(c.header)]).To(Equal(c.header), "value %d", c.value)

		back, err := Unmarshal(data)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(back).To(Equal(c.value))
	}
}

func TestSizedHeaders(t *testing.T) {
	g := NewWithT(t)

	for _, n := range []int{0, 15, 16, 255, 256, 65535, 65536} {
		s := strings.Repeat("a", n)
		data, err := Marshal(s)
		g.Expect(err).NotTo(HaveOccurred())
		back, err := Unmarshal(data)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(back).To(Equal(s), "string of length %d", n)
	}

	data, _ := Marshal(strings.Repeat("a", 16))
	g.Expect(data[:2]).To(Equal([]byte{0xd0, 16}))
	data, _ = Marshal(strings.Repeat("a", 256))
	g.Expect(data[:3]).To(Equal([]byte{0xd1, 0x01, 0x00}))

	for _, n := range []int{0, 255, 256, 65536} {
		b := bytes.Repeat([]byte{0x3f}, n)
		data, err := Marshal(b)
		g.Expect(err).NotTo(HaveOccurred())
		back, err := Unmarshal(data)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(back).To(Equal(b))
	}

	list := make([]interface{}, 300)
	for i := range list {
		list[i] = int64(i)
	}
	data, _ = Marshal(list)
	g.Expect(data[:3]).To(Equal([]byte{0xd5, 0x01, 0x2c}))
	back, err := Unmarshal(data)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(back).To(Equal(list))
}

func TestNestedValuesAndStructs(t *testing.T) {
	g := NewWithT(t)
	value := map[string]interface{}{
		"nothing": nil,
		"yes":     true,
		"no":      false,
		"pi":      3.14,
		"nan":     math.Inf(1),
		"list":    []interface{}{int64(1), "two", []interface{}{}},
		"map":     map[string]interface{}{},
		"node":    &Struct{Tag: 0x4e, Fields: []interface{}{int64(1), []interface{}{"L"}, map[string]interface{}{}}},
	}
	data, err := Marshal(value)
	g.Expect(err).NotTo(HaveOccurred())
	back, err := Unmarshal(data)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(back).To(Equal(value))
}

func TestMapKeysArePackedSorted(t *testing.T) {
	g := NewWithT(t)
	a, _ := Marshal(map[string]interface{}{"b": int64(1), "a": int64(2)})
	g.Expect(a).To(Equal([]byte{0xa2, 0x81, 'a', 0x02, 0x81, 'b', 0x01}))
}

func TestPackErrors(t *testing.T) {
	g := NewWithT(t)

	_, err := Marshal(struct{}{})
	var unsupported *UnsupportedTypeError
	g.Expect(errors.As(err, &unsupported)).To(BeTrue())

	_, err = Marshal(&Struct{Tag: 1, Fields: make([]interface{}, 16)})
	var overflow *OverflowError
	g.Expect(errors.As(err, &overflow)).To(BeTrue())

	err = NewPacker(failingWriter{}).Pack("x")
	var ioErr *IoError
	g.Expect(errors.As(err, &ioErr)).To(BeTrue())
}

func TestUnpackErrors(t *testing.T) {
	g := NewWithT(t)

	_, err := Unmarshal([]byte{0xc7})
	var illegal *IllegalFormatError
	g.Expect(errors.As(err, &illegal)).To(BeTrue())

	_, err = Unmarshal([]byte{0xa1, 0x01, 0x01})
	g.Expect(errors.As(err, &illegal)).To(BeTrue())

	_, err = Unmarshal([]byte{0x85, 'a'})
	var ioErr *IoError
	g.Expect(errors.As(err, &ioErr)).To(BeTrue())

	_, err = Unmarshal([]byte{0x01, 0x02})
	g.Expect(err).To(HaveOccurred())

	_, err = NewUnpacker(bytes.NewReader([]byte{0x01})).UnpackStruct()
	g.Expect(err).To(MatchError(ContainSubstring("expected a struct")))
}

func TestChunking(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	g.Expect(WriteMessage(&buf, []byte{0xb0, 0x0f})).To(Succeed())
	g.Expect(buf.Bytes()).To(Equal([]byte{0x00, 0x02, 0xb0, 0x0f, 0x00, 0x00}))

	big := bytes.Repeat([]byte{0x01}, MaxChunkSize+10)
	buf.Reset()
	g.Expect(WriteMessage(&buf, big)).To(Succeed())
	g.Expect(buf.Len()).To(Equal(2 + MaxChunkSize + 2 + 10 + 2))

	msg, err := ReadMessage(&buf)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(msg).To(Equal(big))
}

func TestReadMessageSkipsNoops(t *testing.T) {
	g := NewWithT(t)
	in := bytes.NewReader([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0xc0, 0x00, 0x00})
	msg, err := ReadMessage(in)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(msg).To(Equal([]byte{0xc0}))

	_, err = ReadMessage(in)
	var ioErr *IoError
	g.Expect(errors.As(err, &ioErr)).To(BeTrue())
}

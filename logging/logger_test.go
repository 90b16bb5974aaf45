package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturingLoggerKeepsMessagesInOrder(t *testing.T) {
	var l CapturingLogger
	l.Printf("first %d", 1)
	l.Printf("second %s", "two")

	out := l.Output()
	require.Len(t, out, 2)
	assert.Equal(t, "first 1", out[0].Message)
	assert.Equal(t, "second two", out[1].Message)
}

func TestCapturedOutputDump(t *testing.T) {
	var l CapturingLogger
	l.Printf("hello")
	var buf bytes.Buffer
	l.Output().Dump(&buf, "DEBUG ")
	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "DEBUG ["))
	assert.True(t, strings.HasSuffix(line, "] hello\n"))
}

func TestPrefixLogger(t *testing.T) {
	var l CapturingLogger
	WithPrefix(&l, "[stub] ").Printf("C: %s", "HELLO")
	assert.Equal(t, "[stub] C: HELLO", l.Output()[0].Message)
}

func TestCopyTo(t *testing.T) {
	var src, dest CapturingLogger
	src.Printf("a")
	src.Printf("b")
	src.Output().CopyTo(&dest, "> ")
	out := dest.Output()
	require.Len(t, out, 2)
	assert.Equal(t, "> a", out[0].Message)
	assert.Equal(t, "> b", out[1].Message)
}

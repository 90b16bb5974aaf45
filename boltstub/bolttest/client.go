// Package bolttest is just enough of a Bolt client to drive a stub server from Go tests.
package bolttest

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/boltstub/packstream"
)

const readTimeout = 2 * time.Second

type Client struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

// Connect opens a connection and sends the handshake with the given version proposals, padded
// with empty ones. The reply is left for HandshakeReply.
func Connect(t *testing.T, address string, proposal ...byte) *Client {
	conn, err := net.Dial("tcp", address)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	c := &Client{t: t, conn: conn, reader: bufio.NewReader(conn)}
	request := append([]byte{0x60, 0x60, 0xb0, 0x17}, proposal...)
	request = append(request, make([]byte, 20-len(request))...)
	_, err = conn.Write(request)
	require.NoError(t, err)
	return c
}

// ConnectVersion connects proposing only major.minor and requires the server to accept it.
func ConnectVersion(t *testing.T, address string, major, minor byte) *Client {
	c := Connect(t, address, 0x00, 0x00, minor, major)
	require.Equal(t, []byte{0, 0, minor, major}, c.HandshakeReply())
	return c
}

func (c *Client) HandshakeReply() []byte {
	return c.ReadRaw(4)
}

// ReadRaw reads n bytes as they are on the wire.
func (c *Client) ReadRaw(n int) []byte {
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	data := make([]byte, n)
	_, err := io.ReadFull(c.reader, data)
	require.NoError(c.t, err)
	return data
}

// Send writes one message.
func (c *Client) Send(tag byte, fields ...interface{}) {
	data, err := packstream.Marshal(&packstream.Struct{Tag: tag, Fields: fields})
	require.NoError(c.t, err)
	require.NoError(c.t, packstream.WriteMessage(c.conn, data))
}

// Receive reads the next message.
func (c *Client) Receive() *packstream.Struct {
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	data, err := packstream.ReadMessage(c.reader)
	require.NoError(c.t, err)
	s, err := packstream.NewUnpacker(bytes.NewReader(data)).UnpackStruct()
	require.NoError(c.t, err)
	return s
}

// ExpectClosed fails unless the server closes the connection before anything else arrives.
func (c *Client) ExpectClosed() {
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	_, err := c.reader.ReadByte()
	require.Error(c.t, err)
	var netErr net.Error
	assert.False(c.t, errors.As(err, &netErr) && netErr.Timeout(), "connection was not closed")
}

func (c *Client) Close() {
	_ = c.conn.Close()
}

package frontend

import (
	"bufio"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/backend"
)

// fakeAdapter plays the adapter side of the harness protocol from a test script.
type fakeAdapter struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func startFakeAdapter(t *testing.T, script func(a *fakeAdapter)) *Backend {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	ch, err := backend.Dial(listener.Addr().String(), backend.Config{Timeout: time.Second * 2}, nil)
	require.NoError(t, err)
	conn, err := listener.Accept()
	require.NoError(t, err)

	a := &fakeAdapter{t: t, conn: conn, reader: bufio.NewReader(conn)}
	done := make(chan struct{})
	go func() {
		defer close(done)
		script(a)
	}()
	t.Cleanup(func() {
		_ = ch.Close()
		_ = conn.Close()
		<-done
	})
	return NewBackend(ch)
}

func (a *fakeAdapter) readLine() string {
	line, _ := a.reader.ReadString('\n')
	return strings.TrimRight(line, "\n")
}

// expect reads the next request, checks its name, and returns its data.
func (a *fakeAdapter) expect(name string) map[string]interface{} {
	assert.Equal(a.t, "#request begin", a.readLine())
	var msg struct {
		Name string                 `json:"name"`
		Data map[string]interface{} `json:"data"`
	}
	assert.NoError(a.t, json.Unmarshal([]byte(a.readLine()), &msg))
	assert.Equal(a.t, "#request end", a.readLine())
	assert.Equal(a.t, name, msg.Name)
	return msg.Data
}

func (a *fakeAdapter) respond(name string, data interface{}) {
	body, _ := json.Marshal(map[string]interface{}{"name": name, "data": data})
	_, _ = a.conn.Write([]byte("#response begin\n" + string(body) + "\n#response end\n"))
}

type obj = map[string]interface{}

func (a *fakeAdapter) driverAndSession() {
	a.expect("NewDriver")
	a.respond("Driver", obj{"id": "d1"})
	a.expect("NewSession")
	a.respond("Session", obj{"id": "s1"})
}

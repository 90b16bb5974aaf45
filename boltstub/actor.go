package boltstub

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/launchdarkly/bolt-contract-tests/boltstub/packstream"
	"github.com/launchdarkly/bolt-contract-tests/boltstub/script"
	"github.com/launchdarkly/bolt-contract-tests/cypher"
)

var boltMagic = []byte{0x60, 0x60, 0xb0, 0x17}

// defaultAssertOrderWait is how long <ASSERT ORDER> waits for early client messages when the
// script does not say.
const defaultAssertOrderWait = time.Second

// actor plays the script against one connection.
type actor struct {
	server       *Server
	conn         net.Conn
	reader       *bufio.Reader
	id           string
	connectionID string
	protocol     *script.Protocol
	playback     *script.Play

	// pending is the message offered to the script and not yet consumed.
	pending *script.Message
	exited  bool

	lock   sync.Mutex
	killed bool
}

func newActor(s *Server, conn net.Conn, number int) *actor {
	return &actor{
		server:       s,
		conn:         conn,
		reader:       bufio.NewReader(conn),
		id:           uuid.New().String()[:8],
		connectionID: fmt.Sprintf("bolt-%d", number),
		protocol:     s.script.Header.Protocol,
		playback:     s.script.NewPlay(),
	}
}

func (a *actor) logf(format string, args ...interface{}) {
	a.server.logf("[#%s] "+format, append([]interface{}{a.id}, args...)...)
}

func (a *actor) close() {
	_ = a.conn.Close()
}

func (a *actor) kill() {
	a.lock.Lock()
	a.killed = true
	a.lock.Unlock()
	a.close()
}

func (a *actor) wasKilled() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.killed
}

func (a *actor) trySkipToEnd() bool {
	return a.playback.TrySkipToEnd()
}

// play runs the connection to its end and returns what went wrong, if anything.
func (a *actor) play() *ScriptFailure {
	defer a.close()
	a.logf("Accepted connection from %s", a.conn.RemoteAddr())
	if failure := a.handshake(); failure != nil {
		return a.fail(failure)
	}
	if err := a.playback.Init(a); err != nil {
		return a.fail(a.toFailure(err))
	}
	for !a.exited && !a.playback.Done() {
		msg, err := a.read()
		if err != nil {
			return a.fail(a.readFailure(err))
		}
		a.pending = msg
		if err := a.playback.Step(msg, a); err != nil {
			return a.fail(a.toFailure(err))
		}
	}
	if a.exited {
		a.logf("Script exited")
	} else {
		a.logf("Script finished")
	}
	return nil
}

func (a *actor) fail(f *ScriptFailure) *ScriptFailure {
	if f == nil {
		return nil
	}
	a.logf("Script failure: %s", f.Message)
	return f
}

func (a *actor) toFailure(err error) *ScriptFailure {
	var d *script.Deviation
	if errors.As(err, &d) {
		f := failuref("%s", d.Error())
		f.Expected, f.Received = d.Expected, d.Received
		return f
	}
	var f *ScriptFailure
	if errors.As(err, &f) {
		return f
	}
	if a.wasKilled() {
		return nil
	}
	return failuref("%s", err)
}

// readFailure decides whether a failed read ends the connection cleanly.
func (a *actor) readFailure(err error) *ScriptFailure {
	if a.wasKilled() || a.playback.Done() {
		a.logf("Connection closed")
		return nil
	}
	var f *ScriptFailure
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		a.logf("Client hung up")
		if a.playback.TrySkipToEnd() {
			return nil
		}
		f := failuref("Client closed the connection before the script finished. Expected one of:\n%s",
			formatLines(a.playback.Expected()))
		f.Expected = a.playback.Expected()
		return f
	}
	return failuref("Reading from client failed: %s", err)
}

func formatLines(lines []*script.Line) string {
	var b bytes.Buffer
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.String())
	}
	return b.String()
}

func (a *actor) handshake() *ScriptFailure {
	request := make([]byte, 20)
	if _, err := io.ReadFull(a.reader, request); err != nil {
		if a.wasKilled() {
			return nil
		}
		return failuref("Reading handshake failed: %s", err)
	}
	a.logf("C: <MAGIC> %s", spacedHex(request[:4]))
	a.logf("C: <HANDSHAKE> %s", spacedHex(request[4:]))
	if !bytes.Equal(request[:4], boltMagic) {
		return failuref("Invalid magic preamble %s", spacedHex(request[:4]))
	}
	header := a.server.script.Header
	if header.HandshakeDelay > 0 {
		time.Sleep(header.HandshakeDelay)
	}
	if header.Handshake != nil {
		a.logf("S: <HANDSHAKE> %s", spacedHex(header.Handshake))
		return a.write(header.Handshake)
	}
	v, ok := a.protocol.Negotiate(request[4:])
	if !ok {
		_ = a.write([]byte{0, 0, 0, 0})
		return failuref("Failed handshake: stub server talks protocol %s, driver sent handshake %s",
			a.protocol.Version, spacedHex(request[4:]))
	}
	reply := []byte{0, 0, byte(v.Minor), byte(v.Major)}
	a.logf("S: <HANDSHAKE> %s", spacedHex(reply))
	return a.write(reply)
}

func (a *actor) write(data []byte) *ScriptFailure {
	if _, err := a.conn.Write(data); err != nil {
		if a.wasKilled() {
			return nil
		}
		return failuref("Writing to client failed: %s", err)
	}
	return nil
}

func (a *actor) read() (*script.Message, error) {
	data, err := packstream.ReadMessage(a.reader)
	if err != nil {
		return nil, err
	}
	s, err := packstream.NewUnpacker(bytes.NewReader(data)).UnpackStruct()
	if err != nil {
		return nil, failuref("Invalid message from client: %s", err)
	}
	name, ok := a.protocol.ClientMessages[s.Tag]
	if !ok {
		return nil, failuref("Unknown message tag 0x%02X for bolt %s", s.Tag, a.protocol.Version)
	}
	msg := &script.Message{Name: name, Fields: make([]cypher.Value, len(s.Fields))}
	for i, f := range s.Fields {
		if msg.Fields[i], err = hydrate(f, a.protocol.PackstreamVersion); err != nil {
			return nil, failuref("Invalid %s message from client: %s", name, err)
		}
	}
	return msg, nil
}

// Consume implements script.Peer.
func (a *actor) Consume(line *script.Line) *script.Message {
	msg := a.pending
	a.pending = nil
	if msg == nil {
		return nil
	}
	a.server.countRequest(msg.Name)
	if line == nil || line.Role == script.RoleAuto {
		a.logf("C: %s (AUTO)", msg)
	} else {
		a.logf("C: %s", msg)
	}
	return msg
}

// AutoRespond implements script.Peer.
func (a *actor) AutoRespond(msg *script.Message) error {
	meta, err := cypher.FromJSON(a.protocol.AutoReply(msg.Name, a.connectionID))
	if err != nil {
		return err
	}
	encoded, _ := cypher.Encode(meta, false)
	a.logf("S: SUCCESS %s (AUTO)", encoded)
	return a.sendMessage(script.TagSuccess, []cypher.Value{meta})
}

// Send implements script.Peer.
func (a *actor) Send(line *script.Line) error {
	if line.Command != nil {
		return a.runCommand(line)
	}
	a.logf("%s", line.Canonical())
	tag, ok := a.protocol.ServerTag(line.Name)
	if !ok {
		return failuref("Unknown server message %s", line.Name)
	}
	return a.sendMessage(tag, line.Values())
}

func (a *actor) sendMessage(tag byte, fields []cypher.Value) error {
	s := &packstream.Struct{Tag: tag, Fields: make([]interface{}, len(fields))}
	for i, f := range fields {
		d, err := dehydrate(f, a.protocol.PackstreamVersion)
		if err != nil {
			return failuref("Cannot send field %d: %s", i+1, err)
		}
		s.Fields[i] = d
	}
	data, err := packstream.Marshal(s)
	if err != nil {
		return failuref("Cannot pack message: %s", err)
	}
	if err := packstream.WriteMessage(a.conn, data); err != nil {
		if a.wasKilled() {
			return nil
		}
		return failuref("Writing to client failed: %s", err)
	}
	return nil
}

func (a *actor) runCommand(line *script.Line) error {
	a.logf("%s", line.Canonical())
	cmd := line.Command
	switch cmd.Name {
	case script.CommandExit:
		a.exited = true
		a.close()
	case script.CommandNoop:
		if f := a.write([]byte{0, 0}); f != nil {
			return f
		}
	case script.CommandRaw:
		data, err := cmd.RawBytes()
		if err != nil {
			return err
		}
		if f := a.write(data); f != nil {
			return f
		}
	case script.CommandSleep:
		d, err := cmd.Duration()
		if err != nil {
			return err
		}
		time.Sleep(d)
	case script.CommandAssertOrder:
		d := defaultAssertOrderWait
		if cmd.Args != "" {
			var err error
			if d, err = cmd.Duration(); err != nil {
				return err
			}
		}
		return a.assertOrder(d)
	}
	return nil
}

// assertOrder fails when the client sends anything within wait.
func (a *actor) assertOrder(wait time.Duration) error {
	if a.reader.Buffered() == 0 {
		_ = a.conn.SetReadDeadline(time.Now().Add(wait))
		_, err := a.reader.Peek(1)
		_ = a.conn.SetReadDeadline(time.Time{})
		if err != nil {
			return nil
		}
	}
	return failuref("Message received before the server had the chance to respond (<ASSERT ORDER>)")
}

func spacedHex(data []byte) string {
	var b bytes.Buffer
	for i, c := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", c)
	}
	return b.String()
}

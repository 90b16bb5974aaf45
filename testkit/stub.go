package testkit

import (
	"net"
	"strconv"

	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/boltstub"
)

// Stub is a stub server started by a test.
type Stub struct {
	t       *T
	address string
	server  *boltstub.Server
	done    bool
}

// StartStub starts a stub server on the given port playing the script text, with vars
// substituted into it. The server is reset when the test ends, and its transcript goes to the
// test's debug output unless Done found it played out successfully.
func (t *T) StartStub(port int, text string, vars map[string]string) *Stub {
	s, err := t.env.scripts.Parse(text, vars)
	require.NoError(t, err, "invalid stub script")

	address := net.JoinHostPort(t.env.stubHost, strconv.Itoa(port))
	t.Debug("Starting stub server on %s", address)
	server, err := boltstub.Start(address, s, boltstub.Config{Timeout: t.env.stubTimeout})
	require.NoError(t, err, "stub server did not start")

	stub := &Stub{t: t, address: address, server: server}
	t.context.Defer(stub.reset)
	return stub
}

// Address is host:port for drivers to connect to.
func (s *Stub) Address() string {
	return s.address
}

// URI is the bolt:// URI of the server.
func (s *Stub) URI() string {
	return "bolt://" + s.address
}

// Done waits for the script to be played out and fails the test if it was not.
func (s *Stub) Done() {
	err := s.server.Done()
	s.done = true
	if err != nil {
		s.dumpTranscript()
	}
	require.NoError(s.t, err, "stub server on %s", s.address)
}

// CountRequests is the number of client messages with the given name the server received.
func (s *Stub) CountRequests(name string) int {
	return s.server.CountRequests(name)
}

func (s *Stub) reset() {
	s.server.Reset()
	if !s.done {
		s.dumpTranscript()
	}
}

func (s *Stub) dumpTranscript() {
	s.t.Debug(">>>> Captured stub server %s output", s.address)
	s.server.Output().CopyTo(s.t.context.DebugLogger(), "    ")
	s.t.Debug("<<<< Captured stub server %s output", s.address)
}

// Package boltstub is a scripted Bolt server. It plays a script from the script package against
// whatever connects to it and reports every way the traffic strayed from the script.
package boltstub

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/launchdarkly/bolt-contract-tests/boltstub/script"
	"github.com/launchdarkly/bolt-contract-tests/logging"
)

// DefaultTimeout is how long Done waits for the script to be played out.
const DefaultTimeout = 5 * time.Second

type Config struct {
	// Timeout bounds the wait in Done. Zero means DefaultTimeout.
	Timeout time.Duration
	// Log, if set, receives a copy of the transcript as it is written.
	Log logging.Logger
}

// FailureKind tells apart the ways a stub run can fail.
type FailureKind int

const (
	// FailureScript means a connection deviated from the script.
	FailureScript FailureKind = iota
	// FailureTimeout means the script was still being played when Done gave up waiting.
	FailureTimeout
	// FailureNeverStarted means nothing connected to the server.
	FailureNeverStarted
)

// ScriptFailure describes why a stub run failed.
type ScriptFailure struct {
	Kind    FailureKind
	Message string
	// Expected and Received are set when a client message deviated from the script.
	Expected   []*script.Line
	Received   *script.Message
	Transcript logging.CapturedOutput
}

func (f *ScriptFailure) Error() string {
	return f.Message
}

// Server is a running stub server.
type Server struct {
	script     *script.Script
	config     Config
	listener   net.Listener
	transcript *logging.CapturingLogger

	lock          sync.Mutex
	actors        map[*actor]struct{}
	failures      []*ScriptFailure
	requestCounts map[string]int
	connections   int
	stopped       bool

	acceptDone chan struct{}
	workers    sync.WaitGroup
	finished   chan struct{}
	finishOnce sync.Once
}

// Start listens on address and plays s against every connection it accepts. It returns once the
// server is accepting connections.
func Start(address string, s *script.Script, config Config) (*Server, error) {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	srv := &Server{
		script:        s,
		config:        config,
		listener:      listener,
		transcript:    &logging.CapturingLogger{},
		actors:        make(map[*actor]struct{}),
		requestCounts: make(map[string]int),
		acceptDone:    make(chan struct{}),
		finished:      make(chan struct{}),
	}
	srv.logf("Listening on %s", listener.Addr())
	go srv.serve()
	return srv, nil
}

// Address is the address the server accepts connections on.
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

func (s *Server) logf(format string, args ...interface{}) {
	s.transcript.Printf(format, args...)
	if s.config.Log != nil {
		s.config.Log.Printf(format, args...)
	}
}

func (s *Server) serve() {
	defer close(s.acceptDone)
	header := s.script.Header
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.lock.Lock()
		if s.stopped {
			s.lock.Unlock()
			_ = conn.Close()
			return
		}
		s.connections++
		if s.connections > 1 && !header.AllowRestart && !header.AllowConcurrent {
			s.failures = append(s.failures, failuref(
				"Unexpected connection from %s: the script allows neither restart nor concurrent connections",
				conn.RemoteAddr()))
			s.lock.Unlock()
			s.logf("Refused connection from %s", conn.RemoteAddr())
			_ = conn.Close()
			continue
		}
		a := newActor(s, conn, s.connections)
		s.actors[a] = struct{}{}
		s.workers.Add(1)
		s.lock.Unlock()

		if header.AllowRestart {
			s.run(a)
		} else {
			go s.run(a)
		}
	}
}

func (s *Server) run(a *actor) {
	defer s.workers.Done()
	failure := a.play()
	s.lock.Lock()
	delete(s.actors, a)
	if failure != nil {
		s.failures = append(s.failures, failure)
	}
	s.lock.Unlock()
	header := s.script.Header
	if !header.AllowRestart && !header.AllowConcurrent {
		s.finishOnce.Do(func() { close(s.finished) })
	}
}

// Finished is closed once the only connection a script allows has ended. It is never closed for a
// script that allows restart or concurrent connections.
func (s *Server) Finished() <-chan struct{} {
	return s.finished
}

func (s *Server) countRequest(name string) {
	s.lock.Lock()
	s.requestCounts[name]++
	s.lock.Unlock()
}

// CountRequests returns how many messages named name clients have sent, including ones answered
// automatically.
func (s *Server) CountRequests(name string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.requestCounts[name]
}

// Output is the transcript so far.
func (s *Server) Output() logging.CapturedOutput {
	return s.transcript.Output()
}

func (s *Server) liveActors() []*actor {
	s.lock.Lock()
	defer s.lock.Unlock()
	ret := make([]*actor, 0, len(s.actors))
	for a := range s.actors {
		ret = append(ret, a)
	}
	return ret
}

func (s *Server) closeListener() {
	s.lock.Lock()
	s.stopped = true
	s.lock.Unlock()
	_ = s.listener.Close()
}

// Done waits for every connection to play the script out, then stops the server. Connections
// whose remaining script is optional are closed. It returns the first failure.
func (s *Server) Done() error {
	s.closeListener()
	deadline := time.Now().Add(s.config.Timeout)
	for {
		live := s.liveActors()
		for _, a := range live {
			if a.trySkipToEnd() {
				a.close()
			}
		}
		if len(live) == 0 {
			break
		}
		if time.Now().After(deadline) {
			s.kill()
			s.addFailure(&ScriptFailure{
				Kind:    FailureTimeout,
				Message: "Stub server hanged: the script was not finished before the timeout",
			})
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	<-s.acceptDone
	s.workers.Wait()

	s.lock.Lock()
	if s.connections == 0 && len(s.failures) == 0 {
		s.failures = append(s.failures, &ScriptFailure{
			Kind:    FailureNeverStarted,
			Message: "Stub server script never started: no connection was made",
		})
	}
	failures := s.failures
	s.lock.Unlock()
	if len(failures) == 0 {
		return nil
	}
	output := s.Output()
	for _, f := range failures {
		f.Transcript = output
	}
	if len(failures) == 1 {
		return failures[0]
	}
	messages := make([]string, len(failures))
	for i, f := range failures {
		messages[i] = f.Message
	}
	first := *failures[0]
	first.Message = strings.Join(messages, "\n\n")
	return &first
}

func (s *Server) addFailure(f *ScriptFailure) {
	s.lock.Lock()
	s.failures = append(s.failures, f)
	s.lock.Unlock()
}

func (s *Server) kill() {
	for _, a := range s.liveActors() {
		a.kill()
	}
}

// Reset stops the server and drops every connection without checking the script. It may be
// called any number of times, also after Done.
func (s *Server) Reset() {
	s.closeListener()
	s.kill()
	<-s.acceptDone
	s.workers.Wait()
}

// IsScriptFailure reports whether err is a failure reported by a stub server.
func IsScriptFailure(err error) bool {
	var f *ScriptFailure
	return errors.As(err, &f)
}

func failuref(format string, args ...interface{}) *ScriptFailure {
	return &ScriptFailure{Kind: FailureScript, Message: fmt.Sprintf(format, args...)}
}

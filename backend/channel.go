// Package backend is the harness side of the connection to a driver adapter. A Channel sends one
// request at a time and waits for its response, running registered callback handlers for any
// requests the adapter makes in the meantime.
package backend

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/launchdarkly/bolt-contract-tests/logging"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

const (
	DefaultTimeout        = time.Second * 10
	DefaultConnectTimeout = time.Second * 10

	requestBegin  = "#request begin"
	requestEnd    = "#request end"
	responseBegin = "#response begin"
	responseEnd   = "#response end"

	maxBlankLines = 50
)

// Config controls how a Channel connects and reads.
type Config struct {
	// Timeout bounds each wait for a response line. Zero disables it.
	Timeout        time.Duration
	ConnectTimeout time.Duration
	// LogRequests logs every request and response line to the debug logger.
	LogRequests bool
}

// Handler answers a callback request from the adapter. It returns the message to send back.
type Handler func(request interface{}) (interface{}, error)

// Channel is one connection to the adapter. It is not safe for concurrent use: the harness runs
// tests on a single goroutine, and callback handlers run on the goroutine that is waiting for a
// response.
type Channel struct {
	conn       net.Conn
	reader     *bufio.Reader
	config     Config
	logger     logging.Logger
	handlers   map[string]Handler
	registries map[string]*Registry
	closed     bool
	broken     error
}

// Dial connects to the adapter, retrying until ConnectTimeout passes since the adapter may still
// be starting.
func Dial(address string, config Config, logger logging.Logger) (*Channel, error) {
	if logger == nil {
		logger = logging.NullLogger()
	}
	connectTimeout := config.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	deadline := time.Now().Add(connectTimeout)
	for {
		conn, err := net.DialTimeout("tcp", address, connectTimeout)
		if err == nil {
			return NewChannel(conn, config, logger), nil
		}
		if !time.Now().Before(deadline) {
			return nil, &ProtocolError{Op: "connect to " + address, Err: err}
		}
		time.Sleep(time.Millisecond * 100)
	}
}

// NewChannel wraps an existing connection.
func NewChannel(conn net.Conn, config Config, logger logging.Logger) *Channel {
	if logger == nil {
		logger = logging.NullLogger()
	}
	return &Channel{
		conn:       conn,
		reader:     bufio.NewReader(conn),
		config:     config,
		logger:     logger,
		handlers:   make(map[string]Handler),
		registries: make(map[string]*Registry),
	}
}

// Handle registers the handler for a kind of callback request, replacing any previous one.
func (c *Channel) Handle(name string, handler Handler) {
	c.handlers[name] = handler
}

// Registry returns the id-to-facade registry for a kind of handle, creating it on first use.
func (c *Channel) Registry(kind string) *Registry {
	r, ok := c.registries[kind]
	if !ok {
		r = newRegistry(kind)
		c.registries[kind] = r
	}
	return r
}

func (c *Channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// Send writes one request block.
func (c *Channel) Send(request interface{}) error {
	line, err := servicedef.EncodeRequest(request)
	if err != nil {
		return err
	}
	if c.config.LogRequests {
		c.logger.Printf(">>> %s", string(line))
	}
	block := requestBegin + "\n" + string(line) + "\n" + requestEnd + "\n"
	if _, err := io.WriteString(c.conn, block); err != nil {
		return c.fail(&ProtocolError{Op: "send " + servicedef.MessageName(request), Err: err})
	}
	return nil
}

func (c *Channel) fail(err *ProtocolError) error {
	if c.broken == nil {
		c.broken = err
	}
	return err
}

// Err returns the first framing or connectivity failure seen on the channel, or nil while it is
// still usable.
func (c *Channel) Err() error {
	return c.broken
}

// receiveMessage reads up to the next complete response block and decodes it. Error kinds sent by
// the adapter are returned as values, not as errors; the error result is only for framing and
// connectivity problems.
func (c *Channel) receiveMessage() (interface{}, error) {
	var body []string
	inResponse := false
	blankLines := 0
	for {
		if c.config.Timeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.config.Timeout))
		}
		line, err := c.reader.ReadString('\n')
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, &ProtocolError{Op: "receive", Err: fmt.Errorf("no response from adapter within %s", c.config.Timeout)}
			}
			return nil, &ProtocolError{Op: "receive", Err: err}
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == responseBegin:
			if inResponse {
				return nil, &ProtocolError{Op: "receive", Err: errors.New("response begin inside response")}
			}
			inResponse = true
		case line == responseEnd:
			if !inResponse {
				return nil, &ProtocolError{Op: "receive", Err: errors.New("response end outside of response")}
			}
			text := strings.Join(body, "\n")
			if c.config.LogRequests {
				c.logger.Printf("<<< %s", text)
			}
			msg, err := servicedef.DecodeResponse([]byte(text))
			if err != nil {
				return nil, &ProtocolError{Op: "decode response", Err: err}
			}
			return msg, nil
		case inResponse:
			body = append(body, line)
		case strings.TrimSpace(line) == "":
			blankLines++
			if blankLines > maxBlankLines {
				return nil, &ProtocolError{Op: "receive", Err: errors.New("adapter crashed: too many blank lines")}
			}
		default:
			blankLines = 0
			c.logger.Printf("[adapter] %s", line)
		}
	}
}

// Receive waits for the next message that is not a callback, running handlers for callbacks that
// arrive first. A response of one of the error kinds is returned as an error.
func (c *Channel) Receive() (interface{}, error) {
	var handlerErr error
	for {
		msg, err := c.receiveMessage()
		if err != nil {
			var protoErr *ProtocolError
			if errors.As(err, &protoErr) {
				return nil, c.fail(protoErr)
			}
			return nil, err
		}
		name := servicedef.MessageName(msg)
		handler, isCallback := c.handlers[name]
		if !isCallback {
			if handlerErr != nil {
				return msg, &CallbackError{Response: msg, Err: handlerErr}
			}
			if e, isErr := msg.(error); isErr {
				return nil, e
			}
			return msg, nil
		}
		reply, err := c.runHandler(name, handler, msg)
		if err != nil {
			var unknown *UnknownHandleError
			if errors.As(err, &unknown) {
				return nil, err
			}
			if handlerErr == nil {
				handlerErr = err
			}
			reply = servicedef.FrontendError{Msg: err.Error()}
		}
		if err := c.Send(reply); err != nil {
			return nil, err
		}
	}
}

func (c *Channel) runHandler(name string, handler Handler, msg interface{}) (reply interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("%s handler panicked: %w", name, e)
			} else {
				err = fmt.Errorf("%s handler panicked: %v", name, r)
			}
		}
	}()
	reply, err = handler(msg)
	if err == nil && reply == nil {
		err = fmt.Errorf("%s handler returned no reply", name)
	}
	return reply, err
}

// SendAndReceive sends a request and returns its response. Callback requests that the adapter
// makes while the request is in progress are dispatched to the registered handlers, which may
// themselves call SendAndReceive.
func (c *Channel) SendAndReceive(request interface{}) (interface{}, error) {
	if err := c.Send(request); err != nil {
		return nil, err
	}
	return c.Receive()
}

// GetFeatures asks the adapter for the features it declares.
func (c *Channel) GetFeatures() ([]string, error) {
	res, err := c.SendAndReceive(servicedef.GetFeatures{})
	if err != nil {
		return nil, err
	}
	list, ok := res.(servicedef.FeatureList)
	if !ok {
		return nil, UnexpectedResponse("FeatureList", res)
	}
	return list.Features, nil
}

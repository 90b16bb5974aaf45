package script

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/launchdarkly/bolt-contract-tests/cypher"
)

// Role is the prefix of a message line.
type Role string

const (
	RoleClient Role = "C:"
	RoleServer Role = "S:"
	RoleAuto   Role = "A:"
)

// Line is one message line of a script: a message the client must send, one the server sends, or
// a server command such as <EXIT>.
type Line struct {
	Number int
	Role   Role
	Name   string
	// Fields are the JSON documents that followed the message name, decoded with json.Number.
	Fields  []interface{}
	Command *Command

	values []cypher.Value
}

// Command is a server line of the form <NAME> args.
type Command struct {
	Name string
	Args string
}

const (
	CommandExit        = "EXIT"
	CommandNoop        = "NOOP"
	CommandRaw         = "RAW"
	CommandSleep       = "SLEEP"
	CommandAssertOrder = "ASSERT ORDER"
)

var commandRegex = regexp.MustCompile(`^<(.+?)>(.*)$`)

// LineError is a script error located at a line.
type LineError struct {
	Line int
	Msg  string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func lineErrorf(line int, format string, args ...interface{}) error {
	return &LineError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

func newLine(number int, role Role, content string) (*Line, error) {
	l := &Line{Number: number, Role: role}
	if role == RoleServer {
		if m := commandRegex.FindStringSubmatch(content); m != nil {
			l.Command = &Command{Name: m[1], Args: strings.TrimSpace(m[2])}
			if err := l.Command.validate(); err != nil {
				return nil, lineErrorf(number, "%s", err)
			}
			return l, nil
		}
	}
	name, fields, err := parseMessage(content)
	if err != nil {
		return nil, lineErrorf(number, "%s", err)
	}
	l.Name, l.Fields = name, fields
	if role == RoleServer {
		l.values = make([]cypher.Value, len(fields))
		for i, f := range fields {
			if l.values[i], err = cypher.FromJSON(f); err != nil {
				return nil, lineErrorf(number, "invalid field %d: %s", i+1, err)
			}
		}
		return l, nil
	}
	for i, f := range fields {
		if err := validatePattern(f); err != nil {
			return nil, lineErrorf(number, "invalid field %d: %s", i+1, err)
		}
	}
	return l, nil
}

// parseMessage splits "NAME field field..." where every field is a JSON document.
func parseMessage(content string) (string, []interface{}, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil, fmt.Errorf("missing message name")
	}
	name, data := content, ""
	if i := strings.IndexAny(content, " \t"); i >= 0 {
		name, data = content[:i], content[i+1:]
	}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	fields := []interface{}{}
	for {
		var f interface{}
		err := dec.Decode(&f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("message fields must be white space separated json: %s", err)
		}
		fields = append(fields, f)
	}
	return name, fields, nil
}

func (c *Command) validate() error {
	switch c.Name {
	case CommandExit, CommandNoop:
		if c.Args != "" {
			return fmt.Errorf("%s takes no arguments", c.Name)
		}
	case CommandRaw:
		if _, err := c.RawBytes(); err != nil {
			return fmt.Errorf("invalid raw data: %s", err)
		}
	case CommandSleep:
		if _, err := parseSeconds(c.Args); err != nil {
			return err
		}
	case CommandAssertOrder:
		if c.Args != "" {
			if _, err := parseSeconds(c.Args); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown command %q", c.Name)
	}
	return nil
}

// RawBytes decodes the hex argument of <RAW>. White space is ignored.
func (c *Command) RawBytes() ([]byte, error) {
	return parseHex(c.Args)
}

func parseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" || len(s)%2 != 0 {
		return nil, fmt.Errorf("must be a list of 2-digit hex encoded bytes")
	}
	return hex.DecodeString(s)
}

// Duration is the argument of <SLEEP> or <ASSERT ORDER>.
func (c *Command) Duration() (time.Duration, error) {
	secs, err := parseSeconds(c.Args)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func parseSeconds(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("duration must be non-negative")
	}
	return f, nil
}

// Values returns the decoded fields of a server message line.
func (l *Line) Values() []cypher.Value {
	return l.values
}

// Canonical renders the line the same way regardless of the white space it was written with.
func (l *Line) Canonical() string {
	if l.Command != nil {
		s := string(l.Role) + " <" + l.Command.Name + ">"
		if l.Command.Args != "" {
			s += " " + l.Command.Args
		}
		return s
	}
	parts := []string{string(l.Role), l.Name}
	for _, f := range l.Fields {
		parts = append(parts, canonicalJSON(f))
	}
	return strings.Join(parts, " ")
}

func (l *Line) String() string {
	return fmt.Sprintf("(%3d) %s", l.Number, l.Canonical())
}

func canonicalJSON(x interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(x); err != nil {
		return fmt.Sprintf("%v", x)
	}
	return strings.TrimRight(buf.String(), "\n")
}

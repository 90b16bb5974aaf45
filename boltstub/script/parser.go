package script

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Header holds the bang lines of a script.
type Header struct {
	Protocol *Protocol
	// Auto names the client messages the server answers with SUCCESS wherever they arrive.
	Auto            map[string]bool
	AllowRestart    bool
	AllowConcurrent bool
	// Handshake, when set, is sent in place of the negotiated version.
	Handshake      []byte
	HandshakeDelay time.Duration
}

// Script is a parsed stub server script. It is immutable; each connection plays it through its
// own Play.
type Script struct {
	Header Header
	body   *blockList
}

type tokenKind int

const (
	tokenBang tokenKind = iota
	tokenLine
	tokenMacro
	tokenDelimiter
)

type token struct {
	kind   tokenKind
	number int
	// prefix is the role or macro prefix of a message line, or the delimiter itself.
	prefix string
	text   string
	// continuation marks a message line written without a prefix.
	continuation bool
}

var delimiters = map[string]bool{
	"{{": true, "}}": true, "----": true, "++++": true,
	"{?": true, "?}": true, "{*": true, "*}": true, "{+": true, "+}": true,
}

var macroPrefixes = map[string]bool{"?:": true, "*:": true, "+:": true}

// Parse compiles a script. Every #NAME# in the text is first replaced with vars["NAME"]; a key
// may also be given with its surrounding #s.
func Parse(text string, vars map[string]string) (*Script, error) {
	text = substitute(text, vars)
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	s := &Script{Header: Header{Auto: map[string]bool{}}}
	i := 0
	for ; i < len(tokens) && tokens[i].kind == tokenBang; i++ {
		if err := s.Header.apply(tokens[i]); err != nil {
			return nil, err
		}
	}
	if s.Header.Protocol == nil {
		return nil, fmt.Errorf("script must name a bolt version with !: BOLT")
	}
	if s.Header.AllowRestart && s.Header.AllowConcurrent {
		return nil, fmt.Errorf("ALLOW RESTART and ALLOW CONCURRENT cannot be combined")
	}
	for name := range s.Header.Auto {
		if _, ok := s.Header.Protocol.ClientTag(name); !ok {
			return nil, fmt.Errorf("AUTO %s: not a client message in bolt %s", name, s.Header.Protocol.Version)
		}
	}
	p := &parser{tokens: tokens, pos: i, protocol: s.Header.Protocol}
	blocks, end, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if end != nil {
		return nil, lineErrorf(end.number, "unexpected %s", end.prefix)
	}
	if s.body, err = newBlockList(blocks); err != nil {
		return nil, err
	}
	if err := s.body.checkNoInit(); err != nil {
		return nil, err
	}
	return s, nil
}

func substitute(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		key := k
		if !strings.HasPrefix(key, "#") || !strings.HasSuffix(key, "#") || len(key) < 2 {
			key = "#" + k + "#"
		}
		pairs = append(pairs, key, vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func tokenize(text string) ([]token, error) {
	var tokens []token
	var lastRole string
	for i, raw := range strings.Split(text, "\n") {
		number := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if delimiters[line] {
			tokens = append(tokens, token{kind: tokenDelimiter, number: number, prefix: line})
			lastRole = ""
			continue
		}
		prefix := ""
		if len(line) >= 2 && line[1] == ':' {
			prefix = line[:2]
		}
		body := ""
		if prefix != "" {
			body = strings.TrimSpace(line[2:])
		}
		switch {
		case prefix == "!:":
			tokens = append(tokens, token{kind: tokenBang, number: number, prefix: prefix, text: body})
			lastRole = ""
		case prefix == string(RoleClient) || prefix == string(RoleServer) || prefix == string(RoleAuto):
			tokens = append(tokens, token{kind: tokenLine, number: number, prefix: prefix, text: body})
			lastRole = prefix
		case macroPrefixes[prefix]:
			tokens = append(tokens, token{kind: tokenMacro, number: number, prefix: prefix, text: body})
			lastRole = ""
		case strings.HasPrefix(line, "PY:"):
			return nil, lineErrorf(number, "python lines are not supported")
		case lastRole != "":
			tokens = append(tokens, token{
				kind: tokenLine, number: number, prefix: lastRole, text: line, continuation: true,
			})
		default:
			return nil, lineErrorf(number, "unexpected line %q", line)
		}
	}
	return tokens, nil
}

func (h *Header) apply(t token) error {
	word, args := t.text, ""
	keyword := false
	for _, two := range []string{"ALLOW RESTART", "ALLOW CONCURRENT"} {
		if strings.Join(strings.Fields(t.text), " ") == two {
			word, keyword = two, true
		}
	}
	if !keyword {
		if i := strings.IndexAny(t.text, " \t"); i >= 0 {
			word, args = t.text[:i], strings.TrimSpace(t.text[i+1:])
		}
	}
	switch word {
	case "BOLT":
		if h.Protocol != nil {
			return lineErrorf(t.number, "bolt version given twice")
		}
		v, err := ParseVersion(args)
		if err != nil {
			return lineErrorf(t.number, "%s", err)
		}
		if h.Protocol, err = LookupProtocol(v); err != nil {
			return lineErrorf(t.number, "%s", err)
		}
	case "AUTO":
		if args == "" {
			return lineErrorf(t.number, "AUTO needs a message name")
		}
		h.Auto[args] = true
	case "ALLOW RESTART":
		h.AllowRestart = true
	case "ALLOW CONCURRENT":
		h.AllowConcurrent = true
	case "HANDSHAKE":
		data, err := parseHex(args)
		if err != nil {
			return lineErrorf(t.number, "HANDSHAKE %s", err)
		}
		h.Handshake = data
	case "HANDSHAKE_DELAY":
		secs, err := parseSeconds(args)
		if err != nil {
			return lineErrorf(t.number, "HANDSHAKE_DELAY %s", err)
		}
		h.HandshakeDelay = time.Duration(secs * float64(time.Second))
	case "PY":
		return lineErrorf(t.number, "python lines are not supported")
	default:
		return lineErrorf(t.number, "unknown bang line %q", t.text)
	}
	return nil
}

type parser struct {
	tokens   []token
	pos      int
	protocol *Protocol
}

// parseList reads blocks until a closing or separating delimiter, which it consumes and returns.
// It returns a nil delimiter at the end of the input.
func (p *parser) parseList() ([]block, *token, error) {
	var blocks []block
	for p.pos < len(p.tokens) {
		t := p.tokens[p.pos]
		switch t.kind {
		case tokenBang:
			return nil, nil, lineErrorf(t.number, "bang lines must come before the script body")
		case tokenLine:
			b, err := p.parseMessageBlock()
			if err != nil {
				return nil, nil, err
			}
			blocks = append(blocks, b)
		case tokenMacro:
			p.pos++
			b, err := p.parseMacro(t)
			if err != nil {
				return nil, nil, err
			}
			blocks = append(blocks, b)
		case tokenDelimiter:
			p.pos++
			var b block
			var err error
			switch t.prefix {
			case "{{":
				b, err = p.parseBranches(t)
			case "{?":
				b, err = p.parseWrapped(t, "?}", func(body *blockList) (block, error) {
					return newOptionalBlock(body, false)
				})
			case "{*":
				b, err = p.parseWrapped(t, "*}", func(body *blockList) (block, error) {
					return newRepeatBlock(body, 0, false)
				})
			case "{+":
				b, err = p.parseWrapped(t, "+}", func(body *blockList) (block, error) {
					return newRepeatBlock(body, 1, false)
				})
			default:
				return blocks, &t, nil
			}
			if err != nil {
				return nil, nil, err
			}
			blocks = append(blocks, b)
		}
	}
	return blocks, nil, nil
}

// parseMessageBlock groups consecutive lines of one role. Each A: line is a block of its own.
func (p *parser) parseMessageBlock() (block, error) {
	first := p.tokens[p.pos]
	var body []*Line
	for p.pos < len(p.tokens) {
		t := p.tokens[p.pos]
		if t.kind != tokenLine || t.prefix != first.prefix {
			break
		}
		if len(body) > 0 && first.prefix == string(RoleAuto) {
			break
		}
		l, err := p.newLine(t, Role(t.prefix))
		if err != nil {
			return nil, err
		}
		body = append(body, l)
		p.pos++
	}
	switch Role(first.prefix) {
	case RoleClient:
		return &clientBlock{body: body}, nil
	case RoleAuto:
		return &autoBlock{clientBlock{body: body}}, nil
	default:
		return &serverBlock{body: body}, nil
	}
}

func (p *parser) parseMacro(t token) (block, error) {
	l, err := p.newLine(t, RoleAuto)
	if err != nil {
		return nil, err
	}
	body := &blockList{blocks: []block{&autoBlock{clientBlock{body: []*Line{l}}}}}
	switch t.prefix {
	case "?:":
		return newOptionalBlock(body, true)
	case "*:":
		return newRepeatBlock(body, 0, true)
	default:
		return newRepeatBlock(body, 1, true)
	}
}

func (p *parser) newLine(t token, role Role) (*Line, error) {
	l, err := newLine(t.number, role, t.text)
	if err != nil {
		return nil, err
	}
	if l.Command != nil {
		return l, nil
	}
	if role == RoleServer {
		if _, ok := p.protocol.ServerTag(l.Name); !ok {
			return nil, lineErrorf(t.number, "unknown server message %s for bolt %s (expected one of %s)",
				l.Name, p.protocol.Version, strings.Join(messageNames(p.protocol.ServerMessages), ", "))
		}
	} else if _, ok := p.protocol.ClientTag(l.Name); !ok {
		return nil, lineErrorf(t.number, "unknown client message %s for bolt %s (expected one of %s)",
			l.Name, p.protocol.Version, strings.Join(messageNames(p.protocol.ClientMessages), ", "))
	}
	return l, nil
}

func (p *parser) parseWrapped(open token, closing string, build func(*blockList) (block, error)) (block, error) {
	blocks, end, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if end == nil || end.prefix != closing {
		return nil, p.unclosed(open, closing, end)
	}
	body, err := newBlockList(blocks)
	if err != nil {
		return nil, err
	}
	return build(body)
}

func (p *parser) parseBranches(open token) (block, error) {
	var branches []*blockList
	separator := ""
	for {
		blocks, end, err := p.parseList()
		if err != nil {
			return nil, err
		}
		body, err := newBlockList(blocks)
		if err != nil {
			return nil, err
		}
		branches = append(branches, body)
		if end == nil {
			return nil, p.unclosed(open, "}}", nil)
		}
		switch end.prefix {
		case "}}":
			switch separator {
			case "":
				return body, nil
			case "----":
				return newAlternativeBlock(branches)
			default:
				return newParallelBlock(branches)
			}
		case "----", "++++":
			if separator != "" && separator != end.prefix {
				return nil, lineErrorf(end.number, "cannot mix ---- and ++++ in one block")
			}
			separator = end.prefix
		default:
			return nil, p.unclosed(open, "}}", end)
		}
	}
}

func (p *parser) unclosed(open token, closing string, found *token) error {
	if found == nil {
		return lineErrorf(open.number, "%s is never closed with %s", open.prefix, closing)
	}
	return lineErrorf(found.number, "expected %s to close %s from line %d, found %s",
		closing, open.prefix, open.number, found.prefix)
}

// Render writes the script back out in canonical form.
func (s *Script) Render() string {
	r := &renderer{}
	r.line("!: BOLT " + s.Header.Protocol.Version.String())
	autos := make([]string, 0, len(s.Header.Auto))
	for name := range s.Header.Auto {
		autos = append(autos, name)
	}
	sort.Strings(autos)
	for _, name := range autos {
		r.line("!: AUTO " + name)
	}
	if s.Header.AllowRestart {
		r.line("!: ALLOW RESTART")
	}
	if s.Header.AllowConcurrent {
		r.line("!: ALLOW CONCURRENT")
	}
	if s.Header.Handshake != nil {
		r.line("!: HANDSHAKE " + spacedHex(s.Header.Handshake))
	}
	if s.Header.HandshakeDelay > 0 {
		r.line(fmt.Sprintf("!: HANDSHAKE_DELAY %g", s.Header.HandshakeDelay.Seconds()))
	}
	r.blank()
	s.body.renderBody(r)
	return r.String()
}

// Lines returns every message line of the script in source order.
func (s *Script) Lines() []*Line {
	return s.body.lines()
}

func spacedHex(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = hex.EncodeToString([]byte{b})
	}
	return strings.ToUpper(strings.Join(parts, " "))
}

type renderer struct {
	buf   strings.Builder
	depth int
}

func (r *renderer) line(s string) {
	r.buf.WriteString(strings.Repeat("    ", r.depth))
	r.buf.WriteString(s)
	r.buf.WriteByte('\n')
}

func (r *renderer) blank() {
	r.buf.WriteByte('\n')
}

func (r *renderer) indented(f func(*renderer)) {
	r.depth++
	f(r)
	r.depth--
}

func (r *renderer) String() string {
	return r.buf.String()
}

package script

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Version is a Bolt protocol version.
type Version struct {
	Major, Minor int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func (v Version) AtLeast(major, minor int) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// ParseVersion accepts "4.4" as well as a bare major version such as "5".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) > 2 {
		return Version{}, fmt.Errorf("invalid bolt version %q", s)
	}
	var v Version
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return Version{}, fmt.Errorf("invalid bolt version %q, must be like 4.2", s)
	}
	if len(parts) == 2 {
		if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
			return Version{}, fmt.Errorf("invalid bolt version %q, must be like 4.2", s)
		}
	}
	return v, nil
}

// Message tags.
const (
	TagHello     byte = 0x01
	TagGoodbye   byte = 0x02
	TagReset     byte = 0x0f
	TagRun       byte = 0x10
	TagBegin     byte = 0x11
	TagCommit    byte = 0x12
	TagRollback  byte = 0x13
	TagDiscard   byte = 0x2f
	TagPull      byte = 0x3f
	TagTelemetry byte = 0x54
	TagRoute     byte = 0x66
	TagLogon     byte = 0x6a
	TagLogoff    byte = 0x6b
	TagSuccess   byte = 0x70
	TagRecord    byte = 0x71
	TagIgnored   byte = 0x7e
	TagFailure   byte = 0x7f
)

// Protocol describes what the stub speaks for one Bolt version.
type Protocol struct {
	Version Version
	// Equivalent versions may be negotiated in place of Version.
	Equivalent []Version
	// Packstream 2 carries element ids on graph structs and UTC based date-times.
	PackstreamVersion int
	ServerAgent       string
	ClientMessages    map[byte]string
	ServerMessages    map[byte]string

	// maskedBytes is how many leading bytes of each handshake proposal this version ignores.
	maskedBytes int
	// routingInHello adds a routing entry to the automatic HELLO reply.
	routingInHello bool
}

var serverMessages = map[byte]string{
	TagSuccess: "SUCCESS",
	TagRecord:  "RECORD",
	TagIgnored: "IGNORED",
	TagFailure: "FAILURE",
}

func clientMessages(v Version) map[byte]string {
	m := map[byte]string{
		TagHello:    "HELLO",
		TagGoodbye:  "GOODBYE",
		TagReset:    "RESET",
		TagRun:      "RUN",
		TagBegin:    "BEGIN",
		TagCommit:   "COMMIT",
		TagRollback: "ROLLBACK",
		TagDiscard:  "DISCARD",
		TagPull:     "PULL",
	}
	if v.Major < 4 {
		m[TagDiscard] = "DISCARD_ALL"
		m[TagPull] = "PULL_ALL"
	}
	if v.AtLeast(4, 3) {
		m[TagRoute] = "ROUTE"
	}
	if v.AtLeast(5, 1) {
		m[TagLogon] = "LOGON"
		m[TagLogoff] = "LOGOFF"
	}
	if v.AtLeast(5, 4) {
		m[TagTelemetry] = "TELEMETRY"
	}
	return m
}

var serverAgents = map[Version]string{
	{3, 0}: "Neo4j/3.5.0",
	{4, 0}: "Neo4j/4.0.0",
	{4, 1}: "Neo4j/4.1.0",
	{4, 2}: "Neo4j/4.2.0",
	{4, 3}: "Neo4j/4.3.0",
	{4, 4}: "Neo4j/4.4.0",
	{5, 0}: "Neo4j/5.0.0",
	{5, 1}: "Neo4j/5.5.0",
	{5, 2}: "Neo4j/5.7.0",
	{5, 3}: "Neo4j/5.9.0",
	{5, 4}: "Neo4j/5.13.0",
	{5, 5}: "Neo4j/5.21.0",
	{5, 6}: "Neo4j/5.23.0",
}

// aliases lets scripts name a version loosely.
var aliases = map[Version]Version{
	{3, 5}: {3, 0},
	{3, 6}: {3, 0},
}

// LookupProtocol returns the protocol for a version named in a script.
func LookupProtocol(v Version) (*Protocol, error) {
	if a, ok := aliases[v]; ok {
		v = a
	}
	agent, ok := serverAgents[v]
	if !ok {
		return nil, fmt.Errorf("unsupported bolt version %s, must be one of %s", v, strings.Join(SupportedVersions(), ", "))
	}
	p := &Protocol{
		Version:           v,
		PackstreamVersion: 1,
		ServerAgent:       agent,
		ClientMessages:    clientMessages(v),
		ServerMessages:    serverMessages,
		routingInHello:    v.AtLeast(4, 1),
	}
	switch {
	case v.Major < 4:
		p.maskedBytes = 3
	case !v.AtLeast(4, 2):
		p.maskedBytes = 2
	default:
		p.maskedBytes = 1
	}
	if v == (Version{4, 2}) {
		p.Equivalent = []Version{{4, 1}}
	}
	if v.Major >= 5 {
		p.PackstreamVersion = 2
	}
	return p, nil
}

func SupportedVersions() []string {
	versions := make([]Version, 0, len(serverAgents))
	for v := range serverAgents {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return !versions[i].AtLeast(versions[j].Major, versions[j].Minor)
	})
	ret := make([]string, len(versions))
	for i, v := range versions {
		ret[i] = v.String()
	}
	return ret
}

// ProposedVersions decodes the four version proposals of a client handshake, applying this
// version's view of which bytes are meaningful.
func (p *Protocol) ProposedVersions(proposal []byte) []Version {
	var ret []Version
	for i := 0; i+4 <= len(proposal) && i < 16; i += 4 {
		spec := make([]byte, 4)
		copy(spec, proposal[i:i+4])
		for j := 0; j < p.maskedBytes; j++ {
			spec[j] = 0
		}
		rng, minor, major := int(spec[1]), int(spec[2]), int(spec[3])
		for m := minor; m >= minor-rng && m >= 0; m-- {
			ret = append(ret, Version{major, m})
		}
	}
	return ret
}

// Negotiate picks the version to answer a handshake with.
func (p *Protocol) Negotiate(proposal []byte) (Version, bool) {
	proposed := p.ProposedVersions(proposal)
	for _, v := range proposed {
		if v == p.Version {
			return v, true
		}
	}
	var best *Version
	for _, v := range proposed {
		for _, e := range p.Equivalent {
			if v == e && (best == nil || v.AtLeast(best.Major, best.Minor)) {
				picked := v
				best = &picked
			}
		}
	}
	if best != nil {
		return *best, true
	}
	return Version{}, false
}

func (p *Protocol) ClientTag(name string) (byte, bool) {
	return tagFor(p.ClientMessages, name)
}

func (p *Protocol) ServerTag(name string) (byte, bool) {
	return tagFor(p.ServerMessages, name)
}

func tagFor(m map[byte]string, name string) (byte, bool) {
	for tag, n := range m {
		if n == name {
			return tag, true
		}
	}
	return 0, false
}

func messageNames(m map[byte]string) []string {
	names := make([]string, 0, len(m))
	for _, n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AutoReply is the SUCCESS metadata sent for a message answered automatically.
func (p *Protocol) AutoReply(name, connectionID string) map[string]interface{} {
	if name != "HELLO" {
		return map[string]interface{}{}
	}
	meta := map[string]interface{}{
		"server":        p.ServerAgent,
		"connection_id": connectionID,
	}
	if p.routingInHello {
		meta["routing"] = nil
	}
	return meta
}

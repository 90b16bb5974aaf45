package script

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/launchdarkly/bolt-contract-tests/cypher"
)

// Wildcard matches any value in a client line field.
const Wildcard = "*"

// Message is a message received from the client, with its fields decoded.
type Message struct {
	Name   string
	Fields []cypher.Value
}

func (m *Message) String() string {
	parts := []string{m.Name}
	for _, f := range m.Fields {
		data, err := cypher.Encode(f, false)
		if err != nil {
			parts = append(parts, fmt.Sprintf("<%s>", f.Kind()))
			continue
		}
		parts = append(parts, string(data))
	}
	return strings.Join(parts, " ")
}

// sigilKinds are the value kinds a typed wildcard such as {"Z": "*"} accepts.
var sigilKinds = map[string][]string{
	cypher.SigilBool:         {"Bool"},
	cypher.SigilInt:          {"Int"},
	cypher.SigilFloat:        {"Float"},
	cypher.SigilString:       {"String"},
	cypher.SigilBytes:        {"Bytes"},
	cypher.SigilList:         {"List"},
	cypher.SigilMap:          {"Map"},
	cypher.SigilTemporal:     {"Date", "Time", "LocalTime", "DateTime", "LocalDateTime", "Duration"},
	cypher.SigilPoint:        {"Point"},
	cypher.SigilNode:         {"Node"},
	cypher.SigilRelationship: {"Relationship"},
	cypher.SigilReverseRel:   {"Relationship"},
	cypher.SigilPath:         {"Path"},
}

var (
	escapedStar    = regexp.MustCompile(`\\([\\*])`)
	escapedKeyChar = regexp.MustCompile(`\\([\[\]\\{}])`)
)

// Matches reports whether a client message satisfies a client line.
func (l *Line) Matches(msg *Message) bool {
	if l.Name != msg.Name || len(l.Fields) != len(msg.Fields) {
		return false
	}
	for i, f := range l.Fields {
		if !matchField(f, msg.Fields[i]) {
			return false
		}
	}
	return true
}

// sigilOf returns the sigil and payload of a one-key typed map.
func sigilOf(pattern map[string]interface{}) (string, interface{}, bool) {
	if len(pattern) != 1 {
		return "", nil, false
	}
	for k, payload := range pattern {
		if cypher.IsSigil(k) {
			return k, payload, true
		}
	}
	return "", nil, false
}

func validatePattern(pattern interface{}) error {
	switch p := pattern.(type) {
	case []interface{}:
		for _, e := range p {
			if err := validatePattern(e); err != nil {
				return err
			}
		}
	case map[string]interface{}:
		if sigil, payload, ok := sigilOf(p); ok {
			if payload == Wildcard {
				return nil
			}
			_, err := cypher.FromJSON(map[string]interface{}{sigil: payload})
			return err
		}
		for _, e := range p {
			if err := validatePattern(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func matchField(pattern interface{}, v cypher.Value) bool {
	switch p := pattern.(type) {
	case nil:
		_, ok := v.(cypher.Null)
		return ok
	case bool:
		b, ok := v.(cypher.Bool)
		return ok && bool(b) == p
	case string:
		if p == Wildcard {
			return true
		}
		s, ok := v.(cypher.String)
		return ok && string(s) == escapedStar.ReplaceAllString(p, "$1")
	case json.Number:
		if i, err := p.Int64(); err == nil {
			n, ok := v.(cypher.Int)
			return ok && int64(n) == i
		}
		f, err := p.Float64()
		if err != nil {
			return false
		}
		n, ok := v.(cypher.Float)
		return ok && (float64(n) == f || (math.IsNaN(f) && math.IsNaN(float64(n))))
	case []interface{}:
		l, ok := v.(cypher.List)
		if !ok || len(l) != len(p) {
			return false
		}
		for i := range p {
			if !matchField(p[i], l[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		if sigil, payload, ok := sigilOf(p); ok {
			if payload == Wildcard {
				for _, kind := range sigilKinds[sigil] {
					if v.Kind() == kind {
						return true
					}
				}
				return false
			}
			expected, err := cypher.FromJSON(p)
			return err == nil && cypher.Equal(expected, v)
		}
		m, ok := v.(cypher.Map)
		return ok && matchMap(p, m)
	}
	return false
}

// matchMap compares key sets exactly, except that a key written as [key] may be absent, and a
// key written as key{} compares its list without regard to order.
func matchMap(pattern map[string]interface{}, m cypher.Map) bool {
	accepted := make(map[string]bool, len(pattern))
	for rawKey, want := range pattern {
		key := rawKey
		optional := strings.HasPrefix(key, "[") && strings.HasSuffix(key, "]")
		if optional {
			key = key[1 : len(key)-1]
		}
		unordered := strings.HasSuffix(key, "{}") && !strings.HasSuffix(key, `\{}`)
		if unordered {
			key = key[:len(key)-2]
		}
		key = escapedKeyChar.ReplaceAllString(key, "$1")
		accepted[key] = true
		got, present := m[key]
		if !present {
			if optional {
				continue
			}
			return false
		}
		if unordered {
			if wantList, ok := want.([]interface{}); ok {
				if gotList, ok := got.(cypher.List); ok {
					if !matchUnordered(wantList, gotList) {
						return false
					}
					continue
				}
			}
		}
		if !matchField(want, got) {
			return false
		}
	}
	for k := range m {
		if !accepted[k] {
			return false
		}
	}
	return true
}

func matchUnordered(want []interface{}, got cypher.List) bool {
	if len(want) != len(got) {
		return false
	}
	used := make([]bool, len(want))
	for _, g := range got {
		found := false
		for i, w := range want {
			if !used[i] && matchField(w, g) {
				used[i], found = true, true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

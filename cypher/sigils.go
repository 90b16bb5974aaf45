package cypher

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Sigils of the typed-value encoding. Every sigil the encoder may produce or the decoder may accept
// is listed here and registered in sigilDecoders below.
const (
	SigilBool         = "?"
	SigilInt          = "Z"
	SigilFloat        = "R"
	SigilString       = "U"
	SigilBytes        = "#"
	SigilList         = "[]"
	SigilMap          = "{}"
	SigilTemporal     = "T"
	SigilPoint        = "@"
	SigilNode         = "()"
	SigilRelationship = "->"
	SigilReverseRel   = "<-"
	SigilPath         = ".."
)

type sigilDecoder func(payload interface{}) (Value, error)

var sigilDecoders map[string]sigilDecoder

func init() {
	sigilDecoders = map[string]sigilDecoder{
		SigilBool:         decodeBool,
		SigilInt:          decodeInt,
		SigilFloat:        decodeFloat,
		SigilString:       decodeString,
		SigilBytes:        decodeBytes,
		SigilList:         decodeList,
		SigilMap:          decodeMap,
		SigilTemporal:     decodeTemporal,
		SigilPoint:        decodePoint,
		SigilNode:         decodeNode,
		SigilRelationship: decodeRelationship,
		SigilReverseRel:   decodeReverseRelationship,
		SigilPath:         decodePath,
	}
}

// Sigils returns every registered sigil, sorted.
func Sigils() []string {
	ret := make([]string, 0, len(sigilDecoders))
	for s := range sigilDecoders {
		ret = append(ret, s)
	}
	sort.Strings(ret)
	return ret
}

func IsSigil(key string) bool {
	_, ok := sigilDecoders[key]
	return ok
}

// Encode renders a value as JSON. With full set, every non-null value is written as a one-key
// sigil map. Otherwise the plain JSON form is used wherever it decodes back to the same value: a
// bool, an int in the 32-bit range, a non-integral finite float, a string, and lists and maps
// built from those.
func Encode(v Value, full bool) ([]byte, error) {
	return json.Marshal(ToJSON(v, full))
}

// Decode parses JSON in either representation.
func Decode(data []byte) (Value, error) {
	raw, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}
	return FromJSON(raw)
}

// ToJSON converts a value into the generic JSON tree that Encode marshals.
func ToJSON(v Value, full bool) interface{} {
	if v == nil {
		return nil
	}
	if !full {
		if simple, ok := simpleForm(v); ok {
			return simple
		}
	}
	sigil, payload := fullForm(v)
	if sigil == "" {
		return nil
	}
	return map[string]interface{}{sigil: payload}
}

func simpleForm(v Value) (interface{}, bool) {
	switch x := v.(type) {
	case Null:
		return nil, true
	case Bool:
		return bool(x), true
	case Int:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return int64(x), true
		}
	case Float:
		f := float64(x)
		if !math.IsNaN(f) && !math.IsInf(f, 0) && f != math.Trunc(f) {
			return f, true
		}
	case String:
		return string(x), true
	case List:
		l := make([]interface{}, len(x))
		for i, e := range x {
			l[i] = ToJSON(e, false)
		}
		return l, true
	case Map:
		if len(x) == 1 {
			for k := range x {
				if IsSigil(k) {
					return nil, false
				}
			}
		}
		m := make(map[string]interface{}, len(x))
		for k, e := range x {
			m[k] = ToJSON(e, false)
		}
		return m, true
	}
	return nil, false
}

func fullForm(v Value) (string, interface{}) {
	switch x := v.(type) {
	case Null:
		return "", nil
	case Bool:
		return SigilBool, bool(x)
	case Int:
		return SigilInt, strconv.FormatInt(int64(x), 10)
	case Float:
		return SigilFloat, FormatFloat(float64(x))
	case String:
		return SigilString, string(x)
	case Bytes:
		return SigilBytes, strings.ToUpper(hex.EncodeToString(x))
	case List:
		l := make([]interface{}, len(x))
		for i, e := range x {
			l[i] = ToJSON(e, true)
		}
		return SigilList, l
	case Map:
		return SigilMap, mapPayload(x)
	case Node:
		return SigilNode, nodePayload(x)
	case Relationship:
		return SigilRelationship, relationshipPayload(x)
	case Path:
		var parts []interface{}
		for i, n := range x.Nodes {
			parts = append(parts, map[string]interface{}{SigilNode: nodePayload(n)})
			if i < len(x.Relationships) {
				parts = append(parts, map[string]interface{}{SigilRelationship: relationshipPayload(x.Relationships[i])})
			}
		}
		return SigilPath, parts
	case Point:
		coords := FormatCoordinate(x.X) + " " + FormatCoordinate(x.Y)
		if x.Z != nil {
			coords += " " + FormatCoordinate(*x.Z)
		}
		return SigilPoint, fmt.Sprintf("SRID=%d;POINT(%s)", x.SRID(), coords)
	case Date:
		return SigilTemporal, x.isoString()
	case LocalTime:
		return SigilTemporal, x.isoString()
	case Time:
		return SigilTemporal, x.isoString()
	case LocalDateTime:
		return SigilTemporal, x.isoString()
	case DateTime:
		return SigilTemporal, x.isoString()
	case Duration:
		return SigilTemporal, x.isoString()
	}
	return "", nil
}

func mapPayload(m Map) map[string]interface{} {
	ret := make(map[string]interface{}, len(m))
	for k, e := range m {
		ret[k] = ToJSON(e, true)
	}
	return ret
}

func nodePayload(n Node) []interface{} {
	labels := make([]interface{}, len(n.Labels))
	for i, l := range n.Labels {
		labels[i] = l
	}
	return []interface{}{strconv.FormatInt(n.ID, 10), labels, mapPayload(n.Props), n.ElementID}
}

func relationshipPayload(r Relationship) []interface{} {
	return []interface{}{
		strconv.FormatInt(r.ID, 10),
		strconv.FormatInt(r.StartNodeID, 10),
		r.Type,
		strconv.FormatInt(r.EndNodeID, 10),
		mapPayload(r.Props),
		r.ElementID,
		r.StartNodeElementID,
		r.EndNodeElementID,
	}
}

// FormatFloat renders a float for the R sigil. The special values use the literal strings
// "+Infinity", "-Infinity" and "NaN"; finite values always carry a decimal point or exponent.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func FormatCoordinate(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseFloat is the inverse of FormatFloat.
func ParseFloat(s string) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "+Infinity", "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

// FromJSON converts a generic JSON tree, decoded with json.Decoder.UseNumber, into a value.
func FromJSON(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return Int(int64(x)), nil
		}
		return Float(x), nil
	case string:
		return String(x), nil
	case []interface{}:
		l := make(List, len(x))
		for i, e := range x {
			v, err := FromJSON(e)
			if err != nil {
				return nil, err
			}
			l[i] = v
		}
		return l, nil
	case map[string]interface{}:
		if len(x) == 1 {
			for k, payload := range x {
				if decode, ok := sigilDecoders[k]; ok {
					v, err := decode(payload)
					if err != nil {
						return nil, fmt.Errorf("invalid %q payload: %w", k, err)
					}
					return v, nil
				}
			}
		}
		m := make(Map, len(x))
		for k, e := range x {
			v, err := FromJSON(e)
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		return m, nil
	}
	return nil, fmt.Errorf("unexpected JSON value of type %T", raw)
}

func payloadString(payload interface{}) (string, error) {
	s, ok := payload.(string)
	if !ok {
		return "", fmt.Errorf("expected a string but got %T", payload)
	}
	return s, nil
}

func payloadInt(payload interface{}) (int64, error) {
	switch x := payload.(type) {
	case string:
		return strconv.ParseInt(x, 10, 64)
	case json.Number:
		return x.Int64()
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("expected an integer but got %v", x)
		}
		return int64(x), nil
	}
	return 0, fmt.Errorf("expected an integer but got %T", payload)
}

func decodeBool(payload interface{}) (Value, error) {
	b, ok := payload.(bool)
	if !ok {
		return nil, fmt.Errorf("expected a bool but got %T", payload)
	}
	return Bool(b), nil
}

func decodeInt(payload interface{}) (Value, error) {
	i, err := payloadInt(payload)
	if err != nil {
		return nil, err
	}
	return Int(i), nil
}

func decodeFloat(payload interface{}) (Value, error) {
	switch x := payload.(type) {
	case string:
		f, err := ParseFloat(x)
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case float64:
		return Float(x), nil
	}
	return nil, fmt.Errorf("expected a float but got %T", payload)
}

func decodeString(payload interface{}) (Value, error) {
	s, err := payloadString(payload)
	if err != nil {
		return nil, err
	}
	return String(s), nil
}

// decodeBytes accepts hex in either case, with or without separating spaces, or a list of
// integers in the byte range.
func decodeBytes(payload interface{}) (Value, error) {
	switch x := payload.(type) {
	case string:
		b, err := hex.DecodeString(strings.Join(strings.Fields(x), ""))
		if err != nil {
			return nil, err
		}
		return Bytes(b), nil
	case []interface{}:
		b := make(Bytes, len(x))
		for i, e := range x {
			n, err := payloadInt(e)
			if err != nil {
				return nil, err
			}
			if n < 0 || n > 255 {
				return nil, fmt.Errorf("byte value %d out of range", n)
			}
			b[i] = byte(n)
		}
		return b, nil
	}
	return nil, fmt.Errorf("expected hex string or list but got %T", payload)
}

func decodeList(payload interface{}) (Value, error) {
	l, ok := payload.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a list but got %T", payload)
	}
	return FromJSON(l)
}

func decodeMap(payload interface{}) (Value, error) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a map but got %T", payload)
	}
	ret := make(Map, len(m))
	for k, e := range m {
		v, err := FromJSON(e)
		if err != nil {
			return nil, err
		}
		ret[k] = v
	}
	return ret, nil
}

func decodeTemporal(payload interface{}) (Value, error) {
	s, err := payloadString(payload)
	if err != nil {
		return nil, err
	}
	return ParseTemporal(s)
}

var pointRegex = regexp.MustCompile(`^SRID=(\d+);\s*POINT\s?\(\s*(\S+)\s+(\S+)(?:\s+(\S+))?\s*\)$`)

func decodePoint(payload interface{}) (Value, error) {
	s, err := payloadString(payload)
	if err != nil {
		return nil, err
	}
	m := pointRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid point %q", s)
	}
	srid, _ := strconv.Atoi(m[1])
	system, is3D, err := pointSystemForSRID(srid)
	if err != nil {
		return nil, err
	}
	if is3D != (m[4] != "") {
		return nil, fmt.Errorf("SRID %d does not match the number of coordinates in %q", srid, s)
	}
	coords := make([]float64, 0, 3)
	for _, c := range m[2:] {
		if c == "" {
			continue
		}
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, err
		}
		coords = append(coords, f)
	}
	if is3D {
		return NewPoint3D(system, coords[0], coords[1], coords[2]), nil
	}
	return NewPoint2D(system, coords[0], coords[1]), nil
}

func payloadList(payload interface{}, minLen int) ([]interface{}, error) {
	l, ok := payload.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a list but got %T", payload)
	}
	if len(l) < minLen {
		return nil, fmt.Errorf("expected at least %d elements but got %d", minLen, len(l))
	}
	return l, nil
}

func optionalString(l []interface{}, i int) (string, error) {
	if i >= len(l) || l[i] == nil {
		return "", nil
	}
	return payloadString(l[i])
}

func decodeProps(raw interface{}) (Map, error) {
	v, err := decodeMap(raw)
	if err != nil {
		return nil, err
	}
	return v.(Map), nil
}

func decodeNode(payload interface{}) (Value, error) {
	l, err := payloadList(payload, 3)
	if err != nil {
		return nil, err
	}
	id, err := payloadInt(l[0])
	if err != nil {
		return nil, err
	}
	rawLabels, ok := l[1].([]interface{})
	if !ok {
		return nil, errors.New("node labels must be a list")
	}
	labels := make([]string, len(rawLabels))
	for i, rl := range rawLabels {
		if labels[i], err = payloadString(rl); err != nil {
			return nil, err
		}
	}
	props, err := decodeProps(l[2])
	if err != nil {
		return nil, err
	}
	elementID, err := optionalString(l, 3)
	if err != nil {
		return nil, err
	}
	return Node{ID: id, Labels: labels, Props: props, ElementID: elementID}, nil
}

func decodeRelationshipParts(l []interface{}) (Relationship, error) {
	var r Relationship
	var err error
	if r.ID, err = payloadInt(l[0]); err != nil {
		return r, err
	}
	if r.StartNodeID, err = payloadInt(l[1]); err != nil {
		return r, err
	}
	if r.Type, err = payloadString(l[2]); err != nil {
		return r, err
	}
	if r.EndNodeID, err = payloadInt(l[3]); err != nil {
		return r, err
	}
	if r.Props, err = decodeProps(l[4]); err != nil {
		return r, err
	}
	if r.ElementID, err = optionalString(l, 5); err != nil {
		return r, err
	}
	if r.StartNodeElementID, err = optionalString(l, 6); err != nil {
		return r, err
	}
	if r.EndNodeElementID, err = optionalString(l, 7); err != nil {
		return r, err
	}
	return r, nil
}

func decodeRelationship(payload interface{}) (Value, error) {
	l, err := payloadList(payload, 5)
	if err != nil {
		return nil, err
	}
	return decodeRelationshipParts(l)
}

// decodeReverseRelationship reads a relationship written right to left: the first node id in the
// payload is the end node.
func decodeReverseRelationship(payload interface{}) (Value, error) {
	l, err := payloadList(payload, 5)
	if err != nil {
		return nil, err
	}
	r, err := decodeRelationshipParts(l)
	if err != nil {
		return nil, err
	}
	r.StartNodeID, r.EndNodeID = r.EndNodeID, r.StartNodeID
	r.StartNodeElementID, r.EndNodeElementID = r.EndNodeElementID, r.StartNodeElementID
	return r, nil
}

func decodePath(payload interface{}) (Value, error) {
	l, err := payloadList(payload, 1)
	if err != nil {
		return nil, err
	}
	if len(l)%2 != 1 {
		return nil, errors.New("a path must alternate nodes and relationships and start and end with a node")
	}
	var p Path
	for i, raw := range l {
		v, err := FromJSON(raw)
		if err != nil {
			return nil, err
		}
		if i%2 == 0 {
			n, ok := v.(Node)
			if !ok {
				return nil, fmt.Errorf("path element %d is a %s, not a Node", i, v.Kind())
			}
			p.Nodes = append(p.Nodes, n)
		} else {
			r, ok := v.(Relationship)
			if !ok {
				return nil, fmt.Errorf("path element %d is a %s, not a Relationship", i, v.Kind())
			}
			p.Relationships = append(p.Relationships, r)
		}
	}
	return p, nil
}

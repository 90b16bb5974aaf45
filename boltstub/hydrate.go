package boltstub

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/launchdarkly/bolt-contract-tests/boltstub/packstream"
	"github.com/launchdarkly/bolt-contract-tests/cypher"
)

// Struct tags of the PackStream value types.
const (
	tagNode                byte = 0x4e
	tagRelationship        byte = 0x52
	tagUnboundRelationship byte = 0x72
	tagPath                byte = 0x50
	tagDate                byte = 0x44
	tagTime                byte = 0x54
	tagLocalTime           byte = 0x74
	tagLocalDateTime       byte = 0x64
	tagLegacyDateTime      byte = 0x46
	tagLegacyDateTimeZone  byte = 0x66
	tagDateTime            byte = 0x49
	tagDateTimeZone        byte = 0x69
	tagDuration            byte = 0x45
	tagPoint2D             byte = 0x58
	tagPoint3D             byte = 0x59
)

const nanosPerSecond = int64(time.Second)

// hydrate turns an unpacked PackStream value into a value of the shared model. Packstream 2
// carries element ids and UTC based date-times.
func hydrate(x interface{}, packstreamVersion int) (cypher.Value, error) {
	switch v := x.(type) {
	case nil:
		return cypher.Null{}, nil
	case bool:
		return cypher.Bool(v), nil
	case int64:
		return cypher.Int(v), nil
	case float64:
		return cypher.Float(v), nil
	case string:
		return cypher.String(v), nil
	case []byte:
		return cypher.Bytes(v), nil
	case []interface{}:
		l := make(cypher.List, len(v))
		for i, e := range v {
			h, err := hydrate(e, packstreamVersion)
			if err != nil {
				return nil, err
			}
			l[i] = h
		}
		return l, nil
	case map[string]interface{}:
		return hydrateMap(v, packstreamVersion)
	case *packstream.Struct:
		return hydrateStruct(v, packstreamVersion)
	}
	return nil, fmt.Errorf("cannot hydrate %T", x)
}

func hydrateMap(m map[string]interface{}, packstreamVersion int) (cypher.Map, error) {
	ret := make(cypher.Map, len(m))
	for k, e := range m {
		h, err := hydrate(e, packstreamVersion)
		if err != nil {
			return nil, err
		}
		ret[k] = h
	}
	return ret, nil
}

type fieldReader struct {
	s   *packstream.Struct
	err error
}

func (r *fieldReader) int(i int) int64 {
	if r.err != nil {
		return 0
	}
	if v, ok := r.s.Fields[i].(int64); ok {
		return v
	}
	r.err = fmt.Errorf("field %d of struct 0x%02X must be an integer, got %T", i, r.s.Tag, r.s.Fields[i])
	return 0
}

func (r *fieldReader) float(i int) float64 {
	if r.err != nil {
		return 0
	}
	if v, ok := r.s.Fields[i].(float64); ok {
		return v
	}
	r.err = fmt.Errorf("field %d of struct 0x%02X must be a float, got %T", i, r.s.Tag, r.s.Fields[i])
	return 0
}

func (r *fieldReader) str(i int) string {
	if r.err != nil {
		return ""
	}
	if v, ok := r.s.Fields[i].(string); ok {
		return v
	}
	r.err = fmt.Errorf("field %d of struct 0x%02X must be a string, got %T", i, r.s.Tag, r.s.Fields[i])
	return ""
}

func (r *fieldReader) props(i int, packstreamVersion int) cypher.Map {
	if r.err != nil {
		return nil
	}
	m, ok := r.s.Fields[i].(map[string]interface{})
	if !ok {
		r.err = fmt.Errorf("field %d of struct 0x%02X must be a map, got %T", i, r.s.Tag, r.s.Fields[i])
		return nil
	}
	ret, err := hydrateMap(m, packstreamVersion)
	r.err = err
	return ret
}

func (r *fieldReader) strings(i int) []string {
	if r.err != nil {
		return nil
	}
	l, ok := r.s.Fields[i].([]interface{})
	if !ok {
		r.err = fmt.Errorf("field %d of struct 0x%02X must be a list, got %T", i, r.s.Tag, r.s.Fields[i])
		return nil
	}
	ret := make([]string, len(l))
	for j, e := range l {
		s, ok := e.(string)
		if !ok {
			r.err = fmt.Errorf("field %d of struct 0x%02X must hold strings, got %T", i, r.s.Tag, e)
			return nil
		}
		ret[j] = s
	}
	return ret
}

func (r *fieldReader) list(i int) []interface{} {
	if r.err != nil {
		return nil
	}
	l, ok := r.s.Fields[i].([]interface{})
	if !ok {
		r.err = fmt.Errorf("field %d of struct 0x%02X must be a list, got %T", i, r.s.Tag, r.s.Fields[i])
	}
	return l
}

var structSizes = map[byte][2]int{
	tagNode:                {3, 4},
	tagRelationship:        {5, 8},
	tagUnboundRelationship: {3, 4},
	tagPath:                {3, 3},
	tagDate:                {1, 1},
	tagTime:                {2, 2},
	tagLocalTime:           {1, 1},
	tagLocalDateTime:       {2, 2},
	tagLegacyDateTime:      {3, 3},
	tagLegacyDateTimeZone:  {3, 3},
	tagDateTime:            {3, 3},
	tagDateTimeZone:        {3, 3},
	tagDuration:            {4, 4},
	tagPoint2D:             {3, 3},
	tagPoint3D:             {4, 4},
}

func hydrateStruct(s *packstream.Struct, packstreamVersion int) (cypher.Value, error) {
	sizes, ok := structSizes[s.Tag]
	if !ok {
		return nil, fmt.Errorf("unknown struct tag 0x%02X", s.Tag)
	}
	want := sizes[0]
	if packstreamVersion >= 2 {
		want = sizes[1]
	}
	if len(s.Fields) != want {
		return nil, fmt.Errorf("struct 0x%02X must have %d fields, got %d", s.Tag, want, len(s.Fields))
	}
	if packstreamVersion >= 2 && (s.Tag == tagLegacyDateTime || s.Tag == tagLegacyDateTimeZone) {
		return nil, fmt.Errorf("struct 0x%02X is not used from bolt 5.0 on", s.Tag)
	}
	if packstreamVersion < 2 && (s.Tag == tagDateTime || s.Tag == tagDateTimeZone) {
		return nil, fmt.Errorf("struct 0x%02X needs bolt 5.0 or later", s.Tag)
	}
	r := &fieldReader{s: s}
	var v cypher.Value
	switch s.Tag {
	case tagNode:
		v = hydrateNode(r, packstreamVersion)
	case tagRelationship:
		rel := cypher.Relationship{
			ID: r.int(0), StartNodeID: r.int(1), EndNodeID: r.int(2), Type: r.str(3),
			Props: r.props(4, packstreamVersion),
		}
		if packstreamVersion >= 2 {
			rel.ElementID, rel.StartNodeElementID, rel.EndNodeElementID = r.str(5), r.str(6), r.str(7)
		}
		v = rel
	case tagUnboundRelationship:
		return nil, fmt.Errorf("unbound relationship outside of a path")
	case tagPath:
		return hydratePath(r, packstreamVersion)
	case tagDate:
		v = dateFromDays(r.int(0))
	case tagTime:
		v = cypher.Time{LocalTime: localTimeFromNanos(r.int(0)), UTCOffset: int(r.int(1))}
	case tagLocalTime:
		v = localTimeFromNanos(r.int(0))
	case tagLocalDateTime:
		d, t := wallClock(r.int(0), r.int(1))
		v = cypher.LocalDateTime{Date: d, LocalTime: t}
	case tagLegacyDateTime, tagDateTime:
		secs, nanos, offset := r.int(0), r.int(1), r.int(2)
		if s.Tag == tagDateTime {
			secs += offset
		}
		d, t := wallClock(secs, nanos)
		v = cypher.DateTime{Date: d, LocalTime: t, UTCOffset: cypher.Offset(int(offset))}
	case tagLegacyDateTimeZone, tagDateTimeZone:
		secs, nanos, zone := r.int(0), r.int(1), r.str(2)
		if r.err != nil {
			return nil, r.err
		}
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return nil, err
		}
		var at time.Time
		if s.Tag == tagDateTimeZone {
			at = time.Unix(secs, nanos).In(loc)
		} else {
			wall := time.Unix(secs, nanos).UTC()
			at = time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(),
				wall.Nanosecond(), loc)
		}
		_, offset := at.Zone()
		v = cypher.DateTime{
			Date:      cypher.Date{Year: at.Year(), Month: int(at.Month()), Day: at.Day()},
			LocalTime: cypher.LocalTime{Hour: at.Hour(), Minute: at.Minute(), Second: at.Second(), Nanosecond: at.Nanosecond()},
			UTCOffset: cypher.Offset(offset),
			Zone:      zone,
		}
	case tagDuration:
		v = cypher.Duration{Months: r.int(0), Days: r.int(1), Seconds: r.int(2), Nanoseconds: r.int(3)}
	case tagPoint2D, tagPoint3D:
		srid, x, y := r.int(0), r.float(1), r.float(2)
		var z *float64
		if s.Tag == tagPoint3D {
			zv := r.float(3)
			z = &zv
		}
		if r.err != nil {
			return nil, r.err
		}
		return cypher.PointFromSRID(int(srid), x, y, z)
	}
	if r.err != nil {
		return nil, r.err
	}
	return v, nil
}

func hydrateNode(r *fieldReader, packstreamVersion int) cypher.Node {
	n := cypher.Node{ID: r.int(0), Labels: r.strings(1), Props: r.props(2, packstreamVersion)}
	if packstreamVersion >= 2 {
		n.ElementID = r.str(3)
	}
	return n
}

func hydratePath(r *fieldReader, packstreamVersion int) (cypher.Value, error) {
	rawNodes, rawRels, rawIndices := r.list(0), r.list(1), r.list(2)
	if r.err != nil {
		return nil, r.err
	}
	nodes := make([]cypher.Node, len(rawNodes))
	for i, raw := range rawNodes {
		s, ok := raw.(*packstream.Struct)
		if !ok || s.Tag != tagNode {
			return nil, fmt.Errorf("path node %d is not a node", i)
		}
		h, err := hydrateStruct(s, packstreamVersion)
		if err != nil {
			return nil, err
		}
		nodes[i] = h.(cypher.Node)
	}
	type unbound struct {
		id        int64
		elementID string
		typ       string
		props     cypher.Map
	}
	rels := make([]unbound, len(rawRels))
	for i, raw := range rawRels {
		s, ok := raw.(*packstream.Struct)
		if !ok || s.Tag != tagUnboundRelationship {
			return nil, fmt.Errorf("path relationship %d is not an unbound relationship", i)
		}
		sizes := structSizes[tagUnboundRelationship]
		want := sizes[0]
		if packstreamVersion >= 2 {
			want = sizes[1]
		}
		if len(s.Fields) != want {
			return nil, fmt.Errorf("struct 0x%02X must have %d fields, got %d", s.Tag, want, len(s.Fields))
		}
		fr := &fieldReader{s: s}
		u := unbound{id: fr.int(0), typ: fr.str(1), props: fr.props(2, packstreamVersion)}
		if packstreamVersion >= 2 {
			u.elementID = fr.str(3)
		}
		if fr.err != nil {
			return nil, fr.err
		}
		rels[i] = u
	}
	if len(nodes) == 0 || len(rawIndices)%2 != 0 {
		return nil, fmt.Errorf("malformed path")
	}
	p := cypher.Path{Nodes: []cypher.Node{nodes[0]}}
	prev := nodes[0]
	for i := 0; i < len(rawIndices); i += 2 {
		relIndex, ok1 := rawIndices[i].(int64)
		nodeIndex, ok2 := rawIndices[i+1].(int64)
		if !ok1 || !ok2 || relIndex == 0 || nodeIndex < 0 || int(nodeIndex) >= len(nodes) {
			return nil, fmt.Errorf("malformed path indices")
		}
		next := nodes[nodeIndex]
		start, end := prev, next
		if relIndex < 0 {
			relIndex = -relIndex
			start, end = next, prev
		}
		if int(relIndex) > len(rels) {
			return nil, fmt.Errorf("malformed path indices")
		}
		u := rels[relIndex-1]
		p.Relationships = append(p.Relationships, cypher.Relationship{
			ID: u.id, StartNodeID: start.ID, EndNodeID: end.ID, Type: u.typ, Props: u.props,
			ElementID: u.elementID, StartNodeElementID: start.ElementID, EndNodeElementID: end.ElementID,
		})
		p.Nodes = append(p.Nodes, next)
		prev = next
	}
	return p, nil
}

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

func dateFromDays(days int64) cypher.Date {
	t := epoch.AddDate(0, 0, int(days))
	return cypher.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func daysFromDate(d cypher.Date) int64 {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func localTimeFromNanos(nanos int64) cypher.LocalTime {
	secs := nanos / nanosPerSecond
	return cypher.LocalTime{
		Hour:       int(secs / 3600),
		Minute:     int(secs / 60 % 60),
		Second:     int(secs % 60),
		Nanosecond: int(nanos % nanosPerSecond),
	}
}

func nanosFromLocalTime(t cypher.LocalTime) int64 {
	return (int64(t.Hour)*3600+int64(t.Minute)*60+int64(t.Second))*nanosPerSecond + int64(t.Nanosecond)
}

// wallClock splits seconds since the epoch, read as a wall clock reading in UTC.
func wallClock(secs, nanos int64) (cypher.Date, cypher.LocalTime) {
	t := time.Unix(secs, nanos).UTC()
	return cypher.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()},
		cypher.LocalTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

func wallSeconds(d cypher.Date, t cypher.LocalTime) int64 {
	return time.Date(d.Year, time.Month(d.Month), d.Day, t.Hour, t.Minute, t.Second, 0, time.UTC).Unix()
}

// dehydrate turns a value of the shared model into something the packer writes.
func dehydrate(v cypher.Value, packstreamVersion int) (interface{}, error) {
	switch x := v.(type) {
	case nil, cypher.Null:
		return nil, nil
	case cypher.Bool:
		return bool(x), nil
	case cypher.Int:
		return int64(x), nil
	case cypher.Float:
		return float64(x), nil
	case cypher.String:
		return string(x), nil
	case cypher.Bytes:
		return []byte(x), nil
	case cypher.List:
		l := make([]interface{}, len(x))
		for i, e := range x {
			d, err := dehydrate(e, packstreamVersion)
			if err != nil {
				return nil, err
			}
			l[i] = d
		}
		return l, nil
	case cypher.Map:
		return dehydrateMap(x, packstreamVersion)
	case cypher.Node:
		return dehydrateNode(x, packstreamVersion)
	case cypher.Relationship:
		props, err := dehydrateMap(x.Props, packstreamVersion)
		if err != nil {
			return nil, err
		}
		fields := []interface{}{x.ID, x.StartNodeID, x.EndNodeID, x.Type, props}
		if packstreamVersion >= 2 {
			fields = append(fields, x.ElementID, x.StartNodeElementID, x.EndNodeElementID)
		}
		return &packstream.Struct{Tag: tagRelationship, Fields: fields}, nil
	case cypher.Path:
		return dehydratePath(x, packstreamVersion)
	case cypher.Point:
		fields := []interface{}{int64(x.SRID()), x.X, x.Y}
		if x.Z != nil {
			return &packstream.Struct{Tag: tagPoint3D, Fields: append(fields, *x.Z)}, nil
		}
		return &packstream.Struct{Tag: tagPoint2D, Fields: fields}, nil
	case cypher.Date:
		return &packstream.Struct{Tag: tagDate, Fields: []interface{}{daysFromDate(x)}}, nil
	case cypher.LocalTime:
		return &packstream.Struct{Tag: tagLocalTime, Fields: []interface{}{nanosFromLocalTime(x)}}, nil
	case cypher.Time:
		return &packstream.Struct{Tag: tagTime, Fields: []interface{}{
			nanosFromLocalTime(x.LocalTime), int64(x.UTCOffset)}}, nil
	case cypher.LocalDateTime:
		return &packstream.Struct{Tag: tagLocalDateTime, Fields: []interface{}{
			wallSeconds(x.Date, x.LocalTime), int64(x.Nanosecond)}}, nil
	case cypher.DateTime:
		return dehydrateDateTime(x, packstreamVersion)
	case cypher.Duration:
		return &packstream.Struct{Tag: tagDuration, Fields: []interface{}{
			x.Months, x.Days, x.Seconds, x.Nanoseconds}}, nil
	}
	return nil, fmt.Errorf("cannot dehydrate %s", v.Kind())
}

func dehydrateMap(m cypher.Map, packstreamVersion int) (map[string]interface{}, error) {
	ret := make(map[string]interface{}, len(m))
	for k, e := range m {
		d, err := dehydrate(e, packstreamVersion)
		if err != nil {
			return nil, err
		}
		ret[k] = d
	}
	return ret, nil
}

func dehydrateNode(n cypher.Node, packstreamVersion int) (*packstream.Struct, error) {
	props, err := dehydrateMap(n.Props, packstreamVersion)
	if err != nil {
		return nil, err
	}
	labels := n.Labels
	if labels == nil {
		labels = []string{}
	}
	fields := []interface{}{n.ID, labels, props}
	if packstreamVersion >= 2 {
		fields = append(fields, n.ElementID)
	}
	return &packstream.Struct{Tag: tagNode, Fields: fields}, nil
}

func dehydratePath(p cypher.Path, packstreamVersion int) (*packstream.Struct, error) {
	if len(p.Nodes) != len(p.Relationships)+1 {
		return nil, fmt.Errorf("path must have one more node than relationships")
	}
	nodeIndex := map[int64]int{}
	var nodes []interface{}
	for _, n := range p.Nodes {
		if _, seen := nodeIndex[n.ID]; seen {
			continue
		}
		d, err := dehydrateNode(n, packstreamVersion)
		if err != nil {
			return nil, err
		}
		nodeIndex[n.ID] = len(nodes)
		nodes = append(nodes, d)
	}
	relIndex := map[int64]int{}
	var rels []interface{}
	var indices []interface{}
	for i, r := range p.Relationships {
		if _, seen := relIndex[r.ID]; !seen {
			props, err := dehydrateMap(r.Props, packstreamVersion)
			if err != nil {
				return nil, err
			}
			fields := []interface{}{r.ID, r.Type, props}
			if packstreamVersion >= 2 {
				fields = append(fields, r.ElementID)
			}
			relIndex[r.ID] = len(rels)
			rels = append(rels, &packstream.Struct{Tag: tagUnboundRelationship, Fields: fields})
		}
		index := int64(relIndex[r.ID] + 1)
		if r.StartNodeID != p.Nodes[i].ID {
			index = -index
		}
		indices = append(indices, index, int64(nodeIndex[p.Nodes[i+1].ID]))
	}
	if rels == nil {
		rels = []interface{}{}
	}
	if indices == nil {
		indices = []interface{}{}
	}
	return &packstream.Struct{Tag: tagPath, Fields: []interface{}{nodes, rels, indices}}, nil
}

func dehydrateDateTime(x cypher.DateTime, packstreamVersion int) (*packstream.Struct, error) {
	local := wallSeconds(x.Date, x.LocalTime)
	nanos := int64(x.Nanosecond)
	if x.Zone != "" {
		if packstreamVersion < 2 {
			return &packstream.Struct{Tag: tagLegacyDateTimeZone, Fields: []interface{}{local, nanos, x.Zone}}, nil
		}
		var utc int64
		if x.UTCOffset != nil {
			utc = local - int64(*x.UTCOffset)
		} else {
			loc, err := time.LoadLocation(x.Zone)
			if err != nil {
				return nil, err
			}
			utc = time.Date(x.Year, time.Month(x.Month), x.Day, x.Hour, x.Minute, x.Second, 0, loc).Unix()
		}
		return &packstream.Struct{Tag: tagDateTimeZone, Fields: []interface{}{utc, nanos, x.Zone}}, nil
	}
	var offset int64
	if x.UTCOffset != nil {
		offset = int64(*x.UTCOffset)
	}
	if packstreamVersion < 2 {
		return &packstream.Struct{Tag: tagLegacyDateTime, Fields: []interface{}{local, nanos, offset}}, nil
	}
	return &packstream.Struct{Tag: tagDateTime, Fields: []interface{}{local - offset, nanos, offset}}, nil
}

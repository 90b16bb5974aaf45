// Package cypher is the value model shared by the harness protocol and the stub server: the closed
// set of values a query can take as parameters or return in records, their equality rules, and
// their sigil encoding.
package cypher

import (
	"fmt"
	"math"
)

// Value is one of the variants defined in this package. The set is closed.
type Value interface {
	// Kind names the variant, as used in error messages and test output.
	Kind() string
	isValue()
}

type (
	Null   struct{}
	Bool   bool
	Int    int64
	Float  float64
	String string
	Bytes  []byte
	List   []Value
	Map    map[string]Value
)

type Node struct {
	ID        int64
	ElementID string
	Labels    []string
	Props     Map
}

type Relationship struct {
	ID                 int64
	StartNodeID        int64
	EndNodeID          int64
	Type               string
	Props              Map
	ElementID          string
	StartNodeElementID string
	EndNodeElementID   string
}

type Path struct {
	Nodes         []Node
	Relationships []Relationship
}

const (
	Cartesian = "cartesian"
	WGS84     = "wgs84"
)

// Point is a spatial value. Z is nil for 2D points.
type Point struct {
	System string
	X, Y   float64
	Z      *float64
}

type Date struct {
	Year, Month, Day int
}

type LocalTime struct {
	Hour, Minute, Second, Nanosecond int
}

type Time struct {
	LocalTime
	UTCOffset int
}

type LocalDateTime struct {
	Date
	LocalTime
}

// DateTime carries an optional offset in seconds and an optional IANA zone name. At least one of
// the two is set for a value received from a driver.
type DateTime struct {
	Date
	LocalTime
	UTCOffset *int
	Zone      string
}

type Duration struct {
	Months, Days, Seconds, Nanoseconds int64
}

func (Null) Kind() string          { return "Null" }
func (Bool) Kind() string          { return "Bool" }
func (Int) Kind() string           { return "Int" }
func (Float) Kind() string         { return "Float" }
func (String) Kind() string        { return "String" }
func (Bytes) Kind() string         { return "Bytes" }
func (List) Kind() string          { return "List" }
func (Map) Kind() string           { return "Map" }
func (Node) Kind() string          { return "Node" }
func (Relationship) Kind() string  { return "Relationship" }
func (Path) Kind() string          { return "Path" }
func (Point) Kind() string         { return "Point" }
func (Date) Kind() string          { return "Date" }
func (LocalTime) Kind() string     { return "LocalTime" }
func (Time) Kind() string          { return "Time" }
func (LocalDateTime) Kind() string { return "LocalDateTime" }
func (DateTime) Kind() string      { return "DateTime" }
func (Duration) Kind() string      { return "Duration" }

func (Null) isValue()          {}
func (Bool) isValue()          {}
func (Int) isValue()           {}
func (Float) isValue()         {}
func (String) isValue()        {}
func (Bytes) isValue()         {}
func (List) isValue()          {}
func (Map) isValue()           {}
func (Node) isValue()          {}
func (Relationship) isValue()  {}
func (Path) isValue()          {}
func (Point) isValue()         {}
func (Date) isValue()          {}
func (LocalTime) isValue()     {}
func (Time) isValue()          {}
func (LocalDateTime) isValue() {}
func (DateTime) isValue()      {}
func (Duration) isValue()      {}

// SRID returns the spatial reference id for the point's coordinate system and dimension.
func (p Point) SRID() int {
	switch {
	case p.System == WGS84 && p.Z != nil:
		return 4979
	case p.System == WGS84:
		return 4326
	case p.Z != nil:
		return 9157
	default:
		return 7203
	}
}

func pointSystemForSRID(srid int) (system string, is3D bool, err error) {
	switch srid {
	case 7203:
		return Cartesian, false, nil
	case 9157:
		return Cartesian, true, nil
	case 4326:
		return WGS84, false, nil
	case 4979:
		return WGS84, true, nil
	}
	return "", false, fmt.Errorf("unknown SRID %d", srid)
}

// PointFromSRID builds a point from its spatial reference id. z is ignored for 2D systems and
// required for 3D ones.
func PointFromSRID(srid int, x, y float64, z *float64) (Point, error) {
	system, is3D, err := pointSystemForSRID(srid)
	if err != nil {
		return Point{}, err
	}
	if !is3D {
		return NewPoint2D(system, x, y), nil
	}
	if z == nil {
		return Point{}, fmt.Errorf("SRID %d needs a z coordinate", srid)
	}
	return NewPoint3D(system, x, y, *z), nil
}

func NewPoint2D(system string, x, y float64) Point {
	return Point{System: system, X: x, Y: y}
}

func NewPoint3D(system string, x, y, z float64) Point {
	return Point{System: system, X: x, Y: y, Z: &z}
}

// Offset returns a pointer suitable for DateTime.UTCOffset.
func Offset(seconds int) *int {
	return &seconds
}

// Of converts a plain Go value into a Value. It accepts nil, bool, the integer and float types,
// string, []byte, []interface{}, map[string]interface{}, and anything that already is a Value.
// It panics on any other type, so it is meant for literals in tests and scripts.
func Of(x interface{}) Value {
	v, err := FromNative(x)
	if err != nil {
		panic(err)
	}
	return v
}

func FromNative(x interface{}) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int8:
		return Int(v), nil
	case int16:
		return Int(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case uint8:
		return Int(v), nil
	case uint16:
		return Int(v), nil
	case uint32:
		return Int(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of range", v)
		}
		return Int(v), nil
	case float32:
		return Float(v), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case []byte:
		return Bytes(v), nil
	case []string:
		l := make(List, len(v))
		for i, s := range v {
			l[i] = String(s)
		}
		return l, nil
	case []interface{}:
		l := make(List, len(v))
		for i, e := range v {
			ev, err := FromNative(e)
			if err != nil {
				return nil, err
			}
			l[i] = ev
		}
		return l, nil
	case map[string]interface{}:
		m := make(Map, len(v))
		for k, e := range v {
			ev, err := FromNative(e)
			if err != nil {
				return nil, err
			}
			m[k] = ev
		}
		return m, nil
	}
	return nil, fmt.Errorf("no cypher value for Go type %T", x)
}

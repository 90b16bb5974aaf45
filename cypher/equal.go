package cypher

import "math"

// Equal reports whether two values are equal under the value model's rules: same variant, maps
// compared by key set and per-key value, lists element-wise, and NaN equal to NaN.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return isNull(a) && isNull(b)
	}
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && floatsEqual(float64(av), float64(bv))
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && string(av) == string(bv)
	case List:
		bv, ok := b.(List)
		return ok && listsEqual(av, bv)
	case Map:
		bv, ok := b.(Map)
		return ok && mapsEqual(av, bv)
	case Node:
		bv, ok := b.(Node)
		return ok && nodesEqual(av, bv)
	case Relationship:
		bv, ok := b.(Relationship)
		return ok && relationshipsEqual(av, bv)
	case Path:
		bv, ok := b.(Path)
		if !ok || len(av.Nodes) != len(bv.Nodes) || len(av.Relationships) != len(bv.Relationships) {
			return false
		}
		for i := range av.Nodes {
			if !nodesEqual(av.Nodes[i], bv.Nodes[i]) {
				return false
			}
		}
		for i := range av.Relationships {
			if !relationshipsEqual(av.Relationships[i], bv.Relationships[i]) {
				return false
			}
		}
		return true
	case Point:
		bv, ok := b.(Point)
		return ok && av.System == bv.System &&
			floatsEqual(av.X, bv.X) && floatsEqual(av.Y, bv.Y) &&
			optionalFloatsEqual(av.Z, bv.Z)
	case Date:
		bv, ok := b.(Date)
		return ok && av == bv
	case LocalTime:
		bv, ok := b.(LocalTime)
		return ok && av == bv
	case Time:
		bv, ok := b.(Time)
		return ok && av == bv
	case LocalDateTime:
		bv, ok := b.(LocalDateTime)
		return ok && av == bv
	case DateTime:
		bv, ok := b.(DateTime)
		return ok && av.Date == bv.Date && av.LocalTime == bv.LocalTime &&
			av.Zone == bv.Zone && optionalIntsEqual(av.UTCOffset, bv.UTCOffset)
	case Duration:
		bv, ok := b.(Duration)
		return ok && av == bv
	}
	return false
}

func isNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

func floatsEqual(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

func optionalFloatsEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return floatsEqual(*a, *b)
}

func optionalIntsEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func listsEqual(a, b List) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func mapsEqual(a, b Map) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func nodesEqual(a, b Node) bool {
	return a.ID == b.ID && a.ElementID == b.ElementID &&
		stringsEqual(a.Labels, b.Labels) && mapsEqual(a.Props, b.Props)
}

func relationshipsEqual(a, b Relationship) bool {
	return a.ID == b.ID && a.StartNodeID == b.StartNodeID && a.EndNodeID == b.EndNodeID &&
		a.Type == b.Type && mapsEqual(a.Props, b.Props) &&
		a.ElementID == b.ElementID &&
		a.StartNodeElementID == b.StartNodeElementID &&
		a.EndNodeElementID == b.EndNodeElementID
}

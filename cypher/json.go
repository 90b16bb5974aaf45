package cypher

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Values marshal to the full representation when they are embedded in other JSON documents,
// since query parameters and record fields are always sent typed.

func marshalFull(v Value) ([]byte, error) {
	return json.Marshal(ToJSON(v, true))
}

func (v Null) MarshalJSON() ([]byte, error)          { return []byte("null"), nil }
func (v Bool) MarshalJSON() ([]byte, error)          { return marshalFull(v) }
func (v Int) MarshalJSON() ([]byte, error)           { return marshalFull(v) }
func (v Float) MarshalJSON() ([]byte, error)         { return marshalFull(v) }
func (v String) MarshalJSON() ([]byte, error)        { return marshalFull(v) }
func (v Bytes) MarshalJSON() ([]byte, error)         { return marshalFull(v) }
func (v List) MarshalJSON() ([]byte, error)          { return marshalFull(v) }
func (v Map) MarshalJSON() ([]byte, error)           { return marshalFull(v) }
func (v Node) MarshalJSON() ([]byte, error)          { return marshalFull(v) }
func (v Relationship) MarshalJSON() ([]byte, error)  { return marshalFull(v) }
func (v Path) MarshalJSON() ([]byte, error)          { return marshalFull(v) }
func (v Point) MarshalJSON() ([]byte, error)         { return marshalFull(v) }
func (v Date) MarshalJSON() ([]byte, error)          { return marshalFull(v) }
func (v LocalTime) MarshalJSON() ([]byte, error)     { return marshalFull(v) }
func (v Time) MarshalJSON() ([]byte, error)          { return marshalFull(v) }
func (v LocalDateTime) MarshalJSON() ([]byte, error) { return marshalFull(v) }
func (v DateTime) MarshalJSON() ([]byte, error)      { return marshalFull(v) }
func (v Duration) MarshalJSON() ([]byte, error)      { return marshalFull(v) }

// Params is a set of named query parameters. It marshals as a plain JSON object whose members
// are values in full form.
type Params map[string]Value

func (p Params) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	return json.Marshal(mapPayload(Map(p)))
}

func (p *Params) UnmarshalJSON(data []byte) error {
	raw, err := decodeRaw(data)
	if err != nil {
		return err
	}
	if raw == nil {
		*p = nil
		return nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Errorf("parameters must be a JSON object, got %T", raw)
	}
	ret := make(Params, len(m))
	for k, e := range m {
		if ret[k], err = FromJSON(e); err != nil {
			return fmt.Errorf("parameter %q: %w", k, err)
		}
	}
	*p = ret
	return nil
}

// Row is an ordered list of record fields. It marshals as a plain JSON array of full-form values.
type Row []Value

func (r Row) MarshalJSON() ([]byte, error) {
	l := make([]interface{}, len(r))
	for i, v := range r {
		l[i] = ToJSON(v, true)
	}
	return json.Marshal(l)
}

func (r *Row) UnmarshalJSON(data []byte) error {
	raw, err := decodeRaw(data)
	if err != nil {
		return err
	}
	if raw == nil {
		*r = nil
		return nil
	}
	l, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("record values must be a JSON array, got %T", raw)
	}
	ret := make(Row, len(l))
	for i, e := range l {
		if ret[i], err = FromJSON(e); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	*r = ret
	return nil
}

// Holder wraps a single value so it can be a field of a struct that is unmarshaled from JSON.
type Holder struct {
	Value Value
}

func (h Holder) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToJSON(h.Value, true))
}

func (h *Holder) UnmarshalJSON(data []byte) error {
	raw, err := decodeRaw(data)
	if err != nil {
		return err
	}
	h.Value, err = FromJSON(raw)
	return err
}

func decodeRaw(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

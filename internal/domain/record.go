package domain

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one row of a table: an ordered association from field name to a
// scalar value (nil, string, integer, float, bool, []byte or time.Time).
//
// Presence is explicit. A field set to nil is present with a null value and
// is distinct from a field that was never set.
type Record struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewRecord builds a record from alternating field names and values:
//
//	NewRecord("id", 1, "name", "a")
//
// It panics if a name is not a string or the last name has no value.
func NewRecord(pairs ...any) *Record {
	if len(pairs)%2 != 0 {
		panic("domain.NewRecord: odd number of arguments")
	}
	r := &Record{m: orderedmap.New[string, any](len(pairs) / 2)}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("domain.NewRecord: field name at position %d is %T, not string", i, pairs[i]))
		}
		r.Set(name, pairs[i+1])
	}
	return r
}

// Set assigns a value, appending the field if it is new.
func (r *Record) Set(field string, value any) {
	if r.m == nil {
		r.m = orderedmap.New[string, any]()
	}
	r.m.Set(field, value)
}

// Get returns the value of a field and whether the field is present.
func (r *Record) Get(field string) (any, bool) {
	if r == nil || r.m == nil {
		return nil, false
	}
	return r.m.Get(field)
}

// Has reports whether the field is present (possibly with a nil value).
func (r *Record) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// Fields returns the field names in insertion order. The slice is a copy.
func (r *Record) Fields() []string {
	if r == nil || r.m == nil {
		return nil
	}
	out := make([]string, 0, r.m.Len())
	for p := r.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil || r.m == nil {
		return 0
	}
	return r.m.Len()
}

// Clone returns a shallow copy; values are scalars so this is a full copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := &Record{m: orderedmap.New[string, any](r.Len())}
	if r.m != nil {
		for p := r.m.Oldest(); p != nil; p = p.Next() {
			c.m.Set(p.Key, p.Value)
		}
	}
	return c
}

// MarshalJSON encodes the record as a JSON object in field order. Byte
// values are written as text.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	out := orderedmap.New[string, any](r.Len())
	if r.m != nil {
		for p := r.m.Oldest(); p != nil; p = p.Next() {
			v := p.Value
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			out.Set(p.Key, v)
		}
	}
	return out.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping the key order of the input.
// Numbers decode as float64, matching encoding/json.
func (r *Record) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, any]()
	if err := m.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	r.m = m
	return nil
}

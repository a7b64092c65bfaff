// Package records defines the ordered record model shared by the tabular
// parser, serializer, and streaming stages.
//
// A Record is an insertion-ordered mapping from field name to a scalar value
// (string, float64, bool, or nil). Ordering matters: serialization computes
// column order from the first-seen order of field names, and callers must be
// able to round-trip a document without silent column reshuffling.
package records

import (
	"bytes"
	"encoding/json"
)

// Value is a scalar field value: string, float64, bool, or nil.
type Value = any

// RenameMap maps source field names to destination field names. It is applied
// at the boundary only: on parser output or on serializer input, never inside
// the core algorithms.
type RenameMap map[string]string

// Template is an explicit ordered column list. When present it fixes output
// column order regardless of the first-seen union; fields absent from a
// record serialize as empty.
type Template []string

// Record is an insertion-ordered field map.
//
// The zero value is not usable; construct with New. Set on an existing key
// updates the value in place without changing its position.
type Record struct {
	keys []string
	vals map[string]Value
}

// New returns an empty Record with capacity hints for n fields.
func New(n int) *Record {
	if n < 0 {
		n = 0
	}
	return &Record{
		keys: make([]string, 0, n),
		vals: make(map[string]Value, n),
	}
}

// Set assigns v to the named field, appending the field to the order on first
// assignment.
func (r *Record) Set(name string, v Value) {
	if _, ok := r.vals[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.vals[name] = v
}

// Get returns the value for name and whether the field is present.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.vals[name]
	return v, ok
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.keys) }

// Fields returns the field names in insertion order. The returned slice is a
// copy; mutating it does not affect the record.
func (r *Record) Fields() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Clone returns a deep copy of the record's ordering and field map. Values
// are scalars and are copied by assignment.
func (r *Record) Clone() *Record {
	c := New(len(r.keys))
	for _, k := range r.keys {
		c.Set(k, r.vals[k])
	}
	return c
}

// Rename returns a copy of the record with field names mapped through rm.
// Names absent from rm pass through unchanged; ordering is preserved. When a
// rename collides with an existing field, the later field wins and the
// earlier position is kept.
func (r *Record) Rename(rm RenameMap) *Record {
	if len(rm) == 0 {
		return r.Clone()
	}
	c := New(len(r.keys))
	for _, k := range r.keys {
		name := k
		if mapped, ok := rm[k]; ok {
			name = mapped
		}
		c.Set(name, r.vals[k])
	}
	return c
}

// MarshalJSON emits the record as a JSON object in insertion order. Keys and
// values are individually escaped so diacritics and embedded quotes stay safe.
func (r *Record) MarshalJSON() ([]byte, error) {
	if len(r.keys) == 0 {
		return []byte(`{}`), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Union computes the field-name union across recs in first-seen order. When
// max > 0 only the first max records contribute; columns introduced by later
// records never appear.
func Union(recs []*Record, max int) []string {
	if max > 0 && len(recs) > max {
		recs = recs[:max]
	}
	var cols []string
	seen := make(map[string]struct{})
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		for _, k := range rec.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	return cols
}

// Columns resolves the output column order for recs: the Template when
// non-empty, otherwise the first-seen union (capped at max records).
func Columns(recs []*Record, tmpl Template, max int) []string {
	if len(tmpl) > 0 {
		out := make([]string, len(tmpl))
		copy(out, tmpl)
		return out
	}
	return Union(recs, max)
}

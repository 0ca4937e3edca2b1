// ABOUTME: Generic record and patch types exchanged between adapter and cache
// ABOUTME: Records are flat field maps keyed by GraphQL field names
package objects

import (
	"reflect"
)

// FieldID is the key holding a record's opaque identifier.
const FieldID = "id"

// Record is a snapshot of one entity as returned by the API.
type Record map[string]any

// Patch is a set of field overwrites. A nil value sets the field to null.
type Patch map[string]any

// ID returns the record identifier, or "" when absent.
func (r Record) ID() string {
	return r.String(FieldID)
}

// String returns a string field, or "" when missing or not a string.
func (r Record) String(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

// Clone returns a deep copy of nested maps and slices.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Equal reports deep equality.
func (r Record) Equal(other Record) bool {
	return reflect.DeepEqual(r, other)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Record:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	case []string:
		s := make([]string, len(t))
		copy(s, t)
		return s
	case []map[string]any:
		s := make([]map[string]any, len(t))
		for i, vv := range t {
			s[i], _ = cloneValue(vv).(map[string]any)
		}
		return s
	default:
		return v
	}
}

// ApplyPatch returns a new record with every patch field overwritten.
// The input record is not modified.
func ApplyPatch(rec Record, patch Patch) Record {
	out := rec.Clone()
	if out == nil {
		out = Record{}
	}
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

// Clone returns a deep copy of the patch.
func (p Patch) Clone() Patch {
	if p == nil {
		return nil
	}
	out := make(Patch, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

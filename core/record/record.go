// Package record defines the immutable, field-indexable view over domain
// objects that the filter engine evaluates against. A Record exposes named
// fields as typed values; the engine only ever reads them.
package record

import (
	"fmt"
	"sort"
)

// Kind identifies the type of a field value. The set of kinds is closed;
// the evaluator has no representation for anything outside it.
type Kind string

const (
	KindString    Kind = "string"     // Text data
	KindNumber    Kind = "number"     // Numeric data, held as float64
	KindBoolean   Kind = "boolean"    // True/false values
	KindStringSet Kind = "string-set" // Unordered collection of unique strings
)

// Value is an immutable tagged value of exactly one Kind. The zero Value is
// not valid; always construct through String, Number, Bool or StringSet.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	set  []string
}

// String constructs a string-kind value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number constructs a number-kind value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Bool constructs a boolean-kind value.
func Bool(b bool) Value {
	return Value{kind: KindBoolean, b: b}
}

// StringSet constructs a string-set value. The items are copied and
// de-duplicated so later mutation of the caller's slice cannot reach the
// stored value.
func StringSet(items ...string) Value {
	seen := make(map[string]struct{}, len(items))
	set := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		set = append(set, item)
	}
	return Value{kind: KindStringSet, set: set}
}

// Kind returns the kind tag of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// AsString returns the string content and true if the value is string-kind.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the numeric content and true if the value is number-kind.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the boolean content and true if the value is boolean-kind.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

// AsStringSet returns a copy of the set content and true if the value is
// string-set-kind. Returning a copy keeps the stored value immutable.
func (v Value) AsStringSet() ([]string, bool) {
	if v.kind != KindStringSet {
		return nil, false
	}
	out := make([]string, len(v.set))
	copy(out, v.set)
	return out, true
}

// Interface returns the underlying content as an untyped value. Intended for
// logging and test assertions, not for evaluation dispatch.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBoolean:
		return v.b
	case KindStringSet:
		out, _ := v.AsStringSet()
		return out
	default:
		return nil
	}
}

// Record is an immutable named bag of fields. Identity is external: the
// engine treats a caller-supplied index or key as the record's identity and
// never mutates the record itself.
type Record struct {
	fields map[string]Value
}

// New creates a Record from a field map. The map is copied; the caller may
// reuse or mutate its map afterwards without affecting the record.
func New(fields map[string]Value) Record {
	copied := make(map[string]Value, len(fields))
	for name, value := range fields {
		copied[name] = value
	}
	return Record{fields: copied}
}

// Field looks up a field by name. The second return is false when the record
// has no field of that name.
func (r Record) Field(name string) (Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Fields returns the field names in sorted order.
func (r Record) Fields() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Coerce converts a plain Go value into a typed Value. Numeric types widen
// to float64. It returns false for anything outside the supported kinds.
func Coerce(v any) (Value, bool) {
	switch val := v.(type) {
	case string:
		return String(val), true
	case bool:
		return Bool(val), true
	case float64:
		return Number(val), true
	case float32:
		return Number(float64(val)), true
	case int:
		return Number(float64(val)), true
	case int8:
		return Number(float64(val)), true
	case int16:
		return Number(float64(val)), true
	case int32:
		return Number(float64(val)), true
	case int64:
		return Number(float64(val)), true
	case []string:
		return StringSet(val...), true
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return Value{}, false
			}
			items = append(items, s)
		}
		return StringSet(items...), true
	default:
		return Value{}, false
	}
}

// FromMap builds a Record from a plain map, coercing each entry. It fails on
// the first entry whose type falls outside the supported kinds.
func FromMap(fields map[string]any) (Record, error) {
	copied := make(map[string]Value, len(fields))
	for name, raw := range fields {
		value, ok := Coerce(raw)
		if !ok {
			return Record{}, fmt.Errorf("field %q has unsupported type %T", name, raw)
		}
		copied[name] = value
	}
	return Record{fields: copied}, nil
}

// Package kbdoc implements the structured value exchanged between the browser
// extension and the knowledge base file. A Value is a tagged union of null,
// bool, number, string, sequence and mapping. Mappings keep their insertion
// order and scalars keep their literal text, so a document travels
// JSON -> YAML -> JSON without losing keys, order or numeric precision.
package kbdoc

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	Sequence
	Mapping
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Field is one key/value pair of a mapping.
type Field struct {
	Key   string
	Value *Value
}

// Value is an order-preserving structured value. The zero value is null.
type Value struct {
	kind   Kind
	text   string
	items  []*Value
	fields []Field
}

func NewNull() *Value { return &Value{kind: Null} }

func NewBool(b bool) *Value {
	return &Value{kind: Bool, text: strconv.FormatBool(b)}
}

func NewInt(i int64) *Value {
	return &Value{kind: Int, text: strconv.FormatInt(i, 10)}
}

func NewFloat(f float64) *Value {
	return &Value{kind: Float, text: formatFloat(f)}
}

func NewString(s string) *Value {
	return &Value{kind: String, text: s}
}

// NewSequence returns a sequence holding items in order.
func NewSequence(items ...*Value) *Value {
	return &Value{kind: Sequence, items: append([]*Value{}, items...)}
}

// NewMapping returns an empty mapping.
func NewMapping() *Value {
	return &Value{kind: Mapping}
}

// newNumber classifies a literal produced by a JSON decoder.
func newNumber(lit string) *Value {
	if strings.ContainsAny(lit, ".eE") {
		return &Value{kind: Float, text: lit}
	}
	return &Value{kind: Int, text: lit}
}

// Kind reports the variant. A nil Value is null.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

// Text returns the literal text of a scalar and "" for containers and null.
func (v *Value) Text() string {
	if v == nil || v.kind == Null || v.kind == Sequence || v.kind == Mapping {
		return ""
	}
	return v.text
}

// Items returns the elements of a sequence.
func (v *Value) Items() []*Value {
	if v.Kind() != Sequence {
		return nil
	}
	return v.items
}

// Fields returns the pairs of a mapping in order.
func (v *Value) Fields() []Field {
	if v.Kind() != Mapping {
		return nil
	}
	return v.fields
}

// Len returns the number of elements of a container, 0 otherwise.
func (v *Value) Len() int {
	switch v.Kind() {
	case Sequence:
		return len(v.items)
	case Mapping:
		return len(v.fields)
	default:
		return 0
	}
}

// Get looks up key in a mapping.
func (v *Value) Get(key string) (*Value, bool) {
	for _, f := range v.Fields() {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Lookup follows a chain of mapping keys.
func (v *Value) Lookup(path ...string) (*Value, bool) {
	cur := v
	for _, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Set replaces the value of key in place, or appends the pair when key is
// new. It is a no-op on anything but a mapping.
func (v *Value) Set(key string, val *Value) {
	if v.Kind() != Mapping {
		return
	}
	if val == nil {
		val = NewNull()
	}
	for i := range v.fields {
		if v.fields[i].Key == key {
			v.fields[i].Value = val
			return
		}
	}
	v.fields = append(v.fields, Field{Key: key, Value: val})
}

// Append adds items to a sequence.
func (v *Value) Append(items ...*Value) {
	if v.Kind() != Sequence {
		return
	}
	v.items = append(v.items, items...)
}

// BoolValue reports the truth value of a bool scalar.
func (v *Value) BoolValue() bool {
	return v.Kind() == Bool && v.text == "true"
}

// Falsy mirrors the loose emptiness test applied to a freshly parsed file:
// null, false, zero, the empty string and empty containers.
func (v *Value) Falsy() bool {
	switch v.Kind() {
	case Null:
		return true
	case Bool:
		return !v.BoolValue()
	case Int, Float:
		f, err := strconv.ParseFloat(v.text, 64)
		return err == nil && f == 0
	case String:
		return v.text == ""
	default:
		return v.Len() == 0
	}
}

// Clone returns a deep copy.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := &Value{kind: v.kind, text: v.text}
	if v.items != nil {
		c.items = make([]*Value, len(v.items))
		for i, it := range v.items {
			c.items[i] = it.Clone()
		}
	}
	if v.fields != nil {
		c.fields = make([]Field, len(v.fields))
		for i, f := range v.fields {
			c.fields[i] = Field{Key: f.Key, Value: f.Value.Clone()}
		}
	}
	return c
}

// Equal reports whether a and b hold the same variant, text, elements and
// mapping pairs in the same order. Numbers compare by value.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case Null:
		return true
	case Int, Float:
		if a.text == b.text {
			return true
		}
		fa, errA := strconv.ParseFloat(a.text, 64)
		fb, errB := strconv.ParseFloat(b.text, 64)
		return errA == nil && errB == nil && fa == fb
	case Sequence:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case Mapping:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if a.fields[i].Key != b.fields[i].Key || !Equal(a.fields[i].Value, b.fields[i].Value) {
				return false
			}
		}
		return true
	default:
		return a.text == b.text
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func isFinite(lit string) bool {
	f, err := strconv.ParseFloat(lit, 64)
	return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Package event defines the recursive Value model exchanged with
// transformation routines: null, bool, number, string, array, and
// string-keyed object. Objects keep their members in insertion order
// and numbers keep their original JSON literal, so a decode/encode
// round trip is lossless.
package event

import (
	"encoding/json"
	"strconv"
)

// Kind discriminates a Value.
type Kind uint8

const (
	Invalid Kind = iota
	Null
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "invalid"
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is one JSON-shaped datum. The zero Value is Invalid; use the
// constructors. Scalar kinds are immutable; Array and Object share
// their backing storage when copied, so use Clone for an independent
// copy.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  []Member
}

func NullValue() Value           { return Value{kind: Null} }
func BoolValue(b bool) Value     { return Value{kind: Bool, b: b} }
func StringValue(s string) Value { return Value{kind: String, str: s} }

func NumberValue(n json.Number) Value {
	return Value{kind: Number, num: n}
}

// IntValue builds a Number from an integer without float coercion.
func IntValue(i int64) Value {
	return Value{kind: Number, num: json.Number(strconv.FormatInt(i, 10))}
}

// ArrayValue builds an array from items. The slice is owned by the
// returned Value.
func ArrayValue(items ...Value) Value {
	return Value{kind: Array, arr: items}
}

// ObjectValue builds an object from members, preserving their order.
func ObjectValue(members ...Member) Value {
	return Value{kind: Object, obj: members}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == Null }

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool { return v.kind == Bool && v.b }

// Number returns the numeric literal; empty for other kinds.
func (v Value) Number() json.Number {
	if v.kind != Number {
		return ""
	}
	return v.num
}

// Str returns the string payload; empty for other kinds.
func (v Value) Str() string {
	if v.kind != String {
		return ""
	}
	return v.str
}

// Len returns the element count of an array or member count of an
// object; 0 for other kinds.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.obj)
	}
	return 0
}

// Index returns element i of an array. It panics when out of range,
// like a slice.
func (v Value) Index(i int) Value { return v.arr[i] }

// Members returns the object's members in insertion order. The slice
// is shared; callers must not append to it.
func (v Value) Members() []Member { return v.obj }

// Get returns the member named key of an object.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.obj {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Set replaces the member named key in place, or appends it. The
// receiver must be an object.
func (v *Value) Set(key string, val Value) {
	for i := range v.obj {
		if v.obj[i].Key == key {
			v.obj[i].Value = val
			return
		}
	}
	v.obj = append(v.obj, Member{Key: key, Value: val})
}

// Equal reports structural equality. Numbers compare by literal, so
// 1 and 1.0 are distinct.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Bool:
		return a.b == b.b
	case Number:
		return a.num == b.num
	case String:
		return a.str == b.str
	case Array:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for i := range a.obj {
			if a.obj[i].Key != b.obj[i].Key || !Equal(a.obj[i].Value, b.obj[i].Value) {
				return false
			}
		}
		return true
	}
	return true
}

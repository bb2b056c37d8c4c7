// Package jsonvalue models decoded JSON documents for jsontables.
//
// Objects keep their fields in document order, which the table discovery
// traversal and the flattener rely on for deterministic output. Numbers keep
// their literal text so large integers survive a round trip to CSV unchanged.
package jsonvalue

import (
	"bytes"
	"strconv"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/goccy/go-json"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	// KindMissing marks a cell for a field absent from a row. It never
	// appears in a decoded document.
	KindMissing
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Value is one node of a JSON document.
type Value struct {
	kind   Kind
	b      bool
	s      string // string content or number literal
	items  []*Value
	fields *orderedmap.OrderedMap[string, *Value]
}

var (
	nullValue    = &Value{kind: KindNull}
	missingValue = &Value{kind: KindMissing}
	trueValue    = &Value{kind: KindBool, b: true}
	falseValue   = &Value{kind: KindBool}
)

// Null returns the JSON null value.
func Null() *Value { return nullValue }

// Missing returns the marker used for absent cells.
func Missing() *Value { return missingValue }

// Bool returns a boolean value.
func Bool(b bool) *Value {
	if b {
		return trueValue
	}
	return falseValue
}

// Number returns a number value holding the given literal, e.g. "42" or "1.5e3".
func Number(literal string) *Value {
	return &Value{kind: KindNumber, s: literal}
}

// Int is a shorthand for Number(strconv.FormatInt(i, 10)).
func Int(i int64) *Value {
	return Number(strconv.FormatInt(i, 10))
}

// String returns a string value.
func String(s string) *Value {
	return &Value{kind: KindString, s: s}
}

// Array returns an array value holding items.
func Array(items ...*Value) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{kind: KindArray, items: items}
}

// NewObject returns an empty object. Fields are added with Set.
func NewObject() *Value {
	return &Value{kind: KindObject, fields: orderedmap.NewOrderedMap[string, *Value]()}
}

// Set adds or replaces a field of an object and returns the object.
// A replaced field keeps its original position. Set is meant for building
// values; decoded documents are treated as immutable afterwards.
func (v *Value) Set(key string, val *Value) *Value {
	if v.kind != KindObject {
		panic("jsonvalue: Set on " + v.kind.String())
	}
	v.fields.Set(key, val)
	return v
}

// Kind returns the variant of v. A nil Value reports KindMissing.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindMissing
	}
	return v.kind
}

func (v *Value) IsNull() bool    { return v.Kind() == KindNull }
func (v *Value) IsMissing() bool { return v.Kind() == KindMissing }
func (v *Value) IsObject() bool  { return v.Kind() == KindObject }
func (v *Value) IsArray() bool   { return v.Kind() == KindArray }

// IsContainer reports whether v is an object or an array.
func (v *Value) IsContainer() bool {
	k := v.Kind()
	return k == KindObject || k == KindArray
}

// IsScalar reports whether v is null, a bool, a number or a string.
func (v *Value) IsScalar() bool {
	switch v.Kind() {
	case KindNull, KindBool, KindNumber, KindString:
		return true
	}
	return false
}

// Len returns the number of items of an array or fields of an object.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindArray:
		return len(v.items)
	case KindObject:
		return v.fields.Len()
	}
	return 0
}

// Items returns the elements of an array, nil for other kinds.
func (v *Value) Items() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	return v.items
}

// Keys returns the field names of an object in document order.
func (v *Value) Keys() []string {
	if v.Kind() != KindObject {
		return nil
	}
	return v.fields.Keys()
}

// Get returns a field of an object.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != KindObject {
		return nil, false
	}
	return v.fields.Get(key)
}

// ForEach calls fn for every field of an object in document order.
func (v *Value) ForEach(fn func(key string, val *Value)) {
	if v.Kind() != KindObject {
		return
	}
	for el := v.fields.Front(); el != nil; el = el.Next() {
		fn(el.Key, el.Value)
	}
}

// BoolValue returns the content of a bool value.
func (v *Value) BoolValue() bool {
	return v.Kind() == KindBool && v.b
}

// Text returns the content of a string value or the literal of a number.
func (v *Value) Text() string {
	switch v.Kind() {
	case KindString, KindNumber:
		return v.s
	}
	return ""
}

// Int64 returns the number as an integer when the literal is one.
func (v *Value) Int64() (int64, bool) {
	if v.Kind() != KindNumber {
		return 0, false
	}
	i, err := strconv.ParseInt(v.s, 10, 64)
	return i, err == nil
}

// Float64 returns the number as a float.
func (v *Value) Float64() (float64, bool) {
	if v.Kind() != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	return f, err == nil
}

// CellString renders v as a single table cell. Null and missing values
// render empty, containers render as compact JSON.
func (v *Value) CellString() string {
	switch v.Kind() {
	case KindNull, KindMissing:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber, KindString:
		return v.s
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

// MarshalJSON encodes v as compact JSON, keeping object field order.
// Missing values encode as null.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) encode(buf *bytes.Buffer) error {
	switch v.Kind() {
	case KindNull, KindMissing:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(v.s)
	case KindString:
		return writeString(buf, v.s)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		first := true
		for el := v.fields.Front(); el != nil; el = el.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := writeString(buf, el.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := el.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// IsArrayOfObjects reports whether v is a non-empty array whose elements are
// all objects. It has no side effects.
func IsArrayOfObjects(v *Value) bool {
	if v.Kind() != KindArray || len(v.items) == 0 {
		return false
	}
	for _, item := range v.items {
		if item.Kind() != KindObject {
			return false
		}
	}
	return true
}

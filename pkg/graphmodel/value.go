// File: pkg/graphmodel/value.go
package graphmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// Kind identifies which member of the Value union is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a tagged union over the JSON value space. It is used for node, edge
// and graph properties so that encoding and equality stay well defined.
//
// Numbers keep the decimal literal they were created from, which makes a
// load/save cycle byte-for-byte stable for numeric properties.
// The zero Value is Null.
type Value struct {
	kind Kind
	str  string // string payload, or the number literal
	b    bool
	obj  map[string]Value
	arr  []Value
}

// Properties is the free-form attribute map carried by nodes, edges and graphs.
type Properties map[string]Value

func Null() Value             { return Value{} }
func String(s string) Value   { return Value{kind: KindString, str: s} }
func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Int(i int64) Value       { return Value{kind: KindNumber, str: strconv.FormatInt(i, 10)} }
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

// Number wraps a float. Non-finite numbers are representable in memory but fail to marshal.
func Number(f float64) Value {
	return Value{kind: KindNumber, str: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Object wraps a map. A nil map produces an empty object.
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindObject, obj: m}
}

// numberLiteral builds a number from already validated JSON text.
func numberLiteral(lit string) Value {
	return Value{kind: KindNumber, str: lit}
}

// FromInterface converts plain Go data (as produced by a generic JSON decoder)
// into a Value.
func FromInterface(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		if _, err := t.Float64(); err != nil {
			return Value{}, fmt.Errorf("invalid number literal %q: %w", t.String(), err)
		}
		return numberLiteral(t.String()), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return numberLiteral(strconv.FormatUint(uint64(t), 10)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return numberLiteral(strconv.FormatUint(t, 10)), nil
	case []any:
		out := make([]Value, 0, len(t))
		for i, e := range t {
			ev, err := FromInterface(e)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, ev)
		}
		return Array(out...), nil
	case []string:
		out := make([]Value, 0, len(t))
		for _, e := range t {
			out = append(out, String(e))
		}
		return Array(out...), nil
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			ev, err := FromInterface(e)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = ev
		}
		return Object(out), nil
	case map[string]string:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = String(e)
		}
		return Object(out), nil
	default:
		return Value{}, fmt.Errorf("unsupported property value type %T", v)
	}
}

// MustFromInterface is FromInterface for literals in code and tests.
func MustFromInterface(v any) Value {
	val, err := FromInterface(v)
	if err != nil {
		panic(err)
	}
	return val
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsString() bool { return v.kind == KindString }

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.str, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// Interface converts back to plain Go data. Numbers become json.Number.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return json.Number(v.str)
	case KindBool:
		return v.b
	case KindObject:
		m := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			m[k] = e.Interface()
		}
		return m
	case KindArray:
		s := make([]any, len(v.arr))
		for i, e := range v.arr {
			s[i] = e.Interface()
		}
		return s
	default:
		return nil
	}
}

// String renders the value for display: strings are returned verbatim,
// everything else as compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNull:
		return "null"
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(b)
}

// Equal reports deep equality. Numbers compare by numeric value, so 1 and 1.0
// are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindNumber:
		if v.str == o.str {
			return true
		}
		if a, err := strconv.ParseInt(v.str, 10, 64); err == nil {
			if b, err := strconv.ParseInt(o.str, 10, 64); err == nil {
				return a == b
			}
		}
		a, okA := v.AsFloat()
		b, okB := o.AsFloat()
		return okA && okB && a == b
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, a := range v.obj {
			b, ok := o.obj[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	switch v.kind {
	case KindObject:
		m := make(map[string]Value, len(v.obj))
		for k, e := range v.obj {
			m[k] = e.Clone()
		}
		return Value{kind: KindObject, obj: m}
	case KindArray:
		s := make([]Value, len(v.arr))
		for i, e := range v.arr {
			s[i] = e.Clone()
		}
		return Value{kind: KindArray, arr: s}
	default:
		return v
	}
}

// MarshalJSON implements json.Marshaler. Object keys are written sorted.
func (v Value) MarshalJSON() ([]byte, error) {
	stream := codec.BorrowStream(nil)
	defer codec.ReturnStream(stream)
	if err := writeValue(stream, v); err != nil {
		return nil, err
	}
	if stream.Error != nil {
		return nil, stream.Error
	}
	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

func writeValue(stream *jsoniter.Stream, v Value) error {
	switch v.kind {
	case KindNull:
		stream.WriteNil()
	case KindString:
		stream.WriteString(v.str)
	case KindBool:
		stream.WriteBool(v.b)
	case KindNumber:
		f, err := strconv.ParseFloat(v.str, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("graphmodel: cannot encode non-finite number %q", v.str)
		}
		stream.WriteRaw(v.str)
	case KindArray:
		stream.WriteArrayStart()
		for i, e := range v.arr {
			if i > 0 {
				stream.WriteMore()
			}
			if err := writeValue(stream, e); err != nil {
				return err
			}
		}
		stream.WriteArrayEnd()
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		stream.WriteObjectStart()
		for i, k := range keys {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(k)
			if err := writeValue(stream, v.obj[k]); err != nil {
				return err
			}
		}
		stream.WriteObjectEnd()
	default:
		return fmt.Errorf("graphmodel: unknown value kind %d", v.kind)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	iter := codec.BorrowIterator(data)
	defer codec.ReturnIterator(iter)

	val := readValue(iter)
	if iter.Error != nil {
		return fmt.Errorf("graphmodel: decode value: %w", iter.Error)
	}
	*v = val
	return nil
}

func readValue(iter *jsoniter.Iterator) Value {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return Null()
	case jsoniter.StringValue:
		return String(iter.ReadString())
	case jsoniter.BoolValue:
		return Bool(iter.ReadBool())
	case jsoniter.NumberValue:
		lit := string(iter.ReadNumber())
		if f, err := strconv.ParseFloat(lit, 64); err != nil || math.IsInf(f, 0) {
			iter.ReportError("readValue", "number out of range: "+lit)
			return Null()
		}
		return numberLiteral(lit)
	case jsoniter.ArrayValue:
		arr := []Value{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			arr = append(arr, readValue(it))
			return it.Error == nil
		})
		return Array(arr...)
	case jsoniter.ObjectValue:
		obj := map[string]Value{}
		iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
			obj[key] = readValue(it)
			return it.Error == nil
		})
		return Object(obj)
	default:
		iter.ReportError("readValue", "unexpected token")
		return Null()
	}
}

// MarshalYAML lets gopkg.in/yaml.v3 render properties as plain scalars and maps.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case KindNumber:
		if i, err := strconv.ParseInt(v.str, 10, 64); err == nil {
			return i, nil
		}
		f, _ := v.AsFloat()
		return f, nil
	case KindObject:
		m := make(map[string]Value, len(v.obj))
		for k, e := range v.obj {
			m[k] = e
		}
		return m, nil
	case KindArray:
		return v.arr, nil
	default:
		return v.Interface(), nil
	}
}

// Clone deep-copies the map. A nil map stays nil.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v.Clone()
	}
	return out
}

// Equal compares two property maps deeply. Nil and empty maps are equal.
func (p Properties) Equal(o Properties) bool {
	if len(p) != len(o) {
		return false
	}
	for k, a := range p {
		b, ok := o[k]
		if !ok || !a.Equal(b) {
			return false
		}
	}
	return true
}

// PropertiesFrom converts a plain map, failing on unsupported value types.
func PropertiesFrom(m map[string]any) (Properties, error) {
	out := make(Properties, len(m))
	for k, raw := range m {
		v, err := FromInterface(raw)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// isJSONKind reports whether the raw bytes start with the given JSON token.
func isJSONKind(raw []byte, first byte) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == first
}

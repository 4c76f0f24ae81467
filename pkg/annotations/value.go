package annotations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies which case of the Value union is populated
type Kind int

const (
	NullKind Kind = iota
	StringKind
	IntegerKind
	FloatKind
	BooleanKind
	ListKind
	MapKind
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case StringKind:
		return "string"
	case IntegerKind:
		return "integer"
	case FloatKind:
		return "float"
	case BooleanKind:
		return "boolean"
	case ListKind:
		return "list"
	case MapKind:
		return "map"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name to a Kind. Common aliases such as "int" and
// "bool" are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "null", "nil":
		return NullKind, nil
	case "string", "str":
		return StringKind, nil
	case "integer", "int":
		return IntegerKind, nil
	case "float", "double", "number":
		return FloatKind, nil
	case "boolean", "bool":
		return BooleanKind, nil
	case "list", "array":
		return ListKind, nil
	case "map", "object":
		return MapKind, nil
	default:
		return NullKind, fmt.Errorf("unknown value kind: %q", s)
	}
}

// Value is a typed annotation value. The zero Value is Null.
//
// Values are immutable: constructors and accessors copy nested containers so
// a Value can be shared freely between goroutines.
type Value struct {
	kind   Kind
	str    string
	num    int64
	float  float64
	flag   bool
	items  []Value
	fields *Map
}

// String creates a string value
func String(s string) Value { return Value{kind: StringKind, str: s} }

// Int creates an integer value
func Int(n int64) Value { return Value{kind: IntegerKind, num: n} }

// Float creates a float value
func Float(f float64) Value { return Value{kind: FloatKind, float: f} }

// Bool creates a boolean value
func Bool(b bool) Value { return Value{kind: BooleanKind, flag: b} }

// Null returns the null value
func Null() Value { return Value{} }

// List creates a list value holding a copy of items
func List(items ...Value) Value {
	return Value{kind: ListKind, items: slices.Clone(items)}
}

// Field is a key/value pair used to build map values
type Field struct {
	Key   string
	Value Value
}

// MapOf creates a map value. Duplicate keys keep their first position and
// take the last value.
func MapOf(fields ...Field) Value {
	m := newMap(len(fields))
	for _, f := range fields {
		m.set(f.Key, f.Value)
	}
	return Value{kind: MapKind, fields: m}
}

// Kind returns which case of the union the value holds
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null
func (v Value) IsNull() bool { return v.kind == NullKind }

// AsString returns the string payload
func (v Value) AsString() (string, bool) { return v.str, v.kind == StringKind }

// AsInt returns the integer payload
func (v Value) AsInt() (int64, bool) { return v.num, v.kind == IntegerKind }

// AsFloat returns the float payload
func (v Value) AsFloat() (float64, bool) { return v.float, v.kind == FloatKind }

// AsBool returns the boolean payload
func (v Value) AsBool() (bool, bool) { return v.flag, v.kind == BooleanKind }

// AsList returns a copy of the list elements
func (v Value) AsList() ([]Value, bool) {
	if v.kind != ListKind {
		return nil, false
	}
	return slices.Clone(v.items), true
}

// AsMap returns the map payload
func (v Value) AsMap() (*Map, bool) {
	if v.kind != MapKind {
		return nil, false
	}
	if v.fields == nil {
		return newMap(0), true
	}
	return v.fields, true
}

// Len returns the number of elements of a list or map, and 0 otherwise
func (v Value) Len() int {
	switch v.kind {
	case ListKind:
		return len(v.items)
	case MapKind:
		return v.fields.Len()
	default:
		return 0
	}
}

// Equal reports whether two values are structurally equal. Map key order is
// not significant.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case NullKind:
		return true
	case StringKind:
		return v.str == other.str
	case IntegerKind:
		return v.num == other.num
	case FloatKind:
		return v.float == other.float
	case BooleanKind:
		return v.flag == other.flag
	case ListKind:
		return slices.EqualFunc(v.items, other.items, Value.Equal)
	case MapKind:
		return v.fields.equal(other.fields)
	default:
		return false
	}
}

// Interface converts the value to plain Go values: string, int64, float64,
// bool, nil, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case StringKind:
		return v.str
	case IntegerKind:
		return v.num
	case FloatKind:
		return v.float
	case BooleanKind:
		return v.flag
	case ListKind:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case MapKind:
		out := make(map[string]any, v.fields.Len())
		for key, item := range v.fields.All() {
			out[key] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

var bareKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Literal renders the value in annotation syntax. For values the grammar can
// produce, which excludes NaN and infinite floats, parsing the literal with
// ParseValue yields a value equal to v.
func (v Value) Literal() string {
	var b strings.Builder
	v.writeLiteral(&b)
	return b.String()
}

// String implements fmt.Stringer using the literal form
func (v Value) String() string {
	return v.Literal()
}

func (v Value) writeLiteral(b *strings.Builder) {
	switch v.kind {
	case NullKind:
		b.WriteString("null")
	case StringKind:
		writeQuoted(b, v.str)
	case IntegerKind:
		b.WriteString(strconv.FormatInt(v.num, 10))
	case FloatKind:
		b.WriteString(formatFloat(v.float))
	case BooleanKind:
		b.WriteString(strconv.FormatBool(v.flag))
	case ListKind:
		b.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeLiteral(b)
		}
		b.WriteByte(']')
	case MapKind:
		b.WriteByte('{')
		i := 0
		for key, item := range v.fields.All() {
			if i > 0 {
				b.WriteString(", ")
			}
			if bareKey.MatchString(key) {
				b.WriteString(key)
			} else {
				writeQuoted(b, key)
			}
			b.WriteString(": ")
			item.writeLiteral(b)
			i++
		}
		b.WriteByte('}')
	}
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
}

// formatFloat always includes a decimal point so the literal lexes as a float
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// MarshalJSON encodes the value as JSON, keeping map keys in insertion order
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case ListKind:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case MapKind:
		buf.WriteByte('{')
		i := 0
		for key, item := range v.fields.All() {
			if i > 0 {
				buf.WriteByte(',')
			}
			encoded, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(encoded)
			buf.WriteByte(':')
			if err := item.writeJSON(buf); err != nil {
				return err
			}
			i++
		}
		buf.WriteByte('}')
		return nil
	default:
		encoded, err := json.Marshal(v.Interface())
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	}
}

// Map is an immutable string-keyed mapping that remembers first-insertion
// order of its keys
type Map struct {
	keys   []string
	values map[string]Value
}

func newMap(size int) *Map {
	return &Map{
		keys:   make([]string, 0, size),
		values: make(map[string]Value, size),
	}
}

func (m *Map) set(key string, v Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Len returns the number of keys
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value stored under key
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates over the entries in insertion order
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for _, key := range m.keys {
			if !yield(key, m.values[key]) {
				return
			}
		}
	}
}

func (m *Map) equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for key, v := range m.All() {
		ov, ok := other.Get(key)
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

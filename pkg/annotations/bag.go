package annotations

import (
	"bytes"
	"encoding/json"
	"iter"
	"regexp"
	"slices"
	"strings"
)

// Bag is the immutable result of parsing one comment block: annotation names
// in first-encounter order, each with its occurrences in encounter order.
type Bag struct {
	names   []string
	entries map[string][]Value
}

func newBag() *Bag {
	return &Bag{entries: make(map[string][]Value)}
}

// add appends an occurrence; only used while the bag is being built
func (b *Bag) add(name string, v Value) {
	if _, exists := b.entries[name]; !exists {
		b.names = append(b.names, name)
	}
	b.entries[name] = append(b.entries[name], v)
}

// Len returns the number of distinct annotation names
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.names)
}

// IsEmpty reports whether the bag holds no annotations
func (b *Bag) IsEmpty() bool {
	return b.Len() == 0
}

// Names returns the annotation names in first-encounter order
func (b *Bag) Names() []string {
	if b == nil {
		return nil
	}
	return slices.Clone(b.names)
}

// Has reports whether the annotation occurs at least once
func (b *Bag) Has(name string) bool {
	if b == nil {
		return false
	}
	_, ok := b.entries[name]
	return ok
}

// Get returns the value of an annotation. A name that occurs once yields its
// value as is; a repeated name yields a list of every occurrence.
func (b *Bag) Get(name string) (Value, bool) {
	if b == nil {
		return Value{}, false
	}

	values, ok := b.entries[name]
	if !ok {
		return Value{}, false
	}
	if len(values) == 1 {
		return values[0], true
	}
	return List(values...), true
}

// All returns every occurrence of an annotation in encounter order
func (b *Bag) All(name string) []Value {
	if b == nil {
		return nil
	}
	return slices.Clone(b.entries[name])
}

// Each iterates over names and values as returned by Get
func (b *Bag) Each() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if b == nil {
			return
		}
		for _, name := range b.names {
			v, _ := b.Get(name)
			if !yield(name, v) {
				return
			}
		}
	}
}

// GetString returns a string annotation value with optional default
func (b *Bag) GetString(name string, defaultValue ...string) string {
	if v, ok := b.Get(name); ok {
		if s, ok := v.AsString(); ok {
			return s
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetInt returns an integer annotation value with optional default
func (b *Bag) GetInt(name string, defaultValue ...int64) int64 {
	if v, ok := b.Get(name); ok {
		if n, ok := v.AsInt(); ok {
			return n
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetFloat returns a float annotation value with optional default. Integer
// values are widened.
func (b *Bag) GetFloat(name string, defaultValue ...float64) float64 {
	if v, ok := b.Get(name); ok {
		if f, ok := v.AsFloat(); ok {
			return f
		}
		if n, ok := v.AsInt(); ok {
			return float64(n)
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetBool returns a boolean annotation value with optional default
func (b *Bag) GetBool(name string, defaultValue ...bool) bool {
	if v, ok := b.Get(name); ok {
		if flag, ok := v.AsBool(); ok {
			return flag
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return false
}

// Grep returns a bag holding the annotations whose names match pattern
func (b *Bag) Grep(pattern string) (*Bag, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return b.filter(func(name string) (string, bool) {
		return name, re.MatchString(name)
	}), nil
}

// UseNamespace returns a bag with the annotations under namespace ns, with
// the "ns." or "ns\" prefix removed from their names
func (b *Bag) UseNamespace(ns string) *Bag {
	ns = strings.TrimRight(ns, `.\`)
	return b.filter(func(name string) (string, bool) {
		for _, sep := range []string{".", `\`} {
			if rest, ok := strings.CutPrefix(name, ns+sep); ok && rest != "" {
				return rest, true
			}
		}
		return "", false
	})
}

func (b *Bag) filter(keep func(name string) (string, bool)) *Bag {
	out := newBag()
	if b == nil {
		return out
	}
	for _, name := range b.names {
		renamed, ok := keep(name)
		if !ok {
			continue
		}
		for _, v := range b.entries[name] {
			out.add(renamed, v)
		}
	}
	return out
}

// Union returns a bag with every annotation of b plus the annotations of
// other that b does not have
func (b *Bag) Union(other *Bag) *Bag {
	out := newBag()
	for _, src := range []*Bag{b, other} {
		if src == nil {
			continue
		}
		for _, name := range src.names {
			if out.Has(name) {
				continue
			}
			for _, v := range src.entries[name] {
				out.add(name, v)
			}
		}
	}
	return out
}

// Equal reports whether two bags hold the same names, in the same order,
// with structurally equal occurrences
func (b *Bag) Equal(other *Bag) bool {
	if !slices.Equal(b.Names(), other.Names()) {
		return false
	}
	for _, name := range b.Names() {
		if !slices.EqualFunc(b.entries[name], other.entries[name], Value.Equal) {
			return false
		}
	}
	return true
}

// ToMap converts the bag to plain Go values as returned by Value.Interface
func (b *Bag) ToMap() map[string]any {
	out := make(map[string]any, b.Len())
	for name, v := range b.Each() {
		out[name] = v.Interface()
	}
	return out
}

// MarshalJSON encodes the bag as a JSON object in first-encounter order
func (b *Bag) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for name, v := range b.Each() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := v.writeJSON(&buf); err != nil {
			return nil, err
		}
		i++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

package facts

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Value is a single fact value: a scalar, an ordered array, or a
// key-ordered map. Values marshal to both JSON and YAML with
// deterministic ordering.
type Value interface {
	json.Marshaler
	yaml.Marshaler
}

// Scalar holds a string, integer, float, or boolean fact value.
type Scalar struct {
	v any
}

// String returns a string scalar.
func String(s string) *Scalar { return &Scalar{v: s} }

// Int returns an integer scalar.
func Int(n int64) *Scalar { return &Scalar{v: n} }

// Float returns a floating-point scalar.
func Float(f float64) *Scalar { return &Scalar{v: f} }

// Bool returns a boolean scalar.
func Bool(b bool) *Scalar { return &Scalar{v: b} }

// Interface returns the underlying Go value.
func (s *Scalar) Interface() any { return s.v }

func (s *Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.v)
}

func (s *Scalar) MarshalYAML() (any, error) {
	return s.v, nil
}

// String implements fmt.Stringer for log output.
func (s *Scalar) String() string { return fmt.Sprintf("%v", s.v) }

// Array is an ordered sequence of values.
type Array struct {
	items []Value
}

// NewArray returns an empty array value.
func NewArray() *Array { return &Array{} }

// Add appends a value to the array.
func (a *Array) Add(v Value) { a.items = append(a.items, v) }

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.items) }

// Items returns the elements in order.
func (a *Array) Items() []Value { return a.items }

func (a *Array) MarshalJSON() ([]byte, error) {
	if a.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.items)
}

func (a *Array) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode}
	for _, item := range a.items {
		child := &yaml.Node{}
		if err := child.Encode(item); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, child)
	}
	return node, nil
}

// Map is a key-ordered mapping of fact sub-fields. Keys serialize in
// lexicographic order regardless of insertion order.
type Map struct {
	entries map[string]Value
}

// NewMap returns an empty map value.
func NewMap() *Map {
	return &Map{entries: make(map[string]Value)}
}

// Add sets a key. A nil value is ignored.
func (m *Map) Add(key string, v Value) {
	if v == nil {
		return
	}
	m.entries[key] = v
}

// Get returns the value for key, or nil.
func (m *Map) Get(key string) Value { return m.entries[key] }

// Empty reports whether the map has no entries.
func (m *Map) Empty() bool { return len(m.entries) == 0 }

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// Keys returns the keys in lexicographic order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Map) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range m.Keys() {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.entries[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}

func (m *Map) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range m.Keys() {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: k}
		valNode := &yaml.Node{}
		if err := valNode.Encode(m.entries[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

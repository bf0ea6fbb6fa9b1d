// Package facts models host facts as named, ordered values and runs the
// resolvers that populate them.
package facts

import (
	"bytes"
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"
)

// Fact names shared across resolvers.
const (
	FactProcessors             = "processors"
	FactProcessorCount         = "processorcount"
	FactPhysicalProcessorCount = "physicalprocessorcount"
	FactProcessor              = "processor"
)

// Resolver populates one or more facts in a collection. Resolvers never
// fail: a query that yields no data simply leaves its facts absent.
type Resolver interface {
	// Name identifies the resolver in logs.
	Name() string

	// Resolve queries the host and adds any facts it could determine.
	Resolve(c *Collection)
}

// Collection is a set of named facts. Facts serialize sorted by name.
// A Collection is not safe for concurrent use; the caller owns it
// exclusively while resolvers run.
type Collection struct {
	facts     map[string]Value
	resolvers []Resolver
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{facts: make(map[string]Value)}
}

// Register appends a resolver. Resolvers run in registration order.
func (c *Collection) Register(r Resolver) {
	c.resolvers = append(c.resolvers, r)
}

// ResolveAll runs every registered resolver.
func (c *Collection) ResolveAll() {
	for _, r := range c.resolvers {
		r.Resolve(c)
	}
}

// Add sets a fact. A nil value is ignored.
func (c *Collection) Add(name string, v Value) {
	if v == nil {
		return
	}
	c.facts[name] = v
}

// Get returns the named fact, or nil if absent.
func (c *Collection) Get(name string) Value { return c.facts[name] }

// Len returns the number of facts.
func (c *Collection) Len() int { return len(c.facts) }

// Names returns the fact names in lexicographic order.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.facts))
	for n := range c.facts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *Collection) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, n := range c.Names() {
		if i > 0 {
			buf = append(buf, ',')
		}
		nb, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(c.facts[n])
		if err != nil {
			return nil, err
		}
		buf = append(buf, nb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}

// UnmarshalJSON loads facts from JSON produced by MarshalJSON. Nested
// structure is preserved; numbers become integer or float scalars.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if c.facts == nil {
		c.facts = make(map[string]Value)
	}
	for k, v := range raw {
		c.facts[k] = fromInterface(v)
	}
	return nil
}

func (c *Collection) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, n := range c.Names() {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: n}
		valNode := &yaml.Node{}
		if err := valNode.Encode(c.facts[n]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// fromInterface converts decoded JSON into the fact value model.
func fromInterface(v any) Value {
	switch t := v.(type) {
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return Int(n)
		}
		f, _ := t.Float64()
		return Float(f)
	case []any:
		arr := NewArray()
		for _, item := range t {
			arr.Add(fromInterface(item))
		}
		return arr
	case map[string]any:
		m := NewMap()
		for k, item := range t {
			m.Add(k, fromInterface(item))
		}
		return m
	default:
		return nil
	}
}

package facts

import (
	"encoding/json"
	"testing"
)

type staticResolver struct {
	name  string
	facts map[string]Value
}

func (r *staticResolver) Name() string { return r.name }

func (r *staticResolver) Resolve(c *Collection) {
	for k, v := range r.facts {
		c.Add(k, v)
	}
}

func TestResolveAllRunsResolvers(t *testing.T) {
	c := NewCollection()
	c.Register(&staticResolver{name: "first", facts: map[string]Value{"a": Int(1)}})
	c.Register(&staticResolver{name: "second", facts: map[string]Value{"b": String("x")}})

	c.ResolveAll()

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if c.Get("a") == nil || c.Get("b") == nil {
		t.Error("resolver facts missing")
	}
}

func TestAddNilIgnored(t *testing.T) {
	c := NewCollection()
	c.Add("present", Int(1))
	c.Add("absent", nil)

	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if c.Get("absent") != nil {
		t.Error("nil fact was stored")
	}
}

func TestCollectionMarshalOrdered(t *testing.T) {
	c := NewCollection()
	c.Add("processorcount", Int(4))
	c.Add("kernel", String("Darwin"))

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"kernel":"Darwin","processorcount":4}`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	c := NewCollection()

	processors := NewMap()
	processors.Add("count", Int(4))
	models := NewArray()
	models.Add(String("Example CPU"))
	models.Add(String("Example CPU"))
	processors.Add("models", models)
	c.Add("processors", processors)
	c.Add("uptime_days", Float(1.5))
	c.Add("is_virtual", Bool(false))

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Collection
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	redata, err := json.Marshal(&decoded)
	if err != nil {
		t.Fatalf("re-Marshal: %v", err)
	}
	if string(redata) != string(data) {
		t.Errorf("round trip changed output:\n  first:  %s\n  second: %s", data, redata)
	}

	m, ok := decoded.Get("processors").(*Map)
	if !ok {
		t.Fatalf("processors decoded as %T, want *Map", decoded.Get("processors"))
	}
	count, ok := m.Get("count").(*Scalar)
	if !ok {
		t.Fatalf("count decoded as %T, want *Scalar", m.Get("count"))
	}
	if n, ok := count.Interface().(int64); !ok || n != 4 {
		t.Errorf("count = %v (%T), want int64 4", count.Interface(), count.Interface())
	}
}

func TestNamesSorted(t *testing.T) {
	c := NewCollection()
	c.Add("z", Int(1))
	c.Add("a", Int(2))
	c.Add("m", Int(3))

	names := c.Names()
	want := []string{"a", "m", "z"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("Names = %v, want %v", names, want)
		}
	}
}

package compose

import (
	"fmt"
	"iter"
	"slices"
)

// Mapping is an insertion-ordered map with string keys.
//
// Values are *Mapping, []any, string, int, float64, bool or nil. Read
// methods are safe on a nil *Mapping and behave as on an empty one.
type Mapping struct {
	keys   []string
	values map[string]any
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]any)}
}

// MappingOf builds a mapping from alternating keys and values.
// It panics if kv has odd length or a key is not a string.
func MappingOf(kv ...any) *Mapping {
	if len(kv)%2 != 0 {
		panic("compose: MappingOf requires key/value pairs")
	}
	m := NewMapping()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("compose: MappingOf key %v is not a string", kv[i]))
		}
		m.Set(key, kv[i+1])
	}
	return m
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present, even with a nil value.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// GetMapping returns the value under key if it is a mapping.
func (m *Mapping) GetMapping(key string) (*Mapping, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Mapping)
	return sub, ok && sub != nil
}

// Set stores v under key. A new key is appended to the key order; an
// existing key keeps its position.
func (m *Mapping) Set(key string, v any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes key if present.
func (m *Mapping) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// All iterates over the key/value pairs in insertion order.
func (m *Mapping) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the mapping.
func (m *Mapping) Clone() *Mapping {
	if m == nil {
		return nil
	}
	c := &Mapping{
		keys:   slices.Clone(m.keys),
		values: make(map[string]any, len(m.values)),
	}
	for k, v := range m.values {
		c.values[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case *Mapping:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

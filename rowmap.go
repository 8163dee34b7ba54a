package curator

import (
	"iter"
	"maps"
	"slices"
)

// RowMap is an insertion ordered map from clock keys (ISO dates) to entities.
// A nil entity records a key for which no data was reported.
type RowMap struct {
	keys   []string
	values map[string]*Entity
}

// NewRowMap returns an empty RowMap.
func NewRowMap() *RowMap { return &RowMap{values: make(map[string]*Entity)} }

// Set stores e under key. An existing key keeps its position.
func (m *RowMap) Set(key string, e *Entity) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = e
}

// Get returns the entity stored under key.
func (m *RowMap) Get(key string) (e *Entity, ok bool) {
	e, ok = m.values[key]
	return
}

// Len returns the number of keys.
func (m *RowMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Present returns the number of non nil entities.
func (m *RowMap) Present() int {
	n := 0
	for _, e := range m.All() {
		if e != nil {
			n++
		}
	}
	return n
}

// Keys returns the keys in order.
func (m *RowMap) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates over keys and entities in order.
func (m *RowMap) All() iter.Seq2[string, *Entity] {
	return func(yield func(string, *Entity) bool) {
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

// clone returns a copy of m sharing its entities.
func (m *RowMap) clone() *RowMap {
	if m == nil {
		return nil
	}
	return &RowMap{keys: slices.Clone(m.keys), values: maps.Clone(m.values)}
}

// Reverse returns a copy with keys in reverse order.
func (m *RowMap) Reverse() *RowMap {
	r := NewRowMap()
	for i := len(m.keys) - 1; i >= 0; i-- {
		r.Set(m.keys[i], m.values[m.keys[i]])
	}
	return r
}

// MarshalJSON writes a JSON object with keys in order.
func (m *RowMap) MarshalJSON() ([]byte, error) {
	var w orderedObject
	for k, e := range m.All() {
		if e == nil {
			w.Append(k, nil)
			continue
		}
		w.Append(k, e)
	}
	return w.MarshalJSON()
}

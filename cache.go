package curator

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo is a write once per key cache. Concurrent misses on the same key
// compute the value once.
type memo[V any] struct {
	mu     sync.RWMutex
	values map[string]V
	group  singleflight.Group
}

func (m *memo[V]) lookup(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// get returns the cached value of key, computing it if needed. Errors are not
// cached.
func (m *memo[V]) get(key string, compute func() (V, error)) (V, error) {
	if v, ok := m.lookup(key); ok {
		return v, nil
	}
	r, err, _ := m.group.Do(key, func() (any, error) {
		if v, ok := m.lookup(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.values == nil {
			m.values = make(map[string]V)
		}
		m.values[key] = v
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return r.(V), nil
}

// len returns the number of cached values.
func (m *memo[V]) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

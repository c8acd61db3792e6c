package cmap

import (
	"iter"
	"slices"
)

// Range calls fn for every entry until fn returns false. fn must not
// write to the map.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// All returns an iterator over a copy of each shard, so the loop body may
// write to the map.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, s := range m.shards {
			s.mu.RLock()
			keys := make([]string, 0, len(s.items))
			vals := make([]V, 0, len(s.items))
			for k, v := range s.items {
				keys = append(keys, k)
				vals = append(vals, v)
			}
			s.mu.RUnlock()

			for i := range keys {
				if !yield(keys[i], vals[i]) {
					return
				}
			}
		}
	}
}

// Keys returns all keys in ascending order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	slices.Sort(keys)
	return keys
}

// Values returns all values, ordered by key.
func (m *Map[V]) Values() []V {
	keys := m.Keys()
	values := make([]V, 0, len(keys))
	for _, k := range keys {
		if v, ok := m.Get(k); ok {
			values = append(values, v)
		}
	}
	return values
}

// ShardStats describes one shard.
type ShardStats struct {
	Index int
	Count int
}

// Stats returns the entry count of every shard.
func (m *Map[V]) Stats() []ShardStats {
	stats := make([]ShardStats, len(m.shards))
	for i, s := range m.shards {
		s.mu.RLock()
		stats[i] = ShardStats{Index: i, Count: len(s.items)}
		s.mu.RUnlock()
	}
	return stats
}

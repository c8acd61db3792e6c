package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{2, 2},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int](tt.input)
			if len(m.shards) != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, len(m.shards), tt.expected)
			}
		})
	}
}

func TestShardIndex_Stable(t *testing.T) {
	a := NewWithShards[int](64)
	b := NewWithShards[int](64)
	for _, key := range []string{"", "ironman", "mp_session_1", "unitednationsofearth_-1234"} {
		if a.ShardIndex(key) != b.ShardIndex(key) {
			t.Errorf("ShardIndex(%q) differs between maps", key)
		}
		if idx := a.ShardIndex(key); idx < 0 || idx >= 64 {
			t.Errorf("ShardIndex(%q) = %d, out of range", key, idx)
		}
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[int]()

	m.Set("key1", 100)
	m.Set("key2", 200)
	m.Set("key1", 101)

	if val, ok := m.Get("key1"); !ok || val != 101 {
		t.Errorf("Get(key1) = (%d, %v), want (101, true)", val, ok)
	}
	if !m.Has("key2") {
		t.Error("Has(key2) = false, want true")
	}
	if _, ok := m.Get("nonexistent"); ok {
		t.Error("Get(nonexistent) found a value")
	}

	m.Delete("key1")
	m.Delete("nonexistent")
	if m.Has("key1") {
		t.Error("key1 should not exist after deletion")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}

	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", m.Count())
	}
}

func TestGetOrCreate(t *testing.T) {
	m := New[*int]()
	calls := 0
	create := func() *int {
		calls++
		n := calls
		return &n
	}

	first, existed := m.GetOrCreate("s", create)
	if existed || *first != 1 {
		t.Fatalf("first GetOrCreate = (%d, %v), want (1, false)", *first, existed)
	}
	second, existed := m.GetOrCreate("s", create)
	if !existed || second != first {
		t.Errorf("second GetOrCreate returned a new value")
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestSetIfAbsentAndPop(t *testing.T) {
	m := New[string]()

	if !m.SetIfAbsent("a", "x") {
		t.Error("SetIfAbsent on empty key = false")
	}
	if m.SetIfAbsent("a", "y") {
		t.Error("SetIfAbsent on present key = true")
	}
	if v, ok := m.Pop("a"); !ok || v != "x" {
		t.Errorf("Pop(a) = (%q, %v), want (x, true)", v, ok)
	}
	if _, ok := m.Pop("a"); ok {
		t.Error("second Pop(a) found a value")
	}
}

func TestUpdate(t *testing.T) {
	m := New[int]()
	inc := func(v int, _ bool) int { return v + 1 }

	m.Update("n", inc)
	if got := m.Update("n", inc); got != 2 {
		t.Errorf("Update() = %d, want 2", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup
	const goroutines, ops = 50, 500

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				key := fmt.Sprintf("%d-%d", base, j)
				m.Set(key, j)
				m.Get(key)
				m.Update("shared", func(v int, _ bool) int { return v + 1 })
			}
		}(i)
	}
	wg.Wait()

	if got := m.Count(); got != goroutines*ops+1 {
		t.Errorf("Count() = %d, want %d", got, goroutines*ops+1)
	}
	if v, _ := m.Get("shared"); v != goroutines*ops {
		t.Errorf("shared = %d, want %d", v, goroutines*ops)
	}
}

// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestLRU[V any](capacity int, ttl time.Duration) (*LRU[V], *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[V](capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRU_BasicOperations(t *testing.T) {
	c, _ := newTestLRU[[]int](3, time.Minute)

	c.Add("a", []int{1})
	c.Add("b", []int{2})
	c.Add("c", []int{3})

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		got, ok := c.Get(key)
		if !ok {
			t.Fatalf("Get(%q) missing", key)
		}
		if got[0] != want {
			t.Errorf("Get(%q) = %v, want %d", key, got, want)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	c, _ := newTestLRU[string](3, time.Minute)

	c.Add("a", "A")
	c.Add("b", "B")
	c.Add("c", "C")
	c.Get("a")
	c.Add("d", "D")

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted as least recently used")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to be present", key)
		}
	}
}

func TestLRU_UpdateRefreshesValueAndTTL(t *testing.T) {
	c, clock := newTestLRU[string](2, time.Minute)

	c.Add("a", "old")
	clock.Advance(50 * time.Second)
	c.Add("a", "new")
	clock.Advance(50 * time.Second)

	got, ok := c.Get("a")
	if !ok || got != "new" {
		t.Errorf("Get(a) = %q, %v; want new, true", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRU_TTLExpiration(t *testing.T) {
	c, clock := newTestLRU[int](10, time.Minute)

	c.Add("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a before expiry")
	}

	clock.Advance(61 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to expire")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on Get, Len() = %d", c.Len())
	}
}

func TestLRU_RemoveAndClear(t *testing.T) {
	c, _ := newTestLRU[int](10, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)

	if !c.Remove("a") {
		t.Error("Remove(a) = false, want true")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true, want false")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
	c.Add("c", 3)
	if _, ok := c.Get("c"); !ok {
		t.Error("cache unusable after Clear")
	}
}

func TestLRU_CleanupExpired(t *testing.T) {
	c, clock := newTestLRU[int](10, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	clock.Advance(30 * time.Second)
	c.Add("c", 3)
	clock.Advance(45 * time.Second)

	if removed := c.CleanupExpired(); removed != 2 {
		t.Errorf("CleanupExpired() = %d, want 2", removed)
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should survive cleanup")
	}
}

func TestLRU_Stats(t *testing.T) {
	c, _ := newTestLRU[int](10, time.Minute)
	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d, %d, %d; want 2, 1, 1", hits, misses, size)
	}
}

func TestLRU_Defaults(t *testing.T) {
	c := NewLRU[int](0, 0)
	if c.capacity != 1000 {
		t.Errorf("capacity = %d, want 1000", c.capacity)
	}
	if c.ttl != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", c.ttl)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int](100, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := strconv.Itoa((g*500 + i) % 250)
				c.Add(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}

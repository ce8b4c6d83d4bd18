package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUCapacityEviction(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	var evicted []string
	c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted as least recently used")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v", evicted)
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d", c.Size())
	}
}

func TestLRUSlidingExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", 1)

	clock.Advance(50 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("entry expired too early")
	}
	clock.Advance(50 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("access should extend lifetime")
	}
	clock.Advance(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestCleanExpiredAndManager(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	removed := 0
	c.OnEvict(func(string, int) { removed++ })
	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(30 * time.Second)
	c.Set("c", 3)
	clock.Advance(45 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	if n := m.Sweep(); n != 2 {
		t.Fatalf("Sweep() = %d, want 2", n)
	}
	if removed != 2 || c.Size() != 1 {
		t.Fatalf("removed=%d size=%d", removed, c.Size())
	}
	m.Stop()
}

func TestDeleteCallsOnEvict(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	var got int
	c.OnEvict(func(_ string, v int) { got = v })
	c.Set("a", 7)
	c.Delete("a")
	c.Delete("a")
	if got != 7 || c.Size() != 0 {
		t.Fatalf("got=%d size=%d", got, c.Size())
	}
}

package ttlcache

import (
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New[string, int](time.Minute, clk)
	c.Put("a", 1, clk.now)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected hit, got %v %v", v, ok)
	}
	clk.now = clk.now.Add(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected hit before ttl")
	}
	clk.now = clk.now.Add(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss at ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be evicted on read")
	}
}

func TestCache_AgesFromPutTimestamp(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New[string, int](time.Minute, clk)
	c.Put("old", 1, clk.now.Add(-2*time.Minute))
	if _, ok := c.Get("old"); ok {
		t.Fatalf("snapshot older than ttl must not be served")
	}
}

func TestCache_DisabledWithZeroTTL(t *testing.T) {
	c := New[string, int](0, nil)
	c.Put("a", 1, time.Time{})
	if _, ok := c.Get("a"); ok {
		t.Fatalf("zero ttl must disable caching")
	}
}

func TestCache_Purge(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New[string, int](time.Minute, clk)
	c.Put("a", 1, clk.now.Add(-time.Hour))
	c.Put("b", 2, clk.now)
	if n := c.Purge(); n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.Len())
	}
}

package cache

import "testing"

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a missing before eviction")
	}
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a lost: %v %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
}

func TestRemoveMissingKeyIsNoop(t *testing.T) {
	c := NewLRU[string, int](1)
	c.Remove("ghost")
	c.Add("a", 1)
	c.Remove("a")
	if c.Len() != 0 {
		t.Fatalf("len = %d, want 0", c.Len())
	}
}

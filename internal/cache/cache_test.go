package cache

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss")
	}

	c.Set("numBlocks", 42)
	got, ok := c.Get("numBlocks")
	if !ok || got != 42 {
		t.Errorf("got %d, %v; want 42, true", got, ok)
	}

	c.Delete("numBlocks")
	if _, ok := c.Get("numBlocks"); ok {
		t.Error("expected miss after delete")
	}
}

func TestCache_Expires(t *testing.T) {
	c := New[string, int](20 * time.Millisecond)
	c.Set("k", 1)

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestCache_SizeBound(t *testing.T) {
	c := NewWithSize[int, int](2, time.Minute)
	c.Set(1, 1)
	c.Set(2, 2)
	c.Set(3, 3)

	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
	if _, ok := c.Get(1); ok {
		t.Error("expected oldest entry evicted")
	}
}

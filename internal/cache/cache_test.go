package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](0)
	defer c.Close()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "gas", 30, time.Second)

	if v, ok := c.Get(ctx, "gas"); !ok || v != 30 {
		t.Fatalf("expected 30, got %d (found=%v)", v, ok)
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get(ctx, "gas"); ok {
		t.Error("expected entry to be expired")
	}

	c.removeExpired()
	if c.Len() != 0 {
		t.Errorf("expected sweep to remove expired entry, len=%d", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := New[string, string](time.Minute)
	defer c.Close()

	c.Set(ctx, "tokens", "list", time.Minute)
	c.Delete(ctx, "tokens")

	if _, ok := c.Get(ctx, "tokens"); ok {
		t.Error("expected deleted entry to be gone")
	}
}

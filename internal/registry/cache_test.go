package registry

import (
	"context"
	"testing"
	"time"
)

func TestCache_PutGet(t *testing.T) {
	c, err := OpenCache(":memory:", time.Hour, testLogger())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "https://example.com/a.yml"); ok {
		t.Error("empty cache should miss")
	}

	if err := c.Put(ctx, "https://example.com/a.yml", []byte("name: a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	body, ok := c.Get(ctx, "https://example.com/a.yml")
	if !ok || string(body) != "name: a" {
		t.Errorf("Get = %q, %v", body, ok)
	}

	// Overwrite.
	if err := c.Put(ctx, "https://example.com/a.yml", []byte("name: b")); err != nil {
		t.Fatalf("Put (update): %v", err)
	}
	body, _ = c.Get(ctx, "https://example.com/a.yml")
	if string(body) != "name: b" {
		t.Errorf("after update Get = %q", body)
	}
}

func TestCache_Expiry(t *testing.T) {
	c, err := OpenCache(":memory:", time.Minute, testLogger())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	if err := c.Put(ctx, "u", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := c.Get(ctx, "u"); !ok {
		t.Error("fresh entry should hit")
	}

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, ok := c.Get(ctx, "u"); ok {
		t.Error("stale entry should miss")
	}
}

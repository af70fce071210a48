package cache

import (
	"testing"
	"time"
)

func TestLayeredCache_RoundTrip(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)

	if err := c.Set("k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	val, found := c.Get("k1")
	if !found {
		t.Fatal("Expected cache hit")
	}
	if string(val) != "v1" {
		t.Errorf("Expected v1, got %s", val)
	}

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}
}

func TestLayeredCache_DiskSurvivesMemoryLoss(t *testing.T) {
	dir := t.TempDir()

	first := NewLayeredCache(time.Minute, dir, time.Minute)
	if err := first.Set("k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// A fresh instance has an empty memory layer but shares the disk dir.
	second := NewLayeredCache(time.Minute, dir, time.Minute)
	val, found := second.Get("k1")
	if !found {
		t.Fatal("Expected disk hit after memory loss")
	}
	if string(val) != "v1" {
		t.Errorf("Expected v1, got %s", val)
	}

	// The hit should have been promoted into memory.
	if _, found := second.memory.Get("k1"); !found {
		t.Error("Expected disk hit promoted to memory")
	}
}

func TestLayeredCache_Delete(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)
	c.Set("k1", []byte("v1"), 0)

	if err := c.Delete("k1"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, found := c.Get("k1"); found {
		t.Error("Expected miss after delete")
	}
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	c.Set("k1", []byte("v1"), 10*time.Millisecond)

	if _, found := c.Get("k1"); !found {
		t.Fatal("Expected hit before expiry")
	}

	time.Sleep(30 * time.Millisecond)
	if _, found := c.Get("k1"); found {
		t.Error("Expected miss after TTL expiry")
	}
}

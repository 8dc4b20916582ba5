package cache

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}

	want := []byte(`{"partition": {"a": 0}}`)
	if err := c.Set(ctx, "k1", want, TTLDetection); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, hit, err := c.Get(ctx, "k1")
	if err != nil || !hit {
		t.Fatalf("Get(k1) = hit %v, err %v", hit, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get(k1) = %s, want %s", got, want)
	}

	if err := c.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k1"); hit {
		t.Error("Get(k1) hit after Delete")
	}

	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "k1"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	// Negative TTL means no expiry metadata; zero-value ExpiresAt never expires.
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("entry without expiry treated as expired")
	}

	if err := c.Set(ctx, "k2", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k2"); hit {
		t.Error("expired entry returned as hit")
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), TTLDetection); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get() = hit %v, err %v; want miss", hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDetectionKey(t *testing.T) {
	h := Hash([]byte("payload"))

	k1 := DetectionKey(h, 1.0)
	k2 := DetectionKey(h, 1.0)
	if k1 != k2 {
		t.Error("DetectionKey not deterministic")
	}
	if !strings.HasPrefix(k1, "detect:") {
		t.Errorf("key %q missing prefix", k1)
	}

	if DetectionKey(h, 1.0) == DetectionKey(h, 2.0) {
		t.Error("different resolutions share a key")
	}
	if DetectionKey(Hash([]byte("other")), 1.0) == k1 {
		t.Error("different payloads share a key")
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("data"))
	if len(h) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h))
	}
	if h != Hash([]byte("data")) {
		t.Error("Hash not deterministic")
	}
}

package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("search", "The Earth is flat", "3")
	b := Key("search", "The Earth is flat", "3")
	c := Key("search", "The Earth is flat3")

	if a != b {
		t.Errorf("Expected stable keys, got %s and %s", a, b)
	}
	if a == c {
		t.Error("Expected part boundaries to matter")
	}
	if !strings.HasPrefix(a, KeyPrefix+"search:") {
		t.Errorf("Expected namespaced key, got %s", a)
	}
}

func testCacheRoundTrip(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, found := c.Get(ctx, KeyPrefix+"test:missing"); found {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set(ctx, KeyPrefix+"test:k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get(ctx, KeyPrefix+"test:k")
	if !found || string(val) != "v" {
		t.Errorf("Expected hit with v, got %q (found=%v)", val, found)
	}

	if err := c.Delete(ctx, KeyPrefix+"test:k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get(ctx, KeyPrefix+"test:k"); found {
		t.Error("Expected miss after delete")
	}

	_ = c.Set(ctx, KeyPrefix+"test:a", []byte("1"), time.Minute)
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := c.Get(ctx, KeyPrefix+"test:a"); found {
		t.Error("Expected miss after clear")
	}
}

func TestMemoryCache(t *testing.T) {
	testCacheRoundTrip(t, NewMemoryCache(time.Minute, time.Minute))
}

func TestDiskCache(t *testing.T) {
	testCacheRoundTrip(t, NewDiskCache(t.TempDir(), time.Minute))
}

func TestLayeredCache(t *testing.T) {
	testCacheRoundTrip(t, NewLayeredCache(time.Minute, t.TempDir(), time.Minute))
}

func TestDiskCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set(ctx, KeyPrefix+"search:abc", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, found := c.Get(ctx, KeyPrefix+"search:abc"); found {
		t.Error("Expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_ = NewDiskCache(dir, time.Minute).Set(ctx, "k", []byte("from disk"), time.Minute)

	layered := NewLayeredCache(time.Minute, dir, time.Minute)
	val, found := layered.Get(ctx, "k")
	if !found || string(val) != "from disk" {
		t.Fatalf("Expected disk hit, got %q", val)
	}
	if val, found := layered.memory.Get(ctx, "k"); !found || string(val) != "from disk" {
		t.Error("Expected value promoted to memory")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		wantNil bool
		wantErr bool
	}{
		{"memory", false, false},
		{"", false, false},
		{"disk", false, false},
		{"layered", false, false},
		{"redis", false, false},
		{"none", true, false},
		{"memcached", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c, err := New(model.CacheConfig{Backend: tt.backend, Dir: t.TempDir(), RedisAddr: "localhost:6379"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unexpected error: %v", err)
			}
			if (c == nil) != tt.wantNil {
				t.Errorf("Expected nil=%v, got %T", tt.wantNil, c)
			}
			if rc, ok := c.(*RedisCache); ok {
				_ = rc.Close()
			}
		})
	}
}

// Runs only against a real server: CLAIMCHECK_TEST_REDIS_ADDR=localhost:6379
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("CLAIMCHECK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CLAIMCHECK_TEST_REDIS_ADDR not set")
	}

	c := NewRedisCache(addr, "", 0, time.Minute)
	defer func() { _ = c.Close() }()

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	testCacheRoundTrip(t, c)
}

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniredisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return NewRedisCache(rdb, "sc"), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache, _ := newMiniredisCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "sess-1", "user-1", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, ok, err := cache.Get(ctx, "sess-1")
	if err != nil || !ok {
		t.Fatalf("Get = %q, %v, %v", val, ok, err)
	}
	if val != "user-1" {
		t.Errorf("value = %q, want user-1", val)
	}

	hit, err := cache.Exists(ctx, "sess-1")
	if err != nil || !hit {
		t.Fatalf("Exists = %v, %v", hit, err)
	}
}

func TestRedisCacheMiss(t *testing.T) {
	cache, _ := newMiniredisCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("unexpected hit")
	}

	hit, err := cache.Exists(ctx, "absent")
	if err != nil || hit {
		t.Fatalf("Exists = %v, %v; want false", hit, err)
	}
}

func TestRedisCacheTTLExpiry(t *testing.T) {
	cache, mr := newMiniredisCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "sess-1", "user-1", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	hit, err := cache.Exists(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if hit {
		t.Fatal("entry survived TTL")
	}
}

func TestRedisCacheDel(t *testing.T) {
	cache, _ := newMiniredisCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "sess-1", "user-1", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cache.Del(ctx, "sess-1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if hit, _ := cache.Exists(ctx, "sess-1"); hit {
		t.Fatal("entry survived delete")
	}
}

func TestRedisCacheRejectsZeroTTL(t *testing.T) {
	cache, _ := newMiniredisCache(t)
	if err := cache.Set(context.Background(), "k", "v", 0); err == nil {
		t.Fatal("expected error for zero TTL")
	}
}

func TestRedisCacheOutageWrapsError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := NewRedisCache(rdb, "sc")

	mr.Close()

	if _, _, err := cache.Get(context.Background(), "k"); !errors.Is(err, ErrCacheUnavailable) {
		t.Fatalf("expected ErrCacheUnavailable, got %v", err)
	}
}

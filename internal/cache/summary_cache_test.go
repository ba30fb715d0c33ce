package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"finledger/internal/uuid"
)

type cachedSummary struct {
	Income string `json:"income"`
	Count  int    `json:"count"`
}

func TestSummaryKey(t *testing.T) {
	got := SummaryKey("user-1", 3, 2024)
	if got != "finledger:summary:user-1:2024-03" {
		t.Errorf("unexpected key %q", got)
	}
	if SummaryKey("user-1", 3, 2024) == SummaryKey("user-2", 3, 2024) {
		t.Error("keys for different owners must differ")
	}
	if SummaryKey("user-1", 3, 2024) == SummaryKey("user-1", 4, 2024) {
		t.Error("keys for different months must differ")
	}
}

func TestGenerationKey(t *testing.T) {
	if GenerationKey("user-1", 3, 2024) == SummaryKey("user-1", 3, 2024) {
		t.Error("generation key must not collide with the value key")
	}
}

func TestNopSummaryCache(t *testing.T) {
	ctx := context.Background()
	c := NewNopSummaryCache()

	if err := c.Set(ctx, "u", 1, 2024, 0, cachedSummary{Income: "10"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var dst cachedSummary
	hit, err := c.Get(ctx, "u", 1, 2024, &dst)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Error("nop cache must always miss")
	}
	if err := c.Invalidate(ctx, "u", 1, 2024); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
}

func TestNewWithoutAddrFallsBackToNop(t *testing.T) {
	c, closeFn := New(context.Background(), "", time.Minute)
	if _, ok := c.(nopSummaryCache); !ok {
		t.Errorf("expected nop cache, got %T", c)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestRedisSummaryCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	c := NewRedisSummaryCache(client, time.Minute)
	userID := uuid.New()

	var dst cachedSummary
	hit, err := c.Get(ctx, userID, 5, 2024, &dst)
	if err != nil || hit {
		t.Fatalf("expected clean miss, got hit=%v err=%v", hit, err)
	}

	gen, err := c.Generation(ctx, userID, 5, 2024)
	if err != nil || gen != 0 {
		t.Fatalf("expected generation 0, got %d err=%v", gen, err)
	}

	want := cachedSummary{Income: "1500.00", Count: 3}
	if err := c.Set(ctx, userID, 5, 2024, gen, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	hit, err = c.Get(ctx, userID, 5, 2024, &dst)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if dst != want {
		t.Errorf("got %+v, want %+v", dst, want)
	}

	if err := c.Invalidate(ctx, userID, 5, 2024); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	hit, _ = c.Get(ctx, userID, 5, 2024, &dst)
	if hit {
		t.Error("expected miss after invalidate")
	}

	// A summary computed before the invalidation must not be stored.
	if err := c.Set(ctx, userID, 5, 2024, gen, want); err != nil {
		t.Fatalf("stale Set: %v", err)
	}
	hit, _ = c.Get(ctx, userID, 5, 2024, &dst)
	if hit {
		t.Error("stale generation must not repopulate the cache")
	}

	next, err := c.Generation(ctx, userID, 5, 2024)
	if err != nil || next != gen+1 {
		t.Fatalf("expected generation %d, got %d err=%v", gen+1, next, err)
	}
	if err := c.Set(ctx, userID, 5, 2024, next, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	hit, _ = c.Get(ctx, userID, 5, 2024, &dst)
	if !hit {
		t.Error("expected hit with the current generation")
	}
	client.Del(ctx, SummaryKey(userID, 5, 2024), GenerationKey(userID, 5, 2024))
}

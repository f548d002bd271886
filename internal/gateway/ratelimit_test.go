package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testRateConfig struct{}

func (testRateConfig) GetRateLimitRequests() int         { return 5 }
func (testRateConfig) GetRateLimitWindow() time.Duration { return time.Minute }

func newTestLimiter(t *testing.T) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rl := NewRateLimiter(client, testRateConfig{})
	at := time.Date(2026, time.March, 10, 12, 0, 30, 0, time.UTC)
	rl.now = func() time.Time { return at }
	return rl, mr
}

func TestRateLimiterExhaustsAtLimit(t *testing.T) {
	rl, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		decision, err := rl.Allow(ctx, "key-1")
		if err != nil {
			t.Fatalf("Allow %d: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d denied inside the limit", i)
		}
		if want := 5 - i - 1; decision.Remaining != want {
			t.Fatalf("request %d remaining = %d, want %d", i, decision.Remaining, want)
		}
	}

	decision, err := rl.Allow(ctx, "key-1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if decision.Allowed {
		t.Fatal("request over the limit was allowed")
	}
	if decision.Remaining != 0 {
		t.Fatalf("denied request remaining = %d, want 0", decision.Remaining)
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := rl.Allow(ctx, "key-1"); err != nil {
			t.Fatalf("Allow: %v", err)
		}
	}

	decision, err := rl.Allow(ctx, "key-2")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !decision.Allowed || decision.Remaining != 4 {
		t.Fatalf("fresh key decision = %+v", decision)
	}
}

func TestRateLimiterFreshWindowResets(t *testing.T) {
	rl, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		if _, err := rl.Allow(ctx, "key-1"); err != nil {
			t.Fatalf("Allow: %v", err)
		}
	}

	// Two full windows later the previous window no longer overlaps.
	at := rl.now().Add(2 * time.Minute)
	rl.now = func() time.Time { return at }
	mr.FastForward(2 * time.Minute)

	decision, err := rl.Allow(ctx, "key-1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("request after window reset was denied")
	}
	if decision.Remaining != 4 {
		t.Fatalf("remaining after reset = %d, want 4", decision.Remaining)
	}
}

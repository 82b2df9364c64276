package ratelimit

import (
	"context"
	"testing"
	"time"
)

// memStore is an in-memory CounterStore for tests.
type memStore struct {
	counts map[string]int64
}

func newMemStore() *memStore {
	return &memStore{counts: make(map[string]int64)}
}

func (s *memStore) GetCount(_ context.Context, key string) (int64, error) {
	return s.counts[key], nil
}

func (s *memStore) IncrCount(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.counts[key]++
	return s.counts[key], nil
}

func TestAllowWithinBudget(t *testing.T) {
	limiter := NewLimiter(newMemStore())
	limiter.now = func() time.Time { return time.UnixMilli(1000000) }

	budget := Budget{Limit: 3, Window: time.Hour}
	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(context.Background(), "anon", "abc", "fast", budget)
		if err != nil {
			t.Fatalf("Allow returned error: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("request %d rejected within budget", i+1)
		}
		if want := 3 - (i + 1); d.Remaining != want {
			t.Errorf("request %d: remaining = %d, want %d", i+1, d.Remaining, want)
		}
	}
}

func TestRejectOverBudget(t *testing.T) {
	limiter := NewLimiter(newMemStore())
	fixed := time.UnixMilli(1000000)
	limiter.now = func() time.Time { return fixed }

	budget := Budget{Limit: 2, Window: time.Hour}
	for i := 0; i < 2; i++ {
		if _, err := limiter.Allow(context.Background(), "user", "u1", "quality", budget); err != nil {
			t.Fatalf("Allow returned error: %v", err)
		}
	}

	d, err := limiter.Allow(context.Background(), "user", "u1", "quality", budget)
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if d.Allowed {
		t.Error("third request allowed over a budget of 2")
	}
	if d.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", d.Remaining)
	}
	if !d.ResetTime.After(fixed) {
		t.Errorf("reset time %v not after now %v", d.ResetTime, fixed)
	}
}

func TestNewWindowAdmitsAgain(t *testing.T) {
	limiter := NewLimiter(newMemStore())
	current := time.UnixMilli(1000000)
	limiter.now = func() time.Time { return current }

	budget := Budget{Limit: 1, Window: time.Minute}
	if d, _ := limiter.Allow(context.Background(), "anon", "abc", "fast", budget); !d.Allowed {
		t.Fatal("first request rejected")
	}
	if d, _ := limiter.Allow(context.Background(), "anon", "abc", "fast", budget); d.Allowed {
		t.Fatal("second request in same window allowed over budget of 1")
	}

	// Advance past the window boundary
	current = current.Add(time.Minute)
	d, err := limiter.Allow(context.Background(), "anon", "abc", "fast", budget)
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if !d.Allowed {
		t.Error("first request in a new window rejected")
	}
}

func TestBudgetsIsolatedByTierAndIdentity(t *testing.T) {
	limiter := NewLimiter(newMemStore())
	limiter.now = func() time.Time { return time.UnixMilli(1000000) }

	budget := Budget{Limit: 1, Window: time.Hour}
	if d, _ := limiter.Allow(context.Background(), "user", "u1", "fast", budget); !d.Allowed {
		t.Fatal("first fast request rejected")
	}

	// Same identity, different tier: separate counter
	if d, _ := limiter.Allow(context.Background(), "user", "u1", "quality", budget); !d.Allowed {
		t.Error("quality tier charged against fast tier budget")
	}

	// Different identity, same tier: separate counter
	if d, _ := limiter.Allow(context.Background(), "user", "u2", "fast", budget); !d.Allowed {
		t.Error("u2 charged against u1 budget")
	}
}

func TestWindowIndex(t *testing.T) {
	window := time.Minute
	t0 := time.UnixMilli(0)
	if idx := WindowIndex(t0, window); idx != 0 {
		t.Errorf("index at epoch = %d, want 0", idx)
	}
	if idx := WindowIndex(t0.Add(59*time.Second+999*time.Millisecond), window); idx != 0 {
		t.Errorf("index just before boundary = %d, want 0", idx)
	}
	if idx := WindowIndex(t0.Add(time.Minute), window); idx != 1 {
		t.Errorf("index at boundary = %d, want 1", idx)
	}
}

func TestHashIdentityStable(t *testing.T) {
	a := HashIdentity("203.0.113.7")
	b := HashIdentity("203.0.113.7")
	c := HashIdentity("203.0.113.8")

	if a != b {
		t.Errorf("hash not stable: %s != %s", a, b)
	}
	if a == c {
		t.Errorf("different inputs produced the same hash: %s", a)
	}
	if a == "203.0.113.7" {
		t.Error("identity not hashed")
	}
}

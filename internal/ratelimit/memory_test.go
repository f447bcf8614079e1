package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_EnforcesWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 2; i++ {
		result, errAllow := limiter.Allow(context.Background(), "admin:root", 2, now)
		if errAllow != nil {
			t.Fatalf("allow: %v", errAllow)
		}
		if !result.Allowed {
			t.Fatalf("expected request %d allowed", i+1)
		}
	}

	result, errAllow := limiter.Allow(context.Background(), "admin:root", 2, now)
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if result.Allowed {
		t.Fatalf("expected third request in the window to be denied")
	}

	result, errAllow = limiter.Allow(context.Background(), "admin:root", 2, now.Add(window))
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if !result.Allowed {
		t.Fatalf("expected request allowed in the next window")
	}
}

func TestMemoryLimiter_ZeroLimitAllows(t *testing.T) {
	limiter := NewMemoryLimiter()
	result, errAllow := limiter.Allow(context.Background(), "admin:root", 0, time.Now())
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if !result.Allowed {
		t.Fatalf("expected zero limit to disable limiting")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1_700_000_000, 0)

	if result, _ := limiter.Allow(context.Background(), "admin:a", 1, now); !result.Allowed {
		t.Fatalf("expected first key allowed")
	}
	if result, _ := limiter.Allow(context.Background(), "admin:a", 1, now); result.Allowed {
		t.Fatalf("expected first key exhausted")
	}
	if result, _ := limiter.Allow(context.Background(), "admin:b", 1, now); !result.Allowed {
		t.Fatalf("expected second key unaffected")
	}
}

package models

import (
	"testing"
	"time"
)

func TestSubscriptionUsageStatus(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	entry := SubscriptionUsage{EffectiveStart: start, EffectiveEnd: &end}

	if got := entry.Status(start.Add(-time.Hour)); got != UsageStatusUpcoming {
		t.Fatalf("expected upcoming before start, got %s", got)
	}
	if got := entry.Status(start); got != UsageStatusActive {
		t.Fatalf("expected active at start (inclusive), got %s", got)
	}
	if got := entry.Status(end.Add(-time.Second)); got != UsageStatusActive {
		t.Fatalf("expected active just before end, got %s", got)
	}
	if got := entry.Status(end); got != UsageStatusExpired {
		t.Fatalf("expected expired at end (exclusive), got %s", got)
	}
}

func TestSubscriptionUsageStatus_OpenEnded(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	entry := SubscriptionUsage{EffectiveStart: start}

	if got := entry.Status(start.AddDate(10, 0, 0)); got != UsageStatusActive {
		t.Fatalf("expected open-ended entry to stay active, got %s", got)
	}
}

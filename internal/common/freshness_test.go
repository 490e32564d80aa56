package common

import (
	"testing"
	"time"
)

func TestCheckFreshness(t *testing.T) {
	now := mustTime(t, time.RFC3339, "2025-01-08T12:00:00Z")
	window := 1 * time.Hour

	tests := []struct {
		name      string
		lastRun   string
		wantFresh bool
	}{
		{"just written", "2025-01-08T11:59:59Z", true},
		{"half window", "2025-01-08T11:30:00Z", true},
		{"exactly at window", "2025-01-08T11:00:00Z", false},
		{"stale", "2025-01-08T09:00:00Z", false},
		{"future write (clock skew)", "2025-01-08T12:05:00Z", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lastRun := mustTime(t, time.RFC3339, tt.lastRun)
			result := CheckFreshness(lastRun, now, window)
			if result.IsFresh != tt.wantFresh {
				t.Errorf("CheckFreshness(%s) = %v, want %v (%s)", tt.lastRun, result.IsFresh, tt.wantFresh, result.Reason)
			}
		})
	}
}

func TestCheckFreshnessNormalizesZones(t *testing.T) {
	eastern, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 11:30 UTC written as 06:30 Eastern is 30 minutes old at 12:00 UTC.
	lastRun := time.Date(2025, 1, 8, 6, 30, 0, 0, eastern)
	now := mustTime(t, time.RFC3339, "2025-01-08T12:00:00Z")

	result := CheckFreshness(lastRun, now, time.Hour)
	if !result.IsFresh {
		t.Errorf("expected fresh result, got stale: %s", result.Reason)
	}
	if result.Age != 30*time.Minute {
		t.Errorf("age = %s, want 30m", result.Age)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{"rfc3339", "2025-01-08T12:00:00Z", "2025-01-08T12:00:00Z", false},
		{"rfc3339 with offset", "2025-01-08T07:00:00-05:00", "2025-01-08T12:00:00Z", false},
		{"space separated", "2025-01-08 12:00:00", "2025-01-08T12:00:00Z", false},
		{"date only", "2025-01-08", "2025-01-08T00:00:00Z", false},
		{"empty", "", "", true},
		{"garbage", "not-a-time", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTimestamp(%q) expected error, got %s", tt.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) unexpected error: %v", tt.value, err)
			}
			if got.Format(time.RFC3339) != tt.want {
				t.Errorf("ParseTimestamp(%q) = %s, want %s", tt.value, got.Format(time.RFC3339), tt.want)
			}
		})
	}
}

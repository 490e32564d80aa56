package common

import (
	"fmt"
	"time"
)

// FreshnessResult contains the result of a cache freshness check.
type FreshnessResult struct {
	// IsFresh indicates whether the cached result may be served without recomputation.
	IsFresh bool
	// Age is how old the cached result is at evaluation time.
	Age time.Duration
	// Reason provides a human-readable explanation for the decision.
	Reason string
}

// CheckFreshness determines whether a cached analysis run from lastRun is still
// inside the freshness window at now. Both times are normalized to UTC.
func CheckFreshness(lastRun, now time.Time, window time.Duration) FreshnessResult {
	age := now.UTC().Sub(lastRun.UTC())

	if age < 0 {
		// Clock skew between writer and reader; treat as fresh rather than
		// recomputing on every read.
		return FreshnessResult{
			IsFresh: true,
			Age:     0,
			Reason:  "cached result is from the future, assuming fresh",
		}
	}

	if age < window {
		return FreshnessResult{
			IsFresh: true,
			Age:     age,
			Reason:  fmt.Sprintf("using cached data (age: %.2f hours)", age.Hours()),
		}
	}

	return FreshnessResult{
		IsFresh: false,
		Age:     age,
		Reason:  fmt.Sprintf("cache expired (age: %.2f hours)", age.Hours()),
	}
}

// ParseTimestamp parses a stored timestamp string, accepting RFC3339 and the
// legacy space-separated layouts, and normalizes the result to UTC.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999",
		"2006-01-02",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("could not parse timestamp: %s", value)
}

package analyses

import (
	"testing"
	"time"
)

func TestProgressFor(t *testing.T) {
	cases := []struct {
		step string
		want int
	}{
		{StepPending, 0},
		{StepUploading, 20},
		{StepDomainDetection, 50},
		{StepWaitingForIntent, 55},
		{StepAnalysis, 75},
		{StepPersist, 98},
		{StepComplete, 100},
		{StepError, 0},
		{"bogus", 0},
	}
	for _, tc := range cases {
		if got := ProgressFor(tc.step); got != tc.want {
			t.Errorf("ProgressFor(%q) = %d, want %d", tc.step, got, tc.want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		step string
		want string
	}{
		{StepComplete, StatusComplete},
		{StepWaitingForIntent, StatusAwaitingIntent},
		{StepError, StatusError},
		{StepPending, StatusPending},
		{"", StatusPending},
		{StepUploading, StatusProcessing},
		{StepDomainDetection, StatusProcessing},
		{StepAnalysis, StatusProcessing},
		{StepPersist, StatusProcessing},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.step); got != tc.want {
			t.Errorf("StatusFor(%q) = %q, want %q", tc.step, got, tc.want)
		}
	}
}

func TestPollLimiterWindow(t *testing.T) {
	current := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	limiter := newPollLimiter(0, func() time.Time { return current })

	if !limiter.Allow("user-1", "analysis-1") {
		t.Fatal("first poll should pass")
	}
	if limiter.Allow("user-1", "analysis-1") {
		t.Fatal("immediate second poll should be limited")
	}
	if !limiter.Allow("user-1", "analysis-2") {
		t.Fatal("different analysis should not share the window")
	}
	current = current.Add(1100 * time.Millisecond)
	if !limiter.Allow("user-1", "analysis-1") {
		t.Fatal("poll after the window should pass")
	}
	if limiter.RetryAfterSeconds() != 1 {
		t.Fatalf("RetryAfterSeconds = %d, want 1", limiter.RetryAfterSeconds())
	}
}

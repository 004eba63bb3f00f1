package investigation

import (
	"testing"
	"time"
)

func TestRetryPolicyDecide(t *testing.T) {
	policy := DefaultRetryPolicy()
	streak := &FailureStreak{}

	// First two failures: keep going.
	for i := 0; i < 2; i++ {
		streak.Failure()
		if got := policy.Decide(streak); got != ActionContinue {
			t.Fatalf("Decide() after %d failures = %q, want continue", i+1, got)
		}
	}

	// Third failure triggers the cooldown.
	streak.Failure()
	if got := policy.Decide(streak); got != ActionCooldown {
		t.Fatalf("Decide() after 3 failures = %q, want cooldown", got)
	}
	streak.CooldownDone()

	// The stop count survives the cooldown: failures 4 and 5 continue,
	// failure 6 ends the run.
	streak.Failure()
	if got := policy.Decide(streak); got != ActionContinue {
		t.Fatalf("Decide() after cooldown reset = %q, want continue", got)
	}
	streak.Failure()
	if got := policy.Decide(streak); got != ActionContinue {
		t.Fatalf("Decide() at 5 total failures = %q, want continue", got)
	}
	streak.Failure()
	if got := policy.Decide(streak); got != ActionStop {
		t.Fatalf("Decide() at 6 total failures = %q, want stop", got)
	}
	if streak.SinceSuccess() != 6 {
		t.Fatalf("SinceSuccess() = %d", streak.SinceSuccess())
	}
}

func TestFailureStreakSuccessResets(t *testing.T) {
	policy := DefaultRetryPolicy()
	streak := &FailureStreak{}

	for i := 0; i < 5; i++ {
		streak.Failure()
	}
	streak.Success()

	if streak.SinceSuccess() != 0 {
		t.Fatalf("SinceSuccess() after success = %d", streak.SinceSuccess())
	}
	streak.Failure()
	if got := policy.Decide(streak); got != ActionContinue {
		t.Fatalf("Decide() after success reset = %q, want continue", got)
	}
}

func TestRetryPolicyNormalize(t *testing.T) {
	policy := RetryPolicy{}.Normalize()
	if policy.BackoffAfter != 3 || policy.StopAfter != 6 {
		t.Fatalf("Normalize() thresholds = %d/%d", policy.BackoffAfter, policy.StopAfter)
	}
	if policy.Cooldown != 30*time.Minute {
		t.Fatalf("Normalize() cooldown = %v", policy.Cooldown)
	}

	inverted := RetryPolicy{BackoffAfter: 5, StopAfter: 2, Cooldown: time.Minute}.Normalize()
	if inverted.StopAfter != 5 {
		t.Fatalf("Normalize() should lift StopAfter to BackoffAfter, got %d", inverted.StopAfter)
	}
}

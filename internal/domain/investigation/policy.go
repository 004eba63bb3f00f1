package investigation

import "time"

// BackoffAction is what the worker loop does after a failed investigation.
type BackoffAction string

const (
	// ActionContinue moves straight on to the next queue item.
	ActionContinue BackoffAction = "continue"
	// ActionCooldown suspends the loop for the policy cooldown before the
	// next attempt.
	ActionCooldown BackoffAction = "cooldown"
	// ActionStop terminates the loop deliberately, leaving the remaining
	// items queued for the next trigger.
	ActionStop BackoffAction = "stop"
)

const (
	defaultBackoffAfter = 3
	defaultStopAfter    = 6
	defaultCooldown     = 30 * time.Minute
)

// RetryPolicy throttles a worker run based on consecutive investigation
// failures. The counts are global to the run, not per item: repeated failure
// across different issues signals systemic trouble (an unreachable
// dependency, expired credentials), not one bad issue.
//
// Two counts drive the decisions. Failures since the last success decide the
// stop: at StopAfter the run ends with everything left queued. Failures
// since the last cooldown (or success) decide the throttle: at BackoffAfter
// the loop sleeps for Cooldown and that count alone resets, granting a fresh
// burst of immediate attempts while the stop count keeps accumulating.
type RetryPolicy struct {
	// BackoffAfter is the failures-since-cooldown count that triggers a cooldown.
	BackoffAfter int
	// StopAfter is the failures-since-success count that ends the run.
	StopAfter int
	// Cooldown is the fixed suspension before the next attempt.
	Cooldown time.Duration
}

// DefaultRetryPolicy returns the stock 3-failure cooldown / 6-failure stop
// policy with a 30 minute cooldown.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BackoffAfter: defaultBackoffAfter,
		StopAfter:    defaultStopAfter,
		Cooldown:     defaultCooldown,
	}
}

// Normalize fills non-positive fields with the defaults and keeps the stop
// threshold at or above the backoff threshold.
func (p RetryPolicy) Normalize() RetryPolicy {
	if p.BackoffAfter <= 0 {
		p.BackoffAfter = defaultBackoffAfter
	}
	if p.StopAfter <= 0 {
		p.StopAfter = defaultStopAfter
	}
	if p.StopAfter < p.BackoffAfter {
		p.StopAfter = p.BackoffAfter
	}
	if p.Cooldown <= 0 {
		p.Cooldown = defaultCooldown
	}
	return p
}

// FailureStreak tracks the failure counts of one worker run.
type FailureStreak struct {
	sinceSuccess  int
	sinceCooldown int
}

// Success resets both counts.
func (s *FailureStreak) Success() {
	s.sinceSuccess = 0
	s.sinceCooldown = 0
}

// Failure bumps both counts.
func (s *FailureStreak) Failure() {
	s.sinceSuccess++
	s.sinceCooldown++
}

// CooldownDone resets only the throttle count; the stop count keeps
// accumulating until a success.
func (s *FailureStreak) CooldownDone() {
	s.sinceCooldown = 0
}

// SinceSuccess returns the consecutive failures without a success.
func (s *FailureStreak) SinceSuccess() int {
	return s.sinceSuccess
}

// Decide maps the current streak to a loop action. Stop wins over cooldown.
func (p RetryPolicy) Decide(streak *FailureStreak) BackoffAction {
	switch {
	case streak.sinceSuccess >= p.StopAfter:
		return ActionStop
	case streak.sinceCooldown >= p.BackoffAfter:
		return ActionCooldown
	default:
		return ActionContinue
	}
}
